package source

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/internalerr"
)

// Record is one decoded review. Numbers are kept as json.Number so the
// consumer decides the column kind.
type Record map[string]any

// Reader streams newline-delimited JSON records in bounded batches.
type Reader struct {
	path   string
	f      *os.File
	gz     *gzip.Reader
	dec    *json.Decoder
	record int
}

// Open opens a raw source, transparently decompressing .gz files.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source %s: %w", path, err)
	}

	r := &Reader{path: path, f: f}
	var in io.Reader = bufio.NewReaderSize(f, 1<<20)
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(in)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: %s: %v", internalerr.ErrMalformedSource, path, err)
		}
		r.gz = gz
		in = gz
	}
	r.dec = json.NewDecoder(in)
	r.dec.UseNumber()
	return r, nil
}

// Next decodes up to size records. It returns io.EOF when the source is
// exhausted. Any decode failure is reported as ErrMalformedSource; the
// caller is expected to give up on the whole source.
func (r *Reader) Next(size int) ([]Record, error) {
	if size <= 0 {
		size = 1
	}
	batch := make([]Record, 0, size)
	for len(batch) < size {
		var rec Record
		err := r.dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s record %d: %v", internalerr.ErrMalformedSource, r.path, r.record+1, err)
		}
		r.record++
		if rec == nil {
			continue
		}
		batch = append(batch, rec)
	}
	if len(batch) == 0 {
		return nil, io.EOF
	}
	return batch, nil
}

// Records returns how many records have been decoded so far.
func (r *Reader) Records() int { return r.record }

// Close releases the underlying file.
func (r *Reader) Close() error {
	if r.gz != nil {
		r.gz.Close()
	}
	return r.f.Close()
}
