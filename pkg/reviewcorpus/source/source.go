package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultExtensions are the raw review dump suffixes, longest first.
var DefaultExtensions = []string{".json.gz", ".json"}

// File is one raw input unit.
type File struct {
	Path string
	// ID is the name with the raw extension stripped ("Books"). It is the
	// value stamped into the source column.
	ID string
	// Stem is the name with any compression suffix stripped ("Books.json").
	// Stage-1 outputs are named after it.
	Stem  string
	Order int
}

// Enumerate lists the files in dir whose names end with one of exts,
// sorted by name. An empty result is not an error.
func Enumerate(dir string, exts []string) ([]File, error) {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read raw dir %s: %w", dir, err)
	}

	seen := make(map[string]struct{})
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if matchExt(name, exts) == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)

	files := make([]File, len(names))
	for i, name := range names {
		ext := matchExt(name, exts)
		files[i] = File{
			Path:  filepath.Join(dir, name),
			ID:    strings.TrimSuffix(name, ext),
			Stem:  strings.TrimSuffix(name, ".gz"),
			Order: i,
		}
	}
	return files, nil
}

// matchExt returns the longest extension in exts that name ends with.
func matchExt(name string, exts []string) string {
	best := ""
	for _, ext := range exts {
		if strings.HasSuffix(name, ext) && len(ext) > len(best) && len(name) > len(ext) {
			best = ext
		}
	}
	return best
}
