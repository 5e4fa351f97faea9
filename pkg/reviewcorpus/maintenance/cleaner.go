// Package maintenance removes artifacts left behind by interrupted runs.
// Every stage already discards its own stale temp file when it revisits a
// unit of work; the cleaner sweeps the ones no run will revisit, such as
// temps for sources that were deleted from the raw directory.
package maintenance

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/durable"
)

// Cleaner sweeps the stage directories.
type Cleaner struct {
	Dirs []string
	// DryRun reports what would be removed without removing it.
	DryRun bool
	Logger *zap.Logger
}

// Result summarizes the sweep.
type Result struct {
	Scanned int
	Removed []string
	Errors  int
}

// Clean removes temp parquet files and zero-length consolidated files.
// Missing directories are ignored.
func (c *Cleaner) Clean(ctx context.Context) (Result, error) {
	var res Result
	if len(c.Dirs) == 0 {
		return res, errors.New("cleaner: no directories to sweep")
	}
	log := c.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("component", "sweep"))

	seen := make(map[string]struct{})
	for _, dir := range c.Dirs {
		dir = filepath.Clean(dir)
		if _, dup := seen[dir]; dup {
			continue
		}
		seen[dir] = struct{}{}

		entries, err := os.ReadDir(dir)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			res.Errors++
			log.Error("cannot read directory", zap.String("dir", dir), zap.Error(err))
			continue
		}

		for _, e := range entries {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			if e.IsDir() {
				continue
			}
			res.Scanned++
			path := filepath.Join(dir, e.Name())
			if !orphan(path, e) {
				continue
			}
			if !c.DryRun {
				if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
					res.Errors++
					log.Error("cannot remove", zap.String("path", path), zap.Error(err))
					continue
				}
			}
			res.Removed = append(res.Removed, path)
			log.Info("removed leftover artifact", zap.String("path", path), zap.Bool("dry_run", c.DryRun))
		}
	}
	return res, nil
}

func orphan(path string, e os.DirEntry) bool {
	name := e.Name()
	if !strings.HasSuffix(name, ".parquet") {
		return false
	}
	if durable.IsTemp(name) {
		return true
	}
	if strings.HasPrefix(name, "dataset_embedding") {
		info, err := e.Info()
		return err == nil && info.Size() == 0
	}
	return false
}
