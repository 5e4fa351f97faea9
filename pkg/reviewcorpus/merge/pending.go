package merge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/reviewcorpus/pkg/reviewcorpus/columnar"
)

// pendingMarker names the sources of a corpus rewrite that has not been
// recorded in the ledger yet, with the corpus row count after the rewrite.
type pendingMarker struct {
	Rows int64    `yaml:"rows"`
	IDs  []string `yaml:"ids"`
}

func markerPath(dir, tag string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.pending.yaml", CorpusPrefix, tag))
}

func writeMarker(path string, pm pendingMarker) error {
	data, err := yaml.Marshal(pm)
	if err != nil {
		return fmt.Errorf("encode pending marker: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	return f.Close()
}

// settle resolves a pending marker left by an interrupted run. If the corpus
// on disk has the row count the marker expects, the rename happened and the
// marker's identifiers are recorded; otherwise the rewrite never landed.
// The marker is removed either way. It returns the updated ledger contents.
func (m *Merger) settle(ctx context.Context, corpus string, exists bool, recorded []string) ([]string, error) {
	path := markerPath(m.opts.OutDir, m.opts.Tag)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return recorded, nil
	}
	if err != nil {
		return recorded, fmt.Errorf("read %s: %w", path, err)
	}

	var pm pendingMarker
	if err := yaml.Unmarshal(data, &pm); err != nil {
		m.log.Warn("discarding unreadable pending marker", zap.Error(err))
		return recorded, removeIfExists(path)
	}

	landed := false
	if exists {
		_, rows, err := columnar.Stat(corpus)
		if err != nil {
			return recorded, fmt.Errorf("read existing corpus: %w", err)
		}
		landed = rows == pm.Rows
	}

	if landed {
		have := make(map[string]struct{}, len(recorded))
		for _, id := range recorded {
			have[id] = struct{}{}
		}
		var missing []string
		for _, id := range pm.IDs {
			if _, ok := have[id]; !ok {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			if err := m.opts.Ledger.Append(ctx, missing...); err != nil {
				return recorded, fmt.Errorf("record merged sources: %w", err)
			}
			recorded = append(recorded, missing...)
			m.log.Warn("recorded sources merged by an interrupted run", zap.Strings("sources", missing))
		}
	}
	return recorded, removeIfExists(path)
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
