package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
)

// DirSink writes each snapshot to <dir>/<name>.csv, replacing earlier runs.
type DirSink struct {
	dir string
}

// NewDirSink creates the directory if needed.
func NewDirSink(dir string) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &DirSink{dir: dir}, nil
}

// WriteSnapshot writes through a temporary file so readers never see a partial table.
func (s *DirSink) WriteSnapshot(_ context.Context, t domain.Table) error {
	path := filepath.Join(s.dir, FileName(t.Name))

	f, err := os.CreateTemp(s.dir, "."+t.Name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	tmp := f.Name()

	if err := WriteCSV(f, t); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// Dir returns the output directory.
func (s *DirSink) Dir() string {
	return s.dir
}
