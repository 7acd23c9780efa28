// Package writer stores generated files on disk.
package writer

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Writer writes generated files atomically: content goes to a temporary file
// in the destination directory which is then renamed over the target, so a
// failed write never leaves a truncated file behind.
type Writer struct {
	perm os.FileMode

	mu    sync.Mutex
	stats Stats
}

// Stats counts the files written by a Writer
type Stats struct {
	FilesWritten int
	TotalBytes   int64
}

// New creates a Writer using 0644 for new files
func New() *Writer {
	return &Writer{perm: 0o644}
}

// WithPerm sets the permission bits of written files
func (w *Writer) WithPerm(perm os.FileMode) *Writer {
	w.perm = perm
	return w
}

// Stats returns a snapshot of the counters
func (w *Writer) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// WriteFile replaces path with data. Missing parent directories are created.
func (w *Writer) WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Chmod(w.perm); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		committed = true
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	committed = true

	w.mu.Lock()
	w.stats.FilesWritten++
	w.stats.TotalBytes += int64(len(data))
	w.mu.Unlock()
	return nil
}
