package feed

import (
	"fmt"
	"os"
	"path/filepath"
)

// Documents stores rewritten feeds as {dir}/{slug}.rss.
type Documents struct {
	dir string
}

func NewDocuments(dir string) *Documents {
	return &Documents{dir: dir}
}

func (d *Documents) Path(slug string) string {
	return filepath.Join(d.dir, slug+".rss")
}

func (d *Documents) Exists(slug string) bool {
	info, err := os.Stat(d.Path(slug))
	return err == nil && info.Mode().IsRegular()
}

// Write replaces the feed document atomically.
func (d *Documents) Write(slug, document string) error {
	tmp, err := os.CreateTemp(d.dir, "."+slug+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(document); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write feed document: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod feed document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close feed document: %w", err)
	}

	if err := os.Rename(tmp.Name(), d.Path(slug)); err != nil {
		return fmt.Errorf("failed to move feed document into place: %w", err)
	}

	return nil
}
