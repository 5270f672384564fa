// Package storage keeps rendered export files on disk so operators can
// retrieve past downloads after the fact.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Archive persists export files under a base directory and prunes old ones.
type Archive struct {
	baseDir string
}

// NewArchive ensures the base directory exists and returns a handle.
func NewArchive(baseDir string) (*Archive, error) {
	if baseDir == "" {
		baseDir = "./exports"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create exports directory: %w", err)
	}
	return &Archive{baseDir: baseDir}, nil
}

// Save writes the file and returns its absolute path.
func (a *Archive) Save(filename string, data []byte) (string, error) {
	path := a.resolve(filename)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare export directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}
	return path, nil
}

// Path returns the absolute path a filename would be stored at.
func (a *Archive) Path(filename string) string {
	return a.resolve(filename)
}

// CleanupOlderThan removes archived files older than ttl and reports the
// names it deleted.
func (a *Archive) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		return nil, nil
	}
	cutoff := time.Now().Add(-ttl)

	var removed []string
	err := filepath.Walk(a.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			return err
		}
		removed = append(removed, info.Name())
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("cleanup exports: %w", err)
	}
	return removed, nil
}

func (a *Archive) resolve(filename string) string {
	return filepath.Join(a.baseDir, filepath.Base(filename))
}
