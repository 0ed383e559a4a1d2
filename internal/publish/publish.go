// Package publish hands finished artifacts to the user by writing them into
// an output directory. Both files of a pair are written under one lock so
// concurrent exports into the same directory never interleave.
package publish

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/pders01/stackpack/internal/models"
)

// LockFileName is created in the output directory while a pair is written
const LockFileName = ".stackpack.lock"

// Write stores both artifacts in dir and returns their paths, JSON first
func Write(dir string, a *models.Artifacts) ([]string, error) {
	if a == nil {
		return nil, fmt.Errorf("no artifacts to write")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	lock := flock.New(filepath.Join(dir, LockFileName))
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("failed to acquire lock on %s: %w", dir, err)
	}
	defer lock.Unlock()

	jsonPath := filepath.Join(dir, a.JSONName)
	if err := AtomicWrite(jsonPath, a.JSON); err != nil {
		return nil, err
	}

	archivePath := filepath.Join(dir, a.ArchiveName)
	if err := AtomicWrite(archivePath, a.Archive); err != nil {
		return nil, err
	}

	return []string{jsonPath, archivePath}, nil
}

// AtomicWrite writes data to a temp file next to path and renames it into
// place, so readers never observe a partial file
func AtomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	defer func() {
		if tempFile != nil {
			tempFile.Close()
			os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}

	tempFile = nil
	return nil
}
