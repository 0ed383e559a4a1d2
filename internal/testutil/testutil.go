package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"

	"github.com/pders01/stackpack/internal/models"
)

// TempProject is a project directory on disk for command tests
type TempProject struct {
	// Path is the selected folder, Path's base name is the top-level segment
	Path string
	T    *testing.T
}

// NewTempProject creates an empty project folder named name inside a temp dir
func NewTempProject(t *testing.T, name string) *TempProject {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "stackpack-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	path := filepath.Join(tmpDir, name)
	if err := os.MkdirAll(path, 0755); err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("failed to create project dir: %v", err)
	}

	p := &TempProject{Path: path, T: t}
	t.Cleanup(p.Cleanup)
	return p
}

// Cleanup removes the project and its temp parent
func (p *TempProject) Cleanup() {
	p.T.Helper()
	if err := os.RemoveAll(filepath.Dir(p.Path)); err != nil {
		p.T.Errorf("failed to cleanup temp project: %v", err)
	}
}

// CreateFile creates a file at the slash separated path inside the project
func (p *TempProject) CreateFile(name, content string) {
	p.T.Helper()
	path := filepath.Join(p.Path, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		p.T.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		p.T.Fatalf("failed to create file: %v", err)
	}
}

// OutputDir returns a fresh directory next to the project for artifacts
func (p *TempProject) OutputDir() string {
	p.T.Helper()
	dir := filepath.Join(filepath.Dir(p.Path), "out")
	if err := os.MkdirAll(dir, 0755); err != nil {
		p.T.Fatalf("failed to create output dir: %v", err)
	}
	return dir
}

// NewMemProject builds an in-memory tree under root from slash separated
// relative paths
func NewMemProject(t *testing.T, root string, files map[string]string) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll(root, 0755); err != nil {
		t.Fatalf("failed to create root: %v", err)
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
	}
	return fs
}

// Entries builds entries from root-relative paths
func Entries(paths ...string) []models.Entry {
	entries := make([]models.Entry, 0, len(paths))
	for _, p := range paths {
		entries = append(entries, models.Entry{
			Name:             filepath.Base(filepath.FromSlash(p)),
			RootRelativePath: p,
			SourcePath:       p,
		})
	}
	return entries
}
