// Package source enumerates a selected folder and reads file contents as text.
// It is backed by afero so the same code serves the OS filesystem and
// in-memory trees.
package source

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/pders01/stackpack/internal/models"
)

// Provider is the file-access provider for one filesystem
type Provider struct {
	fs      afero.Fs
	skipDir func(rootRelativePath string) bool
}

// Option configures a Provider
type Option func(*Provider)

// WithSkipDir prunes directories whose root-relative path matches skip.
// Only use it with predicates that every descendant path also satisfies.
func WithSkipDir(skip func(rootRelativePath string) bool) Option {
	return func(p *Provider) {
		p.skipDir = skip
	}
}

// NewProvider returns a provider reading from fs
func NewProvider(fs afero.Fs, opts ...Option) *Provider {
	p := &Provider{fs: fs}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewOsProvider returns a provider over the real filesystem
func NewOsProvider(opts ...Option) *Provider {
	return NewProvider(afero.NewOsFs(), opts...)
}

// Enumerate lists every regular file under root in lexical order. Paths are
// made relative to root's parent, so they start with root's own name. A root
// that is a file yields a single entry whose path is its name.
func (p *Provider) Enumerate(ctx context.Context, root string) ([]models.Entry, error) {
	root = filepath.Clean(root)

	info, err := p.fs.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to access %s: %w", root, err)
	}
	if !info.IsDir() {
		return []models.Entry{newEntry(root, info.Name(), info)}, nil
	}

	parent := filepath.Dir(root)
	var entries []models.Entry

	err = afero.Walk(p.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(parent, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if info.IsDir() {
			if path != root && p.skipDir != nil && p.skipDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		entries = append(entries, newEntry(path, rel, info))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	return entries, nil
}

func newEntry(path, rel string, info os.FileInfo) models.Entry {
	return models.Entry{
		Name:             info.Name(),
		RootRelativePath: rel,
		Size:             info.Size(),
		MIMEType:         mime.TypeByExtension(filepath.Ext(info.Name())),
		SourcePath:       path,
	}
}

// ReadText reads the entry and decodes it as UTF-8. A byte order mark is
// honoured and stripped, so UTF-16 files with a BOM decode too. Invalid
// sequences become U+FFFD.
func (p *Provider) ReadText(ctx context.Context, e models.Entry) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := afero.ReadFile(p.fs, e.SourcePath)
	if err != nil {
		return "", err
	}

	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	text, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", e.Name, err)
	}
	return string(text), nil
}
