// Package collector reads the content of filtered entries concurrently and
// assembles the path -> content mapping.
package collector

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/pool"

	"github.com/pders01/stackpack/internal/models"
)

// CollisionPolicy decides what happens when two entries normalize to the
// same archive path
type CollisionPolicy string

const (
	// CollisionOverwrite keeps the later entry in enumeration order
	CollisionOverwrite CollisionPolicy = "overwrite"
	// CollisionError fails the collection with a PathCollision
	CollisionError CollisionPolicy = "error"
)

// ParseCollisionPolicy validates a configured policy name. Empty means overwrite.
func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch CollisionPolicy(s) {
	case "", CollisionOverwrite:
		return CollisionOverwrite, nil
	case CollisionError:
		return CollisionError, nil
	default:
		return "", fmt.Errorf("invalid collision policy: %s (must be: overwrite, error)", s)
	}
}

// TextReader reads an entry's content as text
type TextReader interface {
	ReadText(ctx context.Context, entry models.Entry) (string, error)
}

// Options tunes a collection
type Options struct {
	Collision CollisionPolicy
	// MaxConcurrency bounds in-flight reads; 0 issues every read at once.
	MaxConcurrency int
}

// Collect reads every entry concurrently and returns the mapping keyed by
// archive-relative path. Keys follow the order of entries regardless of the
// order in which reads complete. If any read fails, the remaining reads are
// cancelled and no mapping is returned.
func Collect(ctx context.Context, entries []models.Entry, reader TextReader, opts Options) (*models.ContentMapping, error) {
	contents := make([]string, len(entries))

	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	if opts.MaxConcurrency > 0 {
		p = p.WithMaxGoroutines(opts.MaxConcurrency)
	}

	for i, entry := range entries {
		i, entry := i, entry
		p.Go(func(ctx context.Context) error {
			content, err := reader.ReadText(ctx, entry)
			if err != nil {
				return &ReadFailure{Name: entry.Name, Path: entry.RootRelativePath, Err: err}
			}
			contents[i] = content
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return nil, err
	}

	return assemble(entries, contents, opts.Collision)
}

func assemble(entries []models.Entry, contents []string, policy CollisionPolicy) (*models.ContentMapping, error) {
	mapping := models.NewContentMapping()
	owners := make(map[string]string, len(entries))

	for i, entry := range entries {
		key := Normalize(entry.RootRelativePath)
		if first, seen := owners[key]; seen && policy == CollisionError {
			return nil, &PathCollision{Path: key, First: first, Second: entry.RootRelativePath}
		}
		owners[key] = entry.RootRelativePath
		mapping.Set(key, contents[i])
	}

	return mapping, nil
}
