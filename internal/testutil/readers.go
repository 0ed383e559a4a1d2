package testutil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pders01/stackpack/internal/models"
)

// MapReader serves contents keyed by root-relative path
type MapReader struct {
	Contents map[string]string
	Errors   map[string]error
	Delays   map[string]time.Duration

	calls atomic.Int32
}

// ReadText implements collector.TextReader
func (r *MapReader) ReadText(ctx context.Context, e models.Entry) (string, error) {
	r.calls.Add(1)

	if d := r.Delays[e.RootRelativePath]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err := r.Errors[e.RootRelativePath]; err != nil {
		return "", err
	}
	content, ok := r.Contents[e.RootRelativePath]
	if !ok {
		return "", fmt.Errorf("no such file: %s", e.RootRelativePath)
	}
	return content, nil
}

// Calls returns how many reads were issued
func (r *MapReader) Calls() int {
	return int(r.calls.Load())
}

// TextReader mirrors collector.TextReader without importing it
type TextReader interface {
	ReadText(ctx context.Context, e models.Entry) (string, error)
}

// GateReader blocks every read until Release is called, then delegates
type GateReader struct {
	Next    TextReader
	Started chan struct{}

	once    sync.Once
	release chan struct{}
}

// NewGateReader wraps next
func NewGateReader(next TextReader) *GateReader {
	return &GateReader{
		Next:    next,
		Started: make(chan struct{}, 64),
		release: make(chan struct{}),
	}
}

// ReadText implements collector.TextReader
func (g *GateReader) ReadText(ctx context.Context, e models.Entry) (string, error) {
	select {
	case g.Started <- struct{}{}:
	default:
	}
	select {
	case <-g.release:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return g.Next.ReadText(ctx, e)
}

// Release unblocks all current and future reads
func (g *GateReader) Release() {
	g.once.Do(func() { close(g.release) })
}
