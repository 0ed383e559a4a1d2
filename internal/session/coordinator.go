// Package session owns the state of the current folder selection.
//
// A Coordinator runs one selection at a time through enumerate, filter,
// collect and build, and publishes every state change as a whole Session
// value. Starting a new selection cancels the one in flight; if the older one
// still finishes, its result is dropped and never becomes visible.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pders01/stackpack/internal/artifact"
	"github.com/pders01/stackpack/internal/collector"
	"github.com/pders01/stackpack/internal/filter"
	"github.com/pders01/stackpack/internal/models"
)

// ErrSuperseded is returned by Select when a newer selection replaced it
var ErrSuperseded = errors.New("selection superseded by a newer one")

// Source enumerates a folder and reads entry contents
type Source interface {
	Enumerate(ctx context.Context, root string) ([]models.Entry, error)
	collector.TextReader
}

// Logger receives diagnostics and session transitions
type Logger interface {
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)
	LogSession(s models.Session)
}

// Pipeline wires the collaborators used for each selection
type Pipeline struct {
	Source  Source
	Rules   filter.Rules
	Encoder artifact.Encoder
	Collect collector.Options
	Logger  Logger
}

// Coordinator holds the only mutable Session
type Coordinator struct {
	pipeline Pipeline

	mu          sync.Mutex
	current     models.Session
	generation  uint64
	cancel      context.CancelFunc
	subscribers map[int]chan models.Session
	nextSubID   int
	now         func() time.Time
}

// NewCoordinator returns a coordinator in the empty state
func NewCoordinator(p Pipeline) *Coordinator {
	return &Coordinator{
		pipeline:    p,
		current:     models.Session{State: models.StateEmpty},
		subscribers: make(map[int]chan models.Session),
		now:         time.Now,
	}
}

// Current returns the latest published session
func (c *Coordinator) Current() models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Subscribe returns a channel receiving every published session. Sends never
// block; a subscriber that falls behind misses intermediate sessions, while
// Current stays authoritative. Call the returned func to unsubscribe.
func (c *Coordinator) Subscribe(buffer int) (<-chan models.Session, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSubID
	c.nextSubID++
	ch := make(chan models.Session, buffer)
	c.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.subscribers, id)
			close(ch)
		})
	}
}

// Select handles one folder selection and blocks until it reaches ready or
// failed. If another Select starts meanwhile, this one returns ErrSuperseded
// and its state is never published again.
func (c *Coordinator) Select(ctx context.Context, root string) (models.Session, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s := models.Session{
		ID:        uuid.NewString(),
		Root:      root,
		State:     models.StateCollecting,
		StartedAt: c.now(),
	}

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.generation++
	gen := c.generation
	c.cancel = cancel
	c.publishLocked(s)
	c.mu.Unlock()

	entries, err := c.pipeline.Source.Enumerate(ctx, root)
	if err != nil {
		return c.finish(gen, s, fmt.Errorf("failed to enumerate %s: %w", root, err))
	}

	s.Entries = filter.Apply(entries, c.pipeline.Rules)
	c.logDebug(fmt.Sprintf("%d of %d entries eligible in %s", len(s.Entries), len(entries), root))
	if len(s.Entries) == 0 {
		c.logWarn(fmt.Sprintf("no eligible files in %s, artifacts will be empty", root))
	}
	if !c.publishIfCurrent(gen, s) {
		return s, ErrSuperseded
	}

	mapping, err := collector.Collect(ctx, s.Entries, c.pipeline.Source, c.pipeline.Collect)
	if err != nil {
		return c.finish(gen, s, err)
	}
	s.Mapping = mapping

	artifacts, err := artifact.Build(ctx, mapping, c.pipeline.Encoder)
	if err != nil {
		s.Mapping = nil
		return c.finish(gen, s, err)
	}
	s.Artifacts = artifacts

	return c.finish(gen, s, nil)
}

// finish moves s to ready or failed and publishes it if gen is still current
func (c *Coordinator) finish(gen uint64, s models.Session, err error) (models.Session, error) {
	s.FinishedAt = c.now()
	if err != nil {
		s.State = models.StateFailed
		s.Err = err
		s.Mapping = nil
		s.Artifacts = nil
	} else {
		s.State = models.StateReady
	}

	if !c.publishIfCurrent(gen, s) {
		return s, ErrSuperseded
	}
	if c.pipeline.Logger != nil {
		c.pipeline.Logger.LogSession(s)
	}
	return s, err
}

func (c *Coordinator) publishIfCurrent(gen uint64, s models.Session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		return false
	}
	if s.State != models.StateCollecting {
		c.cancel = nil
	}
	c.publishLocked(s)
	return true
}

func (c *Coordinator) publishLocked(s models.Session) {
	c.current = s
	for _, ch := range c.subscribers {
		select {
		case ch <- s:
		default:
		}
	}
	if c.pipeline.Logger != nil && s.State == models.StateCollecting {
		c.pipeline.Logger.LogSession(s)
	}
}

func (c *Coordinator) logDebug(msg string) {
	if c.pipeline.Logger != nil {
		c.pipeline.Logger.LogDebug(msg)
	}
}

func (c *Coordinator) logWarn(msg string) {
	if c.pipeline.Logger != nil {
		c.pipeline.Logger.LogWarn(msg)
	}
}
