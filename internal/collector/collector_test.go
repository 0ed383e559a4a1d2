package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/stackpack/internal/testutil"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "strips top-level folder", in: "projectRoot/src/app.js", want: "src/app.js"},
		{name: "file at folder root", in: "projectRoot/index.html", want: "index.html"},
		{name: "deep path", in: "p/a/b/c/d.md", want: "a/b/c/d.md"},
		{name: "single segment keeps base name", in: "app.js", want: "app.js"},
		{name: "backslash separators", in: `projectRoot\src\app.js`, want: "src/app.js"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestCollect(t *testing.T) {
	entries := testutil.Entries("proj/a.js", "proj/src/b.js", "proj/README.md")
	reader := &testutil.MapReader{Contents: map[string]string{
		"proj/a.js":      "console.log('a')",
		"proj/src/b.js":  "export default 1",
		"proj/README.md": "# readme",
	}}

	mapping, err := Collect(context.Background(), entries, reader, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"a.js", "src/b.js", "README.md"}, mapping.Keys())
	v, ok := mapping.Get("src/b.js")
	require.True(t, ok)
	assert.Equal(t, "export default 1", v)
	assert.Equal(t, 3, reader.Calls())
}

func TestCollectKeepsInputOrderDespiteCompletionOrder(t *testing.T) {
	entries := testutil.Entries("p/first.js", "p/second.js", "p/third.js")
	reader := &testutil.MapReader{
		Contents: map[string]string{"p/first.js": "1", "p/second.js": "2", "p/third.js": "3"},
		Delays: map[string]time.Duration{
			"p/first.js":  60 * time.Millisecond,
			"p/second.js": 30 * time.Millisecond,
		},
	}

	mapping, err := Collect(context.Background(), entries, reader, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"first.js", "second.js", "third.js"}, mapping.Keys())
}

func TestCollectIssuesReadsConcurrently(t *testing.T) {
	entries := testutil.Entries("p/a.js", "p/b.js", "p/c.js")
	gate := testutil.NewGateReader(&testutil.MapReader{
		Contents: map[string]string{"p/a.js": "a", "p/b.js": "b", "p/c.js": "c"},
	})

	done := make(chan error, 1)
	go func() {
		_, err := Collect(context.Background(), entries, gate, Options{})
		done <- err
	}()

	// all three reads must be in flight before any of them may complete
	for i := 0; i < len(entries); i++ {
		select {
		case <-gate.Started:
		case <-time.After(2 * time.Second):
			t.Fatalf("only %d of %d reads started", i, len(entries))
		}
	}
	gate.Release()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("collect did not finish")
	}
}

func TestCollectFailsAsAWhole(t *testing.T) {
	entries := testutil.Entries("p/a.js", "p/b.js", "p/c.js")
	boom := errors.New("permission denied")
	reader := &testutil.MapReader{
		Contents: map[string]string{"p/a.js": "a", "p/b.js": "b"},
		Errors:   map[string]error{"p/c.js": boom},
	}

	mapping, err := Collect(context.Background(), entries, reader, Options{})
	require.Error(t, err)
	assert.Nil(t, mapping)

	var rf *ReadFailure
	require.ErrorAs(t, err, &rf)
	assert.Equal(t, "c.js", rf.Name)
	assert.Equal(t, "p/c.js", rf.Path)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "c.js")
}

func TestCollectFailFastCancelsSlowReads(t *testing.T) {
	entries := testutil.Entries("p/slow.js", "p/bad.js")
	reader := &testutil.MapReader{
		Contents: map[string]string{"p/slow.js": "s"},
		Errors:   map[string]error{"p/bad.js": errors.New("io error")},
		Delays:   map[string]time.Duration{"p/slow.js": time.Minute},
	}

	start := time.Now()
	_, err := Collect(context.Background(), entries, reader, Options{})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 10*time.Second)

	var rf *ReadFailure
	require.ErrorAs(t, err, &rf)
	assert.Equal(t, "bad.js", rf.Name)
}

func TestCollectLastWriteWins(t *testing.T) {
	// both normalize to "src/app.js"
	entries := testutil.Entries("one/src/app.js", "p/other.js", "two/src/app.js")
	reader := &testutil.MapReader{Contents: map[string]string{
		"one/src/app.js": "old",
		"p/other.js":     "other",
		"two/src/app.js": "new",
	}}

	mapping, err := Collect(context.Background(), entries, reader, Options{Collision: CollisionOverwrite})
	require.NoError(t, err)

	assert.Equal(t, 2, mapping.Len())
	v, _ := mapping.Get("src/app.js")
	assert.Equal(t, "new", v)
	assert.Equal(t, []string{"src/app.js", "other.js"}, mapping.Keys())
}

func TestCollectStrictCollision(t *testing.T) {
	entries := testutil.Entries("one/src/app.js", "two/src/app.js")
	reader := &testutil.MapReader{Contents: map[string]string{
		"one/src/app.js": "old",
		"two/src/app.js": "new",
	}}

	mapping, err := Collect(context.Background(), entries, reader, Options{Collision: CollisionError})
	assert.Nil(t, mapping)

	var pc *PathCollision
	require.ErrorAs(t, err, &pc)
	assert.Equal(t, "src/app.js", pc.Path)
	assert.Equal(t, "one/src/app.js", pc.First)
	assert.Equal(t, "two/src/app.js", pc.Second)
}

func TestCollectEmpty(t *testing.T) {
	mapping, err := Collect(context.Background(), nil, &testutil.MapReader{}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, mapping.Len())
}

func TestCollectBoundedConcurrency(t *testing.T) {
	entries := testutil.Entries("p/a.js", "p/b.js", "p/c.js", "p/d.js")
	reader := &testutil.MapReader{Contents: map[string]string{
		"p/a.js": "a", "p/b.js": "b", "p/c.js": "c", "p/d.js": "d",
	}}

	mapping, err := Collect(context.Background(), entries, reader, Options{MaxConcurrency: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.js", "b.js", "c.js", "d.js"}, mapping.Keys())
}

func TestParseCollisionPolicy(t *testing.T) {
	p, err := ParseCollisionPolicy("")
	require.NoError(t, err)
	assert.Equal(t, CollisionOverwrite, p)

	p, err = ParseCollisionPolicy("error")
	require.NoError(t, err)
	assert.Equal(t, CollisionError, p)

	_, err = ParseCollisionPolicy("merge")
	assert.Error(t, err)
}
