package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/stackpack/internal/artifact"
	"github.com/pders01/stackpack/internal/collector"
	"github.com/pders01/stackpack/internal/filter"
	"github.com/pders01/stackpack/internal/logger"
	"github.com/pders01/stackpack/internal/models"
	"github.com/pders01/stackpack/internal/source"
	"github.com/pders01/stackpack/internal/testutil"
)

// gatedSource blocks reads under prefix until release is closed
type gatedSource struct {
	*source.Provider
	prefix  string
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedSource) ReadText(ctx context.Context, e models.Entry) (string, error) {
	if strings.HasPrefix(e.SourcePath, g.prefix) {
		g.once.Do(func() { close(g.started) })
		select {
		case <-g.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return g.Provider.ReadText(ctx, e)
}

// failingSource fails reads of one file name
type failingSource struct {
	*source.Provider
	name string
}

func (f *failingSource) ReadText(ctx context.Context, e models.Entry) (string, error) {
	if e.Name == f.name {
		return "", errors.New("permission denied")
	}
	return f.Provider.ReadText(ctx, e)
}

type failingEncoder struct{}

func (failingEncoder) Extension() string { return ".zip" }

func (failingEncoder) Encode(ctx context.Context, files []artifact.File) ([]byte, error) {
	return nil, errors.New("encoder crashed")
}

func newPipeline(src Source) Pipeline {
	return Pipeline{
		Source:  src,
		Rules:   filter.DefaultRules(),
		Encoder: &artifact.ZipEncoder{},
		Collect: collector.Options{Collision: collector.CollisionOverwrite},
		Logger:  logger.NewNoOpLogger(),
	}
}

func projectFS(t *testing.T) afero.Fs {
	fs := testutil.NewMemProject(t, "/work/a", map[string]string{
		"a.js":                "a",
		"src/shared.js":       "from a",
		"node_modules/x/x.js": "ignored",
		"logo.png":            "binary",
	})
	for name, content := range map[string]string{
		"b.js":          "b",
		"src/shared.js": "from b",
	} {
		require.NoError(t, afero.WriteFile(fs, "/work/b/"+name, []byte(content), 0644))
	}
	require.NoError(t, fs.MkdirAll("/work/empty", 0755))
	return fs
}

func TestInitialStateIsEmpty(t *testing.T) {
	c := NewCoordinator(newPipeline(source.NewProvider(afero.NewMemMapFs())))

	s := c.Current()
	assert.Equal(t, models.StateEmpty, s.State)
	assert.False(t, s.ArtifactsReady())
}

func TestSelectReady(t *testing.T) {
	c := NewCoordinator(newPipeline(source.NewProvider(projectFS(t))))
	updates, unsubscribe := c.Subscribe(8)
	defer unsubscribe()

	s, err := c.Select(context.Background(), "/work/a")
	require.NoError(t, err)

	assert.Equal(t, models.StateReady, s.State)
	assert.True(t, s.ArtifactsReady())
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, []string{"a/a.js", "a/src/shared.js"}, []string{s.Entries[0].RootRelativePath, s.Entries[1].RootRelativePath})
	assert.Equal(t, []string{"a.js", "src/shared.js"}, s.Mapping.Keys())
	assert.Equal(t, "stackblitz-project.json", s.Artifacts.JSONName)
	assert.Equal(t, "stackblitz-project.zip", s.Artifacts.ArchiveName)

	fromZip, err := artifact.ReadZip(s.Artifacts.Archive)
	require.NoError(t, err)
	assert.True(t, s.Mapping.Equal(fromZip))

	assert.Equal(t, s.ID, c.Current().ID)

	var states []models.State
	for i := 0; i < 3; i++ {
		select {
		case u := <-updates:
			states = append(states, u.State)
		case <-time.After(time.Second):
			t.Fatal("missing session update")
		}
	}
	assert.Equal(t, []models.State{models.StateCollecting, models.StateCollecting, models.StateReady}, states)
}

func TestSelectReadFailure(t *testing.T) {
	provider := source.NewProvider(projectFS(t))
	c := NewCoordinator(newPipeline(&failingSource{Provider: provider, name: "shared.js"}))

	s, err := c.Select(context.Background(), "/work/a")
	require.Error(t, err)

	var rf *collector.ReadFailure
	require.ErrorAs(t, err, &rf)
	assert.Equal(t, "shared.js", rf.Name)

	assert.Equal(t, models.StateFailed, s.State)
	assert.False(t, s.ArtifactsReady())
	assert.Nil(t, s.Mapping)
	assert.Nil(t, s.Artifacts)
	assert.Len(t, s.Entries, 2, "listing stays visible after a failure")
	assert.Equal(t, models.StateFailed, c.Current().State)
}

func TestSelectEncodeFailure(t *testing.T) {
	p := newPipeline(source.NewProvider(projectFS(t)))
	p.Encoder = failingEncoder{}
	c := NewCoordinator(p)

	s, err := c.Select(context.Background(), "/work/a")

	var ef *artifact.EncodeFailure
	require.ErrorAs(t, err, &ef)
	assert.Equal(t, models.StateFailed, s.State)
	assert.Nil(t, s.Artifacts)
}

func TestSelectMissingFolder(t *testing.T) {
	c := NewCoordinator(newPipeline(source.NewProvider(afero.NewMemMapFs())))

	s, err := c.Select(context.Background(), "/nowhere")
	require.Error(t, err)
	assert.Equal(t, models.StateFailed, s.State)
}

func TestSelectEmptyFolderIsReady(t *testing.T) {
	c := NewCoordinator(newPipeline(source.NewProvider(projectFS(t))))

	s, err := c.Select(context.Background(), "/work/empty")
	require.NoError(t, err)

	assert.Equal(t, models.StateReady, s.State)
	assert.Equal(t, 0, s.Mapping.Len())
	assert.Equal(t, 0, s.Artifacts.FileCount)
	assert.Equal(t, "{}\n", string(s.Artifacts.JSON))

	fromZip, err := artifact.ReadZip(s.Artifacts.Archive)
	require.NoError(t, err)
	assert.Equal(t, 0, fromZip.Len())
}

func TestReselectAfterFailure(t *testing.T) {
	provider := source.NewProvider(projectFS(t))
	c := NewCoordinator(newPipeline(&failingSource{Provider: provider, name: "a.js"}))

	_, err := c.Select(context.Background(), "/work/a")
	require.Error(t, err)

	s, err := c.Select(context.Background(), "/work/b")
	require.NoError(t, err)
	assert.Equal(t, models.StateReady, s.State)
	assert.Equal(t, []string{"b.js", "src/shared.js"}, s.Mapping.Keys())
}

func TestNewerSelectionSupersedesInFlight(t *testing.T) {
	gated := &gatedSource{
		Provider: source.NewProvider(projectFS(t)),
		prefix:   "/work/a/",
		started:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	c := NewCoordinator(newPipeline(gated))

	type result struct {
		s   models.Session
		err error
	}
	first := make(chan result, 1)
	go func() {
		s, err := c.Select(context.Background(), "/work/a")
		first <- result{s, err}
	}()

	select {
	case <-gated.started:
	case <-time.After(2 * time.Second):
		t.Fatal("selection A never started reading")
	}

	s, err := c.Select(context.Background(), "/work/b")
	require.NoError(t, err)
	close(gated.release)

	select {
	case r := <-first:
		assert.ErrorIs(t, r.err, ErrSuperseded)
	case <-time.After(2 * time.Second):
		t.Fatal("selection A did not return")
	}

	current := c.Current()
	assert.Equal(t, s.ID, current.ID)
	assert.Equal(t, models.StateReady, current.State)
	assert.Equal(t, "/work/b", current.Root)

	content, ok := current.Mapping.Get("src/shared.js")
	require.True(t, ok)
	assert.Equal(t, "from b", content)
	_, hasA := current.Mapping.Get("a.js")
	assert.False(t, hasA, "files from the superseded selection leaked")
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	c := NewCoordinator(newPipeline(source.NewProvider(projectFS(t))))
	updates, unsubscribe := c.Subscribe(1)

	unsubscribe()
	unsubscribe()

	_, open := <-updates
	assert.False(t, open)

	_, err := c.Select(context.Background(), "/work/b")
	require.NoError(t, err)
}
