package publish

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/stackpack/internal/models"
)

func artifacts(tag string) *models.Artifacts {
	return &models.Artifacts{
		JSON:        []byte(`{"a.js": "` + tag + `"}`),
		Archive:     []byte("zip-" + tag),
		JSONName:    models.JSONFileName,
		ArchiveName: models.ArchiveBaseName + ".zip",
		FileCount:   1,
	}
}

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "nested")

	paths, err := Write(dir, artifacts("one"))
	require.NoError(t, err)
	require.Len(t, paths, 2)

	assert.Equal(t, filepath.Join(dir, "stackblitz-project.json"), paths[0])
	assert.Equal(t, filepath.Join(dir, "stackblitz-project.zip"), paths[1])

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Equal(t, `{"a.js": "one"}`, string(data))

	data, err = os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Equal(t, "zip-one", string(data))
}

func TestWriteReplacesPreviousPair(t *testing.T) {
	dir := t.TempDir()

	_, err := Write(dir, artifacts("old"))
	require.NoError(t, err)
	_, err = Write(dir, artifacts("new"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, models.JSONFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "new")

	// no temp files left behind
	matches, err := filepath.Glob(filepath.Join(dir, ".tmp-*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestWriteNil(t *testing.T) {
	_, err := Write(t.TempDir(), nil)
	assert.Error(t, err)
}

func TestConcurrentWritesKeepPairsConsistent(t *testing.T) {
	dir := t.TempDir()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := Write(dir, artifacts(fmt.Sprintf("v%d", i)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	jsonData, err := os.ReadFile(filepath.Join(dir, models.JSONFileName))
	require.NoError(t, err)
	zipData, err := os.ReadFile(filepath.Join(dir, "stackblitz-project.zip"))
	require.NoError(t, err)

	// the last writer wrote both halves
	tag := string(zipData)[len("zip-"):]
	assert.Contains(t, string(jsonData), `"`+tag+`"`)
}

func TestAtomicWriteInvalidDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	err := AtomicWrite(filepath.Join(file, "child"), []byte("data"))
	assert.Error(t, err)
}
