package retriever

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadChunkBody_CachesAcrossCalls(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chunk.md")
	require.NoError(t, os.WriteFile(path, []byte("---\nid: x\n---\nhello world"), 0o644))

	body, err := readChunkBody(path)
	require.NoError(t, err)
	assert.Equal(t, "hello world", body)

	require.NoError(t, os.WriteFile(path, []byte("---\nid: x\n---\nchanged"), 0o644))

	bodyAgain, err := readChunkBody(path)
	require.NoError(t, err)
	assert.Equal(t, "hello world", bodyAgain, "second read should be served from cache, not disk")
}

func TestReadChunkBody_MissingFile(t *testing.T) {
	_, err := readChunkBody(filepath.Join(t.TempDir(), "missing.md"))
	assert.Error(t, err)
}
