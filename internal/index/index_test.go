package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortexlabs/cortex/internal/chunker"
	"github.com/cortexlabs/cortex/internal/config"
	"github.com/cortexlabs/cortex/internal/embed"
)

// Test Plan for index:
// - Build over an empty/missing source tree reports zero items, no error
// - Build then Load round-trips: row count, id list length, and metadata
//   key count all agree
// - Load on a never-built kind fails with IndexMissing
// - GetStats reports zero count for a missing index without erroring

func newMockProvider(t *testing.T) embed.Provider {
	t.Helper()
	p, err := embed.NewProvider(embed.Config{Provider: "mock", Dimensions: 384})
	require.NoError(t, err)
	return p
}

func seedChunks(t *testing.T, root string) {
	t.Helper()
	srcPath := filepath.Join(root, "auth-notes.md")
	content := "# Login Flow\n\n" + repeatWords("authentication session token login flow ", 60)
	require.NoError(t, os.WriteFile(srcPath, []byte(content), 0o644))

	cfg := config.ChunkingConfig{ChunkSize: 500, ChunkMin: 1, ChunkOverlap: 0}
	_, err := chunker.ChunkDocument(context.Background(), cfg, newMockProvider(t), root, srcPath, "")
	require.NoError(t, err)
}

func TestBuild_EmptySourceTreeIsNotAnError(t *testing.T) {
	t.Parallel()

	count, warnings, err := Build(t.TempDir(), Chunks)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Empty(t, warnings)
}

func TestBuildAndLoad_RoundTrip(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	seedChunks(t, root)

	count, _, err := Build(root, Chunks)
	require.NoError(t, err)
	require.Greater(t, count, 0)

	idx, err := Load(root, Chunks)
	require.NoError(t, err)
	assert.Equal(t, len(idx.Matrix), len(idx.Ids))
	assert.Equal(t, len(idx.Ids), len(idx.Metadata))
	assert.Len(t, idx.Matrix[0], 384)
}

func TestLoad_MissingIndexFails(t *testing.T) {
	t.Parallel()

	_, err := Load(t.TempDir(), Memories)
	require.Error(t, err)
}

func TestGetStats_MissingIndexIsZero(t *testing.T) {
	t.Parallel()

	stats, err := GetStats(t.TempDir(), Chunks)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Count)
}

func repeatWords(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}
