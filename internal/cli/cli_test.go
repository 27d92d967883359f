package cli

// Test Plan for internal/cli:
// - runInit creates the chunks/index/memories layout and is idempotent
//   without --force, and re-runs without error on --force
// - requireInitialized errors with ErrNotInitialized before init, passes after
// - runStatus reports initialized=false on an un-initialized project and
//   does not error
// - runMemoryAdd/runMemoryList/runMemoryDelete round-trip through a real
//   project directory with a mock embedding provider

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortexlabs/cortex/internal/cortexerr"
	"github.com/cortexlabs/cortex/internal/layout"
	"github.com/cortexlabs/cortex/internal/memory"
)

func fakeCmd() *cobra.Command {
	return &cobra.Command{}
}

// writeTestConfig points the embedding provider at "mock" so commands
// under test never attempt a real HTTP call.
func writeTestConfig(t *testing.T, root string) {
	t.Helper()
	content := "embedding:\n  provider: mock\n  dimensions: 384\n"
	require.NoError(t, os.WriteFile(filepath.Join(layout.CortexDir(root), "config.yml"), []byte(content), 0o644))
}

func listMemoriesForTest(root string) ([]memory.Memory, error) {
	return memory.List(root, memory.ListFilter{})
}

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	originalWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(originalWd) })

	return dir
}

func TestRunInit_CreatesLayoutAndIsIdempotent(t *testing.T) {
	root := chdirTemp(t)
	initForce = false
	defer func() { initForce = false }()

	require.NoError(t, runInit(nil, nil))

	for _, dir := range []string{layout.ChunksDir(root), layout.IndexDir(root), layout.MemoriesDir(root)} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	marker := filepath.Join(layout.ChunksDir(root), "sentinel")
	require.NoError(t, os.WriteFile(marker, []byte("x"), 0o644))

	// Running init again without --force must not touch the existing tree.
	require.NoError(t, runInit(nil, nil))
	_, err := os.Stat(marker)
	assert.NoError(t, err, "re-running init without --force should be a no-op")

	initForce = true
	require.NoError(t, runInit(nil, nil))
}

func TestRequireInitialized(t *testing.T) {
	root := chdirTemp(t)

	err := requireInitialized(root)
	assert.ErrorIs(t, err, cortexerr.ErrNotInitialized)

	initForce = false
	require.NoError(t, runInit(nil, nil))
	assert.NoError(t, requireInitialized(root))
}

func TestRunStatus_UninitializedProject(t *testing.T) {
	chdirTemp(t)
	statusJSON = false

	err := runStatus(nil, nil)
	assert.NoError(t, err, "status on an uninitialized project should not error")
}

func TestMemoryAddListDelete_RoundTrip(t *testing.T) {
	root := chdirTemp(t)
	initForce = false
	require.NoError(t, runInit(nil, nil))
	writeTestConfig(t, root)

	memoryAddLearning = "Always validate input at system boundaries"
	memoryAddContext = "Found during a review of the ingestion handler"
	memoryAddDomain = ""
	memoryAddConfidence = "high"

	require.NoError(t, runMemoryAdd(fakeCmd(), nil))

	memoryListDomain = ""
	memoryListType = ""
	memoryListMinConfidence = ""
	require.NoError(t, runMemoryList(fakeCmd(), nil))

	memories, err := listMemoriesForTest(root)
	require.NoError(t, err)
	require.Len(t, memories, 1)

	memoryDeleteID = memories[0].ID
	require.NoError(t, runMemoryDelete(fakeCmd(), nil))

	memories, err = listMemoriesForTest(root)
	require.NoError(t, err)
	assert.Empty(t, memories)
}
