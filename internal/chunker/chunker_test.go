package chunker

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortexlabs/cortex/internal/config"
	"github.com/cortexlabs/cortex/internal/embed"
	"github.com/cortexlabs/cortex/internal/frontmatter"
	"github.com/cortexlabs/cortex/internal/vector"
)

// Test Plan for chunker:
// - DetectDomain prefers parent directory, falls back to filename prefix, then GENERAL
// - NextDocNumber starts at 1 for a fresh domain and continues past existing ids
// - ParseSections splits on ATX headers and folds pre-header content into Introduction
// - SplitByParagraphs packs paragraphs under the token budget and splits an oversized one
// - AddOverlap prepends a tail-word preamble to every chunk after the first
// - ChunkDocument end-to-end: persists .md + embedding sidecar, assigns dense sequence ids
// - GetStaleChunks reports deleted and modified sources; untouched sources are silent
// - GetChunksBySource / DeleteChunks round-trip and leave no orphaned embeddings

func newMockProvider(t *testing.T) embed.Provider {
	t.Helper()
	p, err := embed.NewProvider(embed.Config{Provider: "mock", Dimensions: 384})
	require.NoError(t, err)
	return p
}

func TestDetectDomain_PrefersParentDir(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "AUTH", DetectDomain("/project/docs/auth/spec.md"))
}

func TestDetectDomain_FallsBackToFilenamePrefix(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "AUTH", DetectDomain("/project/docs/auth-spec.md"))
}

func TestDetectDomain_FallsBackToGeneral(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "GENERAL", DetectDomain("/project/docs/spec.md"))
}

func TestNextDocNumber_EmptyDomain(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 1, NextDocNumber(t.TempDir(), "AUTH"))
}

func TestNextDocNumber_ContinuesFromExisting(t *testing.T) {
	t.Parallel()

	chunksPath := t.TempDir()
	domainPath := filepath.Join(chunksPath, "AUTH")
	require.NoError(t, os.MkdirAll(domainPath, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(domainPath, "CHK-AUTH-002-001.md"), []byte("x"), 0o644))

	assert.Equal(t, 3, NextDocNumber(chunksPath, "AUTH"))
}

func TestParseSections_SplitsOnHeaders(t *testing.T) {
	t.Parallel()

	content := "intro text\n\n# Auth\n\nauth body\n\n## Sub\n\nsub body\n"
	sections := ParseSections(content)

	require.Len(t, sections, 3)
	assert.Equal(t, "Introduction", sections[0].title)
	assert.Equal(t, "intro text", sections[0].content)
	assert.Equal(t, "Auth", sections[1].title)
	assert.Equal(t, "auth body", sections[1].content)
	assert.Equal(t, "Sub", sections[2].title)
	assert.Equal(t, "sub body", sections[2].content)
}

func TestSplitByParagraphs_PacksUnderBudget(t *testing.T) {
	t.Parallel()

	text := "first paragraph.\n\nsecond paragraph.\n\nthird paragraph."
	chunks := SplitByParagraphs(text, 1000)
	assert.Len(t, chunks, 1)
}

func TestSplitByParagraphs_OversizedParagraphKeepsTerminalPunctuation(t *testing.T) {
	t.Parallel()

	sentence := "word word word word word word word word word word."
	para := strings.Repeat(sentence+" ", 30)
	text := para

	chunks := SplitByParagraphs(text, 50)
	require.Greater(t, len(chunks), 1)

	for _, c := range chunks {
		words := strings.Fields(c)
		require.NotEmpty(t, words)
		last := words[len(words)-1]
		assert.True(t, strings.HasSuffix(last, "."), "expected terminal punctuation preserved, got %q", c)
	}
}

func TestAddOverlap_PrependsPreviousTail(t *testing.T) {
	t.Parallel()

	chunks := []string{
		"one two three four five six seven eight nine ten eleven twelve",
		"second chunk body",
	}
	result := AddOverlap(chunks, 13) // overlapWords = int(13/1.3) = 10, predecessor has 12 words

	assert.Equal(t, chunks[0], result[0])
	assert.Contains(t, result[1], "...")
	assert.Contains(t, result[1], "second chunk body")
}

func TestAddOverlap_NoopForSingleChunk(t *testing.T) {
	t.Parallel()
	chunks := []string{"only one"}
	assert.Equal(t, chunks, AddOverlap(chunks, 50))
}

func TestChunkDocument_PersistsChunksAndEmbeddings(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	srcPath := filepath.Join(root, "auth-notes.md")
	content := "# Login Flow\n\n" +
		"Authentication requires a session token and a login form. " +
		"Users submit credentials and the server validates the session. " +
		"Authentication authentication authentication session session login.\n"
	require.NoError(t, os.WriteFile(srcPath, []byte(content), 0o644))

	cfg := config.ChunkingConfig{ChunkSize: 500, ChunkMin: 1, ChunkOverlap: 0}
	provider := newMockProvider(t)

	chunks, err := ChunkDocument(context.Background(), cfg, provider, root, srcPath, "AUTH")
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	chunk := chunks[0]
	assert.Equal(t, "CHK-AUTH-001-001", chunk.ID)
	assert.Equal(t, "DOC-AUTH-001", chunk.SourceDoc)
	assert.Equal(t, "Login Flow", chunk.SourceSection)

	domainPath := filepath.Join(root, ".cortex", "chunks", "AUTH")
	mdPath := filepath.Join(domainPath, chunk.ID+".md")
	embPath := filepath.Join(domainPath, chunk.ID+".emb")

	mdBytes, err := os.ReadFile(mdPath)
	require.NoError(t, err)
	meta := frontmatter.Parse(string(mdBytes))
	assert.Equal(t, chunk.ID, meta["id"])
	assert.Equal(t, chunk.SourceHash, meta["source_hash"])

	v, err := vector.Read(embPath)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, vector.Norm(v), 1e-4)
}

func TestChunkDocument_DropsSectionsUnderChunkMin(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	srcPath := filepath.Join(root, "auth-notes.md")
	require.NoError(t, os.WriteFile(srcPath, []byte("# Tiny\n\none liner\n"), 0o644))

	cfg := config.ChunkingConfig{ChunkSize: 500, ChunkMin: 1000, ChunkOverlap: 0}
	chunks, err := ChunkDocument(context.Background(), cfg, newMockProvider(t), root, srcPath, "")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunkDocument_MissingSource(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	cfg := config.ChunkingConfig{ChunkSize: 500, ChunkMin: 1, ChunkOverlap: 0}
	_, err := ChunkDocument(context.Background(), cfg, newMockProvider(t), root, filepath.Join(root, "missing.md"), "")
	require.Error(t, err)
}

func TestGetStaleChunks_DetectsModifiedAndDeleted(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	srcPath := filepath.Join(root, "auth-notes.md")
	content := "# Login Flow\n\n" + wordsRepeat("authentication session token login flow ", 40)
	require.NoError(t, os.WriteFile(srcPath, []byte(content), 0o644))

	cfg := config.ChunkingConfig{ChunkSize: 500, ChunkMin: 1, ChunkOverlap: 0}
	_, err := ChunkDocument(context.Background(), cfg, newMockProvider(t), root, srcPath, "")
	require.NoError(t, err)

	stale, err := GetStaleChunks(root)
	require.NoError(t, err)
	assert.Empty(t, stale)

	require.NoError(t, os.WriteFile(srcPath, []byte(content+"extra line\n"), 0o644))
	stale, err = GetStaleChunks(root)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "modified", stale[0].Status)

	require.NoError(t, os.Remove(srcPath))
	stale, err = GetStaleChunks(root)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "deleted", stale[0].Status)
	assert.Empty(t, stale[0].CurrentHash)
}

func TestGetChunksBySourceAndDeleteChunks_RoundTrip(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	srcPath := filepath.Join(root, "auth-notes.md")
	content := "# Login Flow\n\n" + wordsRepeat("authentication session token login flow ", 40)
	require.NoError(t, os.WriteFile(srcPath, []byte(content), 0o644))

	cfg := config.ChunkingConfig{ChunkSize: 500, ChunkMin: 1, ChunkOverlap: 0}
	chunks, err := ChunkDocument(context.Background(), cfg, newMockProvider(t), root, srcPath, "AUTH")
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	ids, err := GetChunksBySource(root, srcPath)
	require.NoError(t, err)
	require.NotEmpty(t, ids)

	deleted, err := DeleteChunks(root, ids)
	require.NoError(t, err)
	assert.Equal(t, len(ids), deleted)

	remaining, err := GetChunksBySource(root, srcPath)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	domainPath := filepath.Join(root, ".cortex", "chunks", "AUTH")
	for _, id := range ids {
		_, err := os.Stat(filepath.Join(domainPath, id+".emb"))
		assert.True(t, os.IsNotExist(err))
	}
}

func wordsRepeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}
