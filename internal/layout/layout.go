// Package layout centralizes the on-disk paths under a project's .cortex
// directory. Every other package resolves paths through here rather than
// joining strings itself, so the directory scheme has exactly one home.
package layout

import "path/filepath"

const (
	cortexDir   = ".cortex"
	chunksDir   = "chunks"
	memoriesDir = "memories"
	indexDir    = "index"

	// EmbeddingExt is the sidecar extension for a record's raw embedding
	// vector, stored as flat little-endian float32 bytes.
	EmbeddingExt = ".emb"
)

// CortexDir returns the root .cortex directory under projectRoot.
func CortexDir(projectRoot string) string {
	return filepath.Join(projectRoot, cortexDir)
}

// ChunksDir returns the chunks directory under projectRoot.
func ChunksDir(projectRoot string) string {
	return filepath.Join(projectRoot, cortexDir, chunksDir)
}

// ChunkDomainDir returns the per-domain chunk directory.
func ChunkDomainDir(projectRoot, domain string) string {
	return filepath.Join(ChunksDir(projectRoot), domain)
}

// MemoriesDir returns the memories directory under projectRoot.
func MemoriesDir(projectRoot string) string {
	return filepath.Join(projectRoot, cortexDir, memoriesDir)
}

// IndexDir returns the index directory under projectRoot.
func IndexDir(projectRoot string) string {
	return filepath.Join(projectRoot, cortexDir, indexDir)
}

// LockPath returns the path to the single-writer advisory lock file.
func LockPath(projectRoot string) string {
	return filepath.Join(CortexDir(projectRoot), ".lock")
}

// ChunkMarkdownPath returns the .md path for a chunk id within domainDir.
func ChunkMarkdownPath(domainDir, chunkID string) string {
	return filepath.Join(domainDir, chunkID+".md")
}

// ChunkEmbeddingPath returns the embedding sidecar path for a chunk id
// within domainDir.
func ChunkEmbeddingPath(domainDir, chunkID string) string {
	return filepath.Join(domainDir, chunkID+EmbeddingExt)
}

// MemoryMarkdownPath returns the .md path for a memory id.
func MemoryMarkdownPath(projectRoot, memoryID string) string {
	return filepath.Join(MemoriesDir(projectRoot), memoryID+".md")
}

// MemoryEmbeddingPath returns the embedding sidecar path for a memory id.
func MemoryEmbeddingPath(projectRoot, memoryID string) string {
	return filepath.Join(MemoriesDir(projectRoot), memoryID+EmbeddingExt)
}

// IndexMatrixPath returns the path to the <kind>.matrix file, kind being
// "chunks" or "memories".
func IndexMatrixPath(projectRoot, kind string) string {
	return filepath.Join(IndexDir(projectRoot), kind+".matrix")
}

// IndexIDsPath returns the path to the <kind>.ids file.
func IndexIDsPath(projectRoot, kind string) string {
	return filepath.Join(IndexDir(projectRoot), kind+".ids")
}

// IndexMetaPath returns the path to the <kind>.meta file.
func IndexMetaPath(projectRoot, kind string) string {
	return filepath.Join(IndexDir(projectRoot), kind+".meta")
}
