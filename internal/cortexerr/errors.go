// Package cortexerr defines the sentinel error kinds surfaced across
// cortex's components so callers (chiefly the CLI) can classify failures
// with errors.Is/errors.As instead of matching on message text.
package cortexerr

import "errors"

var (
	// ErrNotInitialized means the .cortex directory tree does not exist
	// where an operation expected it.
	ErrNotInitialized = errors.New("cortex: project not initialized (run `cortex init`)")

	// ErrSourceMissing means a chunk's or memory's recorded source no
	// longer exists on disk.
	ErrSourceMissing = errors.New("cortex: source file missing")

	// ErrIndexMissing means a requested index file does not exist.
	ErrIndexMissing = errors.New("cortex: index not found (run `cortex index`)")

	// ErrMalformedRecord means a chunk or memory file's frontmatter could
	// not be parsed into the fields an operation requires.
	ErrMalformedRecord = errors.New("cortex: malformed record")

	// ErrOrphanEmbedding means an embedding sidecar file exists without a
	// matching markdown record.
	ErrOrphanEmbedding = errors.New("cortex: orphan embedding")

	// ErrOrphanRecord means a markdown record exists without its
	// matching embedding sidecar file.
	ErrOrphanRecord = errors.New("cortex: orphan record (missing embedding)")

	// ErrIOFailure wraps unexpected filesystem failures (permissions,
	// disk full, and similar) distinct from the expected "not found"
	// conditions above.
	ErrIOFailure = errors.New("cortex: io failure")
)
