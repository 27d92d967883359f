// Package index aggregates per-item embeddings (chunks or memories) into
// a flat dense matrix with parallel id and metadata side-files, and
// loads them back for the retriever's exact scan.
package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cortexlabs/cortex/internal/cortexerr"
	"github.com/cortexlabs/cortex/internal/frontmatter"
	"github.com/cortexlabs/cortex/internal/layout"
	"github.com/cortexlabs/cortex/internal/vector"
)

// Kind names the source tree an index is built from.
type Kind string

const (
	Chunks   Kind = "chunks"
	Memories Kind = "memories"
)

type scannedItem struct {
	id            string
	embeddingPath string
	metadata      map[string]any
}

// Index is a loaded dense matrix with parallel id/metadata lookups. Row
// i of Matrix is the embedding of Ids[i].
type Index struct {
	Matrix   [][]float32
	Ids      []string
	Metadata map[string]map[string]any
}

func scanDir(dir string) ([]scannedItem, []string) {
	var items []scannedItem
	var warnings []string

	entries, err := os.ReadDir(dir)
	if err != nil {
		return items, warnings
	}

	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".md")
		mdPath := filepath.Join(dir, e.Name())
		embPath := filepath.Join(dir, id+layout.EmbeddingExt)

		if _, err := os.Stat(embPath); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: no embedding for %s", cortexerr.ErrOrphanRecord, id))
			continue
		}

		content, err := os.ReadFile(mdPath)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %s: %v", cortexerr.ErrMalformedRecord, id, err))
			continue
		}

		items = append(items, scannedItem{
			id:            id,
			embeddingPath: embPath,
			metadata:      frontmatter.Parse(string(content)),
		})
	}

	return items, warnings
}

// ScanChunks walks every domain under chunksPath and reports each chunk
// with a paired embedding, along with warnings for orphaned records.
func ScanChunks(chunksPath string) ([]scannedItem, []string) {
	var items []scannedItem
	var warnings []string

	domains, err := os.ReadDir(chunksPath)
	if err != nil {
		return items, warnings
	}

	for _, d := range domains {
		if !d.IsDir() {
			continue
		}
		domainItems, domainWarnings := scanDir(filepath.Join(chunksPath, d.Name()))
		items = append(items, domainItems...)
		warnings = append(warnings, domainWarnings...)
	}

	return items, warnings
}

// ScanMemories reports every memory with a paired embedding under
// memoriesPath (flat, no subdirectories), with warnings for orphans.
func ScanMemories(memoriesPath string) ([]scannedItem, []string) {
	return scanDir(memoriesPath)
}

// Build scans kind's source tree under projectRoot and writes the three
// parallel index files. Returns the count of items indexed; zero items
// (including a missing source tree) is not an error.
func Build(projectRoot string, kind Kind) (int, []string, error) {
	absRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return 0, nil, fmt.Errorf("index: %w", err)
	}

	var items []scannedItem
	var warnings []string
	switch kind {
	case Chunks:
		items, warnings = ScanChunks(layout.ChunksDir(absRoot))
	case Memories:
		items, warnings = ScanMemories(layout.MemoriesDir(absRoot))
	default:
		return 0, nil, fmt.Errorf("index: unknown kind %q", kind)
	}

	if len(items) == 0 {
		return 0, warnings, nil
	}

	matrix := make([][]float32, 0, len(items))
	ids := make([]string, 0, len(items))
	metadata := make(map[string]map[string]any, len(items))

	for _, item := range items {
		v, err := vector.Read(item.embeddingPath)
		if err != nil {
			return 0, warnings, fmt.Errorf("%w: %v", cortexerr.ErrIOFailure, err)
		}
		matrix = append(matrix, v)
		ids = append(ids, item.id)
		metadata[item.id] = item.metadata
	}

	indexDir := layout.IndexDir(absRoot)
	if err := os.MkdirAll(indexDir, 0o755); err != nil {
		return 0, warnings, fmt.Errorf("%w: %v", cortexerr.ErrIOFailure, err)
	}

	if err := writeMatrix(layout.IndexMatrixPath(absRoot, string(kind)), matrix); err != nil {
		return 0, warnings, err
	}
	if err := writeJSON(layout.IndexIDsPath(absRoot, string(kind)), ids); err != nil {
		return 0, warnings, err
	}
	if err := writeJSON(layout.IndexMetaPath(absRoot, string(kind)), metadata); err != nil {
		return 0, warnings, err
	}

	return len(items), warnings, nil
}

// Load reads the three index files for kind. IndexMissing is returned if
// the matrix file is absent. Missing ids/meta sidecars yield empty
// collections rather than an error, for forward compatibility.
func Load(projectRoot string, kind Kind) (*Index, error) {
	absRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("index: %w", err)
	}

	matrixPath := layout.IndexMatrixPath(absRoot, string(kind))
	if _, err := os.Stat(matrixPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", cortexerr.ErrIndexMissing, matrixPath)
		}
		return nil, fmt.Errorf("%w: %v", cortexerr.ErrIOFailure, err)
	}

	var ids []string
	if err := readJSONIfExists(layout.IndexIDsPath(absRoot, string(kind)), &ids); err != nil {
		return nil, fmt.Errorf("%w: %v", cortexerr.ErrIOFailure, err)
	}

	metadata := map[string]map[string]any{}
	if err := readJSONIfExists(layout.IndexMetaPath(absRoot, string(kind)), &metadata); err != nil {
		return nil, fmt.Errorf("%w: %v", cortexerr.ErrIOFailure, err)
	}

	matrix, err := readMatrix(matrixPath, len(ids))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cortexerr.ErrIOFailure, err)
	}

	return &Index{Matrix: matrix, Ids: ids, Metadata: metadata}, nil
}

// Stats summarizes an index's on-disk state without fully loading it.
type Stats struct {
	Kind  Kind
	Count int
	Dim   int
}

// GetStats reports the row count and dimension of kind's index, or
// (0, 0) if it doesn't exist.
func GetStats(projectRoot string, kind Kind) (Stats, error) {
	idx, err := Load(projectRoot, kind)
	if err != nil {
		if errors.Is(err, cortexerr.ErrIndexMissing) {
			return Stats{Kind: kind}, nil
		}
		return Stats{}, err
	}
	dim := 0
	if len(idx.Matrix) > 0 {
		dim = len(idx.Matrix[0])
	}
	return Stats{Kind: kind, Count: len(idx.Matrix), Dim: dim}, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("index: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", cortexerr.ErrIOFailure, err)
	}
	return nil
}

func readJSONIfExists(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, v)
}
