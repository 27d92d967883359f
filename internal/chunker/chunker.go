// Package chunker splits markdown documents into semantic units,
// persists them with provenance metadata and an embedding sidecar, and
// detects when a source document has drifted from what was chunked.
package chunker

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cortexlabs/cortex/internal/config"
	"github.com/cortexlabs/cortex/internal/cortexerr"
	"github.com/cortexlabs/cortex/internal/embed"
	"github.com/cortexlabs/cortex/internal/frontmatter"
	"github.com/cortexlabs/cortex/internal/keywords"
	"github.com/cortexlabs/cortex/internal/layout"
	"github.com/cortexlabs/cortex/internal/tokenizer"
	"github.com/cortexlabs/cortex/internal/vector"
)

// Chunk is a contiguous, embedded slice of a source document.
type Chunk struct {
	ID              string
	SourceDoc       string
	SourceSection   string
	SourceLineStart int
	SourceLineEnd   int
	Tokens          int
	Keywords        []string
	Content         string
	Created         string
	SourcePath      string
	SourceHash      string
}

var (
	headerRe   = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	sentenceRe = regexp.MustCompile(`[.!?]\s+`)

	genericParents = map[string]bool{
		"DOCS": true, "DOC": true, "DOCUMENTATION": true, ".": true,
	}
)

// splitSentences splits text on sentence boundaries, keeping the
// terminal punctuation attached to the preceding sentence. RE2 has no
// lookbehind, so this walks match indices by hand instead of using
// sentenceRe.Split, which would discard the matched punctuation.
func splitSentences(text string) []string {
	locs := sentenceRe.FindAllStringIndex(text, -1)
	var sentences []string
	start := 0
	for _, loc := range locs {
		end := loc[0] + 1 // keep the terminal punctuation with its sentence
		sentences = append(sentences, text[start:end])
		start = loc[1]
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	return sentences
}

type section struct {
	title     string
	content   string
	startLine int
	endLine   int
}

// DetectDomain infers a domain tag from a file path: the parent
// directory name if not generic, else the filename prefix before the
// first hyphen, else GENERAL.
func DetectDomain(path string) string {
	dir := filepath.Dir(path)
	parent := strings.ToUpper(filepath.Base(dir))
	if parent != "" && !genericParents[parent] {
		return parent
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if idx := strings.Index(stem, "-"); idx >= 0 {
		prefix := strings.ToUpper(stem[:idx])
		if len(prefix) >= 2 {
			return prefix
		}
	}

	return "GENERAL"
}

// NextDocNumber scans chunksPath/domain for existing CHK-DOMAIN-DDD-SSS.md
// files and returns one past the highest DDD found, or 1 if none exist.
func NextDocNumber(chunksPath, domain string) int {
	domainPath := filepath.Join(chunksPath, domain)
	entries, err := os.ReadDir(domainPath)
	if err != nil {
		return 1
	}

	max := 0
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".md") {
			continue
		}
		parts := strings.Split(strings.TrimSuffix(name, ".md"), "-")
		if len(parts) < 4 {
			continue
		}
		n, err := strconv.Atoi(parts[2])
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max + 1
}

// ParseSections splits markdown content into sections on ATX headers.
// Content preceding the first header becomes an "Introduction" section.
func ParseSections(content string) []section {
	lines := strings.Split(content, "\n")
	var sections []section
	var current string
	var haveSection bool
	var buf []string
	start := 0

	flush := func(endLine int) {
		if !haveSection && len(buf) == 0 {
			return
		}
		title := current
		if title == "" {
			title = "Introduction"
		}
		sections = append(sections, section{
			title:     title,
			content:   strings.TrimSpace(strings.Join(buf, "\n")),
			startLine: start + 1,
			endLine:   endLine,
		})
	}

	for i, line := range lines {
		if m := headerRe.FindStringSubmatch(line); m != nil {
			flush(i)
			current = strings.TrimSpace(m[2])
			haveSection = true
			buf = nil
			start = i
			continue
		}
		buf = append(buf, line)
	}
	flush(len(lines))

	return sections
}

// SplitByParagraphs packs blank-line-separated paragraphs greedily so
// that each emitted chunk stays within maxTokens, splitting an
// oversized single paragraph on sentence boundaries.
func SplitByParagraphs(text string, maxTokens int) []string {
	paragraphs := strings.Split(text, "\n\n")
	var chunks []string
	var current []string
	currentTokens := 0

	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, strings.Join(current, "\n\n"))
			current = nil
			currentTokens = 0
		}
	}

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		paraTokens := tokenizer.Count(para)

		if paraTokens > maxTokens {
			flush()

			sentences := splitSentences(para)
			var sentChunk []string
			sentTokens := 0
			for _, sent := range sentences {
				sentTok := tokenizer.Count(sent)
				if sentTokens+sentTok > maxTokens && len(sentChunk) > 0 {
					chunks = append(chunks, strings.Join(sentChunk, " "))
					sentChunk = nil
					sentTokens = 0
				}
				sentChunk = append(sentChunk, sent)
				sentTokens += sentTok
			}
			if len(sentChunk) > 0 {
				chunks = append(chunks, strings.Join(sentChunk, " "))
			}
			continue
		}

		if currentTokens+paraTokens > maxTokens && len(current) > 0 {
			flush()
		}
		current = append(current, para)
		currentTokens += paraTokens
	}
	flush()

	return chunks
}

// AddOverlap prepends to every chunk after the first an overlap preamble
// drawn from the tail of its predecessor.
func AddOverlap(chunks []string, overlapTokens int) []string {
	if len(chunks) <= 1 || overlapTokens <= 0 {
		return chunks
	}

	result := make([]string, len(chunks))
	result[0] = chunks[0]

	for i := 1; i < len(chunks); i++ {
		prevWords := strings.Fields(chunks[i-1])
		overlapWords := int(float64(overlapTokens) / 1.3)

		chunk := chunks[i]
		if overlapWords > 0 && len(prevWords) > overlapWords {
			overlapText := strings.Join(prevWords[len(prevWords)-overlapWords:], " ")
			chunk = fmt.Sprintf("...%s\n\n%s", overlapText, chunk)
		}
		result[i] = chunk
	}

	return result
}

// ChunkDocument reads one markdown file, splits it semantically,
// persists the resulting chunks (markdown + embedding sidecar) and
// returns them. domain is auto-detected from path when empty.
func ChunkDocument(ctx context.Context, cfg config.ChunkingConfig, provider embed.Provider, projectRoot, path, domain string) ([]Chunk, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("chunker: %w", err)
	}
	absRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("chunker: %w", err)
	}

	if _, err := os.Stat(absPath); err != nil {
		return nil, fmt.Errorf("%w: %s", cortexerr.ErrSourceMissing, absPath)
	}

	if domain == "" {
		domain = DetectDomain(absPath)
	}

	chunksPath := layout.ChunksDir(absRoot)
	domainPath := layout.ChunkDomainDir(absRoot, domain)
	if err := os.MkdirAll(domainPath, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", cortexerr.ErrIOFailure, err)
	}

	docNum := NextDocNumber(chunksPath, domain)
	docID := fmt.Sprintf("DOC-%s-%03d", domain, docNum)

	contentBytes, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cortexerr.ErrIOFailure, err)
	}
	content := string(contentBytes)
	sourceHash := sha256Hex(content)

	sourcePath, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		sourcePath = absPath
	}
	sourcePath = filepath.ToSlash(sourcePath)

	sections := ParseSections(content)

	var chunks []Chunk
	seq := 1

	for _, sec := range sections {
		if strings.TrimSpace(sec.content) == "" {
			continue
		}

		sectionTokens := tokenizer.Count(sec.content)

		var textChunks []string
		if sectionTokens <= cfg.ChunkSize {
			if sectionTokens < cfg.ChunkMin {
				continue
			}
			textChunks = []string{sec.content}
		} else {
			textChunks = SplitByParagraphs(sec.content, cfg.ChunkSize)
		}

		textChunks = AddOverlap(textChunks, cfg.ChunkOverlap)

		for _, text := range textChunks {
			chunkTokens := tokenizer.Count(text)
			if chunkTokens < cfg.ChunkMin {
				continue
			}

			chunk := Chunk{
				ID:              fmt.Sprintf("CHK-%s-%03d-%03d", domain, docNum, seq),
				SourceDoc:       docID,
				SourceSection:   sec.title,
				SourceLineStart: sec.startLine,
				SourceLineEnd:   sec.endLine,
				Tokens:          chunkTokens,
				Keywords:        keywords.Extract(text, 10),
				Content:         text,
				Created:         time.Now().Format(time.RFC3339),
				SourcePath:      sourcePath,
				SourceHash:      sourceHash,
			}
			chunks = append(chunks, chunk)
			seq++
		}
	}

	for _, chunk := range chunks {
		if err := SaveChunk(ctx, provider, domainPath, chunk); err != nil {
			return nil, err
		}
	}

	return chunks, nil
}

// SaveChunk writes a chunk's frontmatter+body file and its embedding
// sidecar into domainDir.
func SaveChunk(ctx context.Context, provider embed.Provider, domainDir string, chunk Chunk) error {
	b := frontmatter.Builder{}
	b.Str("id", chunk.ID)
	b.Str("source_doc", chunk.SourceDoc)
	b.Str("source_section", chunk.SourceSection)
	b.Raw("source_lines", fmt.Sprintf("[%d, %d]", chunk.SourceLineStart, chunk.SourceLineEnd))
	b.Str("source_path", chunk.SourcePath)
	b.Str("source_hash", chunk.SourceHash)
	b.Int("tokens", chunk.Tokens)
	b.StrArray("keywords", chunk.Keywords)
	b.Str("created", chunk.Created)
	b.Null("last_retrieved")
	b.Int("retrieval_count", 0)

	doc := b.Build(chunk.Content)
	mdPath := layout.ChunkMarkdownPath(domainDir, chunk.ID)
	if err := os.WriteFile(mdPath, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("%w: %v", cortexerr.ErrIOFailure, err)
	}

	embeddings, err := provider.Embed(ctx, []string{chunk.Content}, embed.EmbedModePassage)
	if err != nil {
		return fmt.Errorf("chunker: embed %s: %w", chunk.ID, err)
	}

	embPath := layout.ChunkEmbeddingPath(domainDir, chunk.ID)
	if err := vector.Write(embPath, embeddings[0]); err != nil {
		return fmt.Errorf("%w: %v", cortexerr.ErrIOFailure, err)
	}

	return nil
}

// ChunkDirectory walks path for markdown files matching docsPatterns
// (skipping ignorePatterns) and chunks each one, accumulating errors for
// individual files rather than aborting the whole walk.
func ChunkDirectory(ctx context.Context, cfg config.ChunkingConfig, provider embed.Provider, projectRoot, path, domain string, docsPatterns, ignorePatterns []string) ([]Chunk, []error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, []error{fmt.Errorf("chunker: %w", err)}
	}

	d, err := newDiscovery(absPath, docsPatterns, ignorePatterns)
	if err != nil {
		return nil, []error{fmt.Errorf("chunker: %w", err)}
	}

	docs, err := d.discoverDocs()
	if err != nil {
		return nil, []error{fmt.Errorf("%w: %v", cortexerr.ErrIOFailure, err)}
	}

	var all []Chunk
	var errs []error
	for _, doc := range docs {
		chunks, err := ChunkDocument(ctx, cfg, provider, projectRoot, doc, domain)
		if err != nil {
			errs = append(errs, fmt.Errorf("chunking %s: %w", doc, err))
			continue
		}
		all = append(all, chunks...)
	}

	return all, errs
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// ComputeFileHash returns the SHA-256 hex digest of a file's contents.
func ComputeFileHash(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", cortexerr.ErrIOFailure, err)
	}
	return sha256Hex(string(content)), nil
}

// StaleChunk describes a chunk whose source has drifted.
type StaleChunk struct {
	ChunkID     string
	SourcePath  string
	StoredHash  string
	CurrentHash string
	Status      string // "modified" or "deleted"
}

// GetStaleChunks scans every chunk under projectRoot and reports those
// whose source file is missing or whose content hash has changed.
func GetStaleChunks(projectRoot string) ([]StaleChunk, error) {
	absRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("chunker: %w", err)
	}
	chunksPath := layout.ChunksDir(absRoot)

	domains, err := os.ReadDir(chunksPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", cortexerr.ErrIOFailure, err)
	}

	var stale []StaleChunk
	checkedSources := map[string]string{}

	for _, domain := range domains {
		if !domain.IsDir() {
			continue
		}
		domainPath := filepath.Join(chunksPath, domain.Name())

		files, err := os.ReadDir(domainPath)
		if err != nil {
			continue
		}

		for _, f := range files {
			name := f.Name()
			if !strings.HasSuffix(name, ".md") {
				continue
			}
			chunkPath := filepath.Join(domainPath, name)
			meta, err := parseChunkMetadata(chunkPath)
			if err != nil {
				continue
			}

			sourcePath, _ := meta["source_path"].(string)
			storedHash, _ := meta["source_hash"].(string)
			if sourcePath == "" || storedHash == "" {
				continue
			}

			fullSourcePath := filepath.Join(absRoot, sourcePath)

			if _, err := os.Stat(fullSourcePath); err != nil {
				stale = append(stale, StaleChunk{
					ChunkID:    idOrFilename(meta, name),
					SourcePath: sourcePath,
					StoredHash: storedHash,
					Status:     "deleted",
				})
				continue
			}

			currentHash, ok := checkedSources[sourcePath]
			if !ok {
				currentHash, err = ComputeFileHash(fullSourcePath)
				if err != nil {
					continue
				}
				checkedSources[sourcePath] = currentHash
			}

			if currentHash != storedHash {
				stale = append(stale, StaleChunk{
					ChunkID:     idOrFilename(meta, name),
					SourcePath:  sourcePath,
					StoredHash:  storedHash,
					CurrentHash: currentHash,
					Status:      "modified",
				})
			}
		}
	}

	return stale, nil
}

// GetChunksBySource returns the ids of every chunk recorded as coming
// from sourcePath.
func GetChunksBySource(projectRoot, sourcePath string) ([]string, error) {
	absRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("chunker: %w", err)
	}

	absSource, err := filepath.Abs(sourcePath)
	if err != nil {
		absSource = sourcePath
	}
	normalized, err := filepath.Rel(absRoot, absSource)
	if err != nil {
		normalized = sourcePath
	}
	normalized = filepath.ToSlash(normalized)

	chunksPath := layout.ChunksDir(absRoot)
	domains, err := os.ReadDir(chunksPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", cortexerr.ErrIOFailure, err)
	}

	var ids []string
	for _, domain := range domains {
		if !domain.IsDir() {
			continue
		}
		domainPath := filepath.Join(chunksPath, domain.Name())
		files, err := os.ReadDir(domainPath)
		if err != nil {
			continue
		}
		for _, f := range files {
			name := f.Name()
			if !strings.HasSuffix(name, ".md") {
				continue
			}
			meta, err := parseChunkMetadata(filepath.Join(domainPath, name))
			if err != nil {
				continue
			}
			chunkSource, _ := meta["source_path"].(string)
			if chunkSource == normalized {
				ids = append(ids, idOrFilename(meta, name))
			}
		}
	}

	sort.Strings(ids)
	return ids, nil
}

// DeleteChunks removes the paired .md and embedding files for each id,
// returning the count of .md files actually removed.
func DeleteChunks(projectRoot string, chunkIDs []string) (int, error) {
	absRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return 0, fmt.Errorf("chunker: %w", err)
	}
	chunksPath := layout.ChunksDir(absRoot)

	deleted := 0
	for _, id := range chunkIDs {
		parts := strings.Split(id, "-")
		if len(parts) < 2 {
			continue
		}
		domain := parts[1]
		domainPath := filepath.Join(chunksPath, domain)

		mdPath := layout.ChunkMarkdownPath(domainPath, id)
		embPath := layout.ChunkEmbeddingPath(domainPath, id)

		if _, err := os.Stat(mdPath); err == nil {
			if err := os.Remove(mdPath); err != nil {
				return deleted, fmt.Errorf("%w: %v", cortexerr.ErrIOFailure, err)
			}
			deleted++
		}
		if _, err := os.Stat(embPath); err == nil {
			os.Remove(embPath)
		}
	}

	return deleted, nil
}

func parseChunkMetadata(path string) (map[string]any, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return frontmatter.Parse(string(content)), nil
}

func idOrFilename(meta map[string]any, filename string) string {
	if id, ok := meta["id"].(string); ok && id != "" {
		return id
	}
	return strings.TrimSuffix(filename, ".md")
}
