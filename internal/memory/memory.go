// Package memory implements CRUD over atomic learnings ("memories"):
// standalone claims embedded over their learning+context body, stored
// flat (no domain subdirectories) under .cortex/memories/.
package memory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cortexlabs/cortex/internal/embed"
	"github.com/cortexlabs/cortex/internal/frontmatter"
	"github.com/cortexlabs/cortex/internal/keywords"
	"github.com/cortexlabs/cortex/internal/layout"
	"github.com/cortexlabs/cortex/internal/vector"
)

// Memory is an atomic learning recorded from a session.
type Memory struct {
	ID               string
	Type             string // factual, experiential, procedural
	Domain           string
	Confidence       string // high, medium, low
	Keywords         []string
	Learning         string
	Context          string
	SourceSession    *string
	SourceTask       *string
	Trigger          *string
	Created          string
	Updated          string
	Verified         bool
	RetrievalCount   int
	LastRetrieved    *string
	UsefulnessScore  float64
}

// CreateParams carries the optional fields accepted when creating a memory.
type CreateParams struct {
	Learning      string
	Context       string
	Type          string
	Domain        string
	Confidence    string
	SourceSession *string
	SourceTask    *string
	Trigger       *string
}

func embeddingText(learning, context string) string {
	return learning + "\n" + context
}

// NextMemoryID returns the next MEM-YYYY-MM-DD-NNN id for today, scanning
// memoriesPath for existing files with today's date prefix.
func NextMemoryID(memoriesPath string) string {
	today := time.Now().Format("2006-01-02")
	seq := 1

	entries, err := os.ReadDir(memoriesPath)
	if err == nil {
		for _, e := range entries {
			name := e.Name()
			if !strings.HasPrefix(name, "MEM-"+today) || !strings.HasSuffix(name, ".md") {
				continue
			}
			filename := strings.TrimSuffix(name, ".md")
			idx := strings.LastIndex(filename, "-")
			if idx == -1 {
				continue
			}
			n, err := strconv.Atoi(filename[idx+1:])
			if err != nil {
				continue
			}
			if n+1 > seq {
				seq = n + 1
			}
		}
	}

	return fmt.Sprintf("MEM-%s-%03d", today, seq)
}

// Create builds a new memory, persists it, and returns it.
func Create(ctx context.Context, provider embed.Provider, projectRoot string, p CreateParams) (Memory, error) {
	absRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return Memory{}, fmt.Errorf("memory: %w", err)
	}
	memoriesPath := layout.MemoriesDir(absRoot)
	if err := os.MkdirAll(memoriesPath, 0o755); err != nil {
		return Memory{}, fmt.Errorf("memory: %w", err)
	}

	if p.Type == "" {
		p.Type = "experiential"
	}
	if p.Domain == "" {
		p.Domain = "GENERAL"
	}
	if p.Confidence == "" {
		p.Confidence = "medium"
	}

	now := time.Now().Format(time.RFC3339)
	m := Memory{
		ID:              NextMemoryID(memoriesPath),
		Type:            p.Type,
		Domain:          strings.ToUpper(p.Domain),
		Confidence:      p.Confidence,
		Keywords:        keywords.Extract(embeddingText(p.Learning, p.Context), 10),
		Learning:        p.Learning,
		Context:         p.Context,
		SourceSession:   p.SourceSession,
		SourceTask:      p.SourceTask,
		Trigger:         p.Trigger,
		Created:         now,
		Updated:         now,
		UsefulnessScore: 0.5,
	}

	if err := Save(ctx, provider, absRoot, m); err != nil {
		return Memory{}, err
	}

	return m, nil
}

// Save writes a memory's frontmatter+body file and re-embeds its
// learning+context body.
func Save(ctx context.Context, provider embed.Provider, projectRoot string, m Memory) error {
	absRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return fmt.Errorf("memory: %w", err)
	}
	memoriesPath := layout.MemoriesDir(absRoot)
	if err := os.MkdirAll(memoriesPath, 0o755); err != nil {
		return fmt.Errorf("memory: %w", err)
	}

	b := frontmatter.Builder{}
	b.Str("id", m.ID)
	b.Str("type", m.Type)
	b.Str("domain", m.Domain)
	b.Str("confidence", m.Confidence)
	b.StrArray("keywords", m.Keywords)
	b.StrPtrOrNull("source_session", m.SourceSession)
	b.StrPtrOrNull("source_task", m.SourceTask)
	b.StrPtrOrNull("trigger", m.Trigger)
	b.Str("created", m.Created)
	b.Str("updated", m.Updated)
	b.Bool("verified", m.Verified)
	b.Int("retrieval_count", m.RetrievalCount)
	b.StrPtrOrNull("last_retrieved", m.LastRetrieved)
	b.Raw("usefulness_score", strconv.FormatFloat(m.UsefulnessScore, 'g', -1, 64))

	body := fmt.Sprintf("## Learning\n\n%s\n\n## Context\n\n%s\n", m.Learning, m.Context)
	doc := b.Build(body)

	mdPath := layout.MemoryMarkdownPath(absRoot, m.ID)
	if err := os.WriteFile(mdPath, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("memory: write %s: %w", mdPath, err)
	}

	embeddings, err := provider.Embed(ctx, []string{embeddingText(m.Learning, m.Context)}, embed.EmbedModePassage)
	if err != nil {
		return fmt.Errorf("memory: embed %s: %w", m.ID, err)
	}

	embPath := layout.MemoryEmbeddingPath(absRoot, m.ID)
	if err := vector.Write(embPath, embeddings[0]); err != nil {
		return fmt.Errorf("memory: %w", err)
	}

	return nil
}

// ParseMemoryFile reads and parses a memory's markdown file.
func ParseMemoryFile(mdPath string) (*Memory, error) {
	content, err := os.ReadFile(mdPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("memory: read %s: %w", mdPath, err)
	}

	if !strings.HasPrefix(string(content), "---") {
		return nil, nil
	}

	meta := frontmatter.Parse(string(content))
	body := frontmatter.Body(string(content))

	learning, ctx := splitLearningContext(body)

	m := &Memory{
		ID:              metaStr(meta, "id", ""),
		Type:            metaStr(meta, "type", "experiential"),
		Domain:          metaStr(meta, "domain", "GENERAL"),
		Confidence:      metaStr(meta, "confidence", "medium"),
		Keywords:        metaStrArray(meta, "keywords"),
		Learning:        learning,
		Context:         ctx,
		SourceSession:   metaStrPtr(meta, "source_session"),
		SourceTask:      metaStrPtr(meta, "source_task"),
		Trigger:         metaStrPtr(meta, "trigger"),
		Created:         metaStr(meta, "created", ""),
		Updated:         metaStr(meta, "updated", ""),
		Verified:        metaBool(meta, "verified"),
		RetrievalCount:  metaInt(meta, "retrieval_count"),
		LastRetrieved:   metaStrPtr(meta, "last_retrieved"),
		UsefulnessScore: metaFloat(meta, "usefulness_score", 0.5),
	}

	return m, nil
}

func splitLearningContext(body string) (learning, context string) {
	const learningHeader = "## Learning"
	const contextHeader = "## Context"

	idx := strings.Index(body, learningHeader)
	if idx == -1 {
		return "", ""
	}
	rest := body[idx+len(learningHeader):]

	if cIdx := strings.Index(rest, contextHeader); cIdx != -1 {
		return strings.TrimSpace(rest[:cIdx]), strings.TrimSpace(rest[cIdx+len(contextHeader):])
	}
	return strings.TrimSpace(rest), ""
}

// Get loads a single memory by id, or nil if it doesn't exist.
func Get(projectRoot, memoryID string) (*Memory, error) {
	absRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("memory: %w", err)
	}
	return ParseMemoryFile(layout.MemoryMarkdownPath(absRoot, memoryID))
}

// ListFilter narrows List's result set; zero-value fields are unfiltered.
type ListFilter struct {
	Domain     string
	Type       string
	Confidence string
}

// List returns every memory under projectRoot, newest created first,
// optionally filtered.
func List(projectRoot string, f ListFilter) ([]Memory, error) {
	absRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("memory: %w", err)
	}
	memoriesPath := layout.MemoriesDir(absRoot)

	entries, err := os.ReadDir(memoriesPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("memory: %w", err)
	}

	var memories []Memory
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		m, err := ParseMemoryFile(filepath.Join(memoriesPath, e.Name()))
		if err != nil || m == nil {
			continue
		}

		if f.Domain != "" && !strings.EqualFold(m.Domain, f.Domain) {
			continue
		}
		if f.Type != "" && m.Type != f.Type {
			continue
		}
		if f.Confidence != "" && m.Confidence != f.Confidence {
			continue
		}

		memories = append(memories, *m)
	}

	sort.SliceStable(memories, func(i, j int) bool {
		return memories[i].Created > memories[j].Created
	})

	return memories, nil
}

// UpdatePatch carries the optional fields Update may change; nil fields
// are left untouched.
type UpdatePatch struct {
	Confidence      *string
	Verified        *bool
	UsefulnessScore *float64
	Learning        *string
	Context         *string
}

// Update applies a patch to an existing memory, recomputing keywords and
// re-embedding when Learning or Context changes, and always refreshing
// Updated. Returns nil if the memory doesn't exist.
func Update(ctx context.Context, provider embed.Provider, projectRoot, memoryID string, patch UpdatePatch) (*Memory, error) {
	m, err := Get(projectRoot, memoryID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, nil
	}

	if patch.Confidence != nil {
		m.Confidence = *patch.Confidence
	}
	if patch.Verified != nil {
		m.Verified = *patch.Verified
	}
	if patch.UsefulnessScore != nil {
		m.UsefulnessScore = *patch.UsefulnessScore
	}
	if patch.Learning != nil {
		m.Learning = *patch.Learning
		m.Keywords = keywords.Extract(embeddingText(m.Learning, m.Context), 10)
	}
	if patch.Context != nil {
		m.Context = *patch.Context
		m.Keywords = keywords.Extract(embeddingText(m.Learning, m.Context), 10)
	}

	m.Updated = time.Now().Format(time.RFC3339)

	if err := Save(ctx, provider, projectRoot, *m); err != nil {
		return nil, err
	}

	return m, nil
}

// Delete removes a memory's markdown and embedding files. Returns false
// if the memory didn't exist.
func Delete(projectRoot, memoryID string) (bool, error) {
	absRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return false, fmt.Errorf("memory: %w", err)
	}

	mdPath := layout.MemoryMarkdownPath(absRoot, memoryID)
	if _, err := os.Stat(mdPath); err != nil {
		return false, nil
	}

	if err := os.Remove(mdPath); err != nil {
		return false, fmt.Errorf("memory: %w", err)
	}

	embPath := layout.MemoryEmbeddingPath(absRoot, memoryID)
	os.Remove(embPath)

	return true, nil
}

// IncrementRetrieval loads a memory, bumps its retrieval counter, sets
// last_retrieved to now, and rewrites the record (re-embedding included).
func IncrementRetrieval(ctx context.Context, provider embed.Provider, projectRoot, memoryID string) error {
	m, err := Get(projectRoot, memoryID)
	if err != nil {
		return err
	}
	if m == nil {
		return nil
	}

	m.RetrievalCount++
	now := time.Now().Format(time.RFC3339)
	m.LastRetrieved = &now

	return Save(ctx, provider, projectRoot, *m)
}

// Related pairs a memory with its similarity score to the query memory.
type Related struct {
	Memory Memory
	Score  float64
}

// FindRelatedMemories compares memoryID's embedding against every other
// memory's by dot product, returning the top_k highest-scoring, excluding
// the source memory itself.
func FindRelatedMemories(projectRoot, memoryID string, topK int) ([]Related, error) {
	absRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("memory: %w", err)
	}
	memoriesPath := layout.MemoriesDir(absRoot)

	sourceEmb, err := vector.Read(layout.MemoryEmbeddingPath(absRoot, memoryID))
	if err != nil {
		return nil, nil
	}

	entries, err := os.ReadDir(memoriesPath)
	if err != nil {
		return nil, nil
	}

	var results []Related
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, layout.EmbeddingExt) || strings.HasPrefix(name, memoryID) {
			continue
		}

		otherID := strings.TrimSuffix(name, layout.EmbeddingExt)
		otherEmb, err := vector.Read(filepath.Join(memoriesPath, name))
		if err != nil {
			continue
		}

		m, err := Get(absRoot, otherID)
		if err != nil || m == nil {
			continue
		}

		results = append(results, Related{Memory: *m, Score: vector.Dot(sourceEmb, otherEmb)})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if topK >= 0 && len(results) > topK {
		results = results[:topK]
	}

	return results, nil
}

func metaStr(meta map[string]any, key, def string) string {
	if v, ok := meta[key].(string); ok {
		return v
	}
	return def
}

func metaStrPtr(meta map[string]any, key string) *string {
	v, ok := meta[key].(string)
	if !ok || v == "" {
		return nil
	}
	return &v
}

func metaBool(meta map[string]any, key string) bool {
	v, _ := meta[key].(bool)
	return v
}

func metaInt(meta map[string]any, key string) int {
	switch v := meta[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

func metaFloat(meta map[string]any, key string, def float64) float64 {
	switch v := meta[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return def
	}
}

func metaStrArray(meta map[string]any, key string) []string {
	raw, ok := meta[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
