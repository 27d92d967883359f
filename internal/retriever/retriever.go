// Package retriever scores and ranks chunks and memories against a
// query by a fixed convex combination of semantic, keyword, recency,
// and frequency signals, via an exact dense scan of the index.
package retriever

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/cortexlabs/cortex/internal/cortexerr"
	"github.com/cortexlabs/cortex/internal/embed"
	"github.com/cortexlabs/cortex/internal/index"
	"github.com/cortexlabs/cortex/internal/layout"
	"github.com/cortexlabs/cortex/internal/vector"
)

const (
	weightSemantic  = 0.6
	weightKeyword   = 0.2
	weightRecency   = 0.1
	weightFrequency = 0.1

	frequencyMaxExpected = 100
)

// Kind selects which index(es) a retrieval searches.
type Kind string

const (
	KindChunks   Kind = "chunks"
	KindMemories Kind = "memories"
	KindBoth     Kind = "both"
)

// Result is one scored candidate, tagged with which index it came from.
type Result struct {
	ID              string
	Type            string // "chunks" or "memories"
	Score           float64
	SemanticScore   float64
	KeywordScore    float64
	RecencyScore    float64
	FrequencyScore  float64
	Metadata        map[string]any
	Content         *string
}

var queryStopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true, "not": true,
	"you": true, "all": true, "can": true, "how": true, "what": true, "when": true,
	"where": true, "which": true, "this": true, "that": true, "with": true,
}

var queryWordRe = regexp.MustCompile(`\b[a-z]{3,}\b`)

// ExtractQueryKeywords tokenizes a raw query for keyword-overlap scoring.
// Its stopword list is a short, retrieval-specific set, much narrower
// than the keyword extractor's (and including "how", which that one lacks).
func ExtractQueryKeywords(query string) []string {
	words := queryWordRe.FindAllString(strings.ToLower(query), -1)
	out := make([]string, 0, len(words))
	for _, w := range words {
		if !queryStopwords[w] {
			out = append(out, w)
		}
	}
	return out
}

// ComputeKeywordOverlap returns |query ∩ candidate| / min(|query|, |candidate|),
// or 0 if either set is empty.
func ComputeKeywordOverlap(queryKeywords, candidateKeywords []string) float64 {
	if len(queryKeywords) == 0 || len(candidateKeywords) == 0 {
		return 0.0
	}

	querySet := map[string]bool{}
	for _, k := range queryKeywords {
		querySet[strings.ToLower(k)] = true
	}
	candidateSet := map[string]bool{}
	for _, k := range candidateKeywords {
		candidateSet[strings.ToLower(k)] = true
	}

	overlap := 0
	for k := range querySet {
		if candidateSet[k] {
			overlap++
		}
	}

	maxPossible := len(querySet)
	if len(candidateSet) < maxPossible {
		maxPossible = len(candidateSet)
	}
	if maxPossible == 0 {
		return 0.0
	}

	return float64(overlap) / float64(maxPossible)
}

// ComputeRecencyScore decays from 1.0 at creation to 0.5 at 30 days and
// approaches 0 for old items; 0.5 if created is empty or unparseable.
func ComputeRecencyScore(created string) float64 {
	if created == "" {
		return 0.5
	}

	createdTime, err := time.Parse(time.RFC3339, created)
	if err != nil {
		return 0.5
	}

	daysOld := time.Since(createdTime).Hours() / 24
	score := 1.0 / (1.0 + daysOld/30.0)
	return clamp01(score)
}

// ComputeFrequencyScore is a log-scaled score of retrieval count, 0 at
// count=0, monotone non-decreasing, normalized against an assumed
// maximum of 100 retrievals.
func ComputeFrequencyScore(retrievalCount int) float64 {
	score := math.Log1p(float64(retrievalCount)) / math.Log1p(frequencyMaxExpected)
	return clamp01(score)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// Options configures a retrieval call.
type Options struct {
	TopK           int
	Kind           Kind
	IncludeContent bool
}

// Retrieve embeds query, scores every candidate in the selected index(es)
// by the fixed convex combination, and returns the top_k results sorted
// by descending score. A missing index for the requested kind is treated
// as empty, never an error — except when Kind is a single index (not
// "both") and that index is missing, which propagates IndexMissing.
func Retrieve(ctx context.Context, provider embed.Provider, projectRoot, query string, opts Options) ([]Result, error) {
	absRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("retriever: %w", err)
	}

	embeddings, err := provider.Embed(ctx, []string{query}, embed.EmbedModeQuery)
	if err != nil {
		return nil, fmt.Errorf("retriever: embed query: %w", err)
	}
	queryEmbedding := embeddings[0]
	queryKeywords := ExtractQueryKeywords(query)

	var all []Result

	if opts.Kind == KindChunks || opts.Kind == KindBoth {
		results, err := searchKind(absRoot, index.Chunks, queryEmbedding, queryKeywords, opts.IncludeContent)
		switch {
		case err == nil:
			all = append(all, results...)
		case opts.Kind == KindBoth && errors.Is(err, cortexerr.ErrIndexMissing):
			// both-mode treats a missing index as empty, not an error
		default:
			return nil, err
		}
	}

	if opts.Kind == KindMemories || opts.Kind == KindBoth {
		results, err := searchKind(absRoot, index.Memories, queryEmbedding, queryKeywords, opts.IncludeContent)
		switch {
		case err == nil:
			all = append(all, results...)
		case opts.Kind == KindBoth && errors.Is(err, cortexerr.ErrIndexMissing):
			// both-mode treats a missing index as empty, not an error
		default:
			return nil, err
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Score > all[j].Score
	})

	topK := opts.TopK
	if topK > 0 && len(all) > topK {
		all = all[:topK]
	}

	return all, nil
}

func searchKind(projectRoot string, kind index.Kind, queryEmbedding []float32, queryKeywords []string, includeContent bool) ([]Result, error) {
	idx, err := index.Load(projectRoot, kind)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(idx.Ids))
	for i, id := range idx.Ids {
		meta := idx.Metadata[id]
		if meta == nil {
			meta = map[string]any{}
		}

		semanticScore := vector.Dot(idx.Matrix[i], queryEmbedding)
		candidateKeywords := metaStrArray(meta, "keywords")
		created, _ := meta["created"].(string)
		retrievalCount := metaInt(meta, "retrieval_count")

		keywordScore := ComputeKeywordOverlap(queryKeywords, candidateKeywords)
		recencyScore := ComputeRecencyScore(created)
		frequencyScore := ComputeFrequencyScore(retrievalCount)

		finalScore := weightSemantic*semanticScore +
			weightKeyword*keywordScore +
			weightRecency*recencyScore +
			weightFrequency*frequencyScore

		result := Result{
			ID:             id,
			Type:           string(kind),
			Score:          round4(finalScore),
			SemanticScore:  round4(semanticScore),
			KeywordScore:   round4(keywordScore),
			RecencyScore:   round4(recencyScore),
			FrequencyScore: round4(frequencyScore),
			Metadata:       meta,
		}

		if includeContent && kind == index.Chunks {
			if content := loadChunkContent(projectRoot, id); content != nil {
				result.Content = content
			}
		}

		results = append(results, result)
	}

	return results, nil
}

func loadChunkContent(projectRoot, chunkID string) *string {
	parts := strings.Split(chunkID, "-")
	if len(parts) < 4 {
		return nil
	}
	domain := parts[1]

	mdPath := filepath.Join(layout.ChunksDir(projectRoot), domain, chunkID+".md")
	body, err := readChunkBody(mdPath)
	if err != nil {
		return nil
	}

	return &body
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
