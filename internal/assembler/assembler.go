// Package assembler retrieves relevant chunks and memories for a task,
// fits each section to a token budget, and renders the result as a
// position-optimized markdown context frame: the most important
// directives sit at the two ends, exploiting known "lost in the middle"
// attention biases of large language models.
package assembler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cortexlabs/cortex/internal/cortexerr"
	"github.com/cortexlabs/cortex/internal/embed"
	"github.com/cortexlabs/cortex/internal/memory"
	"github.com/cortexlabs/cortex/internal/retriever"
	"github.com/cortexlabs/cortex/internal/tokenizer"
)

// Budget is the per-section token allocation for a context frame.
type Budget struct {
	TaskDefinition int
	Chunks         int
	Memories       int
	CurrentState   int
	Instructions   int
}

// BudgetFromTotal splits a total token budget proportionally: task 13%,
// chunks 65%, memories 13%, current_state 6%, instructions 3%.
func BudgetFromTotal(total int) Budget {
	return Budget{
		TaskDefinition: int(float64(total) * 0.13),
		Chunks:         int(float64(total) * 0.65),
		Memories:       int(float64(total) * 0.13),
		CurrentState:   int(float64(total) * 0.06),
		Instructions:   int(float64(total) * 0.03),
	}
}

// ChunkEntry is a chunk included in a frame, carrying its retrieval
// score and loaded (possibly truncated) content.
type ChunkEntry struct {
	ID       string
	Score    float64
	Metadata map[string]any
	Content  string
}

// MemoryEntry is a memory included in a frame.
type MemoryEntry struct {
	ID       string
	Metadata map[string]any
	Learning string
}

// Frame is an assembled context frame, ready to render.
type Frame struct {
	Task                string
	AcceptanceCriteria  []string
	Chunks              []ChunkEntry
	Memories            []MemoryEntry
	CurrentState        string
	Instructions        string
	GeneratedAt         string
	BudgetTotal         int
	BudgetUsed          int
}

// Params carries the optional inputs to Assemble.
type Params struct {
	Task               string
	AcceptanceCriteria []string
	CurrentState       string
	Instructions       string
	Budget             int // total tokens, used as given; the assemble command substitutes the configured budget for 0
	ChunkTopK          int
	MemoryTopK         int
}

// Assemble retrieves up to ChunkTopK chunks and MemoryTopK memories for
// task, fits each into its budget share, and returns the resulting
// frame. Chunks beyond budget stop the chunk loop (optionally including
// one truncated chunk first); memories beyond budget are dropped
// individually and the loop continues to the next, smaller candidate.
func Assemble(ctx context.Context, provider embed.Provider, projectRoot string, p Params) (Frame, error) {
	budgetAlloc := BudgetFromTotal(p.Budget)

	chunkEntries, err := assembleChunks(ctx, provider, projectRoot, p.Task, p.ChunkTopK, budgetAlloc.Chunks)
	if err != nil {
		return Frame{}, err
	}

	memoryEntries, err := assembleMemories(ctx, provider, projectRoot, p.Task, p.MemoryTopK, budgetAlloc.Memories)
	if err != nil {
		return Frame{}, err
	}

	task := tokenizer.TruncateToBudget(p.Task, budgetAlloc.TaskDefinition)

	currentState := p.CurrentState
	if currentState != "" {
		currentState = tokenizer.TruncateToBudget(currentState, budgetAlloc.CurrentState)
	}
	instructions := p.Instructions
	if instructions != "" {
		instructions = tokenizer.TruncateToBudget(instructions, budgetAlloc.Instructions)
	}

	frame := Frame{
		Task:               task,
		AcceptanceCriteria: p.AcceptanceCriteria,
		Chunks:             chunkEntries,
		Memories:           memoryEntries,
		CurrentState:       currentState,
		Instructions:       instructions,
		GeneratedAt:        time.Now().Format(time.RFC3339),
		BudgetTotal:        totalOrDefault(p.Budget),
	}

	frame.BudgetUsed = tokenizer.Count(frame.ToMarkdown())

	return frame, nil
}

// AssembleAndRender assembles a frame and renders it to markdown,
// additionally writing the result to outputPath when non-empty. The
// markdown is returned in both cases.
func AssembleAndRender(ctx context.Context, provider embed.Provider, projectRoot string, p Params, outputPath string) (string, error) {
	frame, err := Assemble(ctx, provider, projectRoot, p)
	if err != nil {
		return "", err
	}

	md := frame.ToMarkdown()

	if outputPath != "" {
		if err := os.WriteFile(outputPath, []byte(md), 0o644); err != nil {
			return "", fmt.Errorf("assembler: write %s: %w", outputPath, err)
		}
	}

	return md, nil
}

func totalOrDefault(budget int) int {
	if budget > 0 {
		return budget
	}
	return 0
}

func assembleChunks(ctx context.Context, provider embed.Provider, projectRoot, task string, topK, chunkBudget int) ([]ChunkEntry, error) {
	results, err := retriever.Retrieve(ctx, provider, projectRoot, task, retriever.Options{
		TopK: topK, Kind: retriever.KindChunks, IncludeContent: true,
	})
	if err != nil {
		if errors.Is(err, cortexerr.ErrIndexMissing) {
			return nil, nil
		}
		return nil, err
	}

	var entries []ChunkEntry
	chunksTokens := 0

	for _, r := range results {
		if r.Content == nil || *r.Content == "" {
			continue
		}
		content := *r.Content
		contentTokens := tokenizer.Count(content)

		if chunksTokens+contentTokens <= chunkBudget {
			entries = append(entries, ChunkEntry{ID: r.ID, Score: r.Score, Metadata: r.Metadata, Content: content})
			chunksTokens += contentTokens
			continue
		}

		remaining := chunkBudget - chunksTokens
		if remaining > 100 {
			entries = append(entries, ChunkEntry{
				ID: r.ID, Score: r.Score, Metadata: r.Metadata,
				Content: tokenizer.TruncateToBudget(content, remaining),
			})
		}
		break
	}

	return entries, nil
}

func assembleMemories(ctx context.Context, provider embed.Provider, projectRoot, task string, topK, memoryBudget int) ([]MemoryEntry, error) {
	results, err := retriever.Retrieve(ctx, provider, projectRoot, task, retriever.Options{
		TopK: topK, Kind: retriever.KindMemories, IncludeContent: false,
	})
	if err != nil {
		if errors.Is(err, cortexerr.ErrIndexMissing) {
			return nil, nil
		}
		return nil, err
	}

	var entries []MemoryEntry
	memoriesTokens := 0

	for _, r := range results {
		m, err := memory.Get(projectRoot, r.ID)
		if err != nil || m == nil || m.Learning == "" {
			continue
		}

		contentTokens := tokenizer.Count(m.Learning)
		if memoriesTokens+contentTokens > memoryBudget {
			continue
		}

		meta := r.Metadata
		if meta == nil {
			meta = map[string]any{}
		}
		meta["learning"] = m.Learning

		entries = append(entries, MemoryEntry{ID: r.ID, Metadata: meta, Learning: m.Learning})
		memoriesTokens += contentTokens

		if err := memory.IncrementRetrieval(ctx, provider, projectRoot, r.ID); err != nil {
			return nil, err
		}
	}

	return entries, nil
}

// ToMarkdown renders the frame per the fixed five-section layout: task
// (primacy), relevant knowledge, past learnings, current state, then
// instructions (recency).
func (f Frame) ToMarkdown() string {
	var lines []string

	titleFragment := f.Task
	if len(titleFragment) > 50 {
		titleFragment = titleFragment[:50]
	}
	lines = append(lines,
		fmt.Sprintf("<!-- CONTEXT FRAME: %s -->", titleFragment),
		fmt.Sprintf("<!-- Generated: %s -->", f.GeneratedAt),
		fmt.Sprintf("<!-- Budget: %d / Used: %d -->", f.BudgetTotal, f.BudgetUsed),
		"",
	)

	lines = append(lines, "## CRITICAL: Task Definition", "", fmt.Sprintf("**Task:** %s", f.Task), "")
	if len(f.AcceptanceCriteria) > 0 {
		lines = append(lines, "**Acceptance Criteria:**")
		for _, c := range f.AcceptanceCriteria {
			lines = append(lines, fmt.Sprintf("- %s", c))
		}
		lines = append(lines, "")
	}
	lines = append(lines, "---", "")

	if len(f.Chunks) > 0 {
		lines = append(lines, "## Relevant Knowledge", "")
		for _, c := range f.Chunks {
			section := metaStr(c.Metadata, "source_section", "Unknown")
			source := metaStr(c.Metadata, "source_doc", "")
			lines = append(lines,
				fmt.Sprintf("### %s (%s)", section, source),
				fmt.Sprintf("<!-- Relevance: %.2f -->", c.Score),
				"",
				c.Content,
				"",
			)
		}
		lines = append(lines, "---", "")
	}

	if len(f.Memories) > 0 {
		lines = append(lines, "## Past Learnings", "")
		for _, m := range f.Memories {
			confidence := metaStr(m.Metadata, "confidence", "unknown")
			domain := metaStr(m.Metadata, "domain", "")
			lines = append(lines, fmt.Sprintf("- **%s** (%s, %s): %s", m.ID, confidence, domain, m.Learning))
		}
		lines = append(lines, "", "---", "")
	}

	if f.CurrentState != "" {
		lines = append(lines, "## Current State", "", f.CurrentState, "", "---", "")
	}

	lines = append(lines, "## Instructions", "")
	if f.Instructions != "" {
		lines = append(lines, f.Instructions)
	} else {
		lines = append(lines, "Complete the task described above using the relevant knowledge and learnings provided.")
	}
	lines = append(lines, "")

	return strings.Join(lines, "\n")
}

func metaStr(meta map[string]any, key, def string) string {
	if v, ok := meta[key].(string); ok {
		return v
	}
	return def
}
