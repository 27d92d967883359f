// Package extractor mines free-form text (typically a session transcript)
// for candidate memories using a fixed, confidence-tiered set of
// pattern rules, leaving the decision of which to actually save to the
// caller.
package extractor

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/cortexlabs/cortex/internal/embed"
	"github.com/cortexlabs/cortex/internal/memory"
)

// Proposed is a candidate memory surfaced from text, not yet saved.
type Proposed struct {
	Learning   string
	Context    string
	Type       string // factual, experiential, procedural
	Confidence string // high, medium, low
	Domain     string
	Trigger    string
	SourceText string
}

type extractionPattern struct {
	re         *regexp.Regexp
	memType    string
	confidence string
	trigger    string
}

// Patterns are tried in this fixed order: verified fixes and explicit
// notes first (high confidence), then discoveries and requirements
// (medium), then generic factual statements (low).
var extractionPatterns = []extractionPattern{
	{regexp.MustCompile(`(?im)(?:fixed|solved|resolved)\s+(?:by|with|using)\s+(.+?)(?:\.|$)`), "experiential", "high", "verified_fix"},
	{regexp.MustCompile(`(?im)the\s+(?:issue|problem|bug)\s+was\s+(.+?)(?:\.|$)`), "experiential", "high", "issue_resolution"},
	{regexp.MustCompile(`(?im)(?:remember|note|important):\s*(.+?)(?:\.|$)`), "experiential", "high", "explicit_remember"},

	{regexp.MustCompile(`(?im)(?:found|discovered|learned)\s+that\s+(.+?)(?:\.|$)`), "experiential", "medium", "discovery"},
	{regexp.MustCompile(`(?im)(?:turns out|it appears|apparently)\s+(.+?)(?:\.|$)`), "experiential", "medium", "realization"},
	{regexp.MustCompile(`(?im)(?:this|that)\s+(?:requires?|needs?)\s+(.+?)(?:\.|$)`), "factual", "medium", "requirement"},

	{regexp.MustCompile(`(?im)(?:always|never|must|should)\s+(.+?)(?:\.|$)`), "procedural", "medium", "rule"},
	{regexp.MustCompile(`(?im)(?:to|in order to)\s+(.+?),?\s+(?:you need to|we need to|must)\s+(.+?)(?:\.|$)`), "procedural", "medium", "procedure"},
	{regexp.MustCompile(`(?im)(?:before|after)\s+(.+?),?\s+(?:make sure|ensure|verify)\s+(.+?)(?:\.|$)`), "procedural", "medium", "sequence"},

	{regexp.MustCompile(`(?im)(.+?)\s+(?:uses?|expects?|requires?)\s+(.+?)(?:\.|$)`), "factual", "low", "fact"},
	{regexp.MustCompile(`(?im)(.+?)\s+is\s+(?:located|stored|found)\s+(?:in|at)\s+(.+?)(?:\.|$)`), "factual", "low", "location"},
}

var domainPatterns = map[string]*regexp.Regexp{
	"AUTH": regexp.MustCompile(`(?i)\b(?:auth|login|logout|session|token|password|credential|oauth|jwt)\b`),
	"UI":   regexp.MustCompile(`(?i)\b(?:component|button|form|input|modal|dialog|ui|ux|style|css|layout)\b`),
	"API":  regexp.MustCompile(`(?i)\b(?:api|endpoint|request|response|rest|graphql|fetch|axios)\b`),
	"DB":   regexp.MustCompile(`(?i)\b(?:database|query|sql|mongodb|postgres|mysql|schema|migration)\b`),
	"TEST": regexp.MustCompile(`(?i)\b(?:test|spec|jest|pytest|unittest|mock|fixture|assert)\b`),
	"DEV":  regexp.MustCompile(`(?i)\b(?:build|deploy|ci|cd|docker|kubernetes|git|npm|pip)\b`),
}

// domainOrder fixes iteration order for tie-breaking: the first domain
// reaching the maximum match count wins, matching dict-insertion-order
// iteration in the original.
var domainOrder = []string{"AUTH", "UI", "API", "DB", "TEST", "DEV"}

// DetectDomain returns the domain whose keyword pattern matches text
// most often, or GENERAL if none match.
func DetectDomain(text string) string {
	best := "GENERAL"
	bestCount := 0

	for _, domain := range domainOrder {
		count := len(domainPatterns[domain].FindAllString(text, -1))
		if count > bestCount {
			bestCount = count
			best = domain
		}
	}

	return best
}

// CleanExtractedText collapses whitespace, trims surrounding
// punctuation, and capitalizes the first letter.
func CleanExtractedText(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	text = strings.Trim(text, ".,;:!? ")
	if text == "" {
		return text
	}
	return strings.ToUpper(text[:1]) + text[1:]
}

var confidenceOrder = map[string]int{"low": 0, "medium": 1, "high": 2}

var sentenceBoundaryRe = regexp.MustCompile(`[.!?]\s+`)

func splitSentences(text string) []string {
	locs := sentenceBoundaryRe.FindAllStringIndex(text, -1)
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

// sentenceContaining finds the sentence enclosing byte offset pos (plus
// its immediate neighbors) by walking sentences in order and tracking
// cumulative offsets, mirroring the original's linear scan via
// text.find(sent, char_count).
func sentenceContaining(text string, sentences []string, pos int) string {
	charCount := 0
	for i, sent := range sentences {
		idx := strings.Index(text[charCount:], sent)
		if idx == -1 {
			continue
		}
		sentStart := charCount + idx
		sentEnd := sentStart + len(sent)

		if sentStart <= pos && pos <= sentEnd {
			var parts []string
			if i > 0 {
				parts = append(parts, sentences[i-1])
			}
			parts = append(parts, sent)
			if i < len(sentences)-1 {
				parts = append(parts, sentences[i+1])
			}
			return strings.Join(parts, " ")
		}
		charCount = sentEnd
	}
	return ""
}

// Extract scans text for candidate memories at or above minConfidence
// ("low", "medium", or "high"), deduplicating by normalized learning
// text and sorting the result by descending confidence.
func Extract(text string, minConfidence string) []Proposed {
	minIdx, ok := confidenceOrder[minConfidence]
	if !ok {
		minIdx = confidenceOrder["low"]
	}

	sentences := splitSentences(text)
	seen := map[string]bool{}
	var proposed []Proposed

	for _, p := range extractionPatterns {
		if confidenceOrder[p.confidence] < minIdx {
			continue
		}

		matches := p.re.FindAllStringSubmatchIndex(text, -1)
		for _, m := range matches {
			fullStart, fullEnd := m[0], m[1]
			numGroups := len(m)/2 - 1

			var learning string
			switch numGroups {
			case 1:
				learning = CleanExtractedText(submatch(text, m, 1))
			case 2:
				learning = CleanExtractedText(submatch(text, m, 1) + " - " + submatch(text, m, 2))
			default:
				learning = CleanExtractedText(text[fullStart:fullEnd])
			}

			if len(learning) < 10 || seen[strings.ToLower(learning)] {
				continue
			}
			seen[strings.ToLower(learning)] = true

			context := sentenceContaining(text, sentences, fullStart)
			if len(context) > 500 {
				context = context[:500]
			}

			sourceText := text[fullStart:fullEnd]
			if len(sourceText) > 200 {
				sourceText = sourceText[:200]
			}

			domain := DetectDomain(learning + " " + context)

			proposed = append(proposed, Proposed{
				Learning:   learning,
				Context:    context,
				Type:       p.memType,
				Confidence: p.confidence,
				Domain:     domain,
				Trigger:    p.trigger,
				SourceText: sourceText,
			})
		}
	}

	sort.SliceStable(proposed, func(i, j int) bool {
		return confidenceOrder[proposed[i].Confidence] > confidenceOrder[proposed[j].Confidence]
	})

	return proposed
}

func submatch(text string, m []int, group int) string {
	start, end := m[2*group], m[2*group+1]
	if start < 0 || end < 0 {
		return ""
	}
	return text[start:end]
}

var confidenceIcon = map[string]string{"high": "[H]", "medium": "[M]", "low": "[L]"}
var typeIcon = map[string]string{"factual": "F", "experiential": "E", "procedural": "P"}

// FormatForDisplay renders proposed memories as a numbered, human-readable
// list; the extract command prints it when --auto-save is not set.
func FormatForDisplay(proposed []Proposed) string {
	if len(proposed) == 0 {
		return "No potential memories detected."
	}

	var sb strings.Builder
	sb.WriteString("Found ")
	sb.WriteString(strconv.Itoa(len(proposed)))
	sb.WriteString(" potential memories:\n\n")

	for i, p := range proposed {
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteString(". ")
		sb.WriteString(confidenceIcon[p.Confidence])
		sb.WriteString(" [")
		sb.WriteString(typeIcon[p.Type])
		sb.WriteString("] ")
		sb.WriteString(p.Domain)
		sb.WriteString("\n   Learning: ")
		sb.WriteString(p.Learning)
		sb.WriteString("\n")
		if p.Context != "" {
			preview := p.Context
			if len(preview) > 100 {
				preview = preview[:100] + "..."
			}
			sb.WriteString("   Context: ")
			sb.WriteString(preview)
			sb.WriteString("\n")
		}
		sb.WriteString("   Trigger: ")
		sb.WriteString(p.Trigger)
		sb.WriteString("\n\n")
	}

	return sb.String()
}

// Save persists the proposed memories at the given 1-based indices,
// defaulting sourceSession to a freshly generated id when empty (the
// --auto-save path, where no interactive session identifier exists).
func Save(ctx context.Context, provider embed.Provider, projectRoot string, proposed []Proposed, indices []int, sourceSession string) ([]string, error) {
	if sourceSession == "" {
		sourceSession = uuid.NewString()
	}
	session := sourceSession

	var createdIDs []string
	for _, idx := range indices {
		if idx < 1 || idx > len(proposed) {
			continue
		}
		p := proposed[idx-1]

		m, err := memory.Create(ctx, provider, projectRoot, memory.CreateParams{
			Learning:      p.Learning,
			Context:       p.Context,
			Type:          p.Type,
			Domain:        p.Domain,
			Confidence:    p.Confidence,
			SourceSession: &session,
			Trigger:       &p.Trigger,
		})
		if err != nil {
			return createdIDs, err
		}
		createdIDs = append(createdIDs, m.ID)
	}

	return createdIDs, nil
}
