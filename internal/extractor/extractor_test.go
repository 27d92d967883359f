package extractor

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortexlabs/cortex/internal/embed"
)

// Test Plan for extractor:
// - DetectDomain picks the domain with the most keyword hits, GENERAL if none
// - CleanExtractedText collapses whitespace, trims punctuation, capitalizes
// - Extract surfaces a high-confidence verified-fix pattern with its trigger
// - Extract deduplicates identical learnings across overlapping patterns
// - Extract respects minConfidence, excluding lower tiers
// - Extract's result is sorted with high confidence first
// - Save creates memories for the given 1-based indices and skips out-of-range ones

func newMockProvider(t *testing.T) embed.Provider {
	t.Helper()
	p, err := embed.NewProvider(embed.Config{Provider: "mock", Dimensions: 384})
	require.NoError(t, err)
	return p
}

func TestDetectDomain_PicksHighestScoringDomain(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "AUTH", DetectDomain("the login session expired because the token was invalid"))
	assert.Equal(t, "GENERAL", DetectDomain("the weather is nice today"))
}

func TestCleanExtractedText_NormalizesWhitespaceAndCase(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Using a retry loop", CleanExtractedText("  using   a retry loop.  "))
}

func TestExtract_SurfacesVerifiedFix(t *testing.T) {
	t.Parallel()

	text := "The login page was broken. Fixed by using a fresh session token instead of the cached one."
	proposed := Extract(text, "low")

	var found *Proposed
	for i := range proposed {
		if proposed[i].Trigger == "verified_fix" {
			found = &proposed[i]
			break
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, "high", found.Confidence)
	assert.Equal(t, "experiential", found.Type)
	assert.Contains(t, strings.ToLower(found.Learning), "session token")
}

func TestExtract_DeduplicatesRepeatedLearnings(t *testing.T) {
	t.Parallel()

	text := "Remember: always validate input. Remember: always validate input."
	proposed := Extract(text, "low")

	count := 0
	for _, p := range proposed {
		if strings.Contains(strings.ToLower(p.Learning), "always validate input") {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestExtract_RespectsMinConfidence(t *testing.T) {
	t.Parallel()

	text := "The config file uses JSON for its schema."
	low := Extract(text, "low")
	high := Extract(text, "high")

	assert.NotEmpty(t, low)
	for _, p := range high {
		assert.Equal(t, "high", p.Confidence)
	}
}

func TestExtract_SortedByDescendingConfidence(t *testing.T) {
	t.Parallel()

	text := "Fixed by restarting the worker. The config file uses JSON for its schema. Always close the connection when done."
	proposed := Extract(text, "low")
	require.NotEmpty(t, proposed)

	for i := 1; i < len(proposed); i++ {
		assert.GreaterOrEqual(t, confidenceOrder[proposed[i-1].Confidence], confidenceOrder[proposed[i].Confidence])
	}
}

func TestExtract_MatchesLineEndingWithoutTerminalPunctuation(t *testing.T) {
	t.Parallel()

	text := "note: use the new flag\nAlso check logs."
	proposed := Extract(text, "low")

	var found *Proposed
	for i := range proposed {
		if proposed[i].Trigger == "explicit_remember" {
			found = &proposed[i]
			break
		}
	}
	require.NotNil(t, found, "explicit_remember should match mid-text lines, not just the final line")
	assert.Contains(t, strings.ToLower(found.Learning), "use the new flag")
}

func TestSave_CreatesSelectedIndicesOnly(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	provider := newMockProvider(t)

	proposed := []Proposed{
		{Learning: "Session tokens expire after 30 minutes", Context: "auth discussion", Type: "factual", Confidence: "high", Domain: "AUTH", Trigger: "verified_fix"},
		{Learning: "The build pipeline needs a cache warmup step", Context: "ci discussion", Type: "procedural", Confidence: "medium", Domain: "DEV", Trigger: "rule"},
	}

	ids, err := Save(context.Background(), provider, root, proposed, []int{1, 5}, "")
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}
