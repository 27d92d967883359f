package keywords

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Test Plan for keywords.Extract:
// - strips fenced code blocks, inline code, and markdown link syntax
// - filters stopwords
// - ranks by frequency, most frequent first
// - caps output at maxKeywords

func TestExtract_StripsCodeAndMarkdown(t *testing.T) {
	t.Parallel()

	text := "# Auth Flow\n\nUse the [login guide](https://example.com) and run `login()`.\n\n```go\nfunc login() {}\n```\n\nauthentication authentication session"
	got := Extract(text, 10)

	assert.Contains(t, got, "authentication")
	assert.Contains(t, got, "session")
	assert.NotContains(t, got, "func")
	assert.NotContains(t, got, "example")
}

func TestExtract_FiltersStopwords(t *testing.T) {
	t.Parallel()

	got := Extract("the and for are but not you all can had", 10)
	assert.Empty(t, got)
}

func TestExtract_RanksByFrequency(t *testing.T) {
	t.Parallel()

	got := Extract("database database database cache cache timeout", 10)
	assert.Equal(t, "database", got[0])
	assert.Equal(t, "cache", got[1])
	assert.Equal(t, "timeout", got[2])
}

func TestExtract_CapsAtMaxKeywords(t *testing.T) {
	t.Parallel()

	got := Extract("alpha bravo charlie delta echo foxtrot golf hotel india juliet kilo", 5)
	assert.Len(t, got, 5)
}
