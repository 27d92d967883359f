package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for frontmatter:
// - Parse handles quoted strings, JSON arrays, null, bool, int, negative float
// - Parse returns empty map for content with no "---" fence
// - Body returns everything after the second "---" fence, trimmed
// - Builder round-trips through Parse for every field type it emits

func TestParse_AllValueTypes(t *testing.T) {
	t.Parallel()

	content := `---
id: "CHK-AUTH-001-001"
tokens: 120
score: -0.125
keywords: ["auth", "login"]
last_retrieved: null
verified: true
stale: false
---

body text`

	fields := Parse(content)
	assert.Equal(t, "CHK-AUTH-001-001", fields["id"])
	assert.Equal(t, 120, fields["tokens"])
	assert.Equal(t, -0.125, fields["score"])
	assert.Equal(t, []any{"auth", "login"}, fields["keywords"])
	assert.Nil(t, fields["last_retrieved"])
	assert.Equal(t, true, fields["verified"])
	assert.Equal(t, false, fields["stale"])
}

func TestParse_NoFrontmatterFence(t *testing.T) {
	t.Parallel()

	fields := Parse("just a plain document\nwith no fences")
	assert.Empty(t, fields)
}

func TestBody_ReturnsContentAfterSecondFence(t *testing.T) {
	t.Parallel()

	content := "---\nid: \"X\"\n---\n\nthe actual body\n"
	assert.Equal(t, "the actual body", Body(content))
}

func TestBody_ReturnsTrimmedWholeContentWithoutFences(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "no fences here", Body("  no fences here  "))
}

func TestBuilder_RoundTrips(t *testing.T) {
	t.Parallel()

	doc := NewBuilder().
		Str("id", "MEM-2026-01-26-001").
		Int("retrieval_count", 3).
		StrArray("keywords", []string{"race", "condition"}).
		Null("source_session").
		Bool("verified", true).
		Build("## Learning\n\nbe careful")

	fields := Parse(doc)
	require.Equal(t, "MEM-2026-01-26-001", fields["id"])
	assert.Equal(t, 3, fields["retrieval_count"])
	assert.Equal(t, []any{"race", "condition"}, fields["keywords"])
	assert.Nil(t, fields["source_session"])
	assert.Equal(t, true, fields["verified"])
	assert.Contains(t, Body(doc), "be careful")
}
