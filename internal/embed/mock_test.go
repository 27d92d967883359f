package embed

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for MockProvider:
// - Embed is deterministic for the same text and mode.
// - Embed produces unit-norm vectors (within tolerance).
// - The same text embeds differently under EmbedModeQuery vs EmbedModePassage.
// - SetEmbedError/SetCloseError make Embed/Close return the configured error.
// - Close is observable via IsClosed.

func TestMockProvider_Deterministic(t *testing.T) {
	t.Parallel()

	p := NewMockProvider()
	a, err := p.Embed(context.Background(), []string{"hello world"}, EmbedModePassage)
	require.NoError(t, err)

	b, err := p.Embed(context.Background(), []string{"hello world"}, EmbedModePassage)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestMockProvider_UnitNorm(t *testing.T) {
	t.Parallel()

	p := NewMockProvider()
	vecs, err := p.Embed(context.Background(), []string{"some passage text"}, EmbedModePassage)
	require.NoError(t, err)
	require.Len(t, vecs, 1)

	var sumSq float64
	for _, v := range vecs[0] {
		sumSq += float64(v) * float64(v)
	}
	norm := math.Sqrt(sumSq)
	assert.InDelta(t, 1.0, norm, 1e-4)
}

func TestMockProvider_QueryAndPassageDiffer(t *testing.T) {
	t.Parallel()

	p := NewMockProvider()
	q, err := p.Embed(context.Background(), []string{"same text"}, EmbedModeQuery)
	require.NoError(t, err)
	passage, err := p.Embed(context.Background(), []string{"same text"}, EmbedModePassage)
	require.NoError(t, err)

	assert.NotEqual(t, q[0], passage[0])
}

func TestMockProvider_EmbedError(t *testing.T) {
	t.Parallel()

	p := NewMockProvider()
	sentinel := errors.New("boom")
	p.SetEmbedError(sentinel)

	_, err := p.Embed(context.Background(), []string{"x"}, EmbedModePassage)
	assert.ErrorIs(t, err, sentinel)
}

func TestMockProvider_Close(t *testing.T) {
	t.Parallel()

	p := NewMockProvider()
	assert.False(t, p.IsClosed())
	require.NoError(t, p.Close())
	assert.True(t, p.IsClosed())
}
