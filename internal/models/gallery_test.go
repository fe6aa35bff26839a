package models

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labeledStages(n int) []Stage {
	stages := make([]Stage, n)
	for i := range stages {
		stages[i] = Stage{Label: fmt.Sprintf("stage %d", i)}
	}
	return stages
}

func TestGalleryAdvance(t *testing.T) {
	g := NewGallery(labeledStages(6))

	cur, err := g.Current()
	require.NoError(t, err)
	assert.Equal(t, "stage 0", cur.Label)

	for i := 1; i <= 5; i++ {
		st, err := g.Advance()
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("stage %d", i), st.Label)
	}
	assert.Equal(t, 5, g.Index())

	st, err := g.Advance()
	assert.ErrorIs(t, err, ErrGalleryExhausted)
	assert.Equal(t, "stage 5", st.Label)
	assert.Equal(t, 5, g.Index())
}

func TestGalleryReset(t *testing.T) {
	g := NewGallery(labeledStages(3))
	_, _ = g.Advance()
	_, _ = g.Advance()
	g.Reset()
	assert.Equal(t, 0, g.Index())
}

func TestEmptyGallery(t *testing.T) {
	g := NewGallery(nil)

	_, err := g.Current()
	assert.ErrorIs(t, err, ErrGalleryExhausted)

	_, err = g.Advance()
	assert.ErrorIs(t, err, ErrGalleryExhausted)

	_, ok := g.At(0)
	assert.False(t, ok)
}

func TestGalleryOwnsStageList(t *testing.T) {
	stages := labeledStages(2)
	g := NewGallery(stages)
	stages[0].Label = "changed"

	first, ok := g.At(0)
	require.True(t, ok)
	assert.Equal(t, "stage 0", first.Label)

	last, ok := g.At(g.Len() - 1)
	require.True(t, ok)
	assert.Equal(t, "stage 1", last.Label)
}
