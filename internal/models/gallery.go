package models

import (
	"sync"

	"colony-counter/internal/opencv/safe"
)

// Stage is one labeled image produced by one pipeline step. The image is
// three-channel BGR and is never written after the stage is created.
type Stage struct {
	Label string
	Image *safe.Mat
}

// Gallery is the ordered set of stages from one pipeline run plus a browsing
// cursor. The stage list is fixed at construction; only the cursor moves.
// Browsing is forward-only; Reset rewinds to the first stage.
type Gallery struct {
	stages []Stage

	mu     sync.Mutex
	cursor int
}

// NewGallery takes ownership of stages. The cursor starts at 0.
func NewGallery(stages []Stage) *Gallery {
	owned := make([]Stage, len(stages))
	copy(owned, stages)
	return &Gallery{stages: owned}
}

func (g *Gallery) Len() int {
	return len(g.stages)
}

func (g *Gallery) Index() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cursor
}

// At returns the stage at index i.
func (g *Gallery) At(i int) (Stage, bool) {
	if i < 0 || i >= len(g.stages) {
		return Stage{}, false
	}
	return g.stages[i], true
}

// Current returns the stage under the cursor.
func (g *Gallery) Current() (Stage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.stages) == 0 {
		return Stage{}, ErrGalleryExhausted
	}
	return g.stages[g.cursor], nil
}

// Advance moves the cursor one stage forward and returns the new current
// stage. On the last stage the cursor stays put and ErrGalleryExhausted is
// returned together with that last stage.
func (g *Gallery) Advance() (Stage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.stages) == 0 {
		return Stage{}, ErrGalleryExhausted
	}
	if g.cursor >= len(g.stages)-1 {
		return g.stages[g.cursor], ErrGalleryExhausted
	}

	g.cursor++
	return g.stages[g.cursor], nil
}

// Reset rewinds the cursor to the first stage.
func (g *Gallery) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cursor = 0
}
