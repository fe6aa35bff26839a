package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTracker(t *testing.T) {
	tr := NewTracker()
	tr.Record("run", 10*time.Millisecond)
	tr.Record("run", 30*time.Millisecond)
	tr.Record("load", time.Millisecond)

	assert.Equal(t, 20*time.Millisecond, tr.Average("run"))
	assert.Equal(t, []string{"load", "run"}, tr.Operations())
	assert.Zero(t, tr.Average("export"))
	assert.Nil(t, tr.Timings("export"))
}

func TestTrackerKeepsRecentSamples(t *testing.T) {
	tr := NewTracker()
	for i := 1; i <= MaxSamples+10; i++ {
		tr.Record("run", time.Duration(i))
	}

	samples := tr.Timings("run")
	assert.Len(t, samples, MaxSamples)
	assert.Equal(t, time.Duration(11), samples[0])
	assert.Equal(t, time.Duration(MaxSamples+10), samples[len(samples)-1])
}

func TestTrackerStartEnd(t *testing.T) {
	tr := NewTracker()
	d := tr.End(tr.Start("export"))
	assert.GreaterOrEqual(t, d, time.Duration(0))
	assert.Len(t, tr.Timings("export"), 1)
}
