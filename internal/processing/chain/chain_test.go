package chain

import (
	"context"
	"errors"
	"testing"

	"colony-counter/internal/models"
	"colony-counter/internal/opencv/safe"
	"colony-counter/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cloneStep struct {
	name string
	fail bool
	seen []*safe.Mat
}

func (c *cloneStep) Name() string                     { return c.name }
func (c *cloneStep) Label(models.ParameterSet) string { return "label " + c.name }

func (c *cloneStep) Apply(_ context.Context, input *safe.Mat, _ models.ParameterSet) (*safe.Mat, error) {
	if c.fail {
		return nil, errors.New("boom")
	}
	out, err := input.Clone()
	if err == nil {
		c.seen = append(c.seen, out)
	}
	return out, err
}

func TestExecuteRecordsEveryStep(t *testing.T) {
	a, b := &cloneStep{name: "a"}, &cloneStep{name: "b"}
	pc := NewProcessingChain([]ProcessingStep{a, b})

	input := testutil.Uniform(t, 2, 2, 1, 5)
	results, err := pc.Execute(context.Background(), input, models.DefaultParameters())
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "a", results[0].Name)
	assert.Equal(t, "label a", results[0].Label)
	assert.Equal(t, "b", results[1].Name)
	for _, r := range results {
		assert.True(t, r.Mat.IsValid())
		r.Mat.Close()
	}
}

func TestExecuteFailureReleasesPartialResults(t *testing.T) {
	a := &cloneStep{name: "a"}
	pc := NewProcessingChain([]ProcessingStep{a, &cloneStep{name: "broken", fail: true}})

	input := testutil.Uniform(t, 2, 2, 1, 5)
	results, err := pc.Execute(context.Background(), input, models.DefaultParameters())
	require.Error(t, err)
	assert.Nil(t, results)
	assert.Contains(t, err.Error(), "step broken failed")

	require.Len(t, a.seen, 1)
	assert.False(t, a.seen[0].IsValid())
	assert.True(t, input.IsValid())
}

func TestExecuteHonorsCancelledContext(t *testing.T) {
	pc := NewProcessingChain([]ProcessingStep{&cloneStep{name: "a"}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pc.Execute(ctx, testutil.Uniform(t, 1, 1, 1, 0), models.DefaultParameters())
	assert.ErrorIs(t, err, context.Canceled)
}
