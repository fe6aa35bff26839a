package gui

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"colony-counter/internal/models"
	"colony-counter/internal/pipeline"
	"colony-counter/internal/services"
	"colony-counter/internal/testutil"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController(t *testing.T) (*Controller, *View, string) {
	t.Helper()
	test.NewApp()

	out := t.TempDir()
	session, err := services.NewSession(services.Options{
		OutputDir:  out,
		Parameters: models.DefaultParameters(),
	})
	require.NoError(t, err)
	t.Cleanup(session.Shutdown)

	w := test.NewWindow(nil)
	t.Cleanup(w.Close)

	view := NewView(w, session.Parameters(), 400)
	c := NewController(session, nil, 400)
	t.Cleanup(c.Shutdown)
	c.async = func(f func()) { f() }
	c.SetView(view)
	w.SetContent(view.GetMainContainer())

	return c, view, out
}

func TestLoadShowsOriginalStage(t *testing.T) {
	c, view, _ := newTestController(t)
	assert.True(t, view.toolbar.NextButton().Disabled())

	c.LoadPath(testutil.FivePlate().WritePNG(t, t.TempDir(), "plate.png"))

	assert.Equal(t, pipeline.OriginalLabel, view.stageDisplay.Label())
	assert.Equal(t, "Objects: 5", view.toolbar.Count())
	assert.False(t, view.toolbar.NextButton().Disabled())

	img := view.stageDisplay.Image()
	require.NotNil(t, img)
	assert.LessOrEqual(t, img.Bounds().Dx(), 400)
	assert.LessOrEqual(t, img.Bounds().Dy(), 400)
}

func TestNextStageWalksGallery(t *testing.T) {
	c, view, _ := newTestController(t)
	c.LoadPath(testutil.FivePlate().WritePNG(t, t.TempDir(), "plate.png"))

	for i := 1; i < pipeline.StageCount; i++ {
		test.Tap(view.toolbar.NextButton())
	}
	assert.Equal(t, "Detected Contours - Objects: 5", view.stageDisplay.Label())
	assert.True(t, view.toolbar.NextButton().Disabled())

	c.NextStage()
	assert.Equal(t, "Detected Contours - Objects: 5", view.stageDisplay.Label())
	assert.Equal(t, "Last stage reached", view.toolbar.Status())

	test.Tap(view.toolbar.FirstButton())
	assert.Equal(t, pipeline.OriginalLabel, view.stageDisplay.Label())
}

func TestFailedLoadKeepsButtonsDisabled(t *testing.T) {
	c, view, _ := newTestController(t)

	c.LoadPath(filepath.Join(t.TempDir(), "missing.png"))

	assert.Equal(t, "Failed", view.toolbar.Status())
	assert.True(t, view.toolbar.ExportButton().Disabled())
	assert.Equal(t, "Objects: --", view.toolbar.Count())
}

func TestUpdateParameterRecomputes(t *testing.T) {
	c, view, _ := newTestController(t)
	c.LoadPath(testutil.FivePlate().WritePNG(t, t.TempDir(), "plate.png"))

	c.UpdateParameter(models.FieldIterations, 3)

	assert.Equal(t, 3, c.session.Parameters().Iterations)
	assert.Equal(t, float64(3), view.parameterPanel.Slider(models.FieldIterations).Value)
	assert.Equal(t, pipeline.OriginalLabel, view.stageDisplay.Label())

	st, ok := c.session.Gallery().At(4)
	require.True(t, ok)
	assert.Equal(t, "Morphology (Kernel: 2, Iterations: 3)", st.Label)
}

func TestUpdateParameterWithoutImage(t *testing.T) {
	c, view, _ := newTestController(t)

	c.UpdateParameter(models.FieldBlur, 10)

	assert.Equal(t, 11, c.session.Parameters().Blur)
	assert.Equal(t, float64(11), view.parameterPanel.Slider(models.FieldBlur).Value)
}

func TestExportWritesFile(t *testing.T) {
	c, view, out := newTestController(t)
	c.LoadPath(testutil.FivePlate().WritePNG(t, t.TempDir(), "plate.png"))

	test.Tap(view.toolbar.ExportButton())

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Regexp(t, `^output_final_\d{8}_\d{6}\.jpg$`, entries[0].Name())
}

func TestWorkerRunsJobsInOrder(t *testing.T) {
	c := NewController(nil, nil, 400)
	t.Cleanup(c.Shutdown)

	var got []int
	finished := make(chan struct{})
	for i := 0; i < 5; i++ {
		c.enqueue(func() {
			time.Sleep(time.Duration(5-i) * time.Millisecond)
			got = append(got, i)
		})
	}
	c.enqueue(func() { close(finished) })

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not drain the queue")
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestShutdownDropsLaterJobs(t *testing.T) {
	c := NewController(nil, nil, 400)
	c.Shutdown()
	c.Shutdown()

	ran := false
	c.enqueue(func() { ran = true })
	assert.False(t, ran)
}

func TestFileFilterMatchesLoader(t *testing.T) {
	assert.NotContains(t, imageExtensions, ".gif")
	for _, ext := range []string{".png", ".jpg", ".tiff", ".webp", ".bmp"} {
		assert.Contains(t, imageExtensions, ext)
	}
}
