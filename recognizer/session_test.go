package recognizer

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/juruen/inkrec/config"
	"github.com/juruen/inkrec/failure"
	"github.com/juruen/inkrec/inference"
	"github.com/juruen/inkrec/raster"
	"github.com/juruen/inkrec/stroke"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inkEngine scores class 1 when the tensor has any dark pixel, class 0
// otherwise.
type inkEngine struct {
	mu      sync.Mutex
	opens   int
	openErr error
	runErr  error
	calls   int
	entered chan struct{}
	release chan struct{}
}

func (e *inkEngine) Open(string) (inference.Interpreter, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opens++
	if e.openErr != nil {
		return nil, e.openErr
	}
	return e, nil
}

func (e *inkEngine) Run(input []float32) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	first := e.calls == 1
	e.mu.Unlock()

	if first && e.entered != nil {
		close(e.entered)
		<-e.release
	}
	if e.runErr != nil {
		return nil, e.runErr
	}

	scores := make([]float32, 10)
	scores[0] = 1
	for _, v := range input {
		if v < 0.99 {
			scores[0], scores[1] = 0, 1
			break
		}
	}
	return scores, nil
}

func (e *inkEngine) Close() error { return nil }

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newSession(t *testing.T, engine inference.Engine) *Session {
	cfg := config.Default()
	cfg.Canvas.Width, cfg.Canvas.Height = 280, 280
	cfg.PicturesDir = filepath.Join(t.TempDir(), "Pictures")
	cfg.ModelPath = "math_recognition.tflite"
	cfg.Labels = []string{"blank", "ink"}

	opts := OptionsFromConfig(cfg, engine)
	opts.Now = (&clock{t: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)}).Now
	return NewSession(opts, cfg.StrokePen())
}

func TestRecognizeDrawing(t *testing.T) {
	engine := &inkEngine{}
	s := newSession(t, engine)
	assert.Equal(t, Idle, s.State())

	s.Recorder().Polyline(stroke.Point{X: 40, Y: 40}, stroke.Point{X: 240, Y: 240})
	r, err := s.Recognize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Recognized, s.State())
	assert.Equal(t, 1, r.Class)
	assert.Equal(t, "ink", r.Label)
	assert.Len(t, r.Scores, 10)
	assert.Equal(t, "Drawing_20240601_100001.png", filepath.Base(r.Path))
	assert.FileExists(t, r.Path)
	assert.Equal(t, "Recognized: ink [0, 1, 0, 0, 0, 0, 0, 0, 0, 0]", r.String())
}

func TestRecognizeBlankAndModelReuse(t *testing.T) {
	engine := &inkEngine{}
	s := newSession(t, engine)

	r, err := s.Recognize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "blank", r.Label)

	s.Sink().OnStrokeStart(stroke.Point{X: 100, Y: 100})
	s.Sink().OnStrokeExtend(stroke.Point{X: 30, Y: 0})
	r, err = s.Recognize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ink", r.Label)

	s.Clear()
	r, err = s.Recognize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "blank", r.Label)

	assert.Equal(t, 1, engine.opens, "model loaded once")
	assert.Equal(t, 3, engine.calls)
	require.NoError(t, s.Close())
}

func TestSave(t *testing.T) {
	s := newSession(t, &inkEngine{})
	s.Recorder().Polyline(stroke.Point{X: 10, Y: 10}, stroke.Point{X: 20, Y: 200})

	path, err := s.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Saved, s.State())

	img, err := raster.Decode(path)
	require.NoError(t, err)
	assert.Equal(t, 280, img.Bounds().Dx())
	assert.Equal(t, s.Render().Bounds(), img.Bounds())
}

func TestSaveFailed(t *testing.T) {
	s := newSession(t, &inkEngine{})
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0600))
	s.opts.PicturesDir = filepath.Join(blocker, "Pictures")

	_, err := s.Recognize(context.Background())
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.IO))
	assert.Equal(t, SaveFailed, s.State())
}

func TestModelLoadFailureIsRetriedOnNextAction(t *testing.T) {
	engine := &inkEngine{openErr: errors.New("asset missing")}
	s := newSession(t, engine)

	_, err := s.Recognize(context.Background())
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.ModelLoad))
	assert.Equal(t, RecognitionFailed, s.State())

	engine.mu.Lock()
	engine.openErr = nil
	engine.mu.Unlock()

	_, err = s.Recognize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, engine.opens)
}

func TestInferenceFailure(t *testing.T) {
	s := newSession(t, &inkEngine{runErr: errors.New("bad kernel")})
	_, err := s.Recognize(context.Background())
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.Inference))
	assert.Equal(t, RecognitionFailed, s.State())
}

func TestRecognizeAsync(t *testing.T) {
	s := newSession(t, &inkEngine{})
	s.Recorder().Polyline(stroke.Point{X: 0, Y: 0}, stroke.Point{X: 100, Y: 100})
	ch := s.RecognizeAsync(context.Background())

	// strokes added after dispatch are not part of this recognition
	s.Clear()

	out := <-ch
	require.NoError(t, out.Err)
	assert.Equal(t, "ink", out.Result.Label)
	_, open := <-ch
	assert.False(t, open)
}

func TestNewRecognizeCancelsInFlight(t *testing.T) {
	engine := &inkEngine{entered: make(chan struct{}), release: make(chan struct{})}
	s := newSession(t, engine)
	s.Recorder().Polyline(stroke.Point{X: 0, Y: 0}, stroke.Point{X: 100, Y: 100})

	first := s.RecognizeAsync(context.Background())
	<-engine.entered
	assert.Equal(t, Inferring, s.State())

	second := s.RecognizeAsync(context.Background())
	// the second action has cancelled the first once it holds the next seq
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.seq == 2
	}, time.Second, time.Millisecond)
	close(engine.release)

	out := <-first
	require.Error(t, out.Err)
	assert.True(t, errors.Is(out.Err, context.Canceled))
	assert.True(t, failure.Is(out.Err, failure.Inference))

	out = <-second
	require.NoError(t, out.Err)
	assert.Equal(t, "ink", out.Result.Label)
	assert.Equal(t, Recognized, s.State())
}

func TestCancelledSaveIsIOFailure(t *testing.T) {
	s := newSession(t, &inkEngine{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Save(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.True(t, failure.Is(err, failure.IO))
	assert.Equal(t, SaveFailed, s.State())

	_, err = s.Recognize(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, SaveFailed, s.State())
}

func TestRecognizeFiles(t *testing.T) {
	engine := &inkEngine{}
	s := newSession(t, engine)

	blank, err := s.Save(context.Background())
	require.NoError(t, err)
	s.Recorder().Polyline(stroke.Point{X: 50, Y: 50}, stroke.Point{X: 200, Y: 60})
	inked, err := s.Save(context.Background())
	require.NoError(t, err)
	missing := filepath.Join(t.TempDir(), "missing.png")

	results := s.RecognizeFiles(context.Background(), []string{inked, missing, blank, inked}, 2)
	require.Len(t, results, 4)

	assert.NoError(t, results[0].Err)
	assert.Equal(t, "ink", results[0].Label)
	assert.True(t, failure.Is(results[1].Err, failure.Decode))
	assert.Equal(t, missing, results[1].Path)
	assert.Equal(t, "blank", results[2].Label)
	assert.Equal(t, inked, results[3].Path)
	assert.Equal(t, 1, engine.opens)
}

func TestRecognizeFilesModelMissing(t *testing.T) {
	s := newSession(t, &inkEngine{openErr: errors.New("no model")})
	results := s.RecognizeFiles(context.Background(), []string{"a.png", "b.png"}, 3)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, failure.Is(r.Err, failure.ModelLoad))
	}
}

func TestStateNames(t *testing.T) {
	assert.Equal(t, "Result", Recognized.String())
	assert.Equal(t, "SaveFailed", SaveFailed.String())
	assert.True(t, RecognitionFailed.Terminal())
	assert.False(t, Saved.Terminal())
}
