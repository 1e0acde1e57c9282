// Package recognizer ties the stroke list, rasterizer, preprocessor and
// model together behind the Save, Clear and Recognize actions.
package recognizer

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/juruen/inkrec/config"
	"github.com/juruen/inkrec/failure"
	"github.com/juruen/inkrec/inference"
	"github.com/juruen/inkrec/log"
	"github.com/juruen/inkrec/preprocess"
	"github.com/juruen/inkrec/raster"
	"github.com/juruen/inkrec/stroke"
)

type Options struct {
	Raster      raster.Options
	Preprocess  preprocess.Options
	PicturesDir string
	ModelPath   string
	Classes     int
	Labels      []string
	Engine      inference.Engine
	// Now stamps saved file names. Defaults to time.Now.
	Now func() time.Time
}

// OptionsFromConfig maps a loaded config onto session options.
func OptionsFromConfig(cfg config.Config, engine inference.Engine) Options {
	return Options{
		Raster:      cfg.RasterOptions(),
		Preprocess:  cfg.PreprocessOptions(),
		PicturesDir: cfg.PicturesDir,
		ModelPath:   cfg.ModelPath,
		Classes:     cfg.Classes,
		Labels:      cfg.Labels,
		Engine:      engine,
	}
}

// Result is what a successful recognition hands back for display.
type Result struct {
	Path   string
	Scores inference.ScoreVector
	Class  int
	Label  string
}

func (r Result) String() string {
	return fmt.Sprintf("Recognized: %s %s", r.Label, r.Scores)
}

// Outcome carries a Recognize result across goroutines.
type Outcome struct {
	Result Result
	Err    error
}

// Session owns the strokes of one drawing and the model used to classify
// them.
type Session struct {
	id       string
	opts     Options
	strokes  *stroke.List
	recorder *stroke.Recorder

	mu     sync.Mutex
	state  State
	seq    uint64
	cancel context.CancelFunc

	modelMu sync.Mutex
	model   *inference.Model
}

func NewSession(opts Options, pen stroke.Pen) *Session {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	list := stroke.NewList()
	return &Session{
		id:       uuid.New().String(),
		opts:     opts,
		strokes:  list,
		recorder: stroke.NewRecorder(list, pen),
	}
}

func (s *Session) ID() string { return s.id }

// Sink is where a drawing surface delivers drag events.
func (s *Session) Sink() stroke.Sink { return s.recorder }

func (s *Session) Recorder() *stroke.Recorder { return s.recorder }

func (s *Session) Strokes() *stroke.List { return s.strokes }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Clear() {
	s.strokes.Clear()
	log.Trace.Printf("session %s: cleared", s.id)
}

// Render draws the current strokes without saving them.
func (s *Session) Render() *image.RGBA {
	return raster.Render(s.strokes.Snapshot(), s.opts.Raster)
}

// Save renders the current strokes and writes them to the pictures
// directory. It cancels any recognition still in flight.
func (s *Session) Save(ctx context.Context) (string, error) {
	ctx, seq, done := s.begin(ctx)
	defer done()
	return s.save(ctx, seq, s.strokes.Snapshot())
}

// Recognize saves the current strokes and classifies the saved file. A
// later Save or Recognize cancels this one.
func (s *Session) Recognize(ctx context.Context) (Result, error) {
	return s.recognize(ctx, s.strokes.Snapshot())
}

// RecognizeAsync snapshots the strokes on the caller's goroutine and runs
// the recognition in the background.
func (s *Session) RecognizeAsync(ctx context.Context) <-chan Outcome {
	segs := s.strokes.Snapshot()
	ch := make(chan Outcome, 1)
	go func() {
		defer close(ch)
		r, err := s.recognize(ctx, segs)
		ch <- Outcome{Result: r, Err: err}
	}()
	return ch
}

func (s *Session) recognize(ctx context.Context, segs []stroke.Segment) (Result, error) {
	ctx, seq, done := s.begin(ctx)
	defer done()

	path, err := s.save(ctx, seq, segs)
	if err != nil {
		return Result{}, err
	}

	r, err := s.classify(ctx, seq, path)
	if err != nil {
		s.setState(seq, RecognitionFailed)
		return Result{}, err
	}
	s.setState(seq, Recognized)
	log.Trace.Printf("session %s: %s", s.id, r)
	return r, nil
}

func (s *Session) save(ctx context.Context, seq uint64, segs []stroke.Segment) (string, error) {
	s.setState(seq, Saving)

	img := raster.Render(segs, s.opts.Raster)
	if err := ctx.Err(); err != nil {
		s.setState(seq, SaveFailed)
		return "", failure.New(failure.IO, err, "save cancelled")
	}

	path, err := raster.Persist(img, s.opts.PicturesDir, s.opts.Now())
	if err != nil {
		s.setState(seq, SaveFailed)
		return "", err
	}
	s.setState(seq, Saved)
	return path, nil
}

func (s *Session) classify(ctx context.Context, seq uint64, path string) (Result, error) {
	s.setState(seq, Preprocessing)
	if err := ctx.Err(); err != nil {
		return Result{}, failure.New(failure.Inference, err, "recognition cancelled")
	}
	tensor, err := preprocess.Transform(path, s.opts.Preprocess)
	if err != nil {
		return Result{}, err
	}

	m, err := s.Model()
	if err != nil {
		return Result{}, err
	}

	s.setState(seq, Inferring)
	scores, err := m.Infer(ctx, tensor)
	if err != nil {
		return Result{}, err
	}
	return s.result(path, scores), nil
}

func (s *Session) result(path string, scores inference.ScoreVector) Result {
	class, _ := scores.Best()
	label := ""
	if class >= 0 {
		label = fmt.Sprint(class)
		if class < len(s.opts.Labels) {
			label = s.opts.Labels[class]
		}
	}
	return Result{Path: path, Scores: scores, Class: class, Label: label}
}

// Model returns the loaded model, loading it on first use. A failed load
// is not cached, so the next action tries again.
func (s *Session) Model() (*inference.Model, error) {
	s.modelMu.Lock()
	defer s.modelMu.Unlock()
	if s.model != nil {
		return s.model, nil
	}
	m, err := inference.Load(s.opts.Engine, s.opts.ModelPath, s.opts.Classes)
	if err != nil {
		log.Error.Printf("session %s: %v", s.id, err)
		return nil, err
	}
	s.model = m
	return m, nil
}

// Close releases the model.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	s.modelMu.Lock()
	defer s.modelMu.Unlock()
	if s.model == nil {
		return nil
	}
	err := s.model.Close()
	s.model = nil
	return err
}

// begin starts a new action, cancelling the previous one.
func (s *Session) begin(parent context.Context) (context.Context, uint64, func()) {
	ctx, cancel := context.WithCancel(parent)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	seq := s.seq
	s.cancel = cancel
	s.mu.Unlock()

	return ctx, seq, func() {
		s.mu.Lock()
		if s.seq == seq {
			s.cancel = nil
		}
		s.mu.Unlock()
		cancel()
	}
}

// setState records st unless a newer action has started since seq.
func (s *Session) setState(seq uint64, st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return
	}
	s.state = st
	log.Trace.Printf("session %s: %s", s.id, st)
}
