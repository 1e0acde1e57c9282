// Package inference runs a packaged, pre-trained classifier over a
// preprocessed tensor. The engine that executes the model is pluggable.
package inference

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/juruen/inkrec/failure"
	"github.com/juruen/inkrec/log"
	"github.com/pkg/errors"
)

const DefaultClasses = 10

// Engine opens a model artifact.
type Engine interface {
	Open(artifact string) (Interpreter, error)
}

// Interpreter executes one forward pass. Implementations need not be safe
// for concurrent use; Model serializes calls.
type Interpreter interface {
	Run(input []float32) ([]float32, error)
	Close() error
}

// ScoreVector holds one raw model output per class.
type ScoreVector []float32

// Best returns the index and value of the highest score, or -1 when empty.
func (s ScoreVector) Best() (int, float32) {
	best := -1
	var value float32
	for i, v := range s {
		if best < 0 || v > value {
			best, value = i, v
		}
	}
	return best, value
}

func (s ScoreVector) String() string {
	parts := make([]string, len(s))
	for i, v := range s {
		parts[i] = strconv.FormatFloat(float64(v), 'g', -1, 32)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Model is a loaded artifact. Once loaded it is shared across recognition
// calls.
type Model struct {
	artifact string
	classes  int

	mu     sync.Mutex
	interp Interpreter
}

// Load opens artifact with engine. classes is the expected output length;
// zero disables the check.
func Load(engine Engine, artifact string, classes int) (*Model, error) {
	if engine == nil {
		return nil, failure.New(failure.ModelLoad, nil, "no inference engine configured")
	}
	if artifact == "" {
		return nil, failure.New(failure.ModelLoad, nil, "no model artifact configured")
	}

	interp, err := engine.Open(artifact)
	if err != nil {
		return nil, failure.Newf(failure.ModelLoad, err, "can't load model %s", artifact)
	}
	if interp == nil {
		return nil, failure.Newf(failure.ModelLoad, nil, "engine returned no interpreter for %s", artifact)
	}

	log.Trace.Printf("loaded model %s", artifact)
	return &Model{artifact: artifact, classes: classes, interp: interp}, nil
}

func (m *Model) Artifact() string {
	return m.artifact
}

// Infer runs the model over input.
func (m *Model) Infer(ctx context.Context, input []float32) (ScoreVector, error) {
	if len(input) == 0 {
		return nil, failure.New(failure.Inference, nil, "empty input tensor")
	}
	if err := ctx.Err(); err != nil {
		return nil, failure.New(failure.Inference, err, "inference not started")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.interp == nil {
		return nil, failure.New(failure.Inference, nil, "model is closed")
	}

	out, err := m.interp.Run(input)
	if err != nil {
		return nil, failure.New(failure.Inference, err, "model run failed")
	}
	if err := ctx.Err(); err != nil {
		return nil, failure.New(failure.Inference, err, "inference cancelled")
	}
	if m.classes > 0 && len(out) != m.classes {
		return nil, failure.New(failure.Inference,
			errors.Errorf("got %d scores, want %d", len(out), m.classes), "unexpected model output")
	}

	scores := make(ScoreVector, len(out))
	copy(scores, out)
	return scores, nil
}

func (m *Model) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.interp == nil {
		return nil
	}
	err := m.interp.Close()
	m.interp = nil
	return err
}

func (m *Model) String() string {
	return fmt.Sprintf("model(%s)", m.artifact)
}
