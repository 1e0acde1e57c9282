// Package tflite executes TensorFlow Lite models through the C API.
package tflite

import (
	"os"

	"github.com/juruen/inkrec/inference"
	"github.com/juruen/inkrec/log"
	"github.com/mattn/go-tflite"
	"github.com/pkg/errors"
)

// Engine opens .tflite artifacts. Threads <= 0 leaves the runtime default.
type Engine struct {
	Threads int
}

func (e Engine) Open(artifact string) (inference.Interpreter, error) {
	data, err := os.ReadFile(artifact)
	if err != nil {
		return nil, errors.Wrap(err, "read model")
	}

	model := tflite.NewModel(data)
	if model == nil {
		return nil, errors.Errorf("%s is not a valid tflite model", artifact)
	}

	options := tflite.NewInterpreterOptions()
	defer options.Delete()
	if e.Threads > 0 {
		options.SetNumThread(e.Threads)
	}
	options.SetErrorReporter(func(msg string, _ interface{}) {
		log.Warning.Printf("tflite: %s", msg)
	}, nil)

	interp := tflite.NewInterpreter(model, options)
	if interp == nil {
		model.Delete()
		return nil, errors.New("can't create interpreter")
	}
	if status := interp.AllocateTensors(); status != tflite.OK {
		interp.Delete()
		model.Delete()
		return nil, errors.Errorf("allocate tensors: status %v", status)
	}

	return &interpreter{model: model, interp: interp}, nil
}

type interpreter struct {
	model  *tflite.Model
	interp *tflite.Interpreter
}

func (i *interpreter) Run(input []float32) ([]float32, error) {
	in := i.interp.GetInputTensor(0)
	if in == nil {
		return nil, errors.New("model has no input tensor")
	}
	if in.Type() != tflite.Float32 {
		return nil, errors.Errorf("input tensor type %v, want float32", in.Type())
	}
	buf := in.Float32s()
	if len(buf) != len(input) {
		return nil, errors.Errorf("input tensor holds %d values, got %d", len(buf), len(input))
	}
	copy(buf, input)

	if status := i.interp.Invoke(); status != tflite.OK {
		return nil, errors.Errorf("invoke: status %v", status)
	}

	out := i.interp.GetOutputTensor(0)
	if out == nil {
		return nil, errors.New("model has no output tensor")
	}
	scores := out.Float32s()
	result := make([]float32, len(scores))
	copy(result, scores)
	return result, nil
}

func (i *interpreter) Close() error {
	i.interp.Delete()
	i.model.Delete()
	return nil
}
