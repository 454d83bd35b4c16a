package model

import (
	"context"
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

const (
	defaultInputName  = "input"
	defaultOutputName = "output"
)

// InitRuntime loads the onnxruntime shared library. It must run once before
// any Server or Classifier is created.
func InitRuntime(libraryPath string) error {
	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}
	return nil
}

func DestroyRuntime() error {
	return ort.DestroyEnvironment()
}

// Server runs the disease CNN in-process. The session is shared read-only;
// every call allocates its own tensors so concurrent requests never touch
// the same buffers.
type Server struct {
	session  *ort.DynamicAdvancedSession
	Metadata Metadata
	Labels   LabelTable
}

func NewServer(modelPath string, metadata Metadata, labels LabelTable) (*Server, error) {
	if err := metadata.CheckOutputs(labels); err != nil {
		return nil, err
	}

	inputName := orDefault(metadata.InputName, defaultInputName)
	outputName := orDefault(metadata.OutputName, defaultOutputName)

	if metadata.outputWidth() == 0 || len(metadata.InputShape) == 0 {
		inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
		if err != nil {
			return nil, fmt.Errorf("failed to inspect model: %w", err)
		}
		if metadata.outputWidth() == 0 {
			if err := checkOutputWidth(outputs, outputName, labels); err != nil {
				return nil, err
			}
		}
		if len(metadata.InputShape) == 0 {
			if metadata.InputShape, err = findShape(inputs, inputName); err != nil {
				return nil, err
			}
		}
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath,
		[]string{inputName}, []string{outputName}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &Server{
		session:  session,
		Metadata: metadata,
		Labels:   labels,
	}, nil
}

// Invoke runs one forward pass and returns the scores of the first sample.
func (s *Server) Invoke(ctx context.Context, batch *Batch) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkInputShape(s.Metadata.InputShape, batch.Shape); err != nil {
		return nil, err
	}

	inputTensor, err := ort.NewTensor(ort.NewShape(batch.Shape...), batch.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: input tensor %v: %v", ErrModel, batch.Shape, err)
	}
	defer inputTensor.Destroy()

	width := int64(len(s.Labels))
	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(batch.Shape[0], width))
	if err != nil {
		return nil, fmt.Errorf("%w: output tensor: %v", ErrModel, err)
	}
	defer outputTensor.Destroy()

	err = s.session.Run([]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor})
	if err != nil {
		return nil, fmt.Errorf("%w: inference failed: %v", ErrModel, err)
	}

	scores := make([]float32, width)
	copy(scores, outputTensor.GetData())
	return scores, nil
}

func (s *Server) Close() {
	if s.session != nil {
		s.session.Destroy()
	}
}

// checkOutputWidth compares the last dimension of the named model output with
// the label table. A dynamic class dimension cannot be checked and is
// rejected; declare num_classes in the metadata for such models.
func checkOutputWidth(outputs []ort.InputOutputInfo, name string, labels LabelTable) error {
	dims, err := findShape(outputs, name)
	if err != nil {
		return err
	}
	if len(dims) == 0 {
		return fmt.Errorf("%w: output %q is a scalar", ErrLabelMismatch, name)
	}

	width := dims[len(dims)-1]
	if width <= 0 {
		return fmt.Errorf("%w: output %q has a dynamic class dimension, set num_classes", ErrLabelMismatch, name)
	}
	if width != int64(len(labels)) {
		return fmt.Errorf("%w: model has %d outputs, table has %d labels", ErrLabelMismatch, width, len(labels))
	}
	return nil
}

func findShape(infos []ort.InputOutputInfo, name string) ([]int64, error) {
	for _, info := range infos {
		if info.Name == name {
			return info.Dimensions, nil
		}
	}
	return nil, fmt.Errorf("model has no tensor named %q", name)
}

// checkInputShape matches a batch against the model input. Dimensions the
// model leaves dynamic (<= 0) and the batch axis accept any size.
func checkInputShape(want, got []int64) error {
	if len(want) == 0 {
		return nil
	}
	if len(want) != len(got) {
		return fmt.Errorf("%w: input rank %d, model expects %v", ErrModel, len(got), want)
	}
	for i := 1; i < len(want); i++ {
		if want[i] > 0 && want[i] != got[i] {
			return fmt.Errorf("%w: input shape %v, model expects %v", ErrModel, got, want)
		}
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
