package model

import (
	"context"
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// skl2onnx names for a converted scikit-learn classifier.
const (
	defaultClassifierInput  = "float_input"
	defaultClassifierOutput = "output_label"
)

// Classifier runs the crop recommendation model and reports the raw class
// index it predicts.
type Classifier struct {
	session  *ort.DynamicAdvancedSession
	Metadata Metadata
}

func NewClassifier(modelPath string, metadata Metadata, labels LabelTable) (*Classifier, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: label table is empty", ErrLabelMismatch)
	}
	if metadata.NumClasses > 0 && metadata.NumClasses != len(labels) {
		return nil, fmt.Errorf("%w: classifier has %d classes, table has %d labels",
			ErrLabelMismatch, metadata.NumClasses, len(labels))
	}

	inputName := orDefault(metadata.InputName, defaultClassifierInput)
	outputName := orDefault(metadata.OutputName, defaultClassifierOutput)

	session, err := ort.NewDynamicAdvancedSession(modelPath,
		[]string{inputName}, []string{outputName}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &Classifier{session: session, Metadata: metadata}, nil
}

func (c *Classifier) Classify(ctx context.Context, batch *Batch) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	inputTensor, err := ort.NewTensor(ort.NewShape(batch.Shape...), batch.Data)
	if err != nil {
		return 0, fmt.Errorf("%w: input tensor %v: %v", ErrModel, batch.Shape, err)
	}
	defer inputTensor.Destroy()

	outputTensor, err := ort.NewEmptyTensor[int64](ort.NewShape(batch.Shape[0]))
	if err != nil {
		return 0, fmt.Errorf("%w: output tensor: %v", ErrModel, err)
	}
	defer outputTensor.Destroy()

	err = c.session.Run([]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor})
	if err != nil {
		return 0, fmt.Errorf("%w: classification failed: %v", ErrModel, err)
	}

	return outputTensor.GetData()[0], nil
}

func (c *Classifier) Close() {
	if c.session != nil {
		c.session.Destroy()
	}
}
