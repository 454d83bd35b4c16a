// Package predict wires decoding, batching, inference and label selection
// into the two request pipelines.
package predict

import (
	"context"

	"github.com/krishivue/agri-api/internal/model"
)

// Invoker runs a forward pass and returns the scores of the first sample.
// Both model.Server and serving.Client satisfy it.
type Invoker interface {
	Invoke(ctx context.Context, batch *model.Batch) ([]float32, error)
}

// Classifier returns the class index predicted for the first row.
type Classifier interface {
	Classify(ctx context.Context, batch *model.Batch) (int64, error)
}

type ImageDecoder interface {
	Decode(data []byte) (*model.PixelArray, error)
}

var (
	_ Invoker    = (*model.Server)(nil)
	_ Classifier = (*model.Classifier)(nil)
)
