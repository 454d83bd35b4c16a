package predict

import (
	"context"
	"log/slog"

	"github.com/krishivue/agri-api/internal/model"
)

type DiseaseService struct {
	decoder ImageDecoder
	invoker Invoker
	labels  model.LabelTable
}

func NewDiseaseService(decoder ImageDecoder, invoker Invoker, labels model.LabelTable) *DiseaseService {
	return &DiseaseService{
		decoder: decoder,
		invoker: invoker,
		labels:  labels,
	}
}

// Predict classifies one uploaded leaf image.
func (s *DiseaseService) Predict(ctx context.Context, data []byte) (*model.Prediction, error) {
	pixels, err := s.decoder.Decode(data)
	if err != nil {
		return nil, err
	}

	batch := pixels.Batch()
	slog.Debug("Decoded upload", "shape", batch.Shape)

	scores, err := s.invoker.Invoke(ctx, batch)
	if err != nil {
		return nil, err
	}

	return s.labels.Resolve(scores)
}
