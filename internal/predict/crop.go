package predict

import (
	"context"

	"github.com/krishivue/agri-api/internal/model"
)

type CropService struct {
	classifier Classifier
	names      model.LabelTable
}

func NewCropService(classifier Classifier, names model.LabelTable) *CropService {
	return &CropService{classifier: classifier, names: names}
}

// Predict recommends a crop. Values are passed to the classifier as given;
// only presence is checked.
func (s *CropService) Predict(ctx context.Context, sample *model.SoilSample) (*model.CropPrediction, error) {
	if err := sample.Validate(); err != nil {
		return nil, err
	}

	idx, err := s.classifier.Classify(ctx, sample.Batch())
	if err != nil {
		return nil, err
	}

	name, err := s.names.Lookup(idx)
	if err != nil {
		return nil, err
	}

	return &model.CropPrediction{Prediction: name}, nil
}
