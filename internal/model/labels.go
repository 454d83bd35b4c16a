package model

import "fmt"

// LabelTable maps an output position to a class name.
type LabelTable []string

var DiseaseClasses = LabelTable{
	"Potato___Early_blight",
	"Potato___healthy",
	"POTATO__Late_blight",
}

var CropNames = LabelTable{
	"apple",
	"banana",
	"blackgram",
	"chickpea",
	"coconut",
	"coffee",
	"cotton",
	"grapes",
	"jute",
	"kidneybeans",
	"lentil",
	"maize",
	"mango",
	"mothbeans",
	"mungbean",
	"muskmelon",
	"orange",
	"papaya",
	"pigeonpeas",
	"pomegranate",
	"rice",
	"watermelon",
}

// Lookup is the checked index operation used for classifier output.
func (t LabelTable) Lookup(idx int64) (string, error) {
	if idx < 0 || idx >= int64(len(t)) {
		return "", fmt.Errorf("%w: %d not in [0,%d)", ErrUnknownClassIndex, idx, len(t))
	}
	return t[idx], nil
}

// Resolve picks the highest score and maps it through the table.
func (t LabelTable) Resolve(scores []float32) (*Prediction, error) {
	if len(scores) != len(t) {
		return nil, fmt.Errorf("%w: got %d scores for %d labels", ErrLabelMismatch, len(scores), len(t))
	}

	idx, val, err := Select(scores)
	if err != nil {
		return nil, err
	}

	return &Prediction{
		Class:      t[idx],
		Confidence: val,
	}, nil
}
