package model

import "fmt"

type Metadata struct {
	InputName   string   `json:"input_name" yaml:"input_name"`
	OutputName  string   `json:"output_name" yaml:"output_name"`
	InputShape  []int64  `json:"input_shape" yaml:"input_shape"`
	OutputShape []int64  `json:"output_shape" yaml:"output_shape"`
	Classes     []string `json:"classes" yaml:"classes"`
	NumClasses  int      `json:"num_classes" yaml:"num_classes"`
	ImageSize   int      `json:"image_size" yaml:"image_size"`
}

// PixelArray is a decoded image in height, width, channel order.
type PixelArray struct {
	Height   int
	Width    int
	Channels int
	Data     []float32
}

func (p *PixelArray) Batch() *Batch {
	return NewBatch(p.Data, int64(p.Height), int64(p.Width), int64(p.Channels))
}

// SoilSample carries the seven crop recommendation features. Pointers let
// the decoder tell a missing field from a zero.
type SoilSample struct {
	N           *float64 `json:"n"`
	P           *float64 `json:"p"`
	K           *float64 `json:"k"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	PH          *float64 `json:"ph"`
	Rainfall    *float64 `json:"rainfall"`
}

func (s *SoilSample) Validate() error {
	fields := []struct {
		name  string
		value *float64
	}{
		{"n", s.N},
		{"p", s.P},
		{"k", s.K},
		{"temperature", s.Temperature},
		{"humidity", s.Humidity},
		{"ph", s.PH},
		{"rainfall", s.Rainfall},
	}
	for _, f := range fields {
		if f.value == nil {
			return fmt.Errorf("%w: field %q is required", ErrValidation, f.name)
		}
	}
	return nil
}

// Batch assumes Validate has passed.
func (s *SoilSample) Batch() *Batch {
	features := []float32{
		float32(*s.N), float32(*s.P), float32(*s.K),
		float32(*s.Temperature), float32(*s.Humidity),
		float32(*s.PH), float32(*s.Rainfall),
	}
	return NewBatch(features, int64(len(features)))
}

type Prediction struct {
	Class      string  `json:"class"`
	Confidence float32 `json:"confidence"`
}

type CropPrediction struct {
	Prediction string `json:"prediction"`
}
