package model

import (
	"fmt"
	"strconv"
)

// Batch is a flat tensor whose leading dimension is the batch size.
type Batch struct {
	Shape []int64
	Data  []float32
}

// NewBatch wraps one sample as the only element of a new leading axis.
func NewBatch(sample []float32, shape ...int64) *Batch {
	return &Batch{
		Shape: append([]int64{1}, shape...),
		Data:  sample,
	}
}

func (b *Batch) Size() int64 {
	n := int64(1)
	for _, d := range b.Shape {
		n *= d
	}
	return n
}

// MarshalJSON writes the batch as nested arrays following Shape.
func (b *Batch) MarshalJSON() ([]byte, error) {
	if int64(len(b.Data)) != b.Size() {
		return nil, fmt.Errorf("batch shape %v holds %d values, data has %d", b.Shape, b.Size(), len(b.Data))
	}
	buf := make([]byte, 0, len(b.Data)*6)
	buf, _ = appendNested(buf, b.Shape, b.Data)
	return buf, nil
}

func appendNested(buf []byte, shape []int64, data []float32) ([]byte, []float32) {
	buf = append(buf, '[')
	for i := int64(0); i < shape[0]; i++ {
		if i > 0 {
			buf = append(buf, ',')
		}
		if len(shape) == 1 {
			buf = strconv.AppendFloat(buf, float64(data[0]), 'g', -1, 32)
			data = data[1:]
			continue
		}
		buf, data = appendNested(buf, shape[1:], data)
	}
	return append(buf, ']'), data
}
