package model

import (
	"fmt"
	"math"
)

// Select returns the first index holding the maximum score. NaN and
// infinite scores are rejected.
func Select(scores []float32) (int, float32, error) {
	if len(scores) == 0 {
		return 0, 0, fmt.Errorf("%w: empty score vector", ErrLabelMismatch)
	}

	maxIdx := 0
	maxVal := float32(math.Inf(-1))
	for i, val := range scores {
		v := float64(val)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, 0, fmt.Errorf("%w: non-finite score %v at index %d", ErrModel, val, i)
		}
		if i == 0 || val > maxVal {
			maxVal = val
			maxIdx = i
		}
	}

	return maxIdx, maxVal, nil
}
