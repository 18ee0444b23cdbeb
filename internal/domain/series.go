package domain

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Series is a model time series extracted at a single grid cell.
type Series []float64

// Filled returns a copy with NaN and infinite samples replaced by zero.
// Masked land and missing values arrive from model output as NaN.
func (s Series) Filled() Series {
	out := make(Series, len(s))
	for i, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			out[i] = 0
			continue
		}
		out[i] = v
	}
	return out
}

// FilledStd returns the population standard deviation of the zero-filled
// series. Flat land series score at or near zero.
func (s Series) FilledStd() float64 {
	if len(s) == 0 {
		return 0
	}
	return stat.PopStdDev(s.Filled(), nil)
}
