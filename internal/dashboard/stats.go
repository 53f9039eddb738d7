package dashboard

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the readings of one row.
type Summary struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// Summarize returns the minimum, maximum and mean of values. An empty slice
// yields the zero Summary.
func Summarize(values []int) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	xs := make([]float64, len(values))
	for i, v := range values {
		xs[i] = float64(v)
	}
	return Summary{
		Min:  floats.Min(xs),
		Max:  floats.Max(xs),
		Mean: stat.Mean(xs, nil),
	}
}
