package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary describes the distribution of one metric across rows, computed
// over achieved values only.
type Summary struct {
	N      int
	Mean   float64
	Median float64
	Q1     float64
	Q3     float64
	Min    float64
	Max    float64
}

// Summarize folds a metric column into its distribution summary. Sentinel
// and non-finite values are excluded: a never-achieved metric has no place
// in a distribution of achieved ones. An all-sentinel column reports N 0
// with NaN moments.
func Summarize(values []float64) Summary {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsInf(v, 0) || math.IsNaN(v) || v < 0 {
			continue
		}
		finite = append(finite, v)
	}

	if len(finite) == 0 {
		nan := math.NaN()
		return Summary{N: 0, Mean: nan, Median: nan, Q1: nan, Q3: nan, Min: nan, Max: nan}
	}

	sort.Float64s(finite)
	return Summary{
		N:      len(finite),
		Mean:   stat.Mean(finite, nil),
		Median: stat.Quantile(0.5, stat.Empirical, finite, nil),
		Q1:     stat.Quantile(0.25, stat.Empirical, finite, nil),
		Q3:     stat.Quantile(0.75, stat.Empirical, finite, nil),
		Min:    finite[0],
		Max:    finite[len(finite)-1],
	}
}

// MetricValues extracts one named column from a set of rows, in row order.
func MetricValues(rows []Row, column string) []float64 {
	out := make([]float64, 0, len(rows))
	for _, row := range rows {
		if v, ok := row.Columns()[column]; ok {
			out = append(out, v)
		}
	}
	return out
}
