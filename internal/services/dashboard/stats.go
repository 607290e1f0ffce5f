package dashboard

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"CreditScore/internal/domain/models"
)

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// quantile uses linear interpolation between closest ranks, the default
// method of numpy and of box plots in plotly. sorted must be ascending.
func quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func boxStats(group string, xs []float64) models.BoxStats {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	b := models.BoxStats{Group: group, Count: len(sorted)}
	if len(sorted) == 0 {
		return b
	}
	b.Min = sorted[0]
	b.Q1 = quantile(sorted, 0.25)
	b.Median = quantile(sorted, 0.5)
	b.Q3 = quantile(sorted, 0.75)
	b.Max = sorted[len(sorted)-1]
	return b
}

// pearson returns the correlation of x and y; ok is false when either
// sample is constant and the coefficient is undefined.
func pearson(x, y []float64) (r float64, ok bool) {
	if len(x) < 2 {
		return 0, false
	}
	if floats.Min(x) == floats.Max(x) || floats.Min(y) == floats.Max(y) {
		return 0, false
	}
	return stat.Correlation(x, y, nil), true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// edges returns n+1 equally spaced bin edges spanning [lo, hi].
func edges(lo, hi float64, n int) []float64 {
	if hi == lo {
		hi = lo + 1
	}
	return floats.Span(make([]float64, n+1), lo, hi)
}
