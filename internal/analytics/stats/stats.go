// Package stats holds the numeric primitives shared by the anomaly, forecast and insight packages.
// Every function is total: degenerate input (empty, constant, mismatched) yields a defined value
// instead of NaN or Inf.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// relEpsilon bounds the round-off noise tolerated before a variance is treated as non-zero
const relEpsilon = 1e-12

// Mean returns the arithmetic mean, 0 for empty input
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// MeanPopStdDev returns the mean and the population standard deviation (divide by n)
func MeanPopStdDev(values []float64) (mean, stdDev float64) {
	n := len(values)
	if n == 0 {
		return 0, 0
	}
	if n == 1 {
		return values[0], 0
	}
	mean, variance := stat.MeanVariance(values, nil)
	popVariance := variance * float64(n-1) / float64(n)
	return mean, cleanStdDev(popVariance, mean)
}

// PopStdDev returns the population standard deviation
func PopStdDev(values []float64) float64 {
	_, sd := MeanPopStdDev(values)
	return sd
}

// SampleStdDev returns the sample standard deviation (divide by n-1), 0 for fewer than two values
func SampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean, variance := stat.MeanVariance(values, nil)
	return cleanStdDev(variance, mean)
}

// cleanStdDev squashes round-off variance on constant data to an exact zero
func cleanStdDev(variance, mean float64) float64 {
	if variance <= 0 || math.IsNaN(variance) {
		return 0
	}
	sd := math.Sqrt(variance)
	if sd <= relEpsilon*math.Max(1, math.Abs(mean)) {
		return 0
	}
	return sd
}

// Correlation returns the Pearson correlation coefficient of x and y over their common prefix.
// Zero variance on either side, or fewer than two pairs, yields 0 by convention.
func Correlation(x, y []float64) float64 {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	if n < 2 {
		return 0
	}
	x, y = x[:n], y[:n]
	if SampleStdDev(x) == 0 || SampleStdDev(y) == 0 {
		return 0
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return math.Max(-1, math.Min(1, r))
}

// Slope returns the least-squares slope of values against their index, 0 for fewer than two values
// or a non-finite fit
func Slope(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	index := make([]float64, len(values))
	for i := range index {
		index[i] = float64(i)
	}
	_, beta := stat.LinearRegression(index, values, nil, false)
	if math.IsNaN(beta) || math.IsInf(beta, 0) {
		return 0
	}
	return beta
}

// Quartiles returns the first quartile, the median and the third quartile.
// The input is not modified.
func Quartiles(values []float64) (q1, median, q3 float64) {
	switch len(values) {
	case 0:
		return 0, 0, 0
	case 1:
		return values[0], values[0], values[0]
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return quantile(sorted, 0.25), quantile(sorted, 0.5), quantile(sorted, 0.75)
}

// quantile interpolates between closest ranks (position p*(n-1)), the convention spreadsheets use.
// gonum's LinInterp interpolates the empirical CDF instead, which puts the median of an odd-length
// sample between two ranks.
func quantile(sorted []float64, p float64) float64 {
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// MinMax returns the smallest and largest value, zeros for empty input
func MinMax(values []float64) (minVal, maxVal float64) {
	if len(values) == 0 {
		return 0, 0
	}
	minVal, maxVal = values[0], values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	return minVal, maxVal
}

// ZCritical returns the two-tailed standard normal critical value for a confidence level in (0,1).
// Out-of-range levels fall back to 0.95.
func ZCritical(confidence float64) float64 {
	if confidence <= 0 || confidence >= 1 {
		confidence = 0.95
	}
	return distuv.UnitNormal.Quantile(1 - (1-confidence)/2)
}

// TCritical returns the two-tailed Student t critical value for a confidence level and degrees of freedom.
// With no degrees of freedom the normal critical value is used.
func TCritical(confidence float64, df int) float64 {
	if confidence <= 0 || confidence >= 1 {
		confidence = 0.95
	}
	if df < 1 {
		return ZCritical(confidence)
	}
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}
	return t.Quantile(1 - (1-confidence)/2)
}

// Clamp01 clamps x into [0,1]; NaN becomes 0
func Clamp01(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return math.Max(0, math.Min(1, x))
}

// SafeRatio returns num/den, or fallback when den is zero or the ratio is not finite
func SafeRatio(num, den, fallback float64) float64 {
	if den == 0 {
		return fallback
	}
	r := num / den
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return fallback
	}
	return r
}
