package forecast

import (
	"math"

	"github.com/aerolens/aerolens/internal/analytics"
)

// maxSafeExponent bounds the binary exponent of the largest |value| a method sees directly.
// Above it, sums of squares can overflow, so the series is scaled down by a power of two first.
const maxSafeExponent = 256

// scaledParams are the result parameters expressed in value units
var scaledParams = []string{"slope", "intercept", "level", "std_error"}

// scaleExponent returns the power of two the series must be divided by, 0 when none is needed
func scaleExponent(series analytics.Series) int {
	largest := 0.0
	for _, p := range series {
		largest = math.Max(largest, math.Abs(p.Value))
	}
	if largest == 0 {
		return 0
	}
	_, exp := math.Frexp(largest)
	if exp <= maxSafeExponent {
		return 0
	}
	return exp
}

// scaleSeries multiplies every value by 2^exp. Power-of-two scaling is exact.
func scaleSeries(series analytics.Series, exp int) analytics.Series {
	out := make(analytics.Series, len(series))
	for i, p := range series {
		out[i] = analytics.Observation{Time: p.Time, Value: math.Ldexp(p.Value, exp)}
	}
	return out
}

// rescale undoes scaleSeries on everything in value units
func (r *Result) rescale(exp int) {
	if exp == 0 {
		return
	}
	r.Predictions = scaleSeries(r.Predictions, exp)
	if r.ConfidenceIntervals != nil {
		r.ConfidenceIntervals.Upper = scaleSeries(r.ConfidenceIntervals.Upper, exp)
		r.ConfidenceIntervals.Lower = scaleSeries(r.ConfidenceIntervals.Lower, exp)
	}
	for _, key := range scaledParams {
		if v, ok := r.Params[key]; ok {
			r.Params[key] = math.Ldexp(v, exp)
		}
	}
}

// finite reports whether every number in the result is finite
func (r *Result) finite() bool {
	check := func(s analytics.Series) bool {
		for _, p := range s {
			if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
				return false
			}
		}
		return true
	}
	if !check(r.Predictions) {
		return false
	}
	if r.ConfidenceIntervals != nil && (!check(r.ConfidenceIntervals.Upper) || !check(r.ConfidenceIntervals.Lower)) {
		return false
	}
	for _, v := range r.Params {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return !math.IsNaN(r.Accuracy)
}
