package stats

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestMean(t *testing.T) {
	if Mean(nil) != 0 {
		t.Error("mean of empty input should be 0")
	}
	if got := Mean([]float64{1, 2, 3, 4}); got != 2.5 {
		t.Errorf("expected 2.5, got %v", got)
	}
}

func TestMeanPopStdDev(t *testing.T) {
	mean, sd := MeanPopStdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if mean != 5 {
		t.Errorf("expected mean 5, got %v", mean)
	}
	if !almostEqual(sd, 2, 1e-12) {
		t.Errorf("expected population std dev 2, got %v", sd)
	}

	mean, sd = MeanPopStdDev([]float64{7})
	if mean != 7 || sd != 0 {
		t.Errorf("single value: expected (7, 0), got (%v, %v)", mean, sd)
	}

	mean, sd = MeanPopStdDev(nil)
	if mean != 0 || sd != 0 {
		t.Errorf("empty: expected (0, 0), got (%v, %v)", mean, sd)
	}
}

func TestPopStdDev_ConstantRoundOff(t *testing.T) {
	// 0.1 is not exactly representable; round-off must not produce a tiny non-zero sigma
	values := []float64{0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1}
	if sd := PopStdDev(values); sd != 0 {
		t.Errorf("expected exact zero std dev for constant data, got %v", sd)
	}
}

func TestSampleStdDev(t *testing.T) {
	if SampleStdDev([]float64{3}) != 0 {
		t.Error("sample std dev of one value should be 0")
	}
	sd := SampleStdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if !almostEqual(sd, math.Sqrt(32.0/7.0), 1e-12) {
		t.Errorf("unexpected sample std dev %v", sd)
	}
}

func TestCorrelation(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{2, 4, 6, 8, 10}
	if r := Correlation(x, y); !almostEqual(r, 1, 1e-12) {
		t.Errorf("expected perfect correlation, got %v", r)
	}

	neg := []float64{10, 8, 6, 4, 2}
	if r := Correlation(x, neg); !almostEqual(r, -1, 1e-12) {
		t.Errorf("expected perfect negative correlation, got %v", r)
	}

	flat := []float64{3, 3, 3, 3, 3}
	if r := Correlation(x, flat); r != 0 {
		t.Errorf("zero variance should give 0, got %v", r)
	}

	if r := Correlation([]float64{1}, []float64{2}); r != 0 {
		t.Errorf("single pair should give 0, got %v", r)
	}

	// Mismatched lengths use the common prefix
	if r := Correlation([]float64{1, 2, 3, 100}, []float64{1, 2, 3}); !almostEqual(r, 1, 1e-12) {
		t.Errorf("expected correlation over common prefix, got %v", r)
	}
}

func TestSlope(t *testing.T) {
	if b := Slope([]float64{3, 5, 7, 9}); !almostEqual(b, 2, 1e-12) {
		t.Errorf("expected slope 2, got %v", b)
	}
	if b := Slope([]float64{4, 4, 4}); b != 0 {
		t.Errorf("constant data should give 0, got %v", b)
	}
	if b := Slope([]float64{1}); b != 0 {
		t.Errorf("single value should give 0, got %v", b)
	}
}

func TestQuartiles(t *testing.T) {
	values := []float64{7, 1, 3, 5, 9}
	q1, median, q3 := Quartiles(values)
	if median != 5 {
		t.Errorf("expected median 5, got %v", median)
	}
	if q1 > median || median > q3 {
		t.Errorf("quartiles out of order: %v %v %v", q1, median, q3)
	}
	if values[0] != 7 {
		t.Error("Quartiles must not reorder the caller's slice")
	}

	q1, median, q3 = Quartiles([]float64{4})
	if q1 != 4 || median != 4 || q3 != 4 {
		t.Errorf("single value quartiles should all equal the value")
	}
}

func TestMinMax(t *testing.T) {
	lo, hi := MinMax([]float64{3, -1, 8, 2})
	if lo != -1 || hi != 8 {
		t.Errorf("expected (-1, 8), got (%v, %v)", lo, hi)
	}
}

func TestCriticalValues(t *testing.T) {
	if z := ZCritical(0.95); !almostEqual(z, 1.96, 0.001) {
		t.Errorf("expected z≈1.96, got %v", z)
	}
	if z := ZCritical(0.99); !almostEqual(z, 2.576, 0.001) {
		t.Errorf("expected z≈2.576, got %v", z)
	}
	if z := ZCritical(2); !almostEqual(z, 1.96, 0.001) {
		t.Errorf("invalid confidence should fall back to 0.95, got %v", z)
	}
	if tv := TCritical(0.95, 4); !almostEqual(tv, 2.776, 0.001) {
		t.Errorf("expected t(4)≈2.776, got %v", tv)
	}
	if tv := TCritical(0.95, 0); !almostEqual(tv, 1.96, 0.001) {
		t.Errorf("df=0 should fall back to normal, got %v", tv)
	}
}

func TestClampAndSafeRatio(t *testing.T) {
	if Clamp01(-0.5) != 0 || Clamp01(1.5) != 1 || Clamp01(math.NaN()) != 0 || Clamp01(0.3) != 0.3 {
		t.Error("Clamp01 produced unexpected values")
	}
	if SafeRatio(1, 0, 7) != 7 {
		t.Error("SafeRatio should return fallback on zero denominator")
	}
	if SafeRatio(6, 3, 0) != 2 {
		t.Error("SafeRatio should divide normally")
	}
}
