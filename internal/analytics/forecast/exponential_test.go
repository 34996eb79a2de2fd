package forecast

import (
	"math"
	"testing"
)

func TestSmooth(t *testing.T) {
	got := Smooth([]float64{1, 2, 3, 4, 5}, 0.5)
	want := []float64{1, 1.5, 2.25, 3.125, 4.0625}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("S%d: expected %v, got %v", i, want[i], got[i])
		}
	}

	if len(Smooth(nil, 0.3)) != 0 {
		t.Error("Expected empty output for empty input")
	}
}

func TestExponentialSmoothingForecaster_FlatForecast(t *testing.T) {
	data := generateLinearData(5, 1, 1) // 1..5

	config := DefaultConfig()
	config.Method = MethodExponential
	config.Alpha = 0.5
	config.Horizon = 4

	result, err := Predict(data, config)
	if err != nil {
		t.Fatalf("Forecast failed: %v", err)
	}

	for i, p := range result.Predictions {
		if p.Value != 4.0625 {
			t.Errorf("Prediction %d: expected flat level 4.0625, got %v", i, p.Value)
		}
	}
	if result.Params["alpha"] != 0.5 {
		t.Errorf("Expected alpha 0.5, got %v", result.Params["alpha"])
	}
}

func TestExponentialSmoothingForecaster_DefaultAlpha(t *testing.T) {
	config := DefaultConfig()
	config.Method = MethodExponential
	config.Alpha = 0 // Should use default 0.3

	result, err := Predict(generateNoisyData(20), config)
	if err != nil {
		t.Fatalf("Forecast failed: %v", err)
	}
	if result.Params["alpha"] != 0.3 {
		t.Errorf("Expected default alpha 0.3, got %v", result.Params["alpha"])
	}
}

func TestExponentialSmoothingForecaster_AccuracyAndBand(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	config := DefaultConfig()
	config.Method = MethodExponential
	config.Alpha = 0.5

	result, err := Predict(generateLinearData(5, 1, 1), config)
	if err != nil {
		t.Fatalf("Forecast failed: %v", err)
	}

	smoothed := Smooth(values, 0.5)
	var sse, sst float64
	for i := 1; i < len(values); i++ {
		sse += (values[i] - smoothed[i-1]) * (values[i] - smoothed[i-1])
		sst += (values[i] - 3) * (values[i] - 3)
	}
	wantAccuracy := math.Max(0, 1-sse/sst)
	if !almostEqual(result.Accuracy, wantAccuracy, 1e-12) {
		t.Errorf("Expected accuracy %v, got %v", wantAccuracy, result.Accuracy)
	}

	wantMargin := 1.96 * math.Sqrt(sse/4)
	gotMargin := result.ConfidenceIntervals.Upper[0].Value - result.Predictions[0].Value
	if !almostEqual(gotMargin, wantMargin, 1e-3) {
		t.Errorf("Expected margin ~%v, got %v", wantMargin, gotMargin)
	}
}

func TestExponentialSmoothingForecaster_ConstantSeries(t *testing.T) {
	config := DefaultConfig()
	config.Method = MethodExponential

	result, err := Predict(generateLinearData(10, 0, 5), config)
	if err != nil {
		t.Fatalf("Forecast failed: %v", err)
	}
	for _, p := range result.Predictions {
		if !almostEqual(p.Value, 5, 1e-9) {
			t.Errorf("Expected predictions equal to 5, got %v", p.Value)
		}
	}
}

func TestExponentialSmoothingForecaster_Name(t *testing.T) {
	if NewExponentialSmoothingForecaster().Name() != MethodExponential {
		t.Error("Expected name 'exponential'")
	}
}
