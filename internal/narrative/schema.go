package narrative

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/aerolens/aerolens/internal/analytics/insight"
)

// defaultConfidence is used when the model omits a confidence
const defaultConfidence = 0.7

var validate = validator.New(validator.WithRequiredStructEnabled())

// modelInsight is the shape the model must answer with
type modelInsight struct {
	Type            string   `json:"type" validate:"required,oneof=trend anomaly correlation comparison pattern summary"`
	Title           string   `json:"title" validate:"required,max=200"`
	Description     string   `json:"description" validate:"required"`
	Metrics         []string `json:"metrics" validate:"omitempty,dive,required"`
	Severity        string   `json:"severity" validate:"required,oneof=info warning critical"`
	Confidence      *float64 `json:"confidence" validate:"omitempty,gte=0,lte=1"`
	Recommendations []string `json:"recommendations" validate:"omitempty,dive,required"`
}

type modelAnswer struct {
	Insights []modelInsight `json:"insights" validate:"required,min=1,max=20,dive"`
}

// SchemaError is a model answer that is not valid JSON of the expected shape
type SchemaError struct {
	Err error
}

func (e *SchemaError) Error() string {
	return "narrative: malformed model answer: " + e.Err.Error()
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// decodeAnswer parses content as exactly one JSON object with no unknown fields and validates it
func decodeAnswer(content string) (*modelAnswer, error) {
	dec := json.NewDecoder(strings.NewReader(strings.TrimSpace(content)))
	dec.DisallowUnknownFields()

	var answer modelAnswer
	if err := dec.Decode(&answer); err != nil {
		return nil, &SchemaError{Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &SchemaError{Err: errors.New("trailing data after JSON object")}
	}
	if err := validate.Struct(answer); err != nil {
		return nil, &SchemaError{Err: err}
	}
	return &answer, nil
}

// toInsights maps validated model output to insights. Metrics default to the requested ones.
func toInsights(answer *modelAnswer, req Request, now time.Time) []insight.Insight {
	out := make([]insight.Insight, 0, len(answer.Insights))
	for i, mi := range answer.Insights {
		confidence := defaultConfidence
		if mi.Confidence != nil {
			confidence = *mi.Confidence
		}
		metrics := mi.Metrics
		if len(metrics) == 0 {
			metrics = append([]string(nil), req.Metrics...)
		}
		out = append(out, insight.Insight{
			ID:              fmt.Sprintf("ai-%s-%s-%d-%d", mi.Type, req.DataType, i, now.UnixMilli()),
			Type:            insight.ParseType(mi.Type),
			Title:           mi.Title,
			Description:     mi.Description,
			Metrics:         metrics,
			Severity:        insight.ParseSeverity(mi.Severity),
			Confidence:      confidence,
			Timestamp:       now,
			Recommendations: mi.Recommendations,
		})
	}
	return out
}

func compactJSON(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(raw)
}
