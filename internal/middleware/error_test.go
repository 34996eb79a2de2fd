package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/aerolens/aerolens/internal/logging"
	"github.com/aerolens/aerolens/internal/models"
	"github.com/aerolens/aerolens/internal/services"
)

func errorApp(err error) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logging.NewNop())})
	app.Get("/fail", func(c *fiber.Ctx) error {
		return err
	})
	return app
}

func decodeError(t *testing.T, body io.Reader) models.ErrorDetail {
	t.Helper()
	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var resp models.ErrorResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return resp.Error
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"invalid input", services.NewServiceError(services.CodeInvalidInput, "threshold must be positive"),
			fiber.StatusBadRequest, services.CodeInvalidInput, "threshold must be positive"},
		{"invalid method", services.NewServiceError(services.CodeInvalidMethod, "unknown forecast method: arima"),
			fiber.StatusBadRequest, services.CodeInvalidMethod, "unknown forecast method: arima"},
		{"insufficient data", services.NewServiceError(services.CodeInsufficientData, "need 5 points"),
			fiber.StatusUnprocessableEntity, services.CodeInsufficientData, "need 5 points"},
		{"internal message hidden", services.NewServiceError(services.CodeInternal, "nil pointer"),
			fiber.StatusInternalServerError, services.CodeInternal, "Internal Server Error"},
		{"fiber error", fiber.ErrMethodNotAllowed,
			fiber.StatusMethodNotAllowed, "ERROR", "Method Not Allowed"},
		{"plain error", errors.New("boom"),
			fiber.StatusInternalServerError, services.CodeInternal, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := errorApp(tt.err).Test(httptest.NewRequest("GET", "/fail", nil))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, resp.StatusCode)
			}
			detail := decodeError(t, resp.Body)
			if detail.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, detail.Code)
			}
			if detail.Message != tt.wantMsg {
				t.Errorf("expected message %q, got %q", tt.wantMsg, detail.Message)
			}
		})
	}
}

func TestErrorHandler_KeepsDetails(t *testing.T) {
	err := services.NewServiceErrorWithDetails(services.CodeInvalidDetector, "unknown detector",
		map[string]interface{}{"available_detectors": []string{"iqr", "zscore"}})

	resp, reqErr := errorApp(err).Test(httptest.NewRequest("GET", "/fail", nil))
	if reqErr != nil {
		t.Fatalf("request failed: %v", reqErr)
	}
	detail := decodeError(t, resp.Body)
	if _, ok := detail.Details["available_detectors"]; !ok {
		t.Errorf("details dropped: %v", detail.Details)
	}
}
