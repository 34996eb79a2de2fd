// Package narrative asks an OpenAI-compatible chat model for extra insights about a metric batch.
// It is strictly additive: every failure degrades to the locally computed insights.
package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aerolens/aerolens/internal/config"
	"github.com/aerolens/aerolens/internal/logging"
)

// ErrDisabled is returned when enrichment is switched off or has no API key
var ErrDisabled = errors.New("narrative enrichment disabled")

// maxErrorBody caps how much of an error response is read
const maxErrorBody = 1 << 16

// StatusError is a non-2xx answer from the model endpoint
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("narrative: status %d: %s", e.StatusCode, e.Message)
}

// Message is one chat turn
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Stream         bool            `json:"stream"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Client talks to a chat-completions endpoint
type Client struct {
	cfg        config.NarrativeConfig
	httpClient *http.Client
	logger     *logging.Logger
}

// NewClient creates a client. The per-call deadline comes from the caller's context.
func NewClient(cfg config.NarrativeConfig, logger *logging.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
		logger:     logger.With("component", "narrative"),
	}
}

// Enabled reports whether calls will be attempted
func (c *Client) Enabled() bool {
	return c != nil && c.cfg.Enabled && c.cfg.APIKey != "" && c.cfg.BaseURL != ""
}

// Chat sends the conversation and returns the first choice's content.
// The model is asked for a bare JSON object.
func (c *Client) Chat(ctx context.Context, messages []Message) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}
	if len(messages) == 0 {
		return "", errors.New("narrative: messages must not be empty")
	}

	body, err := json.Marshal(chatRequest{
		Model:          c.cfg.Model,
		Messages:       messages,
		Temperature:    c.cfg.Temperature,
		MaxTokens:      c.cfg.MaxTokens,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", parseStatusError(resp)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("narrative: response has no choices")
	}

	c.logger.Debug("Chat completion received", "model", out.Model, "bytes", len(out.Choices[0].Message.Content))
	return out.Choices[0].Message.Content, nil
}

func parseStatusError(resp *http.Response) *StatusError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var errResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &errResp) == nil && errResp.Error.Message != "" {
		msg = errResp.Error.Message
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &StatusError{StatusCode: resp.StatusCode, Message: msg}
}
