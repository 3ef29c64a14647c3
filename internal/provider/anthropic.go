// File: internal/provider/anthropic.go
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cadence-health/carebrief/api/schemas"
	"github.com/cadence-health/carebrief/internal/config"
)

const anthropicAPIVersion = "2023-06-01"

// AnthropicClient implements schemas.CompletionProvider against the Anthropic
// messages API. It performs exactly one HTTP call per Complete invocation;
// retry policy belongs to the summarizer, not the transport.
type AnthropicClient struct {
	apiKey     string
	endpoint   string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

// -- Wire structures (internal to this file) --

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequestPayload struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicResponsePayload struct {
	Content    []anthropicContentBlock `json:"content"`
	StopReason string                  `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type anthropicErrorPayload struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewAnthropicClient initializes the client.
func NewAnthropicClient(cfg config.ProviderConfig, logger *zap.Logger) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "https://api.anthropic.com/v1/messages"
	}

	return &AnthropicClient{
		apiKey:   cfg.APIKey,
		endpoint: endpoint,
		model:    cfg.Model,
		httpClient: &http.Client{
			Timeout: cfg.APITimeout,
		},
		logger: logger.Named("provider.anthropic"),
	}, nil
}

// Name identifies the provider for logging.
func (c *AnthropicClient) Name() string { return config.ProviderAnthropic }

// Complete sends one completion request and returns the model's text reply.
// Failures are decoded into *schemas.ProviderError (the provider reported an
// error) or *schemas.TransportError (the call never yielded a response).
func (c *AnthropicClient) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	payload := anthropicRequestPayload{
		Model:     c.model,
		MaxTokens: maxTokens,
		System:    systemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: userPrompt},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicAPIVersion)

	startTime := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	duration := time.Since(startTime)

	if err != nil {
		return "", decodeTransportError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", decodeTransportError(err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", c.decodeAPIError(resp.StatusCode, respBody)
	}

	var responsePayload anthropicResponsePayload
	if err := json.Unmarshal(respBody, &responsePayload); err != nil {
		return "", &schemas.ProviderError{
			Type:       schemas.APIErrorInvalidRequest,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("undecodable response payload: %v", err),
		}
	}

	text, ok := firstTextBlock(responsePayload.Content)
	if !ok {
		// A non-text reply cannot be summarized; treat as a format error the
		// retry loop will not repeat.
		return "", &schemas.ProviderError{
			Type:       schemas.APIErrorInvalidRequest,
			StatusCode: resp.StatusCode,
			Message:    "response contained no text content block",
		}
	}

	c.logger.Info("Completion finished",
		zap.Duration("duration", duration),
		zap.String("stop_reason", responsePayload.StopReason),
		zap.Int("input_tokens", responsePayload.Usage.InputTokens),
		zap.Int("output_tokens", responsePayload.Usage.OutputTokens),
	)
	return text, nil
}

func firstTextBlock(blocks []anthropicContentBlock) (string, bool) {
	for _, b := range blocks {
		if b.Type == "text" {
			return b.Text, true
		}
	}
	return "", false
}

// decodeAPIError maps a non-200 response into a typed provider error, keeping
// the provider's own error type string when one was sent.
func (c *AnthropicClient) decodeAPIError(statusCode int, body []byte) error {
	c.logger.Warn("Provider returned error status",
		zap.Int("status", statusCode), zap.ByteString("body", body))

	var errPayload anthropicErrorPayload
	if err := json.Unmarshal(body, &errPayload); err == nil && errPayload.Error.Type != "" {
		return &schemas.ProviderError{
			Type:       errPayload.Error.Type,
			StatusCode: statusCode,
			Message:    errPayload.Error.Message,
		}
	}

	// No structured error body; fall back to a status-code mapping.
	return &schemas.ProviderError{
		Type:       errorTypeForStatus(statusCode),
		StatusCode: statusCode,
		Message:    fmt.Sprintf("HTTP %d: %s", statusCode, bytes.TrimSpace(body)),
	}
}

func errorTypeForStatus(statusCode int) string {
	switch statusCode {
	case http.StatusTooManyRequests:
		return schemas.APIErrorRateLimit
	case http.StatusServiceUnavailable, 529:
		return schemas.APIErrorOverloaded
	case http.StatusUnauthorized, http.StatusForbidden:
		return schemas.APIErrorAuthentication
	case http.StatusBadRequest, http.StatusNotFound:
		return schemas.APIErrorInvalidRequest
	default:
		return schemas.APIErrorGeneric
	}
}

// decodeTransportError wraps a network-level failure, preserving the timeout
// signal so classification can distinguish it.
func decodeTransportError(err error) error {
	timeout := false
	if netErr, ok := err.(net.Error); ok {
		timeout = netErr.Timeout()
	}
	return &schemas.TransportError{
		Timeout: timeout,
		Message: err.Error(),
		Err:     err,
	}
}
