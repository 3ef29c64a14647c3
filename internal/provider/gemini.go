// File: internal/provider/gemini.go
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	genai "google.golang.org/genai"

	"github.com/cadence-health/carebrief/api/schemas"
	"github.com/cadence-health/carebrief/internal/config"
)

// GeminiClient implements schemas.CompletionProvider on top of the official
// genai SDK. Like the Anthropic transport it performs a single call per
// Complete invocation and decodes failures into the shared typed errors.
type GeminiClient struct {
	cli    *genai.Client
	model  string
	logger *zap.Logger
}

// NewGeminiClient initializes the client.
func NewGeminiClient(ctx context.Context, cfg config.ProviderConfig, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiClient{
		cli:    cli,
		model:  cfg.Model,
		logger: logger.Named("provider.gemini"),
	}, nil
}

// Name identifies the provider for logging.
func (c *GeminiClient) Name() string { return config.ProviderGemini }

// Complete sends one completion request and returns the model's text reply.
func (c *GeminiClient) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens),
	}
	if systemPrompt != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		}
	}

	startTime := time.Now()
	resp, err := c.cli.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: userPrompt}}}}, cfg)
	if err != nil {
		return "", decodeGeminiError(err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 || resp.Candidates[0].Content.Parts[0].Text == "" {
		return "", &schemas.ProviderError{
			Type:    schemas.APIErrorInvalidRequest,
			Message: "response contained no text content",
		}
	}

	c.logger.Info("Completion finished",
		zap.Duration("duration", time.Since(startTime)),
		zap.String("model", c.model),
	)
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

// decodeGeminiError translates SDK errors into the closed transport taxonomy.
// The genai SDK surfaces HTTP failures as APIError values; everything else is
// treated as a network-level failure.
func decodeGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &schemas.ProviderError{
			Type:       errorTypeForGeminiStatus(apiErr.Code),
			StatusCode: apiErr.Code,
			Message:    apiErr.Message,
		}
	}

	timeout := errors.Is(err, context.DeadlineExceeded)
	return &schemas.TransportError{
		Timeout: timeout,
		Message: err.Error(),
		Err:     err,
	}
}

func errorTypeForGeminiStatus(code int) string {
	switch code {
	case http.StatusTooManyRequests:
		return schemas.APIErrorRateLimit
	case http.StatusServiceUnavailable:
		return schemas.APIErrorOverloaded
	case http.StatusUnauthorized, http.StatusForbidden:
		return schemas.APIErrorAuthentication
	case http.StatusBadRequest, http.StatusNotFound:
		return schemas.APIErrorInvalidRequest
	default:
		return schemas.APIErrorGeneric
	}
}
