// File: internal/provider/factory.go
package provider

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cadence-health/carebrief/api/schemas"
	"github.com/cadence-health/carebrief/internal/config"
)

// NewClient is a factory function that creates a CompletionProvider based on
// the configuration.
func NewClient(ctx context.Context, cfg config.ProviderConfig, logger *zap.Logger) (schemas.CompletionProvider, error) {
	switch cfg.Name {
	case config.ProviderAnthropic:
		return NewAnthropicClient(cfg, logger)
	case config.ProviderGemini:
		return NewGeminiClient(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown or unsupported provider configured: %q. Supported: [%s, %s]",
			cfg.Name, config.ProviderAnthropic, config.ProviderGemini)
	}
}
