// Package ai wraps the generative services used to produce demand forecasts.
package ai

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/lonshanworld/inventory-forecasting/config"
)

// Generator turns a prompt into free-form response text. Implementations are
// long-lived and safe for concurrent use.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// NewFromConfig builds the generator selected by cfg.AIProvider. Callers
// should close the result when it implements io.Closer.
func NewFromConfig(ctx context.Context, cfg config.Config) (Generator, error) {
	switch cfg.AIProvider {
	case config.ProviderGemini:
		return NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.AIMaxOutputTokens)
	case config.ProviderAnthropic:
		return NewClaudeGenerator(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.AIMaxOutputTokens), nil
	case config.ProviderBedrock:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithDefaultRegion(cfg.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("ai: unable to load AWS SDK config: %w", err)
		}
		return NewBedrockClaudeGenerator(awsCfg, cfg.BedrockModel, cfg.AIMaxOutputTokens), nil
	default:
		return nil, fmt.Errorf("ai: unknown provider %q", cfg.AIProvider)
	}
}
