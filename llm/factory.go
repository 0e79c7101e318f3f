package llm

import (
	"context"
	"fmt"
	"time"
)

// Config selects and configures a provider
type Config struct {
	Provider      string // "gemini" or "openai"
	GeminiAPIKey  string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	Model         string
	Timeout       time.Duration
}

// NewClient builds the configured provider's client.
// It returns ErrNotConfigured when the provider's credential is missing.
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	switch cfg.Provider {
	case "", "gemini":
		c, err := NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "openai":
		c, err := NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.Model, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}
