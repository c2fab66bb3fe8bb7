package ai

import (
	"context"
	"errors"
	"net/http"
)

// Provider defines the interface for AI providers.
type Provider interface {
	// Test sends a test message and returns the response.
	Test(ctx context.Context) (string, error)
	// Name returns the provider name.
	Name() string
	// Complete generates a response without streaming.
	Complete(ctx context.Context, systemPrompt, content string) (string, error)
}

// Config holds the configuration for an AI provider.
type Config struct {
	Provider        string // openai, anthropic, compatible
	APIKey          string
	BaseURL         string // optional for openai, required for compatible
	Model           string
	Thinking        bool   // enable thinking/reasoning
	ThinkingBudget  int    // Anthropic/Compatible budget_tokens
	ReasoningEffort string // OpenAI/Compatible effort: low/medium/high/minimal
	MaxTokens       int    // completion cap; 0 uses DefaultMaxTokens
	HTTPClient      *http.Client
}

// DefaultMaxTokens leaves room for a full article body in the target language.
const DefaultMaxTokens = 8192

// ProviderType constants
const (
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderCompatible = "compatible"
)

var (
	ErrInvalidProvider = errors.New("invalid provider")
	ErrMissingAPIKey   = errors.New("API key is required")
	ErrMissingBaseURL  = errors.New("base URL is required for compatible provider")
	ErrMissingModel    = errors.New("model is required")
)

// Factory builds a Provider from a Config. NewProvider is the production factory.
type Factory func(cfg Config) (Provider, error)

// NewProvider creates a new AI provider based on the config.
func NewProvider(cfg Config) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		return nil, ErrMissingModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg), nil
	case ProviderAnthropic:
		return NewAnthropicProvider(cfg), nil
	case ProviderCompatible:
		if cfg.BaseURL == "" {
			return nil, ErrMissingBaseURL
		}
		return NewCompatibleProvider(cfg), nil
	default:
		return nil, ErrInvalidProvider
	}
}
