package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"touchline/backend/internal/config"
	"touchline/backend/internal/network"
	"touchline/backend/internal/repository"
	"touchline/backend/internal/service/ai"
)

// aiRequestTimeout bounds one completion call; full articles take a while.
const aiRequestTimeout = 3 * time.Minute

// ErrAINotConfigured is returned when neither settings nor env provide a usable provider.
var ErrAINotConfigured = errors.New("ai provider is not configured")

// AISettings holds the AI configuration.
type AISettings struct {
	Provider        string `json:"provider"`
	APIKey          string `json:"apiKey"`
	BaseURL         string `json:"baseUrl"`
	Model           string `json:"model"`
	Thinking        bool   `json:"thinking"`
	ThinkingBudget  int    `json:"thinkingBudget"`
	ReasoningEffort string `json:"reasoningEffort"`
	RateLimit       int    `json:"rateLimit"`
}

// Setting keys
const (
	keyAIProvider        = "ai.provider"
	keyAIAPIKey          = "ai.api_key"
	keyAIBaseURL         = "ai.base_url"
	keyAIModel           = "ai.model"
	keyAIThinking        = "ai.thinking"
	keyAIThinkingBudget  = "ai.thinking_budget"
	keyAIReasoningEffort = "ai.reasoning_effort"
	keyAIRateLimit       = "ai.rate_limit"
)

// AIConfigSource resolves the provider configuration for one call.
type AIConfigSource interface {
	AIConfig(ctx context.Context) (ai.Config, error)
}

// SettingsService provides settings management.
type SettingsService interface {
	AIConfigSource
	// GetAISettings returns the AI configuration with masked API keys.
	GetAISettings(ctx context.Context) (*AISettings, error)
	// SetAISettings updates the AI configuration.
	// If apiKey is empty string, it keeps the existing key.
	SetAISettings(ctx context.Context, settings *AISettings) error
	// TestAI tests the AI connection with the given configuration.
	TestAI(ctx context.Context, settings *AISettings) (string, error)
}

type settingsService struct {
	repo        repository.SettingsRepository
	fallback    config.AIConfig
	clients     *network.ClientFactory
	rateLimiter *ai.RateLimiter
	factory     ai.Factory
}

// NewSettingsService creates a new settings service. fallback supplies values
// for keys that are unset in the settings table.
func NewSettingsService(repo repository.SettingsRepository, fallback config.AIConfig, clients *network.ClientFactory, rateLimiter *ai.RateLimiter) SettingsService {
	return &settingsService{
		repo:        repo,
		fallback:    fallback,
		clients:     clients,
		rateLimiter: rateLimiter,
		factory:     ai.NewProvider,
	}
}

// GetAISettings returns the AI configuration with masked API keys.
func (s *settingsService) GetAISettings(ctx context.Context) (*AISettings, error) {
	values, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	settings := s.merge(values)
	settings.APIKey = maskAPIKey(settings.APIKey)
	return settings, nil
}

// SetAISettings updates the AI configuration.
func (s *settingsService) SetAISettings(ctx context.Context, settings *AISettings) error {
	if settings == nil {
		return ErrInvalid
	}
	if settings.Provider != "" {
		switch settings.Provider {
		case ai.ProviderOpenAI, ai.ProviderAnthropic, ai.ProviderCompatible:
		default:
			return &ValidationError{Field: "provider", Message: "unknown provider"}
		}
		if err := s.repo.Set(ctx, keyAIProvider, settings.Provider); err != nil {
			return fmt.Errorf("set provider: %w", err)
		}
	}
	if err := s.setAPIKey(ctx, keyAIAPIKey, settings.APIKey); err != nil {
		return fmt.Errorf("set api key: %w", err)
	}
	if err := s.repo.Set(ctx, keyAIBaseURL, settings.BaseURL); err != nil {
		return fmt.Errorf("set base url: %w", err)
	}
	if err := s.repo.Set(ctx, keyAIModel, settings.Model); err != nil {
		return fmt.Errorf("set model: %w", err)
	}
	if err := s.repo.Set(ctx, keyAIThinking, strconv.FormatBool(settings.Thinking)); err != nil {
		return fmt.Errorf("set thinking: %w", err)
	}
	if err := s.repo.Set(ctx, keyAIThinkingBudget, strconv.Itoa(settings.ThinkingBudget)); err != nil {
		return fmt.Errorf("set thinking budget: %w", err)
	}
	if err := s.repo.Set(ctx, keyAIReasoningEffort, settings.ReasoningEffort); err != nil {
		return fmt.Errorf("set reasoning effort: %w", err)
	}
	if settings.RateLimit > 0 {
		if err := s.repo.Set(ctx, keyAIRateLimit, strconv.Itoa(settings.RateLimit)); err != nil {
			return fmt.Errorf("set rate limit: %w", err)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.SetLimit(settings.RateLimit)
		}
	}
	return nil
}

// AIConfig builds the provider config from the settings table, falling back
// to environment values for unset keys.
func (s *settingsService) AIConfig(ctx context.Context) (ai.Config, error) {
	values, err := s.load(ctx)
	if err != nil {
		return ai.Config{}, err
	}
	settings := s.merge(values)
	if settings.APIKey == "" || settings.Model == "" {
		return ai.Config{}, ErrAINotConfigured
	}
	return s.toConfig(settings), nil
}

// TestAI tests the AI connection with the given configuration.
func (s *settingsService) TestAI(ctx context.Context, settings *AISettings) (string, error) {
	if settings == nil {
		return "", ErrInvalid
	}
	candidate := *settings
	// A masked key means the caller wants to reuse the stored one.
	if candidate.APIKey == "" || isMaskedKey(candidate.APIKey) {
		values, err := s.load(ctx)
		if err != nil {
			return "", fmt.Errorf("get stored api key: %w", err)
		}
		candidate.APIKey = s.merge(values).APIKey
	}

	p, err := s.factory(s.toConfig(&candidate))
	if err != nil {
		return "", err
	}
	return p.Test(ctx)
}

func (s *settingsService) load(ctx context.Context) (map[string]string, error) {
	settings, err := s.repo.GetByPrefix(ctx, "ai.")
	if err != nil {
		return nil, fmt.Errorf("get AI settings: %w", err)
	}
	values := make(map[string]string, len(settings))
	for _, setting := range settings {
		values[setting.Key] = setting.Value
	}
	return values, nil
}

func (s *settingsService) merge(values map[string]string) *AISettings {
	settings := &AISettings{
		Provider:        firstNonEmpty(values[keyAIProvider], s.fallback.Provider, ai.ProviderOpenAI),
		APIKey:          firstNonEmpty(values[keyAIAPIKey], s.fallback.APIKey),
		BaseURL:         firstNonEmpty(values[keyAIBaseURL], s.fallback.BaseURL),
		Model:           firstNonEmpty(values[keyAIModel], s.fallback.Model),
		Thinking:        values[keyAIThinking] == "true",
		ThinkingBudget:  10000,
		ReasoningEffort: values[keyAIReasoningEffort],
		RateLimit:       ai.DefaultRateLimit,
	}
	if n, err := strconv.Atoi(values[keyAIThinkingBudget]); err == nil && n > 0 {
		settings.ThinkingBudget = n
	}
	if s.rateLimiter != nil {
		settings.RateLimit = s.rateLimiter.GetLimit()
	}
	if n, err := strconv.Atoi(values[keyAIRateLimit]); err == nil && n > 0 {
		settings.RateLimit = n
	}
	return settings
}

func (s *settingsService) toConfig(settings *AISettings) ai.Config {
	cfg := ai.Config{
		Provider:        settings.Provider,
		APIKey:          settings.APIKey,
		BaseURL:         settings.BaseURL,
		Model:           settings.Model,
		Thinking:        settings.Thinking,
		ThinkingBudget:  settings.ThinkingBudget,
		ReasoningEffort: settings.ReasoningEffort,
	}
	if s.clients != nil {
		cfg.HTTPClient = s.clients.NewHTTPClient(aiRequestTimeout)
	}
	return cfg
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// maskAPIKey returns a masked version of the API key for display.
func maskAPIKey(apiKey string) string {
	if apiKey == "" {
		return ""
	}
	if len(apiKey) <= 8 {
		return "***"
	}
	// Find prefix (e.g., "sk-" for OpenAI)
	prefixEnd := 0
	for i, c := range apiKey {
		if c == '-' {
			prefixEnd = i + 1
			break
		}
		if i >= 4 {
			break
		}
	}
	return apiKey[:prefixEnd] + "***" + apiKey[len(apiKey)-3:]
}

// isMaskedKey checks if a string looks like a masked API key.
func isMaskedKey(key string) bool {
	if len(key) == 0 || len(key) >= 20 {
		return false
	}
	for i := 0; i <= len(key)-3; i++ {
		if key[i:i+3] == "***" {
			return true
		}
	}
	return false
}

// setAPIKey keeps the existing key when value is empty or masked.
func (s *settingsService) setAPIKey(ctx context.Context, key, value string) error {
	if value == "" || isMaskedKey(value) {
		return nil
	}
	return s.repo.Set(ctx, key, value)
}
