package service

import (
	"context"
	"encoding/json"
	"fmt"

	"touchline/backend/internal/language"
	"touchline/backend/internal/logger"
	"touchline/backend/internal/model"
	"touchline/backend/internal/service/ai"
)

// TranslateResult is the outcome of translating one article into one language.
type TranslateResult struct {
	Fields model.TranslationFields
	// Skipped is set when the provider was out of capacity and Fields is the source.
	Skipped bool
	// Fallbacks lists fields that kept the source value because the model output was unusable.
	Fallbacks []string
}

// Translator turns source fields into another language. It never persists.
type Translator interface {
	Translate(ctx context.Context, fields model.TranslationFields, fromLang, toLang string) (TranslateResult, error)
}

type translator struct {
	configs     AIConfigSource
	factory     ai.Factory
	rateLimiter *ai.RateLimiter
}

// NewTranslator creates a translator that builds its provider per call from configs.
func NewTranslator(configs AIConfigSource, factory ai.Factory, rateLimiter *ai.RateLimiter) Translator {
	if factory == nil {
		factory = ai.NewProvider
	}
	return &translator{configs: configs, factory: factory, rateLimiter: rateLimiter}
}

func (t *translator) Translate(ctx context.Context, fields model.TranslationFields, fromLang, toLang string) (TranslateResult, error) {
	if fromLang == toLang {
		return TranslateResult{Fields: fields}, nil
	}
	if !language.IsSupported(toLang) {
		return TranslateResult{}, &ValidationError{Field: "toLanguage", Message: "unsupported language " + toLang}
	}

	cfg, err := t.configs.AIConfig(ctx)
	if err != nil {
		return TranslateResult{}, fmt.Errorf("ai config: %w", err)
	}
	provider, err := t.factory(cfg)
	if err != nil {
		logger.Warn("ai provider create failed", "module", "service", "action", "translate", "resource", "ai", "result", "failed", "provider", cfg.Provider, "model", cfg.Model, "error", err)
		return TranslateResult{}, fmt.Errorf("create provider: %w", err)
	}

	if t.rateLimiter != nil {
		if err := t.rateLimiter.Wait(ctx); err != nil {
			return TranslateResult{}, fmt.Errorf("rate limit: %w", err)
		}
	}

	source := fields
	if source.Keywords == nil {
		source.Keywords = []string{}
	}
	payload, err := json.Marshal(source)
	if err != nil {
		return TranslateResult{}, fmt.Errorf("encode source: %w", err)
	}

	raw, err := provider.Complete(ctx, ai.GetArticleTranslatePrompt(fromLang, toLang), ai.WrapInput(string(payload)))
	if err != nil {
		if ai.IsCapacityError(err) {
			logger.Warn("ai capacity exhausted, translation skipped", "module", "service", "action", "translate", "resource", "ai", "result", "skipped", "from", fromLang, "to", toLang, "provider", cfg.Provider)
			return TranslateResult{Fields: fields, Skipped: true}, nil
		}
		logger.Warn("ai translate failed", "module", "service", "action", "translate", "resource", "ai", "result", "failed", "from", fromLang, "to", toLang, "provider", cfg.Provider, "error", err)
		return TranslateResult{}, fmt.Errorf("translate %s to %s: %w", fromLang, toLang, err)
	}

	parsed := ai.ParseTranslationResponse(raw, fields)
	if !parsed.Complete() {
		logger.Warn("ai translation partially unusable", "module", "service", "action", "translate", "resource", "ai", "result", "partial", "from", fromLang, "to", toLang, "fallbacks", parsed.Fallbacks)
	}
	return TranslateResult{Fields: parsed.Fields, Fallbacks: parsed.Fallbacks}, nil
}
