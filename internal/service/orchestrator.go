package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"touchline/backend/internal/language"
	"touchline/backend/internal/logger"
	"touchline/backend/internal/model"
	"touchline/backend/internal/repository"
)

// DefaultTranslationDelay spaces consecutive languages in a batch.
const DefaultTranslationDelay = time.Second

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// BatchInput is an article to translate into every other supported language.
type BatchInput struct {
	ArticleID        string
	Fields           model.TranslationFields
	OriginalLanguage string
}

// BatchResult reports per-language outcomes. Results has one entry per target.
type BatchResult struct {
	Success bool              `json:"success"`
	Results map[string]string `json:"results"`
	Errors  []string          `json:"errors,omitempty"`
}

// Orchestrator translates an article into all target languages, one at a time.
type Orchestrator struct {
	translator Translator
	store      repository.TranslationRepository
	delay      time.Duration
	sleep      func(ctx context.Context, d time.Duration)
}

type OrchestratorOption func(*Orchestrator)

// WithSleep replaces the pause between languages.
func WithSleep(sleep func(ctx context.Context, d time.Duration)) OrchestratorOption {
	return func(o *Orchestrator) {
		o.sleep = sleep
	}
}

func NewOrchestrator(translator Translator, store repository.TranslationRepository, delay time.Duration, opts ...OrchestratorOption) *Orchestrator {
	if delay < 0 {
		delay = DefaultTranslationDelay
	}
	o := &Orchestrator{
		translator: translator,
		store:      store,
		delay:      delay,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// TranslateAllLanguages runs the batch. A failing language is recorded and the
// loop moves on; languages that succeeded stay persisted.
func (o *Orchestrator) TranslateAllLanguages(ctx context.Context, in BatchInput) BatchResult {
	targets := language.Targets(in.OriginalLanguage)
	result := BatchResult{Results: make(map[string]string, len(targets))}

	for i, lang := range targets {
		if i > 0 && o.delay > 0 {
			o.sleep(ctx, o.delay)
		}
		if err := o.translateOne(ctx, in, lang); err != nil {
			result.Results[lang] = StatusFailed
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", lang, err.Error()))
			logger.Warn("batch translation failed", "module", "service", "action", "translate", "resource", "translation", "result", "failed", "article_id", in.ArticleID, "language", lang, "error", err)
			continue
		}
		result.Results[lang] = StatusSuccess
	}

	result.Success = len(result.Errors) == 0
	logger.Info("batch translation finished", "module", "service", "action", "translate", "resource", "translation", "result", batchOutcome(result), "article_id", in.ArticleID, "languages", len(targets), "failed", len(result.Errors))
	return result
}

func (o *Orchestrator) translateOne(ctx context.Context, in BatchInput, lang string) error {
	res, err := o.translator.Translate(ctx, in.Fields, in.OriginalLanguage, lang)
	if err != nil {
		return err
	}
	if res.Skipped {
		return errTranslationSkipped
	}
	if err := o.store.Upsert(ctx, in.ArticleID, lang, res.Fields); err != nil {
		return fmt.Errorf("save translation: %w", err)
	}
	return nil
}

var errTranslationSkipped = errors.New("translation skipped: ai provider capacity exhausted")

func batchOutcome(r BatchResult) string {
	switch {
	case r.Success:
		return "ok"
	case len(r.Errors) == len(r.Results):
		return "failed"
	default:
		return "partial"
	}
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
