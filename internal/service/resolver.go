package service

import (
	"context"

	"golang.org/x/sync/singleflight"

	"touchline/backend/internal/cache"
	"touchline/backend/internal/language"
	"touchline/backend/internal/logger"
	"touchline/backend/internal/model"
	"touchline/backend/internal/repository"
)

// Resolution is what a reader sees for an article in a requested language.
type Resolution struct {
	Content model.TranslationFields `json:"content"`
	// Language is the language Content is written in.
	Language string `json:"language"`
	// RequestedLanguage is the normalized language the caller asked for, or ""
	// when none was given.
	RequestedLanguage string `json:"requestedLanguage"`
	// Translated is false when Content is the original.
	Translated bool `json:"translated"`
	// Pending means a translation was wanted but none is stored yet.
	Pending bool `json:"pending"`
	// Stale means the article changed after the translation was written.
	Stale bool `json:"stale"`
}

// Resolver picks display content for the read path. It never fails.
// Concurrent lookups of the same (article, language) share one store read.
type Resolver struct {
	store repository.TranslationRepository
	group singleflight.Group
}

func NewResolver(store repository.TranslationRepository) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the article in lang. sessionCache may be nil.
func (r *Resolver) Resolve(ctx context.Context, sessionCache *cache.TranslationCache, article model.Article, lang string) Resolution {
	lang = language.Normalize(lang)
	if lang == "" || lang == article.OriginalLanguage || !language.IsSupported(lang) {
		return original(article, lang, false)
	}

	if sessionCache != nil {
		if t, ok := sessionCache.Get(article.ID, lang); ok {
			return translated(article, t)
		}
	}

	t, err := r.lookup(ctx, article.ID, lang)
	if err != nil {
		logger.Warn("translation lookup failed", "module", "service", "action", "resolve", "resource", "translation", "result", "failed", "article_id", article.ID, "language", lang, "error", err)
		return original(article, lang, true)
	}
	if t == nil {
		return original(article, lang, true)
	}

	if sessionCache != nil {
		sessionCache.Set(*t)
	}
	return translated(article, *t)
}

func (r *Resolver) lookup(ctx context.Context, articleID, lang string) (*model.Translation, error) {
	// The read is shared, so one caller going away must not fail the others.
	shared := context.WithoutCancel(ctx)
	v, err, _ := r.group.Do(lookupKey(articleID, lang), func() (any, error) {
		return r.store.Get(shared, articleID, lang)
	})
	if err != nil {
		return nil, err
	}
	t, _ := v.(*model.Translation)
	return t, nil
}

func lookupKey(articleID, lang string) string {
	return articleID + "\x00" + lang
}

func original(article model.Article, requested string, pending bool) Resolution {
	return Resolution{
		Content:           article.Fields(),
		Language:          article.OriginalLanguage,
		RequestedLanguage: requested,
		Pending:           pending,
	}
}

func translated(article model.Article, t model.Translation) Resolution {
	return Resolution{
		Content:           t.TranslationFields,
		Language:          t.Language,
		RequestedLanguage: t.Language,
		Translated:        true,
		Stale:             t.StaleFor(article),
	}
}
