package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"touchline/backend/internal/language"
	"touchline/backend/internal/logger"
	"touchline/backend/internal/model"
	"touchline/backend/internal/repository"
)

// TranslateRequest is a single-language translation invocation.
type TranslateRequest struct {
	model.TranslationFields
	FromLanguage string `json:"fromLanguage"`
	ToLanguage   string `json:"toLanguage"`
	ArticleID    string `json:"articleId,omitempty"`
	SaveToDB     bool   `json:"saveToDb,omitempty"`
}

// TranslateResponse carries translated fields, or the source fields with a
// degradation marker.
type TranslateResponse struct {
	model.TranslationFields
	Skipped bool   `json:"_translationSkipped,omitempty"`
	Error   string `json:"_error,omitempty"`
}

// BatchRequest is the batch invocation payload.
type BatchRequest struct {
	ArticleID string `json:"articleId"`
	model.TranslationFields
	OriginalLanguage string `json:"originalLanguage"`
}

// StoredTranslation is a persisted row plus its staleness against the article.
type StoredTranslation struct {
	model.Translation
	Stale bool `json:"stale"`
}

type TranslationService interface {
	BatchRunner
	Translate(ctx context.Context, req TranslateRequest) (TranslateResponse, error)
	TranslateBatch(ctx context.Context, req BatchRequest) (BatchResult, error)
	// Lookup returns the persisted translation or ErrNotFound.
	Lookup(ctx context.Context, articleID, lang string) (*model.Translation, error)
	ListForArticle(ctx context.Context, articleID string) ([]StoredTranslation, error)
	// Retranslate reruns the full batch synchronously.
	Retranslate(ctx context.Context, articleID string) (BatchResult, error)
	ClearAll(ctx context.Context) (int64, error)
}

type translationService struct {
	translator   Translator
	orchestrator *Orchestrator
	articles     repository.ArticleRepository
	store        repository.TranslationRepository
}

func NewTranslationService(translator Translator, orchestrator *Orchestrator, articles repository.ArticleRepository, store repository.TranslationRepository) TranslationService {
	return &translationService{
		translator:   translator,
		orchestrator: orchestrator,
		articles:     articles,
		store:        store,
	}
}

func (s *translationService) Translate(ctx context.Context, req TranslateRequest) (TranslateResponse, error) {
	from := language.Normalize(req.FromLanguage)
	to := language.Normalize(req.ToLanguage)
	if !language.IsSupported(from) {
		return TranslateResponse{}, &ValidationError{Field: "fromLanguage", Message: "unsupported language " + req.FromLanguage}
	}
	if !language.IsSupported(to) {
		return TranslateResponse{}, &ValidationError{Field: "toLanguage", Message: "unsupported language " + req.ToLanguage}
	}
	if req.SaveToDB {
		if strings.TrimSpace(req.ArticleID) == "" {
			return TranslateResponse{}, &ValidationError{Field: "articleId", Message: "articleId is required with saveToDb"}
		}
		article, err := s.getArticle(ctx, req.ArticleID)
		if err != nil {
			return TranslateResponse{}, err
		}
		if to == article.OriginalLanguage {
			return TranslateResponse{}, &ValidationError{Field: "toLanguage", Message: "cannot save a translation in the article's original language"}
		}
	}

	res, err := s.translator.Translate(ctx, req.TranslationFields, from, to)
	if err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			return TranslateResponse{}, err
		}
		return TranslateResponse{TranslationFields: req.TranslationFields, Error: err.Error()}, nil
	}
	if res.Skipped {
		return TranslateResponse{TranslationFields: res.Fields, Skipped: true}, nil
	}

	if req.SaveToDB && from != to {
		if err := s.store.Upsert(ctx, req.ArticleID, to, res.Fields); err != nil {
			logger.Warn("translation save failed", "module", "service", "action", "save", "resource", "translation", "result", "failed", "article_id", req.ArticleID, "language", to, "error", err)
			return TranslateResponse{TranslationFields: res.Fields, Error: "save translation: " + err.Error()}, nil
		}
		logger.Info("translation saved", "module", "service", "action", "save", "resource", "translation", "result", "ok", "article_id", req.ArticleID, "language", to)
	}
	return TranslateResponse{TranslationFields: res.Fields}, nil
}

// TranslateBatch translates the given fields out of the stored article's
// original language. A request naming a different original is rejected.
func (s *translationService) TranslateBatch(ctx context.Context, req BatchRequest) (BatchResult, error) {
	if strings.TrimSpace(req.ArticleID) == "" {
		return BatchResult{}, &ValidationError{Field: "articleId", Message: "articleId is required"}
	}
	requested := language.Normalize(req.OriginalLanguage)
	if requested != "" && !language.IsSupported(requested) {
		return BatchResult{}, &ValidationError{Field: "originalLanguage", Message: "unsupported language " + req.OriginalLanguage}
	}

	article, err := s.getArticle(ctx, req.ArticleID)
	if err != nil {
		return BatchResult{}, err
	}
	if requested != "" && requested != article.OriginalLanguage {
		return BatchResult{}, &ValidationError{Field: "originalLanguage", Message: "article is written in " + article.OriginalLanguage}
	}

	return s.orchestrator.TranslateAllLanguages(ctx, BatchInput{
		ArticleID:        article.ID,
		Fields:           req.TranslationFields,
		OriginalLanguage: article.OriginalLanguage,
	}), nil
}

// RunBatch reloads the article so a queued job sees the latest saved fields.
func (s *translationService) RunBatch(ctx context.Context, articleID string) (BatchResult, error) {
	article, err := s.getArticle(ctx, articleID)
	if err != nil {
		return BatchResult{}, err
	}
	return s.orchestrator.TranslateAllLanguages(ctx, BatchInput{
		ArticleID:        article.ID,
		Fields:           article.Fields(),
		OriginalLanguage: article.OriginalLanguage,
	}), nil
}

func (s *translationService) Retranslate(ctx context.Context, articleID string) (BatchResult, error) {
	return s.RunBatch(ctx, articleID)
}

func (s *translationService) Lookup(ctx context.Context, articleID, lang string) (*model.Translation, error) {
	t, err := s.store.Get(ctx, articleID, language.Normalize(lang))
	if err != nil {
		return nil, fmt.Errorf("get translation: %w", err)
	}
	if t == nil {
		return nil, ErrNotFound
	}
	return t, nil
}

func (s *translationService) ListForArticle(ctx context.Context, articleID string) ([]StoredTranslation, error) {
	article, err := s.getArticle(ctx, articleID)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.ListByArticle(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("list translations: %w", err)
	}
	out := make([]StoredTranslation, 0, len(rows))
	for _, t := range rows {
		out = append(out, StoredTranslation{Translation: t, Stale: t.StaleFor(article)})
	}
	return out, nil
}

func (s *translationService) ClearAll(ctx context.Context) (int64, error) {
	deleted, err := s.store.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear translations: %w", err)
	}
	logger.Info("translations cleared", "module", "service", "action", "clear", "resource", "translation", "result", "ok", "deleted", deleted)
	return deleted, nil
}

func (s *translationService) getArticle(ctx context.Context, articleID string) (model.Article, error) {
	article, err := s.articles.GetByID(ctx, articleID)
	if err != nil {
		if isNoRows(err) {
			return model.Article{}, ErrNotFound
		}
		return model.Article{}, fmt.Errorf("get article: %w", err)
	}
	return article, nil
}
