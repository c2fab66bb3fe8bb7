package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"touchline/backend/internal/language"
	"touchline/backend/internal/logger"
	"touchline/backend/internal/model"
	"touchline/backend/internal/repository"
)

const maxKeywords = 20

// ArticleInput is the editable part of an article.
type ArticleInput struct {
	Title            string   `json:"title"`
	Subtitle         *string  `json:"subtitle"`
	Summary          *string  `json:"summary"`
	Content          string   `json:"content"`
	Category         string   `json:"category"`
	Keywords         []string `json:"keywords"`
	ThumbnailURL     *string  `json:"thumbnailUrl"`
	Author           *string  `json:"author"`
	OriginalLanguage string   `json:"originalLanguage"`
	Published        bool     `json:"published"`
}

// JobSubmitter queues background batch translation for an article.
type JobSubmitter interface {
	Submit(articleID string) (string, error)
}

type ArticleService interface {
	Create(ctx context.Context, in ArticleInput) (model.Article, error)
	// Update saves edits. It never triggers translation; existing
	// translations become stale.
	Update(ctx context.Context, id string, in ArticleInput) (model.Article, error)
	Get(ctx context.Context, id string) (model.Article, error)
	List(ctx context.Context, filter repository.ArticleListFilter) ([]model.Article, error)
	Delete(ctx context.Context, id string) error
	Publish(ctx context.Context, id string) (model.Article, error)
	IncrementViews(ctx context.Context, id string) (int64, error)
}

type articleService struct {
	repo repository.ArticleRepository
	jobs JobSubmitter
	now  func() time.Time
}

func NewArticleService(repo repository.ArticleRepository, jobs JobSubmitter) ArticleService {
	return &articleService{repo: repo, jobs: jobs, now: time.Now}
}

func (s *articleService) Create(ctx context.Context, in ArticleInput) (model.Article, error) {
	in.OriginalLanguage = language.Normalize(in.OriginalLanguage)
	if in.OriginalLanguage == "" {
		in.OriginalLanguage = language.Default
	}
	if err := validateArticle(in); err != nil {
		return model.Article{}, err
	}

	now := s.now().UTC()
	article := model.Article{
		ID:               uuid.New().String(),
		OriginalLanguage: in.OriginalLanguage,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	applyInput(&article, in)
	if in.Published {
		article.Published = true
		article.PublishedAt = &now
	}

	if err := s.repo.Create(ctx, article); err != nil {
		return model.Article{}, fmt.Errorf("create article: %w", err)
	}
	logger.Info("article created", "module", "service", "action", "create", "resource", "article", "result", "ok", "article_id", article.ID, "language", article.OriginalLanguage, "published", article.Published)

	if article.Published {
		s.submit(article.ID)
	}
	return article, nil
}

func (s *articleService) Update(ctx context.Context, id string, in ArticleInput) (model.Article, error) {
	article, err := s.Get(ctx, id)
	if err != nil {
		return model.Article{}, err
	}

	if lang := language.Normalize(in.OriginalLanguage); lang != "" && lang != article.OriginalLanguage {
		return model.Article{}, &ValidationError{Field: "originalLanguage", Message: "original language cannot change"}
	}
	in.OriginalLanguage = article.OriginalLanguage
	if err := validateArticle(in); err != nil {
		return model.Article{}, err
	}

	applyInput(&article, in)
	article.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, article); err != nil {
		if isNoRows(err) {
			return model.Article{}, ErrNotFound
		}
		return model.Article{}, fmt.Errorf("update article: %w", err)
	}
	logger.Info("article updated", "module", "service", "action", "update", "resource", "article", "result", "ok", "article_id", id)
	return article, nil
}

func (s *articleService) Get(ctx context.Context, id string) (model.Article, error) {
	article, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return model.Article{}, ErrNotFound
		}
		return model.Article{}, fmt.Errorf("get article: %w", err)
	}
	return article, nil
}

func (s *articleService) List(ctx context.Context, filter repository.ArticleListFilter) ([]model.Article, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	articles, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return articles, nil
}

func (s *articleService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if isNoRows(err) {
			return ErrNotFound
		}
		return fmt.Errorf("delete article: %w", err)
	}
	logger.Info("article deleted", "module", "service", "action", "delete", "resource", "article", "result", "ok", "article_id", id)
	return nil
}

// Publish marks the article published and queues translation. Publishing an
// already published article queues translation again.
func (s *articleService) Publish(ctx context.Context, id string) (model.Article, error) {
	if err := s.repo.SetPublished(ctx, id, s.now().UTC()); err != nil {
		if isNoRows(err) {
			return model.Article{}, ErrNotFound
		}
		return model.Article{}, fmt.Errorf("publish article: %w", err)
	}
	article, err := s.Get(ctx, id)
	if err != nil {
		return model.Article{}, err
	}
	logger.Info("article published", "module", "service", "action", "publish", "resource", "article", "result", "ok", "article_id", id)
	s.submit(id)
	return article, nil
}

func (s *articleService) IncrementViews(ctx context.Context, id string) (int64, error) {
	count, err := s.repo.IncrementViews(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("increment views: %w", err)
	}
	return count, nil
}

// submit never fails the caller; the save already happened.
func (s *articleService) submit(articleID string) {
	if s.jobs == nil {
		return
	}
	jobID, err := s.jobs.Submit(articleID)
	if err != nil {
		logger.Warn("translation job submit failed", "module", "service", "action", "submit", "resource", "translation_job", "result", "failed", "article_id", articleID, "error", err)
		return
	}
	logger.Info("translation job submitted", "module", "service", "action", "submit", "resource", "translation_job", "result", "ok", "article_id", articleID, "job_id", jobID)
}

func validateArticle(in ArticleInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if strings.TrimSpace(in.Content) == "" {
		return &ValidationError{Field: "content", Message: "content is required"}
	}
	if strings.TrimSpace(in.Category) == "" {
		return &ValidationError{Field: "category", Message: "category is required"}
	}
	if !language.IsSupported(in.OriginalLanguage) {
		return &ValidationError{Field: "originalLanguage", Message: "unsupported language " + in.OriginalLanguage}
	}
	if len(in.Keywords) > maxKeywords {
		return &ValidationError{Field: "keywords", Message: fmt.Sprintf("at most %d keywords", maxKeywords)}
	}
	return nil
}

func applyInput(a *model.Article, in ArticleInput) {
	a.Title = strings.TrimSpace(in.Title)
	a.Subtitle = trimmedPtr(in.Subtitle)
	a.Summary = trimmedPtr(in.Summary)
	a.Content = in.Content
	a.Category = strings.TrimSpace(in.Category)
	a.ThumbnailURL = trimmedPtr(in.ThumbnailURL)
	a.Author = trimmedPtr(in.Author)

	a.Keywords = make([]string, 0, len(in.Keywords))
	for _, k := range in.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			a.Keywords = append(a.Keywords, k)
		}
	}
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func trimmedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
