package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"touchline/backend/internal/cache"
	"touchline/backend/internal/model"
	"touchline/backend/internal/repository"
	"touchline/backend/internal/service"
)

type ArticleHandler struct {
	articles     service.ArticleService
	translations service.TranslationService
	resolver     *service.Resolver
	sessions     *cache.Sessions
	jobs         service.TranslationJobService
}

// Request/Response types

type articleResponse struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Subtitle         *string    `json:"subtitle,omitempty"`
	Summary          *string    `json:"summary,omitempty"`
	Content          string     `json:"content"`
	Category         string     `json:"category"`
	Keywords         []string   `json:"keywords"`
	ThumbnailURL     *string    `json:"thumbnailUrl,omitempty"`
	Author           *string    `json:"author,omitempty"`
	OriginalLanguage string     `json:"originalLanguage"`
	PublishedAt      *time.Time `json:"publishedAt,omitempty"`
	Published        bool       `json:"published"`
	ViewCount        int64      `json:"viewCount"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

type resolvedArticleResponse struct {
	articleResponse
	// Language is the language of the returned content; RequestedLanguage
	// differs from it while a translation is pending.
	Language          string `json:"language"`
	RequestedLanguage string `json:"requestedLanguage,omitempty"`
	Translated        bool   `json:"translated"`
	Pending           bool   `json:"pending"`
	Stale             bool   `json:"stale"`
	Translating       bool   `json:"translating"`
}

type articleListResponse struct {
	Articles []resolvedArticleResponse `json:"articles"`
	Limit    int                       `json:"limit"`
	Offset   int                       `json:"offset"`
}

type publishResponse struct {
	Article articleResponse `json:"article"`
}

type viewCountResponse struct {
	ViewCount int64 `json:"viewCount"`
}

type storedTranslationResponse struct {
	Language  string    `json:"language"`
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle"`
	Summary   string    `json:"summary"`
	Content   string    `json:"content"`
	Keywords  []string  `json:"keywords"`
	Stale     bool      `json:"stale"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewArticleHandler(
	articles service.ArticleService,
	translations service.TranslationService,
	resolver *service.Resolver,
	sessions *cache.Sessions,
	jobs service.TranslationJobService,
) *ArticleHandler {
	return &ArticleHandler{
		articles:     articles,
		translations: translations,
		resolver:     resolver,
		sessions:     sessions,
		jobs:         jobs,
	}
}

func (h *ArticleHandler) RegisterRoutes(g *echo.Group, guards Guards) {
	g.GET("/articles", h.List)
	g.GET("/articles/:id", h.Get, guards.Optional)
	g.POST("/articles/:id/view", h.IncrementViews)

	g.GET("/articles/all", h.ListAll, guards.Editor)
	g.POST("/articles", h.Create, guards.Editor)
	g.PUT("/articles/:id", h.Update, guards.Editor)
	g.POST("/articles/:id/publish", h.Publish, guards.Editor)
	g.POST("/articles/:id/retranslate", h.Retranslate, guards.Editor)
	g.GET("/articles/:id/translations", h.ListTranslations, guards.Editor)

	g.DELETE("/articles/:id", h.Delete, guards.Admin)
}

// List returns published articles resolved into the requested language.
// @Summary List published articles
// @Tags articles
// @Produce json
// @Param lang query string false "Display language"
// @Param category query string false "Category filter"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} articleListResponse
// @Router /articles [get]
func (h *ArticleHandler) List(c echo.Context) error {
	return h.list(c, true)
}

// ListAll includes drafts.
// @Summary List all articles
// @Tags articles
// @Produce json
// @Success 200 {object} articleListResponse
// @Failure 401 {object} errorResponse
// @Router /articles/all [get]
func (h *ArticleHandler) ListAll(c echo.Context) error {
	return h.list(c, false)
}

func (h *ArticleHandler) list(c echo.Context, publishedOnly bool) error {
	limit, offset := parsePagination(c)
	filter := repository.ArticleListFilter{PublishedOnly: publishedOnly, Limit: limit, Offset: offset}
	if category := strings.TrimSpace(c.QueryParam("category")); category != "" {
		filter.Category = &category
	}

	articles, err := h.articles.List(c.Request().Context(), filter)
	if err != nil {
		return writeServiceError(c, err)
	}

	sessionCache := h.sessions.Get(sessionID(c))
	lang := requestedLanguage(c)
	out := make([]resolvedArticleResponse, 0, len(articles))
	for _, a := range articles {
		out = append(out, h.resolve(c, sessionCache, a, lang))
	}
	return c.JSON(http.StatusOK, articleListResponse{Articles: out, Limit: limit, Offset: offset})
}

// Get returns one article in the requested language.
// @Summary Get article
// @Description Returns the stored translation for lang when one exists, otherwise the original with pending=true.
// @Tags articles
// @Produce json
// @Param id path string true "Article ID"
// @Param lang query string false "Display language"
// @Success 200 {object} resolvedArticleResponse
// @Failure 404 {object} errorResponse
// @Router /articles/{id} [get]
func (h *ArticleHandler) Get(c echo.Context) error {
	article, err := h.articles.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeServiceError(c, err)
	}
	if !article.Published && !canSeeDrafts(c) {
		return writeServiceError(c, service.ErrNotFound)
	}

	sessionCache := h.sessions.Get(sessionID(c))
	return c.JSON(http.StatusOK, h.resolve(c, sessionCache, article, requestedLanguage(c)))
}

// IncrementViews bumps the view counter.
// @Summary Record a view
// @Tags articles
// @Produce json
// @Param id path string true "Article ID"
// @Success 200 {object} viewCountResponse
// @Failure 404 {object} errorResponse
// @Router /articles/{id}/view [post]
func (h *ArticleHandler) IncrementViews(c echo.Context) error {
	count, err := h.articles.IncrementViews(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, viewCountResponse{ViewCount: count})
}

// Create saves a new article; published articles are queued for translation.
// @Summary Create article
// @Tags articles
// @Accept json
// @Produce json
// @Param request body service.ArticleInput true "Article"
// @Success 201 {object} articleResponse
// @Failure 400 {object} errorResponse
// @Router /articles [post]
func (h *ArticleHandler) Create(c echo.Context) error {
	var req service.ArticleInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
	}
	article, err := h.articles.Create(c.Request().Context(), req)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, toArticleResponse(article))
}

// Update saves edits without retranslating.
// @Summary Update article
// @Tags articles
// @Accept json
// @Produce json
// @Param id path string true "Article ID"
// @Param request body service.ArticleInput true "Article"
// @Success 200 {object} articleResponse
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /articles/{id} [put]
func (h *ArticleHandler) Update(c echo.Context) error {
	var req service.ArticleInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
	}
	article, err := h.articles.Update(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toArticleResponse(article))
}

// Publish marks an article published and queues translation.
// @Summary Publish article
// @Tags articles
// @Produce json
// @Param id path string true "Article ID"
// @Success 200 {object} publishResponse
// @Failure 404 {object} errorResponse
// @Router /articles/{id}/publish [post]
func (h *ArticleHandler) Publish(c echo.Context) error {
	article, err := h.articles.Publish(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, publishResponse{Article: toArticleResponse(article)})
}

// Retranslate reruns the batch for every target language and waits for it.
// @Summary Retranslate article
// @Tags articles
// @Produce json
// @Param id path string true "Article ID"
// @Success 200 {object} service.BatchResult
// @Failure 404 {object} errorResponse
// @Router /articles/{id}/retranslate [post]
func (h *ArticleHandler) Retranslate(c echo.Context) error {
	result, err := h.translations.Retranslate(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// ListTranslations returns stored rows with their staleness.
// @Summary List article translations
// @Tags articles
// @Produce json
// @Param id path string true "Article ID"
// @Success 200 {array} storedTranslationResponse
// @Failure 404 {object} errorResponse
// @Router /articles/{id}/translations [get]
func (h *ArticleHandler) ListTranslations(c echo.Context) error {
	rows, err := h.translations.ListForArticle(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeServiceError(c, err)
	}
	out := make([]storedTranslationResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, storedTranslationResponse{
			Language:  row.Language,
			Title:     row.Title,
			Subtitle:  row.Subtitle,
			Summary:   row.Summary,
			Content:   row.Content,
			Keywords:  nonNil(row.Keywords),
			Stale:     row.Stale,
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// Delete removes an article and its translations.
// @Summary Delete article
// @Tags articles
// @Param id path string true "Article ID"
// @Success 204
// @Failure 404 {object} errorResponse
// @Router /articles/{id} [delete]
func (h *ArticleHandler) Delete(c echo.Context) error {
	if err := h.articles.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ArticleHandler) resolve(c echo.Context, sessionCache *cache.TranslationCache, article model.Article, lang string) resolvedArticleResponse {
	res := h.resolver.Resolve(c.Request().Context(), sessionCache, article, lang)

	out := resolvedArticleResponse{
		articleResponse:   toArticleResponse(article),
		Language:          res.Language,
		RequestedLanguage: res.RequestedLanguage,
		Translated:        res.Translated,
		Pending:           res.Pending,
		Stale:             res.Stale,
	}
	if res.Translated {
		out.Title = res.Content.Title
		out.Subtitle = optional(res.Content.Subtitle)
		out.Summary = optional(res.Content.Summary)
		out.Content = res.Content.Content
		out.Keywords = nonNil(res.Content.Keywords)
	}
	// The store lookup has finished by the time a response is written, so the
	// only work still under way is a queued or running translation job.
	if res.Pending && h.jobs != nil {
		out.Translating = h.jobs.Active(article.ID)
	}
	return out
}

func toArticleResponse(a model.Article) articleResponse {
	return articleResponse{
		ID:               a.ID,
		Title:            a.Title,
		Subtitle:         a.Subtitle,
		Summary:          a.Summary,
		Content:          a.Content,
		Category:         a.Category,
		Keywords:         nonNil(a.Keywords),
		ThumbnailURL:     a.ThumbnailURL,
		Author:           a.Author,
		OriginalLanguage: a.OriginalLanguage,
		PublishedAt:      a.PublishedAt,
		Published:        a.Published,
		ViewCount:        a.ViewCount,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
