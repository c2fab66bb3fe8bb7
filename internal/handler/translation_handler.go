package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"touchline/backend/internal/service"
)

type TranslationHandler struct {
	service service.TranslationService
	jobs    service.TranslationJobService
}

type translationResponse struct {
	ArticleID string    `json:"articleId"`
	Language  string    `json:"language"`
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle"`
	Summary   string    `json:"summary"`
	Content   string    `json:"content"`
	Keywords  []string  `json:"keywords"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewTranslationHandler(service service.TranslationService, jobs service.TranslationJobService) *TranslationHandler {
	return &TranslationHandler{service: service, jobs: jobs}
}

func (h *TranslationHandler) RegisterRoutes(g *echo.Group, guards Guards) {
	g.GET("/translations/:articleId/:lang", h.Lookup)

	g.POST("/translate", h.Translate, guards.Editor)
	g.POST("/translate/batch", h.TranslateBatch, guards.Editor)
	g.GET("/translation-jobs/:id", h.GetJob, guards.Editor)

	g.DELETE("/translations", h.ClearAll, guards.Admin)
}

// Lookup returns the persisted translation for an article and language.
// @Summary Get stored translation
// @Tags translations
// @Produce json
// @Param articleId path string true "Article ID"
// @Param lang path string true "Language code"
// @Success 200 {object} translationResponse
// @Failure 404 {object} errorResponse
// @Router /translations/{articleId}/{lang} [get]
func (h *TranslationHandler) Lookup(c echo.Context) error {
	t, err := h.service.Lookup(c.Request().Context(), c.Param("articleId"), c.Param("lang"))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, translationResponse{
		ArticleID: t.ArticleID,
		Language:  t.Language,
		Title:     t.Title,
		Subtitle:  t.Subtitle,
		Summary:   t.Summary,
		Content:   t.Content,
		Keywords:  nonNil(t.Keywords),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	})
}

// Translate translates one article into one language.
// @Summary Translate fields
// @Description Degraded results return the source fields with _translationSkipped or _error set.
// @Tags translations
// @Accept json
// @Produce json
// @Param request body service.TranslateRequest true "Translate request"
// @Success 200 {object} service.TranslateResponse
// @Failure 400 {object} errorResponse
// @Router /translate [post]
func (h *TranslationHandler) Translate(c echo.Context) error {
	var req service.TranslateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
	}
	resp, err := h.service.Translate(c.Request().Context(), req)
	if err != nil {
		return writeServiceError(c, err)
	}
	resp.Keywords = nonNil(resp.Keywords)
	return c.JSON(http.StatusOK, resp)
}

// TranslateBatch translates an article into every other supported language.
// @Summary Batch translate
// @Tags translations
// @Accept json
// @Produce json
// @Param request body service.BatchRequest true "Batch request"
// @Success 200 {object} service.BatchResult
// @Failure 400 {object} errorResponse
// @Router /translate/batch [post]
func (h *TranslationHandler) TranslateBatch(c echo.Context) error {
	var req service.BatchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
	}
	result, err := h.service.TranslateBatch(c.Request().Context(), req)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// GetJob reports a background translation job.
// @Summary Get translation job
// @Tags translations
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} service.TranslationJob
// @Failure 404 {object} errorResponse
// @Router /translation-jobs/{id} [get]
func (h *TranslationHandler) GetJob(c echo.Context) error {
	job := h.jobs.Get(c.Param("id"))
	if job == nil {
		return writeServiceError(c, service.ErrNotFound)
	}
	return c.JSON(http.StatusOK, job)
}

// ClearAll deletes every stored translation.
// @Summary Clear translations
// @Tags translations
// @Produce json
// @Success 200 {object} deletedCountResponse
// @Router /translations [delete]
func (h *TranslationHandler) ClearAll(c echo.Context) error {
	deleted, err := h.service.ClearAll(c.Request().Context())
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, deletedCountResponse{Deleted: deleted})
}
