package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"touchline/backend/internal/language"
)

type LanguageHandler struct{}

type languagesResponse struct {
	Default   string              `json:"default"`
	Languages []language.Language `json:"languages"`
}

func NewLanguageHandler() *LanguageHandler {
	return &LanguageHandler{}
}

func (h *LanguageHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/languages", h.List)
}

// List returns the supported languages in batch order.
// @Summary List languages
// @Tags languages
// @Produce json
// @Success 200 {object} languagesResponse
// @Router /languages [get]
func (h *LanguageHandler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, languagesResponse{Default: language.Default, Languages: language.Supported()})
}
