package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "touchline/backend/docs"
	"touchline/backend/internal/handler"
	"touchline/backend/internal/service"
)

func NewRouter(
	languageHandler *handler.LanguageHandler,
	articleHandler *handler.ArticleHandler,
	translationHandler *handler.TranslationHandler,
	settingsHandler *handler.SettingsHandler,
	authService service.AuthService,
	shareService service.ShareService,
	staticDir string,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(RequestLoggerMiddleware())

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	guards := NewGuards(authService)

	api := e.Group("/api")
	languageHandler.RegisterRoutes(api)
	articleHandler.RegisterRoutes(api, guards)
	translationHandler.RegisterRoutes(api, guards)
	settingsHandler.RegisterRoutes(api, guards)

	indexPath := staticIndex(staticDir)
	registerShare(e, shareService, indexPath)
	registerStatic(e, staticDir, indexPath)

	return e
}
