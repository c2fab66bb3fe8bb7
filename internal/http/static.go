package http

import (
	"errors"
	nethttp "net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"touchline/backend/internal/logger"
	"touchline/backend/internal/service"
)

// staticIndex returns dir/index.html, or "" when dir has no SPA build.
func staticIndex(dir string) string {
	if dir == "" {
		return ""
	}
	indexPath := filepath.Join(dir, "index.html")
	info, err := os.Stat(indexPath)
	if err != nil || info.IsDir() {
		logger.Warn("static index missing", "module", "http", "action", "request", "resource", "http", "result", "failed", "path", indexPath)
		return ""
	}
	return indexPath
}

// registerShare serves article links. Crawlers get a meta-tag page in the
// article's original language; browsers get the SPA, which resolves the
// display language itself. Without a SPA build everyone gets the meta page.
func registerShare(e *echo.Echo, share service.ShareService, indexPath string) {
	e.GET("/article/:id", func(c echo.Context) error {
		if indexPath != "" && !service.IsCrawler(c.Request().UserAgent()) {
			return c.File(indexPath)
		}

		id := c.Param("id")
		page, err := share.RenderArticle(c.Request().Context(), id)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				logger.Debug("share page missing", "module", "http", "action", "fetch", "resource", "share", "result", "failed", "article_id", id)
				return c.HTMLBlob(nethttp.StatusNotFound, share.RenderNotFound())
			}
			logger.Error("share page render", "module", "http", "action", "fetch", "resource", "share", "result", "failed", "article_id", id, "error", err)
			return c.HTMLBlob(nethttp.StatusInternalServerError, share.RenderNotFound())
		}

		c.Response().Header().Set(echo.HeaderCacheControl, service.ShareCacheControl)
		logger.Debug("share page served", "module", "http", "action", "fetch", "resource", "share", "result", "ok", "article_id", id, "user_agent", c.Request().UserAgent())
		return c.HTMLBlob(nethttp.StatusOK, page)
	})
}

func registerStatic(e *echo.Echo, dir, indexPath string) {
	if indexPath == "" {
		return
	}

	logger.Info("static assets enabled", "module", "http", "action", "request", "resource", "http", "result", "ok", "dir", dir)

	fileServer := nethttp.FileServer(nethttp.Dir(dir))

	e.GET("/*", func(c echo.Context) error {
		requestPath := c.Request().URL.Path
		if requestPath == "/api" || strings.HasPrefix(requestPath, "/api/") {
			return echo.ErrNotFound
		}

		cleanPath := strings.TrimPrefix(path.Clean(requestPath), "/")
		if cleanPath == "." || cleanPath == "" {
			return c.File(indexPath)
		}

		candidate := filepath.Join(dir, cleanPath)
		fileInfo, err := os.Stat(candidate)
		if err == nil && !fileInfo.IsDir() {
			logger.Debug("static file served", "module", "http", "action", "fetch", "resource", "http", "result", "ok", "path", requestPath)
			fileServer.ServeHTTP(c.Response(), c.Request())
			return nil
		}

		logger.Debug("static fallback", "module", "http", "action", "fetch", "resource", "http", "result", "ok", "path", requestPath)
		return c.File(indexPath)
	})
}
