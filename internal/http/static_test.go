package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"touchline/backend/internal/service"
)

const crawlerUA = "facebookexternalhit/1.1 (+http://www.facebook.com/externalhit_uatext.php)"

type stubShare struct {
	pages map[string]string
}

func (s stubShare) RenderArticle(_ context.Context, id string) ([]byte, error) {
	page, ok := s.pages[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	return []byte(page), nil
}

func (s stubShare) RenderNotFound() []byte {
	return []byte("<html>missing</html>")
}

func newStaticDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>spa</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))
	return dir
}

func newSiteEcho(t *testing.T, dir string) *echo.Echo {
	t.Helper()
	e := echo.New()
	indexPath := staticIndex(dir)
	registerShare(e, stubShare{pages: map[string]string{"a1": "<html>og</html>"}}, indexPath)
	registerStatic(e, dir, indexPath)
	return e
}

func get(e *echo.Echo, path, userAgent string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	return serve(e, req)
}

func TestShare_CrawlerGetsMetaPage(t *testing.T) {
	e := newSiteEcho(t, newStaticDir(t))

	rec := get(e, "/article/a1", crawlerUA)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "<html>og</html>", rec.Body.String())
	require.Equal(t, service.ShareCacheControl, rec.Header().Get(echo.HeaderCacheControl))

	rec = get(e, "/article/missing", "Twitterbot/1.0")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "<html>missing</html>", rec.Body.String())
}

func TestShare_BrowserGetsSPA(t *testing.T) {
	e := newSiteEcho(t, newStaticDir(t))

	rec := get(e, "/article/a1", "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_0)")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "<html>spa</html>", rec.Body.String())
	require.Empty(t, rec.Header().Get(echo.HeaderCacheControl))
}

func TestShare_NoSPAServesMetaPage(t *testing.T) {
	e := newSiteEcho(t, "")

	rec := get(e, "/article/a1", "Mozilla/5.0")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "<html>og</html>", rec.Body.String())
}

func TestStatic_FilesAndFallback(t *testing.T) {
	e := newSiteEcho(t, newStaticDir(t))

	rec := get(e, "/app.js", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "console.log(1)", rec.Body.String())

	rec = get(e, "/matches/today", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "<html>spa</html>", rec.Body.String())

	rec = get(e, "/api/unknown", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
