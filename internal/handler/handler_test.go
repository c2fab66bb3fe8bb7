package handler_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"touchline/backend/internal/cache"
	"touchline/backend/internal/config"
	"touchline/backend/internal/handler"
	"touchline/backend/internal/model"
	"touchline/backend/internal/network"
	"touchline/backend/internal/repository"
	"touchline/backend/internal/repository/testutil"
	"touchline/backend/internal/service"
	"touchline/backend/internal/service/ai"
)

const roleHeader = "X-Test-Role"

// fakeTranslator prefixes titles with the target language.
type fakeTranslator struct {
	err     error
	skipped bool
}

func (f fakeTranslator) Translate(_ context.Context, fields model.TranslationFields, _, to string) (service.TranslateResult, error) {
	if f.err != nil {
		return service.TranslateResult{}, f.err
	}
	if f.skipped {
		return service.TranslateResult{Fields: fields, Skipped: true}, nil
	}
	out := fields
	out.Title = "[" + to + "] " + fields.Title
	return service.TranslateResult{Fields: out}, nil
}

// roleGuard stands in for the JWT middleware: the role comes from a header.
func roleGuard(min string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := c.Request().Header.Get(roleHeader)
			if role != "" {
				c.Set(handler.PrincipalKey, &service.Principal{Subject: "tester", Role: role})
			}
			if min == "" {
				return next(c)
			}
			if role == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing authentication"})
			}
			p, _ := c.Get(handler.PrincipalKey).(*service.Principal)
			if !p.HasRole(min) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

type fixture struct {
	e     *echo.Echo
	db    *sql.DB
	store repository.TranslationRepository
	jobs  service.TranslationJobService
}

func newFixture(t *testing.T, translator service.Translator) *fixture {
	t.Helper()

	database := testutil.NewTestDB(t)
	articleRepo := repository.NewArticleRepository(database)
	store := repository.NewTranslationRepository(database)

	orchestrator := service.NewOrchestrator(translator, store, 0, service.WithSleep(func(context.Context, time.Duration) {}))
	translations := service.NewTranslationService(translator, orchestrator, articleRepo, store)
	// The worker is never started, so submitted jobs stay queued.
	jobs := service.NewTranslationJobService(translations, 8)
	articles := service.NewArticleService(articleRepo, jobs)
	settings := service.NewSettingsService(
		repository.NewSettingsRepository(database),
		config.AIConfig{},
		network.NewClientFactory(""),
		ai.NewRateLimiter(10),
	)

	guards := handler.Guards{
		Optional: roleGuard(""),
		Editor:   roleGuard(service.RoleEditor),
		Admin:    roleGuard(service.RoleAdmin),
	}

	e := echo.New()
	api := e.Group("/api")
	handler.NewLanguageHandler().RegisterRoutes(api)
	handler.NewArticleHandler(articles, translations, service.NewResolver(store), cache.NewSessions(time.Hour, 0), jobs).RegisterRoutes(api, guards)
	handler.NewTranslationHandler(translations, jobs).RegisterRoutes(api, guards)
	handler.NewSettingsHandler(settings, network.NewClientFactory("")).RegisterRoutes(api, guards)

	return &fixture{e: e, db: database, store: store, jobs: jobs}
}

func (f *fixture) do(t *testing.T, method, path, role, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if role != "" {
		req.Header.Set(roleHeader, role)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (f *fixture) seedPublished(t *testing.T, title string) model.Article {
	t.Helper()
	now := time.Now().UTC()
	return testutil.SeedArticle(t, f.db, model.Article{
		Title:       title,
		Summary:     testutil.StringPtr("Summary"),
		Published:   true,
		PublishedAt: &now,
	})
}

func TestLanguages(t *testing.T) {
	f := newFixture(t, fakeTranslator{})

	rec := f.do(t, http.MethodGet, "/api/languages", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	require.Equal(t, "en", body["default"])
	require.Len(t, body["languages"], 4)
}

func TestGetArticle_OriginalLanguage(t *testing.T) {
	f := newFixture(t, fakeTranslator{})
	article := f.seedPublished(t, "Derby day")

	rec := f.do(t, http.MethodGet, "/api/articles/"+article.ID+"?lang=en", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	require.Equal(t, "Derby day", body["title"])
	require.Equal(t, "en", body["language"])
	require.Equal(t, false, body["translated"])
	require.Equal(t, false, body["pending"])
}

func TestGetArticle_StoredTranslation(t *testing.T) {
	f := newFixture(t, fakeTranslator{})
	article := f.seedPublished(t, "Derby day")
	require.NoError(t, f.store.Upsert(context.Background(), article.ID, "fr", model.TranslationFields{
		Title:   "Jour de derby",
		Content: "<p>Corps</p>",
	}))

	rec := f.do(t, http.MethodGet, "/api/articles/"+article.ID+"?lang=fr", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	require.Equal(t, "Jour de derby", body["title"])
	require.Equal(t, "<p>Corps</p>", body["content"])
	require.Equal(t, true, body["translated"])
	require.Nil(t, body["summary"])
}

func TestGetArticle_AcceptLanguage(t *testing.T) {
	f := newFixture(t, fakeTranslator{})
	article := f.seedPublished(t, "Derby day")
	require.NoError(t, f.store.Upsert(context.Background(), article.ID, "fr", model.TranslationFields{Title: "Jour de derby", Content: "c"}))

	rec := f.do(t, http.MethodGet, "/api/articles/"+article.ID, "", "", "Accept-Language", "fr-CA,fr;q=0.9,en;q=0.8")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Jour de derby", decode(t, rec)["title"])
}

func TestGetArticle_PendingIssuesSessionCookie(t *testing.T) {
	f := newFixture(t, fakeTranslator{})
	article := f.seedPublished(t, "Derby day")

	rec := f.do(t, http.MethodGet, "/api/articles/"+article.ID+"?lang=ht", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	require.Equal(t, "Derby day", body["title"])
	require.Equal(t, "en", body["language"])
	require.Equal(t, "ht", body["requestedLanguage"])
	require.Equal(t, true, body["pending"])
	require.Equal(t, false, body["translating"])
	require.Contains(t, rec.Header().Get("Set-Cookie"), handler.SessionCookieName+"=")

	// An existing session is reused, not reissued.
	rec = f.do(t, http.MethodGet, "/api/articles/"+article.ID+"?lang=ht", "", "", handler.SessionHeader, "7d444840-9dc0-11d1-b245-5ffdce74fad2")
	require.Empty(t, rec.Header().Get("Set-Cookie"))
}

func TestGetArticle_IgnoresMalformedSessionID(t *testing.T) {
	f := newFixture(t, fakeTranslator{})
	article := f.seedPublished(t, "Derby day")

	for _, id := range []string{"abc", "../../etc", strings.Repeat("x", 300)} {
		rec := f.do(t, http.MethodGet, "/api/articles/"+article.ID+"?lang=fr", "", "", handler.SessionHeader, id)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Header().Get("Set-Cookie"), handler.SessionCookieName+"=", "malformed id %q is replaced", id)
	}
}

func TestGetArticle_DraftsNeedEditor(t *testing.T) {
	f := newFixture(t, fakeTranslator{})
	draft := testutil.SeedArticle(t, f.db, model.Article{Title: "Draft"})

	rec := f.do(t, http.MethodGet, "/api/articles/"+draft.ID, "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/articles/"+draft.ID, service.RoleReader, "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/articles/"+draft.ID, service.RoleEditor, "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestListArticles_PublishedOnly(t *testing.T) {
	f := newFixture(t, fakeTranslator{})
	f.seedPublished(t, "Live")
	testutil.SeedArticle(t, f.db, model.Article{Title: "Draft"})

	rec := f.do(t, http.MethodGet, "/api/articles?limit=500", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	require.Len(t, body["articles"], 1)
	require.EqualValues(t, 100, body["limit"])

	rec = f.do(t, http.MethodGet, "/api/articles/all", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/articles/all", service.RoleEditor, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode(t, rec)["articles"], 2)
}

func TestCreateArticle_QueuesTranslation(t *testing.T) {
	f := newFixture(t, fakeTranslator{})
	payload := `{"title":"Cup final","content":"<p>Match report</p>","category":"football","originalLanguage":"en","published":true}`

	rec := f.do(t, http.MethodPost, "/api/articles", service.RoleReader, payload)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/articles", service.RoleEditor, payload)
	require.Equal(t, http.StatusCreated, rec.Code)
	id, _ := decode(t, rec)["id"].(string)
	require.NotEmpty(t, id)
	require.True(t, f.jobs.Active(id))

	rec = f.do(t, http.MethodGet, "/api/articles/"+id+"?lang=es", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	require.Equal(t, true, body["pending"])
	require.Equal(t, true, body["translating"])
}

func TestCreateArticle_ValidationError(t *testing.T) {
	f := newFixture(t, fakeTranslator{})

	rec := f.do(t, http.MethodPost, "/api/articles", service.RoleEditor, `{"title":"","content":"x","category":"football"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotEmpty(t, decode(t, rec)["error"])
}

func TestRetranslate_StoresEveryTarget(t *testing.T) {
	f := newFixture(t, fakeTranslator{})
	article := f.seedPublished(t, "Derby day")

	rec := f.do(t, http.MethodPost, "/api/articles/"+article.ID+"/retranslate", service.RoleEditor, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	require.Equal(t, true, body["success"])

	rec = f.do(t, http.MethodGet, "/api/articles/"+article.ID+"/translations", service.RoleEditor, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 3)

	rec = f.do(t, http.MethodGet, "/api/translations/"+article.ID+"/ht", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "[ht] Derby day", decode(t, rec)["title"])
}

func TestDeleteArticle_AdminOnly(t *testing.T) {
	f := newFixture(t, fakeTranslator{})
	article := f.seedPublished(t, "Derby day")

	rec := f.do(t, http.MethodDelete, "/api/articles/"+article.ID, service.RoleEditor, "")
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/articles/"+article.ID, service.RoleAdmin, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/articles/"+article.ID, "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIncrementViews(t *testing.T) {
	f := newFixture(t, fakeTranslator{})
	article := f.seedPublished(t, "Derby day")

	rec := f.do(t, http.MethodPost, "/api/articles/"+article.ID+"/view", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 1, decode(t, rec)["viewCount"])
}

func TestTranslate_SaveToDB(t *testing.T) {
	f := newFixture(t, fakeTranslator{})
	article := f.seedPublished(t, "Derby day")
	payload := `{"title":"Derby day","content":"<p>Body</p>","fromLanguage":"en","toLanguage":"fr","articleId":"` + article.ID + `","saveToDb":true}`

	rec := f.do(t, http.MethodPost, "/api/translate", service.RoleEditor, payload)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	require.Equal(t, "[fr] Derby day", body["title"])
	require.Equal(t, []any{}, body["keywords"])

	rec = f.do(t, http.MethodGet, "/api/translations/"+article.ID+"/fr", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestTranslate_RejectsOriginalLanguageTarget(t *testing.T) {
	f := newFixture(t, fakeTranslator{})
	article := f.seedPublished(t, "Derby day")

	payload := `{"title":"Jour de derby","content":"c","fromLanguage":"fr","toLanguage":"en","articleId":"` + article.ID + `","saveToDb":true}`
	rec := f.do(t, http.MethodPost, "/api/translate", service.RoleEditor, payload)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	payload = `{"articleId":"` + article.ID + `","title":"Derby day","content":"c","originalLanguage":"es"}`
	rec = f.do(t, http.MethodPost, "/api/translate/batch", service.RoleEditor, payload)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/translations/"+article.ID+"/en", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	rec = f.do(t, http.MethodGet, "/api/translations/"+article.ID+"/es", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTranslate_UnsupportedLanguage(t *testing.T) {
	f := newFixture(t, fakeTranslator{})

	rec := f.do(t, http.MethodPost, "/api/translate", service.RoleEditor, `{"title":"t","content":"c","fromLanguage":"en","toLanguage":"de"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTranslate_CapacitySkip(t *testing.T) {
	f := newFixture(t, fakeTranslator{skipped: true})

	rec := f.do(t, http.MethodPost, "/api/translate", service.RoleEditor, `{"title":"Derby day","content":"c","fromLanguage":"en","toLanguage":"fr"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	require.Equal(t, "Derby day", body["title"])
	require.Equal(t, true, body["_translationSkipped"])
}

func TestTranslateBatch_PartialFailure(t *testing.T) {
	f := newFixture(t, fakeTranslator{err: context.DeadlineExceeded})
	article := f.seedPublished(t, "Derby day")
	payload := `{"articleId":"` + article.ID + `","title":"Derby day","content":"c","originalLanguage":"en"}`

	rec := f.do(t, http.MethodPost, "/api/translate/batch", service.RoleEditor, payload)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	require.Equal(t, false, body["success"])
	require.Len(t, body["errors"], 3)
}

func TestTranslationJob_NotFound(t *testing.T) {
	f := newFixture(t, fakeTranslator{})

	rec := f.do(t, http.MethodGet, "/api/translation-jobs/missing", service.RoleEditor, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClearTranslations(t *testing.T) {
	f := newFixture(t, fakeTranslator{})
	article := f.seedPublished(t, "Derby day")
	require.NoError(t, f.store.Upsert(context.Background(), article.ID, "fr", model.TranslationFields{Title: "t", Content: "c"}))
	require.NoError(t, f.store.Upsert(context.Background(), article.ID, "es", model.TranslationFields{Title: "t", Content: "c"}))

	rec := f.do(t, http.MethodDelete, "/api/translations", service.RoleEditor, "")
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/translations", service.RoleAdmin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 2, decode(t, rec)["deleted"])
}

func TestAISettings_MasksKey(t *testing.T) {
	f := newFixture(t, fakeTranslator{})

	rec := f.do(t, http.MethodGet, "/api/settings/ai", service.RoleEditor, "")
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/settings/ai", service.RoleAdmin, `{"provider":"openai","apiKey":"sk-abcdefghijklmnop","model":"gpt-4o-mini","rateLimit":5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	require.Equal(t, "openai", body["provider"])
	require.Equal(t, "sk-***nop", body["apiKey"])
	require.EqualValues(t, 5, body["rateLimit"])

	rec = f.do(t, http.MethodPut, "/api/settings/ai", service.RoleAdmin, `{"provider":"bogus"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAISettingsTest_RequiresModel(t *testing.T) {
	f := newFixture(t, fakeTranslator{})

	rec := f.do(t, http.MethodPost, "/api/settings/ai/test", service.RoleAdmin, `{"provider":"openai"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNetworkTest_NoProxy(t *testing.T) {
	f := newFixture(t, fakeTranslator{})

	rec := f.do(t, http.MethodPost, "/api/settings/network/test", service.RoleAdmin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, decode(t, rec)["success"])
}
