package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"touchline/backend/internal/handler"
	"touchline/backend/internal/service"
)

const testSecret = "middleware-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func roleToken(t *testing.T, role string) string {
	return signToken(t, jwt.MapClaims{
		"sub":          "user-" + role,
		"app_metadata": map[string]any{"role": role},
		"exp":          time.Now().Add(time.Hour).Unix(),
	})
}

// whoami echoes the principal the middleware stored, or "anonymous".
func whoami(c echo.Context) error {
	p, _ := c.Get(handler.PrincipalKey).(*service.Principal)
	if p == nil {
		return c.String(http.StatusOK, "anonymous")
	}
	return c.String(http.StatusOK, p.Role)
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthMiddleware(t *testing.T) {
	e := echo.New()
	e.GET("/editor", whoami, JWTAuthMiddleware(service.NewAuthService(testSecret), service.RoleEditor))

	cases := []struct {
		name   string
		header string
		cookie string
		status int
		body   string
	}{
		{name: "missing", status: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer not-a-token", status: http.StatusUnauthorized},
		{name: "reader", header: "Bearer " + roleToken(t, service.RoleReader), status: http.StatusForbidden},
		{name: "editor", header: "Bearer " + roleToken(t, service.RoleEditor), status: http.StatusOK, body: service.RoleEditor},
		{name: "admin lowercase scheme", header: "bearer " + roleToken(t, service.RoleAdmin), status: http.StatusOK, body: service.RoleAdmin},
		{name: "cookie", cookie: roleToken(t, service.RoleEditor), status: http.StatusOK, body: service.RoleEditor},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/editor", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: AuthCookieName, Value: tc.cookie})
			}
			rec := serve(e, req)
			require.Equal(t, tc.status, rec.Code)
			if tc.body != "" {
				require.Equal(t, tc.body, rec.Body.String())
			}
		})
	}
}

func TestJWTAuthMiddleware_NoSecret(t *testing.T) {
	e := echo.New()
	e.GET("/editor", whoami, JWTAuthMiddleware(service.NewAuthService(""), service.RoleEditor))

	req := httptest.NewRequest(http.MethodGet, "/editor", nil)
	req.Header.Set("Authorization", "Bearer "+roleToken(t, service.RoleAdmin))
	require.Equal(t, http.StatusServiceUnavailable, serve(e, req).Code)
}

func TestOptionalAuthMiddleware(t *testing.T) {
	e := echo.New()
	e.GET("/open", whoami, OptionalAuthMiddleware(service.NewAuthService(testSecret)))

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/open", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "anonymous", rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set("Authorization", "Bearer expired-or-bad")
	rec = serve(e, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "anonymous", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set("Authorization", "Bearer "+roleToken(t, service.RoleEditor))
	rec = serve(e, req)
	require.Equal(t, service.RoleEditor, rec.Body.String())
}

func TestRequestLoggerMiddleware_PassesThroughErrors(t *testing.T) {
	e := echo.New()
	e.Use(RequestLoggerMiddleware())
	e.GET("/boom", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "short and stout")
	})

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)
}
