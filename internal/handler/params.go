package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"touchline/backend/internal/language"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// SessionCookieName carries the browsing session the read-path cache is keyed by.
const SessionCookieName = "touchline_session"

// SessionHeader lets non-browser clients pick their session.
const SessionHeader = "X-Session-ID"

func parsePagination(c echo.Context) (limit, offset int) {
	limit = defaultPageSize
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if v, err := strconv.Atoi(c.QueryParam("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}

// requestedLanguage reads ?lang=, then the first Accept-Language tag.
func requestedLanguage(c echo.Context) string {
	if lang := language.Normalize(c.QueryParam("lang")); lang != "" {
		return lang
	}
	header := c.Request().Header.Get("Accept-Language")
	if header == "" {
		return ""
	}
	first, _, _ := strings.Cut(header, ",")
	first, _, _ = strings.Cut(first, ";")
	return language.Normalize(first)
}

// sessionID returns the caller's session, issuing a browser-session cookie
// when there is none.
func sessionID(c echo.Context) string {
	if id, ok := parseSessionID(c.Request().Header.Get(SessionHeader)); ok {
		return id
	}
	if cookie, err := c.Cookie(SessionCookieName); err == nil {
		if id, ok := parseSessionID(cookie.Value); ok {
			return id
		}
	}

	id := uuid.NewString()
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// parseSessionID accepts only UUIDs so clients cannot mint arbitrary session keys.
func parseSessionID(raw string) (string, bool) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	return id.String(), true
}
