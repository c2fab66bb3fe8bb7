package handler

import (
	"github.com/labstack/echo/v4"

	"touchline/backend/internal/service"
)

// PrincipalKey is the echo context key auth middleware stores the caller under.
const PrincipalKey = "principal"

// Guards are the route-level auth middlewares. Optional identifies the caller
// when a token is present and never rejects.
type Guards struct {
	Optional echo.MiddlewareFunc
	Editor   echo.MiddlewareFunc
	Admin    echo.MiddlewareFunc
}

func principal(c echo.Context) *service.Principal {
	p, _ := c.Get(PrincipalKey).(*service.Principal)
	return p
}

func canSeeDrafts(c echo.Context) bool {
	return principal(c).HasRole(service.RoleEditor)
}
