package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// requireToken guards the renderer-facing routes with the shared session
// token. EventSource cannot set headers, so the stream may carry the token
// as a query parameter instead.
func (s *Server) requireToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := c.QueryParam("token")
		if authHeader := c.Request().Header.Get(echo.HeaderAuthorization); authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				return c.NoContent(http.StatusUnauthorized)
			}
			token = parts[1]
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.token)) != 1 {
			return c.NoContent(http.StatusUnauthorized)
		}
		return next(c)
	}
}

// shellAuthorized checks the shell control token on status pushes.
func (s *Server) shellAuthorized(c echo.Context) bool {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(parts[1]), []byte(s.shellToken)) == 1
}
