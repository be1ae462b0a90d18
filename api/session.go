package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/maikmano/zentask/domain"
	"github.com/maikmano/zentask/identity"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Identity domain.Identity `json:"identity"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type exchangeFunc func(ctx context.Context, email, password string) (domain.Identity, error)

func (s *Server) signIn(c echo.Context) error {
	return s.exchange(c, s.provider.SignIn)
}

func (s *Server) signUp(c echo.Context) error {
	return s.exchange(c, s.provider.SignUp)
}

func (s *Server) exchange(c echo.Context, fn exchangeFunc) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
	}
	id, err := fn(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		var authErr *identity.AuthError
		if errors.As(err, &authErr) {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: authErr.Message})
		}
		s.log.Errorf("credential exchange: %v", err)
		return c.JSON(http.StatusBadGateway, errorResponse{Error: err.Error()})
	}
	s.gate.SignedIn(id)
	return c.JSON(http.StatusOK, sessionResponse{Identity: id})
}

func (s *Server) signOut(c echo.Context) error {
	s.gate.SignOut()
	return c.NoContent(http.StatusNoContent)
}
