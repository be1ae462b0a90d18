package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/maikmano/zentask/updater"
)

// updateStatus receives status pushes from the desktop shell.
func (s *Server) updateStatus(c echo.Context) error {
	if !s.shellAuthorized(c) {
		return c.NoContent(http.StatusUnauthorized)
	}
	var ev updater.Event
	if err := c.Bind(&ev); err != nil {
		return c.NoContent(http.StatusBadRequest)
	}
	s.updates.Apply(ev)
	return c.NoContent(http.StatusAccepted)
}

func (s *Server) downloadUpdate(c echo.Context) error {
	if err := s.updates.Download(c.Request().Context()); err != nil {
		return c.String(http.StatusBadGateway, err.Error())
	}
	return c.NoContent(http.StatusAccepted)
}

func (s *Server) installUpdate(c echo.Context) error {
	if err := s.updates.Install(c.Request().Context()); err != nil {
		return c.String(http.StatusBadGateway, err.Error())
	}
	return c.NoContent(http.StatusAccepted)
}
