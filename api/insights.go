package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type insightsResponse struct {
	Text string `json:"text"`
}

type refineRequest struct {
	Text string `json:"text"`
}

func (s *Server) getInsights(c echo.Context) error {
	text := s.insights.DailyInsights(c.Request().Context(), s.state.Tasks(), s.state.Notes())
	return c.JSON(http.StatusOK, insightsResponse{Text: text})
}

func (s *Server) refineTask(c echo.Context) error {
	var req refineRequest
	if err := c.Bind(&req); err != nil {
		return c.String(http.StatusBadRequest, "invalid body")
	}
	refined := s.insights.RefineTask(c.Request().Context(), req.Text)
	return c.JSON(http.StatusOK, insightsResponse{Text: refined})
}
