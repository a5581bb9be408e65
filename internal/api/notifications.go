package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Server) handleListNotifications(c echo.Context) error {
	listing, err := s.feed.List(c.Request().Context())
	if err != nil {
		return collaboratorError(c, err)
	}
	return c.JSON(http.StatusOK, listing)
}

// handleOpenNotification returns the detail and marks the run as read.
func (s *Server) handleOpenNotification(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	opened, err := s.feed.Open(c.Request().Context(), id)
	if err != nil {
		return collaboratorError(c, err)
	}
	return c.JSON(http.StatusOK, opened)
}
