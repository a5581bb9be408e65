package api

import (
	"log"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/david/licitaciones-radar/internal/models"
)

type emailRequest struct {
	Address string `json:"address"`
}

type emailsResponse struct {
	Emails []models.EmailEntry `json:"emails"`
	Error  string              `json:"error,omitempty"`
}

func (s *Server) handleListEmails(c echo.Context) error {
	if err := s.roster.Refresh(c.Request().Context()); err != nil {
		return s.rosterFailure(c, err)
	}
	return c.JSON(http.StatusOK, emailsResponse{Emails: s.roster.Emails()})
}

func (s *Server) handleAddEmail(c echo.Context) error {
	var req emailRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request")
	}
	if err := s.roster.Add(c.Request().Context(), req.Address); err != nil {
		return s.rosterFailure(c, err)
	}
	return c.JSON(http.StatusCreated, emailsResponse{Emails: s.roster.Emails()})
}

func (s *Server) handleRemoveEmail(c echo.Context) error {
	address, err := url.PathUnescape(c.Param("address"))
	if err != nil {
		address = c.Param("address")
	}
	if err := s.roster.Remove(c.Request().Context(), address); err != nil {
		return s.rosterFailure(c, err)
	}
	return c.JSON(http.StatusOK, emailsResponse{Emails: s.roster.Emails()})
}

// rosterFailure answers 502 with the unchanged roster and the manager's error.
func (s *Server) rosterFailure(c echo.Context, err error) error {
	log.Printf("[api] roster: %v", err)
	return c.JSON(http.StatusBadGateway, emailsResponse{Emails: s.roster.Emails(), Error: s.roster.LastError()})
}

func (s *Server) handleGetFamilyConfig(c echo.Context) error {
	cfg, err := s.backend.GetFamilyConfig(c.Request().Context())
	if err != nil {
		return collaboratorError(c, err)
	}
	return c.JSON(http.StatusOK, cfg)
}

// handleSaveFamilyConfig persists a family selection. An empty body saves the
// session's current selection.
func (s *Server) handleSaveFamilyConfig(c echo.Context) error {
	var cfg models.FamilyConfig
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&cfg); err != nil {
			return errorJSON(c, http.StatusBadRequest, "Invalid request")
		}
	}
	if cfg.FamilyCode == nil && cfg.SubfamilyCode == nil {
		criteria := currentSession(c).Criteria()
		if criteria.FamilyCode != 0 {
			fam := criteria.FamilyCode
			cfg.FamilyCode = &fam
		}
		if criteria.SubfamilyCode != 0 {
			sub := criteria.SubfamilyCode
			cfg.SubfamilyCode = &sub
		}
	}

	if err := s.backend.SaveFamilyConfig(c.Request().Context(), cfg); err != nil {
		return collaboratorError(c, err)
	}
	log.Printf("[api] saved family config %v/%v", deref(cfg.FamilyCode), deref(cfg.SubfamilyCode))
	return c.JSON(http.StatusOK, cfg)
}

func deref(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}
