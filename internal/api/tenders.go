package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/david/licitaciones-radar/internal/filter"
	"github.com/david/licitaciones-radar/internal/models"
	"github.com/david/licitaciones-radar/internal/session"
)

// handleListTenders applies the query string to the session criteria, reloads
// the tenders and returns the evaluated view.
func (s *Server) handleListTenders(c echo.Context) error {
	sess := currentSession(c)
	criteria, err := criteriaFromQuery(c.QueryParams(), s.loc)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	sess.SetFilters(criteria)

	if err := sess.LoadTenders(c.Request().Context()); err != nil {
		return collaboratorError(c, err)
	}
	return c.JSON(http.StatusOK, sess.View(s.now(), c.QueryParam("sort") == "closing"))
}

type dashboardResponse struct {
	session.View
	Families    []models.Family    `json:"families"`
	Subfamilies []models.Subfamily `json:"subfamilies"`
}

// handleDashboard loads tenders and families together for the first paint.
func (s *Server) handleDashboard(c echo.Context) error {
	sess := currentSession(c)
	if err := sess.Refresh(c.Request().Context()); err != nil {
		return collaboratorError(c, err)
	}
	return c.JSON(http.StatusOK, dashboardResponse{
		View:        sess.View(s.now(), c.QueryParam("sort") == "closing"),
		Families:    sess.Families(),
		Subfamilies: sess.Subfamilies(),
	})
}

type tenderResponse struct {
	models.Tender
	Urgency      *filter.Urgency `json:"urgency,omitempty"`
	UrgencyLabel string          `json:"urgency_label,omitempty"`
	// MatchesCriteria tells whether the session's local filters keep the tender.
	MatchesCriteria bool `json:"matches_criteria"`
}

func (s *Server) handleGetTender(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	tender, found, err := s.backend.FetchTender(c.Request().Context(), id)
	if err != nil {
		return collaboratorError(c, err)
	}
	if !found {
		return errorJSON(c, http.StatusNotFound, "Not found")
	}

	now := s.now()
	resp := tenderResponse{
		Tender:          tender,
		MatchesCriteria: filter.Matches(tender, currentSession(c).Criteria(), now),
	}
	if u, ok := filter.ClassifyTender(tender, now); ok {
		resp.Urgency = &u
		resp.UrgencyLabel = u.Label()
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleListFamilies(c echo.Context) error {
	sess := currentSession(c)
	if err := sess.LoadFamilies(c.Request().Context()); err != nil {
		return collaboratorError(c, err)
	}
	return c.JSON(http.StatusOK, sess.Families())
}

func (s *Server) handleListSubfamilies(c echo.Context) error {
	return c.JSON(http.StatusOK, currentSession(c).Subfamilies())
}

func (s *Server) handleGetCriteria(c echo.Context) error {
	return c.JSON(http.StatusOK, currentSession(c).Criteria())
}

type codeRequest struct {
	Code int64 `json:"code"`
}

type selectionResponse struct {
	Criteria    filter.Criteria    `json:"criteria"`
	Subfamilies []models.Subfamily `json:"subfamilies"`
}

// handleSelectFamily selects a family (code 0 clears it) and returns the new
// subfamily list. A newer selection made meanwhile answers 409.
func (s *Server) handleSelectFamily(c echo.Context) error {
	var req codeRequest
	if err := c.Bind(&req); err != nil || req.Code < 0 {
		return errorJSON(c, http.StatusBadRequest, "Invalid request")
	}
	sess := currentSession(c)
	subs, err := sess.SelectFamily(c.Request().Context(), req.Code)
	if err != nil {
		return collaboratorError(c, err)
	}
	return c.JSON(http.StatusOK, selectionResponse{Criteria: sess.Criteria(), Subfamilies: subs})
}

func (s *Server) handleSelectSubfamily(c echo.Context) error {
	var req codeRequest
	if err := c.Bind(&req); err != nil || req.Code < 0 {
		return errorJSON(c, http.StatusBadRequest, "Invalid request")
	}
	sess := currentSession(c)
	if req.Code != 0 && !sess.Criteria().HasFamily() {
		return errorJSON(c, http.StatusBadRequest, "select a family first")
	}
	criteria := sess.SelectSubfamily(req.Code)
	return c.JSON(http.StatusOK, selectionResponse{Criteria: criteria, Subfamilies: sess.Subfamilies()})
}
