package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/david/licitaciones-radar/internal/auth"
	"github.com/david/licitaciones-radar/internal/backend"
	"github.com/david/licitaciones-radar/internal/ingest"
	"github.com/david/licitaciones-radar/internal/models"
	"github.com/david/licitaciones-radar/internal/notify"
	"github.com/david/licitaciones-radar/internal/roster"
	"github.com/david/licitaciones-radar/internal/session"
)

// Backend is everything the API asks of the tender backend.
type Backend interface {
	session.Backend
	roster.Source
	notify.Source
	FetchTender(ctx context.Context, id int64) (models.Tender, bool, error)
	GetFamilyConfig(ctx context.Context) (models.FamilyConfig, error)
	SaveFamilyConfig(ctx context.Context, cfg models.FamilyConfig) error
}

type Deps struct {
	Backend        Backend
	Normalizer     *ingest.Normalizer
	Sessions       *session.Store
	Roster         *roster.Manager
	Feed           *notify.Feed
	Auth           *auth.Service
	Clock          backend.Clock
	AllowedOrigins []string
}

type Server struct {
	Echo *echo.Echo

	backend  Backend
	sessions *session.Store
	roster   *roster.Manager
	feed     *notify.Feed
	auth     *auth.Service
	now      backend.Clock
	loc      *time.Location
}

const sessionKey = "session"

func NewServer(d Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: d.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	now := d.Clock
	if now == nil {
		now = time.Now
	}
	loc := time.UTC
	if d.Normalizer != nil {
		loc = d.Normalizer.Location()
	}

	s := &Server{
		Echo:     e,
		backend:  d.Backend,
		sessions: d.Sessions,
		roster:   d.Roster,
		feed:     d.Feed,
		auth:     d.Auth,
		now:      now,
		loc:      loc,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)
	api := s.Echo.Group("/api/v1")
	api.POST("/sessions", s.handleCreateSession)

	// Routes below act on the caller's dashboard session.
	sess := api.Group("")
	sess.Use(auth.Middleware(s.auth), s.sessionMiddleware)
	sess.GET("/dashboard", s.handleDashboard)
	sess.GET("/tenders", s.handleListTenders)
	sess.GET("/tenders/:id", s.handleGetTender)
	sess.GET("/families", s.handleListFamilies)
	sess.GET("/subfamilies", s.handleListSubfamilies)
	sess.GET("/criteria", s.handleGetCriteria)
	sess.PUT("/criteria/family", s.handleSelectFamily)
	sess.PUT("/criteria/subfamily", s.handleSelectSubfamily)

	sess.GET("/emails", s.handleListEmails)
	sess.POST("/emails", s.handleAddEmail)
	sess.DELETE("/emails/:address", s.handleRemoveEmail)

	sess.GET("/notifications", s.handleListNotifications)
	sess.GET("/notifications/:id", s.handleOpenNotification)

	sess.GET("/config/family", s.handleGetFamilyConfig)
	sess.PUT("/config/family", s.handleSaveFamilyConfig)
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// sessionMiddleware resolves the session named by the token subject.
func (s *Server) sessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := auth.GetSessionIDFromContext(c)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Missing session")
		}
		sess, ok := s.sessions.Get(id.String())
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "Session expired")
		}
		c.Set(sessionKey, sess)
		return next(c)
	}
}

func currentSession(c echo.Context) *session.Session {
	sess, _ := c.Get(sessionKey).(*session.Session)
	return sess
}

type createSessionResponse struct {
	Token     string    `json:"token"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// handleCreateSession opens a dashboard session and restores the family
// selection persisted on the backend, when there is one.
func (s *Server) handleCreateSession(c echo.Context) error {
	sess := s.sessions.Create()
	id, err := uuid.Parse(sess.ID)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "invalid session id")
	}
	token, exp, err := s.auth.Issue(id)
	if err != nil {
		log.Printf("[api] issue session token: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "could not issue session token")
	}

	ctx := c.Request().Context()
	if cfg, err := s.backend.GetFamilyConfig(ctx); err != nil {
		log.Printf("[api] restore family config: %v", err)
	} else if cfg.FamilyCode != nil {
		if _, err := sess.SelectFamily(ctx, *cfg.FamilyCode); err != nil {
			log.Printf("[api] restore family %d: %v", *cfg.FamilyCode, err)
		} else if cfg.SubfamilyCode != nil {
			sess.SelectSubfamily(*cfg.SubfamilyCode)
		}
	}

	return c.JSON(http.StatusCreated, createSessionResponse{Token: token, SessionID: sess.ID, ExpiresAt: exp})
}

func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}

// collaboratorError maps a failed backend-backed operation onto a response.
func collaboratorError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, session.ErrSuperseded):
		return errorJSON(c, http.StatusConflict, err.Error())
	case errors.Is(err, notify.ErrNotFound):
		return errorJSON(c, http.StatusNotFound, err.Error())
	case errors.Is(err, context.Canceled):
		return errorJSON(c, http.StatusServiceUnavailable, "request cancelled")
	}
	return errorJSON(c, http.StatusBadGateway, err.Error())
}
