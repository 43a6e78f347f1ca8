// Package dashboard serves the irrigation dashboard page, its JSON API and
// the live update websocket.
package dashboard

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/benmeehan/hydro-controller/internal/constants"
	"github.com/benmeehan/hydro-controller/internal/gateway"
	"github.com/benmeehan/hydro-controller/internal/models"
	"github.com/benmeehan/hydro-controller/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

//go:embed templates/*.html
var templateFS embed.FS

const shutdownTimeout = 5 * time.Second

// History reads persisted records. *storage.Store implements it.
type History interface {
	RecentReadings(limit int) ([]models.SensorReadingRecord, error)
	PumpActions(limit int) ([]models.PumpActionLog, error)
}

// MetricsSource provides the latest host metrics sample.
type MetricsSource interface {
	Latest() (map[string]models.Metric, time.Time)
}

// Options configure the dashboard server.
type Options struct {
	ListenAddr     string
	AllowedOrigins []string
	SessionTTL     time.Duration
	DeviceID       string
}

// Server is the dashboard HTTP service.
type Server struct {
	options  Options
	sessions *session.Manager
	gateway  gateway.Gateway
	history  History       // nil when storage is disabled
	metrics  MetricsSource // nil when no metric is enabled
	logger   zerolog.Logger

	engine   *gin.Engine
	upgrader websocket.Upgrader

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
	serveDone  chan struct{}
}

// NewServer builds the router. history and metrics may be nil.
func NewServer(options Options, sessions *session.Manager, gw gateway.Gateway,
	history History, metrics MetricsSource, logger zerolog.Logger) (*Server, error) {
	if options.ListenAddr == "" {
		options.ListenAddr = constants.DefaultListenAddr
	}
	if options.SessionTTL <= 0 {
		options.SessionTTL = constants.DefaultSessionTTL
	}

	page, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse dashboard templates: %w", err)
	}

	s := &Server{
		options:  options,
		sessions: sessions,
		gateway:  gw,
		history:  history,
		metrics:  metrics,
		logger:   logger.With().Str("service", "dashboard").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originAllowed(options.AllowedOrigins),
		},
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.SetHTMLTemplate(page)
	engine.Use(gin.Recovery(), RequestLogger(s.logger))
	if corsHandler := CORS(options.AllowedOrigins); corsHandler != nil {
		engine.Use(corsHandler)
	}
	s.engine = engine
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	withSession := s.engine.Group("/", Sessions(s.sessions, s.options.SessionTTL))
	withSession.GET("/", s.handleIndex)
	withSession.GET("/ws", s.handleWebSocket)

	api := withSession.Group("/api")
	api.GET("/status", s.handleStatus)
	api.POST("/refresh", s.handleRefresh)
	api.POST("/pump/:action", s.handlePump)
	api.GET("/readings", s.handleReadings)

	api.GET("/schedules", s.handleListSchedules)
	api.POST("/schedules", s.handleAddSchedule)
	api.DELETE("/schedules/index/:index", s.handleDeleteScheduleAt)
	api.DELETE("/schedules/:id", s.handleDeleteSchedule)
	api.PATCH("/schedules/:id", s.handleToggleSchedule)

	api.GET("/alarms", s.handleListAlarms)
	api.POST("/alarms", s.handleAddAlarm)
	api.DELETE("/alarms/index/:index", s.handleDeleteAlarmAt)
	api.DELETE("/alarms/:id", s.handleDeleteAlarm)

	// device-wide endpoints, no session needed
	s.engine.GET("/api/system", s.handleSystem)
	s.engine.GET("/api/history", s.handleHistory)
	s.engine.GET("/api/pump/actions", s.handlePumpActions)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start binds the listen address and serves in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.httpServer != nil {
		return errors.New("dashboard is already running")
	}

	ln, err := net.Listen("tcp", s.options.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.options.ListenAddr, err)
	}

	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.serveDone = make(chan struct{})

	go func(srv *http.Server, done chan struct{}) {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("Dashboard server stopped unexpectedly")
		}
	}(s.httpServer, s.serveDone)

	s.logger.Info().Str("addr", ln.Addr().String()).Msg("Dashboard listening")
	return nil
}

// Addr returns the bound address while running.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the HTTP server down and closes every session, which ends open websockets.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.httpServer == nil {
		return errors.New("dashboard is not running")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := s.httpServer.Shutdown(ctx)
	s.sessions.Close()
	<-s.serveDone

	s.httpServer = nil
	s.listener = nil
	if err != nil {
		return fmt.Errorf("failed to shut down dashboard: %w", err)
	}
	s.logger.Info().Msg("Dashboard stopped")
	return nil
}
