// Package api implements the local control API: client status, the message
// catalogue, captured traffic, outbound commands and a live event stream.
package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/furcwire-project/furcwire/internal/config"
	"github.com/furcwire-project/furcwire/internal/connector"
	"github.com/furcwire-project/furcwire/internal/db"
	"github.com/furcwire-project/furcwire/internal/events"
	"github.com/furcwire-project/furcwire/internal/network"
	"github.com/furcwire-project/furcwire/internal/protocol"
)

// Controller is the part of the protocol client the API drives.
type Controller interface {
	State() connector.State
	Reason() connector.DisconnectReason
	SessionID() string
	Stats() (network.Stats, bool)
	Command(text string) error
	Say(text string) error
	Move(d protocol.Direction) error
}

// CaptureStore reads the journal of undecoded traffic.
type CaptureStore interface {
	Recent(limit int) ([]db.Capture, error)
	CountByOpcode() ([]db.OpcodeCount, error)
}

// Dependencies are the runtime components the API exposes. Captures and
// Metrics are optional.
type Dependencies struct {
	Client    Controller
	Bus       *events.EventBus
	Catalogue func() []protocol.Entry
	Captures  CaptureStore
	Metrics   http.Handler
}

// Server is the REST and websocket API server.
type Server struct {
	cfg  config.APIConfig
	deps Dependencies

	upgrader websocket.Upgrader
	streams  streamCounter
	shutdown chan struct{}
	stopOnce sync.Once

	httpServer *http.Server
	router     *gin.Engine
}

// NewServer creates a new API server.
func NewServer(cfg config.APIConfig, logLevel string, deps Dependencies) *Server {
	if logLevel == "debug" || logLevel == "trace" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if deps.Catalogue == nil {
		deps.Catalogue = protocol.Catalogue
	}

	s := &Server{cfg: cfg, deps: deps, shutdown: make(chan struct{})}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	s.router = s.buildRouter()
	return s
}

// Handler returns the configured router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	s.httpServer = &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("API server error: %w", err)
	}

	log.Info().Str("addr", addr).Msg("control API starting")

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("API server error: %w", err)
	}
	return nil
}

// Stop closes open event streams and gracefully stops the API server.
func (s *Server) Stop() error {
	s.stopOnce.Do(func() { close(s.shutdown) })
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// buildRouter creates the Gin router with all routes and middleware.
func (s *Server) buildRouter() *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(RequestLogger())
	router.Use(SecurityHeaders())

	allowedOrigins := s.cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	rateLimiter := NewRateLimiter(s.cfg.RateLimitRPS)
	router.Use(rateLimiter.Middleware())

	router.GET("/api/ping", s.handlePing)

	protected := router.Group("/api")
	protected.Use(TokenAuth(s.cfg.Token))
	{
		protected.GET("/status", s.handleStatus)
		protected.GET("/system", s.handleSystem)
		protected.GET("/catalogue", s.handleCatalogue)
		protected.GET("/captures", s.handleCaptures)
		protected.GET("/captures/summary", s.handleCaptureSummary)
		protected.GET("/events", s.handleEventStream)

		protected.POST("/command", s.handleCommand)
		protected.POST("/say", s.handleSay)
		protected.POST("/move", s.handleMove)
	}

	if s.deps.Metrics != nil {
		router.GET("/metrics", TokenAuth(s.cfg.Token), gin.WrapH(s.deps.Metrics))
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
	})

	return router
}

// checkOrigin admits websocket upgrades from the CORS allow-list. Requests
// without an Origin header come from non-browser clients and are allowed.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}
