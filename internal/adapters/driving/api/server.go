package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/briefcast/internal/core/ports/driving"
	"github.com/custodia-labs/briefcast/internal/logger"
)

// DefaultHeartbeat is the interval between SSE keep-alive comments.
const DefaultHeartbeat = 15 * time.Second

// TokenVerifier checks a bearer token and returns the user id it was issued to.
type TokenVerifier interface {
	VerifySession(token string) (string, error)
}

// Deps are the services behind the routes. Interests, Metrics, Ready and
// MediaDir are optional.
type Deps struct {
	Pipeline   driving.BriefingPipeline
	Briefings  driving.BriefingService
	Connectors driving.ConnectorRegistry
	Interests  driving.InterestService
	Settings   driving.SettingsService
	Verifier   TokenVerifier

	// Metrics serves /metrics.
	Metrics http.Handler
	// Ready reports whether dependencies are reachable, for /readyz.
	Ready func(ctx context.Context) error
	// MediaDir is served under /media.
	MediaDir string
}

// Config holds server settings.
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	Heartbeat       time.Duration
}

// Server is the HTTP API.
type Server struct {
	deps   Deps
	cfg    Config
	engine *gin.Engine
}

// NewServer builds the router.
func NewServer(deps Deps, cfg Config) *Server {
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = DefaultHeartbeat
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), accessLog())

	s := &Server{deps: deps, cfg: cfg, engine: engine}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.engine

	r.GET("/healthz", s.healthz)
	r.GET("/readyz", s.readyz)
	if s.deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(s.deps.Metrics))
	}
	if s.deps.MediaDir != "" {
		r.Static("/media", s.deps.MediaDir)
	}

	// The provider redirects the browser here, so there is no bearer token;
	// the signed state identifies the user.
	r.GET("/api/connectors/:provider/callback", s.connectorCallback)

	api := r.Group("/api", requireSession(s.deps.Verifier))
	{
		api.POST("/briefings/generate", s.generate)
		api.GET("/briefings/today", s.today)
		api.PUT("/briefings/today", s.saveEdit)
		api.GET("/briefings", s.history)

		api.GET("/connectors", s.connectorStatus)
		api.GET("/connectors/:provider/authorize", s.connectorAuthorize)
		api.DELETE("/connectors/:provider", s.connectorDisconnect)

		api.POST("/interests/refresh", s.refreshInterests)

		api.GET("/settings", s.getSettings)
		api.PUT("/settings/providers", s.setProviders)
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on cfg.Addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		// No write timeout: generation streams for minutes.
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening on %s", ln.Addr())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) readyz(c *gin.Context) {
	if s.deps.Ready != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Ready(ctx); err != nil {
			logger.Warn("readiness check failed: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
