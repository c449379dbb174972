// Package server wires the application components together and owns
// their lifecycle.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/plugnplai/relnotes/api"
	"github.com/plugnplai/relnotes/config"
	"github.com/plugnplai/relnotes/db"
	"github.com/plugnplai/relnotes/log"
	"github.com/plugnplai/relnotes/notifications"
	"github.com/plugnplai/relnotes/vendors"
	"github.com/plugnplai/relnotes/watch"
	"github.com/plugnplai/relnotes/workers/generate"
)

// Server owns and coordinates all application components
type Server struct {
	cfg *config.Config

	notifService *notifications.Service
	processor    *generate.Processor
	worker       *generate.Worker
	watcher      *watch.Watcher

	router *gin.Engine
	http   *http.Server
}

// New creates a new server with all components initialized
func New() (*Server, error) {
	cfg := config.Get()
	s := &Server{cfg: cfg}

	log.Info().Msg("initializing database")
	_ = db.GetDB()

	// Apply a stored log level override as soon as the database is up
	if level, err := db.GetSetting(api.LogLevelSettingKey); err == nil && level != "" {
		log.SetLevel(level)
	}

	if n, err := db.DeleteExpiredSessions(); err != nil {
		log.Warn().Err(err).Msg("failed to purge expired sessions")
	} else if n > 0 {
		log.Info().Int64("sessions", n).Msg("purged expired sessions")
	}

	log.Info().Msg("initializing notifications service")
	s.notifService = notifications.NewService()

	openaiClient := vendors.GetOpenAIClient()
	meiliClient := vendors.GetMeiliClient()

	log.Info().Msg("initializing generation pipeline")
	processor, err := generate.NewProcessor(openaiClient, meiliClient)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize processor: %w", err)
	}
	s.processor = processor

	s.worker = generate.NewWorker(generate.Config{
		Workers:        cfg.JobWorkers,
		QueueSize:      cfg.JobQueueSize,
		RequestTimeout: cfg.RequestTimeout,
	}, s.processor, s.notifService)

	if cfg.WatchEnabled {
		s.watcher = watch.NewWatcher(cfg.InboxDir(), s.worker, s.notifService)
	}

	s.setupRouter(openaiClient, meiliClient)

	log.Info().Msg("server initialized successfully")
	return s, nil
}

// setupRouter creates and configures the Gin router
func (s *Server) setupRouter(openaiClient *vendors.OpenAIClient, meiliClient *vendors.MeiliClient) {
	if !s.cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(log.GinLogger())

	// CORS for development
	if s.cfg.IsDevelopment() {
		s.router.Use(corsMiddleware())
	}

	// Security headers (production only)
	if !s.cfg.IsDevelopment() {
		s.router.Use(securityHeadersMiddleware())
	}

	// Gzip compression (skip the SSE endpoint, it needs streaming)
	s.router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{
		"/api/notifications/stream",
	})))

	s.router.SetTrustedProxies(nil)

	// Ignore .well-known requests
	s.router.GET("/.well-known/*path", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	handlers := api.NewHandlers(s.notifService, s.worker, s.processor, openaiClient, meiliClient)
	api.SetupRoutes(s.router, handlers)
}

// Start starts all background services and the HTTP server (blocks)
func (s *Server) Start() error {
	log.Info().Msg("starting server components")

	s.worker.Start()

	if s.watcher != nil {
		if err := s.watcher.Start(); err != nil {
			return fmt.Errorf("failed to start inbox watcher: %w", err)
		}
	}

	s.http = &http.Server{
		Addr:     fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:  s.router,
		ErrorLog: log.StdErrorLogger(),
	}

	log.Info().
		Str("addr", s.http.Addr).
		Str("env", s.cfg.Env).
		Msg("HTTP server starting")

	return s.http.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("shutting down server")

	// Disconnect SSE clients first so the HTTP shutdown does not wait
	// on open streams
	s.notifService.Shutdown()
	time.Sleep(100 * time.Millisecond)

	if s.http != nil {
		if err := s.http.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("http server shutdown error")
		}
	}

	// Background services stop in reverse order of startup
	if s.watcher != nil {
		s.watcher.Stop()
	}
	s.worker.Stop()

	// Close database last
	if err := db.Close(); err != nil {
		log.Error().Err(err).Msg("database close error")
		return err
	}

	log.Info().Msg("server shutdown complete")
	return nil
}

// Router returns the Gin router (for tests)
func (s *Server) Router() *gin.Engine { return s.router }

// corsMiddleware handles CORS for development environments
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000": true,
			"http://localhost:5173": true,
		}

		if allowedOrigins[origin] {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, Upload-Offset, Upload-Length, Upload-Metadata, Tus-Resumable, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Upload-Offset, Upload-Length, Location, Tus-Resumable")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// securityHeadersMiddleware adds security headers for production
func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "SAMEORIGIN")
		c.Header("Cross-Origin-Opener-Policy", "same-origin")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		c.Next()
	}
}
