package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rzzdr/ccr-analytics/pkg/metrics"
	"github.com/rzzdr/ccr-analytics/pkg/utils/backpressure"
	"github.com/rzzdr/ccr-analytics/pkg/utils/logger"
)

// Config holds the configuration for the API server
type Config struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
	// RateLimit caps the compute endpoints in requests per second; 0 disables it
	RateLimit float64
	RateBurst int
}

// Server represents the API server
type Server struct {
	config     Config
	router     *gin.Engine
	httpServer *http.Server
	handlers   *Handlers
	recorder   *metrics.Recorder
	gatherer   prometheus.Gatherer
	log        *logger.Logger
}

// NewServer creates a new API server. recorder and gatherer may be nil, in
// which case request metrics and /metrics are disabled.
func NewServer(config Config, handlers *Handlers, recorder *metrics.Recorder, gatherer prometheus.Gatherer) *Server {
	// Apply defaults if needed
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = 10 * time.Second
	}

	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 60 * time.Second
	}

	server := &Server{
		config:   config,
		router:   gin.New(),
		handlers: handlers,
		recorder: recorder,
		gatherer: gatherer,
		log:      logger.GetLogger("api.server"),
	}

	server.setupRoutes()

	return server
}

// Router returns the underlying gin engine
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start starts the API server and blocks until it stops
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.log.Infof("Starting API server on %s", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the API server gracefully
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer != nil {
		s.log.Info("Stopping API server")
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

func (s *Server) setupRoutes() {
	s.router.Use(ErrorMiddleware())
	s.router.Use(LoggingMiddleware())
	if s.recorder != nil {
		s.router.Use(MetricsMiddleware(s.recorder))
	}
	s.router.Use(CORSMiddleware(s.config.AllowedOrigins))

	if s.gatherer != nil {
		s.router.GET("/metrics", gin.WrapH(metrics.Handler(s.gatherer)))
	}

	v1 := s.router.Group("/api/v1")
	v1.GET("/health", s.handlers.HealthCheckHandler)

	compute := v1.Group("")
	if s.config.RateLimit > 0 {
		compute.Use(RateLimitMiddleware(backpressure.NewTokenBucketLimiter(s.config.RateLimit, s.config.RateBurst)))
	}
	compute.POST("/exposure", s.handlers.ExposureProfileHandler)
	compute.POST("/cva", s.handlers.CVAHandler)
	compute.POST("/scenarios", s.handlers.RunStressTestHandler)
	compute.POST("/analysis", s.handlers.AnalysisHandler)

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
	})
}
