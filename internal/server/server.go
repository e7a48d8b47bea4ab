// Package server exposes the aggregation engine and the detectors over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/complyops/sentinel/internal/detector"
	"github.com/complyops/sentinel/internal/engine"
	"github.com/complyops/sentinel/pkg/logger"
)

// Detectors bundles the analyzers the API exposes.
type Detectors struct {
	Diff     *detector.DiffDetector
	Chat     *detector.ChatDetector
	Document *detector.DocDetector
}

// Server is the HTTP front end. All state lives in the engine; handlers only
// translate between the wire and engine calls.
type Server struct {
	engine    *engine.Engine
	detectors Detectors
	metrics   *Metrics
	log       logger.Logger
	router    *gin.Engine
}

// New builds a server and its routes. Metrics may be nil, in which case the
// /metrics endpoint is not registered.
func New(eng *engine.Engine, dets Detectors, metrics *Metrics, log logger.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		engine:    eng,
		detectors: dets,
		metrics:   metrics,
		log:       log.With("component", "server"),
	}

	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())
	s.routes(router)
	s.router = router
	return s
}

func (s *Server) routes(r *gin.Engine) {
	r.GET("/", s.handleIndex)
	r.GET("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	api := r.Group("/api/v1")
	api.POST("/findings", s.handleIngest)
	api.GET("/findings", s.handleFindings)
	api.GET("/risk", s.handleRisk)
	api.GET("/dashboard", s.handleDashboard)
	api.GET("/reviews", s.handleReviews)
	api.POST("/reviews/:id/resolve", s.handleResolveReview)
	api.GET("/agents", s.handleAgents)
	api.POST("/agents/:name/status", s.handleAgentStatus)
	api.POST("/analyze/diff", s.handleAnalyzeDiff)
	api.POST("/analyze/chat", s.handleAnalyzeChat)
	api.POST("/analyze/document", s.handleAnalyzeDocument)
}

// Handler returns the routing handler, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until the context is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	s.log.Info("listening", "addr", addr)
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds())
	}
}
