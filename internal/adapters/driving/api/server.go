// Package api exposes the answer pipeline over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/civicdocs/planrag/internal/core/ports/driving"
	"github.com/civicdocs/planrag/internal/logger"
)

// Server wires the driving port services to HTTP handlers.
type Server struct {
	answer driving.AnswerService
	status driving.StatusService
	engine *gin.Engine
}

// queryRequest is the POST /query body.
type queryRequest struct {
	Query string `json:"query" binding:"required"`
	TopK  int    `json:"top_k"`
}

// NewServer creates the HTTP server and registers routes.
func NewServer(answer driving.AnswerService, status driving.StatusService) *Server {
	if !logger.IsVerbose() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		answer: answer,
		status: status,
		engine: gin.New(),
	}
	s.engine.Use(gin.Recovery())

	s.engine.POST("/query", s.handleQuery)
	s.engine.GET("/health", s.handleHealth)

	return s
}

// Handler returns the underlying HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// handleQuery answers a question. The answer pipeline resolves every
// query to an answer, so this only fails on bad input or cancellation.
func (s *Server) handleQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	answer, err := s.answer.Answer(c.Request.Context(), req.Query, req.TopK)
	if err != nil {
		logger.Warn("Query failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	c.JSON(http.StatusOK, answer)
}

// handleHealth reports store contents and service reachability. A store
// failure yields 503.
func (s *Server) handleHealth(c *gin.Context) {
	status, err := s.status.Check(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, status)
}
