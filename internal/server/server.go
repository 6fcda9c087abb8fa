// internal/server/server.go

// Package server exposes the orchestrator over HTTP: task submission,
// liveness, metrics, and the WebSocket progress stream.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"droid-orchestrator/internal/common/config"
	"droid-orchestrator/internal/common/logger"
	"droid-orchestrator/internal/common/metrics"
	"droid-orchestrator/internal/models"
	"droid-orchestrator/internal/workflow"
)

// Server wires the HTTP API, the broadcast hub and the workflow dispatcher.
type Server struct {
	cfg          config.ServerConfig
	appName      string
	logger       logger.Logger
	hub          *Hub
	orchestrator *workflow.Orchestrator
	httpServer   *http.Server
}

// New creates the HTTP server.
func New(cfg config.ServerConfig, appName string, hub *Hub, orch *workflow.Orchestrator, log logger.Logger) *Server {
	s := &Server{
		cfg:          cfg,
		appName:      appName,
		logger:       log,
		hub:          hub,
		orchestrator: orch,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST"},
		AllowHeaders:    []string{"Origin", "Content-Type"},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/", s.handleLiveness)
	router.POST("/task", s.handleTask)
	router.GET("/ws", s.handleWS)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: router,
	}
	return s
}

// Handler exposes the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start runs the HTTP server until it fails or is shut down.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", map[string]interface{}{"addr": s.httpServer.Addr})
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight HTTP requests. Running workflows finish on their
// own goroutines; the hub disconnects subscribers via its own context.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": s.appName,
	})
}

// handleTask validates a task submission and queues it. The response only
// acknowledges queuing; progress and the final outcome arrive over /ws.
func (s *Server) handleTask(c *gin.Context) {
	var payload models.TaskPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid JSON body: " + err.Error()})
		return
	}

	req, err := models.ParseTaskPayload(payload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	metrics.TasksAccepted.WithLabelValues(req.Persona()).Inc()
	s.logger.Info("Task accepted", map[string]interface{}{"persona": req.Persona()})

	go s.runTask(req)

	c.JSON(http.StatusOK, gin.H{
		"status":  "accepted",
		"message": "Task queued",
	})
}

func (s *Server) handleWS(c *gin.Context) {
	s.hub.HandleWebSocket(c.Writer, c.Request)
}

// runTask drives one queued task to completion on its own goroutine. The
// stream carries exactly one start line and exactly one terminal line per
// task, with workflow progress lines in between.
func (s *Server) runTask(req models.TaskRequest) {
	s.hub.Publish(fmt.Sprintf("🚀 Starting task for persona '%s'...", req.Persona()))

	result, err := s.orchestrator.Execute(context.Background(), req, s.hub)
	if err != nil {
		s.logger.Error("Task failed", map[string]interface{}{
			"persona": req.Persona(),
			"error":   err.Error(),
		})
		s.hub.Publish(fmt.Sprintf("🔥 Task failed: %s", err.Error()))
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		s.hub.Publish(fmt.Sprintf("🔥 Task failed: %s", err.Error()))
		return
	}
	s.hub.Publish(fmt.Sprintf("✅ Task complete: %s", string(data)))
}

// WaitForSubscribers polls until at least n subscribers are connected or the
// timeout elapses. Helps tests hand-shake with the hub.
func (s *Server) WaitForSubscribers(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if s.hub.ClientCount() >= n {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}
