// Package api implements the two externally-visible entry points (spec.md
// §6): the message entry, which runs the graph end-to-end, and the confirm
// entry, which applies or cancels a prior pending action by dispatching
// straight to the executor instead of re-running resolution/consequence
// checking. Both share the request-envelope/response-envelope contract of
// spec.md §6.1-§6.2.
package api

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/RudraKhare/movi-agent/pkg/catalog"
	"github.com/RudraKhare/movi-agent/pkg/database"
	"github.com/RudraKhare/movi-agent/pkg/executor"
	"github.com/RudraKhare/movi-agent/pkg/orchestrator"
	"github.com/RudraKhare/movi-agent/pkg/session"
	"github.com/RudraKhare/movi-agent/pkg/version"
)

// Server wires the orchestration engine, session store, and executor into a
// gin router. It holds no mutable state of its own beyond the *sql.DB
// handle needed for the health check.
type Server struct {
	engine   *orchestrator.Engine
	sessions *session.Store
	executor *executor.Executor
	db       *sql.DB

	router *gin.Engine
}

// New builds a Server with every route registered.
func New(engine *orchestrator.Engine, sessions *session.Store, ex *executor.Executor, db *sql.DB) *Server {
	s := &Server{engine: engine, sessions: sessions, executor: ex, db: db}
	s.router = gin.New()
	s.router.Use(gin.Recovery(), requestLogger())
	s.registerRoutes()
	return s
}

// Router exposes the underlying gin engine (for tests and for http.Server).
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.handleHealth)
	v1 := s.router.Group("/api/v1")
	v1.GET("/catalog", s.handleCatalog)
	v1.POST("/message", s.handleMessage)
	v1.POST("/confirm", s.handleConfirm)
}

// requestLogger mirrors the teacher's structured-logging style (slog, not
// gin's default text logger) so API access logs match the rest of the
// process's log stream.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	health, err := database.Health(ctx, s.db)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": health, "version": version.Full(), "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "database": health, "version": version.Full()})
}

// catalogEntry is the JSON-serializable projection of catalog.Action
// returned by the introspection endpoint.
type catalogEntry struct {
	Name               string   `json:"name"`
	Category           string   `json:"category"`
	Risk               string   `json:"risk"`
	PageRequirement    string   `json:"page_requirement"`
	RequiredParameters []string `json:"required_parameters"`
	TargetFree         bool     `json:"target_free"`
}

func (s *Server) handleCatalog(c *gin.Context) {
	all := catalog.All()
	out := make([]catalogEntry, 0, len(all))
	for _, a := range all {
		out = append(out, catalogEntry{
			Name:               a.Name,
			Category:           string(a.Category),
			Risk:               string(a.Risk),
			PageRequirement:    string(a.PageRequirement),
			RequiredParameters: a.RequiredParameters,
			TargetFree:         a.TargetFree,
		})
	}
	c.JSON(http.StatusOK, gin.H{"actions": out})
}
