// Package server exposes the question-answering flow over HTTP: a chat
// endpoint backed by the agent orchestrator, persona and memory management
// routes, and operational endpoints.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/hrygo/weathersense/ai/agent"
	"github.com/hrygo/weathersense/internal/profile"
	"github.com/hrygo/weathersense/store"
)

// AgentRunner is the orchestration entry point the HTTP layer depends on.
type AgentRunner interface {
	Run(ctx context.Context, req *agent.Request) *agent.Result
}

type Server struct {
	echoServer *echo.Echo

	Profile *profile.Profile
	Store   *store.Store
	Agent   AgentRunner

	// Bounds concurrent orchestration runs; each run may hold an LLM call
	// plus multiple upstream weather requests.
	chatSemaphore *semaphore.Weighted
}

func NewServer(_ context.Context, instanceProfile *profile.Profile, storeInstance *store.Store, runner AgentRunner) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
	}))
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.New().String() },
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("http request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
			)
			return nil
		},
	}))

	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(20))))

	s := &Server{
		echoServer:    e,
		Profile:       instanceProfile,
		Store:         storeInstance,
		Agent:         runner,
		chatSemaphore: semaphore.NewWeighted(8),
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	e := s.echoServer

	e.GET("/healthz", s.health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	apiV1 := e.Group("/api/v1")
	apiV1.POST("/chat", s.chatPost)
	apiV1.GET("/chat", s.chatGet)
	apiV1.GET("/personas", s.listPersonas)
	apiV1.DELETE("/memory/:userID", s.clearMemory)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) Start(_ context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	go func() {
		if err := s.echoServer.Start(address); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to serve", "error", err)
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}
	slog.Info("server stopped")
}
