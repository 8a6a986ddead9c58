package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Server wraps the HTTP listener serving the query API.
type Server struct {
	logger *slog.Logger
	http   *http.Server
}

// NewServer builds the router and binds the handlers. The service argument
// follows the Asker-style interface defined in handlers.go so tests can
// inject a stub.
func NewServer(addr string, service AnswerService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	gin.SetMode(gin.ReleaseMode)

	h := &handlers{service: service, logger: logger}

	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/healthz", h.health)

	v1 := router.Group("/api/v1")
	v1.POST("/ask", h.ask)

	return &Server{
		logger: logger,
		http: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start serves until Shutdown is called or the listener fails.
func (s *Server) Start() error {
	s.logger.Info("http server listening", slog.String("address", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Address returns the configured listen address.
func (s *Server) Address() string {
	return s.http.Addr
}
