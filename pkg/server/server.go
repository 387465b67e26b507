// Package server runs the HTTP transport: the streamable MCP endpoint
// plus health and metrics endpoints for container orchestration.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m-mizutani/symbios/pkg/usecase/memory"
	"github.com/m-mizutani/symbios/pkg/utils/logging"
)

const (
	serverName      = "symbios"
	shutdownTimeout = 10 * time.Second
)

// Config holds the HTTP server settings and the identity reported by the
// health endpoint.
type Config struct {
	Addr           string
	Version        string
	Collection     string
	PersonaVariant string
}

// Server serves the MCP protocol over streamable HTTP alongside health
// and metrics endpoints.
type Server struct {
	cfg        Config
	uc         *memory.UseCase
	instanceID string
	httpServer *http.Server
}

// New wires the router. The instance ID is assigned once per process and
// reported by the health endpoint, which makes restarts visible to
// orchestration.
func New(cfg Config, uc *memory.UseCase, mcpServer *mcp.Server) *Server {
	s := &Server{
		cfg:        cfg,
		uc:         uc,
		instanceID: uuid.New().String(),
	}

	r := chi.NewRouter()
	r.Use(chiMiddleware.Recoverer)
	r.Use(durationMiddleware)

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return mcpServer
	}, nil))

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Handler returns the assembled router.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	logger := logging.From(ctx)
	logger.Info("starting HTTP server",
		"addr", s.cfg.Addr,
		"instance_id", s.instanceID)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- goerr.Wrap(err, "HTTP server failed", goerr.V("addr", s.cfg.Addr))
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return goerr.Wrap(err, "failed to shut down HTTP server")
	}
	return <-errCh
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"server":  serverName,
		"status":  "running",
		"version": s.cfg.Version,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	count, err := s.uc.Count(r.Context())
	if err != nil {
		logging.From(r.Context()).Error("failed to count memories", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		writeJSON(w, map[string]any{"status": "unhealthy"})
		return
	}

	writeJSON(w, map[string]any{
		"status":          "healthy",
		"server_name":     serverName,
		"version":         s.cfg.Version,
		"instance_id":     s.instanceID,
		"collection_name": s.cfg.Collection,
		"persona_variant": s.cfg.PersonaVariant,
		"memory_count":    count,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
