// Package server exposes the dialogue orchestrator over HTTP for web
// front-ends. One endpoint carries the whole conversation; the rest are
// read-only views of the tracker for dashboards.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/taskloop/taskloop/internal/backend"
	"github.com/taskloop/taskloop/internal/dialogue"
)

type Server struct {
	orch    *dialogue.Orchestrator
	store   backend.Store
	port    int
	origins map[string]struct{}
	server  *http.Server

	// turnLocks serializes turns per session id; the orchestrator requires
	// that concurrent requests for the same session never overlap.
	turnLocks sync.Map
}

// sessionLock returns the mutex guarding turns for one session id.
func (s *Server) sessionLock(sessionID string) *sync.Mutex {
	mu, _ := s.turnLocks.LoadOrStore(sessionID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// New creates a Server. allowedOrigins is the CORS allow-list; an empty list
// disables cross-origin access.
func New(port int, allowedOrigins []string, orch *dialogue.Orchestrator, store backend.Store) *Server {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}

	s := &Server{orch: orch, store: store, port: port, origins: origins}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/projects", s.handleListProjects)
	mux.HandleFunc("GET /api/tasks", s.handleListTasks)
	mux.HandleFunc("GET /api/sprints", s.handleListSprints)
	mux.HandleFunc("OPTIONS /api/", s.handleCORS)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.corsMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start runs the server in a goroutine. Errors other than a clean shutdown
// are sent on errChan.
func (s *Server) Start(wg *sync.WaitGroup, errChan chan<- error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("API server listening", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleCORS(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func writeAPIJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("API response encoding failed", "error", err)
	}
}
