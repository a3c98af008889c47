package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"venturi/internal"
)

// Status is the live snapshot served to operators
type Status struct {
	SessionID       string         `json:"session_id"`
	Phase           string         `json:"phase"`
	FramesProcessed int            `json:"frames_processed"`
	FramesDegraded  int            `json:"frames_degraded"`
	Deployed        int            `json:"deployed"`
	RolledBack      int            `json:"rolled_back"`
	RingDropped     uint64         `json:"ring_dropped"`
	Gates           map[string]any `json:"gates"`
}

// StatusProvider is implemented by the running session service
type StatusProvider interface {
	Status() Status
}

// Server exposes health and session status over HTTP
type Server struct {
	addr     string
	provider StatusProvider
	log      *internal.Logger
	http     *http.Server
}

// NewServer wires the router
func NewServer(addr string, provider StatusProvider, logger *internal.Logger) *Server {
	s := &Server{addr: addr, provider: provider, log: logger.With("api")}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Get("/status", s.handleStatus)

	s.http = &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}
	return s
}

// Run serves until the context ends, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening on %s", s.addr)
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.provider.Status())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
