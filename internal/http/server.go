// Package http exposes the sync operations as a small JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"budgethub/internal/log"
	"budgethub/internal/middleware/ratelimit"
	"budgethub/internal/middleware/security"
	"budgethub/internal/middleware/trace"
	"budgethub/internal/services"
)

const maxBodyBytes = 1 << 20

type Server struct {
	http.Server
	sync    *services.SyncService
	docs    *services.DocumentService
	logger  *log.Logger
	limiter *ratelimit.Limiter
	tracer  *trace.Middleware

	shutdownOnce sync.Once
}

// Options tune the server. Zero values take defaults.
type Options struct {
	// SyncRequestsPerMinute limits push and pull calls per client; both hit
	// the spreadsheet API quota.
	SyncRequestsPerMinute int
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, syncSvc *services.SyncService, docs *services.DocumentService, logger *log.Logger, opts Options) *Server {
	clients := security.NewClientResolver()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			// Pushes of large budgets wait on the spreadsheet API.
			WriteTimeout:   2 * time.Minute,
			IdleTimeout:    60 * time.Second,
			MaxHeaderBytes: 1 << 16,
		},
		sync:    syncSvc,
		docs:    docs,
		logger:  logger.WithComponent(log.ComponentHTTP),
		limiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.SyncRequestsPerMinute}),
	}
	s.tracer = trace.NewMiddleware(s.logger, clients.ClientIP)

	limited := s.limiter.Middleware(clients.ClientIP, func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded, try again later")
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/budgets", s.handleListBudgets)
	mux.HandleFunc("PUT /api/budgets", s.handleImportBudget)
	mux.HandleFunc("GET /api/budgets/{id}", s.handleGetBudget)
	mux.HandleFunc("GET /api/budgets/{id}/history", s.handleHistory)
	mux.Handle("POST /api/budgets/{id}/push", limited(http.HandlerFunc(s.handlePush)))
	mux.Handle("POST /api/budgets/{id}/pull", limited(http.HandlerFunc(s.handlePull)))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Handler = s.tracer.Middleware(headers.Middleware(mux))
	return s
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// Metrics returns request counters.
func (s *Server) Metrics() trace.Metrics {
	return s.tracer.GetMetrics()
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady checks that the document store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if _, err := s.docs.List(ctx); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
		http.Error(w, "document store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
