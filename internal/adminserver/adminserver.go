// Package adminserver exposes the risk worker's operational HTTP
// surface: liveness/readiness probes and a portfolio debug endpoint.
package adminserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/riskdesk/fi-risk-engine/internal/health"
	"github.com/riskdesk/fi-risk-engine/internal/instrument"
)

// PortfolioProvider is implemented by whatever holds the live
// portfolio, decoupling the admin server from the stream coordinator.
type PortfolioProvider interface {
	Portfolio() *instrument.Portfolio
}

// Server is the admin HTTP surface.
type Server struct {
	router    *chi.Mux
	server    *http.Server
	log       zerolog.Logger
	collector *health.Collector
	portfolio PortfolioProvider
}

// New builds an admin server listening on addr.
func New(addr string, collector *health.Collector, portfolio PortfolioProvider, log zerolog.Logger) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       log.With().Str("component", "admin_server").Logger(),
		collector: collector,
		portfolio: portfolio,
	}

	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Timeout(10 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET"},
		AllowedHeaders: []string{"Accept"},
		MaxAge:         300,
	}))

	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)
	s.router.Get("/debug/portfolio", s.handleDebugPortfolio)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}
	return s
}

// ListenAndServe blocks serving the admin surface until shutdown.
func (s *Server) ListenAndServe() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("admin server listening")
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the admin server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	snap := s.collector.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(snap)
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	snap := s.collector.Snapshot()
	if !snap.CurveBuilt {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "not ready: curve unbuilt"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}

func (s *Server) handleDebugPortfolio(w http.ResponseWriter, r *http.Request) {
	p := s.portfolio.Portfolio()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]int{"instrument_count": p.Len()})
}
