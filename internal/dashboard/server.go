// Package dashboard serves a read-only HTTP status API over the live
// strategy and broker state.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/eddiefleurent/stamford_straddler/internal/broker"
	"github.com/eddiefleurent/stamford_straddler/internal/strategy"
)

// StatusProvider exposes the strategy driver state the dashboard renders.
type StatusProvider interface {
	Status() strategy.Status
}

// Server is the dashboard HTTP server.
type Server struct {
	router   *chi.Mux
	server   *http.Server
	strategy StatusProvider
	broker   broker.Broker
	logger   *logrus.Logger
	port     int
}

// Config holds the server settings.
type Config struct {
	Port int
}

// NewServer creates a dashboard server bound to the given collaborators.
func NewServer(cfg Config, sp StatusProvider, b broker.Broker, logger *logrus.Logger) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		strategy: sp,
		broker:   b,
		logger:   logger,
		port:     cfg.Port,
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(10 * time.Second))

	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/api/status", s.handleStatus)
	s.router.Get("/api/positions", s.handlePositions)
	s.router.Get("/api/account", s.handleAccount)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start serves until the context is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("port", s.port).Info("dashboard listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, s.strategy.Status())
}

func (s *Server) handlePositions(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, s.broker.Positions())
}

func (s *Server) handleAccount(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]string{
		"total_portfolio_value": s.broker.TotalPortfolioValue().StringFixed(2),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("encoding dashboard response")
	}
}
