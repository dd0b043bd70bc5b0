// Package api exposes the deadline manager over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/username/legal-deadline-engine/internal/daemon"
	"github.com/username/legal-deadline-engine/internal/manager"
	"github.com/username/legal-deadline-engine/internal/metrics"
)

// Scheduler is the daily sweep running next to the server
type Scheduler interface {
	SweepNow(ctx context.Context) (*manager.SweepSummary, error)
	GetStatus() daemon.Status
}

// Server is the HTTP front end of a Manager
type Server struct {
	mgr       *manager.Manager
	metrics   *metrics.Metrics
	scheduler Scheduler
	logger    *zap.Logger
	router    *mux.Router
	handler   http.Handler
}

// NewServer builds the router. corsOrigins may be empty (no cross-origin access).
func NewServer(mgr *manager.Manager, m *metrics.Metrics, logger *zap.Logger, corsOrigins []string) *Server {
	s := &Server{
		mgr:     mgr,
		metrics: m,
		logger:  logger,
		router:  mux.NewRouter(),
	}
	s.routes()

	s.handler = s.router
	if len(corsOrigins) > 0 {
		c := cors.New(cors.Options{
			AllowedOrigins: corsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type"},
		})
		s.handler = c.Handler(s.router)
	}
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(s.observe)

	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	r.HandleFunc("/deadline-types", s.listTypes).Methods(http.MethodGet)

	r.HandleFunc("/deadlines", s.createDeadline).Methods(http.MethodPost)
	r.HandleFunc("/deadlines", s.listDeadlines).Methods(http.MethodGet)
	r.HandleFunc("/deadlines/{id}", s.getDeadline).Methods(http.MethodGet)
	r.HandleFunc("/deadlines/{id}/suspend", s.suspendDeadline).Methods(http.MethodPost)
	r.HandleFunc("/deadlines/{id}/resume", s.resumeDeadline).Methods(http.MethodPost)
	r.HandleFunc("/deadlines/{id}/fulfil", s.fulfilDeadline).Methods(http.MethodPost)
	r.HandleFunc("/deadlines/{id}/suspensions", s.listSuspensions).Methods(http.MethodGet)
	r.HandleFunc("/deadlines/{id}/history", s.deadlineHistory).Methods(http.MethodGet)

	r.HandleFunc("/sweep", s.sweep).Methods(http.MethodPost)

	r.HandleFunc("/business-days/add", s.addBusinessDays).Methods(http.MethodPost)
	r.HandleFunc("/business-days/remaining", s.remainingBusinessDays).Methods(http.MethodGet)
	r.HandleFunc("/holidays", s.listHolidays).Methods(http.MethodGet)
	r.HandleFunc("/calendar/{year:[0-9]{4}}/{month:[0-9]{1,2}}", s.monthCalendar).Methods(http.MethodGet)
}

// WithScheduler routes non dry-run sweeps through sc and reports its status on /healthz
func (s *Server) WithScheduler(sc Scheduler) *Server {
	s.scheduler = sc
	return s
}

// ServeHTTP makes Server an http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// observe records request latency by route template
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		elapsed := time.Since(start)
		s.metrics.ObserveHTTP(r.Method, route, rec.status, elapsed)
		s.logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", elapsed))
	})
}

func zapRequest(r *http.Request, err error) []zap.Field {
	return []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	}
}
