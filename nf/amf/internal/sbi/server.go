// Package sbi is the AMF's Service-Based Interface (HTTP/JSON) adapter:
// it terminates HTTP, classifies each request into a service/operation
// tuple, and shapes the JSON response around the orchestrator's outcome.
package sbi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const maxBodyBytes = 4096

// Server is the AMF's HTTP SBI listener.
type Server struct {
	bindAddr     string
	strictMode   bool
	compat       bool // preserve /registrations, /deregistrations mapping
	orchestrator Orchestrator
	router       *chi.Mux
	httpServer   *http.Server
	logger       *zap.Logger
}

// NewServer builds an SBI server bound to addr. strictMode turns unknown
// routes into 404s instead of the forgiving 200 default; compat keeps the
// /registrations and /deregistrations fallback mapping alive underneath
// strict mode.
func NewServer(addr string, strictMode, compat bool, orch Orchestrator, logger *zap.Logger) *Server {
	s := &Server{
		bindAddr:     addr,
		strictMode:   strictMode,
		compat:       compat,
		orchestrator: orch,
		router:       chi.NewRouter(),
		logger:       logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/ready", s.handleHealth)
	s.router.Get("/stats", s.handleStats)
	s.router.Handle("/metrics", promhttp.Handler())

	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch} {
		s.router.MethodFunc(method, "/*", s.handleSbi)
	}
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("sbi request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// handleStats answers GET /stats with the orchestrator's current
// counters and process-health snapshot.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	body, err := json.Marshal(s.orchestrator.Stats())
	if err != nil {
		s.logger.Error("failed to marshal stats response", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(body)))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// Start runs the HTTP listener until Stop is called or it fails.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.bindAddr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	s.logger.Info("sbi server starting", zap.String("address", s.bindAddr))
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts the listener down.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("sbi server stopping")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, resp Response) {
	resp.CorrelationID = uuid.New().String()
	body, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("failed to marshal sbi response", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(body)))
	w.Header().Set("Connection", "close")
	w.WriteHeader(status)
	w.Write(body)
}
