// Package server is the UPF's admin/monitoring HTTP surface, reporting
// session and counter state from the Store.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/fivegc/corenet/nf/upf/internal/config"
	upfcontext "github.com/fivegc/corenet/nf/upf/internal/context"
)

// Server is the UPF's status/health admin server.
type Server struct {
	config     *config.Config
	router     *chi.Mux
	httpServer *http.Server
	store      *upfcontext.Store
	logger     *zap.Logger
}

// NewServer builds the admin server's routes.
func NewServer(cfg *config.Config, store *upfcontext.Store, logger *zap.Logger) *Server {
	s := &Server{
		config: cfg,
		router: chi.NewRouter(),
		store:  store,
		logger: logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Get("/health", s.handleHealthCheck)
	s.router.Get("/ready", s.handleReadinessCheck)
	s.router.Get("/status", s.handleStatus)
	s.router.Get("/sessions", s.handleGetSessions)
	s.router.Get("/stats", s.handleGetStats)
}

// Start blocks serving the admin HTTP listener until Stop is called.
func (s *Server) Start() error {
	addr := s.config.GetAdminAddress()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting UPF admin server", zap.String("address", addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts down the admin server.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReadinessCheck(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"upf_instance_id": s.config.UPF.InstanceID,
		"upf_name":        s.config.UPF.Name,
		"session_count":   s.store.Count(),
	})
}

func (s *Server) handleGetSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.store.All()

	sessionList := make([]map[string]interface{}, 0, len(sessions))
	for _, sess := range sessions {
		stats := sess.Stats()
		sessionList = append(sessionList, map[string]interface{}{
			"ue_ip":         sess.UEIP.String(),
			"dl_teid":       sess.DLTEID,
			"ul_teid":       sess.ULTEID,
			"gnb_ip":        sess.GNBIP.String(),
			"worker_index":  sess.WorkerIndex(),
			"dl_bytes":      stats.DLBytes,
			"dl_packets":    stats.DLPackets,
			"ul_bytes":      stats.ULBytes,
			"ul_packets":    stats.ULPackets,
		})
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": sessionList,
		"count":    len(sessionList),
	})
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	sessions := s.store.All()

	var dlBytes, dlPackets, ulBytes, ulPackets uint64
	for _, sess := range sessions {
		stats := sess.Stats()
		dlBytes += stats.DLBytes
		dlPackets += stats.DLPackets
		ulBytes += stats.ULBytes
		ulPackets += stats.ULPackets
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"downlink_bytes":   dlBytes,
		"downlink_packets": dlPackets,
		"uplink_bytes":     ulBytes,
		"uplink_packets":   ulPackets,
		"session_count":    len(sessions),
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.Error("failed to encode JSON response", zap.Error(err))
		}
	}
}
