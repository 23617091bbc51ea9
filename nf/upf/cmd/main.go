// Command upf runs the User Plane Function fast path: a static session
// table plus an RSS-simulated worker pool forwarding GTP-U traffic
// between the N3 (gNB) and N6 (data network) interfaces. This UPF has no
// NRF client of its own, since the AMF pre-registers peer NFs at
// bootstrap and there is no PFCP control plane in this deployment.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fivegc/corenet/common/metrics"
	"github.com/fivegc/corenet/nf/upf/internal/config"
	upfcontext "github.com/fivegc/corenet/nf/upf/internal/context"
	"github.com/fivegc/corenet/nf/upf/internal/gtpu"
	"github.com/fivegc/corenet/nf/upf/internal/server"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "nf/upf/config/upf.yaml", "path to configuration file")
	flag.Parse()

	logger := createLogger("info")
	defer logger.Sync()

	logger.Info("starting UPF (User Plane Function)",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	logger.Info("configuration loaded",
		zap.String("n3_address", cfg.GetN3Address()),
		zap.String("n6_address", cfg.GetN6Address()),
		zap.Int("num_workers", cfg.WorkerPool.NumWorkers),
		zap.Int("static_sessions", len(cfg.Sessions)),
	)

	store := upfcontext.NewStore(cfg.WorkerPool.NumWorkers)
	if err := installStaticSessions(store, cfg.Sessions); err != nil {
		logger.Fatal("failed to install static sessions", zap.Error(err))
	}
	logger.Info("static sessions installed", zap.Int("count", store.Count()))

	localIP := net.ParseIP(cfg.N3.LocalAddress)

	handler := gtpu.NewHandler(cfg, logger)
	pool := gtpu.NewWorkerPool(
		store,
		localIP,
		cfg.WorkerPool.NumWorkers,
		cfg.WorkerPool.QueueDepth,
		handler.TxN3,
		handler.TxN6,
		logger,
		gtpu.WithDropHook(metrics.RecordGTPUPacketDropped),
	)
	handler.SetPool(pool)

	srv := server.NewServer(cfg, store, logger)

	metricsServer := metrics.NewMetricsServer(cfg.Observability.Metrics.Port, logger)
	go func() {
		logger.Info("starting metrics server", zap.Int("port", cfg.Observability.Metrics.Port))
		if err := metricsServer.Start(); err != nil {
			logger.Error("metrics server error", zap.Error(err))
		}
	}()
	defer metricsServer.Stop()

	metrics.SetServiceUp(true)
	defer metrics.SetServiceUp(false)

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go pool.Run(rootCtx)

	handlerErrors := make(chan error, 1)
	go func() {
		handlerErrors <- handler.Start(rootCtx)
	}()

	go statsTicker(rootCtx, store)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("UPF started successfully",
			zap.String("n3_address", cfg.GetN3Address()),
			zap.String("admin_address", cfg.GetAdminAddress()),
		)
		serverErrors <- srv.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Fatal("admin server error", zap.Error(err))
	case err := <-handlerErrors:
		if err != nil {
			logger.Fatal("gtp-u handler error", zap.Error(err))
		}
	case sig := <-shutdown:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Stop(shutdownCtx); err != nil {
			logger.Error("failed to gracefully shutdown admin server", zap.Error(err))
		}

		logger.Info("UPF shutdown complete")
	}
}

func installStaticSessions(store *upfcontext.Store, sessions []config.StaticSession) error {
	for _, s := range sessions {
		sess := &upfcontext.Session{
			UEIP:        net.ParseIP(s.UEIP),
			DLTEID:      s.DLTEID,
			ULTEID:      s.ULTEID,
			GNBIP:       net.ParseIP(s.GNBIP),
			GNBPort:     s.GNBPort,
			DNIP:        net.ParseIP(s.DNIP),
			QoSPriority: s.QoSPriority,
		}
		if err := store.Install(sess); err != nil {
			return fmt.Errorf("session for ue %s: %w", s.UEIP, err)
		}
	}
	return nil
}

// statsTicker periodically republishes the aggregate session count to
// Prometheus.
func statsTicker(ctx context.Context, store *upfcontext.Store) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.SetUPFActiveSessions(store.Count())
		}
	}
}

func createLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to create logger: %v", err))
	}
	return logger
}
