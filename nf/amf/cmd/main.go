// Command amf runs the Access and Mobility Management Function: the SBI
// HTTP adapter, the in-process N1 adapter, the TCP-framed N2 adapter, the
// orchestrator dispatching between them, and the background monitor tick.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fivegc/corenet/common/metrics"
	"github.com/fivegc/corenet/nf/amf/internal/client"
	"github.com/fivegc/corenet/nf/amf/internal/config"
	"github.com/fivegc/corenet/nf/amf/internal/monitor"
	"github.com/fivegc/corenet/nf/amf/internal/n1n2"
	"github.com/fivegc/corenet/nf/amf/internal/nfregistry"
	"github.com/fivegc/corenet/nf/amf/internal/orchestrator"
	"github.com/fivegc/corenet/nf/amf/internal/sbi"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "nf/amf/config/amf.yaml", "path to configuration file")
	flag.Parse()

	logger := createLogger("info")
	defer logger.Sync()

	logger.Info("starting AMF (Access and Mobility Management Function)",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	logger.Info("configuration loaded",
		zap.String("sbi_bind", cfg.SBI.BindAddress),
		zap.Int("sbi_port", cfg.SBI.Port),
		zap.String("guami", cfg.GUAMIString()),
	)

	orch := orchestrator.New(cfg, logger)
	preRegisterPeers(orch, cfg)

	n1 := n1n2.NewN1Service(logger)
	registerN1Paging(n1, orch)
	n2 := n1n2.NewN2Service(fmt.Sprintf("%s:%d", cfg.N1N2.BindAddress, cfg.N1N2.N2Port), logger)
	registerN2Bridge(n2, orch, logger)

	sbiAddr := fmt.Sprintf("%s:%d", cfg.SBI.BindAddress, cfg.SBI.Port)
	sbiServer := sbi.NewServer(sbiAddr, cfg.SBI.StrictMode, cfg.SBI.Compat, orch, logger)

	var sink monitor.StatsSink
	if cfg.ClickHouse.Enabled {
		chSink, err := monitor.NewClickHouseSink(cfg.ClickHouse)
		if err != nil {
			logger.Error("failed to open clickhouse stats sink, continuing without it", zap.Error(err))
		} else {
			sink = chSink
			defer chSink.Close()
		}
	}
	mon := monitor.New(orch, cfg.Capacity.MaxUeConnections, sink, logger)
	mon.Start()
	defer mon.Stop()

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

	if cfg.NRF.Enabled {
		registerWithNRF(rootCtx, cfg, logger)
	}

	n2Errors := make(chan error, 1)
	go func() {
		n2Errors <- n2.Start(rootCtx)
	}()

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("AMF started successfully",
			zap.String("sbi_address", sbiAddr),
			zap.String("n2_address", fmt.Sprintf("%s:%d", cfg.N1N2.BindAddress, cfg.N1N2.N2Port)),
			zap.String("guami", cfg.GUAMIString()),
		)
		serverErrors <- sbiServer.Start(rootCtx)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Fatal("sbi server error", zap.Error(err))
	case err := <-n2Errors:
		if err != nil {
			logger.Error("n2 service exited", zap.Error(err))
		}
	case sig := <-shutdown:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := sbiServer.Stop(shutdownCtx); err != nil {
			logger.Error("failed to gracefully shutdown sbi server", zap.Error(err))
		}
		if err := n2.Stop(shutdownCtx); err != nil {
			logger.Error("failed to gracefully shutdown n2 service", zap.Error(err))
		}

		logger.Info("AMF shutdown complete")
	}
}

// preRegisterPeers installs the bootstrap SMF/UPF/AUSF/UDM/PCF peer
// entries the AMF needs at startup: this deployment ships no
// SMF/AUSF/UDM/PCF binaries, so these peers carry no reachable
// address; authenticate() falls back to its local simulator, and
// SelectSmfForSession() picks from the registry without looking at
// addresses. The UPF entry carries no address either.
func preRegisterPeers(orch *orchestrator.Orchestrator, cfg *config.Config) {
	orch.PreRegisterPeers([]nfregistry.NfInstance{
		{InstanceID: "ausf-1", NFType: nfregistry.NFTypeAUSF, Status: nfregistry.StatusRegistered, Priority: 1, Capacity: 100},
		{InstanceID: "udm-1", NFType: nfregistry.NFTypeUDM, Status: nfregistry.StatusRegistered, Priority: 1, Capacity: 100},
		{InstanceID: "pcf-1", NFType: nfregistry.NFTypePCF, Status: nfregistry.StatusRegistered, Priority: 1, Capacity: 100},
		{InstanceID: "smf-1", NFType: nfregistry.NFTypeSMF, Status: nfregistry.StatusRegistered, Priority: 1, Capacity: 100},
		{InstanceID: "upf-1", NFType: nfregistry.NFTypeUPF, Status: nfregistry.StatusRegistered, Priority: 1, Capacity: 100},
	})
}

// registerN1Paging registers the PAGING NAS message handler: a no-op
// acknowledgement that the UE referenced by the message is known,
// since N1 traffic here is synthesized from SBI inputs rather than
// read off a wire port.
func registerN1Paging(n1 *n1n2.N1Service, orch *orchestrator.Orchestrator) {
	n1.Register("PAGING", func(ctx context.Context, msg n1n2.N1Message) (n1n2.N1Message, bool) {
		_, ok := orch.UeStore().Get(msg.SUPI)
		return msg, ok
	})
}

// registerN2Bridge wires the N2 INITIAL_UE_MESSAGE type into the same
// UE-creation path SBI traffic uses, synthesizing an SbiMessage from the
// N2 frame's SUPI IE — the orchestrator has a single UE-lifecycle entry
// point regardless of which adapter a message arrived on.
func registerN2Bridge(n2 *n1n2.N2Service, orch *orchestrator.Orchestrator, logger *zap.Logger) {
	n2.Register("INITIAL_UE_MESSAGE", func(ctx context.Context, msg n1n2.N2Message) (n1n2.N2Message, bool) {
		supi := msg.IEs["supi"]
		if supi == "" {
			logger.Warn("initial ue message missing supi ie", zap.String("ran_node_id", msg.RanNodeID))
			return msg, false
		}

		out := orch.HandleSbiMessage(ctx, sbi.SbiMessage{
			Service: sbi.ServiceNamfComm,
			Message: sbi.MsgUeContextCreate,
			Method:  "POST",
			URI:     "/namf-comm/v1/ue-contexts",
			Body:    []byte(fmt.Sprintf(`{"supi":%q}`, supi)),
		})

		msg.IEs["amfState"] = out.AmfState
		return msg, out.StatusCode < 400
	})
}

// registerWithNRF registers this AMF with an external NRF and starts the
// heartbeat loop. Failures are logged, not fatal: the in-process peer
// registry (preRegisterPeers) is what orchestrator dispatch actually
// relies on.
func registerWithNRF(ctx context.Context, cfg *config.Config, logger *zap.Logger) {
	nrfClient := client.NewNRFClient(cfg.NRF.URL, logger)

	profile := &client.NFProfile{
		NFInstanceID: cfg.AMF.InstanceID,
		NFType:       "AMF",
		NFStatus:     "REGISTERED",
		PLMNID: client.PLMNID{
			MCC: cfg.PLMN.MCC,
			MNC: cfg.PLMN.MNC,
		},
		IPv4Addresses: []string{fmt.Sprintf("%s:%d", cfg.SBI.BindAddress, cfg.SBI.Port)},
		Capacity:      100,
		Priority:      1,
		AMFInfo: &client.AMFInfo{
			AMFSetID:    cfg.AMF.SetID,
			AMFRegionID: cfg.AMF.RegionID,
			GUAMIList: []client.GUAMI{
				{
					PLMNID: client.PLMNID{MCC: cfg.PLMN.MCC, MNC: cfg.PLMN.MNC},
					AMF:    cfg.GUAMIString(),
				},
			},
		},
	}

	if err := nrfClient.Register(ctx, profile); err != nil {
		logger.Error("failed to register with NRF", zap.Error(err))
		return
	}
	logger.Info("registered with NRF")

	go func() {
		ticker := time.NewTicker(cfg.NRF.HeartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := nrfClient.Heartbeat(ctx, cfg.AMF.InstanceID); err != nil {
					logger.Error("nrf heartbeat failed", zap.Error(err))
					metrics.RecordNRFHeartbeatFailure()
				}
			case <-ctx.Done():
				if err := nrfClient.Deregister(context.Background(), cfg.AMF.InstanceID); err != nil {
					logger.Error("failed to deregister from NRF", zap.Error(err))
				}
				return
			}
		}
	}()
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
