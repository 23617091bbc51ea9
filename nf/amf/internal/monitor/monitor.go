// Package monitor runs the AMF's two background ticks: a 30s statistics
// tick that snapshots counters, updates this AMF's self-reported load,
// sweeps stale deregistered UE contexts, and optionally writes a row to
// ClickHouse; and a 10s NF registry health/expire sweep.
package monitor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fivegc/corenet/common/metrics"
	amfctx "github.com/fivegc/corenet/nf/amf/internal/context"
	"github.com/fivegc/corenet/nf/amf/internal/nfregistry"
	"github.com/fivegc/corenet/nf/amf/internal/orchestrator"
)

const (
	statsInterval       = 30 * time.Second
	sweepInterval       = 10 * time.Second
	staleContextTimeout = 10 * time.Minute
)

// Orchestrator is the narrow slice of *orchestrator.Orchestrator the
// monitor depends on.
type Orchestrator interface {
	UeStore() *amfctx.UeContextStore
	Registry() *nfregistry.Registry
	SelfNF() *nfregistry.NfInstance
	Snapshot() orchestrator.Snapshot
}

// StatsSink persists a periodic snapshot somewhere durable. The
// ClickHouse-backed implementation lives in sink_clickhouse.go; tests use
// a fake.
type StatsSink interface {
	WriteStats(ctx context.Context, s orchestrator.Snapshot, systemLoad float64) error
}

// Monitor owns the two background ticks.
type Monitor struct {
	orch       Orchestrator
	maxUeConns int
	sink       StatsSink
	logger     *zap.Logger

	statsTicker *time.Ticker
	sweepTicker *time.Ticker
	stopCh      chan struct{}
}

// New constructs a Monitor. sink may be nil; ClickHouse is disabled by
// default, and write failures are logged, never fatal.
func New(orch Orchestrator, maxUeConns int, sink StatsSink, logger *zap.Logger) *Monitor {
	return &Monitor{
		orch:       orch,
		maxUeConns: maxUeConns,
		sink:       sink,
		logger:     logger,
		stopCh:     make(chan struct{}),
	}
}

// Start launches both ticks as goroutines and returns immediately.
func (m *Monitor) Start() {
	m.statsTicker = time.NewTicker(statsInterval)
	m.sweepTicker = time.NewTicker(sweepInterval)

	go m.runStatsTick()
	go m.runSweepTick()
}

// Stop halts both ticks.
func (m *Monitor) Stop() {
	close(m.stopCh)
	if m.statsTicker != nil {
		m.statsTicker.Stop()
	}
	if m.sweepTicker != nil {
		m.sweepTicker.Stop()
	}
}

func (m *Monitor) runStatsTick() {
	for {
		select {
		case <-m.statsTicker.C:
			m.performStatsTick()
		case <-m.stopCh:
			return
		}
	}
}

func (m *Monitor) runSweepTick() {
	for {
		select {
		case <-m.sweepTicker.C:
			m.performSweepTick()
		case <-m.stopCh:
			return
		}
	}
}

func (m *Monitor) performStatsTick() {
	snap := m.orch.Snapshot()

	removed := m.orch.UeStore().SweepInactive(staleContextTimeout)
	if removed > 0 {
		m.logger.Debug("swept inactive UE contexts", zap.Int("removed", removed))
	}

	systemLoad := 0.0
	if m.maxUeConns > 0 {
		systemLoad = float64(snap.ConnectedUEs) * 100 / float64(m.maxUeConns)
	}

	metrics.SetRegisteredUEs(snap.UeContexts)
	metrics.SetActiveConnections(snap.ConnectedUEs)
	metrics.SetActivePduSessions(snap.ActiveSessions)
	metrics.SetSystemLoad(systemLoad)
	metrics.SetAverageResponseTimeMs(snap.AverageResponseTimeMs)
	metrics.SetMemoryUsageBytes(snap.MemoryUsageBytes)
	metrics.SetGoroutines(snap.NumGoroutines)

	if self := m.orch.SelfNF(); self != nil {
		self.Load = int(systemLoad)
	}

	if m.sink != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.sink.WriteStats(ctx, snap, systemLoad); err != nil {
			m.logger.Warn("failed to write stats to sink", zap.Error(err))
		}
	}
}

func (m *Monitor) performSweepTick() {
	expired := m.orch.Registry().ExpireSweep()
	suspended := m.orch.Registry().HealthSweep()
	if expired > 0 || suspended > 0 {
		m.logger.Debug("nf registry sweep",
			zap.Int("expired", expired),
			zap.Int("newly_suspended", suspended),
			zap.Int("registered", m.orch.Registry().Count()),
			zap.Int("healthy", m.orch.Registry().HealthyCount()),
		)
	}
}
