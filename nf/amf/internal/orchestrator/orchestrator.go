// Package orchestrator wires the UE context store, NF registry, UE state
// machine, and SBI/N1/N2 adapters together: it resolves or creates UE
// contexts, drives the state machine, and dispatches the resulting side
// effects across the full per-message handler table.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/fivegc/corenet/common/metrics"
	"github.com/fivegc/corenet/nf/amf/internal/config"
	amfctx "github.com/fivegc/corenet/nf/amf/internal/context"
	"github.com/fivegc/corenet/nf/amf/internal/nfregistry"
	"github.com/fivegc/corenet/nf/amf/internal/sbi"
	"github.com/fivegc/corenet/nf/amf/internal/statemachine"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type stats struct {
	totalUeRegistrations atomic.Int64
	totalDeregistrations atomic.Int64
	totalPduSessions     atomic.Int64
	totalAuthRequests    atomic.Int64
	responseTimeNanos    atomic.Int64
	responseCount        atomic.Int64
}

// Snapshot is a point-in-time read of the orchestrator's counters, used by
// the monitor package. MemoryUsageBytes/NumGoroutines/AverageResponseTimeMs
// carry the original AmfStatistics' memoryUsage/cpuUsage/
// averageResponseTime fields (original_source/5gc/amf/include/AmfSm.h);
// this skeleton reports goroutine count rather than true CPU percentage,
// since Go has no cheap per-process CPU-percent reading the way the
// original's platform-specific sampling does.
type Snapshot struct {
	TotalUeRegistrations  int64
	TotalDeregistrations  int64
	TotalPduSessions      int64
	TotalAuthRequests     int64
	UeContexts            int
	ConnectedUEs          int
	ActiveSessions        int
	RegisteredNFs         int
	HealthyNFs            int
	AverageResponseTimeMs float64
	MemoryUsageBytes      uint64
	NumGoroutines         int
}

// Orchestrator implements sbi.Orchestrator and is also the target of the
// N1/N2 registrations and the monitor tick.
type Orchestrator struct {
	cfg      *config.Config
	ueStore  *amfctx.UeContextStore
	registry *nfregistry.Registry
	logger   *zap.Logger
	tracer   trace.Tracer
	stats    stats
	selfNF   *nfregistry.NfInstance
}

// New constructs an orchestrator. AUSF peers are resolved lazily out of
// the registry at authentication time (see authentication.go), not
// wired in up front, since the registry is populated after New returns.
func New(cfg *config.Config, logger *zap.Logger) *Orchestrator {
	o := &Orchestrator{
		cfg:      cfg,
		ueStore:  amfctx.NewUeContextStore(),
		registry: nfregistry.NewRegistry(logger),
		logger:   logger,
		tracer:   otel.Tracer("orchestrator"),
	}
	o.selfNF = &nfregistry.NfInstance{
		InstanceID: cfg.AMF.InstanceID,
		NFType:     nfregistry.NFTypeAMF,
		Priority:   0,
		Capacity:   cfg.Capacity.MaxUeConnections,
	}
	return o
}

// UeStore exposes the UE context store to cmd/main.go wiring and the
// monitor package.
func (o *Orchestrator) UeStore() *amfctx.UeContextStore { return o.ueStore }

// Registry exposes the in-process peer-NF registry.
func (o *Orchestrator) Registry() *nfregistry.Registry { return o.registry }

// SelfNF returns this AMF's own NfInstance record, kept outside the peer
// registry; the monitor updates its Load every stats tick.
func (o *Orchestrator) SelfNF() *nfregistry.NfInstance { return o.selfNF }

// Snapshot returns a lock-free read of the orchestrator's counters,
// composed with live reads from the UE store and registry. Every
// underlying counter is updated atomically, so the snapshot is never
// torn even though it is only eventually consistent.
func (o *Orchestrator) Snapshot() Snapshot {
	var avgResponseMs float64
	if count := o.stats.responseCount.Load(); count > 0 {
		avgResponseMs = float64(o.stats.responseTimeNanos.Load()) / float64(count) / float64(time.Millisecond)
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return Snapshot{
		TotalUeRegistrations:  o.stats.totalUeRegistrations.Load(),
		TotalDeregistrations:  o.stats.totalDeregistrations.Load(),
		TotalPduSessions:      o.stats.totalPduSessions.Load(),
		TotalAuthRequests:     o.stats.totalAuthRequests.Load(),
		UeContexts:            o.ueStore.Count(),
		ConnectedUEs:          o.ueStore.ConnectedCount(),
		ActiveSessions:        o.ueStore.ActiveSessionCount(),
		RegisteredNFs:         o.registry.Count(),
		HealthyNFs:            o.registry.HealthyCount(),
		AverageResponseTimeMs: avgResponseMs,
		MemoryUsageBytes:      mem.Alloc,
		NumGoroutines:         runtime.NumGoroutine(),
	}
}

// Stats implements sbi.Orchestrator's GET /stats payload.
func (o *Orchestrator) Stats() sbi.Stats {
	snap := o.Snapshot()
	return sbi.Stats{
		RegisteredUEs:         snap.UeContexts,
		ConnectedUEs:          snap.ConnectedUEs,
		ActivePduSessions:     snap.ActiveSessions,
		RegisteredNFs:         snap.RegisteredNFs,
		HealthyNFs:            snap.HealthyNFs,
		TotalUeRegistrations:  snap.TotalUeRegistrations,
		TotalDeregistrations:  snap.TotalDeregistrations,
		TotalAuthRequests:     snap.TotalAuthRequests,
		AverageResponseTimeMs: snap.AverageResponseTimeMs,
		MemoryUsageBytes:      snap.MemoryUsageBytes,
		Goroutines:            snap.NumGoroutines,
	}
}

// PreRegisterPeers installs the bootstrap peer-NF entries (SMF, UPF, AUSF,
// UDM, PCF) at startup. Addresses of "" mean the peer is known to exist
// but unreachable over HTTP — authenticate() treats that as "use the
// local simulator"; SelectSmfForSession() does not look at addresses.
func (o *Orchestrator) PreRegisterPeers(peers []nfregistry.NfInstance) {
	for i := range peers {
		if err := o.registry.Register(&peers[i]); err != nil {
			o.logger.Warn("failed to pre-register peer nf",
				zap.String("instance_id", peers[i].InstanceID), zap.Error(err))
		}
	}
}

// SelectSmfForSession selects an SMF serving dnn and slice: the same
// priority/load-ordered Select the registry uses for any NF type,
// constrained here by DNN and S-NSSAI.
func (o *Orchestrator) SelectSmfForSession(dnn string, slice amfctx.SNSSAI) (nfregistry.NfInstance, bool) {
	return o.registry.Select(nfregistry.DiscoveryQuery{
		NFType:  nfregistry.NFTypeSMF,
		DNN:     dnn,
		SNSSAIs: []nfregistry.SNSSAI{{SST: slice.SST, SD: slice.SD}},
	})
}

// SelectUpfForSession selects a UPF for the data plane leg of a session.
func (o *Orchestrator) SelectUpfForSession() (nfregistry.NfInstance, bool) {
	return o.registry.Select(nfregistry.DiscoveryQuery{NFType: nfregistry.NFTypeUPF})
}

// SelectAusfForAuthentication selects an AUSF instance.
func (o *Orchestrator) SelectAusfForAuthentication() (nfregistry.NfInstance, bool) {
	return o.registry.Select(nfregistry.DiscoveryQuery{NFType: nfregistry.NFTypeAUSF})
}

// HandleSbiMessage implements sbi.Orchestrator.
func (o *Orchestrator) HandleSbiMessage(ctx context.Context, msg sbi.SbiMessage) sbi.Outcome {
	start := time.Now()
	defer func() {
		o.stats.responseTimeNanos.Add(time.Since(start).Nanoseconds())
		o.stats.responseCount.Add(1)
	}()

	ctx, span := o.tracer.Start(ctx, "orchestrator.HandleMessage",
		trace.WithAttributes(
			attribute.String("sbi.service", string(msg.Service)),
			attribute.String("sbi.message", string(msg.Message)),
		))
	defer span.End()

	switch msg.Message {
	case sbi.MsgUeContextCreate:
		return o.handleCreateUE(ctx, msg)
	case sbi.MsgUeContextUpdate:
		return o.handleUpdateUE(ctx, msg)
	case sbi.MsgUeContextRelease:
		return o.handleReleaseUE(ctx, msg)
	case sbi.MsgUeAuthentication:
		return o.handleAuthentication(ctx, msg)
	case sbi.MsgPduSessionCreate:
		return o.handleCreatePduSession(ctx, msg)
	case sbi.MsgPduSessionRelease:
		return o.handleReleasePduSession(ctx, msg)
	case sbi.MsgAMPolicyControl:
		return sbi.Outcome{StatusCode: http.StatusOK, AmfState: "N/A"}
	case sbi.MsgNrfManagement:
		return o.handleNrfManagement(ctx, msg)
	case sbi.MsgNrfDiscovery:
		return o.handleNrfDiscovery(ctx, msg)
	default:
		return sbi.Outcome{StatusCode: http.StatusBadRequest, AmfState: "N/A"}
	}
}

func decodeBody[T any](body []byte) (T, error) {
	var v T
	if len(body) == 0 {
		return v, fmt.Errorf("empty request body")
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return v, fmt.Errorf("decode request body: %w", err)
	}
	return v, nil
}

func (o *Orchestrator) handleCreateUE(ctx context.Context, msg sbi.SbiMessage) sbi.Outcome {
	req, err := decodeBody[createUERequest](msg.Body)
	if err != nil {
		metrics.RecordRegistrationAttempt("parse_failure")
		return sbi.Outcome{StatusCode: http.StatusBadRequest, AmfState: "N/A"}
	}

	if existing, ok := o.ueStore.Get(req.SUPI); ok && existing.GetState() != amfctx.Deregistered {
		metrics.RecordRegistrationAttempt("duplicate")
		return sbi.Outcome{StatusCode: http.StatusConflict, AmfState: string(existing.GetState())}
	}

	ue, _ := o.ueStore.GetOrCreate(req.SUPI)

	allowed := req.RequestedNSSAI
	if len(allowed) == 0 {
		allowed = o.defaultAllowedNSSAI()
	}
	ue.SetMobility(amfctx.MobilityInfo{AllowedNSSAI: allowed, ConfiguredNSSAI: allowed})

	event := statemachine.RegistrationRequest
	if req.RegistrationType == "EMERGENCY" {
		event = statemachine.EmergencyRegistration
	}
	newState, _ := statemachine.Apply(ue.GetState(), event)
	ue.SetState(newState)

	o.stats.totalUeRegistrations.Add(1)
	metrics.RecordRegistrationAttempt("success")
	metrics.SetRegisteredUEs(o.ueStore.Count())
	metrics.SetActiveConnections(o.ueStore.ConnectedCount())

	return sbi.Outcome{StatusCode: http.StatusCreated, AmfState: string(newState)}
}

func (o *Orchestrator) handleUpdateUE(ctx context.Context, msg sbi.SbiMessage) sbi.Outcome {
	req, err := decodeBody[updateUERequest](msg.Body)
	if err != nil {
		return sbi.Outcome{StatusCode: http.StatusBadRequest, AmfState: "N/A"}
	}

	ue, ok := o.ueStore.Get(req.SUPI)
	if !ok {
		return sbi.Outcome{StatusCode: http.StatusForbidden, AmfState: "N/A"}
	}

	newState, _ := statemachine.Apply(ue.GetState(), statemachine.Event(req.Event))
	ue.SetState(newState)
	return sbi.Outcome{StatusCode: http.StatusOK, AmfState: string(newState)}
}

func (o *Orchestrator) handleReleaseUE(ctx context.Context, msg sbi.SbiMessage) sbi.Outcome {
	req, err := decodeBody[releaseUERequest](msg.Body)
	if err != nil {
		return sbi.Outcome{StatusCode: http.StatusBadRequest, AmfState: "N/A"}
	}

	ue, ok := o.ueStore.Get(req.SUPI)
	if !ok {
		return sbi.Outcome{StatusCode: http.StatusForbidden, AmfState: "N/A"}
	}

	newState, _ := statemachine.Apply(ue.GetState(), statemachine.DeregisterRequest)
	ue.SetState(newState)
	o.ueStore.Remove(req.SUPI)

	o.stats.totalDeregistrations.Add(1)
	metrics.SetRegisteredUEs(o.ueStore.Count())
	metrics.SetActiveConnections(o.ueStore.ConnectedCount())

	return sbi.Outcome{StatusCode: http.StatusOK, AmfState: string(newState)}
}

func (o *Orchestrator) defaultAllowedNSSAI() []amfctx.SNSSAI {
	out := make([]amfctx.SNSSAI, len(o.cfg.Capacity.SupportedSlices))
	for i, s := range o.cfg.Capacity.SupportedSlices {
		out[i] = amfctx.SNSSAI{SST: s.SST, SD: s.SD}
	}
	return out
}
