package orchestrator

import (
	"context"
	"net/http"

	"github.com/fivegc/corenet/common/metrics"
	amfctx "github.com/fivegc/corenet/nf/amf/internal/context"
	"github.com/fivegc/corenet/nf/amf/internal/sbi"
	"github.com/fivegc/corenet/nf/amf/internal/statemachine"
)

// handleCreatePduSession implements the nsmf-pdusession create branch:
// select a serving SMF/UPF, attach the session to the UE context, and
// drive the state machine's PduSessionEstablishmentRequest transition.
func (o *Orchestrator) handleCreatePduSession(ctx context.Context, msg sbi.SbiMessage) sbi.Outcome {
	req, err := decodeBody[pduSessionRequest](msg.Body)
	if err != nil {
		metrics.RecordPduSessionAttempt("create", "parse_failure")
		return sbi.Outcome{StatusCode: http.StatusBadRequest, AmfState: "N/A"}
	}

	ue, ok := o.ueStore.Get(req.SUPI)
	if !ok {
		metrics.RecordPduSessionAttempt("create", "ue_not_found")
		return sbi.Outcome{StatusCode: http.StatusForbidden, AmfState: "N/A"}
	}

	if ue.GetState() == amfctx.Deregistered {
		metrics.RecordPduSessionAttempt("create", "state_disallowed")
		return sbi.Outcome{StatusCode: http.StatusForbidden, AmfState: string(ue.GetState())}
	}

	smf, _ := o.SelectSmfForSession(req.DNN, req.SNSSAI)
	upf, _ := o.SelectUpfForSession()

	if _, err := ue.AddPDUSession(req.DNN, req.SNSSAI, smf.InstanceID, upf.InstanceID, "IPv4"); err != nil {
		metrics.RecordPduSessionAttempt("create", "rejected")
		return sbi.Outcome{StatusCode: http.StatusForbidden, AmfState: string(ue.GetState())}
	}

	newState, _ := statemachine.Apply(ue.GetState(), statemachine.PduSessionEstablishmentRequest)
	ue.SetState(newState)

	o.stats.totalPduSessions.Add(1)
	metrics.RecordPduSessionAttempt("create", "success")
	metrics.SetActivePduSessions(o.ueStore.ActiveSessionCount())

	return sbi.Outcome{StatusCode: http.StatusCreated, AmfState: string(newState)}
}

// handleReleasePduSession implements the nsmf-pdusession release branch.
func (o *Orchestrator) handleReleasePduSession(ctx context.Context, msg sbi.SbiMessage) sbi.Outcome {
	req, err := decodeBody[pduSessionRequest](msg.Body)
	if err != nil {
		metrics.RecordPduSessionAttempt("release", "parse_failure")
		return sbi.Outcome{StatusCode: http.StatusBadRequest, AmfState: "N/A"}
	}

	ue, ok := o.ueStore.Get(req.SUPI)
	if !ok {
		metrics.RecordPduSessionAttempt("release", "ue_not_found")
		return sbi.Outcome{StatusCode: http.StatusForbidden, AmfState: "N/A"}
	}

	if !ue.RemovePDUSession(req.SessionID) {
		metrics.RecordPduSessionAttempt("release", "not_found")
		return sbi.Outcome{StatusCode: http.StatusNotFound, AmfState: string(ue.GetState())}
	}

	newState, _ := statemachine.Apply(ue.GetState(), statemachine.PduSessionReleaseRequest)
	ue.SetState(newState)

	metrics.RecordPduSessionAttempt("release", "success")
	metrics.SetActivePduSessions(o.ueStore.ActiveSessionCount())

	return sbi.Outcome{StatusCode: http.StatusOK, AmfState: string(newState)}
}
