package orchestrator

import (
	"context"
	"net/http"

	"github.com/fivegc/corenet/nf/amf/internal/sbi"
)

// handleNrfManagement and handleNrfDiscovery exist for classification
// parity across the full SBI service set; real NRF interaction runs
// through client.NRFClient against the external NRF at startup (see
// cmd/main.go), not through the AMF's own inbound SBI surface, so these
// two branches just acknowledge.
func (o *Orchestrator) handleNrfManagement(ctx context.Context, msg sbi.SbiMessage) sbi.Outcome {
	return sbi.Outcome{StatusCode: http.StatusOK, AmfState: "N/A"}
}

func (o *Orchestrator) handleNrfDiscovery(ctx context.Context, msg sbi.SbiMessage) sbi.Outcome {
	return sbi.Outcome{StatusCode: http.StatusOK, AmfState: "N/A"}
}
