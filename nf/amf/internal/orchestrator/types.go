package orchestrator

import amfctx "github.com/fivegc/corenet/nf/amf/internal/context"

// createUERequest is the body of a namf-comm UE context create request.
type createUERequest struct {
	SUPI             string              `json:"supi"`
	RegistrationType string              `json:"registrationType,omitempty"`
	RequestedNSSAI   []amfctx.SNSSAI     `json:"requestedNssai,omitempty"`
}

// updateUERequest drives a namf-comm UE context update; Event names one of
// the statemachine.Event constants.
type updateUERequest struct {
	SUPI  string `json:"supi"`
	Event string `json:"event,omitempty"`
}

// releaseUERequest is the body of a namf-comm UE context release request.
type releaseUERequest struct {
	SUPI string `json:"supi"`
}

// pduSessionRequest covers both create and release; SessionID is ignored
// on create and required on release.
type pduSessionRequest struct {
	SUPI      string         `json:"supi"`
	DNN       string         `json:"dnn,omitempty"`
	SNSSAI    amfctx.SNSSAI  `json:"snssai,omitempty"`
	SessionID int            `json:"sessionId,omitempty"`
}

// authRequest is the body of a nausf-auth request.
type authRequest struct {
	SUPI string `json:"supi"`
}
