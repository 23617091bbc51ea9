// Package statemachine implements the per-UE registration/connection
// state machine as a pure transition table over the three registration
// states (Deregistered, RegisteredIdle, RegisteredConnected).
package statemachine

import amfctx "github.com/fivegc/corenet/nf/amf/internal/context"

// State aliases the UE context's registration state so callers in
// this package don't need to import both packages for the same type.
type State = amfctx.RegistrationState

const (
	Deregistered       = amfctx.Deregistered
	RegisteredIdle      = amfctx.RegisteredIdle
	RegisteredConnected = amfctx.RegisteredConnected
)

// Event is one of the events the transition table recognizes.
type Event string

const (
	RegistrationRequest           Event = "REGISTRATION_REQUEST"
	EmergencyRegistration         Event = "EMERGENCY_REGISTRATION"
	RegistrationReject            Event = "REGISTRATION_REJECT"
	AuthFailure                   Event = "AUTH_FAILURE"
	SecModeReject                 Event = "SEC_MODE_REJECT"
	NetworkFailure                Event = "NETWORK_FAILURE"
	ServiceRequest                Event = "SERVICE_REQUEST"
	EmergencyServiceRequest       Event = "EMERGENCY_SERVICE_REQUEST"
	PagingResponse                Event = "PAGING_RESPONSE"
	PduSessionEstablishmentRequest Event = "PDU_SESSION_ESTABLISHMENT_REQUEST"
	HandoverRequest                Event = "HANDOVER_REQUEST"
	DeregisterRequest              Event = "DEREGISTER_REQUEST"
	T3511                          Event = "T3511"
	TrackingAreaUpdate             Event = "TRACKING_AREA_UPDATE"
	PeriodicRegistrationUpdate     Event = "PERIODIC_REGISTRATION_UPDATE"
	PagingRequest                  Event = "PAGING_REQUEST"
	AnRelease                      Event = "AN_RELEASE"
	ConnectionRelease              Event = "CONNECTION_RELEASE"
	HandoverComplete               Event = "HANDOVER_COMPLETE"
	PduSessionReleaseRequest       Event = "PDU_SESSION_RELEASE_REQUEST"
	DeregisterAccept               Event = "DEREGISTER_ACCEPT"
	AuthRequest                    Event = "AUTH_REQUEST"
	AuthResponse                   Event = "AUTH_RESPONSE"
	SecModeCommand                 Event = "SEC_MODE_COMMAND"
	SecModeComplete                Event = "SEC_MODE_COMPLETE"
)

// SideEffect is a side-effect tag the orchestrator dispatches on after
// a transition. It carries no payload; the orchestrator already has
// the UE context and event in scope to build one.
type SideEffect string

const (
	EffectNone                SideEffect = ""
	EffectNewRegistration      SideEffect = "NEW_REGISTRATION"
	EffectEmergencyRegistered  SideEffect = "EMERGENCY_REGISTERED"
	EffectCounterOnly          SideEffect = "COUNTER_ONLY"
	EffectEmitN2ContextSetup   SideEffect = "EMIT_N2_CONTEXT_SETUP"
	EffectCreateSession        SideEffect = "CREATE_SESSION"
	EffectUpdateRanNode        SideEffect = "UPDATE_RAN_NODE"
	EffectReleaseResources     SideEffect = "RELEASE_RESOURCES"
	EffectUpdateLocation       SideEffect = "UPDATE_LOCATION"
	EffectEmitPaging           SideEffect = "EMIT_PAGING"
	EffectReleaseConnOrSession SideEffect = "RELEASE_CONN_OR_SESSION"
	EffectRelease              SideEffect = "RELEASE"
	EffectUpdateSecurity       SideEffect = "UPDATE_SECURITY"
)

type transitionKey struct {
	from  State
	event Event
}

type transitionResult struct {
	to     State
	effect SideEffect
}

// table is the spec's §4.3 transition table. Entries not present are
// "accepted and ignored" — the machine stays in its current state
// with EffectNone.
var table = map[transitionKey]transitionResult{
	{Deregistered, RegistrationRequest}:     {RegisteredConnected, EffectNewRegistration},
	{Deregistered, EmergencyRegistration}:   {RegisteredConnected, EffectEmergencyRegistered},
	{Deregistered, RegistrationReject}:      {Deregistered, EffectCounterOnly},
	{Deregistered, AuthFailure}:             {Deregistered, EffectCounterOnly},
	{Deregistered, SecModeReject}:           {Deregistered, EffectCounterOnly},
	{Deregistered, NetworkFailure}:          {Deregistered, EffectCounterOnly},

	{RegisteredIdle, ServiceRequest}:                 {RegisteredConnected, EffectEmitN2ContextSetup},
	{RegisteredIdle, EmergencyServiceRequest}:         {RegisteredConnected, EffectEmitN2ContextSetup},
	{RegisteredIdle, PagingResponse}:                  {RegisteredConnected, EffectEmitN2ContextSetup},
	{RegisteredIdle, PduSessionEstablishmentRequest}:  {RegisteredConnected, EffectCreateSession},
	{RegisteredIdle, HandoverRequest}:                 {RegisteredConnected, EffectUpdateRanNode},
	{RegisteredIdle, DeregisterRequest}:               {Deregistered, EffectReleaseResources},
	{RegisteredIdle, T3511}:                           {Deregistered, EffectReleaseResources},
	{RegisteredIdle, NetworkFailure}:                  {Deregistered, EffectReleaseResources},
	{RegisteredIdle, TrackingAreaUpdate}:              {RegisteredIdle, EffectUpdateLocation},
	{RegisteredIdle, PeriodicRegistrationUpdate}:      {RegisteredIdle, EffectUpdateLocation},
	{RegisteredIdle, PagingRequest}:                   {RegisteredIdle, EffectEmitPaging},

	{RegisteredConnected, AnRelease}:                {RegisteredIdle, EffectReleaseConnOrSession},
	{RegisteredConnected, ConnectionRelease}:         {RegisteredIdle, EffectReleaseConnOrSession},
	{RegisteredConnected, HandoverComplete}:          {RegisteredIdle, EffectReleaseConnOrSession},
	{RegisteredConnected, PduSessionReleaseRequest}:  {RegisteredIdle, EffectReleaseConnOrSession},
	{RegisteredConnected, DeregisterRequest}:         {Deregistered, EffectRelease},
	{RegisteredConnected, DeregisterAccept}:          {Deregistered, EffectRelease},
	{RegisteredConnected, NetworkFailure}:            {Deregistered, EffectRelease},
	{RegisteredConnected, AuthFailure}:               {Deregistered, EffectRelease},
	{RegisteredConnected, AuthRequest}:               {RegisteredConnected, EffectUpdateSecurity},
	{RegisteredConnected, AuthResponse}:              {RegisteredConnected, EffectUpdateSecurity},
	{RegisteredConnected, SecModeCommand}:            {RegisteredConnected, EffectUpdateSecurity},
	{RegisteredConnected, SecModeComplete}:           {RegisteredConnected, EffectUpdateSecurity},
}

// Apply looks up the transition for (from, event) and returns the
// target state and side-effect tag. Unlisted (state, event) pairs are
// accepted and ignored: the state does not change and EffectNone is
// returned, matching §4.3's "events not listed ... are accepted and
// ignored in that state".
func Apply(from State, event Event) (State, SideEffect) {
	if r, ok := table[transitionKey{from, event}]; ok {
		return r.to, r.effect
	}
	return from, EffectNone
}
