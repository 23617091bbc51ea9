package statemachine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApply_TableRows(t *testing.T) {
	cases := []struct {
		name   string
		from   State
		event  Event
		to     State
		effect SideEffect
	}{
		{"fresh registration", Deregistered, RegistrationRequest, RegisteredConnected, EffectNewRegistration},
		{"emergency registration", Deregistered, EmergencyRegistration, RegisteredConnected, EffectEmergencyRegistered},
		{"registration reject stays deregistered", Deregistered, RegistrationReject, Deregistered, EffectCounterOnly},
		{"idle service request connects", RegisteredIdle, ServiceRequest, RegisteredConnected, EffectEmitN2ContextSetup},
		{"idle session establishment connects", RegisteredIdle, PduSessionEstablishmentRequest, RegisteredConnected, EffectCreateSession},
		{"idle handover request connects", RegisteredIdle, HandoverRequest, RegisteredConnected, EffectUpdateRanNode},
		{"idle paging request stays idle", RegisteredIdle, PagingRequest, RegisteredIdle, EffectEmitPaging},
		{"idle deregister request", RegisteredIdle, DeregisterRequest, Deregistered, EffectReleaseResources},
		{"idle tracking area update stays idle", RegisteredIdle, TrackingAreaUpdate, RegisteredIdle, EffectUpdateLocation},
		{"connected an release returns to idle", RegisteredConnected, AnRelease, RegisteredIdle, EffectReleaseConnOrSession},
		{"connected deregister request", RegisteredConnected, DeregisterRequest, Deregistered, EffectRelease},
		{"connected auth request stays connected", RegisteredConnected, AuthRequest, RegisteredConnected, EffectUpdateSecurity},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			to, effect := Apply(tc.from, tc.event)
			assert.Equal(t, tc.to, to)
			assert.Equal(t, tc.effect, effect)
		})
	}
}

func TestApply_UnlistedEventIsIgnored(t *testing.T) {
	to, effect := Apply(RegisteredIdle, AuthRequest)
	assert.Equal(t, RegisteredIdle, to)
	assert.Equal(t, EffectNone, effect)
}
