package sbi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_KnownServices(t *testing.T) {
	cases := []struct {
		name    string
		method  string
		uri     string
		service ServiceType
		message MessageType
	}{
		{"ue context create", "POST", "/namf-comm/v1/ue-contexts", ServiceNamfComm, MsgUeContextCreate},
		{"ue context update", "PUT", "/namf-comm/v1/ue-contexts/imsi-1", ServiceNamfComm, MsgUeContextUpdate},
		{"ue context release", "DELETE", "/namf-comm/v1/ue-contexts/imsi-1", ServiceNamfComm, MsgUeContextRelease},
		{"authentication", "POST", "/nausf-auth/v1/ue-authentications", ServiceNausfAuth, MsgUeAuthentication},
		{"pdu session create", "POST", "/nsmf-pdusession/v1/pdu-sessions", ServiceNsmfPduSess, MsgPduSessionCreate},
		{"pdu session release", "DELETE", "/nsmf-pdusession/v1/pdu-sessions/1", ServiceNsmfPduSess, MsgPduSessionRelease},
		{"am policy", "POST", "/npcf-am-policy/v1/policies", ServiceNpcfAMPolicy, MsgAMPolicyControl},
		{"nrf management", "PUT", "/nnrf-nfm/v1/nf-instances/smf-1", ServiceNnrfNFM, MsgNrfManagement},
		{"nrf discovery", "GET", "/nnrf-disc/v1/nf-instances", ServiceNnrfDisc, MsgNrfDiscovery},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.method, tc.uri)
			assert.True(t, got.Matched)
			assert.False(t, got.Compat)
			assert.Equal(t, tc.service, got.Service)
			assert.Equal(t, tc.message, got.Message)
		})
	}
}

func TestClassify_CompatibilityPaths(t *testing.T) {
	create := Classify("POST", "/some-legacy/registrations")
	assert.False(t, create.Matched)
	assert.True(t, create.Compat)
	assert.Equal(t, MsgUeContextCreate, create.Message)

	release := Classify("POST", "/some-legacy/deregistrations")
	assert.False(t, release.Matched)
	assert.True(t, release.Compat)
	assert.Equal(t, MsgUeContextRelease, release.Message)
}

func TestClassify_UnknownDefaultsToNamfCommCreate(t *testing.T) {
	got := Classify("GET", "/totally-unknown-path")
	assert.False(t, got.Matched)
	assert.False(t, got.Compat)
	assert.Equal(t, ServiceNamfComm, got.Service)
	assert.Equal(t, MsgUeContextCreate, got.Message)
}
