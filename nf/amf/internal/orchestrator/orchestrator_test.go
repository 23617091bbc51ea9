package orchestrator

import (
	"context"
	"net/http"
	"testing"

	"github.com/fivegc/corenet/nf/amf/internal/config"
	"github.com/fivegc/corenet/nf/amf/internal/sbi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestOrchestrator(t *testing.T) *Orchestrator {
	logger, err := zap.NewDevelopment()
	require.NoError(t, err)
	return New(config.DefaultConfig(), logger)
}

func createUE(o *Orchestrator, supi string) sbi.Outcome {
	return o.HandleSbiMessage(context.Background(), sbi.SbiMessage{
		Service: sbi.ServiceNamfComm,
		Message: sbi.MsgUeContextCreate,
		Method:  "POST",
		URI:     "/namf-comm/v1/ue-contexts",
		Body:    []byte(`{"supi":"` + supi + `"}`),
	})
}

// Scenario 1: fresh registration via SBI.
func TestHandleSbiMessage_FreshRegistration(t *testing.T) {
	o := newTestOrchestrator(t)

	out := createUE(o, "imsi-460001234567890")

	assert.Equal(t, http.StatusCreated, out.StatusCode)
	assert.Equal(t, 1, o.UeStore().Count())
	ue, ok := o.UeStore().Get("imsi-460001234567890")
	require.True(t, ok)
	assert.Equal(t, "REGISTERED_CONNECTED", string(ue.GetState()))
	assert.EqualValues(t, 1, o.Snapshot().TotalUeRegistrations)
}

// Scenario 2: duplicate registration while still connected is rejected.
func TestHandleSbiMessage_DuplicateRegistrationConflicts(t *testing.T) {
	o := newTestOrchestrator(t)
	require.Equal(t, http.StatusCreated, createUE(o, "imsi-460001234567890").StatusCode)

	out := createUE(o, "imsi-460001234567890")

	assert.Equal(t, http.StatusConflict, out.StatusCode)
	assert.Equal(t, 1, o.UeStore().Count())
	assert.EqualValues(t, 1, o.Snapshot().TotalUeRegistrations)
}

// Scenario 3: session create then release.
func TestHandleSbiMessage_PduSessionCreateThenRelease(t *testing.T) {
	o := newTestOrchestrator(t)
	require.Equal(t, http.StatusCreated, createUE(o, "imsi-460001234567890").StatusCode)

	createOut := o.HandleSbiMessage(context.Background(), sbi.SbiMessage{
		Service: sbi.ServiceNsmfPduSess,
		Message: sbi.MsgPduSessionCreate,
		Method:  "POST",
		URI:     "/nsmf-pdusession/v1/sm-contexts",
		Body:    []byte(`{"supi":"imsi-460001234567890","dnn":"internet","snssai":{"sst":1}}`),
	})
	require.Equal(t, http.StatusCreated, createOut.StatusCode)

	ue, ok := o.UeStore().Get("imsi-460001234567890")
	require.True(t, ok)
	sessions := ue.Sessions()
	require.Len(t, sessions, 1)
	assert.EqualValues(t, "ACTIVE", sessions[0].State)
	assert.EqualValues(t, 1, o.Snapshot().TotalPduSessions)

	releaseOut := o.HandleSbiMessage(context.Background(), sbi.SbiMessage{
		Service: sbi.ServiceNsmfPduSess,
		Message: sbi.MsgPduSessionRelease,
		Method:  "DELETE",
		URI:     "/nsmf-pdusession/v1/sm-contexts/1",
		Body:    []byte(`{"supi":"imsi-460001234567890","sessionId":1}`),
	})
	require.Equal(t, http.StatusOK, releaseOut.StatusCode)

	ue, ok = o.UeStore().Get("imsi-460001234567890")
	require.True(t, ok)
	assert.Empty(t, ue.Sessions())
	assert.Equal(t, "REGISTERED_IDLE", string(ue.GetState()))
}

func TestHandleSbiMessage_UpdateUnknownUeIsForbidden(t *testing.T) {
	o := newTestOrchestrator(t)

	out := o.HandleSbiMessage(context.Background(), sbi.SbiMessage{
		Service: sbi.ServiceNamfComm,
		Message: sbi.MsgUeContextUpdate,
		Method:  "PUT",
		URI:     "/namf-comm/v1/ue-contexts/imsi-000000000000000",
		Body:    []byte(`{"supi":"imsi-000000000000000","event":"SERVICE_REQUEST"}`),
	})

	assert.Equal(t, http.StatusForbidden, out.StatusCode)
}

func TestHandleSbiMessage_AuthenticationWithoutAusfSimulatesSuccess(t *testing.T) {
	o := newTestOrchestrator(t)
	require.Equal(t, http.StatusCreated, createUE(o, "imsi-460001234567890").StatusCode)

	out := o.HandleSbiMessage(context.Background(), sbi.SbiMessage{
		Service: sbi.ServiceNausfAuth,
		Message: sbi.MsgUeAuthentication,
		Method:  "POST",
		URI:     "/nausf-auth/v1/ue-authentications",
		Body:    []byte(`{"supi":"imsi-460001234567890"}`),
	})

	assert.Equal(t, http.StatusOK, out.StatusCode)
	ue, ok := o.UeStore().Get("imsi-460001234567890")
	require.True(t, ok)
	assert.True(t, ue.Snapshot().Security.Authenticated)
}

func TestSnapshot_TracksResponseTimeAndProcessHealth(t *testing.T) {
	o := newTestOrchestrator(t)
	require.Equal(t, http.StatusCreated, createUE(o, "imsi-460001234567891").StatusCode)

	snap := o.Snapshot()
	assert.GreaterOrEqual(t, snap.AverageResponseTimeMs, 0.0)
	assert.Greater(t, snap.MemoryUsageBytes, uint64(0))
	assert.Greater(t, snap.NumGoroutines, 0)
}

func TestStats_MirrorsSnapshot(t *testing.T) {
	o := newTestOrchestrator(t)
	require.Equal(t, http.StatusCreated, createUE(o, "imsi-460001234567892").StatusCode)

	stats := o.Stats()
	snap := o.Snapshot()
	assert.Equal(t, snap.UeContexts, stats.RegisteredUEs)
	assert.Equal(t, snap.TotalUeRegistrations, stats.TotalUeRegistrations)
}
