package sbi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeOrchestrator struct {
	outcome Outcome
}

func (f *fakeOrchestrator) HandleSbiMessage(ctx context.Context, msg SbiMessage) Outcome {
	return f.outcome
}

func (f *fakeOrchestrator) Stats() Stats {
	return Stats{RegisteredUEs: 3, Goroutines: 7}
}

func TestHandleSbi_RoutesKnownServiceToOrchestrator(t *testing.T) {
	orch := &fakeOrchestrator{outcome: Outcome{StatusCode: http.StatusCreated, AmfState: "RegisteredConnected"}}
	s := NewServer(":0", false, false, orch, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/namf-comm/v1/ue-contexts", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "close", rec.Header().Get("Connection"))
	assert.Contains(t, rec.Body.String(), "RegisteredConnected")
}

func TestHandleSbi_UnknownPathForgivingByDefault(t *testing.T) {
	orch := &fakeOrchestrator{outcome: Outcome{StatusCode: http.StatusOK, AmfState: "Deregistered"}}
	s := NewServer(":0", false, false, orch, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/totally-unknown", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleSbi_UnknownPathStrictModeIsNotFound(t *testing.T) {
	orch := &fakeOrchestrator{outcome: Outcome{StatusCode: http.StatusOK}}
	s := NewServer(":0", true, false, orch, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/totally-unknown", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleStats_ReturnsOrchestratorStats(t *testing.T) {
	orch := &fakeOrchestrator{}
	s := NewServer(":0", false, false, orch, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"registeredUes":3`)
	assert.Contains(t, rec.Body.String(), `"goroutines":7`)
}

func TestHandleSbi_ResponseCarriesUniqueCorrelationID(t *testing.T) {
	orch := &fakeOrchestrator{outcome: Outcome{StatusCode: http.StatusOK, AmfState: "Deregistered"}}
	s := NewServer(":0", false, false, orch, zap.NewNop())

	req1 := httptest.NewRequest(http.MethodPost, "/namf-comm/v1/ue-contexts", nil)
	rec1 := httptest.NewRecorder()
	s.router.ServeHTTP(rec1, req1)

	req2 := httptest.NewRequest(http.MethodPost, "/namf-comm/v1/ue-contexts", nil)
	rec2 := httptest.NewRecorder()
	s.router.ServeHTTP(rec2, req2)

	var first, second Response
	require.NoError(t, json.Unmarshal(rec1.Body.Bytes(), &first))
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &second))

	assert.NotEmpty(t, first.CorrelationID)
	assert.NotEmpty(t, second.CorrelationID)
	assert.NotEqual(t, first.CorrelationID, second.CorrelationID)
}

func TestHandleSbi_CompatPathRequiresFlag(t *testing.T) {
	orch := &fakeOrchestrator{outcome: Outcome{StatusCode: http.StatusOK}}

	without := NewServer(":0", false, false, orch, zap.NewNop())
	req := httptest.NewRequest(http.MethodPost, "/v0/registrations", nil)
	rec := httptest.NewRecorder()
	without.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)

	with := NewServer(":0", false, true, orch, zap.NewNop())
	req2 := httptest.NewRequest(http.MethodPost, "/v0/registrations", nil)
	rec2 := httptest.NewRecorder()
	with.router.ServeHTTP(rec2, req2)
	require.Equal(t, http.StatusOK, rec2.Code)
}
