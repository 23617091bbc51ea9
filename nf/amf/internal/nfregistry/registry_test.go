package nfregistry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRegistry(t *testing.T) *Registry {
	logger, err := zap.NewDevelopment()
	require.NoError(t, err)
	return NewRegistry(logger)
}

func TestRegistry_RegisterDuplicateFails(t *testing.T) {
	r := newTestRegistry(t)
	n := &NfInstance{InstanceID: "smf-1", NFType: NFTypeSMF}
	require.NoError(t, r.Register(n))

	err := r.Register(&NfInstance{InstanceID: "smf-1", NFType: NFTypeSMF})
	assert.Error(t, err)
	assert.ElementsMatch(t, []string{"smf-1"}, r.ByType(NFTypeSMF))
}

func TestRegistry_DiscoverOrdersByPriorityThenLoad(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Register(&NfInstance{InstanceID: "smf-a", NFType: NFTypeSMF, Priority: 10, Load: 5}))
	require.NoError(t, r.Register(&NfInstance{InstanceID: "smf-b", NFType: NFTypeSMF, Priority: 20, Load: 80}))
	require.NoError(t, r.Register(&NfInstance{InstanceID: "smf-c", NFType: NFTypeSMF, Priority: 20, Load: 10}))

	results := r.Discover(DiscoveryQuery{NFType: NFTypeSMF})
	require.Len(t, results, 3)
	assert.Equal(t, "smf-c", results[0].InstanceID) // priority 20, load 10
	assert.Equal(t, "smf-b", results[1].InstanceID) // priority 20, load 80
	assert.Equal(t, "smf-a", results[2].InstanceID) // priority 10, load 5
}

func TestRegistry_HealthSweepSuspendsStaleAt60s(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Register(&NfInstance{InstanceID: "smf-1", NFType: NFTypeSMF}))

	r.mu.Lock()
	r.instances["smf-1"].LastHeartbeat = time.Now().Add(-61 * time.Second)
	r.mu.Unlock()

	n := r.HealthSweep()
	assert.Equal(t, 1, n)

	got, ok := r.Get("smf-1")
	require.True(t, ok)
	assert.Equal(t, StatusSuspended, got.Status)
	assert.Empty(t, r.Discover(DiscoveryQuery{NFType: NFTypeSMF}))
}

func TestRegistry_ExpireSweepDeletesAt120s(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Register(&NfInstance{InstanceID: "smf-1", NFType: NFTypeSMF}))

	r.mu.Lock()
	r.instances["smf-1"].LastHeartbeat = time.Now().Add(-121 * time.Second)
	r.mu.Unlock()

	n := r.ExpireSweep()
	assert.Equal(t, 1, n)
	_, ok := r.Get("smf-1")
	assert.False(t, ok)
}

func TestRegistry_HeartbeatIsFresh(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Register(&NfInstance{InstanceID: "smf-1", NFType: NFTypeSMF}))
	require.NoError(t, r.Heartbeat("smf-1"))

	got, ok := r.Get("smf-1")
	require.True(t, ok)
	assert.Less(t, time.Since(got.LastHeartbeat), time.Second)
}

func TestRegistry_SelectTakesFirstDiscoverResult(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Register(&NfInstance{InstanceID: "smf-a", NFType: NFTypeSMF, Priority: 5}))
	require.NoError(t, r.Register(&NfInstance{InstanceID: "smf-b", NFType: NFTypeSMF, Priority: 50}))

	sel, ok := r.Select(DiscoveryQuery{NFType: NFTypeSMF})
	require.True(t, ok)
	assert.Equal(t, "smf-b", sel.InstanceID)

	_, ok = r.Select(DiscoveryQuery{NFType: NFTypeUDM})
	assert.False(t, ok)
}
