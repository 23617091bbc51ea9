package context

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUeContextStore_CreateGet(t *testing.T) {
	store := NewUeContextStore()

	ctx, err := store.Create("imsi-460001234567890")
	require.NoError(t, err)
	assert.Equal(t, Deregistered, ctx.GetState())

	got, ok := store.Get("imsi-460001234567890")
	require.True(t, ok)
	assert.Same(t, ctx, got)

	_, err = store.Create("imsi-460001234567890")
	assert.Error(t, err)
	assert.Equal(t, 1, store.Count())
}

func TestUeContextStore_GutiIndexConsistency(t *testing.T) {
	store := NewUeContextStore()
	ctx, err := store.Create("imsi-460001234567890")
	require.NoError(t, err)

	require.NoError(t, store.AssignGUTI(ctx.SUPI, "guti-1"))

	byGuti, ok := store.GetByGuti("guti-1")
	require.True(t, ok)
	assert.Same(t, ctx, byGuti)

	// Reassigning clears the old reverse mapping.
	require.NoError(t, store.AssignGUTI(ctx.SUPI, "guti-2"))
	_, ok = store.GetByGuti("guti-1")
	assert.False(t, ok)
	byGuti, ok = store.GetByGuti("guti-2")
	require.True(t, ok)
	assert.Same(t, ctx, byGuti)
}

func TestUeContext_ConnectedImpliesRegisteredConnected(t *testing.T) {
	ctx := newUeContext("imsi-1")
	ctx.SetState(RegisteredConnected)
	assert.True(t, ctx.IsConnected())

	ctx.SetState(RegisteredIdle)
	assert.False(t, ctx.IsConnected())
	assert.False(t, ctx.Access.Connected)
}

func TestUeContext_AddPDUSessionRequiresAllowedSlice(t *testing.T) {
	ctx := newUeContext("imsi-1")
	slice := SNSSAI{SST: 1, SD: "000001"}

	_, err := ctx.AddPDUSession("internet", slice, "smf-1", "upf-1", "IPV4")
	assert.Error(t, err)

	ctx.SetMobility(MobilityInfo{AllowedNSSAI: []SNSSAI{slice}})
	sess, err := ctx.AddPDUSession("internet", slice, "smf-1", "upf-1", "IPV4")
	require.NoError(t, err)
	assert.Equal(t, SessionActive, sess.State)
	assert.Equal(t, 1, ctx.SessionCount())
}

func TestUeContextStore_SweepInactiveOnlyRemovesDeregistered(t *testing.T) {
	store := NewUeContextStore()

	dereg, err := store.Create("imsi-dereg")
	require.NoError(t, err)
	dereg.LastActivity = time.Now().Add(-2 * time.Hour)

	connected, err := store.Create("imsi-connected")
	require.NoError(t, err)
	connected.SetState(RegisteredConnected)
	connected.LastActivity = time.Now().Add(-2 * time.Hour)

	removed := store.SweepInactive(time.Hour)
	assert.Equal(t, 1, removed)

	_, ok := store.Get("imsi-dereg")
	assert.False(t, ok)
	_, ok = store.Get("imsi-connected")
	assert.True(t, ok)
}

func TestUeContextStore_ByLocationAndBySlice(t *testing.T) {
	store := NewUeContextStore()
	slice := SNSSAI{SST: 1, SD: "000001"}
	tai := TrackingAreaIdentity{PLMNID: PLMNID{MCC: "460", MNC: "00"}, TAC: "1"}

	ctx, err := store.Create("imsi-1")
	require.NoError(t, err)
	ctx.SetMobility(MobilityInfo{AllowedNSSAI: []SNSSAI{slice}})
	ctx.SetLocation(Location{TAI: tai})

	_, err = store.Create("imsi-2")
	require.NoError(t, err)

	assert.Len(t, store.BySlice(slice), 1)
	assert.Len(t, store.ByLocation(tai), 1)
	assert.Len(t, store.AllActive(), 2)
}
