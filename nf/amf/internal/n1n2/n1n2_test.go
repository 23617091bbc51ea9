package n1n2

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestN1Service_DispatchesRegisteredHandler(t *testing.T) {
	n1 := NewN1Service(zap.NewNop())
	var got N1Message
	n1.Register("PAGING", func(ctx context.Context, m N1Message) (N1Message, bool) {
		got = m
		return m, true
	})

	ok := n1.Send(context.Background(), N1Message{Type: "PAGING", SUPI: "imsi-1"})
	assert.True(t, ok)
	assert.Equal(t, "imsi-1", got.SUPI)

	sent, received := n1.Counters()
	assert.Equal(t, int64(1), sent)
	assert.Equal(t, int64(1), received)
}

func TestN1Service_UnknownTypeFails(t *testing.T) {
	n1 := NewN1Service(zap.NewNop())
	ok := n1.Send(context.Background(), N1Message{Type: "NOT_REGISTERED"})
	assert.False(t, ok)

	sent, received := n1.Counters()
	assert.Equal(t, int64(0), sent)
	assert.Equal(t, int64(1), received)
}

func TestEncodeDecodeN2_RoundTrips(t *testing.T) {
	msg := N2Message{
		Type:        "INITIAL_UE_MESSAGE",
		RanNodeID:   "gnb-1",
		AmfUeNgapID: "100",
		RanUeNgapID: "7",
		IEs:         map[string]string{"cause": "unspecified"},
	}
	decoded, err := decodeN2(encodeN2(msg))
	require.NoError(t, err)
	assert.Equal(t, msg.Type, decoded.Type)
	assert.Equal(t, msg.RanNodeID, decoded.RanNodeID)
	assert.Equal(t, msg.AmfUeNgapID, decoded.AmfUeNgapID)
	assert.Equal(t, msg.RanUeNgapID, decoded.RanUeNgapID)
	assert.Equal(t, msg.IEs["cause"], decoded.IEs["cause"])
}

func TestN2Service_ReceivesFrameOverTCP(t *testing.T) {
	n2 := NewN2Service("127.0.0.1:0", zap.NewNop())

	done := make(chan struct{})
	n2.Register("INITIAL_UE_MESSAGE", func(ctx context.Context, m N2Message) (N2Message, bool) {
		close(done)
		return m, true
	})

	go func() {
		if err := n2.Start(context.Background()); err != nil {
			t.Logf("n2 start exited: %v", err)
		}
	}()

	var addr string
	for i := 0; i < 50 && n2.listener == nil; i++ {
		time.Sleep(10 * time.Millisecond)
	}
	require.NotNil(t, n2.listener)
	addr = n2.listener.Addr().String()

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte(encodeN2(N2Message{
		Type:        "INITIAL_UE_MESSAGE",
		RanNodeID:   "gnb-1",
		AmfUeNgapID: "1",
		RanUeNgapID: "2",
	})))
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not invoked within timeout")
	}

	require.NoError(t, n2.Stop(context.Background()))
}
