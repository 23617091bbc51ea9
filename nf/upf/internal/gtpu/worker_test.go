package gtpu

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	upfctx "github.com/fivegc/corenet/nf/upf/internal/context"
)

// capturingTx is a TxFunc that records every packet handed to it.
type capturingTx struct {
	mu   sync.Mutex
	sent [][]byte
}

func (c *capturingTx) fn(pkt []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make([]byte, len(pkt))
	copy(cp, pkt)
	c.sent = append(c.sent, cp)
	return nil
}

func (c *capturingTx) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func (c *capturingTx) last() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sent[len(c.sent)-1]
}

func newTestPool(t *testing.T) (*WorkerPool, *upfctx.Store, *capturingTx, *capturingTx) {
	t.Helper()
	store := upfctx.NewStore(2)
	sess := &upfctx.Session{
		UEIP:    net.ParseIP("10.0.0.2"),
		DLTEID:  0x12345678,
		ULTEID:  0x87654321,
		GNBIP:   net.ParseIP("192.168.1.100"),
		GNBPort: 2152,
	}
	require.NoError(t, store.Install(sess))

	n3 := &capturingTx{}
	n6 := &capturingTx{}
	pool := NewWorkerPool(store, net.ParseIP("127.0.0.1"), 2, 16, n3.fn, n6.fn, nil)
	return pool, store, n3, n6
}

func TestWorkerPool_HandleN6_EncapsulatesAndSendsToGNB(t *testing.T) {
	pool, _, n3, _ := newTestPool(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pool.Run(ctx)

	inner := buildInnerIPv4(net.ParseIP("10.0.0.2"), 32)
	pool.HandleN6(inner)

	require.Eventually(t, func() bool { return n3.count() == 1 }, time.Second, time.Millisecond)

	pkt := n3.last()
	assert.True(t, net.IP(pkt[16:20]).Equal(net.ParseIP("192.168.1.100").To4()))
	gtpHdr, err := DecodeHeader(pkt[28:36])
	require.NoError(t, err)
	assert.EqualValues(t, 0x12345678, gtpHdr.TEID)
}

func TestWorkerPool_HandleN3_DecapsulatesAndSendsToDataNetwork(t *testing.T) {
	pool, _, _, n6 := newTestPool(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pool.Run(ctx)

	inner := make([]byte, 40)
	for i := range inner {
		inner[i] = byte(i)
	}
	frame := buildUplinkFrame(0x87654321, inner)
	pool.HandleN3(frame)

	require.Eventually(t, func() bool { return n6.count() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, inner, n6.last())
}

func TestWorkerPool_HandleN3_AnswersEchoRequestImmediately(t *testing.T) {
	pool, _, n3, n6 := newTestPool(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pool.Run(ctx)

	echoReq := make([]byte, uplinkHeaderLen)
	echoReq[0] = 0x45
	echoReq[9] = udpProtocol
	hdr := EncodeHeader(Header{MessageType: MsgEchoRequest})
	copy(echoReq[ipv4HeaderLen+udpHeaderLen:], hdr)

	pool.HandleN3(echoReq)

	require.Eventually(t, func() bool { return n3.count() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, 0, n6.count())

	decoded, err := DecodeHeader(n3.last())
	require.NoError(t, err)
	assert.Equal(t, uint8(MsgEchoResponse), decoded.MessageType)
}

func TestWorkerPool_HandleN6_DropsUnknownDestination(t *testing.T) {
	pool, _, n3, _ := newTestPool(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pool.Run(ctx)

	inner := buildInnerIPv4(net.ParseIP("10.0.0.99"), 10)
	pool.HandleN6(inner)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, n3.count())
}

func TestWorkerPool_HandleN3_DropsUnknownTEID(t *testing.T) {
	pool, _, _, n6 := newTestPool(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pool.Run(ctx)

	frame := buildUplinkFrame(0xdeadbeef, make([]byte, 10))
	pool.HandleN3(frame)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, n6.count())
}

func TestWorkerPool_DropHookInvokedOnMiss(t *testing.T) {
	store := upfctx.NewStore(1)
	n3 := &capturingTx{}
	n6 := &capturingTx{}

	var reasons []string
	var mu sync.Mutex
	pool := NewWorkerPool(store, net.ParseIP("127.0.0.1"), 1, 4, n3.fn, n6.fn, nil, WithDropHook(func(reason string) {
		mu.Lock()
		defer mu.Unlock()
		reasons = append(reasons, reason)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pool.Run(ctx)

	pool.HandleN6(buildInnerIPv4(net.ParseIP("10.0.0.2"), 10))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(reasons) == 1
	}, time.Second, time.Millisecond)
}

func TestWorkerPool_NumWorkers(t *testing.T) {
	pool, _, _, _ := newTestPool(t)
	assert.Equal(t, 2, pool.NumWorkers())
}
