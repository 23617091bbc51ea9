// Package gtpu's WorkerPool simulates RSS (receive-side scaling) multi-queue
// NIC dispatch entirely in software: N worker goroutines, each with its own
// inbound channel, and every session pinned to exactly one worker for its
// lifetime.
package gtpu

import (
	"context"
	"net"

	"go.uber.org/zap"

	upfctx "github.com/fivegc/corenet/nf/upf/internal/context"
)

// Direction labels a raw frame's origin queue.
type Direction int

const (
	// DirectionN6 is a packet arriving from the data network, destined
	// for a UE (downlink).
	DirectionN6 Direction = iota
	// DirectionN3 is a packet arriving from a gNB, destined for the data
	// network (uplink).
	DirectionN3
)

// Frame is one raw packet queued for a worker, tagged with the interface it
// arrived on and the session HandleN3/HandleN6 already resolved it to —
// dispatch is the only place that needs to do a table lookup; the worker
// itself just mutates the session it was handed.
type Frame struct {
	Direction Direction
	Data      []byte
	Session   *upfctx.Session
}

// TxFunc sends a fully-built packet out an interface. main.go supplies one
// backed by a raw/UDP socket per interface; tests supply one that appends
// to a slice.
type TxFunc func(pkt []byte) error

// WorkerPool owns numWorkers goroutines, each consuming its own Frame
// channel. A session's workerIndex (assigned at Store.Install) determines
// which channel every one of its packets is enqueued on, so counter
// mutation and sequence-number allocation for a given session never race.
type WorkerPool struct {
	store      *upfctx.Store
	localIP    net.IP
	queues     []chan Frame
	txN3       TxFunc
	txN6       TxFunc
	logger     *zap.Logger
	queueDepth int

	droppedNoQueue func(reason string)
}

// Option configures optional WorkerPool behavior.
type Option func(*WorkerPool)

// WithDropHook installs a callback invoked whenever a packet is dropped, so
// callers can wire Prometheus counters without this package depending on
// common/metrics directly.
func WithDropHook(fn func(reason string)) Option {
	return func(p *WorkerPool) { p.droppedNoQueue = fn }
}

// NewWorkerPool constructs a pool with the given number of workers and
// per-worker queue depth. numWorkers must match the value the Store was
// constructed with, since session-to-worker assignment is computed there.
func NewWorkerPool(store *upfctx.Store, localIP net.IP, numWorkers, queueDepth int, txN3, txN6 TxFunc, logger *zap.Logger, opts ...Option) *WorkerPool {
	p := &WorkerPool{
		store:      store,
		localIP:    localIP,
		queues:     make([]chan Frame, numWorkers),
		txN3:       txN3,
		txN6:       txN6,
		logger:     logger,
		queueDepth: queueDepth,
	}
	for i := range p.queues {
		p.queues[i] = make(chan Frame, queueDepth)
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NumWorkers returns the configured worker count.
func (p *WorkerPool) NumWorkers() int { return len(p.queues) }

// Run starts all worker goroutines; it blocks until ctx is canceled, then
// drains no further frames and returns.
func (p *WorkerPool) Run(ctx context.Context) {
	for i := range p.queues {
		go p.runWorker(ctx, i)
	}
	<-ctx.Done()
}

func (p *WorkerPool) runWorker(ctx context.Context, idx int) {
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-p.queues[idx]:
			p.process(f)
		}
	}
}

// dispatch routes a frame to the worker owning its session, dropping it
// if no session claims it.
func (p *WorkerPool) dispatch(f Frame, sess *upfctx.Session, ok bool) {
	if !ok {
		p.drop("no-session")
		return
	}
	f.Session = sess
	select {
	case p.queues[sess.WorkerIndex()] <- f:
	default:
		p.drop("queue-full")
	}
}

func (p *WorkerPool) drop(reason string) {
	if p.droppedNoQueue != nil {
		p.droppedNoQueue(reason)
	}
	if p.logger != nil {
		p.logger.Debug("gtp-u packet dropped", zap.String("reason", reason))
	}
}

// HandleN6 is the entry point for a packet arriving from the data
// network: parse its inner IPv4 header, look up the destination UE's
// session, and dispatch to that session's worker.
func (p *WorkerPool) HandleN6(pkt []byte) {
	dstIP, _, err := parseDownlinkInner(pkt)
	if err != nil {
		p.drop("not-ipv4")
		return
	}
	sess, ok := p.store.LookupByUEIP(dstIP)
	p.dispatch(Frame{Direction: DirectionN6, Data: pkt}, sess, ok)
}

// HandleN3 is the entry point for a packet arriving from a gNB: validate
// framing, decode the GTP-U header, look up the session by uplink TEID,
// and dispatch to that session's worker. GTP-U echo requests are
// answered immediately and never enter a worker queue, since they carry
// no session TEID to dispatch on.
func (p *WorkerPool) HandleN3(pkt []byte) {
	if len(pkt) >= uplinkHeaderLen {
		if hdr, err := DecodeHeader(pkt[ipv4HeaderLen+udpHeaderLen:]); err == nil && IsEchoRequest(hdr) {
			if err := p.txN3(BuildEchoResponse()); err != nil && p.logger != nil {
				p.logger.Warn("failed to send gtp-u echo response", zap.Error(err))
			}
			return
		}
	}

	teid, inner, ok := ParseUplinkPacket(pkt)
	if !ok {
		p.drop("malformed-uplink")
		return
	}
	sess, found := p.store.LookupByULTEID(teid)
	p.dispatch(Frame{Direction: DirectionN3, Data: inner}, sess, found)
}

// process runs entirely on the owning worker goroutine: no lock is taken
// on the session's counters or sequence numbers, since dispatch
// guarantees every frame for a given session always lands on the same
// worker.
func (p *WorkerPool) process(f Frame) {
	switch f.Direction {
	case DirectionN6:
		p.processDownlink(f.Session, f.Data)
	case DirectionN3:
		p.processUplink(f.Session, f.Data)
	}
}

func (p *WorkerPool) processDownlink(sess *upfctx.Session, innerPacket []byte) {
	_, tos, err := parseDownlinkInner(innerPacket)
	if err != nil {
		p.drop("not-ipv4")
		return
	}

	pkt := BuildDownlinkPacket(p.localIP, sess.GNBIP, sess.GNBPort, sess.DLTEID, tos, innerPacket)
	sess.NextDLSequence()
	sess.RecordDownlink(len(innerPacket))

	if err := p.txN3(pkt); err != nil && p.logger != nil {
		p.logger.Warn("failed to send downlink packet", zap.Error(err), zap.Stringer("ueIP", sess.UEIP))
	}
}

func (p *WorkerPool) processUplink(sess *upfctx.Session, innerPacket []byte) {
	sess.NextULSequence()
	sess.RecordUplink(len(innerPacket))

	if err := p.txN6(innerPacket); err != nil && p.logger != nil {
		p.logger.Warn("failed to send uplink packet", zap.Error(err))
	}
}
