// Package n1n2 implements the AMF's N1 (UE-to-AMF NAS, in-process) and N2
// (gNB-to-AMF, TCP) adapters. Both are capability sets of identical shape
// — a table from message type to handler plus per-direction counters —
// so they share the generic messageRouter here rather than duplicating
// the dispatch logic twice.
package n1n2

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Handler processes one inbound message of type T and returns the
// synthesized response plus whether the send should count as successful.
type Handler[T any] func(ctx context.Context, msg T) (T, bool)

// messageRouter dispatches messages of type T to a registered handler
// keyed by a caller-supplied string, and tracks per-direction counters.
type messageRouter[T any] struct {
	mu       sync.RWMutex
	handlers map[string]Handler[T]
	keyOf    func(T) string
	sent     atomic.Int64
	received atomic.Int64
	logger   *zap.Logger
}

func newMessageRouter[T any](keyOf func(T) string, logger *zap.Logger) *messageRouter[T] {
	return &messageRouter[T]{
		handlers: make(map[string]Handler[T]),
		keyOf:    keyOf,
		logger:   logger,
	}
}

// Register installs the handler for a message type key, replacing any
// handler already registered for that key.
func (r *messageRouter[T]) Register(key string, h Handler[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[key] = h
}

// Send dispatches msg to its registered handler. Unknown types are logged
// and reported as a failed send.
func (r *messageRouter[T]) Send(ctx context.Context, msg T) bool {
	r.received.Add(1)

	key := r.keyOf(msg)
	r.mu.RLock()
	h, ok := r.handlers[key]
	r.mu.RUnlock()
	if !ok {
		r.logger.Warn("no handler registered for message type", zap.String("type", key))
		return false
	}

	if _, ok := h(ctx, msg); !ok {
		return false
	}
	r.sent.Add(1)
	return true
}

// Counters returns (sent, received) totals for this direction.
func (r *messageRouter[T]) Counters() (sent, received int64) {
	return r.sent.Load(), r.received.Load()
}
