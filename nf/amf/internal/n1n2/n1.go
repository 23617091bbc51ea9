package n1n2

import (
	"context"

	"go.uber.org/zap"
)

// N1Message is a NAS message synthesized from an SBI input: there is no
// wire port for N1 in this deployment, so traffic is generated
// in-process rather than read off a socket.
type N1Message struct {
	Type    string
	SUPI    string
	Payload map[string]string
}

// N1Service is the in-process N1 adapter.
type N1Service struct {
	router *messageRouter[N1Message]
}

// NewN1Service constructs an empty N1 adapter.
func NewN1Service(logger *zap.Logger) *N1Service {
	return &N1Service{
		router: newMessageRouter(func(m N1Message) string { return m.Type }, logger),
	}
}

// Register installs the handler for a NAS message type.
func (s *N1Service) Register(msgType string, h Handler[N1Message]) {
	s.router.Register(msgType, h)
}

// Send dispatches msg to its registered handler.
func (s *N1Service) Send(ctx context.Context, msg N1Message) bool {
	return s.router.Send(ctx, msg)
}

// Counters returns (sent, received) totals.
func (s *N1Service) Counters() (sent, received int64) {
	return s.router.Counters()
}
