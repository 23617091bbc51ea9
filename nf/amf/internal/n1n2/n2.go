package n1n2

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"
)

// N2Message is a stubbed NGAP-equivalent message: type, RAN node id, the
// UE-NGAP id pair, and a flat IE list. No SCTP/ASN.1 — the wire form is
// implementation-defined text.
type N2Message struct {
	Type       string
	RanNodeID  string
	AmfUeNgapID string
	RanUeNgapID string
	IEs        map[string]string
}

// encodeN2 renders a message as one newline-terminated text frame:
// type|ranNodeId|amfUeNgapId,ranUeNgapId|k1=v1;k2=v2
func encodeN2(m N2Message) string {
	var ies []string
	for k, v := range m.IEs {
		ies = append(ies, fmt.Sprintf("%s=%s", k, v))
	}
	return fmt.Sprintf("%s|%s|%s,%s|%s\n",
		m.Type, m.RanNodeID, m.AmfUeNgapID, m.RanUeNgapID, strings.Join(ies, ";"))
}

func decodeN2(line string) (N2Message, error) {
	parts := strings.SplitN(strings.TrimRight(line, "\n"), "|", 4)
	if len(parts) < 3 {
		return N2Message{}, fmt.Errorf("malformed n2 frame: %q", line)
	}
	ids := strings.SplitN(parts[2], ",", 2)
	if len(ids) != 2 {
		return N2Message{}, fmt.Errorf("malformed n2 ue-ngap id pair: %q", parts[2])
	}

	m := N2Message{
		Type:        parts[0],
		RanNodeID:   parts[1],
		AmfUeNgapID: ids[0],
		RanUeNgapID: ids[1],
		IEs:         make(map[string]string),
	}
	if len(parts) == 4 && parts[3] != "" {
		for _, kv := range strings.Split(parts[3], ";") {
			if k, v, ok := strings.Cut(kv, "="); ok {
				m.IEs[k] = v
			}
		}
	}
	return m, nil
}

// N2Service is the TCP-backed N2 adapter. Its accept loop polls with a 1s
// deadline so it observes shutdown without requiring a separate
// cancellation mechanism.
type N2Service struct {
	router   *messageRouter[N2Message]
	bindAddr string
	listener net.Listener
	stop     chan struct{}
	logger   *zap.Logger
}

// NewN2Service constructs the N2 adapter bound to addr; it does not start
// listening until Start is called.
func NewN2Service(addr string, logger *zap.Logger) *N2Service {
	return &N2Service{
		router:   newMessageRouter(func(m N2Message) string { return m.Type }, logger),
		bindAddr: addr,
		stop:     make(chan struct{}),
		logger:   logger,
	}
}

// Register installs the handler for an N2 message type.
func (s *N2Service) Register(msgType string, h Handler[N2Message]) {
	s.router.Register(msgType, h)
}

// Send dispatches msg to its registered handler (used for AMF-originated
// N2 traffic, e.g. InitialContextSetupRequest, that doesn't arrive over
// the TCP listener).
func (s *N2Service) Send(ctx context.Context, msg N2Message) bool {
	return s.router.Send(ctx, msg)
}

// Counters returns (sent, received) totals.
func (s *N2Service) Counters() (sent, received int64) {
	return s.router.Counters()
}

// Start opens the listener and runs the accept loop until Stop is called.
func (s *N2Service) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.bindAddr)
	if err != nil {
		return fmt.Errorf("n2 listen: %w", err)
	}
	s.listener = ln
	s.logger.Info("n2 listener started", zap.String("address", s.bindAddr))

	for {
		select {
		case <-s.stop:
			return nil
		default:
		}

		if tl, ok := ln.(*net.TCPListener); ok {
			tl.SetDeadline(time.Now().Add(1 * time.Second))
		}

		conn, err := ln.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case <-s.stop:
				return nil
			default:
				s.logger.Warn("n2 accept error", zap.Error(err))
				continue
			}
		}

		go s.handleConn(ctx, conn)
	}
}

func (s *N2Service) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		msg, err := decodeN2(scanner.Text())
		if err != nil {
			s.logger.Warn("dropping malformed n2 frame", zap.Error(err))
			continue
		}
		s.router.Send(ctx, msg)
	}
}

// Stop signals the accept loop to exit and closes the listener.
func (s *N2Service) Stop(ctx context.Context) error {
	close(s.stop)
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}
