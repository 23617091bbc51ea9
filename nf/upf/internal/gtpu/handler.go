// handler.go is the network glue between the N3/N6 interfaces and the
// WorkerPool: it owns the sockets, reads raw frames off them, and hands
// them to WorkerPool.HandleN3/HandleN6. N3 reads full raw IP frames,
// since inspecting the outer IPv4/UDP headers requires seeing them
// before the kernel strips them; N6 treats the UDP payload directly as
// the inner IP packet.
package gtpu

import (
	"context"
	"fmt"
	"net"

	"go.uber.org/zap"

	"github.com/fivegc/corenet/nf/upf/internal/config"
)

// Handler owns the N3/N6 sockets and pumps frames into a WorkerPool.
type Handler struct {
	config *config.Config
	pool   *WorkerPool
	n3Conn *net.IPConn
	n6Conn *net.UDPConn
	logger *zap.Logger
}

// NewHandler constructs a Handler. Call SetPool before Start, once the
// WorkerPool has been built from this Handler's TxN3/TxN6 methods — the
// two types reference each other, so construction happens in two steps
// (see cmd/main.go).
func NewHandler(cfg *config.Config, logger *zap.Logger) *Handler {
	return &Handler{config: cfg, logger: logger}
}

// SetPool attaches the WorkerPool frames read off the sockets are
// dispatched to.
func (h *Handler) SetPool(pool *WorkerPool) { h.pool = pool }

// Start opens both interfaces and runs their read loops until ctx is
// canceled. The N3 socket is a raw IP socket reading every UDP datagram
// addressed to this host, since the dst-port-2152 filter only makes
// sense in software when the listener itself sees all UDP traffic, not
// just GTP-U — this requires CAP_NET_RAW.
func (h *Handler) Start(ctx context.Context) error {
	n3Addr, err := net.ResolveIPAddr("ip4", h.config.N3.LocalAddress)
	if err != nil {
		return fmt.Errorf("failed to resolve N3 local address: %w", err)
	}
	n3Conn, err := net.ListenIP("ip4:udp", n3Addr)
	if err != nil {
		return fmt.Errorf("failed to open N3 raw socket: %w", err)
	}
	h.n3Conn = n3Conn

	n6Addr, err := net.ResolveUDPAddr("udp", h.config.GetN6Address())
	if err != nil {
		return fmt.Errorf("failed to resolve N6 address: %w", err)
	}
	n6Conn, err := net.ListenUDP("udp", n6Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on N6: %w", err)
	}
	h.n6Conn = n6Conn

	h.logger.Info("N3 (GTP-U) interface started", zap.String("address", h.config.N3.LocalAddress))
	h.logger.Info("N6 (data network) interface started", zap.String("address", h.config.GetN6Address()))

	go h.readN3(ctx)
	go h.readN6(ctx)

	<-ctx.Done()
	_ = h.n3Conn.Close()
	_ = h.n6Conn.Close()
	return nil
}

func (h *Handler) readN3(ctx context.Context) {
	buf := make([]byte, 65535)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		n, _, err := h.n3Conn.ReadFromIP(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				h.logger.Warn("failed to read from N3", zap.Error(err))
				continue
			}
		}
		frame := make([]byte, n)
		copy(frame, buf[:n])
		h.pool.HandleN3(frame)
	}
}

func (h *Handler) readN6(ctx context.Context) {
	buf := make([]byte, 65535)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		n, _, err := h.n6Conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				h.logger.Warn("failed to read from N6", zap.Error(err))
				continue
			}
		}
		pkt := make([]byte, n)
		copy(pkt, buf[:n])
		h.pool.HandleN6(pkt)
	}
}

// TxN3 sends a fully-built outer IPv4/UDP/GTP-U frame toward a gNB. The
// raw socket already frames at the IP layer, so only the UDP+GTP-U+inner
// portion (everything after the synthetic IPv4 header this package builds
// in BuildDownlinkPacket) is written; the kernel fills in the real IP
// header for the destination this frame names.
func (h *Handler) TxN3(pkt []byte) error {
	if len(pkt) < ipv4HeaderLen {
		return fmt.Errorf("packet too short to strip synthetic ipv4 header: %d bytes", len(pkt))
	}
	dst := net.IP(append([]byte(nil), pkt[16:20]...))
	_, err := h.n3Conn.WriteToIP(pkt[ipv4HeaderLen:], &net.IPAddr{IP: dst})
	return err
}

// TxN6 forwards a decapsulated inner IPv4 packet to the data network,
// addressed to the packet's own destination IP rather than a TUN/TAP
// device.
func (h *Handler) TxN6(pkt []byte) error {
	if len(pkt) < ipv4HeaderLen {
		return fmt.Errorf("packet too short to read destination: %d bytes", len(pkt))
	}
	dst := net.IP(append([]byte(nil), pkt[16:20]...))
	_, err := h.n6Conn.WriteToUDP(pkt, &net.UDPAddr{IP: dst, Port: h.config.N6.Port})
	return err
}
