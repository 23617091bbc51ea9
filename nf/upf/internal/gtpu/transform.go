package gtpu

import (
	"encoding/binary"
	"fmt"
	"net"
)

const (
	ipv4HeaderLen = 20
	udpHeaderLen  = 8
	n3Port        = 2152 // GTP-U, both directions' UDP port toward the gNB/UPF N3 interface
	n3SrcPort     = 2153
	outerTTL      = 64
	ipv4Protocol  = 4
	udpProtocol   = 17
)

// parsedIPv4 is the handful of inner-packet fields the fast path needs;
// it is not a general IPv4 parser (no options, no fragmentation).
type parsedIPv4 struct {
	DstIP         net.IP
	TOS           byte
	TotalLength   int
}

func parseIPv4(pkt []byte) (parsedIPv4, error) {
	if len(pkt) < ipv4HeaderLen {
		return parsedIPv4{}, fmt.Errorf("ipv4 packet too short: %d bytes", len(pkt))
	}
	if pkt[0]>>4 != ipv4Protocol {
		return parsedIPv4{}, fmt.Errorf("not an ipv4 packet")
	}
	return parsedIPv4{
		DstIP:       net.IPv4(pkt[16], pkt[17], pkt[18], pkt[19]),
		TOS:         pkt[1],
		TotalLength: int(binary.BigEndian.Uint16(pkt[2:4])),
	}, nil
}

// BuildDownlinkPacket builds a fresh outer IPv4/UDP/GTP-U packet carrying
// innerPacket verbatim as the G-PDU payload, addressed to the session's
// gNB.
func BuildDownlinkPacket(localIP net.IP, gnbIP net.IP, gnbPort uint16, teid uint32, tos byte, innerPacket []byte) []byte {
	gtpHdr := EncodeHeader(Header{MessageType: MsgGPDU, Length: uint16(len(innerPacket)), TEID: teid})

	udpLen := udpHeaderLen + len(gtpHdr) + len(innerPacket)
	totalLen := ipv4HeaderLen + udpLen

	out := make([]byte, totalLen)

	// Outer IPv4 header: id=1, frag=0, checksum left at 0 (hardware
	// offload or skipped is acceptable in software).
	out[0] = 0x45
	out[1] = tos
	binary.BigEndian.PutUint16(out[2:4], uint16(totalLen))
	binary.BigEndian.PutUint16(out[4:6], 1)
	binary.BigEndian.PutUint16(out[6:8], 0)
	out[8] = outerTTL
	out[9] = udpProtocol
	binary.BigEndian.PutUint16(out[10:12], 0)
	copy(out[12:16], localIP.To4())
	copy(out[16:20], gnbIP.To4())

	// Outer UDP header: src=2153, dst=2152, checksum=0 (legal over IPv4).
	binary.BigEndian.PutUint16(out[20:22], n3SrcPort)
	binary.BigEndian.PutUint16(out[22:24], n3Port)
	binary.BigEndian.PutUint16(out[24:26], uint16(udpLen))
	binary.BigEndian.PutUint16(out[26:28], 0)

	copy(out[28:36], gtpHdr)
	copy(out[36:], innerPacket)

	return out
}

// parseDownlinkInner is the pure packet-level half of the downlink path:
// parse the inner IPv4 header and report its destination IP for the
// session lookup. The caller (worker.go) does the session-table lookup
// and counter updates, since those need Store/Session access this
// package does not depend on.
func parseDownlinkInner(innerPacket []byte) (dstIP net.IP, tos byte, err error) {
	hdr, err := parseIPv4(innerPacket)
	if err != nil {
		return nil, 0, err
	}
	return hdr.DstIP, hdr.TOS, nil
}

// uplinkHeaderLen is the minimum bytes a candidate uplink packet must
// carry: outer IPv4 + outer UDP + the mandatory GTP-U header.
const uplinkHeaderLen = ipv4HeaderLen + udpHeaderLen + headerLength

// ParseUplinkPacket validates the outer framing, decodes the GTP-U
// header, and returns the TEID plus the inner IPv4 payload (a fresh
// copy, length taken from the GTP-U header and bounded by the outer
// packet's actual length). ok is false for any packet the fast path must
// silently drop (too short, not IPv4/UDP, wrong dst port, bad GTP-U
// version/type, or zero-length payload).
func ParseUplinkPacket(raw []byte) (teid uint32, inner []byte, ok bool) {
	if len(raw) < uplinkHeaderLen {
		return 0, nil, false
	}
	if raw[0]>>4 != ipv4Protocol {
		return 0, nil, false
	}
	if raw[9] != udpProtocol {
		return 0, nil, false
	}
	dstPort := binary.BigEndian.Uint16(raw[22:24])
	if dstPort != n3Port {
		return 0, nil, false
	}

	gtpHdr, err := DecodeHeader(raw[28:])
	if err != nil {
		return 0, nil, false
	}
	if gtpHdr.MessageType != MsgGPDU {
		return 0, nil, false
	}

	innerStart := ipv4HeaderLen + udpHeaderLen + headerLength
	available := len(raw) - innerStart
	innerLen := int(gtpHdr.Length)
	if innerLen > available {
		innerLen = available
	}
	if innerLen <= 0 {
		return 0, nil, false
	}

	inner = make([]byte, innerLen)
	copy(inner, raw[innerStart:innerStart+innerLen])
	return gtpHdr.TEID, inner, true
}

// BuildEchoResponse answers a GTP-U echo request (message type 1) with an
// empty echo response (message type 2), a liveness check. No Recovery IE
// is synthesized since this deployment never restarts mid-session.
func BuildEchoResponse() []byte {
	return EncodeHeader(Header{MessageType: MsgEchoResponse, Length: 0, TEID: 0})
}

// IsEchoRequest reports whether a decoded header is a GTP-U echo request.
func IsEchoRequest(h Header) bool { return h.MessageType == MsgEchoRequest }
