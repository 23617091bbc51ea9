package gtpu

import (
	"encoding/binary"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildInnerIPv4 constructs a minimal IPv4 packet (header + payload of
// payloadLen zero bytes) with the given destination.
func buildInnerIPv4(dst net.IP, payloadLen int) []byte {
	total := ipv4HeaderLen + payloadLen
	pkt := make([]byte, total)
	pkt[0] = 0x45
	binary.BigEndian.PutUint16(pkt[2:4], uint16(total))
	copy(pkt[16:20], dst.To4())
	return pkt
}

func TestBuildDownlinkPacket_BuildsOuterFrame(t *testing.T) {
	localIP := net.ParseIP("127.0.0.1")
	gnbIP := net.ParseIP("192.168.1.100")
	const teid = 0x12345678
	const payloadLen = 100

	inner := buildInnerIPv4(net.ParseIP("10.0.0.2"), payloadLen)

	pkt := BuildDownlinkPacket(localIP, gnbIP, 2152, teid, 0, inner)

	assert.Equal(t, ipv4HeaderLen+udpHeaderLen+headerLength+len(inner), len(pkt))
	assert.True(t, net.IP(pkt[16:20]).Equal(gnbIP.To4()))

	udpDstPort := binary.BigEndian.Uint16(pkt[22:24])
	assert.EqualValues(t, n3Port, udpDstPort)

	gtpHdr, err := DecodeHeader(pkt[28:36])
	require.NoError(t, err)
	assert.EqualValues(t, teid, gtpHdr.TEID)
	assert.EqualValues(t, len(inner), gtpHdr.Length)
	assert.Equal(t, uint8(MsgGPDU), gtpHdr.MessageType)
}

func buildUplinkFrame(teid uint32, inner []byte) []byte {
	gtpHdr := EncodeHeader(Header{MessageType: MsgGPDU, Length: uint16(len(inner)), TEID: teid})
	total := ipv4HeaderLen + udpHeaderLen + len(gtpHdr) + len(inner)
	buf := make([]byte, total)
	buf[0] = 0x45
	buf[9] = udpProtocol
	binary.BigEndian.PutUint16(buf[22:24], n3Port)
	copy(buf[ipv4HeaderLen+udpHeaderLen:], gtpHdr)
	copy(buf[ipv4HeaderLen+udpHeaderLen+len(gtpHdr):], inner)
	return buf
}

func TestParseUplinkPacket_ExtractsInnerPacket(t *testing.T) {
	const teid = 0x87654321
	inner := make([]byte, 64)
	for i := range inner {
		inner[i] = byte(i)
	}

	frame := buildUplinkFrame(teid, inner)

	gotTeid, gotInner, ok := ParseUplinkPacket(frame)
	require.True(t, ok)
	assert.EqualValues(t, teid, gotTeid)
	assert.Equal(t, inner, gotInner)
}

func TestParseUplinkPacket_DropsTooShort(t *testing.T) {
	_, _, ok := ParseUplinkPacket(make([]byte, uplinkHeaderLen-1))
	assert.False(t, ok)
}

func TestParseUplinkPacket_DropsWrongDstPort(t *testing.T) {
	frame := buildUplinkFrame(1, make([]byte, 10))
	binary.BigEndian.PutUint16(frame[22:24], 9999)
	_, _, ok := ParseUplinkPacket(frame)
	assert.False(t, ok)
}

func TestParseUplinkPacket_DropsNonUDP(t *testing.T) {
	frame := buildUplinkFrame(1, make([]byte, 10))
	frame[9] = 6 // TCP
	_, _, ok := ParseUplinkPacket(frame)
	assert.False(t, ok)
}

func TestParseUplinkPacket_DropsZeroLengthPayload(t *testing.T) {
	frame := buildUplinkFrame(1, nil)
	_, _, ok := ParseUplinkPacket(frame)
	assert.False(t, ok)
}

func TestParseUplinkPacket_BoundsLengthToAvailableBytes(t *testing.T) {
	inner := make([]byte, 64)
	frame := buildUplinkFrame(1, inner)
	// Claim a GTP-U length larger than what's actually present.
	binary.BigEndian.PutUint16(frame[ipv4HeaderLen+udpHeaderLen+2:], 9000)

	_, gotInner, ok := ParseUplinkPacket(frame)
	require.True(t, ok)
	assert.Len(t, gotInner, len(inner))
}

func TestIsEchoRequest(t *testing.T) {
	assert.True(t, IsEchoRequest(Header{MessageType: MsgEchoRequest}))
	assert.False(t, IsEchoRequest(Header{MessageType: MsgGPDU}))
}
