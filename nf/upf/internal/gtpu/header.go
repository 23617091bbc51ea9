// Package gtpu implements the UPF's per-packet GTP-U encapsulation and
// decapsulation fast path.
package gtpu

import (
	"encoding/binary"
	"fmt"
)

// GTP-U message types (3GPP TS 29.281).
const (
	MsgEchoRequest     = 1
	MsgEchoResponse    = 2
	MsgErrorIndication = 26
	MsgEndMarker       = 254
	MsgGPDU            = 255
)

const (
	gtpVersion1  = 1
	headerLength = 8

	// flagsBase: version=001, PT=1, no E/S/PN extension flags set.
	flagsBase byte = 0x30
)

// Header is the mandatory 8-byte GTP-U header this fast path emits and
// parses; no extension headers are produced or expected.
type Header struct {
	Version     uint8
	MessageType uint8
	Length      uint16
	TEID        uint32
}

// EncodeHeader renders h as the fixed 8-byte GTP-U header.
func EncodeHeader(h Header) []byte {
	buf := make([]byte, headerLength)
	buf[0] = flagsBase
	buf[1] = h.MessageType
	binary.BigEndian.PutUint16(buf[2:4], h.Length)
	binary.BigEndian.PutUint32(buf[4:8], h.TEID)
	return buf
}

// DecodeHeader parses the mandatory header from data. The version bits
// must be 001; extension fields (S/PN/E) are accepted but ignored, since
// this fast path never emits them and does not act on sequence/N-PDU/
// next-extension-header IEs.
func DecodeHeader(data []byte) (Header, error) {
	if len(data) < headerLength {
		return Header{}, fmt.Errorf("gtp-u header too short: %d bytes", len(data))
	}
	version := (data[0] >> 5) & 0x07
	if version != gtpVersion1 {
		return Header{}, fmt.Errorf("unsupported gtp-u version: %d", version)
	}
	return Header{
		Version:     version,
		MessageType: data[1],
		Length:      binary.BigEndian.Uint16(data[2:4]),
		TEID:        binary.BigEndian.Uint32(data[4:8]),
	}, nil
}
