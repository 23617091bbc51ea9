package gtpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeHeader_RoundTrips(t *testing.T) {
	h := Header{MessageType: MsgGPDU, Length: 128, TEID: 0x12345678}
	decoded, err := DecodeHeader(EncodeHeader(h))
	require.NoError(t, err)
	assert.Equal(t, uint8(gtpVersion1), decoded.Version)
	assert.Equal(t, h.MessageType, decoded.MessageType)
	assert.Equal(t, h.Length, decoded.Length)
	assert.Equal(t, h.TEID, decoded.TEID)
}

func TestDecodeHeader_TooShort(t *testing.T) {
	_, err := DecodeHeader([]byte{0x30, 0xff, 0x00})
	assert.Error(t, err)
}

func TestDecodeHeader_WrongVersion(t *testing.T) {
	buf := EncodeHeader(Header{MessageType: MsgGPDU})
	buf[0] = 0x10 // version bits = 0
	_, err := DecodeHeader(buf)
	assert.Error(t, err)
}
