package demux

import (
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyIsATotalPartition(t *testing.T) {
	for b := 0; b <= 255; b++ {
		c := Classify([]byte{byte(b)})
		switch {
		case b <= 1:
			assert.Equal(t, STUN, c, "byte %d", b)
		case b >= 20 && b <= 63:
			assert.Equal(t, DTLS, c, "byte %d", b)
		case b >= 128 && b <= 191:
			assert.Equal(t, RTP, c, "byte %d", b)
		default:
			assert.Equal(t, Discard, c, "byte %d", b)
		}
	}
}

func TestClassifyEmptyBufferDiscards(t *testing.T) {
	assert.Equal(t, Discard, Classify(nil))
	assert.Equal(t, Discard, Classify([]byte{}))
}

type recordingHandler struct {
	called string
}

func (h *recordingHandler) HandleSTUN(_ []byte, _ *net.UDPAddr) error {
	h.called = "stun"
	return nil
}

func (h *recordingHandler) HandleDTLS(_ []byte, _ *net.UDPAddr) error {
	h.called = "dtls"
	return errors.New("dtls handler failed")
}

func (h *recordingHandler) HandleRTP(_ []byte, _ *net.UDPAddr) error {
	h.called = "rtp"
	return nil
}

func TestDispatchRoutesByClass(t *testing.T) {
	h := &recordingHandler{}

	assert.NoError(t, Dispatch(h, []byte{0x00}, nil))
	assert.Equal(t, "stun", h.called)

	assert.EqualError(t, Dispatch(h, []byte{30}, nil), "dtls handler failed")
	assert.Equal(t, "dtls", h.called)

	assert.NoError(t, Dispatch(h, []byte{160}, nil))
	assert.Equal(t, "rtp", h.called)

	h.called = ""
	assert.NoError(t, Dispatch(h, []byte{10}, nil))
	assert.Equal(t, "", h.called, "discarded datagrams never reach the handler")
}
