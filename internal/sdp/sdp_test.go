package sdp

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Chrome 73.0.3683.103 (Official Build) (64-bit)
const chromeOffer = "v=0\n" +
	"o=- 2136573259711410686 2 IN IP4 127.0.0.1\n" +
	"s=-\n" +
	"t=0 0\n" +
	"a=group:BUNDLE 0\n" +
	"a=msid-semantic: WMS\n" +
	"m=video 9 UDP/TLS/RTP/SAVPF 96 97 98 99 100 101 102 122 127 121 125 107 108 109 124 120 123 119 114 115 116\n" +
	"c=IN IP4 0.0.0.0\n" +
	"a=rtcp:9 IN IP4 0.0.0.0\n" +
	"a=ice-ufrag:DPkQ\n" +
	"a=ice-pwd:23oU5vsiyBKLHbND/Ql8f7gZ\n" +
	"a=ice-options:trickle\n" +
	"a=fingerprint:sha-256 D0:44:DF:68:71:39:56:0B:D3:61:7A:F2:42:5B:1B:0A:CD:B2:72:84:3A:DE:0F:22:CA:8C:B0:06:0A:8D:A2:00\n" +
	"a=setup:actpass\n" +
	"a=mid:0\n" +
	"a=extmap:2 urn:ietf:params:rtp-hdrext:toffset\n" +
	"a=recvonly\n" +
	"a=rtcp-mux\n" +
	"a=rtcp-rsize\n" +
	"a=rtpmap:96 VP8/90000\n" +
	"a=rtpmap:97 rtx/90000\n" +
	"a=fmtp:97 apt=96\n" +
	"a=rtpmap:102 H264/90000\n" +
	"a=fmtp:102 level-asymmetry-allowed=1;packetization-mode=1;profile-level-id=42001f\n"

var chromeVideoTypes = []int{96, 97, 98, 99, 100, 101, 102, 122, 127, 121, 125, 107, 108, 109, 124, 120, 123, 119, 114, 115, 116}

// Safari 13.1 (14609.1.20.111.8)
const safariOffer = "v=0\n" +
	"o=- 3389190485417077944 2 IN IP4 127.0.0.1\n" +
	"s=-\n" +
	"t=0 0\n" +
	"a=group:BUNDLE 0\n" +
	"a=msid-semantic: WMS\n" +
	"m=video 9 UDP/TLS/RTP/SAVPF 96 97 98 99 100 101 127 125 104\n" +
	"c=IN IP4 0.0.0.0\n" +
	"a=rtcp:9 IN IP4 0.0.0.0\n" +
	"a=ice-ufrag:yMtQ\n" +
	"a=ice-pwd:92GWQlqPVFfVjlxV2qSlQxEq\n" +
	"a=ice-options:trickle\n" +
	"a=fingerprint:sha-256 D7:41:A3:34:FC:54:27:FD:D1:2A:58:1D:9E:01:8A:C8:A9:F3:E0:BE:66:B3:D9:58:FC:7D:59:A7:BA:D6:99:F3\n" +
	"a=setup:actpass\n" +
	"a=mid:0\n" +
	"a=sendrecv\n" +
	"a=msid:- d770ebc2-b725-4de0-8314-a76a8a67695e\n" +
	"a=rtcp-mux\n" +
	"a=rtcp-rsize\n" +
	"a=rtpmap:96 H264/90000\n" +
	"a=fmtp:96 level-asymmetry-allowed=1;packetization-mode=1;profile-level-id=640c1f\n" +
	"a=rtpmap:97 rtx/90000\n" +
	"a=fmtp:97 apt=96\n" +
	"a=rtpmap:127 red/90000\n" +
	"a=rtpmap:125 rtx/90000\n" +
	"a=fmtp:125 apt=127\n" +
	"a=rtpmap:104 ulpfec/90000\n"

var safariVideoTypes = []int{96, 97, 98, 99, 100, 101, 127, 125, 104}

var chromeFingerprint = [32]byte{
	0xD0, 0x44, 0xDF, 0x68, 0x71, 0x39, 0x56, 0x0B,
	0xD3, 0x61, 0x7A, 0xF2, 0x42, 0x5B, 0x1B, 0x0A,
	0xCD, 0xB2, 0x72, 0x84, 0x3A, 0xDE, 0x0F, 0x22,
	0xCA, 0x8C, 0xB0, 0x06, 0x0A, 0x8D, 0xA2, 0x00,
}

var safariFingerprint = [32]byte{
	0xD7, 0x41, 0xA3, 0x34, 0xFC, 0x54, 0x27, 0xFD,
	0xD1, 0x2A, 0x58, 0x1D, 0x9E, 0x01, 0x8A, 0xC8,
	0xA9, 0xF3, 0xE0, 0xBE, 0x66, 0xB3, 0xD9, 0x58,
	0xFC, 0x7D, 0x59, 0xA7, 0xBA, 0xD6, 0x99, 0xF3,
}

func TestParseChromeOffer(t *testing.T) {
	s, err := Parse(chromeOffer)
	require.NoError(t, err)

	assert.Equal(t, 0, s.Version)
	assert.Equal(t, "-", s.Origin.Username)
	assert.Equal(t, "2136573259711410686", s.Origin.SessionID)
	assert.Equal(t, "2", s.Origin.SessionVersion)
	assert.EqualValues(t, 0, s.StartTime)
	assert.EqualValues(t, 0, s.StopTime)

	require.NotNil(t, s.Video)
	assert.Equal(t, 9, s.Video.Port)
	require.Len(t, s.Video.RTPMap, len(chromeVideoTypes))
	for i, pt := range chromeVideoTypes {
		assert.Equal(t, pt, s.Video.RTPMap[i].PayloadType)
	}

	assert.Equal(t, "DPkQ", s.ICE.Ufrag)
	assert.Equal(t, "23oU5vsiyBKLHbND/Ql8f7gZ", s.ICE.Pwd)
	assert.True(t, s.ICE.Trickle)
	assert.Equal(t, chromeFingerprint, s.Fingerprint.SHA256)
	assert.Equal(t, ModeReceiveOnly, s.Mode)
	assert.True(t, s.RTCPMux)
	assert.True(t, s.RTCPRsize)
}

func TestParseSafariOffer(t *testing.T) {
	s, err := Parse(safariOffer)
	require.NoError(t, err)

	require.NotNil(t, s.Video)
	assert.Equal(t, 9, s.Video.Port)
	require.Len(t, s.Video.RTPMap, len(safariVideoTypes))
	for i, pt := range safariVideoTypes {
		assert.Equal(t, pt, s.Video.RTPMap[i].PayloadType)
	}

	assert.Equal(t, "yMtQ", s.ICE.Ufrag)
	assert.Equal(t, safariFingerprint, s.Fingerprint.SHA256)
	assert.Equal(t, ModeSendAndReceive, s.Mode)
	assert.True(t, s.RTCPMux)
	assert.True(t, s.RTCPRsize)
}

func TestParseEmptyIsDefault(t *testing.T) {
	s, err := Parse("")
	require.NoError(t, err)
	assert.Equal(t, Session{}, s)
}

func TestParseMalformedLineFails(t *testing.T) {
	_, err := Parse("this is not an sdp line\n")
	assert.Error(t, err)
	assert.Equal(t, ErrMalformed, errors.Cause(err))
}

func TestParseUnknownLineTypeIgnored(t *testing.T) {
	s, err := Parse("v=0\nz=whatever\n")
	require.NoError(t, err)
	assert.Equal(t, 0, s.Version)
}

func TestParseBadVersionFails(t *testing.T) {
	_, err := Parse("v=1\n")
	assert.Equal(t, ErrMalformedVersion, errors.Cause(err))
}

func TestParseUnsupportedFingerprintAlgo(t *testing.T) {
	_, err := Parse("a=fingerprint:sha-1 00:11\n")
	assert.Equal(t, ErrUnsupportedFingerprintAlgo, errors.Cause(err))
}

func TestParseUnsupportedMediaType(t *testing.T) {
	_, err := Parse("m=audio-ish 9 UDP/TLS/RTP/SAVPF 0\n")
	assert.Equal(t, ErrUnsupportedMediaType, errors.Cause(err))
}

func TestSerializeRoundTripsCoreFields(t *testing.T) {
	s := Session{
		Origin: Origin{Username: "-", SessionID: "1", SessionVersion: "2"},
		Name:   "-",
		ICE:    ICE{Ufrag: "abcd", Pwd: "secretpassword", Trickle: true},
		Mode:   ModeSendAndReceive,
	}

	out := Serialize(s)
	got, err := Parse(out)
	require.NoError(t, err)

	assert.Equal(t, s.Origin, got.Origin)
	assert.Equal(t, s.ICE, got.ICE)
	assert.Equal(t, s.Mode, got.Mode)
}
