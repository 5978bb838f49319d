// Package sdp implements the restricted dialect of the Session Description
// Protocol (RFC 4566) needed for browser-compatible WebRTC signaling. It
// recognizes only the line and attribute types that dialect uses; anything
// else it silently ignores.
//
// Implements (in part) the following specifications:
// - RFC 4566 (https://tools.ietf.org/html/rfc4566)
// - RFC 3264 (https://tools.ietf.org/html/rfc3264)
// - https://tools.ietf.org/html/draft-ietf-mmusic-ice-sip-sdp-21
package sdp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Size limits enforced by the parser, mirroring the fixed-size buffers the
// on-device counterpart of this codec is bound by.
const (
	maxUsernameLen   = 32
	maxSessionIDLen  = 32
	maxSessionVerLen = 32
	maxSessionName   = 32
	maxBundleIDs     = 5
	maxBundleIDLen   = 32
	maxRTPMaps       = 32
	maxICEStringLen  = 1024
)

// Codec is the codec an RTPMap entry is bound to. Parse resolves only H264
// (from a matching a=rtpmap line); it never produces CodecVP9. CodecNone
// means a payload type was announced in the m= line but not resolved to
// H264 by a matching a=rtpmap.
type Codec int

const (
	CodecNone Codec = iota
	CodecH264
	CodecVP9
)

func (c Codec) String() string {
	switch c {
	case CodecH264:
		return "H264"
	case CodecVP9:
		return "VP9"
	default:
		return ""
	}
}

// Mode is the negotiated media direction.
type Mode int

const (
	ModeSendAndReceive Mode = iota
	ModeReceiveOnly
	ModeSendOnly
)

// Origin is the parsed (and size-capped) o= line, minus the network type,
// address type and unicast address fields, which this dialect requires to
// be present as literal "IN IP4 <addr>" tokens but does not retain.
type Origin struct {
	Username       string
	SessionID      string
	SessionVersion string
}

func (o Origin) String() string {
	return fmt.Sprintf("%s %s %s IN IP4 127.0.0.1", o.Username, o.SessionID, o.SessionVersion)
}

// ICE carries the subset of ICE parameters exchanged in SDP.
type ICE struct {
	Ufrag   string
	Pwd     string
	Trickle bool
}

// Fingerprint is a DTLS certificate fingerprint. Only SHA-256 is supported;
// any other algorithm is a parse error.
type Fingerprint struct {
	SHA256 [32]byte
}

func (f Fingerprint) String() string {
	octets := make([]string, len(f.SHA256))
	for i, b := range f.SHA256 {
		octets[i] = fmt.Sprintf("%02X", b)
	}
	return "sha-256 " + strings.Join(octets, ":")
}

// RTPMap binds one dynamic RTP payload type to a codec and clock rate. Codec
// is CodecNone until a matching a=rtpmap line resolves it.
type RTPMap struct {
	PayloadType int
	Codec       Codec
	ClockRate   int
}

// Media is a single media section (an m= line and the a= lines that follow
// it, up to the next m= line or end of input).
type Media struct {
	Port   int
	RTPMap []RTPMap
}

// Session is the value object produced by Parse and consumed by Serialize.
type Session struct {
	Version int // Always 0.

	Origin      Origin
	Name        string // Optional, capped at maxSessionName.
	StartTime   uint64
	StopTime    uint64
	BundleMIDs  []string
	ICE         ICE
	Fingerprint Fingerprint
	Mode        Mode
	RTCPMux     bool
	RTCPRsize   bool

	Video *Media // nil if no video section was present.
	Audio *Media // nil if no audio section was present.
}

// Parse decodes an SDP string into a Session. An empty string is not the
// same as a malformed one: Parse("") succeeds with a zero-value Session.
func Parse(src string) (Session, error) {
	var s Session
	for _, line := range splitLines(src) {
		if line == "" {
			continue
		}
		typecode, value, err := splitTypeValue(line)
		if err != nil {
			return Session{}, err
		}

		switch typecode {
		case 'v':
			err = parseVersion(&s, value)
		case 'o':
			err = parseOrigin(&s, value)
		case 's':
			s.Name = truncate(value, maxSessionName)
		case 't':
			err = parseTiming(&s, value)
		case 'c':
			// Connection info is accepted but not used on the receive path.
		case 'm':
			err = parseMediaDescription(&s, value)
		case 'a':
			err = parseAttribute(&s, value)
		default:
			// Unknown line types are silently ignored.
		}
		if err != nil {
			return Session{}, err
		}
	}
	return s, nil
}

// Serialize renders a Session back into an SDP blob, in the fixed field
// order the browser SDP parsers this library talks to expect.
func Serialize(s Session) string {
	var w strings.Builder
	fmt.Fprintf(&w, "v=%d\n", s.Version)
	fmt.Fprintf(&w, "o=%s\n", s.Origin.String())

	name := s.Name
	if name == "" {
		name = " "
	}
	fmt.Fprintf(&w, "s=%s\n", name)
	w.WriteString("u=http://www.liburtc.org\n")
	fmt.Fprintf(&w, "t=%d %d\n", s.StartTime, s.StopTime)

	w.WriteString("a=group:BUNDLE")
	for _, mid := range s.BundleMIDs {
		if mid != "" {
			fmt.Fprintf(&w, " %s", mid)
		}
	}
	w.WriteString("\n")

	if s.Video != nil && len(s.Video.RTPMap) > 0 {
		fmt.Fprintf(&w, "m=video %d UDP/TLS/RTP/SAVPF", s.Video.Port)
		for _, rm := range s.Video.RTPMap {
			if rm.Codec == CodecH264 {
				fmt.Fprintf(&w, " %d", rm.PayloadType)
			}
		}
		w.WriteString("\n")
	}

	w.WriteString("c=IN IP4 0.0.0.0\n")
	fmt.Fprintf(&w, "a=ice-ufrag:%s\n", s.ICE.Ufrag)
	fmt.Fprintf(&w, "a=ice-pwd:%s\n", s.ICE.Pwd)
	if s.ICE.Trickle {
		w.WriteString("a=ice-options:trickle\n")
	}
	fmt.Fprintf(&w, "a=fingerprint:%s\n", s.Fingerprint.String())

	switch s.Mode {
	case ModeReceiveOnly:
		w.WriteString("a=recvonly\n")
	case ModeSendOnly:
		w.WriteString("a=sendonly\n")
	default:
		w.WriteString("a=sendrecv\n")
	}
	if s.RTCPMux {
		w.WriteString("a=rtcp-mux\n")
	}
	if s.RTCPRsize {
		w.WriteString("a=rtcp-rsize\n")
	}

	if s.Video != nil {
		for _, rm := range s.Video.RTPMap {
			if rm.Codec == CodecH264 {
				fmt.Fprintf(&w, "a=rtpmap:%d H264/%d\n", rm.PayloadType, rm.ClockRate)
			}
		}
	}
	w.WriteString("a=mid:0\n")

	return w.String()
}

// splitLines breaks an SDP blob on CR, LF, or CRLF.
func splitLines(src string) []string {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	src = strings.ReplaceAll(src, "\r", "\n")
	if src == "" {
		return nil
	}
	return strings.Split(src, "\n")
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func splitTypeValue(line string) (typecode byte, value string, err error) {
	if len(line) < 3 || line[1] != '=' {
		return 0, "", errors.Wrapf(ErrMalformed, "line %q", line)
	}
	return line[0], line[2:], nil
}

func parseVersion(s *Session, value string) error {
	if value != "0" {
		return ErrMalformedVersion
	}
	s.Version = 0
	return nil
}

func parseOrigin(s *Session, value string) error {
	fields := strings.Fields(value)
	if len(fields) < 6 || fields[3] != "IN" || fields[4] != "IP4" {
		return errors.Wrapf(ErrMalformedOrigin, "%q", value)
	}
	s.Origin = Origin{
		Username:       truncate(fields[0], maxUsernameLen),
		SessionID:      truncate(fields[1], maxSessionIDLen),
		SessionVersion: truncate(fields[2], maxSessionVerLen),
	}
	return nil
}

func parseTiming(s *Session, value string) error {
	fields := strings.Fields(value)
	if len(fields) != 2 {
		return errors.Wrapf(ErrMalformedTiming, "%q", value)
	}
	start, err1 := strconv.ParseUint(fields[0], 10, 64)
	stop, err2 := strconv.ParseUint(fields[1], 10, 64)
	if err1 != nil || err2 != nil {
		return errors.Wrapf(ErrMalformedTiming, "%q", value)
	}
	s.StartTime, s.StopTime = start, stop
	return nil
}

func parseMediaDescription(s *Session, value string) error {
	fields := strings.Fields(value)
	if len(fields) < 1 {
		return ErrMalformedMedia
	}

	switch fields[0] {
	case "audio":
		m, err := parseMediaBody(fields)
		if err != nil {
			return err
		}
		s.Audio = m
	case "video":
		m, err := parseMediaBody(fields)
		if err != nil {
			return err
		}
		s.Video = m
	case "text", "message", "application":
		// Silently accepted and skipped; no state recorded.
	default:
		return errors.Wrapf(ErrUnsupportedMediaType, "%q", fields[0])
	}
	return nil
}

func parseMediaBody(fields []string) (*Media, error) {
	if len(fields) < 3 {
		return nil, ErrMalformedMedia
	}
	port, err := strconv.ParseUint(fields[1], 10, 16)
	if err != nil {
		return nil, errors.Wrap(ErrMalformedMedia, "port")
	}
	if fields[2] != "UDP/TLS/RTP/SAVPF" {
		return nil, errors.Wrapf(ErrUnsupportedMediaProtocol, "%q", fields[2])
	}

	m := &Media{Port: int(port)}
	for _, f := range fields[3:] {
		if len(m.RTPMap) >= maxRTPMaps {
			break
		}
		pt, err := strconv.ParseUint(f, 10, 8)
		if err != nil || pt > 127 {
			return nil, errors.Wrap(ErrMalformedMedia, "payload type")
		}
		m.RTPMap = append(m.RTPMap, RTPMap{PayloadType: int(pt)})
	}
	return m, nil
}

func parseAttribute(s *Session, value string) error {
	attr, val, hasValue := strings.Cut(value, ":")

	if !hasValue {
		switch attr {
		case "recvonly":
			s.Mode = ModeReceiveOnly
		case "sendonly":
			s.Mode = ModeSendOnly
		case "sendrecv":
			s.Mode = ModeSendAndReceive
		case "rtcp-mux":
			s.RTCPMux = true
		case "rtcp-rsize":
			s.RTCPRsize = true
		}
		return nil
	}

	switch attr {
	case "group":
		return parseGroup(s, val)
	case "ice-ufrag":
		s.ICE.Ufrag = truncate(val, maxICEStringLen)
	case "ice-pwd":
		s.ICE.Pwd = truncate(val, maxICEStringLen)
	case "ice-options":
		for _, tok := range strings.Fields(val) {
			if tok == "trickle" {
				s.ICE.Trickle = true
			}
		}
	case "fingerprint":
		return parseFingerprint(s, val)
	case "rtpmap":
		return parseRTPMap(s, val)
	case "msid-semantic", "rtcp", "setup", "mid", "extmap", "rtcp-fb", "fmtp":
		// Recognized, accepted as no-ops.
	default:
		// Unrecognized keyed attribute; ignore.
	}
	return nil
}

func parseGroup(s *Session, val string) error {
	fields := strings.Fields(val)
	if len(fields) == 0 || fields[0] != "BUNDLE" {
		return nil
	}
	for _, mid := range fields[1:] {
		if len(s.BundleMIDs) >= maxBundleIDs {
			break
		}
		s.BundleMIDs = append(s.BundleMIDs, truncate(mid, maxBundleIDLen))
	}
	return nil
}

func parseFingerprint(s *Session, val string) error {
	algo, hex, ok := strings.Cut(val, " ")
	if !ok {
		return ErrMalformedAttribute
	}
	if algo != "sha-256" {
		return errors.Wrapf(ErrUnsupportedFingerprintAlgo, "%q", algo)
	}

	octets := strings.Split(hex, ":")
	if len(octets) != 32 {
		return errors.Wrap(ErrMalformedAttribute, "fingerprint")
	}
	var fp Fingerprint
	for i, o := range octets {
		b, err := strconv.ParseUint(o, 16, 8)
		if err != nil {
			return errors.Wrap(ErrMalformedAttribute, "fingerprint")
		}
		fp.SHA256[i] = byte(b)
	}
	s.Fingerprint = fp
	return nil
}

func parseRTPMap(s *Session, val string) error {
	fields := strings.Fields(val)
	if len(fields) < 2 {
		return ErrMalformedAttribute
	}
	pt, err := strconv.Atoi(fields[0])
	if err != nil {
		return ErrMalformedAttribute
	}
	name, clockStr, _ := strings.Cut(fields[1], "/")
	clockStr, _, _ = strings.Cut(clockStr, "/")
	clock, err := strconv.Atoi(clockStr)
	if err != nil {
		return ErrMalformedAttribute
	}

	if name != "H264" {
		return nil
	}
	for _, m := range []*Media{s.Video, s.Audio} {
		if m == nil {
			continue
		}
		for i := range m.RTPMap {
			if m.RTPMap[i].PayloadType == pt {
				m.RTPMap[i].Codec = CodecH264
				m.RTPMap[i].ClockRate = clock
			}
		}
	}
	return nil
}
