// Package urtc implements a lightweight peer-to-peer real-time
// communication library for resource-constrained devices: a restricted SDP
// codec, an mDNS responder/resolver for ephemeral "<uuid>.local" hostnames,
// and the per-connection packet demultiplexer and signaling state machine
// that glue them together. DTLS, SRTP/SRTCP, STUN/TURN, H.264 encoding and
// the signaling transport itself are external collaborators; this library
// only demultiplexes, gathers, and negotiates.
package urtc

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/mauka-labs/urtc/internal/logging"
	"github.com/mauka-labs/urtc/internal/mdns"
	"github.com/mauka-labs/urtc/internal/sdp"
)

const (
	sdpUsername  = "urtc"
	mdnsTTL      = 120 * time.Second
	videoPayload = 96
	videoClock   = 90000
)

var log = logging.DefaultLogger.WithTag("urtc")

// PeerConnection is the library's single opaque handle. One PeerConnection
// owns one UDP media socket, one mDNS socket, and one worker goroutine; it
// is not safe to share a PeerConnection's public methods across goroutines
// concurrently with Close, but SetLocalDescription/SetRemoteDescription/
// AddICECandidate/Close may each be called from any goroutine since they
// only touch state guarded by mu.
type PeerConnection struct {
	config Config

	mediaConn  *net.UDPConn
	mdnsClient *mdns.Client
	hostname   string // "<uuid>", without ".local"
	localIP    net.IP

	certificate *Certificate

	loop *eventLoop

	mu                sync.Mutex
	state             signalingState
	localDescription  sdp.Session
	remoteDescription bool // whether a remote description has ever been set
	remote            sdp.Session
	candidates        candidateSet
	closed            bool
	closeOnce         sync.Once
}

// NewPeerConnection allocates a UDP media socket, joins the mDNS multicast
// group, generates a certificate and ephemeral hostname, announces that
// hostname, and starts the per-connection worker.
func NewPeerConnection(config Config) (*PeerConnection, error) {
	if _, err := config.stunServers(); err != nil {
		return nil, err
	}

	cert, err := generateCertificate()
	if err != nil {
		return nil, err
	}

	hostname, err := newEphemeralHostname()
	if err != nil {
		return nil, err
	}

	mediaConn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: 0})
	if err != nil {
		return nil, errors.Wrap(err, "opening media socket")
	}

	mdnsClient, err := mdns.NewClient()
	if err != nil {
		mediaConn.Close()
		return nil, errors.Wrap(err, "opening mDNS socket")
	}

	localIP, err := mdns.LocalIPv4()
	if err != nil {
		mediaConn.Close()
		mdnsClient.Close()
		return nil, errors.Wrap(err, "resolving local address")
	}

	if err := mdnsClient.Announce(hostname+".local", localIP, mdnsTTL); err != nil {
		mediaConn.Close()
		mdnsClient.Close()
		return nil, errors.Wrap(err, "announcing ephemeral hostname")
	}

	pc := &PeerConnection{
		config:      config,
		mediaConn:   mediaConn,
		mdnsClient:  mdnsClient,
		hostname:    hostname,
		localIP:     localIP,
		certificate: cert,
		state:       stateStable,
	}

	pc.loop = newEventLoop(pc)
	go pc.loop.run()

	pc.emitLocalCandidate()

	return pc, nil
}

// SetOnICECandidate replaces the callback held in Config.OnICECandidate.
// The local host candidate and the end-of-candidates signal are emitted
// once, inside NewPeerConnection, to the callback present at that time; a
// callback installed afterwards with SetOnICECandidate does not receive
// them.
func (pc *PeerConnection) SetOnICECandidate(fn func(candidate string)) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.config.OnICECandidate = fn
}

// AddICECandidate records a remote ICE candidate string. An empty string
// denotes end-of-candidates. Connectivity checks and pairing are the
// external ICE agent's responsibility; this library only remembers that
// candidates arrived.
func (pc *PeerConnection) AddICECandidate(candidate string) error {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.candidates.add(candidate)
	return nil
}

// SetRemoteDescription parses sdpText and advances the signaling state
// machine. The first remote description in an exchange is treated as an
// offer; a remote description arriving while a local offer is outstanding
// is treated as the answer.
func (pc *PeerConnection) SetRemoteDescription(sdpText string) error {
	session, err := sdp.Parse(sdpText)
	if err != nil {
		return wrapSDPError(err)
	}

	pc.mu.Lock()

	kind := kindOffer
	if pc.state == stateHaveLocalOffer {
		kind = kindAnswer
	}
	next, err := transition(pc.state, sourceRemote, kind)
	if err != nil {
		pc.mu.Unlock()
		return err
	}

	pc.remote = session
	pc.remoteDescription = true
	pc.state = next
	becameStable := kind == kindAnswer && next == stateStable
	pc.mu.Unlock()

	if becameStable {
		pc.fireOnForceIDR()
	}
	return nil
}

// SetLocalDescription parses sdpText and advances the signaling state
// machine, mirroring SetRemoteDescription's offer/answer inference from
// current state.
func (pc *PeerConnection) SetLocalDescription(sdpText string) error {
	session, err := sdp.Parse(sdpText)
	if err != nil {
		return wrapSDPError(err)
	}

	pc.mu.Lock()

	kind := kindOffer
	if pc.state == stateHaveRemoteOffer {
		kind = kindAnswer
	}
	next, err := transition(pc.state, sourceLocal, kind)
	if err != nil {
		pc.mu.Unlock()
		return err
	}

	pc.localDescription = session
	pc.state = next
	becameStable := kind == kindAnswer && next == stateStable
	pc.mu.Unlock()

	if becameStable {
		pc.fireOnForceIDR()
	}
	return nil
}

// fireOnForceIDR invokes Config.OnForceIDR, if set, outside of mu: it runs
// after the answer→stable transition that completes an offer/answer
// exchange, mirroring emitLocalCandidate's convention of calling back into
// the embedder without holding the lock.
func (pc *PeerConnection) fireOnForceIDR() {
	pc.mu.Lock()
	fn := pc.config.OnForceIDR
	pc.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// CreateOffer builds a fresh local offer naming this connection's video
// capability. It does not change signaling state; the caller must still
// pass the returned text to SetLocalDescription.
func (pc *PeerConnection) CreateOffer() (string, error) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	session, err := pc.baseSession(sdp.ModeSendAndReceive)
	if err != nil {
		return "", err
	}
	return sdp.Serialize(session), nil
}

// CreateAnswer builds a local answer to the current remote offer. It fails
// with ErrMissingRemoteDescription if no remote description has been set,
// and with ErrUnsupportedMedia if the remote offer's video section names
// no codec this library supports.
func (pc *PeerConnection) CreateAnswer() (string, error) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if !pc.remoteDescription {
		return "", ErrMissingRemoteDescription
	}

	if !hasSupportedVideoCodec(pc.remote.Video) {
		return "", ErrUnsupportedMedia
	}

	session, err := pc.baseSession(sdp.ModeSendAndReceive)
	if err != nil {
		return "", err
	}
	session.BundleMIDs = pc.remote.BundleMIDs
	return sdp.Serialize(session), nil
}

// baseSession builds the common fields of a local description: origin,
// timing, ICE credentials, fingerprint, and a single H.264 video section.
// Caller must hold mu.
func (pc *PeerConnection) baseSession(mode sdp.Mode) (sdp.Session, error) {
	ufrag, pwd, err := pc.iceCredentials()
	if err != nil {
		return sdp.Session{}, err
	}

	return sdp.Session{
		Version: 0,
		Origin: sdp.Origin{
			Username:       sdpUsername,
			SessionID:      fmt.Sprintf("%d", time.Now().Unix()),
			SessionVersion: "1",
		},
		Name:       "-",
		BundleMIDs: []string{"0"},
		ICE: sdp.ICE{
			Ufrag:   ufrag,
			Pwd:     pwd,
			Trickle: true,
		},
		Fingerprint: pc.certificate.Fingerprint,
		Mode:        mode,
		RTCPMux:     true,
		RTCPRsize:   true,
		Video: &sdp.Media{
			Port: pc.mediaConn.LocalAddr().(*net.UDPAddr).Port,
			RTPMap: []sdp.RTPMap{
				{PayloadType: videoPayload, Codec: sdp.CodecH264, ClockRate: videoClock},
			},
		},
	}, nil
}

// hasSupportedVideoCodec reports whether media names at least one H.264
// payload type, the only codec this library negotiates.
func hasSupportedVideoCodec(media *sdp.Media) bool {
	if media == nil {
		return false
	}
	for _, rm := range media.RTPMap {
		if rm.Codec == sdp.CodecH264 {
			return true
		}
	}
	return false
}

// emitLocalCandidate publishes this connection's single host candidate,
// built around its ephemeral mDNS hostname, followed by end-of-candidates.
// Gathering further candidate types (srflx/relay via STUN/TURN) is the
// external ICE agent's job.
func (pc *PeerConnection) emitLocalCandidate() {
	if pc.config.OnICECandidate == nil {
		return
	}
	port := pc.mediaConn.LocalAddr().(*net.UDPAddr).Port
	candidate := fmt.Sprintf(
		"candidate:1 1 udp 2122260223 %s.local %d typ host",
		pc.hostname, port)
	pc.config.OnICECandidate(candidate)
	pc.config.OnICECandidate("")
}

// Close signals the worker, waits for it to exit, releases the mDNS group
// membership, and closes both sockets. It is idempotent: calling it more
// than once is a no-op after the first call.
func (pc *PeerConnection) Close() error {
	var err error
	pc.closeOnce.Do(func() {
		pc.loop.stop()
		pc.loop.join()

		if e := pc.mdnsClient.Close(); e != nil {
			err = e
		}
		if e := pc.mediaConn.Close(); e != nil && err == nil {
			err = e
		}

		pc.mu.Lock()
		pc.closed = true
		pc.mu.Unlock()
	})
	return err
}

// HandleSTUN, HandleDTLS and HandleRTP implement demux.Handler. The
// protocol engines themselves (STUN/TURN state machine, DTLS handshake,
// SRTP/SRTCP codec) are external collaborators this library hands
// classified datagrams to; absent one wired in, these log and discard.
func (pc *PeerConnection) HandleSTUN(payload []byte, src *net.UDPAddr) error {
	log.Debug("STUN datagram (%d bytes) from %s", len(payload), src)
	return nil
}

func (pc *PeerConnection) HandleDTLS(payload []byte, src *net.UDPAddr) error {
	log.Debug("DTLS datagram (%d bytes) from %s", len(payload), src)
	return nil
}

func (pc *PeerConnection) HandleRTP(payload []byte, src *net.UDPAddr) error {
	log.Debug("RTP/RTCP datagram (%d bytes) from %s", len(payload), src)
	return nil
}
