package urtc

// signalingState is one node of the offer/answer state machine described in
// the ICE/JSEP signaling model: a peer connection starts stable, moves to
// have-*-offer once a description naming an offer is set, and returns to
// stable once the matching answer lands. Pranswer is a side state reachable
// from any state (including the other pranswer state) and returned to
// stable by an answer set from either side.
type signalingState int

const (
	stateStable signalingState = iota
	stateHaveLocalOffer
	stateHaveRemoteOffer
	stateHaveLocalPranswer
	stateHaveRemotePranswer
)

func (s signalingState) String() string {
	switch s {
	case stateStable:
		return "stable"
	case stateHaveLocalOffer:
		return "have-local-offer"
	case stateHaveRemoteOffer:
		return "have-remote-offer"
	case stateHaveLocalPranswer:
		return "have-local-pranswer"
	case stateHaveRemotePranswer:
		return "have-remote-pranswer"
	default:
		return "unknown"
	}
}

// descriptionSource identifies which side a description being set came
// from: the embedder (local) or the remote peer (remote).
type descriptionSource int

const (
	sourceLocal descriptionSource = iota
	sourceRemote
)

// descriptionKind classifies the SDP type of a description being set. Only
// the three kinds the state table cares about are distinguished; a
// description naming anything else is a protocol violation.
type descriptionKind int

const (
	kindOffer descriptionKind = iota
	kindAnswer
	kindPranswer
)

// transition computes the next signaling state for setting a description of
// the given source and kind while in state s, per the table in the
// signaling state machine design. Any (state, input) pair not in the table
// is a protocol violation.
func transition(s signalingState, src descriptionSource, kind descriptionKind) (signalingState, error) {
	switch kind {
	case kindOffer:
		switch s {
		case stateStable:
			if src == sourceLocal {
				return stateHaveLocalOffer, nil
			}
			return stateHaveRemoteOffer, nil
		}

	case kindPranswer:
		if src == sourceLocal {
			return stateHaveLocalPranswer, nil
		}
		return stateHaveRemotePranswer, nil

	case kindAnswer:
		switch s {
		case stateHaveLocalOffer:
			if src == sourceRemote {
				return stateStable, nil
			}
		case stateHaveRemoteOffer:
			if src == sourceLocal {
				return stateStable, nil
			}
		case stateHaveLocalPranswer, stateHaveRemotePranswer:
			return stateStable, nil
		}
	}

	return s, ErrProtocolViolation
}
