package urtc

import (
	"github.com/pkg/errors"

	"github.com/mauka-labs/urtc/internal/sdp"
)

// Error is the closed taxonomy of failures this library can return. It is
// the Go-native counterpart of a negated error-code enum: callers compare
// against the exported constants rather than inspecting strings.
type Error int

const (
	ErrGeneric Error = iota + 1
	ErrBadArgument
	ErrInsufficientMemory
	ErrMalformed
	ErrNotImplemented
	ErrMissingRemoteDescription

	ErrSDPMalformed
	ErrSDPMalformedVersion
	ErrSDPMalformedOrigin
	ErrSDPMalformedTiming
	ErrSDPMalformedMedia
	ErrSDPMalformedAttribute
	ErrSDPUnsupportedFingerprintAlgo
	ErrSDPUnsupportedMediaProtocol
	ErrSDPUnsupportedMediaType

	ErrProtocolViolation
	ErrUnsupportedMedia
)

var errorText = map[Error]string{
	ErrGeneric:                       "generic failure",
	ErrBadArgument:                   "bad argument",
	ErrInsufficientMemory:            "insufficient memory",
	ErrMalformed:                     "malformed input",
	ErrNotImplemented:                "not implemented",
	ErrMissingRemoteDescription:      "missing remote description",
	ErrSDPMalformed:                  "malformed SDP",
	ErrSDPMalformedVersion:           "malformed SDP version",
	ErrSDPMalformedOrigin:            "malformed SDP origin",
	ErrSDPMalformedTiming:            "malformed SDP timing",
	ErrSDPMalformedMedia:             "malformed SDP media description",
	ErrSDPMalformedAttribute:         "malformed SDP attribute",
	ErrSDPUnsupportedFingerprintAlgo: "unsupported SDP fingerprint algorithm",
	ErrSDPUnsupportedMediaProtocol:   "unsupported SDP media protocol",
	ErrSDPUnsupportedMediaType:       "unsupported SDP media type",
	ErrProtocolViolation:             "protocol violation",
	ErrUnsupportedMedia:              "unsupported media",
}

func (e Error) Error() string {
	if s, ok := errorText[e]; ok {
		return s
	}
	return "unknown error"
}

// Ok reports whether e represents success. Error is never returned as a nil
// interface value holding success; callers test err != nil as usual. Ok
// exists for parity with the C source's zero-means-success convention when
// an Error is held in a non-error-typed field.
func (e Error) Ok() bool {
	return e == 0
}

// wrapSDPError maps an error from the sdp package onto this package's
// closed Error taxonomy, preserving the original error as the cause via
// github.com/pkg/errors' wrapping.
func wrapSDPError(err error) error {
	if err == nil {
		return nil
	}
	switch errors.Cause(err) {
	case sdp.ErrMalformedVersion:
		return errors.Wrap(ErrSDPMalformedVersion, err.Error())
	case sdp.ErrMalformedOrigin:
		return errors.Wrap(ErrSDPMalformedOrigin, err.Error())
	case sdp.ErrMalformedTiming:
		return errors.Wrap(ErrSDPMalformedTiming, err.Error())
	case sdp.ErrMalformedMedia:
		return errors.Wrap(ErrSDPMalformedMedia, err.Error())
	case sdp.ErrMalformedAttribute:
		return errors.Wrap(ErrSDPMalformedAttribute, err.Error())
	case sdp.ErrUnsupportedFingerprintAlgo:
		return errors.Wrap(ErrSDPUnsupportedFingerprintAlgo, err.Error())
	case sdp.ErrUnsupportedMediaProtocol:
		return errors.Wrap(ErrSDPUnsupportedMediaProtocol, err.Error())
	case sdp.ErrUnsupportedMediaType:
		return errors.Wrap(ErrSDPUnsupportedMediaType, err.Error())
	default:
		return errors.Wrap(ErrSDPMalformed, err.Error())
	}
}
