package sdp

import "errors"

// Sentinel errors returned by Parse. Wrapped with additional context via
// github.com/pkg/errors; use errors.Cause (or errors.Is against these
// values) to recover the underlying sentinel.
var (
	ErrMalformed                  = errors.New("sdp: malformed line")
	ErrMalformedVersion           = errors.New("sdp: malformed version")
	ErrMalformedOrigin            = errors.New("sdp: malformed origin")
	ErrMalformedTiming            = errors.New("sdp: malformed timing")
	ErrMalformedMedia             = errors.New("sdp: malformed media description")
	ErrMalformedAttribute         = errors.New("sdp: malformed attribute")
	ErrUnsupportedFingerprintAlgo = errors.New("sdp: unsupported fingerprint algorithm")
	ErrUnsupportedMediaProtocol   = errors.New("sdp: unsupported media protocol")
	ErrUnsupportedMediaType       = errors.New("sdp: unsupported media type")
)
