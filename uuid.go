package urtc

import (
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// newEphemeralHostname generates a lowercase UUIDv4 suitable for use as the
// "<uuid>.local" mDNS hostname embedded in this peer connection's ICE
// candidates. Generation itself (the PRNG) is out of this library's scope;
// google/uuid supplies it.
func newEphemeralHostname() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", errors.Wrap(err, "generating ephemeral hostname")
	}
	return strings.ToLower(id.String()), nil
}
