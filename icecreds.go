package urtc

import (
	"crypto/rand"

	"github.com/pkg/errors"
)

const (
	iceUfragLen = 4
	icePwdLen   = 24

	iceCredAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// iceCredentials generates a fresh ICE username fragment and password for a
// local description, per RFC 5245 §15.4's length recommendations (ufrag
// >= 4 characters, pwd >= 22). The pseudorandom source itself is an
// external collaborator in the on-device counterpart of this library;
// here crypto/rand stands in, matching certificate.go's use of it for key
// generation.
func (pc *PeerConnection) iceCredentials() (ufrag, pwd string, err error) {
	ufrag, err = randomICEString(iceUfragLen)
	if err != nil {
		return "", "", errors.Wrap(err, "generating ICE ufrag")
	}
	pwd, err = randomICEString(icePwdLen)
	if err != nil {
		return "", "", errors.Wrap(err, "generating ICE password")
	}
	return ufrag, pwd, nil
}

func randomICEString(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = iceCredAlphabet[int(b)%len(iceCredAlphabet)]
	}
	return string(out), nil
}
