//////////////////////////////////////////////////////////////////////////////
//
// Config contains configuration data for PeerConnection
//
// Copyright 2019 Lanikai Labs. All rights reserved.
//
//////////////////////////////////////////////////////////////////////////////

package urtc

import (
	"fmt"
	"strings"
)

// defaultSTUNServer is substituted whenever Config.STUNServers is empty.
const defaultSTUNServer = "stun.liburtc.org:3478"

// Config holds the parameters a PeerConnection is created with.
type Config struct {
	// STUNServers is a list of "host[:port]" strings; port defaults to
	// 3478 when omitted. A nil or empty slice is replaced by a single
	// default entry.
	STUNServers []string

	// OnICECandidate, if set, is invoked once per locally gathered ICE
	// candidate string, and once more with an empty string to signal
	// end-of-candidates.
	OnICECandidate func(candidate string)

	// OnForceIDR, if set, is invoked once when signaling reaches a stable
	// answered state (the transition immediately following a successful
	// offer/answer exchange). The embedding program owns the actual
	// encoder and should treat this as the cue to push a fresh key frame.
	OnForceIDR func()
}

func (c Config) stunServers() ([]string, error) {
	servers := c.STUNServers
	if len(servers) == 0 {
		servers = []string{defaultSTUNServer}
	}

	resolved := make([]string, len(servers))
	for i, s := range servers {
		host, err := normalizeSTUNServer(s)
		if err != nil {
			return nil, err
		}
		resolved[i] = host
	}
	return resolved, nil
}

// normalizeSTUNServer parses a "host[:port]" string, defaulting the port to
// 3478 when absent.
func normalizeSTUNServer(s string) (string, error) {
	if s == "" {
		return "", ErrBadArgument
	}
	if strings.Contains(s, ":") {
		return s, nil
	}
	return fmt.Sprintf("%s:3478", s), nil
}
