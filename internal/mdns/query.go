package mdns

import (
	"golang.org/x/net/dns/dnsmessage"
)

// Bits set in the mask returned by ValidateQuery, one per matched query
// type. These are just distinct bit positions, not the DNS TYPE field
// values themselves (A is 1, but AAAA is 28, which doesn't fit a two-bit
// mask) — the caller tests for a type with a bitwise AND against the same
// constant.
const (
	MatchA    uint16 = 1 << 0
	MatchAAAA uint16 = 1 << 1
)

// isValidQueryHeader reports whether hdr is shaped like an ordinary mDNS
// query per RFC 6762 §18: id zero, opcode zero, and none of QR/TC/RD set.
// Both ValidateQuery and the responder's HandleMessage gate question
// processing on this same check.
func isValidQueryHeader(hdr dnsmessage.Header) bool {
	return hdr.ID == 0 && hdr.OpCode == 0 && !hdr.Response && !hdr.Truncated && !hdr.RecursionDesired
}

// ValidateQuery inspects msg, a raw mDNS datagram, and reports which of the
// {A, AAAA} record types it asks about for hostname+".local". It never
// reads past len(msg), and never panics on truncated or malformed input.
// A header that is not that of an ordinary RFC 6762 query (non-zero id, or
// any bit of the flags field set) yields a zero mask with no error, as does
// a query none of whose questions names "<hostname>.local", since a
// non-matching query is not itself a protocol violation. Every question the
// header counts is examined, and the types of all matching ones are ORed
// into the mask. A header or question too short to parse returns the
// parser's error.
func ValidateQuery(msg []byte, hostname string) (mask uint16, err error) {
	var p dnsmessage.Parser
	hdr, err := p.Start(msg)
	if err != nil {
		return 0, err
	}
	if !isValidQueryHeader(hdr) {
		return 0, nil
	}
	// The whole 16-bit flags field must be zero, not only the bits
	// isValidQueryHeader inspects. Start succeeded, so msg holds a full
	// 12-byte header.
	if msg[2] != 0 || msg[3] != 0 {
		return 0, nil
	}

	for {
		q, err := p.Question()
		if err == dnsmessage.ErrSectionDone {
			break
		}
		if err != nil {
			return 0, err
		}

		if !matchesHostname(q.Name, hostname) {
			continue
		}

		switch q.Type {
		case typeA:
			mask |= MatchA
		case typeAAAA:
			mask |= MatchAAAA
		}
	}

	return mask, nil
}

// matchesHostname reports whether name is exactly "<hostname>.local.": the
// three-label sequence <hostname>, "local", empty-root, with nothing else.
func matchesHostname(name dnsmessage.Name, hostname string) bool {
	want := hostname + ".local."
	return name.String() == want
}
