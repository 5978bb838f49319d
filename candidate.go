package urtc

// candidateSet accumulates opaque remote ICE candidate strings as handed in
// via AddICECandidate. The actual ICE state machine (pairing, priority,
// connectivity checks) is an external collaborator; this library only needs
// to remember the candidates long enough to have received them.
type candidateSet struct {
	candidates      []string
	endOfCandidates bool
}

// add records a remote candidate string. An empty string denotes
// end-of-candidates and is recorded as a flag rather than appended.
func (c *candidateSet) add(candidate string) {
	if candidate == "" {
		c.endOfCandidates = true
		return
	}
	c.candidates = append(c.candidates, candidate)
}
