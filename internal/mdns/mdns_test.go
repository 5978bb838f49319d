package mdns

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/dns/dnsmessage"
)

// Fixed response blob: one question for "liburtc.local", and AAAA then A
// answers for it.
var fixedResponse = []byte{
	// header
	0x00, 0x00, // transaction id
	0x84, 0x00, // flags
	0x00, 0x01, // questions
	0x00, 0x02, // answer RRs
	0x00, 0x00, // authority RRs
	0x00, 0x00, // additional RRs

	// query
	0x07, 0x6c, 0x69, 0x62, 0x75, 0x72, 0x74, 0x63, // "liburtc"
	0x05, 0x6c, 0x6f, 0x63, 0x61, 0x6c, // "local"
	0x00,       // root
	0x00, 0xff, // type: any
	0x80, 0x01, // class: unicast | internet

	// answer: AAAA
	0xc0, 0x0c, // name (compressed pointer)
	0x00, 0x1c, // type: AAAA
	0x00, 0x01, // class: internet
	0x00, 0x00, 0x00, 0x0a, // ttl
	0x00, 0x10, // rdlength
	0xfe, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x72, 0x85, 0xc2, 0xff, 0xfe, 0x07, 0x1f, 0x03,

	// answer: A
	0xc0, 0x0c, // name (compressed pointer)
	0x00, 0x01, // type: A
	0x00, 0x01, // class: internet
	0x00, 0x00, 0x00, 0x0a, // ttl
	0x00, 0x04, // rdlength
	0xc0, 0xa8, 0x01, 0x64,
}

func newBareClient() *Client {
	return &Client{cache: make(map[string]*record), pruneSize: initialPruneSize}
}

func TestParseFixedResponseBlob(t *testing.T) {
	require.Len(t, fixedResponse, 64)

	var p dnsmessage.Parser
	hdr, err := p.Start(fixedResponse)
	require.NoError(t, err)
	assert.True(t, hdr.Response)

	q, err := p.Question()
	require.NoError(t, err)
	assert.Equal(t, "liburtc.local.", q.Name.String())

	require.NoError(t, p.SkipAllQuestions())

	var addrs []string
	for {
		a, err := p.Answer()
		if err == dnsmessage.ErrSectionDone {
			break
		}
		require.NoError(t, err)
		switch res := a.Body.(type) {
		case *dnsmessage.AResource:
			addrs = append(addrs, net.IP(res.A[:]).String())
		case *dnsmessage.AAAAResource:
			addrs = append(addrs, net.IP(res.AAAA[:]).String())
		}
	}
	assert.ElementsMatch(t, []string{"192.168.1.100", "fe80::7285:c2ff:fe07:1f03"}, addrs)
}

func TestHandleMessageCachesEphemeralHostnameAnswer(t *testing.T) {
	c := newBareClient()
	name := "4e3b5e4a-2c1d-4b6a-8d3e-1a2b3c4d5e6f.local"

	b := dnsmessage.NewBuilder(nil, dnsmessage.Header{Response: true})
	b.StartAnswers()
	b.AResource(dnsmessage.ResourceHeader{
		Name:  dnsmessage.MustNewName(name + "."),
		Class: dnsmessage.ClassINET,
		TTL:   120,
	}, dnsmessage.AResource{A: [4]byte{192, 168, 1, 42}})
	msg, err := b.Finish()
	require.NoError(t, err)

	c.HandleMessage(msg, nil)

	r, found := c.cache["4e3b5e4a-2c1d-4b6a-8d3e-1a2b3c4d5e6f"]
	require.True(t, found)
	assert.Equal(t, "192.168.1.42", r.ip.String())
}

func TestIsEphemeralLocalDomain(t *testing.T) {
	assert.True(t, isEphemeralLocalDomain("4e3b5e4a-2c1d-4b6a-8d3e-1a2b3c4d5e6f.local"))
	assert.False(t, isEphemeralLocalDomain("example.com"))
	assert.False(t, isEphemeralLocalDomain("short.local"))
}

func TestRecordUpdateClosesReadyChannelOnce(t *testing.T) {
	r := &record{ready: new(uint32), readyCh: make(chan struct{})}

	r.Update(nil, time.Now().Add(time.Minute))
	select {
	case <-r.readyCh:
	default:
		t.Fatal("readyCh was not closed")
	}

	assert.NotPanics(t, func() {
		r.Update(nil, time.Now().Add(time.Minute))
	})
}

func TestValidateQueryIgnoresResponseMessage(t *testing.T) {
	mask, err := ValidateQuery(fixedResponse, "liburtc")
	require.NoError(t, err)
	assert.Equal(t, uint16(0), mask, "response message carries no question of the kind ValidateQuery looks for once flags are non-zero")
}

func TestValidateQueryRejectsTruncatedInput(t *testing.T) {
	for n := 0; n < len(fixedResponse); n++ {
		assert.NotPanics(t, func() {
			ValidateQuery(fixedResponse[:n], "liburtc")
		})
	}
}

func TestValidateQueryIgnoresNonMatchingName(t *testing.T) {
	query := []byte{
		0x00, 0x00, // id
		0x00, 0x00, // flags
		0x00, 0x01, // questions
		0x00, 0x00,
		0x00, 0x00,
		0x00, 0x00,
		0x07, 'e', 'x', 'a', 'm', 'p', 'l', 'e',
		0x05, 'l', 'o', 'c', 'a', 'l',
		0x00,
		0x00, 0x01, // type A
		0x00, 0x01, // class IN
	}
	mask, err := ValidateQuery(query, "liburtc")
	require.NoError(t, err)
	assert.Equal(t, uint16(0), mask)
}

func TestValidateQueryMatchesAQuestion(t *testing.T) {
	query := []byte{
		0x00, 0x00, // id
		0x00, 0x00, // flags
		0x00, 0x01, // questions
		0x00, 0x00,
		0x00, 0x00,
		0x00, 0x00,
		0x07, 'l', 'i', 'b', 'u', 'r', 't', 'c',
		0x05, 'l', 'o', 'c', 'a', 'l',
		0x00,
		0x00, 0x01, // type A
		0x80, 0x01, // class unicast|IN
	}
	mask, err := ValidateQuery(query, "liburtc")
	require.NoError(t, err)
	assert.Equal(t, MatchA, mask)
}
