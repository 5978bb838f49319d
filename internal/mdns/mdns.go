// Package mdns implements the responder and resolver side of the
// mDNS-ICE-candidates ephemeral hostname scheme
// (https://tools.ietf.org/html/draft-ietf-rtcweb-mdns-ice-candidates-04),
// scoped to exactly the wire constants a WebRTC peer connection needs:
// group 224.0.0.251:5353, record types A and AAAA.
package mdns

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/dns/dnsmessage"
	"golang.org/x/net/ipv4"
)

const (
	// High bit of the CLASS field in questions and resource records,
	// repurposed by mDNS as the cache-flush / unicast-response bit.
	classMask = 1 << 15

	typeA    = dnsmessage.TypeA
	typeAAAA = dnsmessage.TypeAAAA

	// Query interval when waiting for a name to resolve; doubled on
	// each retry.
	initialQueryInterval = 100 * time.Millisecond

	// Cache size above which expired records are pruned.
	initialPruneSize = 8
)

// Group is the mDNS multicast group and port, per RFC 6762.
var Group = &net.UDPAddr{IP: net.ParseIP("224.0.0.251"), Port: 5353}

// Client owns one UDP socket bound to the mDNS multicast group, on behalf
// of a single peer connection. It is not a package-level singleton: each
// peer connection constructs and owns its own Client, matching the
// per-connection socket ownership the event loop requires.
type Client struct {
	conn *net.UDPConn

	mu      sync.Mutex
	stopped bool
	cache   map[string]*record

	// When the cache grows past this size, expired entries are pruned.
	pruneSize int
}

// NewClient binds a UDP socket to the mDNS multicast group. Multicast
// loopback is left disabled: a peer connection never needs to see its own
// announcements echoed back.
func NewClient() (*Client, error) {
	conn, err := net.ListenMulticastUDP("udp4", nil, Group)
	if err != nil {
		return nil, err
	}

	pconn := ipv4.NewPacketConn(conn)
	if err := pconn.SetMulticastLoopback(false); err != nil {
		conn.Close()
		return nil, err
	}

	return &Client{
		conn:      conn,
		cache:     make(map[string]*record),
		pruneSize: initialPruneSize,
	}, nil
}

// Conn returns the underlying socket, for the event loop's select/poll set.
// The event loop reads datagrams from it directly and hands them to
// HandleMessage.
func (c *Client) Conn() *net.UDPConn {
	return c.conn
}

// Close releases the multicast membership and closes the socket.
func (c *Client) Close() error {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()
	return c.conn.Close()
}

// HandleMessage processes one datagram read from Conn(). It is meant to be
// called from the event loop goroutine, never concurrently with itself.
func (c *Client) HandleMessage(msg []byte, src *net.UDPAddr) {
	var p dnsmessage.Parser
	hdr, err := p.Start(msg)
	if err != nil {
		return
	}

	if isValidQueryHeader(hdr) {
		for {
			q, err := p.Question()
			if err == dnsmessage.ErrSectionDone {
				break
			}
			if err != nil {
				break
			}
			c.handleQuestion(&q, src)
		}
	} else {
		// Not shaped like a query (e.g. a response carrying answers):
		// skip the question section and fall through to answers.
		p.SkipAllQuestions()
	}

	for {
		a, err := p.Answer()
		if err == dnsmessage.ErrSectionDone {
			break
		}
		if err != nil {
			break
		}
		c.handleAnswer(&a)
	}
}

func (c *Client) handleQuestion(q *dnsmessage.Question, src *net.UDPAddr) {
	name := strings.TrimSuffix(q.Name.String(), ".")
	if !isEphemeralLocalDomain(name) {
		return
	}
	hostname := name[:len(name)-len(".local")]

	c.mu.Lock()
	r, found := c.cache[hostname]
	c.mu.Unlock()
	if !found || !r.ours || q.Type != r.Type() || !time.Now().Before(r.expires) {
		return
	}

	dst := Group
	if q.Class&classMask != 0 {
		// QU bit set: the querier asked for a unicast response.
		dst = src
	}
	c.sendResponse(r, dst)
}

func (c *Client) handleAnswer(a *dnsmessage.Resource) {
	if a.Header.Class&^classMask != dnsmessage.ClassINET {
		return
	}

	name := strings.TrimSuffix(a.Header.Name.String(), ".")
	if !isEphemeralLocalDomain(name) {
		return
	}

	var ip net.IP
	switch res := a.Body.(type) {
	case *dnsmessage.AResource:
		ip = append(ip, res.A[:]...)
	case *dnsmessage.AAAAResource:
		ip = append(ip, res.AAAA[:]...)
	default:
		return
	}

	hostname := name[:len(name)-len(".local")]
	expires := time.Now().Add(time.Duration(a.Header.TTL) * time.Second)

	c.mu.Lock()
	if r, found := c.cache[hostname]; found {
		r.Update(ip, expires)
	} else {
		c.cache[hostname] = &record{
			name:    a.Header.Name,
			ip:      ip,
			expires: expires,
		}
	}
	c.mu.Unlock()

	c.maybePruneCache()
}

func (c *Client) sendResponse(r *record, dst *net.UDPAddr) {
	b := dnsmessage.NewBuilder(nil, dnsmessage.Header{
		Response:      true,
		Authoritative: true,
		RCode:         dnsmessage.RCodeSuccess,
	})
	b.EnableCompression()
	b.StartAnswers()

	resHdr := dnsmessage.ResourceHeader{
		Name:  r.name,
		Class: dnsmessage.ClassINET | classMask,
		TTL:   120,
	}
	if ip4 := r.ip.To4(); ip4 != nil {
		var res dnsmessage.AResource
		copy(res.A[:], ip4)
		b.AResource(resHdr, res)
	} else {
		// Recognized but never emitted, per the mDNS-ICE ephemeral
		// hostname dialect this client speaks.
		return
	}

	msg, err := b.Finish()
	if err != nil {
		return
	}
	c.conn.WriteTo(msg, dst)
}

func (c *Client) sendQuery(r *record) error {
	b := dnsmessage.NewBuilder(nil, dnsmessage.Header{})
	b.EnableCompression()
	b.StartQuestions()
	b.Question(dnsmessage.Question{
		Name:  r.name,
		Type:  dnsmessage.TypeALL,
		Class: dnsmessage.ClassINET | classMask,
	})

	msg, err := b.Finish()
	if err != nil {
		return err
	}
	_, err = c.conn.WriteTo(msg, Group)
	return err
}

// Announce advertises a newly generated ephemeral hostname by sending an
// unsolicited response to the multicast group, and records it so future
// queries for the name are answered authoritatively.
func (c *Client) Announce(name string, ip net.IP, ttl time.Duration) error {
	if !isEphemeralLocalDomain(name) {
		return fmt.Errorf("mdns: invalid ephemeral domain: %s", name)
	}
	hostname := name[:len(name)-len(".local")]

	r := &record{
		name:    dnsmessage.MustNewName(name + "."),
		ip:      ip,
		expires: time.Now().Add(ttl),
		ours:    true,
	}

	c.mu.Lock()
	c.cache[hostname] = r
	c.mu.Unlock()
	c.maybePruneCache()

	c.sendResponse(r, Group)
	return nil
}

// Resolve blocks until name resolves to an IP address or ctx is done. It may
// be called concurrently with the event loop goroutine that feeds answers
// into HandleMessage; it does not itself read from the socket.
func (c *Client) Resolve(ctx context.Context, name string) (net.IP, error) {
	if !isEphemeralLocalDomain(name) {
		return nil, fmt.Errorf("mdns: invalid ephemeral domain: %s", name)
	}
	hostname := name[:len(name)-len(".local")]

	c.mu.Lock()
	r, found := c.cache[hostname]
	if !found {
		r = &record{
			name:    dnsmessage.MustNewName(name + "."),
			expires: time.Now().Add(2 * time.Minute),
			ready:   new(uint32),
			readyCh: make(chan struct{}),
		}
		c.cache[hostname] = r
	}
	c.mu.Unlock()
	c.maybePruneCache()

	if r.ip != nil {
		return r.ip, nil
	}
	return c.waitUntilResolved(ctx, r)
}

func (c *Client) waitUntilResolved(ctx context.Context, r *record) (net.IP, error) {
	wait := initialQueryInterval
	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		if err := c.sendQuery(r); err != nil {
			return nil, err
		}

		select {
		case <-timer.C:
			wait *= 2
			timer.Reset(wait)
			continue
		case <-ctx.Done():
			return nil, fmt.Errorf("mdns: resolving %s: %w", r.name, ctx.Err())
		case <-r.readyCh:
			return r.ip, nil
		}
	}
}

func (c *Client) maybePruneCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.cache) <= c.pruneSize {
		return
	}

	now := time.Now()
	for key, r := range c.cache {
		if now.After(r.expires) {
			delete(c.cache, key)
		}
	}
	c.pruneSize = len(c.cache) + initialPruneSize
}

// isEphemeralLocalDomain reports whether host looks like a `<uuid>.local`
// ephemeral mDNS hostname. Per the draft, an exact UUID shape is expected;
// this is a rough length/suffix check, matching the scope of what this
// client needs to decide to engage with a name at all.
func isEphemeralLocalDomain(host string) bool {
	const suffix = ".local"
	return strings.HasSuffix(host, suffix) &&
		strings.Count(host, ".") == 1 &&
		len(host) >= 36+len(suffix)
}

// LocalIPv4 returns the IPv4 address of the first non-loopback interface,
// the address the responder advertises in A records.
func LocalIPv4() (net.IP, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, err
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return ip4, nil
		}
	}
	return nil, fmt.Errorf("mdns: no non-loopback IPv4 interface found")
}
