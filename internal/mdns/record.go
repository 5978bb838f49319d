package mdns

import (
	"net"
	"sync/atomic"
	"time"

	"golang.org/x/net/dns/dnsmessage"
)

// record is a cached mDNS answer, either one this client is authoritative
// for (ours) or one learned from the network while resolving a query.
type record struct {
	name    dnsmessage.Name
	ip      net.IP
	expires time.Time
	ours    bool

	// ready and readyCh resolve a pending Resolve call once an answer
	// arrives.
	ready   *uint32
	readyCh chan struct{}
}

func (r *record) Type() dnsmessage.Type {
	if r.ip.To4() != nil {
		return dnsmessage.TypeA
	}
	return dnsmessage.TypeAAAA
}

// Update finalizes the IP address for this record after an answer arrives,
// waking any goroutine blocked in Resolve.
func (r *record) Update(ip net.IP, expires time.Time) {
	r.ip = ip
	r.expires = expires
	if r.ready != nil && atomic.AddUint32(r.ready, 1) == 1 && r.readyCh != nil {
		close(r.readyCh)
	}
}
