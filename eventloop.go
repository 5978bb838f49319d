package urtc

import (
	"net"
	"sync"

	"github.com/mauka-labs/urtc/internal/demux"
	"github.com/mauka-labs/urtc/internal/logging"
)

// mediaDatagramBufferSize bounds a single read from the media socket.
// Larger datagrams are truncated, matching the multiplex wait's contract.
const mediaDatagramBufferSize = 2 * 1024

// eventLoop is the single worker a PeerConnection runs to multiplex its
// media socket and its mDNS socket. There is exactly one eventLoop per
// PeerConnection; it owns both sockets' reads for the connection's
// lifetime. Suspension happens only inside the two blocking reads, raced
// against each other via goroutines and an abort channel rather than a
// single poll call, since the standard library exposes no portable
// multi-fd wait over *net.UDPConn.
type eventLoop struct {
	pc  *PeerConnection
	log *logging.Logger

	abort     chan struct{}
	abortOnce sync.Once
	done      chan struct{}
}

func newEventLoop(pc *PeerConnection) *eventLoop {
	return &eventLoop{
		pc:    pc,
		log:   logging.DefaultLogger.WithTag("eventloop"),
		abort: make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// run drives the event loop until abort is signaled. It is meant to run on
// its own goroutine; PeerConnection.Close joins it via <-done.
func (l *eventLoop) run() {
	defer close(l.done)

	mediaDatagrams := make(chan udpDatagram, 1)
	mdnsDatagrams := make(chan udpDatagram, 1)

	go readLoop(l.pc.mediaConn, mediaDatagrams, l.abort, l.log)
	go readLoop(l.pc.mdnsClient.Conn(), mdnsDatagrams, l.abort, l.log)

	for {
		select {
		case <-l.abort:
			return

		case dg, ok := <-mediaDatagrams:
			if !ok {
				return
			}
			if err := demux.Dispatch(l.pc, dg.buf, dg.src); err != nil {
				l.log.Debug("dispatch: %v", err)
			}

		case dg, ok := <-mdnsDatagrams:
			if !ok {
				return
			}
			l.pc.mdnsClient.HandleMessage(dg.buf, dg.src)
		}
	}
}

// stop signals the worker to exit. It is safe to call more than once.
func (l *eventLoop) stop() {
	l.abortOnce.Do(func() {
		close(l.abort)
	})
}

// join blocks until the worker has exited.
func (l *eventLoop) join() {
	<-l.done
}

type udpDatagram struct {
	buf []byte
	src *net.UDPAddr
}

// readLoop repeatedly reads one datagram from conn and forwards it on out,
// until conn is closed or abort fires. It owns its own buffer per
// iteration so forwarded datagrams remain valid after the next read.
func readLoop(conn *net.UDPConn, out chan<- udpDatagram, abort <-chan struct{}, log *logging.Logger) {
	defer close(out)

	for {
		buf := make([]byte, mediaDatagramBufferSize)
		n, src, err := conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-abort:
			default:
				log.Debug("read: %v", err)
			}
			return
		}

		select {
		case <-abort:
			return
		case out <- udpDatagram{buf: buf[:n], src: src}:
		}
	}
}
