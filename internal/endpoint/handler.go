package endpoint

import (
	"context"
	"net/netip"
	"time"

	"github.com/danmuck/dhcpwire/internal/protocol"
)

// Request is one decoded datagram.
type Request struct {
	Packet   *protocol.Packet
	Src      netip.AddrPort
	Received time.Time
}

// Handler answers a request. A nil packet with a nil error means no reply.
type Handler interface {
	Handle(ctx context.Context, req *Request) (*protocol.Packet, error)
}

type HandlerFunc func(ctx context.Context, req *Request) (*protocol.Packet, error)

func (f HandlerFunc) Handle(ctx context.Context, req *Request) (*protocol.Packet, error) {
	return f(ctx, req)
}

var broadcastAddr = netip.AddrFrom4([4]byte{255, 255, 255, 255})

// ReplyAddr picks the destination for reply following RFC 2131 section 4.1:
// relayed requests go back to the relay on the server port, clients with an
// address get unicast, and everything else is broadcast unless the client
// already has a usable source address.
func ReplyAddr(req, reply *protocol.Packet, src netip.AddrPort) netip.AddrPort {
	if req.IsRelayed() {
		return netip.AddrPortFrom(req.GIAddr, ServerPort)
	}
	if mt, ok := reply.Options.MessageType(); ok && mt == protocol.MessageNak {
		return netip.AddrPortFrom(broadcastAddr, ClientPort)
	}
	if req.CIAddr.IsValid() && !req.CIAddr.IsUnspecified() {
		return netip.AddrPortFrom(req.CIAddr, ClientPort)
	}
	if req.IsBroadcast() || !src.IsValid() || src.Addr().IsUnspecified() {
		return netip.AddrPortFrom(broadcastAddr, ClientPort)
	}
	return src
}
