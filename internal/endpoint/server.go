package endpoint

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/danmuck/dhcpwire/internal/observability"
	"github.com/danmuck/dhcpwire/internal/protocol"
	"github.com/danmuck/dhcpwire/internal/protocol/schema"
)

const unknownLabel = "unknown"

// Server reads DHCP datagrams from one PacketConn.
type Server struct {
	cfg     Config
	handler Handler
	logger  zerolog.Logger
	ready   atomic.Bool
}

func NewServer(cfg Config, h Handler, logger zerolog.Logger) (*Server, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	if h == nil {
		return nil, fmt.Errorf("%w: nil handler", ErrInvalidConfig)
	}
	return &Server{
		cfg:     cfg,
		handler: h,
		logger:  logger.With().Str("component", "endpoint").Logger(),
	}, nil
}

// Ready reports whether the read loop is running.
func (s *Server) Ready() bool {
	return s.ready.Load()
}

// ListenAndServe binds cfg.Addr with SO_REUSEADDR and SO_BROADCAST and
// serves until ctx ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	lc := net.ListenConfig{Control: controlSockopts}
	conn, err := lc.ListenPacket(ctx, "udp4", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("endpoint: listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, conn)
}

// Serve runs the read loop on conn and closes it on return. It returns nil
// when ctx ends or conn is closed.
func (s *Server) Serve(ctx context.Context, conn net.PacketConn) error {
	defer conn.Close()
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()

	s.ready.Store(true)
	defer s.ready.Store(false)
	s.logger.Info().Str("addr", conn.LocalAddr().String()).Msg("endpoint.Serve listening")

	buf := make([]byte, s.cfg.MaxPacketSize)
	retry := newRetrier(s.cfg.Backoff)
	for {
		_ = conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				retry.reset()
				continue
			}
			delay, werr := retry.wait(ctx)
			s.logger.Warn().Err(err).Int("attempt", retry.attempt).Dur("delay", delay).Msg("endpoint.Serve read")
			if werr != nil {
				return nil
			}
			continue
		}
		retry.reset()
		datagram := make([]byte, n)
		copy(datagram, buf[:n])
		s.handle(ctx, conn, datagram, addr)
	}
}

func (s *Server) handle(ctx context.Context, conn net.PacketConn, b []byte, addr net.Addr) {
	start := time.Now()
	src := addrPort(addr)

	p, err := protocol.Parse(b)
	if err != nil {
		variant := protocol.VariantName(err)
		observability.RecordCodecPacket(observability.DirectionDecode, variant)
		observability.ObserveHandle(unknownLabel, false, time.Since(start))
		s.logger.Warn().
			Err(err).
			Str("variant", variant).
			Str("src", src.String()).
			Int("len", len(b)).
			Msg("endpoint.handle dropped malformed datagram")
		return
	}
	observability.RecordCodecPacket(observability.DirectionDecode, observability.ResultOK)
	mtLabel := messageTypeLabel(p)

	if s.cfg.Validate {
		if err := schema.Validate(p); err != nil {
			reason := unknownLabel
			var ve schema.ValidationError
			if errors.As(err, &ve) {
				reason = ve.Reason
			}
			observability.RecordSchemaRejection(reason)
			observability.ObserveHandle(mtLabel, false, time.Since(start))
			s.logger.Debug().Err(err).Str("src", src.String()).Uint32("xid", p.XID).Msg("endpoint.handle rejected")
			return
		}
	}

	reply, err := s.handler.Handle(ctx, &Request{Packet: p, Src: src, Received: start})
	if err != nil {
		observability.ObserveHandle(mtLabel, false, time.Since(start))
		s.logger.Warn().Err(err).Str("src", src.String()).Uint32("xid", p.XID).Msg("endpoint.handle handler")
		return
	}
	if reply == nil {
		observability.ObserveHandle(mtLabel, false, time.Since(start))
		return
	}

	out := reply.Serialise()
	observability.RecordCodecPacket(observability.DirectionEncode, observability.ResultOK)
	dst := ReplyAddr(p, reply, src)
	_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	if _, err := conn.WriteTo(out, net.UDPAddrFromAddrPort(dst)); err != nil {
		observability.ObserveHandle(mtLabel, false, time.Since(start))
		s.logger.Warn().Err(err).Str("dst", dst.String()).Uint32("xid", p.XID).Msg("endpoint.handle write reply")
		return
	}
	observability.ObserveHandle(mtLabel, true, time.Since(start))
	s.logger.Debug().
		Str("dst", dst.String()).
		Uint32("xid", p.XID).
		Int("len", len(out)).
		Msg("endpoint.handle replied")
}

func messageTypeLabel(p *protocol.Packet) string {
	mt, ok := p.Options.MessageType()
	if !ok {
		return unknownLabel
	}
	return mt.String()
}

func addrPort(addr net.Addr) netip.AddrPort {
	ua, ok := addr.(*net.UDPAddr)
	if !ok {
		return netip.AddrPort{}
	}
	ap := ua.AddrPort()
	return netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port())
}
