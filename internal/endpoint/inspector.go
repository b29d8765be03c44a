package endpoint

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/danmuck/dhcpwire/internal/observability"
	"github.com/danmuck/dhcpwire/internal/protocol"
)

// EchoInspector logs every request with its decoded options and never
// replies. It is the handler behind "dhcpctl listen".
type EchoInspector struct {
	Logger zerolog.Logger
}

func (i EchoInspector) Handle(_ context.Context, req *Request) (*protocol.Packet, error) {
	p := req.Packet
	opts := zerolog.Dict()
	for _, code := range p.Options.Codes() {
		v, ok := p.Options.Get(code)
		observability.RecordOptionDecode(code.String(), ok)
		if !ok {
			raw, _ := p.Options.Raw(code)
			opts.Str(code.String(), "<malformed "+hex.EncodeToString(raw)+">")
			continue
		}
		opts.Str(code.String(), v.String())
	}

	ev := i.Logger.Info().
		Str("src", req.Src.String()).
		Str("op", p.Op.String()).
		Str("xid", fmt.Sprintf("%#08x", p.XID)).
		Str("chaddr", protocol.HwAddrValue(p.CHAddr).String())
	if mt, ok := p.Options.MessageType(); ok {
		ev = ev.Str("message_type", mt.String())
	}
	ev.Dict("options", opts).Msg("endpoint.inspect")
	return nil, nil
}
