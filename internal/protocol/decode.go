package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"net/netip"

	"github.com/danmuck/dhcpwire/internal/protocol/tlv"
	"github.com/danmuck/dhcpwire/internal/protocol/wire"
)

// Parse decodes one DHCPv4 message. It fails with ErrUnexpectedEndOfInput
// on truncated input, ErrInvalidPacket if hlen exceeds the hardware address
// slot and ErrWrongMagic if the options cookie does not match.
func Parse(b []byte) (*Packet, error) {
	r := wire.NewReader(b)
	p, err := parseHeader(r)
	if err != nil {
		return nil, err
	}

	magic, ok := r.BE32()
	if !ok {
		return nil, ErrUnexpectedEndOfInput
	}
	if magic != Magic {
		return nil, ErrWrongMagic
	}

	raw, err := tlv.DecodeOptions(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnexpectedEndOfInput, err)
	}
	p.Options = optionsFromWire(raw)
	return p, nil
}

func parseHeader(r *wire.Reader) (*Packet, error) {
	fixed, ok := r.Bytes(12)
	if !ok {
		return nil, ErrUnexpectedEndOfInput
	}
	p := &Packet{
		Op:    Op(fixed[0]),
		HType: HwType(fixed[1]),
		HLen:  fixed[2],
		Hops:  fixed[3],
		XID:   binary.BigEndian.Uint32(fixed[4:8]),
		Secs:  binary.BigEndian.Uint16(fixed[8:10]),
		Flags: binary.BigEndian.Uint16(fixed[10:12]),
	}

	for _, dst := range []*netip.Addr{&p.CIAddr, &p.YIAddr, &p.SIAddr, &p.GIAddr} {
		a, ok := r.IPv4()
		if !ok {
			return nil, ErrUnexpectedEndOfInput
		}
		*dst = a
	}

	chaddr, ok := r.Bytes(CHAddrLen)
	if !ok {
		return nil, ErrUnexpectedEndOfInput
	}
	if int(p.HLen) > CHAddrLen {
		return nil, ErrInvalidPacket
	}
	p.CHAddr = chaddr[:p.HLen]

	sname, ok := r.Bytes(SNameLen)
	if !ok {
		return nil, ErrUnexpectedEndOfInput
	}
	p.SName = nullTerminated(sname)

	file, ok := r.Bytes(FileLen)
	if !ok {
		return nil, ErrUnexpectedEndOfInput
	}
	p.File = nullTerminated(file)
	return p, nil
}

// nullTerminated keeps the bytes before the first zero.
func nullTerminated(b []byte) []byte {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return b[:i]
	}
	return b
}
