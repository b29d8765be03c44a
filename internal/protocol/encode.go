package protocol

import (
	"encoding/binary"
	"io"

	"github.com/danmuck/dhcpwire/internal/protocol/tlv"
)

// Serialise encodes p in wire order. CHAddr, SName and File are zero padded
// to their slots and must fit them; longer content is truncated.
func (p *Packet) Serialise() []byte {
	opts := tlv.EncodeFields(p.Options.fields())
	buf := make([]byte, 0, HeaderSize+magicSize+len(opts))

	buf = append(buf, byte(p.Op), byte(p.HType), p.HLen, p.Hops)
	buf = binary.BigEndian.AppendUint32(buf, p.XID)
	buf = binary.BigEndian.AppendUint16(buf, p.Secs)
	buf = binary.BigEndian.AppendUint16(buf, p.Flags)
	buf = append(buf, ipv4Bytes(p.CIAddr)...)
	buf = append(buf, ipv4Bytes(p.YIAddr)...)
	buf = append(buf, ipv4Bytes(p.SIAddr)...)
	buf = append(buf, ipv4Bytes(p.GIAddr)...)
	buf = appendFixed(buf, p.CHAddr, CHAddrLen)
	buf = appendFixed(buf, p.SName, SNameLen)
	buf = appendFixed(buf, p.File, FileLen)
	buf = binary.BigEndian.AppendUint32(buf, Magic)
	return append(buf, opts...)
}

// Encode writes the serialised form of p to w.
func Encode(w io.Writer, p *Packet) error {
	if p == nil {
		return ErrInvalidPacket
	}
	_, err := w.Write(p.Serialise())
	return err
}

func appendFixed(dst, v []byte, size int) []byte {
	if len(v) > size {
		v = v[:size]
	}
	dst = append(dst, v...)
	for i := len(v); i < size; i++ {
		dst = append(dst, 0)
	}
	return dst
}
