// Package wire provides the bounds-checked sequential reader the packet
// codec pulls primitives from.
//
// Every primitive returns ok=false on insufficient input and leaves the
// cursor where it was. Callers never observe partial data.
package wire

import (
	"encoding/binary"
	"net/netip"

	"github.com/miekg/dns"
)

// Reader is a cursor over an immutable byte slice.
type Reader struct {
	buf []byte
	off int
}

func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int {
	return r.off
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.off
}

func (r *Reader) U8() (uint8, bool) {
	if r.Remaining() < 1 {
		return 0, false
	}
	v := r.buf[r.off]
	r.off++
	return v, true
}

func (r *Reader) BE16() (uint16, bool) {
	if r.Remaining() < 2 {
		return 0, false
	}
	v := binary.BigEndian.Uint16(r.buf[r.off : r.off+2])
	r.off += 2
	return v, true
}

func (r *Reader) BE32() (uint32, bool) {
	if r.Remaining() < 4 {
		return 0, false
	}
	v := binary.BigEndian.Uint32(r.buf[r.off : r.off+4])
	r.off += 4
	return v, true
}

// Bytes returns an owned copy of the next n bytes.
func (r *Reader) Bytes(n int) ([]byte, bool) {
	if n < 0 || r.Remaining() < n {
		return nil, false
	}
	out := make([]byte, n)
	copy(out, r.buf[r.off:r.off+n])
	r.off += n
	return out, true
}

func (r *Reader) IPv4() (netip.Addr, bool) {
	if r.Remaining() < 4 {
		return netip.Addr{}, false
	}
	var a [4]byte
	copy(a[:], r.buf[r.off:r.off+4])
	r.off += 4
	return netip.AddrFrom4(a), true
}

// DomainLabels consumes the rest of the input as consecutive wire-format
// domain names and returns the labels of each as raw bytes, unescaped.
// Compression pointers are resolved relative to the start of the reader's
// buffer. Empty input yields an empty list.
func (r *Reader) DomainLabels() ([][]string, bool) {
	out := [][]string{}
	off := r.off
	for off < len(r.buf) {
		_, next, err := dns.UnpackDomainName(r.buf, off)
		if err != nil || next <= off {
			return nil, false
		}
		labels, ok := rawLabels(r.buf, off)
		if !ok {
			return nil, false
		}
		out = append(out, labels)
		off = next
	}
	r.off = off
	return out, true
}

// maxPointerHops bounds pointer chasing; a name is at most 255 octets.
const maxPointerHops = 127

// rawLabels walks the name at off, following compression pointers, and
// returns each label's bytes verbatim.
func rawLabels(buf []byte, off int) ([]string, bool) {
	labels := []string{}
	for hops := 0; off < len(buf); {
		c := int(buf[off])
		switch c & 0xc0 {
		case 0x00:
			if c == 0 {
				return labels, true
			}
			if off+1+c > len(buf) {
				return nil, false
			}
			labels = append(labels, string(buf[off+1:off+1+c]))
			off += 1 + c
		case 0xc0:
			if off+1 >= len(buf) || hops >= maxPointerHops {
				return nil, false
			}
			off = (c&0x3f)<<8 | int(buf[off+1])
			hops++
		default:
			return nil, false
		}
	}
	return nil, false
}
