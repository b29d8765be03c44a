// Package tlv implements the DHCP option stream: one byte code, one byte
// length, payload, with pad (0) and end (255) markers.
package tlv

import (
	"errors"
	"sort"

	"github.com/danmuck/dhcpwire/internal/protocol/wire"
)

const (
	CodePad uint8 = 0
	CodeEnd uint8 = 255

	// MaxValueLen is the largest payload one entry can carry.
	MaxValueLen = 0xff
)

var (
	ErrShortFieldHeader = errors.New("tlv: short field header")
	ErrShortFieldValue  = errors.New("tlv: short field value")
	ErrMissingEnd       = errors.New("tlv: missing end marker")
)

// Field is one option code with its payload.
type Field struct {
	Code  uint8
	Value []byte
}

// DecodeOptions consumes the option stream from r up to and including the
// end marker. Payloads of repeated codes are concatenated in arrival order.
func DecodeOptions(r *wire.Reader) (map[uint8][]byte, error) {
	out := make(map[uint8][]byte)
	for {
		code, ok := r.U8()
		if !ok {
			return nil, ErrMissingEnd
		}
		switch code {
		case CodePad:
			continue
		case CodeEnd:
			return out, nil
		}
		l, ok := r.U8()
		if !ok {
			return nil, ErrShortFieldHeader
		}
		val, ok := r.Bytes(int(l))
		if !ok {
			return nil, ErrShortFieldValue
		}
		if _, seen := out[code]; !seen {
			out[code] = make([]byte, 0, len(val))
		}
		out[code] = append(out[code], val...)
	}
}

// EncodeField appends f to dst. Values longer than MaxValueLen are split
// across consecutive entries with the same code.
func EncodeField(dst []byte, f Field) []byte {
	v := f.Value
	for {
		n := len(v)
		if n > MaxValueLen {
			n = MaxValueLen
		}
		dst = append(dst, f.Code, byte(n))
		dst = append(dst, v[:n]...)
		v = v[n:]
		if len(v) == 0 {
			return dst
		}
	}
}

// EncodeFields writes fields in ascending code order and terminates the
// stream with the end marker. Pad and end codes are never written as data.
func EncodeFields(fields []Field) []byte {
	sorted := make([]Field, 0, len(fields))
	size := 1
	for _, f := range fields {
		if f.Code == CodePad || f.Code == CodeEnd {
			continue
		}
		sorted = append(sorted, f)
		size += 2*(len(f.Value)/MaxValueLen+1) + len(f.Value)
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Code < sorted[j].Code })

	out := make([]byte, 0, size)
	for _, f := range sorted {
		out = EncodeField(out, f)
	}
	return append(out, CodeEnd)
}
