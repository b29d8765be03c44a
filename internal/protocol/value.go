package protocol

import (
	"encoding/hex"
	"net"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/danmuck/dhcpwire/internal/protocol/wire"
)

// Value is a decoded option payload. The set of implementations is closed.
type Value interface {
	// Type is the tag the value encodes as.
	Type() OptionType
	// Bytes is the option payload, without code or length.
	Bytes() []byte
	String() string

	isValue()
}

// MaxLabelLen is the longest label a domain name can carry on the wire.
// DomainListValue names are raw label bytes joined with "." and are not
// escaped: a label containing "." does not survive a re-encode, and labels
// longer than MaxLabelLen are truncated on encode.
const MaxLabelLen = 63

type (
	StringValue     string
	IPValue         netip.Addr
	IPListValue     []netip.Addr
	I32Value        int32
	U8Value         uint8
	U16Value        uint16
	U32Value        uint32
	HwAddrValue     []byte
	RoutesValue     []Route
	DomainListValue []string
	UnknownValue    []byte
)

// Route is one classless static route entry.
type Route struct {
	Prefix  netip.Prefix
	NextHop netip.Addr
}

func (r Route) String() string {
	return r.Prefix.String() + "->" + r.NextHop.String()
}

func (StringValue) isValue()     {}
func (IPValue) isValue()         {}
func (IPListValue) isValue()     {}
func (I32Value) isValue()        {}
func (U8Value) isValue()         {}
func (U16Value) isValue()        {}
func (U32Value) isValue()        {}
func (HwAddrValue) isValue()     {}
func (RoutesValue) isValue()     {}
func (DomainListValue) isValue() {}
func (UnknownValue) isValue()    {}

func (StringValue) Type() OptionType     { return TypeString }
func (IPValue) Type() OptionType         { return TypeIP }
func (IPListValue) Type() OptionType     { return TypeIPList }
func (I32Value) Type() OptionType        { return TypeI32 }
func (U8Value) Type() OptionType         { return TypeU8 }
func (U16Value) Type() OptionType        { return TypeU16 }
func (U32Value) Type() OptionType        { return TypeU32 }
func (HwAddrValue) Type() OptionType     { return TypeHwAddr }
func (RoutesValue) Type() OptionType     { return TypeRoutes }
func (DomainListValue) Type() OptionType { return TypeDomainList }
func (UnknownValue) Type() OptionType    { return TypeUnknown }

// Decode interprets raw as a payload of type t. Malformed payloads yield
// (nil, false); callers treat the option as absent.
func (t OptionType) Decode(raw []byte) (Value, bool) {
	switch t {
	case TypeString:
		return StringValue(strings.ToValidUTF8(string(raw), "\uFFFD")), true
	case TypeIP:
		if len(raw) != 4 {
			return nil, false
		}
		return IPValue(netip.AddrFrom4([4]byte(raw))), true
	case TypeIPList:
		return decodeIPList(raw)
	case TypeI32:
		return I32Value(int32(uint32(accumulate(raw)))), true
	case TypeU8, TypeBool:
		return U8Value(uint8(accumulate(raw))), true
	case TypeU16, TypeSeconds16:
		return U16Value(uint16(accumulate(raw))), true
	case TypeU32, TypeSeconds32:
		return U32Value(uint32(accumulate(raw))), true
	case TypeHwAddr:
		return HwAddrValue(cloneNonNil(raw)), true
	case TypeRoutes:
		return decodeRoutes(raw)
	case TypeDomainList:
		return decodeDomainList(raw)
	case TypeUnknown:
		return UnknownValue(cloneNonNil(raw)), true
	}
	return nil, false
}

// accumulate folds raw big-endian into an integer, keeping the low bits.
func accumulate(raw []byte) uint64 {
	var acc uint64
	for _, b := range raw {
		acc = acc<<8 | uint64(b)
	}
	return acc
}

func decodeIPList(raw []byte) (Value, bool) {
	if len(raw)%4 != 0 {
		return nil, false
	}
	out := make(IPListValue, 0, len(raw)/4)
	r := wire.NewReader(raw)
	for r.Remaining() > 0 {
		addr, _ := r.IPv4()
		out = append(out, addr)
	}
	return out, true
}

func decodeRoutes(raw []byte) (Value, bool) {
	out := RoutesValue{}
	r := wire.NewReader(raw)
	for r.Remaining() > 0 {
		bits, _ := r.U8()
		addr, ok := r.IPv4()
		if !ok {
			return nil, false
		}
		nextHop, ok := r.IPv4()
		if !ok {
			return nil, false
		}
		prefix := netip.PrefixFrom(addr, int(bits))
		if !prefix.IsValid() {
			return nil, false
		}
		out = append(out, Route{Prefix: prefix, NextHop: nextHop})
	}
	return out, true
}

func decodeDomainList(raw []byte) (Value, bool) {
	names, ok := wire.NewReader(raw).DomainLabels()
	if !ok {
		return nil, false
	}
	out := make(DomainListValue, 0, len(names))
	for _, labels := range names {
		out = append(out, strings.Join(labels, "."))
	}
	return out, true
}

func (v StringValue) Bytes() []byte { return []byte(v) }

func (v IPValue) Bytes() []byte { return ipv4Bytes(netip.Addr(v)) }

func (v IPListValue) Bytes() []byte {
	out := make([]byte, 0, 4*len(v))
	for _, a := range v {
		out = append(out, ipv4Bytes(a)...)
	}
	return out
}

func (v I32Value) Bytes() []byte {
	u := uint32(v)
	return []byte{byte(u >> 24), byte(u >> 16), byte(u >> 8), byte(u)}
}

func (v U8Value) Bytes() []byte { return []byte{byte(v)} }

func (v U16Value) Bytes() []byte { return []byte{byte(v >> 8), byte(v)} }

func (v U32Value) Bytes() []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

func (v HwAddrValue) Bytes() []byte { return cloneNonNil(v) }

func (v RoutesValue) Bytes() []byte {
	out := make([]byte, 0, 9*len(v))
	for _, r := range v {
		out = append(out, byte(r.Prefix.Bits()))
		out = append(out, ipv4Bytes(r.Prefix.Addr())...)
		out = append(out, ipv4Bytes(r.NextHop)...)
	}
	return out
}

func (v DomainListValue) Bytes() []byte {
	out := make([]byte, 0, 16*len(v))
	for _, name := range v {
		out = appendDomainName(out, name)
	}
	return out
}

func (v UnknownValue) Bytes() []byte { return cloneNonNil(v) }

// appendDomainName writes name label by label, each label's bytes
// verbatim, followed by the root label. Empty labels are skipped and a
// label longer than MaxLabelLen is cut to MaxLabelLen bytes.
func appendDomainName(dst []byte, name string) []byte {
	for _, label := range strings.Split(strings.TrimSuffix(name, "."), ".") {
		if label == "" {
			continue
		}
		if len(label) > MaxLabelLen {
			label = label[:MaxLabelLen]
		}
		dst = append(dst, byte(len(label)))
		dst = append(dst, label...)
	}
	return append(dst, 0)
}

func ipv4Bytes(a netip.Addr) []byte {
	a = a.Unmap()
	if !a.Is4() {
		return make([]byte, 4)
	}
	b := a.As4()
	return b[:]
}

func (v StringValue) String() string { return escapeBytes([]byte(v)) }

func (v IPValue) String() string { return netip.Addr(v).String() }

func (v IPListValue) String() string {
	parts := make([]string, len(v))
	for i, a := range v {
		parts[i] = a.String()
	}
	return strings.Join(parts, ",")
}

func (v I32Value) String() string { return strconv.FormatInt(int64(v), 10) }

func (v U8Value) String() string { return strconv.FormatUint(uint64(v), 10) }

func (v U16Value) String() string { return strconv.FormatUint(uint64(v), 10) }

func (v U32Value) String() string { return strconv.FormatUint(uint64(v), 10) }

func (v HwAddrValue) String() string { return net.HardwareAddr(v).String() }

func (v RoutesValue) String() string {
	parts := make([]string, len(v))
	for i, r := range v {
		parts[i] = r.String()
	}
	return strings.Join(parts, ",")
}

func (v DomainListValue) String() string { return strings.Join(v, ",") }

func (v UnknownValue) String() string { return hex.EncodeToString(v) }

// Addr returns v as a netip.Addr.
func (v IPValue) Addr() netip.Addr { return netip.Addr(v) }

// Seconds interprets v as a duration option.
func (v U16Value) Seconds() time.Duration { return time.Duration(v) * time.Second }

// Seconds interprets v as a duration option.
func (v U32Value) Seconds() time.Duration { return time.Duration(v) * time.Second }

// escapeBytes renders b as printable ASCII, writing any other byte as \xHH.
func escapeBytes(b []byte) string {
	const digits = "0123456789abcdef"
	var sb strings.Builder
	sb.Grow(len(b))
	for _, c := range b {
		if c >= ' ' && c <= '~' {
			sb.WriteByte(c)
			continue
		}
		sb.WriteString(`\x`)
		sb.WriteByte(digits[c>>4])
		sb.WriteByte(digits[c&0x0f])
	}
	return sb.String()
}

func cloneNonNil(b []byte) []byte {
	return append(make([]byte, 0, len(b)), b...)
}
