package protocol

import (
	"bytes"
	"net/netip"
	"sort"

	"github.com/danmuck/dhcpwire/internal/protocol/tlv"
)

// Options holds raw option payloads keyed by code. Typed accessors decode on
// demand. Every setter replaces the previous payload for its code.
//
// The zero value is an empty, read-only container; in-place setters
// allocate on first use.
type Options struct {
	raw map[OptionCode][]byte
}

func NewOptions() Options {
	return Options{raw: make(map[OptionCode][]byte)}
}

// Len returns the number of distinct option codes present.
func (o Options) Len() int { return len(o.raw) }

// Has reports whether code is present, even with an empty payload.
func (o Options) Has(code OptionCode) bool {
	_, ok := o.raw[code]
	return ok
}

// Raw returns a copy of the payload for code.
func (o Options) Raw(code OptionCode) ([]byte, bool) {
	v, ok := o.raw[code]
	if !ok {
		return nil, false
	}
	return cloneNonNil(v), true
}

// Get decodes the payload for code with its registry type. Unlisted codes
// decode as UnknownValue. Absent or malformed payloads yield (nil, false).
func (o Options) Get(code OptionCode) (Value, bool) {
	v, ok := o.raw[code]
	if !ok {
		return nil, false
	}
	typ, _ := code.Type()
	return typ.Decode(v)
}

func (o Options) getAddr(code OptionCode) (netip.Addr, bool) {
	v, ok := o.raw[code]
	if !ok {
		return netip.Addr{}, false
	}
	decoded, ok := TypeIP.Decode(v)
	if !ok {
		return netip.Addr{}, false
	}
	return decoded.(IPValue).Addr(), true
}

func (o Options) ServerID() (netip.Addr, bool) { return o.getAddr(OptionServerID) }

func (o Options) RequestedAddr() (netip.Addr, bool) { return o.getAddr(OptionAddressRequest) }

// ClientID returns the client identifier option. Packet.ClientID falls back
// to the hardware address.
func (o Options) ClientID() ([]byte, bool) {
	return o.Raw(OptionClientID)
}

// MessageType requires a payload of exactly one byte.
func (o Options) MessageType() (MessageType, bool) {
	v, ok := o.raw[OptionMessageType]
	if !ok || len(v) != 1 {
		return 0, false
	}
	return MessageType(v[0]), true
}

func (o Options) Hostname() (string, bool) {
	v, ok := o.raw[OptionHostname]
	if !ok {
		return "", false
	}
	s, _ := TypeString.Decode(v)
	return string(s.(StringValue)), true
}

// ParamList returns the parameter request list in client order.
func (o Options) ParamList() ([]OptionCode, bool) {
	v, ok := o.raw[OptionParamList]
	if !ok {
		return nil, false
	}
	out := make([]OptionCode, len(v))
	for i, c := range v {
		out[i] = OptionCode(c)
	}
	return out, true
}

// Codes returns the present codes in ascending order.
func (o Options) Codes() []OptionCode {
	out := make([]OptionCode, 0, len(o.raw))
	for code := range o.raw {
		out = append(out, code)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (o Options) Equal(other Options) bool {
	if len(o.raw) != len(other.raw) {
		return false
	}
	for code, v := range o.raw {
		w, ok := other.raw[code]
		if !ok || !bytes.Equal(v, w) {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of o.
func (o Options) Clone() Options {
	out := Options{raw: make(map[OptionCode][]byte, len(o.raw))}
	for code, v := range o.raw {
		out.raw[code] = cloneNonNil(v)
	}
	return out
}

// WithRaw returns a copy of o with code set to value.
func (o Options) WithRaw(code OptionCode, value []byte) Options {
	out := o.Clone()
	out.SetRaw(code, value)
	return out
}

// WithValue returns a copy of o with code set to the encoding of v.
func (o Options) WithValue(code OptionCode, v Value) Options {
	return o.WithRaw(code, v.Bytes())
}

// WithMaybeValue is WithValue for a non-nil v and a plain copy otherwise.
func (o Options) WithMaybeValue(code OptionCode, v Value) Options {
	if v == nil {
		return o.Clone()
	}
	return o.WithValue(code, v)
}

func (o Options) WithMessageType(m MessageType) Options {
	return o.WithRaw(OptionMessageType, []byte{byte(m)})
}

// Without returns a copy of o with code removed.
func (o Options) Without(code OptionCode) Options {
	out := o.Clone()
	delete(out.raw, code)
	return out
}

// SetRaw replaces the payload for code in place. Pad and end are not
// options and are ignored.
func (o *Options) SetRaw(code OptionCode, value []byte) {
	if code == OptionPad || code == OptionEnd {
		return
	}
	if o.raw == nil {
		o.raw = make(map[OptionCode][]byte)
	}
	o.raw[code] = cloneNonNil(value)
}

func (o *Options) SetValue(code OptionCode, v Value) {
	o.SetRaw(code, v.Bytes())
}

// SetMaybeValue is SetValue for a non-nil v and a no-op otherwise.
func (o *Options) SetMaybeValue(code OptionCode, v Value) {
	if v != nil {
		o.SetValue(code, v)
	}
}

func (o *Options) SetMessageType(m MessageType) {
	o.SetRaw(OptionMessageType, []byte{byte(m)})
}

func (o *Options) Delete(code OptionCode) {
	delete(o.raw, code)
}

func (o Options) fields() []tlv.Field {
	out := make([]tlv.Field, 0, len(o.raw))
	for code, v := range o.raw {
		out = append(out, tlv.Field{Code: uint8(code), Value: v})
	}
	return out
}

func optionsFromWire(m map[uint8][]byte) Options {
	out := Options{raw: make(map[OptionCode][]byte, len(m))}
	for code, v := range m {
		out.raw[OptionCode(code)] = v
	}
	return out
}
