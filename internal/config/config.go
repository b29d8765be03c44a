// Package config loads packet templates: TOML files describing one DHCPv4
// packet by header field and option name.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/danmuck/dhcpwire/internal/protocol"
)

var ErrInvalidTemplate = errors.New("config: invalid template")

// PacketTemplate is the TOML form of a packet. Empty addresses mean
// 0.0.0.0. Options are keyed by registry name or by decimal code for
// unlisted options, whose value is a hex string.
type PacketTemplate struct {
	Op          string         `toml:"op"`
	HType       uint8          `toml:"htype"`
	Hops        uint8          `toml:"hops"`
	XID         uint32         `toml:"xid"`
	Secs        uint16         `toml:"secs"`
	Broadcast   bool           `toml:"broadcast"`
	CIAddr      string         `toml:"ciaddr"`
	YIAddr      string         `toml:"yiaddr"`
	SIAddr      string         `toml:"siaddr"`
	GIAddr      string         `toml:"giaddr"`
	CHAddr      string         `toml:"chaddr"`
	SName       string         `toml:"sname"`
	File        string         `toml:"file"`
	MessageType string         `toml:"message_type"`
	ParamList   []string       `toml:"param_list"`
	Options     map[string]any `toml:"options"`
}

func LoadPacketTemplate(path string) (PacketTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PacketTemplate{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	tpl, err := ParsePacketTemplate(data)
	if err != nil {
		return PacketTemplate{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return tpl, nil
}

func ParsePacketTemplate(data []byte) (PacketTemplate, error) {
	var tpl PacketTemplate
	if err := toml.Unmarshal(data, &tpl); err != nil {
		return PacketTemplate{}, err
	}
	return tpl, nil
}

// Build converts the template into a packet. Every field error names the
// TOML key it came from.
func (t PacketTemplate) Build() (*protocol.Packet, error) {
	op, err := parseOp(t.Op)
	if err != nil {
		return nil, err
	}
	p := protocol.NewPacket(op)
	if t.HType != 0 {
		p.HType = protocol.HwType(t.HType)
	}
	p.Hops = t.Hops
	p.XID = t.XID
	p.Secs = t.Secs
	if t.Broadcast {
		p.Flags |= protocol.FlagBroadcast
	}

	addrs := []struct {
		key string
		raw string
		dst *netip.Addr
	}{
		{"ciaddr", t.CIAddr, &p.CIAddr},
		{"yiaddr", t.YIAddr, &p.YIAddr},
		{"siaddr", t.SIAddr, &p.SIAddr},
		{"giaddr", t.GIAddr, &p.GIAddr},
	}
	for _, a := range addrs {
		if strings.TrimSpace(a.raw) == "" {
			continue
		}
		addr, err := parseIPv4(a.raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidTemplate, a.key, err)
		}
		*a.dst = addr
	}

	if s := strings.TrimSpace(t.CHAddr); s != "" {
		hw, err := parseHardware(s)
		if err != nil {
			return nil, fmt.Errorf("%w: chaddr: %v", ErrInvalidTemplate, err)
		}
		if len(hw) > protocol.CHAddrLen {
			return nil, fmt.Errorf("%w: chaddr longer than %d bytes", ErrInvalidTemplate, protocol.CHAddrLen)
		}
		p.SetHardwareAddr(hw)
	}
	if len(t.SName) > protocol.SNameLen {
		return nil, fmt.Errorf("%w: sname longer than %d bytes", ErrInvalidTemplate, protocol.SNameLen)
	}
	if len(t.File) > protocol.FileLen {
		return nil, fmt.Errorf("%w: file longer than %d bytes", ErrInvalidTemplate, protocol.FileLen)
	}
	p.SName = []byte(t.SName)
	p.File = []byte(t.File)

	if s := strings.TrimSpace(t.MessageType); s != "" {
		mt, ok := protocol.ParseMessageType(s)
		if !ok {
			return nil, fmt.Errorf("%w: message_type %q", ErrInvalidTemplate, s)
		}
		p.Options.SetMessageType(mt)
	}
	if len(t.ParamList) > 0 {
		raw := make([]byte, 0, len(t.ParamList))
		for _, name := range t.ParamList {
			code, err := optionCode(name)
			if err != nil {
				return nil, fmt.Errorf("%w: param_list: %v", ErrInvalidTemplate, err)
			}
			raw = append(raw, byte(code))
		}
		p.Options.SetRaw(protocol.OptionParamList, raw)
	}

	keys := make([]string, 0, len(t.Options))
	for k := range t.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		code, err := optionCode(key)
		if err != nil {
			return nil, fmt.Errorf("%w: options: %v", ErrInvalidTemplate, err)
		}
		typ, _ := code.Type()
		v, err := ValueFromConfig(typ, t.Options[key])
		if err != nil {
			return nil, fmt.Errorf("%w: options.%s: %v", ErrInvalidTemplate, key, err)
		}
		p.Options.SetValue(code, v)
	}
	return p, nil
}

// ValueFromConfig converts a decoded TOML value into a typed option value.
// Integers arrive as int64, arrays as []any.
func ValueFromConfig(typ protocol.OptionType, raw any) (protocol.Value, error) {
	switch typ {
	case protocol.TypeString:
		s, ok := raw.(string)
		if !ok {
			return nil, typeErr(typ, raw)
		}
		return protocol.StringValue(s), nil
	case protocol.TypeIP:
		s, ok := raw.(string)
		if !ok {
			return nil, typeErr(typ, raw)
		}
		addr, err := parseIPv4(s)
		if err != nil {
			return nil, err
		}
		return protocol.IPValue(addr), nil
	case protocol.TypeIPList:
		items, err := stringList(typ, raw)
		if err != nil {
			return nil, err
		}
		out := make(protocol.IPListValue, 0, len(items))
		for _, s := range items {
			addr, err := parseIPv4(s)
			if err != nil {
				return nil, err
			}
			out = append(out, addr)
		}
		return out, nil
	case protocol.TypeI32:
		n, err := integer(typ, raw, -1<<31, 1<<31-1)
		if err != nil {
			return nil, err
		}
		return protocol.I32Value(n), nil
	case protocol.TypeU8:
		n, err := integer(typ, raw, 0, 0xff)
		if err != nil {
			return nil, err
		}
		return protocol.U8Value(n), nil
	case protocol.TypeBool:
		if b, ok := raw.(bool); ok {
			if b {
				return protocol.U8Value(1), nil
			}
			return protocol.U8Value(0), nil
		}
		n, err := integer(typ, raw, 0, 0xff)
		if err != nil {
			return nil, err
		}
		return protocol.U8Value(n), nil
	case protocol.TypeU16, protocol.TypeSeconds16:
		n, err := integer(typ, raw, 0, 0xffff)
		if err != nil {
			return nil, err
		}
		return protocol.U16Value(n), nil
	case protocol.TypeU32, protocol.TypeSeconds32:
		n, err := integer(typ, raw, 0, 0xffffffff)
		if err != nil {
			return nil, err
		}
		return protocol.U32Value(n), nil
	case protocol.TypeHwAddr:
		s, ok := raw.(string)
		if !ok {
			return nil, typeErr(typ, raw)
		}
		hw, err := parseHardware(s)
		if err != nil {
			return nil, err
		}
		return protocol.HwAddrValue(hw), nil
	case protocol.TypeRoutes:
		items, err := stringList(typ, raw)
		if err != nil {
			return nil, err
		}
		out := make(protocol.RoutesValue, 0, len(items))
		for _, s := range items {
			r, err := parseRoute(s)
			if err != nil {
				return nil, err
			}
			out = append(out, r)
		}
		return out, nil
	case protocol.TypeDomainList:
		items, err := stringList(typ, raw)
		if err != nil {
			return nil, err
		}
		for _, name := range items {
			for _, label := range strings.Split(name, ".") {
				if len(label) > protocol.MaxLabelLen {
					return nil, fmt.Errorf("domain %q: label longer than %d bytes", name, protocol.MaxLabelLen)
				}
			}
		}
		return protocol.DomainListValue(items), nil
	default:
		s, ok := raw.(string)
		if !ok {
			return nil, typeErr(typ, raw)
		}
		b, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
		if err != nil {
			return nil, fmt.Errorf("hex value: %w", err)
		}
		return protocol.UnknownValue(b), nil
	}
}

func parseOp(s string) (protocol.Op, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "request", "bootrequest":
		return protocol.OpBootRequest, nil
	case "reply", "bootreply":
		return protocol.OpBootReply, nil
	default:
		return 0, fmt.Errorf("%w: op %q", ErrInvalidTemplate, s)
	}
}

// optionCode resolves a registry name or a decimal code.
func optionCode(key string) (protocol.OptionCode, error) {
	key = strings.TrimSpace(key)
	if code, ok := protocol.OptionByName(key); ok {
		return code, nil
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(key, "#"), 10, 8)
	if err != nil {
		return 0, fmt.Errorf("unknown option %q", key)
	}
	if n == uint64(protocol.OptionPad) || n == uint64(protocol.OptionEnd) {
		return 0, fmt.Errorf("option %q is reserved", key)
	}
	return protocol.OptionCode(n), nil
}

func parseIPv4(s string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return netip.Addr{}, err
	}
	if !addr.Unmap().Is4() {
		return netip.Addr{}, fmt.Errorf("%s is not IPv4", s)
	}
	return addr.Unmap(), nil
}

// parseHardware accepts MAC notation or hex of any length, with optional
// colon or dash separators.
func parseHardware(s string) ([]byte, error) {
	if hw, err := net.ParseMAC(s); err == nil {
		return hw, nil
	}
	digits := strings.NewReplacer(":", "", "-", "").Replace(strings.TrimPrefix(s, "0x"))
	b, err := hex.DecodeString(digits)
	if err != nil {
		return nil, fmt.Errorf("hardware address %q", s)
	}
	return b, nil
}

// parseRoute reads "prefix->nexthop", the form Route.String prints.
func parseRoute(s string) (protocol.Route, error) {
	prefix, hop, ok := strings.Cut(s, "->")
	if !ok {
		return protocol.Route{}, fmt.Errorf("route %q: want prefix->nexthop", s)
	}
	pfx, err := netip.ParsePrefix(strings.TrimSpace(prefix))
	if err != nil {
		return protocol.Route{}, err
	}
	if !pfx.Addr().Is4() {
		return protocol.Route{}, fmt.Errorf("route %q: prefix is not IPv4", s)
	}
	nh, err := parseIPv4(hop)
	if err != nil {
		return protocol.Route{}, err
	}
	return protocol.Route{Prefix: pfx, NextHop: nh}, nil
}

func stringList(typ protocol.OptionType, raw any) ([]string, error) {
	switch v := raw.(type) {
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, typeErr(typ, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, typeErr(typ, raw)
	}
}

func integer(typ protocol.OptionType, raw any, lo, hi int64) (int64, error) {
	var n int64
	switch v := raw.(type) {
	case int64:
		n = v
	case int:
		n = int64(v)
	default:
		return 0, typeErr(typ, raw)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("%d out of range for %s", n, typ)
	}
	return n, nil
}

func typeErr(typ protocol.OptionType, raw any) error {
	return fmt.Errorf("%T is not a valid %s value", raw, typ)
}
