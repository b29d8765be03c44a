package protocol

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"net/netip"
	"strings"
)

const (
	// Magic is the cookie that separates the BOOTP header from the options.
	Magic uint32 = 0x63825363

	// HeaderSize is the fixed BOOTP header length, excluding the magic.
	HeaderSize = 236

	CHAddrLen = 16
	SNameLen  = 64
	FileLen   = 128

	magicSize = 4
)

// Op is the BOOTP message op code.
type Op uint8

const (
	OpBootRequest Op = 1
	OpBootReply   Op = 2
)

func (o Op) String() string {
	switch o {
	case OpBootRequest:
		return "BOOTREQUEST"
	case OpBootReply:
		return "BOOTREPLY"
	default:
		return fmt.Sprintf("#%d", uint8(o))
	}
}

// HwType is the hardware address type (ARP hardware type numbering).
type HwType uint8

const HwTypeEthernet HwType = 1

func (h HwType) String() string {
	if h == HwTypeEthernet {
		return "Ethernet"
	}
	return fmt.Sprintf("#%d", uint8(h))
}

// MessageType is the value of the DHCP message type option.
type MessageType uint8

const (
	MessageDiscover   MessageType = 1
	MessageOffer      MessageType = 2
	MessageRequest    MessageType = 3
	MessageDecline    MessageType = 4
	MessageAck        MessageType = 5
	MessageNak        MessageType = 6
	MessageRelease    MessageType = 7
	MessageInform     MessageType = 8
	MessageForceRenew MessageType = 9
)

func (m MessageType) String() string {
	switch m {
	case MessageDiscover:
		return "DHCPDISCOVER"
	case MessageOffer:
		return "DHCPOFFER"
	case MessageRequest:
		return "DHCPREQUEST"
	case MessageDecline:
		return "DHCPDECLINE"
	case MessageAck:
		return "DHCPACK"
	case MessageNak:
		return "DHCPNAK"
	case MessageRelease:
		return "DHCPRELEASE"
	case MessageInform:
		return "DHCPINFORM"
	case MessageForceRenew:
		return "DHCPFORCERENEW"
	default:
		return fmt.Sprintf("#%d", uint8(m))
	}
}

// ParseMessageType accepts the names produced by MessageType.String, with
// or without the DHCP prefix, case-insensitively.
func ParseMessageType(s string) (MessageType, bool) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if !strings.HasPrefix(name, "DHCP") {
		name = "DHCP" + name
	}
	for m := MessageDiscover; m <= MessageForceRenew; m++ {
		if m.String() == name {
			return m, true
		}
	}
	return 0, false
}

// Packet is one DHCPv4 message.
//
// CHAddr holds only the significant HLen bytes. SName and File hold the
// bytes before the first zero; they are zero padded on the wire.
type Packet struct {
	Op      Op
	HType   HwType
	HLen    uint8
	Hops    uint8
	XID     uint32
	Secs    uint16
	Flags   uint16
	CIAddr  netip.Addr
	YIAddr  netip.Addr
	SIAddr  netip.Addr
	GIAddr  netip.Addr
	CHAddr  []byte
	SName   []byte
	File    []byte
	Options Options
}

// FlagBroadcast is the BROADCAST bit of the flags field.
const FlagBroadcast uint16 = 0x8000

// NewPacket returns a packet with unspecified addresses and no options.
func NewPacket(op Op) *Packet {
	return &Packet{
		Op:      op,
		HType:   HwTypeEthernet,
		CIAddr:  netip.IPv4Unspecified(),
		YIAddr:  netip.IPv4Unspecified(),
		SIAddr:  netip.IPv4Unspecified(),
		GIAddr:  netip.IPv4Unspecified(),
		Options: NewOptions(),
	}
}

// NewReply starts a BOOTREPLY for req carrying the given message type. The
// transaction id, flags, relay address and hardware address are copied.
func NewReply(req *Packet, mt MessageType) *Packet {
	p := NewPacket(OpBootReply)
	p.HType = req.HType
	p.XID = req.XID
	p.Flags = req.Flags
	p.GIAddr = req.GIAddr
	p.SetHardwareAddr(req.CHAddr)
	p.Options.SetMessageType(mt)
	return p
}

// ClientID returns the client identifier option, falling back to the
// hardware address when the option is absent.
func (p *Packet) ClientID() []byte {
	if id, ok := p.Options.ClientID(); ok {
		return id
	}
	return bytes.Clone(p.CHAddr)
}

// SetHardwareAddr sets CHAddr and HLen together.
func (p *Packet) SetHardwareAddr(hw []byte) {
	p.CHAddr = bytes.Clone(hw)
	p.HLen = uint8(len(hw))
}

func (p *Packet) ServerName() string { return string(p.SName) }

func (p *Packet) BootFile() string { return string(p.File) }

// IsBroadcast reports whether the client asked for broadcast replies.
func (p *Packet) IsBroadcast() bool {
	return p.Flags&FlagBroadcast != 0
}

// IsRelayed reports whether a relay agent forwarded the packet.
func (p *Packet) IsRelayed() bool {
	return p.GIAddr.IsValid() && !p.GIAddr.IsUnspecified()
}

// Equal reports whether p and o describe the same packet.
func (p *Packet) Equal(o *Packet) bool {
	if p == nil || o == nil {
		return p == o
	}
	return p.Op == o.Op &&
		p.HType == o.HType &&
		p.HLen == o.HLen &&
		p.Hops == o.Hops &&
		p.XID == o.XID &&
		p.Secs == o.Secs &&
		p.Flags == o.Flags &&
		wireAddr(p.CIAddr) == wireAddr(o.CIAddr) &&
		wireAddr(p.YIAddr) == wireAddr(o.YIAddr) &&
		wireAddr(p.SIAddr) == wireAddr(o.SIAddr) &&
		wireAddr(p.GIAddr) == wireAddr(o.GIAddr) &&
		bytes.Equal(p.CHAddr, o.CHAddr) &&
		bytes.Equal(p.SName, o.SName) &&
		bytes.Equal(p.File, o.File) &&
		p.Options.Equal(o.Options)
}

// wireAddr is a as it appears in the header: the zero Addr is 0.0.0.0.
func wireAddr(a netip.Addr) netip.Addr {
	if !a.IsValid() {
		return netip.IPv4Unspecified()
	}
	return a.Unmap()
}

func (p *Packet) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "op=%s htype=%s hlen=%d hops=%d xid=%#08x secs=%d flags=%#04x",
		p.Op, p.HType, p.HLen, p.Hops, p.XID, p.Secs, p.Flags)
	fmt.Fprintf(&b, " ciaddr=%s yiaddr=%s siaddr=%s giaddr=%s",
		addrString(p.CIAddr), addrString(p.YIAddr), addrString(p.SIAddr), addrString(p.GIAddr))
	fmt.Fprintf(&b, " chaddr=%s", hex.EncodeToString(p.CHAddr))
	if len(p.SName) > 0 {
		fmt.Fprintf(&b, " sname=%q", escapeBytes(p.SName))
	}
	if len(p.File) > 0 {
		fmt.Fprintf(&b, " file=%q", escapeBytes(p.File))
	}
	for _, code := range p.Options.Codes() {
		raw, _ := p.Options.Raw(code)
		switch code {
		case OptionMessageType:
			if mt, ok := p.Options.MessageType(); ok {
				fmt.Fprintf(&b, " message-type=%s", mt)
				continue
			}
		case OptionParamList:
			params, _ := p.Options.ParamList()
			names := make([]string, len(params))
			for i, c := range params {
				names[i] = c.String()
			}
			fmt.Fprintf(&b, " parameter-list=%s", strings.Join(names, ","))
			continue
		}
		v, ok := p.Options.Get(code)
		if !ok {
			fmt.Fprintf(&b, " %s=<malformed %x>", code, raw)
			continue
		}
		fmt.Fprintf(&b, " %s=%s", code, v)
	}
	return b.String()
}

func addrString(a netip.Addr) string {
	if !a.IsValid() {
		return "0.0.0.0"
	}
	return a.String()
}
