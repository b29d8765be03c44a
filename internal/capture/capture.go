// Package capture extracts DHCP datagrams from pcap files and writes them
// back as synthetic Ethernet/IPv4/UDP frames.
package capture

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/netip"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/dhcpwire/internal/endpoint"
)

const snapLen = 65536

var ErrUnsupportedLinkType = errors.New("capture: unsupported link type")

// Datagram is one UDP payload sent to or from a DHCP port.
type Datagram struct {
	Timestamp time.Time
	Src       netip.AddrPort
	Dst       netip.AddrPort
	Payload   []byte
}

func ReadFile(path string) ([]Datagram, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Read returns every UDP datagram on port 67 or 68 in a pcap stream.
// Frames that do not decode as IPv4/UDP are skipped.
func Read(r io.Reader) ([]Datagram, error) {
	pr, err := pcapgo.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	var first gopacket.LayerType
	switch pr.LinkType() {
	case layers.LinkTypeEthernet:
		first = layers.LayerTypeEthernet
	case layers.LinkTypeRaw, layers.LinkTypeIPv4:
		first = layers.LayerTypeIPv4
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLinkType, pr.LinkType())
	}

	var out []Datagram
	frames := 0
	for {
		data, ci, err := pr.ReadPacketData()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return out, fmt.Errorf("capture: frame %d: %w", frames, err)
		}
		frames++
		d, ok := extract(gopacket.NewPacket(data, first, gopacket.Default))
		if !ok {
			continue
		}
		d.Timestamp = ci.Timestamp
		out = append(out, d)
	}
	log.Debug().Int("frames", frames).Int("datagrams", len(out)).Msg("capture.Read")
	return out, nil
}

func extract(pkt gopacket.Packet) (Datagram, bool) {
	ip4, ok := pkt.Layer(layers.LayerTypeIPv4).(*layers.IPv4)
	if !ok || ip4 == nil {
		return Datagram{}, false
	}
	udp, ok := pkt.Layer(layers.LayerTypeUDP).(*layers.UDP)
	if !ok || udp == nil {
		return Datagram{}, false
	}
	if !dhcpPort(udp.SrcPort) && !dhcpPort(udp.DstPort) {
		return Datagram{}, false
	}
	src, _ := netip.AddrFromSlice(ip4.SrcIP.To4())
	dst, _ := netip.AddrFromSlice(ip4.DstIP.To4())
	return Datagram{
		Src:     netip.AddrPortFrom(src, uint16(udp.SrcPort)),
		Dst:     netip.AddrPortFrom(dst, uint16(udp.DstPort)),
		Payload: append([]byte(nil), udp.Payload...),
	}, true
}

func dhcpPort(p layers.UDPPort) bool {
	return p == endpoint.ServerPort || p == endpoint.ClientPort
}

// Write emits ds as an Ethernet pcap. MAC addresses are zero except for
// broadcast destinations.
func Write(w io.Writer, ds []Datagram) error {
	pw := pcapgo.NewWriter(w)
	if err := pw.WriteFileHeader(snapLen, layers.LinkTypeEthernet); err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	opts := gopacket.SerializeOptions{ComputeChecksums: true, FixLengths: true}
	for i, d := range ds {
		frame, err := encodeFrame(d, opts)
		if err != nil {
			return fmt.Errorf("capture: datagram %d: %w", i, err)
		}
		ts := d.Timestamp
		if ts.IsZero() {
			ts = time.Now()
		}
		ci := gopacket.CaptureInfo{Timestamp: ts, CaptureLength: len(frame), Length: len(frame)}
		if err := pw.WritePacket(ci, frame); err != nil {
			return fmt.Errorf("capture: datagram %d: %w", i, err)
		}
	}
	return nil
}

func encodeFrame(d Datagram, opts gopacket.SerializeOptions) ([]byte, error) {
	if !d.Src.Addr().Is4() || !d.Dst.Addr().Is4() {
		return nil, fmt.Errorf("non IPv4 endpoints %s -> %s", d.Src, d.Dst)
	}
	dstMAC := net.HardwareAddr{0, 0, 0, 0, 0, 0}
	if d.Dst.Addr() == netip.AddrFrom4([4]byte{255, 255, 255, 255}) {
		dstMAC = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	}
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0, 0, 0, 0, 0, 0},
		DstMAC:       dstMAC,
		EthernetType: layers.EthernetTypeIPv4,
	}
	srcIP := d.Src.Addr().As4()
	dstIP := d.Dst.Addr().As4()
	ip4 := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    net.IP(srcIP[:]),
		DstIP:    net.IP(dstIP[:]),
	}
	udp := &layers.UDP{
		SrcPort: layers.UDPPort(d.Src.Port()),
		DstPort: layers.UDPPort(d.Dst.Port()),
	}
	if err := udp.SetNetworkLayerForChecksum(ip4); err != nil {
		return nil, err
	}
	buf := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(buf, opts, eth, ip4, udp, gopacket.Payload(d.Payload)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
