package config

import (
	"errors"
	"net/netip"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/danmuck/dhcpwire/internal/protocol"
	"github.com/danmuck/dhcpwire/internal/protocol/schema"
	"github.com/danmuck/dhcpwire/internal/testutil/testlog"
)

func TestSampleTemplatesBuildValidPackets(t *testing.T) {
	testlog.Start(t)
	for _, kind := range TemplateKinds() {
		t.Run(kind, func(t *testing.T) {
			src, err := Template(kind)
			require.NoError(t, err)
			tpl, err := ParsePacketTemplate([]byte(src))
			require.NoError(t, err)
			p, err := tpl.Build()
			require.NoError(t, err)
			require.NoError(t, schema.Validate(p))

			back, err := protocol.Parse(p.Serialise())
			require.NoError(t, err)
			require.True(t, p.Equal(back), "round trip mismatch:\n%s\n%s", p, back)
		})
	}
}

func TestOfferTemplateFields(t *testing.T) {
	testlog.Start(t)
	src, err := Template("offer")
	require.NoError(t, err)
	tpl, err := ParsePacketTemplate([]byte(src))
	require.NoError(t, err)
	p, err := tpl.Build()
	require.NoError(t, err)

	require.Equal(t, protocol.OpBootReply, p.Op)
	require.Equal(t, uint32(0x3903f326), p.XID)
	require.Equal(t, netip.MustParseAddr("192.168.1.100"), p.YIAddr)
	require.Equal(t, []byte{0x00, 0x05, 0x3c, 0x04, 0x8d, 0x59}, p.CHAddr)
	require.Equal(t, uint8(6), p.HLen)

	mt, ok := p.Options.MessageType()
	require.True(t, ok)
	require.Equal(t, protocol.MessageOffer, mt)

	v, ok := p.Options.Get(protocol.OptionLeaseTime)
	require.True(t, ok)
	require.Equal(t, protocol.U32Value(86400), v)

	v, ok = p.Options.Get(protocol.OptionClasslessRoutes)
	require.True(t, ok)
	require.Equal(t, protocol.RoutesValue{{
		Prefix:  netip.MustParsePrefix("10.0.0.0/8"),
		NextHop: netip.MustParseAddr("192.168.1.254"),
	}}, v)

	v, ok = p.Options.Get(protocol.OptionDomainSearch)
	require.True(t, ok)
	require.Equal(t, protocol.DomainListValue{"lab.example", "example"}, v)
}

func TestDiscoverTemplateParamListAndClientID(t *testing.T) {
	testlog.Start(t)
	src, err := Template("discover")
	require.NoError(t, err)
	tpl, err := ParsePacketTemplate([]byte(src))
	require.NoError(t, err)
	p, err := tpl.Build()
	require.NoError(t, err)

	require.True(t, p.IsBroadcast())
	params, ok := p.Options.ParamList()
	require.True(t, ok)
	require.Equal(t, []protocol.OptionCode{
		protocol.OptionNetmask, protocol.OptionRouters, protocol.OptionDNSServers, protocol.OptionDomainName,
	}, params)
	require.Equal(t, []byte{0x01, 0x00, 0x05, 0x3c, 0x04, 0x8d, 0x59}, p.ClientID())
}

func TestValueFromConfig(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		name string
		typ  protocol.OptionType
		raw  any
		want protocol.Value
	}{
		{"string", protocol.TypeString, "lab", protocol.StringValue("lab")},
		{"ip", protocol.TypeIP, "10.0.0.1", protocol.IPValue(netip.MustParseAddr("10.0.0.1"))},
		{"ip list single", protocol.TypeIPList, "10.0.0.1", protocol.IPListValue{netip.MustParseAddr("10.0.0.1")}},
		{"ip list", protocol.TypeIPList, []any{"10.0.0.1", "10.0.0.2"}, protocol.IPListValue{
			netip.MustParseAddr("10.0.0.1"), netip.MustParseAddr("10.0.0.2"),
		}},
		{"i32", protocol.TypeI32, int64(-3600), protocol.I32Value(-3600)},
		{"u8", protocol.TypeU8, int64(64), protocol.U8Value(64)},
		{"bool true", protocol.TypeBool, true, protocol.U8Value(1)},
		{"bool int", protocol.TypeBool, int64(0), protocol.U8Value(0)},
		{"u16", protocol.TypeU16, int64(1500), protocol.U16Value(1500)},
		{"seconds16", protocol.TypeSeconds16, int64(60), protocol.U16Value(60)},
		{"seconds32", protocol.TypeSeconds32, int64(86400), protocol.U32Value(86400)},
		{"hwaddr", protocol.TypeHwAddr, "aa-bb-cc-dd-ee-ff", protocol.HwAddrValue{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}},
		{"hwaddr hex", protocol.TypeHwAddr, "0x01aabb", protocol.HwAddrValue{0x01, 0xaa, 0xbb}},
		{"domains", protocol.TypeDomainList, []any{"a.example"}, protocol.DomainListValue{"a.example"}},
		{"unknown", protocol.TypeUnknown, "deadbeef", protocol.UnknownValue{0xde, 0xad, 0xbe, 0xef}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ValueFromConfig(tc.typ, tc.raw)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestValueFromConfigRejects(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		name string
		typ  protocol.OptionType
		raw  any
	}{
		{"ip not string", protocol.TypeIP, int64(1)},
		{"ipv6", protocol.TypeIP, "2001:db8::1"},
		{"u8 range", protocol.TypeU8, int64(256)},
		{"u16 negative", protocol.TypeU16, int64(-1)},
		{"u32 string", protocol.TypeU32, "10"},
		{"route form", protocol.TypeRoutes, []any{"10.0.0.0/8 192.0.2.1"}},
		{"route ipv6", protocol.TypeRoutes, []any{"2001:db8::/32->192.0.2.1"}},
		{"list item", protocol.TypeIPList, []any{"10.0.0.1", int64(3)}},
		{"bad hex", protocol.TypeUnknown, "zz"},
		{"long label", protocol.TypeDomainList, []any{strings.Repeat("a", protocol.MaxLabelLen+1) + ".example"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValueFromConfig(tc.typ, tc.raw)
			require.Error(t, err)
		})
	}
}

func TestBuildRejectsBadTemplates(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"op":           `op = "sideways"`,
		"address":      `ciaddr = "not-an-ip"`,
		"message type": `message_type = "hello"`,
		"option name":  "[options]\nno-such-option = 1",
		"reserved":     "[options]\n255 = \"00\"",
		"param list":   `param_list = ["nope"]`,
		"option value": "[options]\nlease-time = \"forever\"",
		"chaddr":       `chaddr = "00112233445566778899aabbccddeeff00"`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			tpl, err := ParsePacketTemplate([]byte(src))
			require.NoError(t, err)
			_, err = tpl.Build()
			require.True(t, errors.Is(err, ErrInvalidTemplate), "got %v", err)
		})
	}
}

func TestBuildUnlistedOptionByCode(t *testing.T) {
	testlog.Start(t)
	tpl, err := ParsePacketTemplate([]byte("message_type = \"inform\"\n[options]\n224 = \"0102\"\n"))
	require.NoError(t, err)
	p, err := tpl.Build()
	require.NoError(t, err)
	raw, ok := p.Options.Raw(224)
	require.True(t, ok)
	require.Equal(t, []byte{1, 2}, raw)
}

func TestWriteAndLoadTemplate(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "offer.toml")
	require.NoError(t, WriteTemplate(path, "offer", false))
	require.Error(t, WriteTemplate(path, "offer", false))
	require.NoError(t, WriteTemplate(path, "OFFER", true))

	tpl, err := LoadPacketTemplate(path)
	require.NoError(t, err)
	require.Equal(t, "offer", tpl.MessageType)

	_, err = LoadPacketTemplate(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	_, err = Template("nak")
	require.Error(t, err)
}
