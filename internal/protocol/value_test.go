package protocol

import (
	"bytes"
	"net/netip"
	"reflect"
	"strings"
	"testing"
	"time"
)

func route(prefix, nextHop string) Route {
	return Route{Prefix: netip.MustParsePrefix(prefix), NextHop: netip.MustParseAddr(nextHop)}
}

func TestValueVectors(t *testing.T) {
	if got := StringValue("test").Bytes(); !bytes.Equal(got, []byte{116, 101, 115, 116}) {
		t.Fatalf("string bytes got=%v", got)
	}
	if got := IPValue(netip.MustParseAddr("192.0.2.0")).Bytes(); !bytes.Equal(got, []byte{192, 0, 2, 0}) {
		t.Fatalf("ip bytes got=%v", got)
	}
	if got := I32Value(16909060).Bytes(); !bytes.Equal(got, []byte{1, 2, 3, 4}) {
		t.Fatalf("i32 bytes got=%v", got)
	}

	v, ok := TypeU32.Decode([]byte{1, 2, 3, 4})
	if !ok || v != U32Value(16909060) {
		t.Fatalf("expected u32 16909060, got %v ok=%v", v, ok)
	}

	v, ok = TypeIPList.Decode([]byte{192, 0, 2, 12, 192, 0, 2, 17})
	want := IPListValue{netip.MustParseAddr("192.0.2.12"), netip.MustParseAddr("192.0.2.17")}
	if !ok || !reflect.DeepEqual(v, want) {
		t.Fatalf("ip list got=%v ok=%v", v, ok)
	}
	if v.String() != "192.0.2.12,192.0.2.17" {
		t.Fatalf("ip list display got %q", v.String())
	}

	if got := (HwAddrValue{0, 1, 2, 3, 4, 5}).String(); got != "00:01:02:03:04:05" {
		t.Fatalf("hwaddr display got %q", got)
	}

	routes := RoutesValue{route("192.0.2.0/24", "192.0.2.254")}
	if got := routes.Bytes(); !bytes.Equal(got, []byte{24, 192, 0, 2, 0, 192, 0, 2, 254}) {
		t.Fatalf("routes bytes got=%v", got)
	}

	v, ok = TypeRoutes.Decode([]byte{24, 192, 0, 2, 0, 192, 0, 2, 254, 24, 198, 51, 100, 0, 192, 0, 2, 254})
	if !ok || len(v.(RoutesValue)) != 2 {
		t.Fatalf("expected two routes, got %v ok=%v", v, ok)
	}
	if v.String() != "192.0.2.0/24->192.0.2.254,198.51.100.0/24->192.0.2.254" {
		t.Fatalf("routes display got %q", v.String())
	}
}

func TestValueRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		typ  OptionType
		v    Value
	}{
		{"string", TypeString, StringValue("hello world")},
		{"empty string", TypeString, StringValue("")},
		{"ip", TypeIP, IPValue(netip.MustParseAddr("198.51.100.7"))},
		{"ip list empty", TypeIPList, IPListValue{}},
		{"ip list one", TypeIPList, IPListValue{netip.MustParseAddr("192.0.2.1")}},
		{"ip list many", TypeIPList, IPListValue{
			netip.MustParseAddr("192.0.2.1"),
			netip.MustParseAddr("192.0.2.2"),
			netip.MustParseAddr("192.0.2.3"),
		}},
		{"i32 zero", TypeI32, I32Value(0)},
		{"i32 max", TypeI32, I32Value(2147483647)},
		{"i32 negative", TypeI32, I32Value(-3600)},
		{"u8 zero", TypeU8, U8Value(0)},
		{"u8 max", TypeU8, U8Value(255)},
		{"u16 zero", TypeU16, U16Value(0)},
		{"u16 max", TypeU16, U16Value(65535)},
		{"u32 zero", TypeU32, U32Value(0)},
		{"u32 max", TypeU32, U32Value(4294967295)},
		{"bool", TypeBool, U8Value(1)},
		{"seconds16", TypeSeconds16, U16Value(1800)},
		{"seconds32", TypeSeconds32, U32Value(86400)},
		{"hwaddr", TypeHwAddr, HwAddrValue{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}},
		{"routes empty", TypeRoutes, RoutesValue{}},
		{"routes one", TypeRoutes, RoutesValue{route("0.0.0.0/0", "192.0.2.1")}},
		{"routes many", TypeRoutes, RoutesValue{
			route("192.0.2.0/24", "192.0.2.254"),
			route("198.51.100.0/24", "192.0.2.254"),
			route("203.0.113.128/25", "192.0.2.253"),
		}},
		{"domains empty", TypeDomainList, DomainListValue{}},
		{"domains one", TypeDomainList, DomainListValue{"example.com"}},
		{"domains many", TypeDomainList, DomainListValue{"example.com", "corp.example.org", "lan"}},
		{"domains space", TypeDomainList, DomainListValue{"a b.com"}},
		{"domains backslash", TypeDomainList, DomainListValue{`a\b.example`}},
		{"domains utf8", TypeDomainList, DomainListValue{"é.example", "ドメイン.jp"}},
		{"domains max label", TypeDomainList, DomainListValue{strings.Repeat("x", MaxLabelLen) + ".lan"}},
		{"unknown", TypeUnknown, UnknownValue{0xde, 0xad}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decoded, ok := tc.typ.Decode(tc.v.Bytes())
			if !ok {
				t.Fatalf("expected %s to decode", tc.typ)
			}
			if !reflect.DeepEqual(decoded, tc.v) {
				t.Fatalf("round trip got=%#v want=%#v", decoded, tc.v)
			}
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	cases := []struct {
		name string
		typ  OptionType
		raw  []byte
	}{
		{"ip short", TypeIP, []byte{192, 0, 2}},
		{"ip long", TypeIP, []byte{192, 0, 2, 1, 0}},
		{"ip list partial group", TypeIPList, []byte{192, 0, 2, 1, 192}},
		{"routes short group", TypeRoutes, []byte{24, 192, 0, 2, 0, 192, 0}},
		{"routes prefix length", TypeRoutes, []byte{33, 192, 0, 2, 0, 192, 0, 2, 1}},
		{"domains unterminated", TypeDomainList, []byte{3, 'f', 'o', 'o'}},
		{"domains overrun", TypeDomainList, []byte{7, 'f', 'o', 'o', 0}},
	}
	for _, tc := range cases {
		if v, ok := tc.typ.Decode(tc.raw); ok || v != nil {
			t.Fatalf("%s: expected no value, got %v ok=%v", tc.name, v, ok)
		}
	}
}

func TestDecodeIntegersArePermissive(t *testing.T) {
	cases := []struct {
		typ  OptionType
		raw  []byte
		want Value
	}{
		{TypeU32, []byte{0x01, 0x02}, U32Value(0x0102)},
		{TypeU16, []byte{0x01, 0x02, 0x03}, U16Value(0x0203)},
		{TypeU8, nil, U8Value(0)},
		{TypeI32, []byte{0xff, 0xff, 0xff, 0xfe}, I32Value(-2)},
	}
	for _, tc := range cases {
		v, ok := tc.typ.Decode(tc.raw)
		if !ok || v != tc.want {
			t.Fatalf("%s %v: expected %v, got %v ok=%v", tc.typ, tc.raw, tc.want, v, ok)
		}
	}
}

func TestDecodeTextIsLossy(t *testing.T) {
	v, ok := TypeString.Decode([]byte{'a', 0xff, 'b'})
	if !ok || v != StringValue("a\uFFFDb") {
		t.Fatalf("expected replacement character, got %q ok=%v", v, ok)
	}
}

func TestDomainListEncoding(t *testing.T) {
	b := DomainListValue{"example.com", "a.b"}.Bytes()
	want := []byte{
		7, 'e', 'x', 'a', 'm', 'p', 'l', 'e', 3, 'c', 'o', 'm', 0,
		1, 'a', 1, 'b', 0,
	}
	if !bytes.Equal(b, want) {
		t.Fatalf("domain list bytes got=%v want=%v", b, want)
	}

	v, ok := TypeDomainList.Decode([]byte{3, 'l', 'a', 'n', 0, 0})
	if !ok || !reflect.DeepEqual(v, DomainListValue{"lan", ""}) {
		t.Fatalf("expected lan and root, got %#v ok=%v", v, ok)
	}
}

func TestDomainListLabelsAreVerbatim(t *testing.T) {
	if got := (DomainListValue{`a\b`}).Bytes(); !bytes.Equal(got, []byte{3, 'a', '\\', 'b', 0}) {
		t.Fatalf("backslash label got=%v", got)
	}
	if got := (DomainListValue{"a b"}).Bytes(); !bytes.Equal(got, []byte{3, 'a', ' ', 'b', 0}) {
		t.Fatalf("space label got=%v", got)
	}

	v, ok := TypeDomainList.Decode([]byte{2, 0xc3, 0xa9, 0})
	if !ok || !reflect.DeepEqual(v, DomainListValue{"é"}) {
		t.Fatalf("expected utf-8 label, got %#v ok=%v", v, ok)
	}

	// second name points back at "a b" inside the first
	v, ok = TypeDomainList.Decode([]byte{1, 'x', 3, 'a', ' ', 'b', 0, 1, 'y', 0xc0, 0x02})
	if !ok || !reflect.DeepEqual(v, DomainListValue{"x.a b", "y.a b"}) {
		t.Fatalf("expected compressed names, got %#v ok=%v", v, ok)
	}
}

func TestDomainListTruncatesLongLabels(t *testing.T) {
	long := strings.Repeat("x", MaxLabelLen+10)
	b := DomainListValue{long + ".lan"}.Bytes()
	if b[0] != MaxLabelLen {
		t.Fatalf("expected label length %d, got %d", MaxLabelLen, b[0])
	}
	v, ok := TypeDomainList.Decode(b)
	want := DomainListValue{long[:MaxLabelLen] + ".lan"}
	if !ok || !reflect.DeepEqual(v, want) {
		t.Fatalf("truncated name got=%#v ok=%v", v, ok)
	}
}

func TestValueDisplay(t *testing.T) {
	cases := map[string]struct {
		got  string
		want string
	}{
		"string":  {StringValue("tab\tbell\a~").String(), `tab\x09bell\x07~`},
		"i32":     {I32Value(-5).String(), "-5"},
		"unknown": {UnknownValue{0x0a, 0x0b}.String(), "0a0b"},
		"domains": {DomainListValue{"example.com", "lan"}.String(), "example.com,lan"},
		"routes":  {RoutesValue{}.String(), ""},
	}
	for name, tc := range cases {
		if tc.got != tc.want {
			t.Fatalf("%s: expected %q, got %q", name, tc.want, tc.got)
		}
	}
	if d := U32Value(1800).Seconds(); d != 30*time.Minute {
		t.Fatalf("expected 30m, got %v", d)
	}
	if d := U16Value(60).Seconds(); d != time.Minute {
		t.Fatalf("expected 1m, got %v", d)
	}
}

func TestValueTypeTags(t *testing.T) {
	for _, typ := range []OptionType{
		TypeString, TypeIP, TypeIPList, TypeI32, TypeU8, TypeU16, TypeU32,
		TypeHwAddr, TypeRoutes, TypeDomainList, TypeUnknown,
	} {
		v, ok := typ.Decode(nil)
		if typ == TypeIP {
			if ok {
				t.Fatalf("expected empty ip to fail")
			}
			continue
		}
		if !ok {
			t.Fatalf("%s: expected empty payload to decode", typ)
		}
		if v.Type() != typ {
			t.Fatalf("%s: value reports type %s", typ, v.Type())
		}
	}
}
