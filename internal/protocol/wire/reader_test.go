package wire

import (
	"bytes"
	"net/netip"
	"reflect"
	"testing"
)

func TestReaderPrimitivesInOrder(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 192, 0, 2, 1, 0xaa, 0xbb})
	if v, ok := r.U8(); !ok || v != 0x01 {
		t.Fatalf("u8 got=%d ok=%v", v, ok)
	}
	if v, ok := r.BE16(); !ok || v != 0x0203 {
		t.Fatalf("be16 got=%#x ok=%v", v, ok)
	}
	if v, ok := r.BE32(); !ok || v != 0x04050607 {
		t.Fatalf("be32 got=%#x ok=%v", v, ok)
	}
	if v, ok := r.IPv4(); !ok || v != netip.MustParseAddr("192.0.2.1") {
		t.Fatalf("ipv4 got=%v ok=%v", v, ok)
	}
	if v, ok := r.Bytes(2); !ok || !bytes.Equal(v, []byte{0xaa, 0xbb}) {
		t.Fatalf("bytes got=%v ok=%v", v, ok)
	}
	if r.Remaining() != 0 || r.Offset() != 13 {
		t.Fatalf("unexpected cursor remaining=%d offset=%d", r.Remaining(), r.Offset())
	}
}

func TestReaderShortInputDoesNotAdvance(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x03})
	if _, ok := r.BE32(); ok {
		t.Fatalf("expected be32 to fail on 3 bytes")
	}
	if _, ok := r.IPv4(); ok {
		t.Fatalf("expected ipv4 to fail on 3 bytes")
	}
	if _, ok := r.Bytes(4); ok {
		t.Fatalf("expected bytes(4) to fail on 3 bytes")
	}
	if r.Offset() != 0 {
		t.Fatalf("cursor advanced on failure: %d", r.Offset())
	}
	if v, ok := r.BE16(); !ok || v != 0x0102 {
		t.Fatalf("be16 got=%#x ok=%v", v, ok)
	}
	if _, ok := r.BE16(); ok {
		t.Fatalf("expected be16 to fail on 1 byte")
	}
	if v, ok := r.U8(); !ok || v != 0x03 {
		t.Fatalf("u8 got=%d ok=%v", v, ok)
	}
	if _, ok := r.U8(); ok {
		t.Fatalf("expected u8 to fail on empty input")
	}
}

func TestReaderBytesIsACopy(t *testing.T) {
	src := []byte{1, 2, 3}
	r := NewReader(src)
	out, _ := r.Bytes(3)
	out[0] = 9
	if src[0] != 1 {
		t.Fatalf("Bytes aliased the source buffer")
	}
}

func TestReaderDomainLabels(t *testing.T) {
	in := []byte{
		7, 'e', 'x', 'a', 'm', 'p', 'l', 'e', 3, 'c', 'o', 'm', 0,
		3, 'w', 'w', 'w', 0xc0, 0x00,
	}
	got, ok := NewReader(in).DomainLabels()
	if !ok {
		t.Fatalf("expected domain labels to decode")
	}
	want := [][]string{{"example", "com"}, {"www", "example", "com"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("labels got=%v want=%v", got, want)
	}
}

func TestReaderDomainLabelsAreRawBytes(t *testing.T) {
	in := []byte{
		3, 'a', ' ', 'b', 2, 0xc3, 0xa9, 0,
		3, 'x', '.', 'y', 0xc0, 0x04,
	}
	got, ok := NewReader(in).DomainLabels()
	if !ok {
		t.Fatalf("expected domain labels to decode")
	}
	want := [][]string{{"a b", "\xc3\xa9"}, {"x.y", "\xc3\xa9"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("labels got=%q want=%q", got, want)
	}
}

func TestReaderDomainLabelsEmpty(t *testing.T) {
	got, ok := NewReader(nil).DomainLabels()
	if !ok || len(got) != 0 {
		t.Fatalf("expected empty list, got=%v ok=%v", got, ok)
	}
}

func TestReaderDomainLabelsMalformed(t *testing.T) {
	cases := map[string][]byte{
		"unterminated": {3, 'f', 'o', 'o'},
		"overrun":      {9, 'f', 'o', 'o', 0},
		"bad pointer":  {0xc0, 0x40},
		"pointer loop": {0xc0, 0x00},
	}
	for name, in := range cases {
		r := NewReader(in)
		if _, ok := r.DomainLabels(); ok {
			t.Fatalf("%s: expected failure", name)
		}
		if r.Offset() != 0 {
			t.Fatalf("%s: cursor advanced on failure", name)
		}
	}
}
