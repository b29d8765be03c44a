package protocol

import "testing"

func TestOptionByName(t *testing.T) {
	cases := map[string]OptionCode{
		"netmask":      OptionNetmask,
		"host-name":    OptionHostname,
		"server-id":    OptionServerID,
		"dns-searches": OptionDomainSearch,
		"routes":       OptionClasslessRoutes,
		"wpad-url":     OptionWPAD,
	}
	for name, want := range cases {
		got, ok := OptionByName(name)
		if !ok || got != want {
			t.Fatalf("OptionByName(%q) got=%d ok=%v want=%d", name, got, ok, want)
		}
	}
	if _, ok := OptionByName("no-such-option"); ok {
		t.Fatalf("expected unknown name lookup to fail")
	}
}

func TestOptionTypeLookup(t *testing.T) {
	if typ, ok := OptionLeaseTime.Type(); !ok || typ != TypeSeconds32 {
		t.Fatalf("lease-time type got=%s ok=%v", typ, ok)
	}
	if typ, ok := OptionDomainSearch.Type(); !ok || typ != TypeDomainList {
		t.Fatalf("dns-searches type got=%s ok=%v", typ, ok)
	}
	for _, code := range []OptionCode{
		OptionPad, OptionVendorSpecific, OptionOverload, OptionMessageType,
		OptionParamList, OptionRelayAgentInfo, OptionAuthentication, OptionEnd,
	} {
		if _, ok := code.Type(); ok {
			t.Fatalf("expected no registry mapping for %d", code)
		}
	}
}

func TestOptionCodeString(t *testing.T) {
	if OptionRouters.String() != "routers" {
		t.Fatalf("unexpected name %q", OptionRouters.String())
	}
	if OptionCode(224).String() != "#224" {
		t.Fatalf("unexpected unlisted name %q", OptionCode(224).String())
	}
}

func TestRegistryIsConsistent(t *testing.T) {
	names := make(map[string]bool)
	codes := make(map[OptionCode]bool)
	for _, def := range Registry() {
		if names[def.Name] || codes[def.Code] {
			t.Fatalf("duplicate registry row %+v", def)
		}
		names[def.Name] = true
		codes[def.Code] = true
		if got, _ := OptionByName(def.Name); got != def.Code {
			t.Fatalf("name lookup for %s got=%d", def.Name, got)
		}
		if def.Code == OptionPad || def.Code == OptionEnd {
			t.Fatalf("reserved code in registry: %+v", def)
		}
	}

	// Mutating the returned copy does not affect lookups.
	rows := Registry()
	rows[0].Name = "changed"
	if _, ok := OptionByName("netmask"); !ok {
		t.Fatalf("registry copy aliased the table")
	}
}
