package protocol

import "fmt"

// OptionType is the semantic encoding of an option payload.
type OptionType uint8

const (
	TypeUnknown OptionType = iota
	TypeString
	TypeIP
	TypeIPList
	TypeI32
	TypeU8
	TypeU16
	TypeU32
	TypeBool
	TypeSeconds16
	TypeSeconds32
	TypeHwAddr
	TypeRoutes
	TypeDomainList
)

var optionTypeNames = [...]string{
	TypeUnknown:    "unknown",
	TypeString:     "string",
	TypeIP:         "ip",
	TypeIPList:     "ip-list",
	TypeI32:        "i32",
	TypeU8:         "u8",
	TypeU16:        "u16",
	TypeU32:        "u32",
	TypeBool:       "bool",
	TypeSeconds16:  "seconds16",
	TypeSeconds32:  "seconds32",
	TypeHwAddr:     "hwaddr",
	TypeRoutes:     "routes",
	TypeDomainList: "domain-list",
}

func (t OptionType) String() string {
	if int(t) < len(optionTypeNames) {
		return optionTypeNames[t]
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// OptionCode is the one byte option tag.
type OptionCode uint8

const (
	OptionPad              OptionCode = 0
	OptionNetmask          OptionCode = 1
	OptionTimeOffset       OptionCode = 2
	OptionRouters          OptionCode = 3
	OptionTimeServers      OptionCode = 4
	OptionNameServers      OptionCode = 5
	OptionDNSServers       OptionCode = 6
	OptionLogServers       OptionCode = 7
	OptionQuoteServers     OptionCode = 8
	OptionLPRServers       OptionCode = 9
	OptionImpressServers   OptionCode = 10
	OptionRLPServers       OptionCode = 11
	OptionHostname         OptionCode = 12
	OptionDomainName       OptionCode = 15
	OptionRootPath         OptionCode = 17
	OptionExtensionFile    OptionCode = 18
	OptionForward          OptionCode = 19
	OptionSourceRoute      OptionCode = 20
	OptionMaxReassembly    OptionCode = 21
	OptionDefaultTTL       OptionCode = 23
	OptionMTUTimeout       OptionCode = 24
	OptionMTU              OptionCode = 26
	OptionMTUSubnet        OptionCode = 27
	OptionBroadcast        OptionCode = 28
	OptionMaskDiscovery    OptionCode = 29
	OptionMaskSupplier     OptionCode = 30
	OptionRouterDiscovery  OptionCode = 31
	OptionRouterRequest    OptionCode = 32
	OptionClassfulRoutes   OptionCode = 33
	OptionTrailers         OptionCode = 34
	OptionARPTimeout       OptionCode = 35
	OptionEthernet         OptionCode = 36
	OptionTCPTTL           OptionCode = 37
	OptionTCPKeepalive     OptionCode = 38
	OptionTCPKeepaliveJunk OptionCode = 39
	OptionNISDomain        OptionCode = 40
	OptionNISServers       OptionCode = 41
	OptionNTPServers       OptionCode = 42
	OptionVendorSpecific   OptionCode = 43
	OptionNetBIOSNameSrv   OptionCode = 44
	OptionNetBIOSDistSrv   OptionCode = 45
	OptionNetBIOSType      OptionCode = 46
	OptionNetBIOSScope     OptionCode = 47
	OptionXFontServers     OptionCode = 48
	OptionXDisplay         OptionCode = 49
	OptionAddressRequest   OptionCode = 50
	OptionLeaseTime        OptionCode = 51
	OptionOverload         OptionCode = 52
	OptionMessageType      OptionCode = 53
	OptionServerID         OptionCode = 54
	OptionParamList        OptionCode = 55
	OptionMessage          OptionCode = 56
	OptionMaxMessageSize   OptionCode = 57
	OptionRenewalTime      OptionCode = 58
	OptionRebindTime       OptionCode = 59
	OptionVendorClass      OptionCode = 60
	OptionClientID         OptionCode = 61
	OptionNISPlusDomain    OptionCode = 64
	OptionNISPlusServers   OptionCode = 65
	OptionTFTPServer       OptionCode = 66
	OptionBootfileName     OptionCode = 67
	OptionHomeAgents       OptionCode = 68
	OptionSMTPServers      OptionCode = 69
	OptionPOP3Servers      OptionCode = 70
	OptionNNTPServers      OptionCode = 71
	OptionWWWServers       OptionCode = 72
	OptionFingerServers    OptionCode = 73
	OptionIRCServers       OptionCode = 74
	OptionStreetTalk       OptionCode = 75
	OptionSTDAServers      OptionCode = 76
	OptionUserClass        OptionCode = 77
	OptionFQDN             OptionCode = 81
	OptionRelayAgentInfo   OptionCode = 82
	OptionAuthentication   OptionCode = 90
	OptionUUID             OptionCode = 97
	OptionTZRule           OptionCode = 100
	OptionTZName           OptionCode = 101
	OptionAutoConfig       OptionCode = 103
	OptionSubnetSelection  OptionCode = 104
	OptionDomainSearch     OptionCode = 119
	OptionSIPServers       OptionCode = 120
	OptionClasslessRoutes  OptionCode = 121
	OptionCaptivePortal    OptionCode = 160
	OptionWPAD             OptionCode = 252
	OptionEnd              OptionCode = 255
)

type optionInfo struct {
	name string
	code OptionCode
	typ  OptionType
}

// optionTable lists every option with a direct scalar or list encoding.
// Message type, parameter list, overload, vendor specific, relay agent
// information and authentication need structural handling and are
// deliberately absent.
var optionTable = [...]optionInfo{
	{"netmask", OptionNetmask, TypeIP},
	{"time-offset", OptionTimeOffset, TypeI32},
	{"routers", OptionRouters, TypeIPList},
	{"time-servers", OptionTimeServers, TypeIPList},
	{"name-servers", OptionNameServers, TypeIPList},
	{"dns-servers", OptionDNSServers, TypeIPList},
	{"log-servers", OptionLogServers, TypeIPList},
	{"quote-servers", OptionQuoteServers, TypeIPList},
	{"lpr-servers", OptionLPRServers, TypeIPList},
	{"impress-servers", OptionImpressServers, TypeIPList},
	{"rlp-servers", OptionRLPServers, TypeIPList},
	{"host-name", OptionHostname, TypeString},
	{"domain-name", OptionDomainName, TypeString},
	{"root-path", OptionRootPath, TypeString},
	{"extension-file", OptionExtensionFile, TypeString},
	{"forward", OptionForward, TypeBool},
	{"source-route", OptionSourceRoute, TypeBool},
	{"max-reassembly", OptionMaxReassembly, TypeSeconds16},
	{"default-ttl", OptionDefaultTTL, TypeU8},
	{"mtu-timeout", OptionMTUTimeout, TypeSeconds32},
	{"mtu", OptionMTU, TypeU16},
	{"mtu-subnet", OptionMTUSubnet, TypeBool},
	{"broadcast", OptionBroadcast, TypeIP},
	{"mask-discovery", OptionMaskDiscovery, TypeBool},
	{"mask-supplier", OptionMaskSupplier, TypeBool},
	{"router-discovery", OptionRouterDiscovery, TypeBool},
	{"router-request", OptionRouterRequest, TypeIP},
	{"classful-route", OptionClassfulRoutes, TypeUnknown},
	{"trailers", OptionTrailers, TypeBool},
	{"arp-timeout", OptionARPTimeout, TypeSeconds32},
	{"ethernet", OptionEthernet, TypeBool},
	{"tcp-ttl", OptionTCPTTL, TypeU16},
	{"tcp-keepalive", OptionTCPKeepalive, TypeSeconds32},
	{"tcp-keepalive-garbage", OptionTCPKeepaliveJunk, TypeBool},
	{"nis-domain", OptionNISDomain, TypeString},
	{"nis-servers", OptionNISServers, TypeIPList},
	{"ntp-servers", OptionNTPServers, TypeIPList},
	{"netbios-namesrv", OptionNetBIOSNameSrv, TypeIPList},
	{"netbios-distsrv", OptionNetBIOSDistSrv, TypeIPList},
	{"netbios-type", OptionNetBIOSType, TypeU8},
	{"netbios-scope", OptionNetBIOSScope, TypeString},
	{"xwindow-font-servers", OptionXFontServers, TypeIPList},
	{"xwindow-display", OptionXDisplay, TypeIPList},
	{"address-request", OptionAddressRequest, TypeIP},
	{"lease-time", OptionLeaseTime, TypeSeconds32},
	{"server-id", OptionServerID, TypeIP},
	{"message", OptionMessage, TypeString},
	{"max-size", OptionMaxMessageSize, TypeU16},
	{"renewal-time", OptionRenewalTime, TypeSeconds16},
	{"rebind-time", OptionRebindTime, TypeSeconds16},
	{"class-id", OptionVendorClass, TypeString},
	{"client-id", OptionClientID, TypeHwAddr},
	{"nisplus-domain", OptionNISPlusDomain, TypeString},
	{"nisplus-servers", OptionNISPlusServers, TypeIPList},
	{"home-agent-servers", OptionHomeAgents, TypeIPList},
	{"smtp-servers", OptionSMTPServers, TypeIPList},
	{"pop3-servers", OptionPOP3Servers, TypeIPList},
	{"nntp-servers", OptionNNTPServers, TypeIPList},
	{"www-servers", OptionWWWServers, TypeIPList},
	{"finger-servers", OptionFingerServers, TypeIPList},
	{"irc-servers", OptionIRCServers, TypeIPList},
	{"streettalk-servers", OptionStreetTalk, TypeIPList},
	{"stda-servers", OptionSTDAServers, TypeIPList},
	{"user-class", OptionUserClass, TypeString},
	{"fqdn", OptionFQDN, TypeString},
	{"uuid", OptionUUID, TypeUnknown},
	{"tz-rule", OptionTZRule, TypeString},
	{"tz-name", OptionTZName, TypeString},
	{"autoconfig", OptionAutoConfig, TypeBool},
	{"subnet-selection", OptionSubnetSelection, TypeIP},
	{"dns-searches", OptionDomainSearch, TypeDomainList},
	{"sip-servers", OptionSIPServers, TypeUnknown},
	{"routes", OptionClasslessRoutes, TypeRoutes},
	{"captive-portal", OptionCaptivePortal, TypeString},
	{"wpad-url", OptionWPAD, TypeString},
}

// OptionByName returns the code registered under name.
func OptionByName(name string) (OptionCode, bool) {
	for _, info := range optionTable {
		if info.name == name {
			return info.code, true
		}
	}
	return 0, false
}

// Type returns the registered encoding of c. Unlisted codes have no mapping
// and are treated as opaque by callers.
func (c OptionCode) Type() (OptionType, bool) {
	for _, info := range optionTable {
		if info.code == c {
			return info.typ, true
		}
	}
	return TypeUnknown, false
}

// Name returns the registered name of c, if any.
func (c OptionCode) Name() (string, bool) {
	for _, info := range optionTable {
		if info.code == c {
			return info.name, true
		}
	}
	return "", false
}

func (c OptionCode) String() string {
	if name, ok := c.Name(); ok {
		return name
	}
	return fmt.Sprintf("#%d", uint8(c))
}

// OptionDef is the exported view of one registry row.
type OptionDef struct {
	Name string
	Code OptionCode
	Type OptionType
}

// Registry returns a copy of the option table in declaration order.
func Registry() []OptionDef {
	out := make([]OptionDef, len(optionTable))
	for i, info := range optionTable {
		out[i] = OptionDef{Name: info.name, Code: info.code, Type: info.typ}
	}
	return out
}
