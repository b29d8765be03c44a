package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// TemplateKinds lists the sample templates in name order.
func TemplateKinds() []string {
	kinds := make([]string, 0, len(templates))
	for k := range templates {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

func Template(kind string) (string, error) {
	tpl, ok := templates[strings.ToLower(strings.TrimSpace(kind))]
	if !ok {
		return "", fmt.Errorf("unknown template kind: %s", kind)
	}
	return tpl, nil
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("template already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

var templates = map[string]string{
	"discover": discoverTemplate,
	"request":  requestTemplate,
	"offer":    offerTemplate,
}

const discoverTemplate = `op = "request"
xid = 0x3903f326
broadcast = true
chaddr = "00:05:3c:04:8d:59"
message_type = "discover"
param_list = ["netmask", "routers", "dns-servers", "domain-name"]

[options]
host-name = "lab-client"
client-id = "01:00:05:3c:04:8d:59"
`

const requestTemplate = `op = "request"
xid = 0x3903f326
chaddr = "00:05:3c:04:8d:59"
message_type = "request"

[options]
address-request = "192.168.1.100"
server-id = "192.168.1.1"
host-name = "lab-client"
`

const offerTemplate = `op = "reply"
xid = 0x3903f326
yiaddr = "192.168.1.100"
siaddr = "192.168.1.1"
chaddr = "00:05:3c:04:8d:59"
message_type = "offer"

[options]
server-id = "192.168.1.1"
lease-time = 86400
netmask = "255.255.255.0"
routers = ["192.168.1.1"]
dns-servers = ["192.168.1.1", "9.9.9.9"]
dns-searches = ["lab.example", "example"]
routes = ["10.0.0.0/8->192.168.1.254"]
`
