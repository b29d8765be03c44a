package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/netip"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/danmuck/dhcpwire/internal/protocol"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

type optionView struct {
	Code      uint8  `json:"code" yaml:"code"`
	Name      string `json:"name" yaml:"name"`
	Type      string `json:"type" yaml:"type"`
	Value     string `json:"value,omitempty" yaml:"value,omitempty"`
	Raw       string `json:"raw" yaml:"raw"`
	Malformed bool   `json:"malformed,omitempty" yaml:"malformed,omitempty"`
}

type packetView struct {
	Src         string       `json:"src,omitempty" yaml:"src,omitempty"`
	Dst         string       `json:"dst,omitempty" yaml:"dst,omitempty"`
	Op          string       `json:"op" yaml:"op"`
	HType       string       `json:"htype" yaml:"htype"`
	HLen        uint8        `json:"hlen" yaml:"hlen"`
	Hops        uint8        `json:"hops" yaml:"hops"`
	XID         string       `json:"xid" yaml:"xid"`
	Secs        uint16       `json:"secs" yaml:"secs"`
	Flags       uint16       `json:"flags" yaml:"flags"`
	Broadcast   bool         `json:"broadcast" yaml:"broadcast"`
	CIAddr      string       `json:"ciaddr" yaml:"ciaddr"`
	YIAddr      string       `json:"yiaddr" yaml:"yiaddr"`
	SIAddr      string       `json:"siaddr" yaml:"siaddr"`
	GIAddr      string       `json:"giaddr" yaml:"giaddr"`
	CHAddr      string       `json:"chaddr" yaml:"chaddr"`
	SName       string       `json:"sname,omitempty" yaml:"sname,omitempty"`
	File        string       `json:"file,omitempty" yaml:"file,omitempty"`
	MessageType string       `json:"message_type,omitempty" yaml:"message_type,omitempty"`
	Options     []optionView `json:"options" yaml:"options"`
}

func viewOf(p *protocol.Packet, src, dst netip.AddrPort) packetView {
	v := packetView{
		Op:        p.Op.String(),
		HType:     p.HType.String(),
		HLen:      p.HLen,
		Hops:      p.Hops,
		XID:       fmt.Sprintf("%#08x", p.XID),
		Secs:      p.Secs,
		Flags:     p.Flags,
		Broadcast: p.IsBroadcast(),
		CIAddr:    p.CIAddr.String(),
		YIAddr:    p.YIAddr.String(),
		SIAddr:    p.SIAddr.String(),
		GIAddr:    p.GIAddr.String(),
		CHAddr:    hex.EncodeToString(p.CHAddr),
		SName:     p.ServerName(),
		File:      p.BootFile(),
		Options:   []optionView{},
	}
	if src.IsValid() {
		v.Src = src.String()
	}
	if dst.IsValid() {
		v.Dst = dst.String()
	}
	if mt, ok := p.Options.MessageType(); ok {
		v.MessageType = mt.String()
	}
	for _, code := range p.Options.Codes() {
		raw, _ := p.Options.Raw(code)
		typ, _ := code.Type()
		ov := optionView{
			Code: uint8(code),
			Name: code.String(),
			Type: typ.String(),
			Raw:  hex.EncodeToString(raw),
		}
		switch code {
		case protocol.OptionMessageType:
			ov.Value = v.MessageType
		case protocol.OptionParamList:
			if params, ok := p.Options.ParamList(); ok {
				names := make([]string, len(params))
				for i, c := range params {
					names[i] = c.String()
				}
				ov.Value = strings.Join(names, ",")
			}
		default:
			if val, ok := p.Options.Get(code); ok {
				ov.Value = val.String()
			} else {
				ov.Malformed = true
			}
		}
		v.Options = append(v.Options, ov)
	}
	return v
}

// renderer writes a sequence of packets in one output format.
type renderer struct {
	w      io.Writer
	format string
	json   *json.Encoder
	yaml   *yaml.Encoder
}

func newRenderer(w io.Writer, format string) (*renderer, error) {
	r := &renderer{w: w, format: strings.ToLower(strings.TrimSpace(format))}
	switch r.format {
	case formatText:
	case formatJSON:
		r.json = json.NewEncoder(w)
		r.json.SetIndent("", "  ")
	case formatYAML:
		r.yaml = yaml.NewEncoder(w)
		r.yaml.SetIndent(2)
	default:
		return nil, fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}
	return r, nil
}

func (r *renderer) packet(p *protocol.Packet, src, dst netip.AddrPort) error {
	switch r.format {
	case formatJSON:
		return r.json.Encode(viewOf(p, src, dst))
	case formatYAML:
		return r.yaml.Encode(viewOf(p, src, dst))
	}
	if src.IsValid() || dst.IsValid() {
		if _, err := fmt.Fprintf(r.w, "# %s -> %s\n", src, dst); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(r.w, p.String())
	return err
}

// failure reports a datagram that did not parse.
func (r *renderer) failure(err error, src, dst netip.AddrPort) error {
	variant := protocol.VariantName(err)
	doc := map[string]string{"error": err.Error(), "variant": variant}
	if src.IsValid() {
		doc["src"] = src.String()
	}
	if dst.IsValid() {
		doc["dst"] = dst.String()
	}
	switch r.format {
	case formatJSON:
		return r.json.Encode(doc)
	case formatYAML:
		return r.yaml.Encode(doc)
	}
	if src.IsValid() || dst.IsValid() {
		if _, werr := fmt.Fprintf(r.w, "# %s -> %s\n", src, dst); werr != nil {
			return werr
		}
	}
	_, werr := fmt.Fprintf(r.w, "%s: %v\n", variant, err)
	return werr
}

func (r *renderer) close() error {
	if r.yaml != nil {
		return r.yaml.Close()
	}
	return nil
}

func renderRegistry(w io.Writer, format string) error {
	defs := protocol.Registry()
	switch strings.ToLower(strings.TrimSpace(format)) {
	case formatJSON, formatYAML:
		rows := make([]map[string]any, len(defs))
		for i, d := range defs {
			rows[i] = map[string]any{"code": uint8(d.Code), "name": d.Name, "type": d.Type.String()}
		}
		if strings.EqualFold(format, formatJSON) {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(rows)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return err
		}
		return enc.Close()
	case formatText:
		for _, d := range defs {
			if _, err := fmt.Fprintf(w, "%3d  %-22s %s\n", uint8(d.Code), d.Name, d.Type); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}
}
