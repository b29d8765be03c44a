// Package schema checks decoded packets against the per message type option
// rules of RFC 2131 (tables 3 and 5).
package schema

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/dhcpwire/internal/protocol"
)

type Presence uint8

const (
	May Presence = iota
	Must
	MustNot
)

// Requirement constrains one option for a message type. Type is checked
// only when the option is present.
type Requirement struct {
	Option   protocol.OptionCode
	Presence Presence
	Type     protocol.OptionType
}

type ValidationError struct {
	MessageType protocol.MessageType
	Option      protocol.OptionCode
	Reason      string
}

func (e ValidationError) Error() string {
	if e.Option == 0 {
		return fmt.Sprintf("schema: message_type=%s: %s", e.MessageType, e.Reason)
	}
	return fmt.Sprintf("schema: message_type=%s option=%s: %s", e.MessageType, e.Option, e.Reason)
}

const (
	ReasonMissingMessageType   = "missing message type"
	ReasonMalformedMessageType = "malformed message type"
	ReasonUnknownMessageType   = "unknown message type"
	ReasonOpMismatch           = "op does not match message type"
	ReasonMissingOption        = "missing required option"
	ReasonForbiddenOption      = "option not allowed"
	ReasonMalformedOption      = "malformed option"
	ReasonMissingYIAddr        = "missing yiaddr"
)

var serverID = Requirement{protocol.OptionServerID, Must, protocol.TypeIP}

var requirements = map[protocol.MessageType][]Requirement{
	protocol.MessageDiscover: {
		{protocol.OptionAddressRequest, May, protocol.TypeIP},
		{protocol.OptionServerID, MustNot, protocol.TypeIP},
	},
	protocol.MessageOffer: {
		serverID,
		{protocol.OptionLeaseTime, Must, protocol.TypeSeconds32},
		{protocol.OptionAddressRequest, MustNot, protocol.TypeIP},
		{protocol.OptionParamList, MustNot, protocol.TypeUnknown},
	},
	protocol.MessageRequest: {
		{protocol.OptionAddressRequest, May, protocol.TypeIP},
		{protocol.OptionServerID, May, protocol.TypeIP},
	},
	protocol.MessageDecline: {
		serverID,
		{protocol.OptionAddressRequest, Must, protocol.TypeIP},
		{protocol.OptionLeaseTime, MustNot, protocol.TypeSeconds32},
		{protocol.OptionParamList, MustNot, protocol.TypeUnknown},
	},
	protocol.MessageAck: {
		serverID,
		{protocol.OptionAddressRequest, MustNot, protocol.TypeIP},
		{protocol.OptionParamList, MustNot, protocol.TypeUnknown},
	},
	protocol.MessageNak: {
		serverID,
		{protocol.OptionLeaseTime, MustNot, protocol.TypeSeconds32},
		{protocol.OptionAddressRequest, MustNot, protocol.TypeIP},
		{protocol.OptionParamList, MustNot, protocol.TypeUnknown},
	},
	protocol.MessageRelease: {
		serverID,
		{protocol.OptionAddressRequest, MustNot, protocol.TypeIP},
		{protocol.OptionLeaseTime, MustNot, protocol.TypeSeconds32},
		{protocol.OptionParamList, MustNot, protocol.TypeUnknown},
	},
	protocol.MessageInform: {
		{protocol.OptionAddressRequest, MustNot, protocol.TypeIP},
		{protocol.OptionLeaseTime, MustNot, protocol.TypeSeconds32},
		{protocol.OptionServerID, MustNot, protocol.TypeIP},
	},
	protocol.MessageForceRenew: {
		serverID,
	},
}

var direction = map[protocol.MessageType]protocol.Op{
	protocol.MessageDiscover:   protocol.OpBootRequest,
	protocol.MessageRequest:    protocol.OpBootRequest,
	protocol.MessageDecline:    protocol.OpBootRequest,
	protocol.MessageRelease:    protocol.OpBootRequest,
	protocol.MessageInform:     protocol.OpBootRequest,
	protocol.MessageOffer:      protocol.OpBootReply,
	protocol.MessageAck:        protocol.OpBootReply,
	protocol.MessageNak:        protocol.OpBootReply,
	protocol.MessageForceRenew: protocol.OpBootReply,
}

// Requirements returns the rules applied to messages of type mt.
func Requirements(mt protocol.MessageType) ([]Requirement, bool) {
	reqs, ok := requirements[mt]
	if !ok {
		return nil, false
	}
	return append([]Requirement(nil), reqs...), true
}

// Validate checks that p is a well formed DHCP message: exactly one known
// message type byte, an op matching it and the option presence rules for
// that type. Options not named by a rule are ignored.
func Validate(p *protocol.Packet) error {
	if p == nil {
		return ValidationError{Reason: ReasonMissingMessageType}
	}
	log.Debug().
		Uint32("xid", p.XID).
		Int("options", p.Options.Len()).
		Msg("schema.Validate")
	if !p.Options.Has(protocol.OptionMessageType) {
		return reject(ValidationError{Option: protocol.OptionMessageType, Reason: ReasonMissingMessageType})
	}
	mt, ok := p.Options.MessageType()
	if !ok {
		return reject(ValidationError{Option: protocol.OptionMessageType, Reason: ReasonMalformedMessageType})
	}
	reqs, known := requirements[mt]
	if !known {
		return reject(ValidationError{MessageType: mt, Option: protocol.OptionMessageType, Reason: ReasonUnknownMessageType})
	}
	if p.Op != direction[mt] {
		return reject(ValidationError{MessageType: mt, Reason: ReasonOpMismatch})
	}

	for _, req := range reqs {
		if err := check(p, mt, req); err != nil {
			return reject(*err)
		}
	}
	if mt == protocol.MessageOffer && (!p.YIAddr.IsValid() || p.YIAddr.IsUnspecified()) {
		return reject(ValidationError{MessageType: mt, Reason: ReasonMissingYIAddr})
	}
	log.Debug().Str("message_type", mt.String()).Msg("schema.Validate ok")
	return nil
}

func check(p *protocol.Packet, mt protocol.MessageType, req Requirement) *ValidationError {
	raw, ok := p.Options.Raw(req.Option)
	switch {
	case !ok && req.Presence == Must:
		return &ValidationError{MessageType: mt, Option: req.Option, Reason: ReasonMissingOption}
	case ok && req.Presence == MustNot:
		return &ValidationError{MessageType: mt, Option: req.Option, Reason: ReasonForbiddenOption}
	case !ok:
		return nil
	}
	if _, decoded := req.Type.Decode(raw); !decoded {
		return &ValidationError{MessageType: mt, Option: req.Option, Reason: ReasonMalformedOption}
	}
	return nil
}

func reject(err ValidationError) error {
	log.Debug().
		Str("message_type", err.MessageType.String()).
		Str("option", err.Option.String()).
		Str("reason", err.Reason).
		Msg("schema.Validate rejected")
	return err
}
