package protocol

import "errors"

var (
	ErrUnexpectedEndOfInput = errors.New("protocol: unexpected end of input")
	ErrWrongMagic           = errors.New("protocol: wrong magic")
	ErrInvalidPacket        = errors.New("protocol: invalid packet")
)

// VariantName returns a stable label for err, for metrics and logs.
func VariantName(err error) string {
	switch {
	case err == nil:
		return "OK"
	case errors.Is(err, ErrUnexpectedEndOfInput):
		return "TRUNCATED_PACKET"
	case errors.Is(err, ErrWrongMagic):
		return "WRONG_MAGIC"
	case errors.Is(err, ErrInvalidPacket):
		return "INVALID_PACKET"
	default:
		return "UNKNOWN"
	}
}
