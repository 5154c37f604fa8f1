package protocol

import (
	"errors"

	"github.com/mcstructs/mcstructs/pkg/varint"
)

// ErrorPacketID is the packet id used to report a protocol error to the
// peer before the connection is closed.
const ErrorPacketID int32 = 0x7F

// ErrorCode identifies the type of error.
type ErrorCode uint16

const (
	CodeUnknown         ErrorCode = 0x0000 // Unknown error
	CodeMalformedPacket ErrorCode = 0x0001 // Packet body could not be decoded
	CodeOverlong        ErrorCode = 0x0002 // VarInt/VarLong used too many groups
	CodeTooLarge        ErrorCode = 0x0003 // Frame exceeded the size limit
	CodeTruncated       ErrorCode = 0x0004 // Stream ended mid-value
	CodeUnexpected      ErrorCode = 0x0005 // Unexpected packet id
	CodeServerError     ErrorCode = 0x0100 // Internal server error
)

// String returns the string representation of the error code.
func (ec ErrorCode) String() string {
	switch ec {
	case CodeUnknown:
		return "Unknown"
	case CodeMalformedPacket:
		return "MalformedPacket"
	case CodeOverlong:
		return "Overlong"
	case CodeTooLarge:
		return "TooLarge"
	case CodeTruncated:
		return "Truncated"
	case CodeUnexpected:
		return "Unexpected"
	case CodeServerError:
		return "ServerError"
	default:
		return "Unknown"
	}
}

// CodeFor maps a decoding error to the code reported to the peer.
func CodeFor(err error) ErrorCode {
	switch {
	case err == nil:
		return CodeUnknown
	case errors.Is(err, varint.ErrOverlong):
		return CodeOverlong
	case errors.Is(err, ErrPacketTooLarge), errors.Is(err, ErrAllocationTooLarge),
		errors.Is(err, ErrStringTooLong):
		return CodeTooLarge
	case errors.Is(err, varint.ErrReadFailure), errors.Is(err, ErrTruncated):
		return CodeTruncated
	case errors.Is(err, ErrUnexpectedPacket):
		return CodeUnexpected
	default:
		return CodeMalformedPacket
	}
}

// ErrorMessage is sent when an error occurs.
type ErrorMessage struct {
	Code    ErrorCode // Error code
	Message string    // Human-readable error message
	Fatal   bool      // If true, connection should be closed
}

// Packet encodes the message into an ErrorPacketID packet.
func (em *ErrorMessage) Packet() *Packet {
	e := NewEncoder()
	EncodeErrorMessageTo(e, em)
	return NewPacket(ErrorPacketID, e.Bytes())
}

// EncodeErrorMessageTo encodes an ErrorMessage using the provided encoder.
func EncodeErrorMessageTo(e *Encoder, em *ErrorMessage) {
	e.WriteUint16(uint16(em.Code))
	e.WriteString(em.Message)
	e.WriteBool(em.Fatal)
}

// DecodeErrorMessage decodes an ErrorMessage from a packet.
func DecodeErrorMessage(p *Packet) (*ErrorMessage, error) {
	if p.ID != ErrorPacketID {
		return nil, ErrUnexpectedPacket
	}
	return DecodeErrorMessageFrom(p.Decoder())
}

// DecodeErrorMessageFrom decodes an ErrorMessage from a decoder.
func DecodeErrorMessageFrom(d *Decoder) (*ErrorMessage, error) {
	code, err := d.ReadUint16()
	if err != nil {
		return nil, err
	}

	message, err := d.ReadString()
	if err != nil {
		return nil, err
	}

	fatal, err := d.ReadBool()
	if err != nil {
		return nil, err
	}

	return &ErrorMessage{
		Code:    ErrorCode(code),
		Message: message,
		Fatal:   fatal,
	}, nil
}

// NewError creates a new non-fatal ErrorMessage.
func NewError(code ErrorCode, message string) *ErrorMessage {
	return &ErrorMessage{
		Code:    code,
		Message: message,
		Fatal:   false,
	}
}

// NewFatalError creates a new fatal ErrorMessage.
func NewFatalError(code ErrorCode, message string) *ErrorMessage {
	return &ErrorMessage{
		Code:    code,
		Message: message,
		Fatal:   true,
	}
}

// Error implements the error interface.
func (em *ErrorMessage) Error() string {
	if em.Fatal {
		return "fatal: " + em.Code.String() + ": " + em.Message
	}
	return em.Code.String() + ": " + em.Message
}

// IsFatal returns true if this error should close the connection.
func (em *ErrorMessage) IsFatal() bool {
	return em.Fatal
}
