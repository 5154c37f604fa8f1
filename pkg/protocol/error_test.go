package protocol

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/mcstructs/mcstructs/pkg/varint"
)

func TestErrorMessageEncodeDecode(t *testing.T) {
	tests := []struct {
		name string
		em   *ErrorMessage
	}{
		{
			name: "simple_error",
			em:   NewError(CodeMalformedPacket, "bad handshake"),
		},
		{
			name: "fatal_error",
			em:   NewFatalError(CodeOverlong, "varint too long"),
		},
		{
			name: "empty_message",
			em:   &ErrorMessage{Code: CodeUnknown},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			decoded, err := DecodeErrorMessage(tc.em.Packet())
			if err != nil {
				t.Fatalf("DecodeErrorMessage() error: %v", err)
			}
			if *decoded != *tc.em {
				t.Errorf("DecodeErrorMessage() = %+v, want %+v", decoded, tc.em)
			}
		})
	}
}

func TestDecodeErrorMessage_WrongID(t *testing.T) {
	if _, err := DecodeErrorMessage(NewPacket(0x01, nil)); !errors.Is(err, ErrUnexpectedPacket) {
		t.Errorf("error = %v, want ErrUnexpectedPacket", err)
	}
}

func TestErrorMessage_Error(t *testing.T) {
	if got := NewError(CodeTooLarge, "frame").Error(); got != "TooLarge: frame" {
		t.Errorf("Error() = %q", got)
	}
	em := NewFatalError(CodeOverlong, "length")
	if got := em.Error(); got != "fatal: Overlong: length" {
		t.Errorf("Error() = %q", got)
	}
	if !em.IsFatal() {
		t.Error("IsFatal() = false, want true")
	}
}

func TestErrorCode_String(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want string
	}{
		{CodeUnknown, "Unknown"},
		{CodeMalformedPacket, "MalformedPacket"},
		{CodeOverlong, "Overlong"},
		{CodeTooLarge, "TooLarge"},
		{CodeTruncated, "Truncated"},
		{CodeUnexpected, "Unexpected"},
		{CodeServerError, "ServerError"},
		{ErrorCode(0xFFFF), "Unknown"},
	}

	for _, tc := range tests {
		if got := tc.code.String(); got != tc.want {
			t.Errorf("ErrorCode(%#x).String() = %q, want %q", uint16(tc.code), got, tc.want)
		}
	}
}

func TestCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil", nil, CodeUnknown},
		{"overlong", varint.ErrOverlong, CodeOverlong},
		{"wrapped_overlong", fmt.Errorf("read length: %w", varint.ErrOverlong), CodeOverlong},
		{"too_large", ErrPacketTooLarge, CodeTooLarge},
		{"string_too_long", ErrStringTooLong, CodeTooLarge},
		{"truncated", fmt.Errorf("%w: %w", varint.ErrReadFailure, io.ErrUnexpectedEOF), CodeTruncated},
		{"truncated_body", fmt.Errorf("%w: packet body: %w", ErrTruncated, io.ErrUnexpectedEOF), CodeTruncated},
		{"unexpected", ErrUnexpectedPacket, CodeUnexpected},
		{"other", ErrInvalidBool, CodeMalformedPacket},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CodeFor(tc.err); got != tc.want {
				t.Errorf("CodeFor(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
