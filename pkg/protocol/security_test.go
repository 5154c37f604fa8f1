package protocol

import (
	"errors"
	"strings"
	"testing"
)

func TestReadString_Limits(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		max     int
		wantErr error
	}{
		{
			name:    "negative length",
			payload: []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0F},
			max:     MaxStringLength,
			wantErr: ErrNegativeLength,
		},
		{
			name:    "length prefix beyond byte bound",
			payload: stringPayload(strings.Repeat("a", 10*3+1)),
			max:     10,
			wantErr: ErrStringTooLong,
		},
		{
			name:    "too many code units",
			payload: stringPayload(strings.Repeat("a", 11)),
			max:     10,
			wantErr: ErrStringTooLong,
		},
		{
			name:    "surrogate pairs count twice",
			payload: stringPayload(strings.Repeat("\U0001F600", 6)),
			max:     11,
			wantErr: ErrStringTooLong,
		},
		{
			name:    "invalid utf8",
			payload: []byte{0x02, 0xC3, 0x28},
			max:     MaxStringLength,
			wantErr: ErrInvalidString,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewDecoder(tc.payload).ReadStringMax(tc.max)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("ReadStringMax() error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestReadString_AtLimit(t *testing.T) {
	s := strings.Repeat("é", 10) // 2 bytes, 1 code unit each
	got, err := NewDecoder(stringPayload(s)).ReadStringMax(10)
	if err != nil {
		t.Fatalf("ReadStringMax() error: %v", err)
	}
	if got != s {
		t.Errorf("ReadStringMax() = %q, want %q", got, s)
	}
}

func TestReadLenBytes_Limits(t *testing.T) {
	e := NewEncoder()
	e.WriteVarInt(DefaultMaxAllocation + 1)
	if _, err := NewDecoder(e.Bytes()).ReadLenBytes(); !errors.Is(err, ErrAllocationTooLarge) {
		t.Errorf("ReadLenBytes() error = %v, want ErrAllocationTooLarge", err)
	}

	e.Reset()
	e.WriteVarInt(-5)
	if _, err := NewDecoder(e.Bytes()).ReadLenBytes(); !errors.Is(err, ErrNegativeLength) {
		t.Errorf("ReadLenBytes() error = %v, want ErrNegativeLength", err)
	}
}

func stringPayload(s string) []byte {
	e := NewEncoder()
	e.WriteString(s)
	return e.Bytes()
}
