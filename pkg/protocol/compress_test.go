package protocol

import (
	"bytes"
	"errors"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/mcstructs/mcstructs/pkg/varint"
)

func TestCompressedPacket_RoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		packet    *Packet
		threshold int
		raw       bool
	}{
		{"below_threshold", NewPacket(0x01, []byte("short")), 256, true},
		{"above_threshold", NewPacket(0x02, bytes.Repeat([]byte("a"), 300)), 256, false},
		{"threshold_zero", NewPacket(0x03, []byte{0x01}), 0, false},
		{"disabled", NewPacket(0x04, bytes.Repeat([]byte("b"), 1000)), -1, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteCompressedPacket(&buf, tc.packet, tc.threshold); err != nil {
				t.Fatalf("WriteCompressedPacket() error: %v", err)
			}

			d := NewDecoder(buf.Bytes())
			if _, err := d.ReadVarInt(); err != nil {
				t.Fatal(err)
			}
			dataLength, err := d.ReadVarInt()
			if err != nil {
				t.Fatal(err)
			}
			if (dataLength == 0) != tc.raw {
				t.Errorf("data length = %d, raw = %v", dataLength, tc.raw)
			}

			got, err := ReadCompressedPacket(&buf, 0, tc.threshold)
			if err != nil {
				t.Fatalf("ReadCompressedPacket() error: %v", err)
			}
			if got.ID != tc.packet.ID || !bytes.Equal(got.Data, tc.packet.Data) {
				t.Errorf("ReadCompressedPacket() = {%#x, %d bytes}, want {%#x, %d bytes}",
					got.ID, len(got.Data), tc.packet.ID, len(tc.packet.Data))
			}
		})
	}
}

func TestCompressedPacket_ShrinksRepetitiveData(t *testing.T) {
	var buf bytes.Buffer
	p := NewPacket(0x10, bytes.Repeat([]byte{0x00}, 4096))
	if err := WriteCompressedPacket(&buf, p, 64); err != nil {
		t.Fatal(err)
	}
	if buf.Len() >= len(p.Data) {
		t.Errorf("compressed frame is %d bytes, payload %d", buf.Len(), len(p.Data))
	}
}

func TestReadCompressedPacket_Errors(t *testing.T) {
	compressed := func(body []byte) []byte {
		var z bytes.Buffer
		zw := zlib.NewWriter(&z)
		_, _ = zw.Write(body)
		_ = zw.Close()
		return z.Bytes()
	}
	frame := func(dataLength int32, rest []byte) []byte {
		inner := NewEncoder()
		inner.WriteVarInt(dataLength)
		inner.WriteBytes(rest)
		e := NewEncoder()
		e.WriteLenBytes(inner.Bytes())
		return e.Bytes()
	}

	body := append([]byte{0x01}, bytes.Repeat([]byte("x"), 100)...)

	tests := []struct {
		name      string
		data      []byte
		threshold int
		wantErr   error
	}{
		{"below_threshold", frame(int32(len(body)), compressed(body)), 256, ErrBadlyCompressed},
		{"negative_data_length", frame(-1, nil), 0, ErrNegativeLength},
		{"too_large", frame(MaxUncompressedSize+1, compressed(body)), 0, ErrPacketTooLarge},
		{"size_short", frame(int32(len(body)+10), compressed(body)), 0, ErrSizeMismatch},
		{"size_long", frame(int32(len(body)-10), compressed(body)), 0, ErrSizeMismatch},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadCompressedPacket(bytes.NewReader(tc.data), 0, tc.threshold)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("ReadCompressedPacket() error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestWriteCompressedPacket_Errors(t *testing.T) {
	var buf bytes.Buffer
	huge := NewPacket(0x01, make([]byte, MaxUncompressedSize))
	for _, threshold := range []int{-1, 0} {
		if err := WriteCompressedPacket(&buf, huge, threshold); !errors.Is(err, ErrPacketTooLarge) {
			t.Errorf("WriteCompressedPacket(threshold %d) error = %v, want ErrPacketTooLarge", threshold, err)
		}
	}
	if buf.Len() != 0 {
		t.Errorf("WriteCompressedPacket() wrote %d bytes on error", buf.Len())
	}

	err := WriteCompressedPacket(errWriter{}, NewPacket(0x01, []byte("x")), 0)
	if !errors.Is(err, varint.ErrWriteFailure) {
		t.Errorf("WriteCompressedPacket() error = %v, want ErrWriteFailure", err)
	}
}
