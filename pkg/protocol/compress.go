package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/mcstructs/mcstructs/pkg/varint"
)

// MaxUncompressedSize is the largest uncompressed packet body accepted from
// a peer (2^23 bytes, as in vanilla).
const MaxUncompressedSize = 8388608

// Compression errors.
var (
	ErrBadlyCompressed = errors.New("protocol: compressed packet below threshold")
	ErrSizeMismatch    = errors.New("protocol: uncompressed size does not match header")
)

// ReadCompressedPacket reads a packet in the compressed framing used once
// compression is enabled with the given threshold:
//
//	┌──────────────┬──────────────────┬──────────────────────────────┐
//	│ Length       │ Data Length      │ zlib(ID + Data), or raw when │
//	│ (VarInt)     │ (VarInt, 0=raw)  │ Data Length is 0             │
//	└──────────────┴──────────────────┴──────────────────────────────┘
func ReadCompressedPacket(r io.Reader, maxSize, threshold int) (*Packet, error) {
	frame, err := readFrame(r, maxSize)
	if err != nil {
		return nil, err
	}

	d := NewDecoder(frame)
	dataLength, err := d.ReadVarInt()
	if err != nil {
		return nil, err
	}
	if dataLength == 0 {
		return decodeBody(d.Rest())
	}
	if dataLength < 0 {
		return nil, ErrNegativeLength
	}
	if int(dataLength) < threshold {
		return nil, ErrBadlyCompressed
	}
	if dataLength > MaxUncompressedSize {
		return nil, ErrPacketTooLarge
	}

	zr, err := zlib.NewReader(bytes.NewReader(d.Rest()))
	if err != nil {
		return nil, fmt.Errorf("protocol: zlib header: %w", err)
	}
	defer zr.Close()

	body := make([]byte, dataLength)
	if _, err := io.ReadFull(zr, body); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSizeMismatch, err)
	}
	// Trailing decompressed bytes mean the header lied about the size.
	var one [1]byte
	if n, _ := zr.Read(one[:]); n != 0 {
		return nil, ErrSizeMismatch
	}
	return decodeBody(body)
}

// WriteCompressedPacket writes p in the compressed framing. Bodies shorter
// than threshold are sent raw with a zero Data Length; a negative threshold
// never compresses. Bodies above MaxUncompressedSize are refused, as the
// reading side would reject them.
func WriteCompressedPacket(w io.Writer, p *Packet, threshold int) error {
	body := varint.AppendVarInt(make([]byte, 0, p.Len()), p.ID)
	body = append(body, p.Data...)
	if len(body) > MaxUncompressedSize {
		return ErrPacketTooLarge
	}

	inner := NewEncoderWithCap(varint.MaxVarIntLen + len(body))
	if threshold < 0 || len(body) < threshold {
		inner.WriteVarInt(0)
		inner.WriteBytes(body)
	} else {
		inner.WriteVarInt(int32(len(body)))
		zw := zlib.NewWriter(inner)
		if _, err := zw.Write(body); err != nil {
			return err
		}
		if err := zw.Close(); err != nil {
			return err
		}
	}
	if inner.Len() > MaxPacketSize {
		return ErrPacketTooLarge
	}

	e := NewEncoderWithCap(MaxLengthPrefix + inner.Len())
	e.WriteVarInt(int32(inner.Len()))
	e.WriteBytes(inner.Bytes())
	if _, err := w.Write(e.Bytes()); err != nil {
		return fmt.Errorf("%w: %w", varint.ErrWriteFailure, err)
	}
	return nil
}
