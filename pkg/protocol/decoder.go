package protocol

import (
	"errors"
	"fmt"
	"io"
	"math"
	"unicode/utf8"

	"github.com/mcstructs/mcstructs/pkg/varint"
)

// Allocation limits to prevent DoS attacks via malicious length prefixes.
const (
	// DefaultMaxAllocation is the default maximum size of a single
	// length-prefixed byte array.
	DefaultMaxAllocation = MaxPacketSize

	// MaxStringLength is the maximum length of a protocol string in UTF-16
	// code units. The byte length is bounded by MaxStringLength*3.
	MaxStringLength = 32767
)

// Common decoding errors.
var (
	ErrInvalidBool        = errors.New("protocol: invalid boolean value")
	ErrNegativeLength     = errors.New("protocol: negative length prefix")
	ErrStringTooLong      = errors.New("protocol: string exceeds maximum length")
	ErrInvalidString      = errors.New("protocol: string is not valid UTF-8")
	ErrAllocationTooLarge = errors.New("protocol: allocation size exceeds limit")
	ErrTruncated          = errors.New("protocol: truncated data")
)

// errShortBuffer is returned when a read runs past the end of the buffer.
// It matches both ErrTruncated and io.ErrUnexpectedEOF.
var errShortBuffer = fmt.Errorf("%w: %w", ErrTruncated, io.ErrUnexpectedEOF)

// Decoder is a binary decoder that reads protocol data types from a byte
// buffer. It implements io.ByteReader so the varint package can read from it
// directly.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder creates a new decoder from the given byte slice.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.pos
}

// EOF returns true if all bytes have been read.
func (d *Decoder) EOF() bool {
	return d.pos >= len(d.buf)
}

// Position returns the current read position.
func (d *Decoder) Position() int {
	return d.pos
}

// Skip advances the position by n bytes.
func (d *Decoder) Skip(n int) error {
	if n < 0 || d.pos+n > len(d.buf) {
		return errShortBuffer
	}
	d.pos += n
	return nil
}

// ReadByte reads a single byte.
func (d *Decoder) ReadByte() (byte, error) {
	if d.pos >= len(d.buf) {
		return 0, errShortBuffer
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

// ReadBytes reads exactly n bytes and returns them.
// The returned slice references the decoder's buffer; do not modify.
func (d *Decoder) ReadBytes(n int) ([]byte, error) {
	if n < 0 || d.pos+n > len(d.buf) {
		return nil, errShortBuffer
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

// Rest returns all unread bytes and advances to the end.
func (d *Decoder) Rest() []byte {
	b := d.buf[d.pos:]
	d.pos = len(d.buf)
	return b
}

// ReadVarInt reads a VarInt.
func (d *Decoder) ReadVarInt() (int32, error) {
	return varint.ReadVarInt(d)
}

// ReadVarLong reads a VarLong.
func (d *Decoder) ReadVarLong() (int64, error) {
	return varint.ReadVarLong(d)
}

// readLength reads a VarInt length prefix and checks it against max and the
// remaining buffer.
func (d *Decoder) readLength(max int) (int, error) {
	length, err := d.ReadVarInt()
	if err != nil {
		return 0, err
	}
	if length < 0 {
		return 0, ErrNegativeLength
	}
	if int(length) > max {
		return 0, ErrAllocationTooLarge
	}
	if int(length) > d.Remaining() {
		return 0, errShortBuffer
	}
	return int(length), nil
}

// ReadString reads a VarInt length-prefixed UTF-8 string of at most
// MaxStringLength UTF-16 code units.
func (d *Decoder) ReadString() (string, error) {
	return d.ReadStringMax(MaxStringLength)
}

// ReadStringMax reads a string of at most max UTF-16 code units.
func (d *Decoder) ReadStringMax(max int) (string, error) {
	n, err := d.readLength(max * 3)
	if errors.Is(err, ErrAllocationTooLarge) {
		return "", ErrStringTooLong
	}
	if err != nil {
		return "", err
	}

	raw := d.buf[d.pos : d.pos+n]
	if !utf8.Valid(raw) {
		return "", ErrInvalidString
	}
	if utf16Len(raw) > max {
		return "", ErrStringTooLong
	}
	d.pos += n
	return string(raw), nil
}

// utf16Len returns the number of UTF-16 code units needed for valid UTF-8 b.
func utf16Len(b []byte) int {
	n := 0
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		b = b[size:]
		if r > 0xFFFF {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// ReadLenBytes reads a VarInt length-prefixed byte array.
// Returns a copy of the bytes (safe to retain).
func (d *Decoder) ReadLenBytes() ([]byte, error) {
	n, err := d.readLength(DefaultMaxAllocation)
	if err != nil {
		return nil, err
	}
	b := make([]byte, n)
	copy(b, d.buf[d.pos:d.pos+n])
	d.pos += n
	return b, nil
}

// ReadBool reads a boolean (single byte: 0x00=false, 0x01=true).
func (d *Decoder) ReadBool() (bool, error) {
	b, err := d.ReadByte()
	if err != nil {
		return false, err
	}
	switch b {
	case 0x00:
		return false, nil
	case 0x01:
		return true, nil
	default:
		return false, ErrInvalidBool
	}
}

// ReadUint16 reads a uint16 in big-endian byte order.
func (d *Decoder) ReadUint16() (uint16, error) {
	if d.pos+2 > len(d.buf) {
		return 0, errShortBuffer
	}
	v := uint16(d.buf[d.pos])<<8 | uint16(d.buf[d.pos+1])
	d.pos += 2
	return v, nil
}

// ReadUint32 reads a uint32 in big-endian byte order.
func (d *Decoder) ReadUint32() (uint32, error) {
	if d.pos+4 > len(d.buf) {
		return 0, errShortBuffer
	}
	v := uint32(d.buf[d.pos])<<24 | uint32(d.buf[d.pos+1])<<16 |
		uint32(d.buf[d.pos+2])<<8 | uint32(d.buf[d.pos+3])
	d.pos += 4
	return v, nil
}

// ReadUint64 reads a uint64 in big-endian byte order.
func (d *Decoder) ReadUint64() (uint64, error) {
	if d.pos+8 > len(d.buf) {
		return 0, errShortBuffer
	}
	v := uint64(d.buf[d.pos])<<56 | uint64(d.buf[d.pos+1])<<48 |
		uint64(d.buf[d.pos+2])<<40 | uint64(d.buf[d.pos+3])<<32 |
		uint64(d.buf[d.pos+4])<<24 | uint64(d.buf[d.pos+5])<<16 |
		uint64(d.buf[d.pos+6])<<8 | uint64(d.buf[d.pos+7])
	d.pos += 8
	return v, nil
}

// ReadInt16 reads an int16 in big-endian byte order.
func (d *Decoder) ReadInt16() (int16, error) {
	v, err := d.ReadUint16()
	return int16(v), err
}

// ReadInt32 reads an int32 in big-endian byte order.
func (d *Decoder) ReadInt32() (int32, error) {
	v, err := d.ReadUint32()
	return int32(v), err
}

// ReadInt64 reads an int64 in big-endian byte order.
func (d *Decoder) ReadInt64() (int64, error) {
	v, err := d.ReadUint64()
	return int64(v), err
}

// ReadFloat32 reads a float32 in IEEE 754 format (big-endian).
func (d *Decoder) ReadFloat32() (float32, error) {
	v, err := d.ReadUint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadFloat64 reads a float64 in IEEE 754 format (big-endian).
func (d *Decoder) ReadFloat64() (float64, error) {
	v, err := d.ReadUint64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// ReadUUID reads a 16-byte UUID.
func (d *Decoder) ReadUUID() ([16]byte, error) {
	var id [16]byte
	b, err := d.ReadBytes(16)
	if err != nil {
		return id, err
	}
	copy(id[:], b)
	return id, nil
}

// ReadPosition reads a packed block position.
func (d *Decoder) ReadPosition() (Position, error) {
	v, err := d.ReadInt64()
	if err != nil {
		return Position{}, err
	}
	return UnpackPosition(v), nil
}
