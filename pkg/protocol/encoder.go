package protocol

import (
	"math"

	"github.com/mcstructs/mcstructs/pkg/varint"
)

// Encoder is a binary encoder that appends protocol data types to an
// internal buffer. Appends never fail, so the Write methods return nothing;
// WriteByte returns a nil error only to satisfy io.ByteWriter.
type Encoder struct {
	buf []byte
}

// NewEncoder creates a new encoder with a default initial capacity.
func NewEncoder() *Encoder {
	return &Encoder{
		buf: make([]byte, 0, 256),
	}
}

// NewEncoderWithCap creates a new encoder with the specified initial capacity.
func NewEncoderWithCap(cap int) *Encoder {
	return &Encoder{
		buf: make([]byte, 0, cap),
	}
}

// Reset resets the encoder to empty state, reusing the underlying buffer.
func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
}

// Bytes returns the encoded bytes. The returned slice is valid until
// the next call to Reset or any Write method.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Len returns the number of bytes currently encoded.
func (e *Encoder) Len() int {
	return len(e.buf)
}

// WriteByte appends a single byte.
func (e *Encoder) WriteByte(b byte) error {
	e.buf = append(e.buf, b)
	return nil
}

// WriteBytes appends raw bytes.
func (e *Encoder) WriteBytes(b []byte) {
	e.buf = append(e.buf, b...)
}

// Write appends p and implements io.Writer, so an Encoder can sit behind
// stream writers such as a zlib compressor.
func (e *Encoder) Write(p []byte) (int, error) {
	e.buf = append(e.buf, p...)
	return len(p), nil
}

// WriteVarInt appends a VarInt.
func (e *Encoder) WriteVarInt(v int32) {
	e.buf = varint.AppendVarInt(e.buf, v)
}

// WriteVarLong appends a VarLong.
func (e *Encoder) WriteVarLong(v int64) {
	e.buf = varint.AppendVarLong(e.buf, v)
}

// WriteString appends a VarInt length-prefixed UTF-8 string.
func (e *Encoder) WriteString(s string) {
	e.WriteVarInt(int32(len(s)))
	e.buf = append(e.buf, s...)
}

// WriteLenBytes appends a VarInt length-prefixed byte array.
func (e *Encoder) WriteLenBytes(b []byte) {
	e.WriteVarInt(int32(len(b)))
	e.buf = append(e.buf, b...)
}

// WriteBool appends a boolean as a single byte (0x00 or 0x01).
func (e *Encoder) WriteBool(b bool) {
	if b {
		e.buf = append(e.buf, 0x01)
	} else {
		e.buf = append(e.buf, 0x00)
	}
}

// WriteUint16 appends a uint16 in big-endian byte order.
func (e *Encoder) WriteUint16(v uint16) {
	e.buf = append(e.buf, byte(v>>8), byte(v))
}

// WriteUint32 appends a uint32 in big-endian byte order.
func (e *Encoder) WriteUint32(v uint32) {
	e.buf = append(e.buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// WriteUint64 appends a uint64 in big-endian byte order.
func (e *Encoder) WriteUint64(v uint64) {
	e.buf = append(e.buf,
		byte(v>>56), byte(v>>48), byte(v>>40), byte(v>>32),
		byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// WriteInt16 appends an int16 in big-endian byte order.
func (e *Encoder) WriteInt16(v int16) {
	e.WriteUint16(uint16(v))
}

// WriteInt32 appends an int32 in big-endian byte order.
func (e *Encoder) WriteInt32(v int32) {
	e.WriteUint32(uint32(v))
}

// WriteInt64 appends an int64 in big-endian byte order.
func (e *Encoder) WriteInt64(v int64) {
	e.WriteUint64(uint64(v))
}

// WriteFloat32 appends a float32 in IEEE 754 format (big-endian).
func (e *Encoder) WriteFloat32(v float32) {
	e.WriteUint32(math.Float32bits(v))
}

// WriteFloat64 appends a float64 in IEEE 754 format (big-endian).
func (e *Encoder) WriteFloat64(v float64) {
	e.WriteUint64(math.Float64bits(v))
}

// WriteUUID appends a UUID as 16 bytes, most significant half first.
func (e *Encoder) WriteUUID(id [16]byte) {
	e.buf = append(e.buf, id[:]...)
}

// WritePosition appends a block position packed into a single int64.
func (e *Encoder) WritePosition(p Position) {
	e.WriteInt64(p.Pack())
}
