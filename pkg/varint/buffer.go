package varint

import "io"

// AppendVarInt appends the encoding of v to buf and returns the extended buffer.
func AppendVarInt(buf []byte, v int32) []byte {
	return appendGroups(buf, uint32(v))
}

// AppendVarLong appends the encoding of v to buf and returns the extended buffer.
func AppendVarLong(buf []byte, v int64) []byte {
	return appendGroups(buf, uint64(v))
}

func appendGroups[T unsigned](buf []byte, v T) []byte {
	for v >= ContinueBit {
		buf = append(buf, byte(v&SegmentBits)|ContinueBit)
		v >>= 7
	}
	return append(buf, byte(v))
}

// DecodeVarInt decodes a VarInt from the start of buf.
// Returns the value and the number of bytes consumed.
// An empty buf fails with ErrReadFailure wrapping io.EOF, a truncated one
// with ErrReadFailure wrapping io.ErrUnexpectedEOF.
func DecodeVarInt(buf []byte) (int32, int, error) {
	r := sliceReader{buf: buf}
	v, err := readGroups[uint32](&r, VarIntBits)
	if err != nil {
		return 0, 0, err
	}
	return int32(v), r.pos, nil
}

// DecodeVarLong decodes a VarLong from the start of buf.
// Returns the value and the number of bytes consumed.
func DecodeVarLong(buf []byte) (int64, int, error) {
	r := sliceReader{buf: buf}
	v, err := readGroups[uint64](&r, VarLongBits)
	if err != nil {
		return 0, 0, err
	}
	return int64(v), r.pos, nil
}

// VarIntLen returns the number of bytes WriteVarInt produces for v.
func VarIntLen(v int32) int {
	n := 1
	for v&^SegmentBits != 0 {
		v = ShiftRight32(v, 7)
		n++
	}
	return n
}

// VarLongLen returns the number of bytes WriteVarLong produces for v.
func VarLongLen(v int64) int {
	n := 1
	for v&^SegmentBits != 0 {
		v = ShiftRight64(v, 7)
		n++
	}
	return n
}

// sliceReader is an io.ByteReader over a byte slice that tracks its position.
type sliceReader struct {
	buf []byte
	pos int
}

func (r *sliceReader) ReadByte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, io.EOF
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}
