package varint

import "io"

// Group layout.
const (
	// SegmentBits masks the seven data bits of an encoded byte.
	SegmentBits = 0x7F

	// ContinueBit is set on every byte except the last of a value.
	ContinueBit = 0x80
)

// Width limits.
const (
	VarIntBits  = 32
	VarLongBits = 64

	// MaxVarIntLen is the maximum number of bytes in an encoded VarInt.
	MaxVarIntLen = 5

	// MaxVarLongLen is the maximum number of bytes in an encoded VarLong.
	MaxVarLongLen = 10
)

// unsigned is the bit-pattern type the group loop runs on. The signed
// value is reinterpreted once on the way in and once on the way out.
type unsigned interface {
	~uint32 | ~uint64
}

// ReadVarInt decodes a VarInt from r.
func ReadVarInt(r io.ByteReader) (int32, error) {
	v, err := readGroups[uint32](r, VarIntBits)
	return int32(v), err
}

// ReadVarLong decodes a VarLong from r.
func ReadVarLong(r io.ByteReader) (int64, error) {
	v, err := readGroups[uint64](r, VarLongBits)
	return int64(v), err
}

// WriteVarInt encodes v to w using the minimal number of groups.
// On error some bytes may already have been written.
func WriteVarInt(w io.ByteWriter, v int32) error {
	return writeGroups(w, uint32(v))
}

// WriteVarLong encodes v to w using the minimal number of groups.
// On error some bytes may already have been written.
func WriteVarLong(w io.ByteWriter, v int64) error {
	return writeGroups(w, uint64(v))
}

func readGroups[T unsigned](r io.ByteReader, width uint) (T, error) {
	var acc T
	var offset uint

	for {
		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF && offset > 0 {
				err = io.ErrUnexpectedEOF
			}
			return 0, readFailure(err)
		}

		acc |= T(b&SegmentBits) << offset
		offset += 7

		if b&ContinueBit == 0 {
			return acc, nil
		}
		if offset >= width {
			return 0, ErrOverlong
		}
	}
}

func writeGroups[T unsigned](w io.ByteWriter, remaining T) error {
	for {
		if remaining&^SegmentBits == 0 {
			if err := w.WriteByte(byte(remaining)); err != nil {
				return writeFailure(err)
			}
			return nil
		}

		if err := w.WriteByte(byte(remaining&SegmentBits) | ContinueBit); err != nil {
			return writeFailure(err)
		}
		remaining >>= 7
	}
}
