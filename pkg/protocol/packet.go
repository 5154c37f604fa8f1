package protocol

import (
	"errors"
	"fmt"
	"io"

	"github.com/mcstructs/mcstructs/pkg/varint"
)

// Packet limits.
const (
	// MaxPacketSize is the largest frame length a 3-byte VarInt can carry
	// (2^21 - 1). Vanilla servers reject anything longer.
	MaxPacketSize = 2097151

	// MaxLengthPrefix is the number of bytes the frame length may occupy.
	MaxLengthPrefix = 3
)

// Packet errors.
var (
	ErrPacketTooLarge = errors.New("protocol: packet too large")
	ErrEmptyPacket    = errors.New("protocol: packet has no id")
)

// Packet is one framed protocol message.
//
// Wire format (uncompressed):
//
//	┌──────────────────────┬────────────────┬──────────────────────┐
//	│ Length               │ Packet ID      │ Data                 │
//	│ (VarInt, ID + Data)  │ (VarInt)       │ (Length - len(ID))   │
//	└──────────────────────┴────────────────┴──────────────────────┘
type Packet struct {
	ID   int32
	Data []byte
}

// NewPacket creates a packet with the given id and payload.
func NewPacket(id int32, data []byte) *Packet {
	return &Packet{ID: id, Data: data}
}

// Len returns the frame length: the encoded id plus the payload.
func (p *Packet) Len() int {
	return varint.VarIntLen(p.ID) + len(p.Data)
}

// Encode encodes the packet including its length prefix.
func (p *Packet) Encode() []byte {
	e := NewEncoderWithCap(MaxLengthPrefix + p.Len())
	p.EncodeTo(e)
	return e.Bytes()
}

// EncodeTo encodes the packet using the provided encoder.
func (p *Packet) EncodeTo(e *Encoder) {
	e.WriteVarInt(int32(p.Len()))
	e.WriteVarInt(p.ID)
	e.WriteBytes(p.Data)
}

// Decoder returns a Decoder over the packet payload.
func (p *Packet) Decoder() *Decoder {
	return NewDecoder(p.Data)
}

// DecodePacket decodes a packet from bytes.
// The input must contain the length prefix and the full frame; trailing
// bytes are ignored.
func DecodePacket(data []byte) (*Packet, error) {
	length, n, err := varint.DecodeVarInt(data)
	if err != nil {
		return nil, err
	}
	if err := checkLength(length, MaxPacketSize); err != nil {
		return nil, err
	}
	if len(data)-n < int(length) {
		return nil, errShortBuffer
	}
	return decodeBody(data[n : n+int(length)])
}

// ReadPacket reads a complete packet from r. Frames longer than maxSize are
// rejected before any payload is read; maxSize <= 0 or above MaxPacketSize
// means MaxPacketSize.
//
// An overlong length prefix surfaces varint.ErrOverlong and a body cut short
// surfaces ErrTruncated wrapping io.ErrUnexpectedEOF. The stream is no
// longer aligned to a frame boundary after any error and must be closed.
func ReadPacket(r io.Reader, maxSize int) (*Packet, error) {
	body, err := readFrame(r, maxSize)
	if err != nil {
		return nil, err
	}
	return decodeBody(body)
}

// WritePacket writes a complete packet to w in a single Write call. Errors
// from w are wrapped with varint.ErrWriteFailure.
func WritePacket(w io.Writer, p *Packet) error {
	if p.Len() > MaxPacketSize {
		return ErrPacketTooLarge
	}
	if _, err := w.Write(p.Encode()); err != nil {
		return fmt.Errorf("%w: %w", varint.ErrWriteFailure, err)
	}
	return nil
}

// readFrame reads one length-prefixed frame and returns its body.
func readFrame(r io.Reader, maxSize int) ([]byte, error) {
	if maxSize <= 0 || maxSize > MaxPacketSize {
		maxSize = MaxPacketSize
	}

	length, err := varint.ReadVarInt(asByteReader(r))
	if err != nil {
		return nil, err
	}
	if err := checkLength(length, maxSize); err != nil {
		return nil, err
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("%w: packet body: %w", ErrTruncated, err)
	}
	return body, nil
}

func checkLength(length int32, maxSize int) error {
	switch {
	case length < 0:
		return ErrNegativeLength
	case length == 0:
		return ErrEmptyPacket
	case int(length) > maxSize:
		return ErrPacketTooLarge
	}
	return nil
}

// decodeBody splits a frame body into packet id and payload.
func decodeBody(body []byte) (*Packet, error) {
	id, n, err := varint.DecodeVarInt(body)
	if err != nil {
		return nil, err
	}
	data := make([]byte, len(body)-n)
	copy(data, body[n:])
	return &Packet{ID: id, Data: data}, nil
}

// asByteReader returns r as an io.ByteReader without adding buffering, so
// no bytes past the length prefix are consumed from r.
func asByteReader(r io.Reader) io.ByteReader {
	if br, ok := r.(io.ByteReader); ok {
		return br
	}
	return &singleByteReader{r: r}
}

type singleByteReader struct {
	r   io.Reader
	buf [1]byte
}

func (s *singleByteReader) ReadByte() (byte, error) {
	if _, err := io.ReadFull(s.r, s.buf[:]); err != nil {
		return 0, err
	}
	return s.buf[0], nil
}
