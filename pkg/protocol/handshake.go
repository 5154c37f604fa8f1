package protocol

import (
	"errors"
	"fmt"
)

// HandshakeID is the packet id of the serverbound handshake.
const HandshakeID int32 = 0x00

// MaxServerAddressLength bounds Handshake.ServerAddress in UTF-16 units.
const MaxServerAddressLength = 255

// ErrUnexpectedPacket is returned when a packet has the wrong id for the
// message being decoded.
var ErrUnexpectedPacket = errors.New("protocol: unexpected packet id")

// State is the connection state requested by a handshake.
type State int32

const (
	StateHandshaking State = 0
	StateStatus      State = 1
	StateLogin       State = 2
	StateTransfer    State = 3
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateHandshaking:
		return "Handshaking"
	case StateStatus:
		return "Status"
	case StateLogin:
		return "Login"
	case StateTransfer:
		return "Transfer"
	default:
		return "Unknown"
	}
}

// Handshake is the first packet a client sends on a new connection.
type Handshake struct {
	ProtocolVersion int32  // VarInt
	ServerAddress   string // Hostname or IP the client connected to
	ServerPort      uint16 // Big-endian unsigned short
	NextState       State  // VarInt
}

// Packet encodes the handshake into a packet.
func (h *Handshake) Packet() *Packet {
	e := NewEncoderWithCap(16 + len(h.ServerAddress))
	h.EncodeTo(e)
	return NewPacket(HandshakeID, e.Bytes())
}

// EncodeTo encodes the handshake payload using the provided encoder.
func (h *Handshake) EncodeTo(e *Encoder) {
	e.WriteVarInt(h.ProtocolVersion)
	e.WriteString(h.ServerAddress)
	e.WriteUint16(h.ServerPort)
	e.WriteVarInt(int32(h.NextState))
}

// DecodeHandshake decodes a handshake from a packet.
func DecodeHandshake(p *Packet) (*Handshake, error) {
	if p.ID != HandshakeID {
		return nil, fmt.Errorf("%w: %#x", ErrUnexpectedPacket, p.ID)
	}
	return DecodeHandshakeFrom(p.Decoder())
}

// DecodeHandshakeFrom decodes a handshake payload from a decoder.
func DecodeHandshakeFrom(d *Decoder) (*Handshake, error) {
	version, err := d.ReadVarInt()
	if err != nil {
		return nil, err
	}

	addr, err := d.ReadStringMax(MaxServerAddressLength)
	if err != nil {
		return nil, err
	}

	port, err := d.ReadUint16()
	if err != nil {
		return nil, err
	}

	next, err := d.ReadVarInt()
	if err != nil {
		return nil, err
	}

	return &Handshake{
		ProtocolVersion: version,
		ServerAddress:   addr,
		ServerPort:      port,
		NextState:       State(next),
	}, nil
}
