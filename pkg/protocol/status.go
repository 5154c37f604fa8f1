package protocol

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Status state packet ids. Requests and responses share ids; direction
// tells them apart.
const (
	StatusRequestID  int32 = 0x00
	StatusResponseID int32 = 0x00
	PingID           int32 = 0x01
	PongID           int32 = 0x01
)

// ServerStatus is the JSON document carried by a status response.
type ServerStatus struct {
	Version     StatusVersion `json:"version"`
	Players     StatusPlayers `json:"players"`
	Description StatusText    `json:"description"`
	Favicon     string        `json:"favicon,omitempty"`
}

// StatusVersion names the server version and its protocol number.
type StatusVersion struct {
	Name     string `json:"name"`
	Protocol int32  `json:"protocol"`
}

// StatusPlayers reports player counts.
type StatusPlayers struct {
	Max    int `json:"max"`
	Online int `json:"online"`
}

// StatusText is a chat component reduced to its text.
type StatusText struct {
	Text string `json:"text"`
}

// UnmarshalJSON accepts either a bare string or a {"text": ...} object.
func (t *StatusText) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		t.Text = s
		return nil
	}
	type plain StatusText
	return json.Unmarshal(b, (*plain)(t))
}

// StatusRequestPacket returns the empty status request.
func StatusRequestPacket() *Packet {
	return NewPacket(StatusRequestID, nil)
}

// StatusResponsePacket encodes s as a status response.
func StatusResponsePacket(s *ServerStatus) (*Packet, error) {
	doc, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode status: %w", err)
	}
	e := NewEncoderWithCap(MaxLengthPrefix + len(doc))
	e.WriteString(string(doc))
	return NewPacket(StatusResponseID, e.Bytes()), nil
}

// DecodeStatusResponse decodes the JSON document of a status response.
func DecodeStatusResponse(p *Packet) (*ServerStatus, error) {
	if p.ID != StatusResponseID {
		return nil, fmt.Errorf("%w: %#x", ErrUnexpectedPacket, p.ID)
	}
	doc, err := p.Decoder().ReadString()
	if err != nil {
		return nil, err
	}
	var s ServerStatus
	if err := json.Unmarshal([]byte(doc), &s); err != nil {
		return nil, fmt.Errorf("protocol: decode status: %w", err)
	}
	return &s, nil
}

// PingPacket returns a ping carrying payload.
func PingPacket(payload int64) *Packet {
	e := NewEncoderWithCap(8)
	e.WriteInt64(payload)
	return NewPacket(PingID, e.Bytes())
}

// PongPacket returns the pong answering a ping with payload.
func PongPacket(payload int64) *Packet {
	e := NewEncoderWithCap(8)
	e.WriteInt64(payload)
	return NewPacket(PongID, e.Bytes())
}

// DecodePing returns the payload of a ping or pong packet.
func DecodePing(p *Packet) (int64, error) {
	if p.ID != PingID {
		return 0, fmt.Errorf("%w: %#x", ErrUnexpectedPacket, p.ID)
	}
	return p.Decoder().ReadInt64()
}
