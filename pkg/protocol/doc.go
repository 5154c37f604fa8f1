// Package protocol implements the data types and packet framing of the
// Minecraft Java Edition wire protocol on top of package varint.
//
// # Wire Format
//
// Every packet is prefixed with its length as a VarInt:
//
//	┌──────────────────────┬────────────────┬──────────────────────┐
//	│ Length (VarInt)      │ Packet ID      │ Data                 │
//	│ ≤ 3 bytes            │ (VarInt)       │                      │
//	└──────────────────────┴────────────────┴──────────────────────┘
//
// Once compression is enabled a second VarInt follows the length, carrying
// the uncompressed size of ID + Data (0 when the body is sent raw). See
// ReadCompressedPacket.
//
// # Data Types
//
//   - VarInt / VarLong: 7-bit groups, least significant first (package varint)
//   - String: VarInt byte length + UTF-8, at most 32767 UTF-16 units
//   - Byte array: VarInt length + bytes
//   - Boolean: 0x00 or 0x01
//   - Short, Int, Long, Float, Double: big-endian fixed width
//   - UUID: 16 bytes
//   - Position: x/z/y packed into 26/26/12 bits of a Long
//
// # Usage Example
//
//	hs := &protocol.Handshake{
//	    ProtocolVersion: 767,
//	    ServerAddress:   "localhost",
//	    ServerPort:      25565,
//	    NextState:       protocol.StateStatus,
//	}
//	if err := protocol.WritePacket(conn, hs.Packet()); err != nil {
//	    return err
//	}
//
//	p, err := protocol.ReadPacket(conn, protocol.MaxPacketSize)
//	if errors.Is(err, varint.ErrOverlong) {
//	    // corrupt length prefix: close the connection
//	}
//
// # File Structure
//
//   - encoder.go: append-style Encoder
//   - decoder.go: position-based Decoder
//   - packet.go: length-prefixed framing
//   - compress.go: compressed framing (zlib)
//   - handshake.go: handshake packet
//   - position.go: packed block positions
//   - error.go: error codes and error packets
package protocol
