// Package varint implements the VarInt and VarLong encodings used by the
// Minecraft Java Edition wire protocol.
//
// A value is written as a sequence of 7-bit groups, least significant group
// first. Bit 7 of every byte is the continuation flag: set when more groups
// follow, clear on the final group.
//
//	300 = 0b1_0010_1100
//
//	┌──────────────┬──────────────┐
//	│ 1 010_1100   │ 0 000_0010   │
//	│ 0xAC         │ 0x02         │
//	└──────────────┴──────────────┘
//
// Unlike protobuf's ZigZag varints, signed values are encoded from their
// two's-complement bit pattern, so every negative VarInt occupies the full
// five bytes and every negative VarLong the full ten.
//
// # Usage
//
//	var buf bytes.Buffer
//	if err := varint.WriteVarInt(&buf, -1); err != nil {
//	    return err
//	}
//	// buf: ff ff ff ff 0f
//
//	v, err := varint.ReadVarInt(&buf)
//	if errors.Is(err, varint.ErrOverlong) {
//	    // corrupt or malicious peer: drop the connection
//	}
//
// Readers and writers are used one byte at a time. The package keeps no
// state between calls and is safe for concurrent use on independent streams.
package varint
