package protocol

// Position is a block position. On the wire it is packed into 64 bits:
// x in the top 26 bits, z in the next 26, y in the low 12.
type Position struct {
	X, Y, Z int32
}

// Pack packs p into its wire form. Coordinates outside the representable
// range (x, z in [-2^25, 2^25); y in [-2048, 2048)) are truncated.
func (p Position) Pack() int64 {
	return (int64(p.X)&0x3FFFFFF)<<38 | (int64(p.Z)&0x3FFFFFF)<<12 | int64(p.Y)&0xFFF
}

// UnpackPosition reverses Pack. Each field is sign-extended from its width.
func UnpackPosition(v int64) Position {
	return Position{
		X: int32(v >> 38),
		Y: int32(v << 52 >> 52),
		Z: int32(v << 26 >> 38),
	}
}
