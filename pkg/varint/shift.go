package varint

// ShiftRight32 shifts the bit pattern of v right by n, filling the vacated
// high bits with zeros. Go's >> on signed integers is arithmetic, so
// ShiftRight32(-1, 7) is 0x01FFFFFF where -1>>7 would stay -1.
func ShiftRight32(v int32, n uint) int32 {
	return int32(uint32(v) >> n)
}

// ShiftRight64 is the 64-bit counterpart of ShiftRight32.
func ShiftRight64(v int64, n uint) int64 {
	return int64(uint64(v) >> n)
}
