package varint

import (
	"bufio"
	"bytes"
	"io"
	"testing"
)

func BenchmarkWriteVarInt_Small(b *testing.B) {
	w := bufio.NewWriter(io.Discard)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = WriteVarInt(w, 127)
	}
}

func BenchmarkWriteVarInt_Negative(b *testing.B) {
	w := bufio.NewWriter(io.Discard)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = WriteVarInt(w, -1)
	}
}

func BenchmarkReadVarInt_Large(b *testing.B) {
	data := AppendVarInt(nil, -1)
	r := bytes.NewReader(data)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Reset(data)
		_, _ = ReadVarInt(r)
	}
}

func BenchmarkReadVarLong_Large(b *testing.B) {
	data := AppendVarLong(nil, -1)
	r := bytes.NewReader(data)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Reset(data)
		_, _ = ReadVarLong(r)
	}
}

func BenchmarkAppendVarLong(b *testing.B) {
	buf := make([]byte, 0, MaxVarLongLen)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf = AppendVarLong(buf[:0], int64(i))
	}
}
