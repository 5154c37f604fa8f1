package varint

import (
	"errors"
	"fmt"
)

// Codec errors. Failures returned by ReadVarInt, ReadVarLong, WriteVarInt and
// WriteVarLong match exactly one of these with errors.Is.
var (
	// ErrReadFailure is returned when the source cannot supply a byte,
	// including end of stream before the final group.
	ErrReadFailure = errors.New("varint: read failure")

	// ErrOverlong is returned when a value carries more groups than its
	// width permits (5 for VarInt, 10 for VarLong).
	ErrOverlong = errors.New("varint: too many groups")

	// ErrWriteFailure is returned when the sink rejects a byte.
	ErrWriteFailure = errors.New("varint: write failure")
)

// readFailure wraps cause so that both ErrReadFailure and the underlying
// error (io.EOF, net.ErrClosed, ...) remain visible to errors.Is.
func readFailure(cause error) error {
	return fmt.Errorf("%w: %w", ErrReadFailure, cause)
}

func writeFailure(cause error) error {
	return fmt.Errorf("%w: %w", ErrWriteFailure, cause)
}
