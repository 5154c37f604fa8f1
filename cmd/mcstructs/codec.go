package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/mcstructs/mcstructs/pkg/varint"
	"github.com/spf13/cobra"
)

func encodeCmd() *cobra.Command {
	var long bool

	cmd := &cobra.Command{
		Use:   "encode [--long] VALUE",
		Short: "Encode an integer as a VarInt or VarLong",
		Long: `Encode a signed decimal integer and print the encoding as hex.

Negative values must follow "--" so they are not read as flags.

Examples:
  mcstructs encode 300            # ac02
  mcstructs encode -- -1          # ffffffff0f
  mcstructs encode --long -- -1   # ffffffffffffffffff01`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := encodeValue(args[0], long)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(b))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&long, "long", "l", false, "Encode as a 64-bit VarLong")

	return cmd
}

func encodeValue(arg string, long bool) ([]byte, error) {
	bits := 32
	if long {
		bits = 64
	}
	v, err := strconv.ParseInt(arg, 10, bits)
	if err != nil {
		return nil, fmt.Errorf("invalid %d-bit value %q", bits, arg)
	}
	if long {
		return varint.AppendVarLong(nil, v), nil
	}
	return varint.AppendVarInt(nil, int32(v)), nil
}

func decodeCmd() *cobra.Command {
	var long bool

	cmd := &cobra.Command{
		Use:   "decode [--long] HEX...",
		Short: "Decode a VarInt or VarLong from hex",
		Long: `Decode one value from hex bytes and print it in decimal.

Arguments are joined, so "ac 02" and "ac02" are the same input. The command
fails on overlong or truncated input.

Examples:
  mcstructs decode ac02                        # 300
  mcstructs decode ff ff ff ff 0f              # -1
  mcstructs decode --long 80808080808080808001  # -9223372036854775808`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := hex.DecodeString(strings.TrimPrefix(strings.Join(args, ""), "0x"))
			if err != nil {
				return fmt.Errorf("invalid hex: %w", err)
			}

			var v int64
			var n int
			if long {
				v, n, err = varint.DecodeVarLong(b)
			} else {
				var v32 int32
				v32, n, err = varint.DecodeVarInt(b)
				v = int64(v32)
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), v)
			if n < len(b) {
				warn(cmd.ErrOrStderr(), "%d trailing byte(s) ignored", len(b)-n)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&long, "long", "l", false, "Decode as a 64-bit VarLong")

	return cmd
}
