package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mcstructs",
		Short: "Minecraft VarInt/VarLong codec and packet tools",
		Long: `mcstructs encodes and decodes the variable-length integers of the
Minecraft Java protocol and serves them over HTTP.

  • encode / decode single VarInt and VarLong values
  • query the status of a running server
  • run the inspection server (HTTP API, WebSocket echo, metrics)`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		encodeCmd(),
		decodeCmd(),
		statusCmd(),
		serveCmd(),
		versionCmd(),
	)
	return rootCmd
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
