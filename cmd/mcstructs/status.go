package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/mcstructs/mcstructs/pkg/protocol"
	"github.com/mcstructs/mcstructs/pkg/server"
	"github.com/mcstructs/mcstructs/pkg/transport"
	"github.com/spf13/cobra"
)

// defaultPort is the Minecraft server port assumed when the address has none.
const defaultPort = "25565"

func statusCmd() *cobra.Command {
	var (
		timeout      time.Duration
		protoVersion int32
	)

	cmd := &cobra.Command{
		Use:   "status HOST[:PORT]",
		Short: "Query a server with a server list ping",
		Long: `Perform the status handshake against a Minecraft server (or a
mcstructs packet listener) and print its version, player count,
description and round-trip latency.

Examples:
  mcstructs status localhost
  mcstructs status play.example.net:25565 --timeout=2s`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			res, err := queryStatus(ctx, args[0], protoVersion)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "  Version:     %s (protocol %d)\n", res.Status.Version.Name, res.Status.Version.Protocol)
			fmt.Fprintf(out, "  Players:     %d/%d\n", res.Status.Players.Online, res.Status.Players.Max)
			fmt.Fprintf(out, "  Description: %s\n", res.Status.Description.Text)
			fmt.Fprintf(out, "  Latency:     %s\n", res.Latency.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 5*time.Second, "Overall deadline for the exchange")
	cmd.Flags().Int32Var(&protoVersion, "protocol", server.ProtocolVersion, "Protocol version sent in the handshake")

	return cmd
}

type statusResult struct {
	Status  *protocol.ServerStatus
	Latency time.Duration
}

// queryStatus runs handshake, status request and ping against addr.
func queryStatus(ctx context.Context, addr string, version int32) (*statusResult, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		host, port = addr, defaultPort
	}
	p, err := strconv.ParseUint(port, 10, 16)
	if err != nil {
		return nil, fmt.Errorf("invalid port %q", port)
	}

	c, err := transport.Dial(ctx, net.JoinHostPort(host, port), transport.Options{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		return nil, err
	}
	defer c.Close()

	hs := &protocol.Handshake{
		ProtocolVersion: version,
		ServerAddress:   host,
		ServerPort:      uint16(p),
		NextState:       protocol.StateStatus,
	}
	if err := c.WritePacket(ctx, hs.Packet()); err != nil {
		return nil, err
	}
	if err := c.WritePacket(ctx, protocol.StatusRequestPacket()); err != nil {
		return nil, err
	}

	resp, err := c.ReadPacket(ctx)
	if err != nil {
		return nil, err
	}
	status, err := protocol.DecodeStatusResponse(resp)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	if err := c.WritePacket(ctx, protocol.PingPacket(start.UnixMilli())); err != nil {
		return nil, err
	}
	pong, err := c.ReadPacket(ctx)
	if err != nil {
		return nil, err
	}
	if payload, err := protocol.DecodePing(pong); err != nil {
		return nil, err
	} else if payload != start.UnixMilli() {
		return nil, fmt.Errorf("pong payload %d does not match ping", payload)
	}

	return &statusResult{Status: status, Latency: time.Since(start)}, nil
}
