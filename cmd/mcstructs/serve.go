package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcstructs/mcstructs/internal/config"
	"github.com/mcstructs/mcstructs/pkg/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func serveCmd() *cobra.Command {
	conf := viper.New()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the inspection server",
		Long: `Run the HTTP inspection server and, with --tcp-addr, a raw packet
listener answering server list pings.

Settings come from flags, then MCSTRUCTS_* environment variables, then the
file given by --config, then built-in defaults.

Examples:
  mcstructs serve
  mcstructs serve --addr=:8080 --log-level=debug
  mcstructs serve --config=mcstructs.yaml --tcp-addr=:25565
  MCSTRUCTS_MAX_PACKET_SIZE=65536 mcstructs serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(conf)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}

	d := config.Default()
	f := cmd.Flags()
	f.String(config.KeyConfig, "", "Configuration file (JSON, YAML or TOML)")
	f.String(config.KeyAddr, d.Addr, "HTTP listen address")
	f.String(config.KeyTCPAddr, d.TCPAddr, "Raw packet listen address (disabled when empty)")
	f.Int(config.KeyMaxPacketSize, d.MaxPacketSize, "Largest inbound frame in bytes")
	f.Duration(config.KeyReadTimeout, d.ReadTimeout, "Per-packet read deadline")
	f.Duration(config.KeyWriteTimeout, d.WriteTimeout, "Per-packet write deadline")
	f.Int(config.KeyCompressionThreshold, d.CompressionThreshold, "Compression threshold for echo connections (negative disables)")
	f.String(config.KeyMetricsNamespace, d.MetricsNamespace, "Prometheus metrics namespace")
	f.String(config.KeyLogLevel, d.LogLevel, "Log level: debug, info, warn, error")
	f.String(config.KeyLogFormat, d.LogFormat, "Log format: text or json")
	_ = conf.BindPFlags(f)

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := cfg.NewLogger(os.Stderr)

	srv, err := server.New(&server.ServerConfig{
		Address:              cfg.Addr,
		TCPAddress:           cfg.TCPAddr,
		MaxPacketSize:        cfg.MaxPacketSize,
		ReadTimeout:          cfg.ReadTimeout,
		WriteTimeout:         cfg.WriteTimeout,
		Compression:          cfg.CompressionThreshold >= 0,
		CompressionThreshold: cfg.CompressionThreshold,
		MetricsNamespace:     cfg.MetricsNamespace,
		Logger:               logger,
	})
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}
