package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/mcstructs/mcstructs/pkg/protocol"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment variable, e.g. MCSTRUCTS_ADDR.
	EnvPrefix = "MCSTRUCTS"

	// DefaultAddr is the default HTTP listen address.
	DefaultAddr = ":25580"

	// DefaultMaxPacketSize is the default inbound frame limit.
	DefaultMaxPacketSize = protocol.MaxPacketSize

	// DefaultReadTimeout is the default per-packet read deadline.
	DefaultReadTimeout = 30 * time.Second

	// DefaultWriteTimeout is the default per-packet write deadline.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultCompressionThreshold disables compression on the TCP echo.
	DefaultCompressionThreshold = -1

	// DefaultMetricsNamespace is the default Prometheus namespace.
	DefaultMetricsNamespace = "mcstructs"

	// DefaultLogLevel is the default slog level name.
	DefaultLogLevel = "info"

	// DefaultLogFormat is the default log handler.
	DefaultLogFormat = "text"
)

// Keys shared by config files, MCSTRUCTS_* variables and command-line
// flags. Dashes become underscores in environment variable names.
const (
	KeyConfig               = "config"
	KeyAddr                 = "addr"
	KeyTCPAddr              = "tcp-addr"
	KeyMaxPacketSize        = "max-packet-size"
	KeyReadTimeout          = "read-timeout"
	KeyWriteTimeout         = "write-timeout"
	KeyCompressionThreshold = "compression-threshold"
	KeyMetricsNamespace     = "metrics-namespace"
	KeyLogLevel             = "log-level"
	KeyLogFormat            = "log-format"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config is the resolved server configuration.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string

	// TCPAddr is the raw packet echo listen address. Empty disables it.
	TCPAddr string

	// MaxPacketSize bounds inbound frames on every connection.
	MaxPacketSize int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// CompressionThreshold enables compressed framing on the TCP echo when
	// zero or more.
	CompressionThreshold int

	MetricsNamespace string

	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	// LogFormat is text or json.
	LogFormat string
}

// Default returns the configuration used when no source sets a value.
func Default() *Config {
	return &Config{
		Addr:                 DefaultAddr,
		MaxPacketSize:        DefaultMaxPacketSize,
		ReadTimeout:          DefaultReadTimeout,
		WriteTimeout:         DefaultWriteTimeout,
		CompressionThreshold: DefaultCompressionThreshold,
		MetricsNamespace:     DefaultMetricsNamespace,
		LogLevel:             DefaultLogLevel,
		LogFormat:            DefaultLogFormat,
	}
}

// SetDefaults registers the defaults on v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault(KeyAddr, d.Addr)
	v.SetDefault(KeyTCPAddr, d.TCPAddr)
	v.SetDefault(KeyMaxPacketSize, d.MaxPacketSize)
	v.SetDefault(KeyReadTimeout, d.ReadTimeout)
	v.SetDefault(KeyWriteTimeout, d.WriteTimeout)
	v.SetDefault(KeyCompressionThreshold, d.CompressionThreshold)
	v.SetDefault(KeyMetricsNamespace, d.MetricsNamespace)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyLogFormat, d.LogFormat)
}

// Load resolves the configuration from v. Flags bound to v win over
// MCSTRUCTS_* variables, which win over the file named by the config key,
// which wins over the defaults.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := v.GetString(KeyConfig); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	c := &Config{
		Addr:                 v.GetString(KeyAddr),
		TCPAddr:              v.GetString(KeyTCPAddr),
		MaxPacketSize:        v.GetInt(KeyMaxPacketSize),
		ReadTimeout:          v.GetDuration(KeyReadTimeout),
		WriteTimeout:         v.GetDuration(KeyWriteTimeout),
		CompressionThreshold: v.GetInt(KeyCompressionThreshold),
		MetricsNamespace:     v.GetString(KeyMetricsNamespace),
		LogLevel:             strings.ToLower(v.GetString(KeyLogLevel)),
		LogFormat:            strings.ToLower(v.GetString(KeyLogFormat)),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: %s is empty", ErrInvalid, KeyAddr)
	case c.MaxPacketSize <= 0 || c.MaxPacketSize > protocol.MaxPacketSize:
		return fmt.Errorf("%w: %s %d not in 1..%d", ErrInvalid, KeyMaxPacketSize, c.MaxPacketSize, protocol.MaxPacketSize)
	case c.ReadTimeout <= 0:
		return fmt.Errorf("%w: %s must be positive", ErrInvalid, KeyReadTimeout)
	case c.WriteTimeout <= 0:
		return fmt.Errorf("%w: %s must be positive", ErrInvalid, KeyWriteTimeout)
	case c.CompressionThreshold > protocol.MaxPacketSize:
		return fmt.Errorf("%w: %s %d above max packet size", ErrInvalid, KeyCompressionThreshold, c.CompressionThreshold)
	case c.MetricsNamespace == "":
		return fmt.Errorf("%w: %s is empty", ErrInvalid, KeyMetricsNamespace)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("%w: %s %q", ErrInvalid, KeyLogFormat, c.LogFormat)
	}
	return nil
}

// SlogLevel returns LogLevel as a slog.Level, or slog.LevelInfo when the
// name is unknown.
func (c *Config) SlogLevel() slog.Level {
	l, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return l
}

// NewLogger returns a logger writing to w in the configured format.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("%w: %s %q", ErrInvalid, KeyLogLevel, name)
}
