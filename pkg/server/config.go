package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mcstructs/mcstructs/pkg/protocol"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

// ServerConfig configures a Server.
type ServerConfig struct {
	// Address is the HTTP listen address.
	// Default: ":25580"
	Address string

	// TCPAddress is the raw packet listen address. Empty disables it.
	TCPAddress string

	// MaxPacketSize bounds inbound frames on WebSocket and TCP connections.
	// Default: protocol.MaxPacketSize
	MaxPacketSize int

	// ReadTimeout is the per-packet read deadline on packet connections.
	// Default: 30s
	ReadTimeout time.Duration

	// WriteTimeout is the per-packet write deadline on packet connections.
	// Default: 10s
	WriteTimeout time.Duration

	// Compression switches echo connections to the compressed framing after
	// the handshake. Default: false
	Compression bool

	// CompressionThreshold is the smallest body compressed when Compression
	// is set; 0 compresses every packet.
	// Default: 256
	CompressionThreshold int

	// ReadHeaderTimeout bounds reading HTTP request headers.
	// Default: 5s
	ReadHeaderTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 10s
	ShutdownTimeout time.Duration

	// MetricsNamespace prefixes every exported metric.
	// Default: "mcstructs"
	MetricsNamespace string

	// Status is reported to server list pings on the TCP listener.
	// Default: DefaultStatus()
	Status *protocol.ServerStatus

	// Registry receives the server's collectors and backs /metrics.
	// Default: a fresh prometheus.Registry
	Registry *prometheus.Registry

	// Tracer is used for request and packet spans.
	// If nil, the global tracer provider is used.
	Tracer trace.Tracer

	// Logger is the structured logger.
	// If nil, slog.Default() is used.
	Logger *slog.Logger

	// CheckOrigin validates the Origin header of /ws upgrades.
	// Default: accept all origins (the socket carries no credentials).
	CheckOrigin func(r *http.Request) bool
}

// ProtocolVersion is reported in the default server status.
const ProtocolVersion = 769

// DefaultCompressionThreshold matches the vanilla server.
const DefaultCompressionThreshold = 256

// DefaultStatus returns the status document sent when none is configured.
func DefaultStatus() *protocol.ServerStatus {
	return &protocol.ServerStatus{
		Version:     protocol.StatusVersion{Name: "mcstructs", Protocol: ProtocolVersion},
		Players:     protocol.StatusPlayers{Max: 0, Online: 0},
		Description: protocol.StatusText{Text: "mcstructs inspection server"},
	}
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Address:              ":25580",
		MaxPacketSize:        protocol.MaxPacketSize,
		ReadTimeout:          30 * time.Second,
		WriteTimeout:         10 * time.Second,
		CompressionThreshold: DefaultCompressionThreshold,
		ReadHeaderTimeout:    5 * time.Second,
		ShutdownTimeout:      10 * time.Second,
		MetricsNamespace:     "mcstructs",
		CheckOrigin:          func(*http.Request) bool { return true },
	}
}

// withDefaults fills unset fields from DefaultServerConfig.
func (c ServerConfig) withDefaults() ServerConfig {
	d := DefaultServerConfig()
	if c.Address == "" {
		c.Address = d.Address
	}
	if c.MaxPacketSize <= 0 {
		c.MaxPacketSize = d.MaxPacketSize
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.ReadHeaderTimeout == 0 {
		c.ReadHeaderTimeout = d.ReadHeaderTimeout
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	if c.MetricsNamespace == "" {
		c.MetricsNamespace = d.MetricsNamespace
	}
	if c.CheckOrigin == nil {
		c.CheckOrigin = d.CheckOrigin
	}
	if c.Status == nil {
		c.Status = DefaultStatus()
	}
	if c.Registry == nil {
		c.Registry = prometheus.NewRegistry()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("server: invalid config")

// Validate checks limits that have no usable default.
func (c *ServerConfig) Validate() error {
	if c.MaxPacketSize > protocol.MaxPacketSize {
		return fmt.Errorf("%w: max packet size %d above %d", ErrInvalidConfig, c.MaxPacketSize, protocol.MaxPacketSize)
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		return fmt.Errorf("%w: negative timeout", ErrInvalidConfig)
	}
	if c.Compression && (c.CompressionThreshold < 0 || c.CompressionThreshold > protocol.MaxPacketSize) {
		return fmt.Errorf("%w: compression threshold %d out of range", ErrInvalidConfig, c.CompressionThreshold)
	}
	return nil
}
