// Package metrics exposes Prometheus collectors for packet traffic and
// codec failures.
package metrics

import (
	"errors"

	"github.com/mcstructs/mcstructs/pkg/protocol"
	"github.com/mcstructs/mcstructs/pkg/varint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Directions used as the "direction" label.
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// Error kinds used as the "kind" label of codec_errors_total.
const (
	KindReadFailure  = "read_failure"
	KindOverlong     = "overlong"
	KindWriteFailure = "write_failure"
	KindTooLarge     = "too_large"
	KindOther        = "other"
)

// Config configures the collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "mcstructs").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for packet sizes in bytes.
	// Default: 16, 64, 256, ... 1MiB
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the collectors.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the packet size histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "mcstructs",
		Buckets:   prometheus.ExponentialBuckets(16, 4, 9),
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Collector holds the Prometheus metrics. It satisfies transport.Observer.
type Collector struct {
	packetsTotal *prometheus.CounterVec
	packetBytes  *prometheus.HistogramVec
	codecErrors  *prometheus.CounterVec
	valuesTotal  *prometheus.CounterVec
}

// New creates and registers the collectors.
// Registering twice on the same registry panics, as with promauto.
func New(opts ...Option) *Collector {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Collector{
		packetsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "packets_total",
			Help:        "Total number of packets read or written",
			ConstLabels: config.ConstLabels,
		}, []string{"direction"}),

		packetBytes: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "packet_bytes",
			Help:        "Frame length of packets in bytes",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"direction"}),

		codecErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "codec_errors_total",
			Help:        "Total number of packet or value codec failures",
			ConstLabels: config.ConstLabels,
		}, []string{"direction", "kind"}),

		valuesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "values_total",
			Help:        "Total number of standalone VarInt/VarLong values encoded or decoded",
			ConstLabels: config.ConstLabels,
		}, []string{"op", "width"}),
	}
}

// PacketRead records an inbound packet of size bytes.
func (c *Collector) PacketRead(id int32, size int) {
	c.packetsTotal.WithLabelValues(DirectionIn).Inc()
	c.packetBytes.WithLabelValues(DirectionIn).Observe(float64(size))
}

// PacketWritten records an outbound packet of size bytes.
func (c *Collector) PacketWritten(id int32, size int) {
	c.packetsTotal.WithLabelValues(DirectionOut).Inc()
	c.packetBytes.WithLabelValues(DirectionOut).Observe(float64(size))
}

// CodecError records a failure in the given direction.
func (c *Collector) CodecError(direction string, err error) {
	c.codecErrors.WithLabelValues(direction, Classify(err)).Inc()
}

// ValueCoded records a standalone value operation. op is "encode" or
// "decode"; width is "varint" or "varlong".
func (c *Collector) ValueCoded(op, width string) {
	c.valuesTotal.WithLabelValues(op, width).Inc()
}

// Classify maps an error to its "kind" label.
func Classify(err error) string {
	switch {
	case errors.Is(err, varint.ErrOverlong):
		return KindOverlong
	case errors.Is(err, varint.ErrReadFailure), errors.Is(err, protocol.ErrTruncated):
		return KindReadFailure
	case errors.Is(err, varint.ErrWriteFailure):
		return KindWriteFailure
	case errors.Is(err, protocol.ErrPacketTooLarge), errors.Is(err, protocol.ErrAllocationTooLarge):
		return KindTooLarge
	default:
		return KindOther
	}
}
