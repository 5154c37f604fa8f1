package transport

import (
	"log/slog"
	"time"

	"github.com/mcstructs/mcstructs/pkg/protocol"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/mcstructs/mcstructs/pkg/transport"

// Observer receives per-packet notifications. *metrics.Collector
// implements it.
type Observer interface {
	PacketRead(id int32, size int)
	PacketWritten(id int32, size int)
	CodecError(direction string, err error)
}

// Options configures a Conn or WSConn.
type Options struct {
	// Logger is the structured logger.
	// If nil, slog.Default() is used.
	Logger *slog.Logger

	// MaxPacketSize bounds inbound frame length.
	// Default: protocol.MaxPacketSize.
	MaxPacketSize int

	// ReadTimeout is applied as a read deadline before each packet when the
	// underlying connection supports deadlines. Zero disables it.
	ReadTimeout time.Duration

	// WriteTimeout is applied as a write deadline before each packet.
	WriteTimeout time.Duration

	// Observer receives packet and error notifications. May be nil.
	Observer Observer

	// Tracer creates the per-packet spans.
	// If nil, the global tracer provider is used.
	Tracer trace.Tracer
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.MaxPacketSize <= 0 || o.MaxPacketSize > protocol.MaxPacketSize {
		o.MaxPacketSize = protocol.MaxPacketSize
	}
	if o.Tracer == nil {
		o.Tracer = otel.Tracer(tracerName)
	}
	if o.Observer == nil {
		o.Observer = nopObserver{}
	}
	return o
}

type nopObserver struct{}

func (nopObserver) PacketRead(int32, int)    {}
func (nopObserver) PacketWritten(int32, int) {}
func (nopObserver) CodecError(string, error) {}
