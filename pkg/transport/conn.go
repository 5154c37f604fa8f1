package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mcstructs/mcstructs/pkg/metrics"
	"github.com/mcstructs/mcstructs/pkg/protocol"
	"github.com/mcstructs/mcstructs/pkg/varint"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// PacketConn is implemented by Conn and WSConn.
type PacketConn interface {
	ReadPacket(ctx context.Context) (*protocol.Packet, error)
	WritePacket(ctx context.Context, p *protocol.Packet) error
	Close() error
}

var (
	_ PacketConn = (*Conn)(nil)
	_ PacketConn = (*WSConn)(nil)
)

type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

// Conn reads and writes packets on a byte stream.
// One goroutine may read while another writes; concurrent writes are
// serialized.
type Conn struct {
	rw   io.ReadWriter
	r    *bufio.Reader
	opts Options

	wmu       sync.Mutex
	threshold int
}

// NewConn wraps rw. Reads are buffered; writes go straight to rw, one
// Write call per packet.
func NewConn(rw io.ReadWriter, opts Options) *Conn {
	return &Conn{
		rw:        rw,
		r:         bufio.NewReader(rw),
		opts:      opts.withDefaults(),
		threshold: -1,
	}
}

// Dial connects to addr over TCP.
func Dial(ctx context.Context, addr string, opts Options) (*Conn, error) {
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewConn(nc, opts), nil
}

// SetCompression switches the connection to the compressed framing with
// the given threshold. A negative threshold switches back to plain framing.
// Callers must not race it with ReadPacket or WritePacket.
func (c *Conn) SetCompression(threshold int) {
	c.threshold = threshold
}

// ReadPacket reads the next packet.
func (c *Conn) ReadPacket(ctx context.Context) (*protocol.Packet, error) {
	ctx, span := c.opts.Tracer.Start(ctx, "mcstructs.read_packet", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if rd, ok := c.rw.(readDeadliner); ok {
		if err := rd.SetReadDeadline(deadline(ctx, c.opts.ReadTimeout)); err != nil {
			readFailed(c.opts, span, err)
			return nil, err
		}
	}

	var p *protocol.Packet
	var err error
	if c.threshold >= 0 {
		p, err = protocol.ReadCompressedPacket(c.r, c.opts.MaxPacketSize, c.threshold)
	} else {
		p, err = protocol.ReadPacket(c.r, c.opts.MaxPacketSize)
	}
	if err != nil {
		readFailed(c.opts, span, err)
		return nil, err
	}

	packetDone(span, p)
	c.opts.Observer.PacketRead(p.ID, p.Len())
	return p, nil
}

// WritePacket writes p.
func (c *Conn) WritePacket(ctx context.Context, p *protocol.Packet) error {
	ctx, span := c.opts.Tracer.Start(ctx, "mcstructs.write_packet", trace.WithSpanKind(trace.SpanKindProducer))
	defer span.End()

	c.wmu.Lock()
	defer c.wmu.Unlock()

	if wd, ok := c.rw.(writeDeadliner); ok {
		if err := wd.SetWriteDeadline(deadline(ctx, c.opts.WriteTimeout)); err != nil {
			err = fmt.Errorf("%w: %w", varint.ErrWriteFailure, err)
			writeFailed(c.opts, span, err)
			return err
		}
	}

	var err error
	if c.threshold >= 0 {
		err = protocol.WriteCompressedPacket(c.rw, p, c.threshold)
	} else {
		err = protocol.WritePacket(c.rw, p)
	}
	if err != nil {
		writeFailed(c.opts, span, err)
		return err
	}

	packetDone(span, p)
	c.opts.Observer.PacketWritten(p.ID, p.Len())
	return nil
}

// Close closes the underlying stream if it is an io.Closer.
func (c *Conn) Close() error {
	if cl, ok := c.rw.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}

// Reject reports err to the peer as a fatal protocol error and closes pc.
// The close error is returned if the report could be written.
func Reject(ctx context.Context, pc PacketConn, err error) error {
	em := protocol.NewFatalError(protocol.CodeFor(err), err.Error())
	werr := pc.WritePacket(ctx, em.Packet())
	cerr := pc.Close()
	if werr != nil {
		return werr
	}
	return cerr
}

// deadline returns the earlier of the context deadline and now+timeout, or
// the zero time when neither applies.
func deadline(ctx context.Context, timeout time.Duration) time.Time {
	var t time.Time
	if timeout > 0 {
		t = time.Now().Add(timeout)
	}
	if d, ok := ctx.Deadline(); ok && (t.IsZero() || d.Before(t)) {
		t = d
	}
	return t
}

// IsClosed reports whether err from ReadPacket marks an orderly close
// between packets.
func IsClosed(err error) bool {
	if errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}

func packetDone(span trace.Span, p *protocol.Packet) {
	span.SetAttributes(
		attribute.Int("packet.id", int(p.ID)),
		attribute.Int("packet.size", p.Len()),
	)
}

func readFailed(opts Options, span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	// A clean close between packets is not a codec error.
	if IsClosed(err) {
		opts.Logger.Debug("peer closed connection")
		return
	}

	opts.Observer.CodecError(metrics.DirectionIn, err)
	if errors.Is(err, varint.ErrOverlong) {
		opts.Logger.Warn("overlong varint from peer", "error", err)
		return
	}
	opts.Logger.Debug("packet read failed", "error", err)
}

func writeFailed(opts Options, span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	opts.Observer.CodecError(metrics.DirectionOut, err)
	opts.Logger.Debug("packet write failed", "error", err)
}
