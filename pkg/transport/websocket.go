package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mcstructs/mcstructs/pkg/protocol"
	"github.com/mcstructs/mcstructs/pkg/varint"
	"go.opentelemetry.io/otel/trace"
)

// WebSocket errors.
var (
	ErrTextMessage  = errors.New("transport: text message on packet socket")
	ErrTrailingData = errors.New("transport: trailing data after packet")
)

// WSConn carries one framed packet per binary WebSocket message. The frame
// keeps its VarInt length prefix so the payload is byte-identical to the
// TCP framing.
type WSConn struct {
	ws   *websocket.Conn
	opts Options
	wmu  sync.Mutex
}

// NewWSConn wraps an established WebSocket connection.
func NewWSConn(ws *websocket.Conn, opts Options) *WSConn {
	opts = opts.withDefaults()
	ws.SetReadLimit(int64(opts.MaxPacketSize + varint.MaxVarIntLen))
	return &WSConn{ws: ws, opts: opts}
}

// ReadPacket reads the next binary message and decodes it as one packet.
func (c *WSConn) ReadPacket(ctx context.Context) (*protocol.Packet, error) {
	ctx, span := c.opts.Tracer.Start(ctx, "mcstructs.read_packet", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.ws.SetReadDeadline(deadline(ctx, c.opts.ReadTimeout)); err != nil {
		readFailed(c.opts, span, err)
		return nil, err
	}

	p, err := c.readPacket()
	if err != nil {
		readFailed(c.opts, span, err)
		return nil, err
	}

	packetDone(span, p)
	c.opts.Observer.PacketRead(p.ID, p.Len())
	return p, nil
}

func (c *WSConn) readPacket() (*protocol.Packet, error) {
	mt, data, err := c.ws.ReadMessage()
	if err != nil {
		return nil, err
	}
	if mt != websocket.BinaryMessage {
		return nil, ErrTextMessage
	}

	length, n, err := varint.DecodeVarInt(data)
	if err != nil {
		return nil, err
	}
	if int(length) > c.opts.MaxPacketSize {
		return nil, protocol.ErrPacketTooLarge
	}
	if length >= 0 && len(data)-n > int(length) {
		return nil, fmt.Errorf("%w: %d bytes", ErrTrailingData, len(data)-n-int(length))
	}
	return protocol.DecodePacket(data)
}

// WritePacket sends p as a single binary message.
func (c *WSConn) WritePacket(ctx context.Context, p *protocol.Packet) error {
	ctx, span := c.opts.Tracer.Start(ctx, "mcstructs.write_packet", trace.WithSpanKind(trace.SpanKindProducer))
	defer span.End()

	if p.Len() > protocol.MaxPacketSize {
		writeFailed(c.opts, span, protocol.ErrPacketTooLarge)
		return protocol.ErrPacketTooLarge
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()

	err := c.ws.SetWriteDeadline(deadline(ctx, c.opts.WriteTimeout))
	if err == nil {
		err = c.ws.WriteMessage(websocket.BinaryMessage, p.Encode())
	}
	if err != nil {
		err = fmt.Errorf("%w: %w", varint.ErrWriteFailure, err)
		writeFailed(c.opts, span, err)
		return err
	}

	packetDone(span, p)
	c.opts.Observer.PacketWritten(p.ID, p.Len())
	return nil
}

// Close sends a normal close frame and closes the socket.
func (c *WSConn) Close() error {
	c.wmu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	c.wmu.Unlock()
	return c.ws.Close()
}
