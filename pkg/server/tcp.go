package server

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"github.com/mcstructs/mcstructs/pkg/protocol"
	"github.com/mcstructs/mcstructs/pkg/transport"
)

// serveTCP accepts raw packet connections until ln is closed.
func (s *Server) serveTCP(ctx context.Context, ln net.Listener) error {
	for {
		nc, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return err
		}

		logger := s.logger.With("remote", nc.RemoteAddr().String())
		c := transport.NewConn(nc, s.transportOptions(logger))
		done, ok := s.track(c)
		if !ok {
			c.Close()
			return nil
		}
		go func() {
			defer done()
			s.handleTCP(ctx, c, logger)
		}()
	}
}

// handleTCP reads the handshake and dispatches on its next state.
func (s *Server) handleTCP(ctx context.Context, c *transport.Conn, logger *slog.Logger) {
	p, err := c.ReadPacket(ctx)
	if err != nil {
		s.drop(ctx, c, logger, err)
		return
	}
	hs, err := protocol.DecodeHandshake(p)
	if err != nil {
		s.drop(ctx, c, logger, err)
		return
	}
	logger = logger.With("protocol", hs.ProtocolVersion, "next_state", hs.NextState.String())
	logger.Debug("handshake", "address", hs.ServerAddress, "port", hs.ServerPort)

	if hs.NextState == protocol.StateStatus {
		s.status(ctx, c, logger)
		return
	}
	if s.config.Compression {
		c.SetCompression(s.config.CompressionThreshold)
	}
	s.echo(ctx, c, logger)
}

// status answers one status request and one ping, then closes c.
func (s *Server) status(ctx context.Context, c *transport.Conn, logger *slog.Logger) {
	defer c.Close()

	for answered := false; ; {
		p, err := c.ReadPacket(ctx)
		if err != nil {
			s.drop(ctx, c, logger, err)
			return
		}

		switch {
		case p.ID == protocol.StatusRequestID && !answered:
			resp, err := protocol.StatusResponsePacket(s.config.Status)
			if err != nil {
				logger.Error("status encode failed", "error", err)
				return
			}
			if err := c.WritePacket(ctx, resp); err != nil {
				return
			}
			answered = true
		case p.ID == protocol.PingID:
			payload, err := protocol.DecodePing(p)
			if err != nil {
				s.drop(ctx, c, logger, err)
				return
			}
			_ = c.WritePacket(ctx, protocol.PongPacket(payload))
			return
		default:
			s.drop(ctx, c, logger, protocol.ErrUnexpectedPacket)
			return
		}
	}
}

// echo writes every packet read from pc back to it until the peer leaves
// or sends something undecodable.
func (s *Server) echo(ctx context.Context, pc transport.PacketConn, logger *slog.Logger) {
	for {
		p, err := pc.ReadPacket(ctx)
		if err != nil {
			s.drop(ctx, pc, logger, err)
			return
		}
		if err := pc.WritePacket(ctx, p); err != nil {
			logger.Debug("echo write failed", "error", err)
			pc.Close()
			return
		}
	}
}

// drop ends a packet connection. Orderly closes are closed quietly;
// decode failures are reported to the peer first.
func (s *Server) drop(ctx context.Context, pc transport.PacketConn, logger *slog.Logger, err error) {
	if transport.IsClosed(err) || errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
		pc.Close()
		return
	}
	logger.Debug("dropping connection", "error", err, "code", protocol.CodeFor(err).String())
	if rerr := transport.Reject(ctx, pc, err); rerr != nil {
		logger.Debug("reject failed", "error", rerr)
	}
}
