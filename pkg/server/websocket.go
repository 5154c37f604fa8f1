package server

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/mcstructs/mcstructs/pkg/transport"
)

// handleWebSocket upgrades the request and echoes every packet back.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	logger := s.logger.With("remote", r.RemoteAddr, "request_id", chimw.GetReqID(r.Context()))
	pc := transport.NewWSConn(ws, s.transportOptions(logger))
	done, ok := s.track(pc)
	if !ok {
		pc.Close()
		return
	}
	defer done()

	s.echo(r.Context(), pc, logger)
}
