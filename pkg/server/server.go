package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/mcstructs/mcstructs/pkg/metrics"
	"github.com/mcstructs/mcstructs/pkg/middleware"
	"github.com/mcstructs/mcstructs/pkg/transport"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ transport.Observer = (*metrics.Collector)(nil)

// Server is the HTTP and raw packet inspection server.
type Server struct {
	config    ServerConfig
	logger    *slog.Logger
	collector *metrics.Collector
	upgrader  websocket.Upgrader
	router    chi.Router

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
	conns      map[transport.PacketConn]struct{}
	closing    bool
	wg         sync.WaitGroup
}

// New creates a new Server with the given configuration.
// A nil config uses DefaultServerConfig.
func New(config *ServerConfig) (*Server, error) {
	if config == nil {
		config = DefaultServerConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	cfg := config.withDefaults()

	s := &Server{
		config: cfg,
		logger: cfg.Logger.With("component", "server"),
		collector: metrics.New(
			metrics.WithNamespace(cfg.MetricsNamespace),
			metrics.WithRegistry(cfg.Registry),
		),
		upgrader: websocket.Upgrader{
			CheckOrigin: cfg.CheckOrigin,
		},
		conns: make(map[transport.PacketConn]struct{}),
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	otelOpts := []middleware.OTelOption{middleware.WithTracerName("mcstructs/server")}
	if s.config.Tracer != nil {
		otelOpts = append(otelOpts, middleware.WithTracer(s.config.Tracer))
	}

	r := chi.NewRouter()
	r.Use(
		chimw.RequestID,
		chimw.Recoverer,
		middleware.OpenTelemetry(otelOpts...),
		middleware.Prometheus(
			middleware.WithNamespace(s.config.MetricsNamespace),
			middleware.WithRegistry(s.config.Registry),
		),
		middleware.Logger(s.logger),
	)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/encode", s.handleEncode)
		r.Post("/decode", s.handleDecode)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.config.Registry, promhttp.HandlerOpts{}))
	r.Get("/ws", s.handleWebSocket)
	return r
}

// Handler returns the HTTP handler for mounting in an external server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Collector returns the packet and codec collectors.
func (s *Server) Collector() *metrics.Collector {
	return s.collector
}

// transportOptions returns the options for packet connections.
func (s *Server) transportOptions(logger *slog.Logger) transport.Options {
	return transport.Options{
		Logger:        logger,
		MaxPacketSize: s.config.MaxPacketSize,
		ReadTimeout:   s.config.ReadTimeout,
		WriteTimeout:  s.config.WriteTimeout,
		Observer:      s.collector,
		Tracer:        s.config.Tracer,
	}
}

// Run serves until ctx is canceled, then shuts down gracefully.
// It returns nil after a clean shutdown.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.config.Address, err)
	}

	var tcp net.Listener
	if s.config.TCPAddress != "" {
		tcp, err = net.Listen("tcp", s.config.TCPAddress)
		if err != nil {
			ln.Close()
			return fmt.Errorf("server: listen %s: %w", s.config.TCPAddress, err)
		}
	}
	return s.Serve(ctx, ln, tcp)
}

// Serve serves HTTP on ln and, when tcp is non-nil, raw packets on tcp,
// until ctx is canceled or a listener fails.
func (s *Server) Serve(ctx context.Context, ln, tcp net.Listener) error {
	s.mu.Lock()
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.listener = tcp
	s.mu.Unlock()

	errCh := make(chan error, 2)
	go func() {
		s.logger.Info("server starting", "address", ln.Addr().String())
		errCh <- s.httpServer.Serve(ln)
	}()
	if tcp != nil {
		go func() {
			s.logger.Info("packet listener starting", "address", tcp.Addr().String())
			errCh <- s.serveTCP(ctx, tcp)
		}()
	}

	var serveErr error
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, net.ErrClosed) {
			serveErr = err
		}
	case <-ctx.Done():
		s.logger.Info("shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.ShutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil && serveErr == nil {
		serveErr = err
	}
	return serveErr
}

// Shutdown stops the listeners, closes open packet connections and waits
// for their handlers to return or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	hs, ln := s.httpServer, s.listener
	for pc := range s.conns {
		pc.Close()
	}
	s.mu.Unlock()

	var err error
	if ln != nil {
		ln.Close()
	}
	if hs != nil {
		if serr := hs.Shutdown(ctx); serr != nil {
			s.logger.Error("shutdown error", "error", serr)
			err = serr
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}

	s.logger.Info("server shutdown complete")
	return err
}

// track registers pc for closing on shutdown. The returned func
// unregisters it. track reports false once shutdown has begun.
func (s *Server) track(pc transport.PacketConn) (func(), bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return nil, false
	}
	s.conns[pc] = struct{}{}
	s.wg.Add(1)
	return func() {
		s.mu.Lock()
		delete(s.conns, pc)
		s.mu.Unlock()
		s.wg.Done()
	}, true
}
