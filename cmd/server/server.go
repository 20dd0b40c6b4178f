package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/klauspost/compress/gzhttp"
	"github.com/robtot/skeleton-go/pkg/config"
	"github.com/robtot/skeleton-go/pkg/logger"
)

type Server struct {
	cfg     *config.Config
	log     *logger.Logger
	handler *Handler
	srv     *http.Server
	ln      net.Listener
	monitor *logger.Monitor
	errs    chan error
}

func NewServer(cfg *config.Config, l *logger.Logger) *Server {
	return &Server{
		cfg:     cfg,
		log:     l,
		handler: NewHandler(l, cfg.BodyLimit),
		errs:    make(chan error, 1),
	}
}

// Routes builds the HTTP handler tree. With compression enabled every
// response is gzipped for clients that accept it, whatever its size.
func (s *Server) Routes() (http.Handler, error) {
	r := chi.NewRouter()
	r.Use(s.handler.Recover)
	r.Use(s.handler.ParseBody)
	r.Use(s.handler.LogRequests)

	r.Get("/", s.handler.Wrap(s.handler.HandleHello))

	if !s.cfg.Compress {
		return r, nil
	}
	wrap, err := gzhttp.NewWrapper(gzhttp.MinSize(0))
	if err != nil {
		return nil, fmt.Errorf("failed to build gzip wrapper: %w", err)
	}
	return wrap(r), nil
}

// Start binds the listening socket and serves in the background.
func (s *Server) Start() error {
	s.monitor = s.log.Monitor("server", "start")

	routes, err := s.Routes()
	if err != nil {
		s.monitor.Error("routes: %s", err)
		return err
	}

	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		s.monitor.Error("listen on %s: %s", s.cfg.Addr(), err)
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr(), err)
	}
	s.ln = ln
	s.srv = &http.Server{
		Handler: routes,
	}

	s.monitor.Info("Example app listening on port %d", s.Port())

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.monitor.Error("serve: %s", err)
			s.errs <- err
		}
		close(s.errs)
	}()
	return nil
}

// Err reports a serve failure. The channel is closed once the server stops.
func (s *Server) Err() <-chan error {
	return s.errs
}

// Addr is the bound address; nil before Start.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Port is the bound TCP port, or 0 before Start.
func (s *Server) Port() int {
	if addr, ok := s.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}

// Stop closes the listener and waits for in-flight requests until ctx ends.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		s.monitor.Error("shutdown: %s", err)
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.monitor.Done("server stopped")
	return nil
}
