// Package relay forwards scene edit requests to the generation provider. It
// is the only process that holds the provider credential; editors talk to it
// over plain HTTP (POST /push-ai) or a WebSocket (/ws).
package relay

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/quic-go/quic-go/http3"
	"golang.org/x/sync/errgroup"

	"github.com/scraper-sky/2d-scene-editor/internal/core/observability/log"
)

// Server represents the edit relay
type Server struct {
	config    Config
	generator Generator
	logger    log.Log

	handler  http.Handler
	upgrader websocket.Upgrader

	httpServer *http.Server
	h3         *http3.Server

	running int32 // atomic bool
}

// NewServer validates config and wires the HTTP routes. A configuration
// error means the relay must not start.
func NewServer(config Config, generator Generator, logger log.Log) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		config:    config,
		generator: generator,
		logger:    logger.With(log.String("component", "relay")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Origins are governed by AllowedOrigins, same as for HTTP.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	if config.TLS.HTTP3 {
		s.h3 = &http3.Server{Addr: config.Addr()}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHealth)
	mux.HandleFunc("/push-ai", s.handlePushAI)
	mux.HandleFunc("/ws", s.handleWebSocket)
	s.handler = s.withRequestID(s.withAccessLog(s.withCORS(s.withAltSvc(mux))))
	if s.h3 != nil {
		s.h3.Handler = s.handler
	}

	s.logger.Info("Relay created",
		log.String("addr", config.Addr()),
		log.String("model", config.Provider.Model),
		log.Bool("tls", config.TLS.Enabled()),
		log.Bool("http3", config.TLS.HTTP3))
	return s, nil
}

// Handler exposes the routed handler, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled or a listener fails, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return ErrServerAlreadyRunning
	}
	defer atomic.StoreInt32(&s.running, 0)

	s.httpServer = &http.Server{
		Addr:              s.config.Addr(),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		s.logger.Info("Relay listening", log.String("addr", s.httpServer.Addr))
		var err error
		if s.config.TLS.Enabled() {
			err = s.httpServer.ListenAndServeTLS(s.config.TLS.CertFile, s.config.TLS.KeyFile)
		} else {
			err = s.httpServer.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	if s.h3 != nil {
		group.Go(func() error {
			s.logger.Info("HTTP/3 listening", log.String("addr", s.h3.Addr))
			err := s.h3.ListenAndServeTLS(s.config.TLS.CertFile, s.config.TLS.KeyFile)
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
	}
	group.Go(func() error {
		<-groupCtx.Done()
		return s.shutdown()
	})

	err := group.Wait()
	s.logger.Info("Relay stopped")
	return err
}

func (s *Server) shutdown() error {
	s.logger.Info("Stopping relay")
	ctx, cancel := context.WithTimeout(context.Background(), s.config.RequestTimeout)
	defer cancel()

	var all error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		all = errors.Join(all, err)
	}
	if s.h3 != nil {
		if err := s.h3.Close(); err != nil {
			all = errors.Join(all, err)
		}
	}
	return all
}

// Running reports whether Run is active.
func (s *Server) Running() bool {
	return atomic.LoadInt32(&s.running) == 1
}
