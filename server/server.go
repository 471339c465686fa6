package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/agentroom/logging"
)

// Routes served by NewMux.
const (
	PathWebSocket = "/ws"
	PathHealth    = "/healthz"
	PathMetrics   = "/metrics"
)

// NewMux mounts the WebSocket handler, a health check and, when gatherer is
// not nil, the Prometheus endpoint.
func NewMux(ws http.Handler, gatherer prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(PathWebSocket, ws)
	mux.HandleFunc(PathHealth, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	if gatherer != nil {
		mux.Handle(PathMetrics, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return mux
}

// Server runs an HTTP server until its context is cancelled.
type Server struct {
	addr            string
	handler         http.Handler
	shutdownTimeout time.Duration
	logger          logging.Logger
}

// ServerOptions configure a Server.
type ServerOptions struct {
	ShutdownTimeout time.Duration
	Logger          logging.Logger
}

// New creates a Server listening on addr.
func New(addr string, handler http.Handler, optFns ...func(o *ServerOptions)) *Server {
	opts := ServerOptions{
		ShutdownTimeout: 10 * time.Second,
		Logger:          logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Server{
		addr:            addr,
		handler:         handler,
		shutdownTimeout: opts.ShutdownTimeout,
		logger:          opts.Logger,
	}
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
// Hijacked WebSocket connections are cancelled through their request
// context.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	srv.RegisterOnShutdown(cancelBase)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("server.listen", "addr", ln.Addr().String())

		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		s.logger.Info("server.shutdown", "timeout", s.shutdownTimeout)

		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
