package http

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/deploynotify/pkg/domain/interfaces"
	"github.com/m-mizutani/goerr/v2"
)

const (
	DefaultAddr        = "localhost:8080"
	DefaultWebhookPath = "/hooks/github"
)

type config struct {
	addr            string
	webhookSecret   string
	webhookPath     string
	shutdownTimeout time.Duration
}

// Option is a functional option for Server configuration
type Option func(*config)

// WithAddr sets the listen address
func WithAddr(addr string) Option {
	return func(c *config) {
		c.addr = addr
	}
}

// WithWebhookSecret sets the GitHub webhook secret. Signatures are not
// checked when the secret is empty.
func WithWebhookSecret(secret string) Option {
	return func(c *config) {
		c.webhookSecret = secret
	}
}

// WithWebhookPath sets the route GitHub deliveries are posted to
func WithWebhookPath(path string) Option {
	return func(c *config) {
		if path != "" {
			c.webhookPath = path
		}
	}
}

// WithShutdownTimeout bounds how long Run waits for in-flight deliveries
func WithShutdownTimeout(d time.Duration) Option {
	return func(c *config) {
		c.shutdownTimeout = d
	}
}

// Server receives GitHub deployment_status deliveries
type Server struct {
	*http.Server
	webhookPath     string
	shutdownTimeout time.Duration
}

// NewServer creates the webhook receiver. Deliveries posted to the webhook
// path are handed to processor.
func NewServer(
	ctx context.Context,
	processor interfaces.EventProcessor,
	opts ...Option,
) (*Server, error) {
	cfg := &config{
		addr:            DefaultAddr,
		webhookPath:     DefaultWebhookPath,
		shutdownTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.webhookPath[0] != '/' {
		return nil, goerr.New("webhook path must start with '/'", goerr.V("path", cfg.webhookPath))
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggingMiddleware(ctx))
	router.Use(middleware.Recoverer)

	router.Get("/health", healthHandler(processor.AsyncDelivery()))
	router.Post(cfg.webhookPath, NewWebhookHandler(cfg.webhookSecret, processor).Handle)

	return &Server{
		Server: &http.Server{
			Addr:              cfg.addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
		},
		webhookPath:     cfg.webhookPath,
		shutdownTimeout: cfg.shutdownTimeout,
	}, nil
}

// WebhookPath returns the route deliveries are accepted on
func (s *Server) WebhookPath() string {
	return s.webhookPath
}

// Run listens on the configured address and serves until ctx is done, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return goerr.Wrap(err, "failed to listen", goerr.V("addr", s.Addr))
	}
	return s.serve(ctx, listener)
}

func (s *Server) serve(ctx context.Context, listener net.Listener) error {
	logger := ctxlog.From(ctx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting",
			slog.String("addr", listener.Addr().String()),
			slog.String("webhook_path", s.webhookPath),
		)
		if err := s.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return goerr.Wrap(err, "HTTP server stopped")
		}
		return nil
	case <-ctx.Done():
		logger.Info("Shutting down HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		return goerr.Wrap(err, "failed to shutdown server gracefully")
	}

	logger.Info("Server shutdown complete")
	return nil
}
