// Package server implements greetd, a small development backend serving the
// greeting resource the client talks to.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// DefaultOrigin is appended to every greeting unless overridden.
const DefaultOrigin = "greetd"

// Config holds server configuration
type Config struct {
	Addr            string
	Origin          string
	Delay           time.Duration
	FailNames       []string
	ShutdownTimeout time.Duration
	Logger          zerolog.Logger
}

// Server serves GET /hello and GET /healthz
type Server struct {
	config    Config
	failNames map[string]struct{}
	logger    zerolog.Logger
	router    chi.Router
}

// New builds a server and its routes.
func New(cfg Config) *Server {
	if cfg.Origin == "" {
		cfg.Origin = DefaultOrigin
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}
	s := &Server{
		config:    cfg,
		failNames: make(map[string]struct{}, len(cfg.FailNames)),
		logger:    cfg.Logger.With().Str("component", "greetd").Logger(),
	}
	for _, name := range cfg.FailNames {
		if name = strings.TrimSpace(name); name != "" {
			s.failNames[name] = struct{}{}
		}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.loggingMiddleware)

	r.Get("/hello", s.hello)
	r.Get("/healthz", s.healthCheck)
	s.router = r
	return s
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Greeting builds the greeting for name. A blank name gets the anonymous form.
func Greeting(name, origin string) string {
	if strings.TrimSpace(name) == "" {
		return "Hello from " + origin
	}
	return "Hello " + name + " from " + origin
}

func (s *Server) hello(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")

	if s.config.Delay > 0 {
		select {
		case <-time.After(s.config.Delay):
		case <-r.Context().Done():
			return
		}
	}

	if _, fail := s.failNames[name]; fail {
		http.Error(w, "greeting unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(Greeting(name, s.config.Origin)))
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// Run listens on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().
			Str("addr", ln.Addr().String()).
			Str("origin", s.config.Origin).
			Dur("delay", s.config.Delay).
			Int("fail_names", len(s.failNames)).
			Msg("Starting greeting server")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
