package http

import (
	"context"
	"errors"
	stdhttp "net/http"
	"time"

	"insightmart/internal/platform/config"
	"insightmart/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

// Server is a chi mux behind a stdlib http.Server
type Server struct {
	addr string
	mux  *chi.Mux
	srv  *stdhttp.Server
}

// NewServer reads API_PORT (default ":4000") from cfg; opts get the mux to mount on
func NewServer(cfg config.Conf, opts ...func(*chi.Mux)) *Server {
	addr := cfg.MayString("API_PORT", ":4000")
	m := chi.NewRouter()
	for _, o := range opts {
		o(m)
	}
	return &Server{
		addr: addr,
		mux:  m,
		srv: &stdhttp.Server{
			Addr:              addr,
			Handler:           m,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Router returns the mux as a Router
func (s *Server) Router() Router { return AdaptChi(s.mux) }

// Addr is the listen address
func (s *Server) Addr() string { return s.addr }

// Run serves until ctx is cancelled, then drains for up to 15s
func (s *Server) Run(ctx context.Context) error {
	log := logger.Named("http")
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.addr).Msg("http listening")
		errc <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, stdhttp.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
		defer cancel()
		log.Info().Msg("http shutting down")
		return s.Shutdown(sctx)
	}
}

// Shutdown stops accepting and waits for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error { return s.srv.Shutdown(ctx) }
