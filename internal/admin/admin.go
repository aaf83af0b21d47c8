// Package admin serves metrics, health checks and a small read only API for
// player lookups.
package admin

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gofrs/uuid"
	"github.com/haveachin/barebones/pkg/future"
	"github.com/haveachin/barebones/pkg/profile"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// Resolver looks up players. *auth.Service satisfies it.
type Resolver interface {
	LookupUUID(ctx context.Context, username string) *future.Future[uuid.UUID]
	SkinByUUID(ctx context.Context, id uuid.UUID) *future.Future[profile.PlayerTextures]
	SkinByName(ctx context.Context, username string) *future.Future[profile.PlayerTextures]
}

type Config struct {
	Bind           string
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type Server struct {
	cfg      Config
	resolver Resolver
	logger   *zap.Logger
	srv      *http.Server
}

func New(cfg Config, resolver Resolver, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		cfg:      cfg,
		resolver: resolver,
		logger:   logger,
	}
	s.srv = &http.Server{
		Addr:              cfg.Bind,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   s.cfg.AllowedMethods,
		AllowedHeaders:   s.cfg.AllowedHeaders,
		AllowCredentials: false,
	}))

	r.Get("/healthz", healthHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/players/{username}/uuid", getUUIDHandler(s.resolver))
		r.Get("/players/{username}/skin", getSkinByNameHandler(s.resolver))
		r.Get("/profiles/{uuid}/skin", getSkinByUUIDHandler(s.resolver))
	})
	return r
}

// ListenAndServe blocks until ctx is done or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		errChan <- s.srv.ListenAndServe()
	}()

	s.logger.Info("started admin server", zap.String("bind", s.cfg.Bind))

	select {
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
