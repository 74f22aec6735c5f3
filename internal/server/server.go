// Package server assembles stores, services, background workers and the HTTP
// router into a runnable API server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/photosync/photosync/internal/api"
	"github.com/photosync/photosync/internal/core/domain"
	"github.com/photosync/photosync/internal/core/service"
	"github.com/photosync/photosync/internal/infrastructure/queue"
	"github.com/photosync/photosync/internal/infrastructure/scheduler"
	"github.com/photosync/photosync/internal/pkg/config"
	"github.com/photosync/photosync/pkg/logger"
)

// Server wraps the Echo instance and the workers that live alongside it.
type Server struct {
	cfg        *config.Config
	log        zerolog.Logger
	echo       *echo.Echo
	stores     *Stores
	services   *Services
	dispatcher *queue.Dispatcher
	sweeper    *scheduler.TokenSweeper

	workerCtx   context.Context
	stopWorkers context.CancelFunc

	// mu orders worker start-up against Shutdown.
	mu     sync.Mutex
	closed bool
}

// New opens the configured stores, brings their schema up to date and builds
// the router. Nothing is served until Start.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Server, error) {
	stores, err := OpenStores(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if err := stores.Prepare(ctx); err != nil {
		_ = stores.Close(ctx)
		return nil, fmt.Errorf("preparing store: %w", err)
	}

	auditLog := logger.Component(log, "audit")
	dispatcher := queue.NewDispatcher(cfg.AuditWorkers, service.NewEventService(stores.Audit, auditLog), auditLog)

	services, err := NewServices(stores, cfg, dispatcher, log)
	if err != nil {
		_ = stores.Close(ctx)
		return nil, err
	}

	var sweeper *scheduler.TokenSweeper
	if cfg.Auth.TokenTTL > 0 {
		sweeper, err = scheduler.NewTokenSweeper(cfg.Auth.SweepSchedule, services.Tokens, logger.Component(log, "sweeper"))
		if err != nil {
			_ = stores.Close(ctx)
			return nil, err
		}
	}

	// HTTP metrics go to a registry owned by this server; the auth metrics
	// and runtime collectors stay on the default one.
	reg := prometheus.NewRegistry()
	e := api.NewRouter(api.Dependencies{
		Auth:        services.Auth,
		Tokens:      services.Tokens,
		Admin:       services.Admin,
		Categories:  services.Categories,
		Checks:      stores.Checks,
		CORSOrigins: cfg.CORSAllowedOrigins,
		Log:         logger.Component(log, "http"),
		Registerer:  reg,
		Gatherer:    prometheus.Gatherers{prometheus.DefaultGatherer, reg},
	})
	e.Server.ReadTimeout = 15 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.IdleTimeout = 60 * time.Second

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	return &Server{
		cfg:         cfg,
		log:         log,
		echo:        e,
		stores:      stores,
		services:    services,
		dispatcher:  dispatcher,
		sweeper:     sweeper,
		workerCtx:   workerCtx,
		stopWorkers: stopWorkers,
	}, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start seeds the bootstrap admin, launches the audit workers and the token
// sweeper, then serves HTTP until Shutdown. It returns nil after a graceful
// shutdown.
func (s *Server) Start(ctx context.Context) error {
	if err := s.bootstrapAdmin(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.dispatcher.Start(s.workerCtx)
	if s.sweeper != nil {
		s.sweeper.Start()
	}
	s.mu.Unlock()

	addr := ":" + s.cfg.Port
	s.log.Info().Str("addr", addr).Str("store", s.cfg.Store.Driver).Msg("photosync API listening")
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones, drains the
// audit queue and closes the stores.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if err := s.echo.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	if s.sweeper != nil {
		s.sweeper.Stop()
	}
	s.stopWorkers()
	s.dispatcher.Wait()
	if err := s.stores.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("closing stores: %w", err))
	}
	s.log.Info().Msg("photosync API stopped")
	return errors.Join(errs...)
}

// bootstrapAdmin creates ADMIN_EMAIL as an admin on first start. An existing
// account with that email is left untouched.
func (s *Server) bootstrapAdmin(ctx context.Context) error {
	admin := s.cfg.Admin
	if admin.Email == "" {
		return nil
	}
	_, err := s.services.Auth.CreateAdmin(ctx, admin.Name, admin.Email, admin.Password)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrUserExists):
		s.log.Debug().Msg("bootstrap admin already exists")
		return nil
	default:
		return fmt.Errorf("bootstrap admin: %w", err)
	}
}
