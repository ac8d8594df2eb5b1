// Package app wires the components together and owns process lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"gambit/internal/api"
	"gambit/internal/archive"
	"gambit/internal/config"
	"gambit/internal/game"
	"gambit/internal/rules"
	"gambit/internal/websocket"
)

// Application holds every component, initialized in dependency order:
// archive, registry, engine, coordinator, websocket handler, API, HTTP.
type Application struct {
	cfg        *config.Config
	logger     *zap.Logger
	archive    *archive.Archive
	registry   *game.Registry
	httpServer *http.Server
}

// New builds the application from configuration.
func New(cfg *config.Config, logger *zap.Logger) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	var (
		arc      *archive.Archive
		recorder game.Recorder
		lister   api.GameLister
	)
	if cfg.ArchivePath != "" {
		var err error
		arc, err = archive.Open(cfg.ArchivePath, logger.Named("archive"))
		if err != nil {
			return nil, fmt.Errorf("opening archive: %w", err)
		}
		recorder = arc
		lister = arc
	}

	registry := game.NewRegistry()
	engine := rules.New()
	coordinator := game.NewCoordinator(registry, engine, recorder, logger.Named("game"))

	wsHandler := websocket.NewHandler(
		coordinator,
		cfg.AllowedOrigins,
		cfg.WriteBuffer,
		cfg.FramesPerMinute,
		logger.Named("ws"),
	)
	apiServer := api.NewServer(registry, lister, logger.Named("api"))

	mux := http.NewServeMux()
	mux.Handle("/ws", wsHandler)
	mux.Handle("/", apiServer)

	return &Application{
		cfg:      cfg,
		logger:   logger,
		archive:  arc,
		registry: registry,
		httpServer: &http.Server{
			Addr:         cfg.ListenAddr,
			Handler:      mux,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 0, // websocket connections outlive any write timeout
		},
	}, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", zap.String("addr", a.cfg.ListenAddr))
		if err := a.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		a.closeArchive()
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := a.httpServer.Shutdown(shutdownCtx)

	a.closeArchive()
	return err
}

func (a *Application) closeArchive() {
	if a.archive == nil {
		return
	}
	if err := a.archive.Close(); err != nil {
		a.logger.Error("closing archive failed", zap.Error(err))
	}
}
