// Package app wires the core, the spelling engine, and both transports into
// one runnable application.
package app

import (
	"context"
	"errors"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/Tail418/spellchat-server/internal/config"
	"github.com/Tail418/spellchat-server/internal/core"
	"github.com/Tail418/spellchat-server/internal/spell"
	transporthttp "github.com/Tail418/spellchat-server/internal/transport/http"
	transporttcp "github.com/Tail418/spellchat-server/internal/transport/tcp"
)

// App owns the shared state and both listeners.
type App struct {
	tcpServer       *transporttcp.Server
	httpServer      *stdhttp.Server
	shutdownTimeout time.Duration
	log             *zerolog.Logger
}

// New constructs the application with provided configuration. A missing
// dictionary degrades spell checking to a pass-through instead of failing
// startup; the relay itself does not depend on it.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	engine := loadSpellEngine(cfg, logger)

	registry := core.NewRegistry()
	rooms := core.NewRooms()
	dispatcher := core.NewDispatcher(registry, rooms, engine, logger)

	tcpServer := transporttcp.NewServer(cfg.Addr, dispatcher, cfg.SendQueueSize, logger)
	httpServer := transporthttp.NewServer(cfg.HTTPAddr, transporthttp.Deps{
		Dispatcher: dispatcher,
		Registry:   registry,
		Rooms:      rooms,
		Speller:    engine,
	}, logger)

	return &App{
		tcpServer:       tcpServer,
		httpServer:      httpServer,
		shutdownTimeout: cfg.ShutdownTimeout,
		log:             logger,
	}, nil
}

func loadSpellEngine(cfg config.Config, logger *zerolog.Logger) *spell.Engine {
	words, err := spell.LoadWords(cfg.WordsPath)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.WordsPath).Msg("dictionary unavailable, spell checking disabled")
		return spell.New(nil, nil)
	}
	freq, err := spell.LoadFrequencies(cfg.FrequenciesPath)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.FrequenciesPath).Msg("frequency table unavailable, ranking by distance only")
		freq = nil
	}
	logger.Info().
		Int("words", len(words)).
		Int("frequencies", len(freq)).
		Msg("spelling engine loaded")
	return spell.New(words, freq)
}

// Run starts both listeners and blocks until context cancellation or a fatal
// listener error.
func (a *App) Run(ctx context.Context) error {
	if err := a.tcpServer.Listen(); err != nil {
		return err
	}

	serverErr := make(chan error, 2)

	go func() {
		serverErr <- a.tcpServer.Serve(ctx)
	}()
	go func() {
		a.log.Info().Str("addr", a.httpServer.Addr).Msg("http server listening")
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	a.log.Info().Msg("shutting down")
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.log.Warn().Err(err).Msg("http shutdown")
	}

	// The TCP server stops through context cancellation.
	err := <-serverErr
	<-serverErr
	return err
}
