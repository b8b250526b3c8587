package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory-match/internal/config"
	"github.com/robalobadob/memory-match/internal/httpserver"
	"github.com/robalobadob/memory-match/internal/store"
	"github.com/robalobadob/memory-match/internal/symbols"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if !cfg.Production {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	if err := symbols.Init(cfg.SymbolsDir); err != nil {
		log.Fatal().Err(err).Msg("failed to load symbol sets")
	}

	mem := store.NewMemoryStore()
	srv := httpserver.New(mem, symbols.Default(), cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go srv.RunSweeper(ctx, cfg.SweepInterval, cfg.SessionIdleTTL)

	hs := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = hs.Shutdown(shutdownCtx)
	}()

	log.Info().Str("port", cfg.Port).Strs("symbolSets", symbols.Default().Names()).Msg("starting go-server")
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server exited")
	}
	n := mem.Sweep(context.Background(), 0)
	log.Info().Int("sessions", n).Msg("server stopped")
}
