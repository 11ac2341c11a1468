package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DoyleJ11/nhl-pickem/internal/config"
	"github.com/DoyleJ11/nhl-pickem/internal/dataset"
	"github.com/DoyleJ11/nhl-pickem/internal/highscore"
	"github.com/DoyleJ11/nhl-pickem/internal/httpapi"
	"github.com/DoyleJ11/nhl-pickem/internal/hub"
	"github.com/DoyleJ11/nhl-pickem/internal/lobby"
	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
}

func run() error {
	envErr := godotenv.Load()

	cfg, err := config.New()
	if err != nil {
		return err
	}

	log, err := cfg.Log.Logger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	if envErr != nil {
		log.Debug("no .env file loaded", zap.Error(envErr))
	}

	data, err := dataset.NewProvider(cfg.Data.PlayersPath, log.Named("dataset"))
	if err != nil {
		return fmt.Errorf("cannot start without player data: %w", err)
	}
	if err := data.StartReloading(cfg.Data.ReloadInterval); err != nil {
		return err
	}
	defer func() {
		if err := data.Stop(); err != nil {
			log.Error("error stopping reload scheduler", zap.Error(err))
		}
	}()

	scores, err := highscore.Open(cfg.Scores.Store, cfg.Scores.File, cfg.Scores.DatabaseURL)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := hub.NewHub(ctx, lobby.Deps{
		Catalogs:         data,
		Scores:           scores,
		Clock:            clockwork.NewRealClock(),
		PickTime:         cfg.Game.PickDuration(),
		IdleTimeout:      cfg.Game.LobbyIdle,
		RotationAttempts: cfg.Game.RotationAttempts,
		Log:              log.Named("lobby"),
	})

	// Build the router *with* the hub injected
	handler := httpapi.SetupRoutes(httpapi.Deps{
		Hub:            h,
		Scores:         scores,
		Data:           data,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Log:            log.Named("http"),
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening",
			zap.String("addr", cfg.Server.Addr),
			zap.String("score_store", cfg.Scores.Store),
			zap.Duration("pick_time", cfg.Game.PickDuration()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	h.Inbox() <- hub.ShutdownHub{}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
