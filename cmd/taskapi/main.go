package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"taskbot/core/bootstrap"
	coreconfig "taskbot/core/config"
	"taskbot/core/logger"
	"taskbot/internal/taskapi"

	"log/slog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("taskapi: %v", err)
	}
}

func run() error {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := coreconfig.Load(cfgPath)
	if err != nil {
		return err
	}
	if err := coreconfig.ValidateAPI(cfg); err != nil {
		return err
	}

	res, err := bootstrap.Run(bootstrap.Options{Config: cfg})
	if err != nil {
		return err
	}
	defer func() {
		if err := logger.Shutdown(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()
	defer res.DB.Close()

	store := taskapi.NewStore(res.DB, taskapi.NewIDGenerator(cfg.API.Secret))
	srv := &http.Server{
		Addr:              cfg.API.Listen,
		Handler:           taskapi.NewServer(store).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		logger.API.Info("api listening",
			slog.String("event", "listen"),
			slog.String("listen", cfg.API.Listen),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.API.Info("shutting down...", slog.String("event", "shutdown"))
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}
