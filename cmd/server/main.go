package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sahistory/timeline/internal/app"
	"github.com/sahistory/timeline/internal/config"
	"github.com/sahistory/timeline/internal/logging"
)

func main() {
	cfg := config.Load()

	logger := logging.New(logging.ParseLevel(cfg.Logging.Level))
	defer logger.Sync()

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("Startup failed", logging.WithField("error", err.Error()))
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Run()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("Shutting down", logging.WithField("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", logging.WithField("error", err.Error()))
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.Shutdown(ctx); err != nil {
		logger.Error("Shutdown error", logging.WithField("error", err.Error()))
	}
}
