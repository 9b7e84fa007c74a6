// SolarLayout API serves solar panel roof layouts and generation forecasts.
//
// Configuration comes from ./config.yaml (optional) and SOLARLAYOUT_*
// environment variables, e.g. SOLARLAYOUT_SERVER_PORT=8080.
//
// Build:
//   go build -o solarlayout-api ./cmd/solarlayout-api

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/piwi3910/SolarLayout/internal/config"
	"github.com/piwi3910/SolarLayout/internal/logging"
	"github.com/piwi3910/SolarLayout/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	app := server.NewApp(cfg, server.NewDependencies(cfg))

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
