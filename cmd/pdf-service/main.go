package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/automaxprocs/maxprocs"

	"pdf-service/internal/config"
	"pdf-service/internal/http/server"
	"pdf-service/internal/infra/cache"
	"pdf-service/internal/infra/chrome"
	"pdf-service/internal/infra/logging"
	"pdf-service/internal/renderer"
)

func main() {
	cfg := config.Load()
	logging.InitLogger(
		cfg.Logger.File,
		cfg.Logger.MaxSizeMB,
		cfg.Logger.MaxBackups,
		cfg.Logger.MaxAgeDays,
		cfg.Logger.Compress,
		cfg.Logger.Level,
	)
	// Only fails on an invalid GOMAXPROCS, in which case the runtime default stays.
	_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
		logging.Debug(fmt.Sprintf(format, args...))
	}))

	browser := chrome.NewBrowser(cfg)
	r := renderer.New(browser, renderer.WithCache(cache.New(cfg), cfg.Cache.TTL))

	if cfg.Chrome.Prewarm {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Chrome.LaunchTimeout)
			defer cancel()
			if err := r.EnsureReady(ctx); err != nil {
				logging.Warn("Browser prewarm failed", "error", err)
			}
		}()
	}

	app := server.New(server.Deps{Config: cfg, Renderer: r, Engine: browser})

	idleConnsClosed := make(chan struct{})
	startServer(app, cfg, idleConnsClosed)
	<-idleConnsClosed

	if err := r.Shutdown(); err != nil {
		logging.Error("Browser shutdown failed", "error", err)
	}
}

// startServer starts the Fiber app and blocks until a shutdown signal has been handled
func startServer(app *fiber.App, cfg config.Config, idleConnsClosed chan struct{}) {
	go func() {
		logging.Info("Server listening", "addr", cfg.Addr())
		if err := app.Listen(cfg.Addr()); err != nil {
			logging.Error("Server error", "error", err)
		}
	}()

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigint)
	<-sigint

	logging.Warn("Shutdown signal received, closing server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
	}

	close(idleConnsClosed)
	logging.Info("Server stopped cleanly")
}
