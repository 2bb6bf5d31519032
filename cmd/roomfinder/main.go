package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/navikt/roomfinder/internal/clock"
	"github.com/navikt/roomfinder/internal/config"
	"github.com/navikt/roomfinder/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	// Load already checked the zone
	loc, _ := cfg.Location()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	application, err := newApp(ctx, cfg, clock.NewReal(loc), logger)
	if err != nil {
		logger.Error("Failed to initialize application", slog.Any("error", err))
		os.Exit(1)
	}
	defer application.close()

	application.runBackground(ctx)

	// Configure the HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      application.handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: 0, // Disable write timeout for SSE connections
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	// Start the server in a goroutine
	go func() {
		logger.Info("Starting roomfinder server",
			slog.String("port", cfg.Server.Port),
			slog.Bool("redis", cfg.Redis.Enabled),
			slog.String("timezone", loc.String()))
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for an interrupt or terminate signal from the OS
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until a signal is received or an error occurs
	select {
	case err := <-serverErrors:
		logger.Error("Error starting server", slog.Any("error", err))
		stop()
		application.close()
		os.Exit(1)

	case <-shutdown:
		logger.Info("Shutting down server...")

		// Stop background jobs and close SSE connections first
		stop()
		application.sse.Close()

		// Create a deadline to wait for
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownWait)
		defer cancel()

		// Doesn't block if there are no connections, but will otherwise
		// wait until the timeout deadline.
		if err := server.Shutdown(shutdownCtx); err != nil {
			server.Close()
			logger.Error("Error shutting down server", slog.Any("error", err))
		}

		logger.Info("Server gracefully stopped")
	}
}
