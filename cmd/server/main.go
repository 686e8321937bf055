package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/iudanet/rowsync/internal/config"
	"github.com/iudanet/rowsync/internal/logger"
	"github.com/iudanet/rowsync/internal/server/handlers"
	"github.com/iudanet/rowsync/internal/server/middleware"
	"github.com/iudanet/rowsync/internal/server/storage/memory"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	fs := pflag.NewFlagSet("rowsync-server", pflag.ExitOnError)
	showVersion := fs.Bool("version", false, "Show version information")
	config.ServerFlags(fs)
	_ = fs.Parse(os.Args[1:])

	// Show version and exit if requested
	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	cfg, err := config.LoadServer(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Server, log *slog.Logger) error {
	views := memory.New(log)
	if cfg.Fixtures != "" {
		if err := views.LoadFixtures(cfg.Fixtures); err != nil {
			return fmt.Errorf("failed to load fixtures: %w", err)
		}
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow, log)
	defer limiter.Stop()

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(log, views, limiter),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server starting", "addr", cfg.Addr, "version", Version)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

// newRouter собирает маршруты и цепочку middleware
func newRouter(log *slog.Logger, views handlers.ViewStorage, limiter *middleware.RateLimiter) http.Handler {
	mux := http.NewServeMux()

	handlers.NewHealthHandler(log, views, Version).Register(mux)
	handlers.NewViewHandler(log, views).Register(mux)

	var handler http.Handler = mux
	handler = limiter.Middleware(handler)
	handler = middleware.LoggingWithSkip(log, []string{"/api/v1/health"})(handler)
	handler = middleware.RecoveryMiddleware(log)(handler)
	handler = middleware.RequestIDMiddleware(handler)

	return handler
}

func printVersion() {
	fmt.Printf("Rowsync Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
