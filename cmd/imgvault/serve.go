package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"imgvault/internal/api"
	"imgvault/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ShutdownTimeout bounds how long in-flight requests may run during shutdown
const ShutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting imgvault",
		zap.String("version", AppVersion),
		zap.String("port", a.cfg.Server.Port),
		zap.String("repo", a.cfg.Repo.Type),
		zap.String("storage", a.cfg.Storage.Type),
		zap.Bool("development", a.cfg.IsDevelopment()))

	router := api.NewRouter(a.cfg, a.content, a.avatars, a.quota, a.health)

	server := &http.Server{
		Addr:           ":" + a.cfg.Server.Port,
		Handler:        router.GetEngine(),
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// In-process sweep scheduling is optional; operators running the
	// orphan-sweep command from cron leave the interval at zero
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	if a.cfg.Cleanup.Interval > 0 {
		go a.lifecycle.RunPeriodic(sweepCtx, a.cfg.Cleanup.Interval)
	}

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server",
			zap.String("addr", server.Addr),
			zap.String("mode", a.cfg.Server.GinMode))

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	return waitForShutdown(server, serverErrChan)
}

// waitForShutdown waits for a shutdown signal or server error and drains
// in-flight requests before returning
func waitForShutdown(server *http.Server, serverErrChan chan error) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrChan:
		return err
	case sig := <-quit:
		logger.Info("Received shutdown signal, starting graceful shutdown",
			zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Failed to gracefully shutdown server", zap.Error(err))
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info("Server shut down successfully")
	return nil
}
