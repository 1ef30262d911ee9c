package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/dispatch-go/internal/infrastructure/database"
	"github.com/andrescamacho/dispatch-go/internal/infrastructure/pidfile"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dispatch API server and optimization agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	a, err := buildApp(configPath)
	if err != nil {
		return err
	}

	pid := pidfile.New(a.cfg.Daemon.PIDFile)
	if err := pid.Acquire(); err != nil {
		return fmt.Errorf("failed to acquire pid file: %w", err)
	}
	defer pid.Release()

	if err := database.AutoMigrate(a.db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.cfg.Agent.Enabled {
		go a.scheduler.Run(ctx)
	} else {
		a.logger.Info("optimization agent disabled")
	}

	httpServer := &http.Server{
		Addr:         a.cfg.Server.Address,
		Handler:      a.server.Handler(),
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("dispatch server listening", "address", a.cfg.Server.Address)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down", "pid", os.Getpid())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Daemon.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	a.logger.Info("shutdown complete")
	return nil
}
