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

	"github.com/spf13/cobra"

	"github.com/avast/epstats/pkg/config"
	"github.com/avast/epstats/pkg/data"
	"github.com/avast/epstats/pkg/server"
)

func newServeCmd(configPath *string) *cobra.Command {
	var csvPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the gin HTTP server, worker pool, and /metrics endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(*configPath, csvPath)
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "path to a CSV fixture backing the data.Collaborator (required: no persistent store is built in)")
	return cmd
}

func runServe(configPath, csvPath string) error {
	if csvPath == "" {
		return errors.New("serve: --csv is required; pkg/data.Collaborator has no built-in persistent store")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := cfg.BuildLogger()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	collaborator, err := data.LoadCSVFile(csvPath)
	if err != nil {
		return fmt.Errorf("loading csv collaborator: %w", err)
	}

	srv := server.New(collaborator, server.Config{
		WorkerPoolSize:   cfg.WorkerPoolSize,
		MetricsNamespace: cfg.MetricsNamespace,
	}, logger)
	defer srv.Close()

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddress,
		Handler:      srv.Engine,
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Sugar().Infof("listening on %s", cfg.HTTPAddress)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(ctx)
	}
}
