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

	"github.com/spf13/cobra"

	"github.com/websentry/websentry/internal/config"
	"github.com/websentry/websentry/internal/engine"
	"github.com/websentry/websentry/internal/log"
	"github.com/websentry/websentry/internal/server"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scan engine as an HTTP service",
		Long: `Serve exposes the scan engine over a JSON API.

Endpoints:
  POST /api/v1/scans        submit a target URL, returns 202 with the scan
  GET  /api/v1/scans/{id}   poll a scan's progress and results
  GET  /api/v1/scans        list scan history with summaries
  GET  /healthz             liveness check

Examples:
  # Serve on the default port with in-memory history
  websentry serve

  # Persist scan history across restarts
  websentry serve --db ~/.local/share/websentry/websentry.db

  # Slow the pipeline down so dashboard progress bars are visible
  websentry serve --step-delay 500ms`,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("listen", "l", config.DefaultListenAddr,
		"HTTP listen address")
	cmd.Flags().DurationP("timeout", "t", config.DefaultStepTimeout,
		"Timeout for each analyzer step")
	cmd.Flags().Duration("step-delay", config.DefaultStepDelay,
		"Pause between pipeline steps")
	cmd.Flags().String("db", "",
		"SQLite database path for scan history (default: in-memory only)")
	cmd.Flags().Bool("json-logs", false,
		"Emit logs as JSON instead of text")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	var err error
	cfg.ListenAddr, err = cmd.Flags().GetString("listen")
	if err != nil {
		return err
	}
	cfg.StepTimeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return err
	}
	cfg.StepDelay, err = cmd.Flags().GetDuration("step-delay")
	if err != nil {
		return err
	}
	cfg.DBPath, err = cmd.Flags().GetString("db")
	if err != nil {
		return err
	}
	jsonLogs, err := cmd.Flags().GetBool("json-logs")
	if err != nil {
		return err
	}

	if err := cfg.ValidateServe(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	var logger *slog.Logger
	if jsonLogs {
		logger = log.NewSecureJSONLogger(os.Stderr, cfg.Verbose)
	} else {
		logger = log.NewSecureLogger(os.Stderr, cfg.Verbose)
	}
	slog.SetDefault(logger)

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open scan store: %w", err)
	}
	defer func() { _ = st.Close() }()

	eng := engine.New(st,
		engine.WithLogger(logger),
		engine.WithStepTimeout(cfg.StepTimeout),
		engine.WithStepDelay(cfg.StepDelay),
	)

	srv := server.New(eng, st,
		server.WithLogger(logger),
		server.WithListenAddr(cfg.ListenAddr),
	)
	httpServer := srv.HTTPServer()

	// Shut down gracefully on interrupt, letting in-flight requests
	// finish. Background scans keep writing to the store until the
	// process exits.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http service listening", "addr", cfg.ListenAddr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http service failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("received shutdown signal, draining...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		return nil
	}
}
