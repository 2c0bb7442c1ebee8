package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/portal/internal/server"
	"github.com/desertthunder/portal/internal/shared"
	"github.com/urfave/cli/v3"
)

// Sandbox serves the portal API from a local SQLite database until interrupted.
func (r *Runner) Sandbox(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Sandbox
	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = cmd.Int("port")
	}
	if cmd.IsSet("database") {
		cfg.Database = cmd.String("database")
	}
	if cmd.IsSet("playbooks") {
		cfg.PlaybooksDir = cmd.String("playbooks")
	}

	db, err := r.openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := os.MkdirAll(cfg.PlaybooksDir, 0755); err != nil {
		return fmt.Errorf("failed to create playbook directory: %w", err)
	}

	logger := shared.WithLogger(r.logger, "component", "sandbox")
	sandbox := server.NewSandbox(db, cfg.PlaybooksDir, logger,
		server.WithRunDelay(time.Duration(cfg.SimulatedDurationMS)*time.Millisecond))
	defer sandbox.Close()

	router := server.NewBasicRouter()
	router.Use(server.Recover(logger), server.Logging(logger), server.CORS())
	sandbox.Register(router)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("serving sandbox", "addr", cfg.Addr(), "database", cfg.Database, "playbooks", cfg.PlaybooksDir)
	return server.Serve(ctx, cfg.Addr(), router, logger)
}
