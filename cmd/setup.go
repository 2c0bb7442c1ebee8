package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/portal/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the default configuration to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := r.configPath
	if path == "" {
		path = "config.toml"
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", path)

	r.writePlain("✓ Configuration written to %s\n", path)
	r.writePlain("\nNext steps:\n")
	r.writePlain("1. Set api.base_url to your portal server, or run 'portal sandbox'\n")
	r.writePlain("2. Run 'portal tui' to open the terminal UI\n")
	return nil
}

// SetupDatabase initializes the sandbox database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase(r.config.Sandbox)
	if err != nil {
		return err
	}
	defer db.Close()

	r.logger.Infof("setup complete for database: %v", r.config.Sandbox.Database)
	return r.writePlain("✓ Database ready at %s\n", r.config.Sandbox.Database)
}

// openDatabase opens the sandbox database, applies pool settings and runs migrations.
func (r *Runner) openDatabase(cfg shared.SandboxConfig) (*sql.DB, error) {
	r.logger.Info("initializing database", "path", cfg.Database)

	db, err := shared.NewDatabase(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	shared.ConfigureDatabase(db, cfg.Database, cfg.MaxOpenConns, cfg.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}
