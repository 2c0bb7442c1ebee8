package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/portal/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	if err := runner.app().Run(context.Background(), os.Args); err != nil {
		switch {
		case errors.Is(err, shared.ErrCancelled):
			logger.Warn("cancelled")
			os.Exit(1)
		default:
			logger.Fatalf("application error: %v", err)
		}
	}
}

// app builds the root command with the global flags shared by every subcommand.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "portal",
		Usage:   "Terminal client for the Ansible automation portal",
		Version: "0.3.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:  "api",
				Usage: "Portal API base URL (overrides api.base_url)",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before:   r.Before,
		Commands: r.register(),
	}
}
