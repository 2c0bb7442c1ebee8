package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/portal/internal/formatter"
	"github.com/desertthunder/portal/internal/models"
	"github.com/desertthunder/portal/internal/portal"
	"github.com/desertthunder/portal/internal/services"
	"github.com/desertthunder/portal/internal/shared"
	"github.com/urfave/cli/v3"
)

// EventSource is the push channel as the commands consume it.
type EventSource interface {
	Listen(ctx context.Context, handle func(models.Event)) error
	Stream(ctx context.Context) <-chan models.Event
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	api        portal.API
	events     EventSource
	httpClient *http.Client
	logger     *log.Logger
	input      io.Reader
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// API and Events are built from the loaded config when left nil.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	API        portal.API
	Events     EventSource
	HTTPClient *http.Client
	Logger     *log.Logger
	Input      io.Reader
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		api:        opts.API,
		events:     opts.Events,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		input:      opts.Input,
		output:     opts.Output,
	}
}

// SetLogger replaces the logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Before loads the config file named by --config, applies the global overrides,
// and builds the API clients that were not injected.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}

	if r.configPath != "" {
		if _, err := os.Stat(r.configPath); err == nil {
			config, err := shared.LoadConfig(r.configPath)
			if err != nil {
				return ctx, err
			}
			r.config = config
		} else {
			r.logger.Debug("config file not found, using defaults", "path", r.configPath)
		}
	}

	if base := cmd.String("api"); base != "" {
		r.config.API.BaseURL = base
		if err := r.config.Validate(); err != nil {
			return ctx, err
		}
	}

	if err := shared.SetLogLevel(r.logger, r.config.Log.Level); err != nil {
		return ctx, err
	}
	if cmd.Bool("verbose") {
		r.logger.SetLevel(log.DebugLevel)
	}

	if r.api == nil || r.events == nil {
		clients, err := services.NewClients(r.config, r.httpClient, r.logger)
		if err != nil {
			return ctx, err
		}
		if r.api == nil {
			r.api = clients.Portal
		}
		if r.events == nil {
			r.events = clients.Events
		}
	}
	return ctx, nil
}

// newPortal creates a controller over the runner's API for commands that reuse its flows.
func (r *Runner) newPortal() *portal.Portal {
	return portal.New(r.api, portal.WithLogger(r.logger))
}

// flushToasts prints the controller's notifications as plain lines.
func (r *Runner) flushToasts(p *portal.Portal) {
	for _, t := range p.Toasts().Drain() {
		r.writePlain("%s %s\n", t.Level.Icon(), t.Message)
	}
}

func (r *Runner) confirm(cmd *cli.Command, prompt string) error {
	if cmd.Bool("yes") {
		return nil
	}
	ok, err := shared.Confirm(r.input, r.output, prompt)
	if err != nil {
		return err
	}
	if !ok {
		return shared.ErrCancelled
	}
	return nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		tuiCommand, playbooksCommand, nodesCommand, groupsCommand, executeCommand,
		executionsCommand, watchCommand, sandboxCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeBytes(data []byte) error {
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// writeList prints items as JSON, CSV or text depending on the --json and --format flags.
func writeList[T any](r *Runner, cmd *cli.Command, items []T, toCSV func([]T) ([]byte, error), toText func([]T) []byte) error {
	if cmd.Bool("json") {
		return r.writeJSON(items, cmd.Bool("pretty"))
	}

	f, err := formatter.ParseFormat(cmd.String("format"), formatter.FormatText, formatter.FormatCSV)
	if err != nil {
		return err
	}
	if f == formatter.FormatCSV {
		data, err := toCSV(items)
		if err != nil {
			return err
		}
		return r.writeBytes(data)
	}
	return r.writeBytes(toText(items))
}
