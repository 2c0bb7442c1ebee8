package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/portal/internal/formatter"
	"github.com/desertthunder/portal/internal/models"
	"github.com/desertthunder/portal/internal/shared"
	"github.com/urfave/cli/v3"
)

// Execute starts a run of the given playbooks on nodes or on groups. Targets of both kinds
// cannot be mixed in one run.
func (r *Runner) Execute(ctx context.Context, cmd *cli.Command) error {
	nodes, groups := cmd.IntSlice("node"), cmd.IntSlice("group")
	switch {
	case len(nodes) > 0 && len(groups) > 0:
		return fmt.Errorf("%w: use either --node or --group", shared.ErrInvalidArgument)
	case len(nodes) == 0 && len(groups) == 0:
		return fmt.Errorf("%w: no targets specified (--node or --group)", shared.ErrMissingArgument)
	}

	target, ids := models.TargetNodes, nodes
	if len(groups) > 0 {
		target, ids = models.TargetGroups, groups
	}

	p := r.newPortal()
	p.SetTargetType(target)
	for _, name := range cmd.StringSlice("playbook") {
		if !p.PlaybookSelected(name) {
			p.TogglePlaybook(name)
		}
	}
	for _, id := range ids {
		t := models.Target{Type: target, ID: id}
		if !p.TargetSelected(t) {
			p.ToggleTarget(t)
		}
	}
	r.logger.Debug("starting execution", "request", p.ExecuteRequest())

	// Subscribe before starting so a fast run's event is not missed.
	var events <-chan models.Event
	if cmd.Bool("wait") {
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		defer cancel()
		events = r.events.Stream(ctx)
	}

	err := p.Run(ctx, p.Execute())
	r.flushToasts(p)
	if err != nil || events == nil {
		return err
	}
	return r.awaitExecution(ctx, events, p.StartedExecution())
}

// awaitExecution blocks until the run with id completes or fails and prints it. Events for
// other runs are skipped. With id 0 the first completion or failure is taken.
func (r *Runner) awaitExecution(ctx context.Context, events <-chan models.Event, id int) error {
	if id > 0 {
		r.writePlain("Waiting for execution #%d to finish...\n", id)
	} else {
		r.writePlain("Waiting for the execution to finish...\n")
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return fmt.Errorf("%w: stopped before the execution finished", shared.ErrEventChannel)
			}
			if ev.Name != models.EventExecutionCompleted && ev.Name != models.EventExecutionFailed {
				continue
			}

			eventID := r.eventExecutionID(ev)
			if id > 0 && eventID > 0 && eventID != id {
				r.logger.Debug("skipping event for another execution", "event", ev.Name, "id", eventID)
				continue
			}

			e, err := r.finishedExecution(ctx, eventID)
			if err != nil {
				return err
			}
			r.writePlain("\n")
			if err := r.writeBytes(formatter.ExecutionToText(e)); err != nil {
				return err
			}
			if e.Status == models.ExecutionFailed {
				return fmt.Errorf("%w: execution %d", shared.ErrExecutionFailed, e.ID)
			}
			return nil
		}
	}
}

// eventExecutionID returns the execution id carried by ev, or 0 when it has none.
func (r *Runner) eventExecutionID(ev models.Event) int {
	var payload models.ExecutionEvent
	if len(ev.Payload) > 0 {
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			r.logger.Warn("ignoring malformed event payload", "event", ev.Name, "error", err)
		}
	}
	return payload.ExecutionID
}

// finishedExecution loads execution id, or the newest execution when id is 0.
func (r *Runner) finishedExecution(ctx context.Context, id int) (*models.Execution, error) {
	if id > 0 {
		return r.api.GetExecution(ctx, id)
	}

	executions, err := r.api.ListExecutions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}
	if len(executions) == 0 {
		return nil, fmt.Errorf("%w: no executions", shared.ErrNotFound)
	}
	return &executions[0], nil
}

// ExecutionsList prints the recent execution history.
func (r *Runner) ExecutionsList(ctx context.Context, cmd *cli.Command) error {
	executions, err := r.api.ListExecutions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list executions: %w", err)
	}
	return writeList(r, cmd, executions, formatter.ExecutionsToCSV, formatter.ExecutionsToText)
}

// ExecutionsShow prints one execution, or writes it as a report with --output or --save.
func (r *Runner) ExecutionsShow(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd.StringArg("id"), "execution")
	if err != nil {
		return err
	}

	e, err := r.api.GetExecution(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load execution %d: %w", id, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(e, true)
	}

	f, err := formatter.ParseFormat(cmd.String("format"), formatter.FormatText, formatter.FormatMarkdown)
	if err != nil {
		return err
	}

	if out := cmd.String("output"); out != "" || cmd.Bool("save") {
		path, err := formatter.WriteExecutionReport(e, f, out)
		if err != nil {
			return err
		}
		r.logger.Info("report written", "id", e.ID, "path", path)
		return r.writePlain("✓ Report written to %s\n", path)
	}

	if f == formatter.FormatMarkdown {
		return r.writeBytes(formatter.ExecutionToMarkdown(e))
	}
	return r.writeBytes(formatter.ExecutionToText(e))
}

// Watch prints push channel events until interrupted or until the server closes the channel.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	asJSON := cmd.Bool("json")
	r.logger.Info("watching execution events")

	return r.events.Listen(ctx, func(ev models.Event) {
		if asJSON {
			r.writeJSON(ev, false)
			return
		}
		payload := string(ev.Payload)
		if payload == "" {
			payload = "-"
		}
		r.writePlain("%s  %-20s %s\n", time.Now().Format(time.TimeOnly), ev.Name, payload)
	})
}
