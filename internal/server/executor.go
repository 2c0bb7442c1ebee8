package server

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/portal/internal/models"
	"github.com/desertthunder/portal/internal/repositories"
)

// Executor runs recorded executions in the background and reports the outcome on the hub.
// Runs are simulated: each playbook present in the store yields a PLAY/RECAP transcript per host.
type Executor struct {
	nodes      *repositories.NodeRepository
	groups     *repositories.GroupRepository
	executions *repositories.ExecutionRepository
	playbooks  *PlaybookStore
	events     Broadcaster
	delay      time.Duration
	logger     *log.Logger

	wg sync.WaitGroup
}

// Run executes req as execution id on a new goroutine.
func (e *Executor) Run(ctx context.Context, id int, req models.ExecuteRequest) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.run(ctx, id, req)
	}()
}

// Wait blocks until every started run has finished.
func (e *Executor) Wait() {
	e.wg.Wait()
}

func (e *Executor) run(ctx context.Context, id int, req models.ExecuteRequest) {
	logger := e.logger.With("execution", id)
	logger.Info("execution started", "playbooks", req.Playbooks)

	if e.delay > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(e.delay):
		}
	}

	output, errs := e.simulate(req)
	if ctx.Err() != nil {
		errs = append(errs, "Execution cancelled")
	}

	status, event := models.ExecutionCompleted, models.EventExecutionCompleted
	if len(errs) > 0 {
		status, event = models.ExecutionFailed, models.EventExecutionFailed
	}

	if err := e.executions.Finish(id, status, output, strings.Join(errs, "\n")); err != nil {
		logger.Error("failed to record execution result", "error", err)
		return
	}

	logger.Info("execution finished", "status", status)
	if e.events != nil {
		e.events.Broadcast(event, models.ExecutionEvent{ExecutionID: id})
	}
}

// hosts resolves the selected nodes plus every member of the selected groups, deduplicated in id order.
func (e *Executor) hosts(req models.ExecuteRequest) ([]models.Node, error) {
	ids := append([]int{}, req.NodeIDs...)

	if len(req.GroupIDs) > 0 {
		groups, err := e.groups.FindByIDs(req.GroupIDs)
		if err != nil {
			return nil, err
		}
		for _, g := range groups {
			ids = append(ids, g.NodeIDs()...)
		}
	}

	if len(ids) == 0 {
		return []models.Node{}, nil
	}
	return e.nodes.FindByIDs(ids)
}

func (e *Executor) simulate(req models.ExecuteRequest) (string, []string) {
	var out strings.Builder
	errs := []string{}

	hosts, err := e.hosts(req)
	if err != nil {
		return "", []string{fmt.Sprintf("Failed to resolve targets: %v", err)}
	}
	if len(hosts) == 0 {
		errs = append(errs, "No hosts matched the selected targets")
	}

	for _, name := range req.Playbooks {
		fmt.Fprintf(&out, "=== Playbook: %s ===\n", name)
		if !e.playbooks.Exists(name) {
			errs = append(errs, fmt.Sprintf("Playbook %s not found", name))
			out.WriteString("\n")
			continue
		}

		fmt.Fprintf(&out, "PLAY [%s] %s\n\n", strings.TrimSuffix(strings.TrimSuffix(name, ".yml"), ".yaml"), strings.Repeat("*", 40))
		out.WriteString("TASK [Gathering Facts]\n")
		for _, h := range hosts {
			fmt.Fprintf(&out, "ok: [%s]\n", h.Name)
		}
		out.WriteString("\nPLAY RECAP\n")
		for _, h := range hosts {
			fmt.Fprintf(&out, "%-20s : ok=1    changed=0    unreachable=0    failed=0\n", h.Name)
		}
		out.WriteString("\n")
	}

	return out.String(), errs
}
