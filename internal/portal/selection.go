package portal

import (
	"context"
	"fmt"
	"slices"

	"github.com/desertthunder/portal/internal/models"
)

// ExecuteButton is the derived state of the execute action.
type ExecuteButton struct {
	Enabled bool
	Label   string
}

// TogglePlaybook flips the selection of the named playbook. Selection order is preserved.
func (p *Portal) TogglePlaybook(name string) {
	if i := slices.Index(p.selectedPlaybooks, name); i >= 0 {
		p.selectedPlaybooks = slices.Delete(p.selectedPlaybooks, i, i+1)
		return
	}
	p.selectedPlaybooks = append(p.selectedPlaybooks, name)
}

// PlaybookSelected reports whether name is selected.
func (p *Portal) PlaybookSelected(name string) bool {
	return slices.Contains(p.selectedPlaybooks, name)
}

// SelectedPlaybooks returns the selected playbook names in selection order.
func (p *Portal) SelectedPlaybooks() []string {
	return slices.Clone(p.selectedPlaybooks)
}

// TargetType returns the active target type.
func (p *Portal) TargetType() models.TargetType {
	return p.targetType
}

// SetTargetType switches the active target type. The target selection is always cleared,
// even when t is already active.
func (p *Portal) SetTargetType(t models.TargetType) {
	if t.Valid() {
		p.targetType = t
	}
	p.selectedTargets = nil
}

// ToggleTarget flips the selection of t. Targets of the inactive type are ignored.
func (p *Portal) ToggleTarget(t models.Target) {
	if t.Type != p.targetType {
		return
	}
	if i := slices.Index(p.selectedTargets, t); i >= 0 {
		p.selectedTargets = slices.Delete(p.selectedTargets, i, i+1)
		return
	}
	p.selectedTargets = append(p.selectedTargets, t)
}

// TargetSelected reports whether t is selected.
func (p *Portal) TargetSelected(t models.Target) bool {
	return slices.Contains(p.selectedTargets, t)
}

// SelectedTargets returns the selected targets in selection order.
func (p *Portal) SelectedTargets() []models.Target {
	return slices.Clone(p.selectedTargets)
}

// ClearSelections empties both the playbook and target selections.
func (p *Portal) ClearSelections() {
	p.selectedPlaybooks = nil
	p.selectedTargets = nil
}

// ExecuteButton derives the execute action from the current selections.
func (p *Portal) ExecuteButton() ExecuteButton {
	if len(p.selectedPlaybooks) == 0 || len(p.selectedTargets) == 0 {
		return ExecuteButton{Label: "Execute Selected"}
	}
	return ExecuteButton{
		Enabled: true,
		Label:   fmt.Sprintf("Execute %d playbook(s) on %d target(s)", len(p.selectedPlaybooks), len(p.selectedTargets)),
	}
}

// ExecuteRequest partitions the current selection into the POST /execute body.
func (p *Portal) ExecuteRequest() models.ExecuteRequest {
	req := models.ExecuteRequest{
		Playbooks: slices.Clone(p.selectedPlaybooks),
		NodeIDs:   []int{},
		GroupIDs:  []int{},
	}
	for _, t := range p.selectedTargets {
		switch t.Type {
		case models.TargetNodes:
			req.NodeIDs = append(req.NodeIDs, t.ID)
		case models.TargetGroups:
			req.GroupIDs = append(req.GroupIDs, t.ID)
		}
	}
	return req
}

// Execute starts a run of the selected playbooks on the selected targets. With an empty
// selection it only warns and sends nothing. On success both selections are cleared and
// the execution history is reloaded; on failure the selections are kept.
func (p *Portal) Execute() Task {
	if !p.ExecuteButton().Enabled {
		return func(context.Context) Completion {
			return func(p *Portal) []Collection {
				p.warn("Please select playbooks and targets")
				return nil
			}
		}
	}

	req := p.ExecuteRequest()
	return func(ctx context.Context) Completion {
		id, err := p.api.Execute(ctx, req)
		return func(p *Portal) []Collection {
			if err != nil {
				p.fail(err, "Failed to start execution", "playbooks", req.Playbooks)
				return nil
			}
			p.startedExecution = id
			p.ClearSelections()
			p.succeed("Execution started successfully")
			return []Collection{Executions}
		}
	}
}

// StartedExecution returns the id of the last run started by [Portal.Execute], or 0 when
// none was started or the server did not report one.
func (p *Portal) StartedExecution() int {
	return p.startedExecution
}

// pruneSelections drops selections that refer to entities missing from the reloaded collection.
func (p *Portal) pruneSelections(c Collection) {
	switch c {
	case Playbooks:
		p.selectedPlaybooks = slices.DeleteFunc(p.selectedPlaybooks, func(name string) bool {
			return !slices.ContainsFunc(p.playbooks, func(pb models.Playbook) bool { return pb.Name == name })
		})
	case Nodes:
		p.selectedTargets = slices.DeleteFunc(p.selectedTargets, func(t models.Target) bool {
			_, ok := p.Node(t.ID)
			return t.Type == models.TargetNodes && !ok
		})
		p.markedNodes = slices.DeleteFunc(p.markedNodes, func(id int) bool {
			_, ok := p.Node(id)
			return !ok
		})
	case Groups:
		p.selectedTargets = slices.DeleteFunc(p.selectedTargets, func(t models.Target) bool {
			_, ok := p.Group(t.ID)
			return t.Type == models.TargetGroups && !ok
		})
	}
}
