package portal

import (
	"fmt"
	"slices"
	"strings"

	"github.com/desertthunder/portal/internal/models"
	"github.com/desertthunder/portal/internal/shared"
)

// EmptyState is the placeholder shown instead of an empty list.
type EmptyState struct {
	Title string
	Hint  string
}

var (
	EmptyPlaybooks    = EmptyState{Title: "No Playbooks Found", Hint: "Add some Ansible playbooks to the playbooks directory"}
	EmptyNodes        = EmptyState{Title: "No Nodes Found", Hint: "Add some nodes to get started"}
	EmptyGroups       = EmptyState{Title: "No Groups Found", Hint: "Create some groups to organize your nodes"}
	EmptyNodeTargets  = EmptyState{Title: "No Nodes Available", Hint: "Add some nodes first"}
	EmptyGroupTargets = EmptyState{Title: "No Groups Available", Hint: "Create some groups first"}
	EmptyExecutions   = EmptyState{Title: "No Executions Found", Hint: "Execute some playbooks to see history here"}
)

// List is a rendered collection: either an empty-state placeholder and no items,
// or one item per entity.
type List[T any] struct {
	Empty *EmptyState
	Items []T
}

// IsEmpty reports whether the placeholder is shown.
func (l List[T]) IsEmpty() bool {
	return l.Empty != nil
}

func newList[T any](n int, empty EmptyState) List[T] {
	if n == 0 {
		return List[T]{Empty: &empty}
	}
	return List[T]{Items: make([]T, 0, n)}
}

// PlaybookCard is one row of the playbook list.
type PlaybookCard struct {
	Name     string
	Size     string
	Modified string
	Selected bool
}

// RenderPlaybooks renders playbooks, marking those named in selected.
func RenderPlaybooks(playbooks []models.Playbook, selected []string) List[PlaybookCard] {
	l := newList[PlaybookCard](len(playbooks), EmptyPlaybooks)
	for _, pb := range playbooks {
		l.Items = append(l.Items, PlaybookCard{
			Name:     pb.Name,
			Size:     shared.FormatFileSize(pb.Size),
			Modified: shared.FormatDate(pb.Modified.Time),
			Selected: slices.Contains(selected, pb.Name),
		})
	}
	return l
}

// NodeCard is one card of the node list.
type NodeCard struct {
	ID          int
	Name        string
	Status      string
	Host        string
	User        string
	Description string
	Groups      string
	Marked      bool
}

// RenderNodes renders nodes, marking those whose ids are in marked.
func RenderNodes(nodes []models.Node, marked []int) List[NodeCard] {
	l := newList[NodeCard](len(nodes), EmptyNodes)
	for _, n := range nodes {
		names := make([]string, 0, len(n.Groups))
		for _, g := range n.Groups {
			names = append(names, g.Name)
		}
		l.Items = append(l.Items, NodeCard{
			ID:          n.ID,
			Name:        n.Name,
			Status:      n.Status,
			Host:        n.Address(),
			User:        n.Username,
			Description: n.Description,
			Groups:      joinOrNone(names),
			Marked:      slices.Contains(marked, n.ID),
		})
	}
	return l
}

// GroupCard is one card of the group list.
type GroupCard struct {
	ID          int
	Name        string
	Description string
	NodeCount   int
	Members     string
}

// RenderGroups renders groups.
func RenderGroups(groups []models.Group) List[GroupCard] {
	l := newList[GroupCard](len(groups), EmptyGroups)
	for _, g := range groups {
		names := make([]string, 0, len(g.Nodes))
		for _, n := range g.Nodes {
			names = append(names, n.Name)
		}
		l.Items = append(l.Items, GroupCard{
			ID:          g.ID,
			Name:        g.Name,
			Description: g.Description,
			NodeCount:   len(g.Nodes),
			Members:     joinOrNone(names),
		})
	}
	return l
}

// TargetItem is one checkbox row of the target picker.
type TargetItem struct {
	Target   models.Target
	Name     string
	Details  string
	Selected bool
}

// RenderNodeTargets renders nodes as execution targets.
func RenderNodeTargets(nodes []models.Node, selected []models.Target) List[TargetItem] {
	l := newList[TargetItem](len(nodes), EmptyNodeTargets)
	for _, n := range nodes {
		t := models.Target{Type: models.TargetNodes, ID: n.ID}
		l.Items = append(l.Items, TargetItem{
			Target:   t,
			Name:     n.Name,
			Details:  fmt.Sprintf("%s (%s)", n.Hostname, n.Status),
			Selected: slices.Contains(selected, t),
		})
	}
	return l
}

// RenderGroupTargets renders groups as execution targets.
func RenderGroupTargets(groups []models.Group, selected []models.Target) List[TargetItem] {
	l := newList[TargetItem](len(groups), EmptyGroupTargets)
	for _, g := range groups {
		t := models.Target{Type: models.TargetGroups, ID: g.ID}
		l.Items = append(l.Items, TargetItem{
			Target:   t,
			Name:     g.Name,
			Details:  fmt.Sprintf("%d nodes", len(g.Nodes)),
			Selected: slices.Contains(selected, t),
		})
	}
	return l
}

// ExecutionCard is one row of the execution history.
type ExecutionCard struct {
	ID        int
	Title     string
	Status    string
	Playbooks string
	Started   string
	Completed string
}

// RenderExecutions renders execution history. Completed is empty for unfinished runs.
func RenderExecutions(executions []models.Execution) List[ExecutionCard] {
	l := newList[ExecutionCard](len(executions), EmptyExecutions)
	for _, e := range executions {
		l.Items = append(l.Items, executionCard(e))
	}
	return l
}

func executionCard(e models.Execution) ExecutionCard {
	c := ExecutionCard{
		ID:        e.ID,
		Title:     fmt.Sprintf("Execution #%d", e.ID),
		Status:    e.Status,
		Playbooks: strings.Join(e.Playbooks, ", "),
		Started:   shared.FormatDateTime(e.StartedAt.Time),
	}
	if e.Finished() {
		c.Completed = shared.FormatDateTime(e.CompletedAt.Time)
	}
	return c
}

// ExecutionDetailView is the detail modal content.
type ExecutionDetailView struct {
	ExecutionCard
	Output      string
	ErrorOutput string
}

// RenderExecutionDetail renders a single execution with its output streams.
func RenderExecutionDetail(e models.Execution) ExecutionDetailView {
	return ExecutionDetailView{ExecutionCard: executionCard(e), Output: e.Output, ErrorOutput: e.ErrorOutput}
}

func joinOrNone(names []string) string {
	if len(names) == 0 {
		return "None"
	}
	return strings.Join(names, ", ")
}

// PlaybookList renders the cached playbooks with the current selection.
func (p *Portal) PlaybookList() List[PlaybookCard] {
	return RenderPlaybooks(p.playbooks, p.selectedPlaybooks)
}

// NodeList renders the cached nodes with the current ping marks.
func (p *Portal) NodeList() List[NodeCard] {
	return RenderNodes(p.nodes, p.markedNodes)
}

// GroupList renders the cached groups.
func (p *Portal) GroupList() List[GroupCard] {
	return RenderGroups(p.groups)
}

// TargetList renders the target picker for the active target type.
func (p *Portal) TargetList() List[TargetItem] {
	if p.targetType == models.TargetGroups {
		return RenderGroupTargets(p.groups, p.selectedTargets)
	}
	return RenderNodeTargets(p.nodes, p.selectedTargets)
}

// ExecutionList renders the cached execution history.
func (p *Portal) ExecutionList() List[ExecutionCard] {
	return RenderExecutions(p.executions)
}
