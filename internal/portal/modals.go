package portal

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/desertthunder/portal/internal/models"
	"github.com/desertthunder/portal/internal/shared"
)

// DefaultSSHPort is used when the port field is left blank.
const DefaultSSHPort = 22

// NodeForm holds the raw text of the node form fields.
type NodeForm struct {
	Name        string
	Hostname    string
	Username    string
	Port        string
	Description string
}

// Input converts the form into a request body. A blank port becomes 22; a non-numeric or
// out-of-range port is rejected.
func (f NodeForm) Input() (models.NodeInput, error) {
	port := DefaultSSHPort
	if s := strings.TrimSpace(f.Port); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 65535 {
			return models.NodeInput{}, fmt.Errorf("%w: port %q", shared.ErrInvalidInput, f.Port)
		}
		port = n
	}
	return models.NodeInput{
		Name:        strings.TrimSpace(f.Name),
		Hostname:    strings.TrimSpace(f.Hostname),
		Username:    strings.TrimSpace(f.Username),
		Port:        port,
		Description: f.Description,
	}, nil
}

// NodeModal is the open node form. Node is nil when creating.
type NodeModal struct {
	Node *models.Node
	Form NodeForm
}

// Editing reports whether the modal edits an existing node.
func (m NodeModal) Editing() bool { return m.Node != nil }

// Title returns the modal heading.
func (m NodeModal) Title() string {
	if m.Editing() {
		return "Edit Node"
	}
	return "Add Node"
}

// MemberOption is one row of the group member checklist.
type MemberOption struct {
	NodeID  int
	Label   string
	Checked bool
}

// GroupForm holds the group form fields and its member checklist.
type GroupForm struct {
	Name        string
	Description string
	Members     []MemberOption
}

// Input converts the form into a request body with the checked node ids in checklist order.
func (f GroupForm) Input() models.GroupInput {
	in := models.GroupInput{Name: strings.TrimSpace(f.Name), Description: f.Description, NodeIDs: []int{}}
	for _, m := range f.Members {
		if m.Checked {
			in.NodeIDs = append(in.NodeIDs, m.NodeID)
		}
	}
	return in
}

// GroupModal is the open group form. Group is nil when creating.
type GroupModal struct {
	Group *models.Group
	Form  GroupForm
}

// Editing reports whether the modal edits an existing group.
func (m GroupModal) Editing() bool { return m.Group != nil }

// Title returns the modal heading.
func (m GroupModal) Title() string {
	if m.Editing() {
		return "Edit Group"
	}
	return "Add Group"
}

// OpenCreateNodeModal opens an empty node form with the port preset to 22.
// Any open group modal is closed.
func (p *Portal) OpenCreateNodeModal() {
	p.groupModal = nil
	p.nodeModal = &NodeModal{Form: NodeForm{Port: strconv.Itoa(DefaultSSHPort)}}
}

// OpenNodeModal opens the form pre-filled from the cached node with id. It reports false,
// leaving state unchanged, when the node is not cached.
func (p *Portal) OpenNodeModal(id int) bool {
	n, ok := p.Node(id)
	if !ok {
		return false
	}
	p.groupModal = nil
	p.nodeModal = &NodeModal{
		Node: &n,
		Form: NodeForm{
			Name:        n.Name,
			Hostname:    n.Hostname,
			Username:    n.Username,
			Port:        strconv.Itoa(n.Port),
			Description: n.Description,
		},
	}
	return true
}

// NodeModal returns the open node modal, if any.
func (p *Portal) NodeModal() (NodeModal, bool) {
	if p.nodeModal == nil {
		return NodeModal{}, false
	}
	return *p.nodeModal, true
}

// SetNodeForm replaces the node form's field values. It is a no-op when the modal is closed.
func (p *Portal) SetNodeForm(f NodeForm) {
	if p.nodeModal != nil {
		p.nodeModal.Form = f
	}
}

// CloseNodeModal discards the node form.
func (p *Portal) CloseNodeModal() {
	p.nodeModal = nil
}

// SaveNode submits the node form: PUT when editing, POST when creating. On success the modal
// closes and nodes and groups are reloaded. On failure, including a non-numeric port, the modal
// stays open and "Failed to save node" is shown.
func (p *Portal) SaveNode() Task {
	m := p.nodeModal
	if m == nil {
		return nil
	}

	in, err := m.Form.Input()
	if err != nil {
		return func(context.Context) Completion {
			return func(p *Portal) []Collection {
				p.fail(err, "Failed to save node")
				return nil
			}
		}
	}

	editing := m.Editing()
	id := 0
	if editing {
		id = m.Node.ID
	}

	return func(ctx context.Context) Completion {
		var err error
		if editing {
			err = p.api.UpdateNode(ctx, id, in)
		} else {
			_, err = p.api.CreateNode(ctx, in)
		}
		return func(p *Portal) []Collection {
			if err != nil {
				p.fail(err, "Failed to save node", "id", id)
				return nil
			}
			if editing {
				p.succeed("Node updated successfully")
			} else {
				p.succeed("Node created successfully")
			}
			p.nodeModal = nil
			return []Collection{Nodes, Groups}
		}
	}
}

func (p *Portal) memberChecklist() []MemberOption {
	members := make([]MemberOption, 0, len(p.nodes))
	for _, n := range p.nodes {
		members = append(members, MemberOption{NodeID: n.ID, Label: fmt.Sprintf("%s (%s)", n.Name, n.Hostname)})
	}
	return members
}

// OpenCreateGroupModal opens an empty group form whose checklist lists every cached node.
// Any open node modal is closed.
func (p *Portal) OpenCreateGroupModal() {
	p.nodeModal = nil
	p.groupModal = &GroupModal{Form: GroupForm{Members: p.memberChecklist()}}
}

// OpenGroupModal opens the form pre-filled from the cached group with id. The checklist is
// built from cached nodes and the group's members are checked in the same step. Members that
// are not cached have no row and stay unchecked.
func (p *Portal) OpenGroupModal(id int) bool {
	g, ok := p.Group(id)
	if !ok {
		return false
	}

	members := p.memberChecklist()
	ids := g.NodeIDs()
	for i := range members {
		members[i].Checked = slices.Contains(ids, members[i].NodeID)
	}

	p.nodeModal = nil
	p.groupModal = &GroupModal{
		Group: &g,
		Form:  GroupForm{Name: g.Name, Description: g.Description, Members: members},
	}
	return true
}

// GroupModal returns the open group modal, if any.
func (p *Portal) GroupModal() (GroupModal, bool) {
	if p.groupModal == nil {
		return GroupModal{}, false
	}
	m := *p.groupModal
	m.Form.Members = slices.Clone(m.Form.Members)
	return m, true
}

// SetGroupFields replaces the group name and description.
func (p *Portal) SetGroupFields(name, description string) {
	if p.groupModal != nil {
		p.groupModal.Form.Name = name
		p.groupModal.Form.Description = description
	}
}

// ToggleGroupMember flips the checklist row for nodeID.
func (p *Portal) ToggleGroupMember(nodeID int) {
	if p.groupModal == nil {
		return
	}
	for i := range p.groupModal.Form.Members {
		if p.groupModal.Form.Members[i].NodeID == nodeID {
			p.groupModal.Form.Members[i].Checked = !p.groupModal.Form.Members[i].Checked
			return
		}
	}
}

// CloseGroupModal discards the group form.
func (p *Portal) CloseGroupModal() {
	p.groupModal = nil
}

// SaveGroup submits the group form: PUT when editing, POST when creating. On success the modal
// closes and groups and nodes are reloaded.
func (p *Portal) SaveGroup() Task {
	m := p.groupModal
	if m == nil {
		return nil
	}

	in := m.Form.Input()
	editing := m.Editing()
	id := 0
	if editing {
		id = m.Group.ID
	}

	return func(ctx context.Context) Completion {
		var err error
		if editing {
			err = p.api.UpdateGroup(ctx, id, in)
		} else {
			_, err = p.api.CreateGroup(ctx, in)
		}
		return func(p *Portal) []Collection {
			if err != nil {
				p.fail(err, "Failed to save group", "id", id)
				return nil
			}
			if editing {
				p.succeed("Group updated successfully")
			} else {
				p.succeed("Group created successfully")
			}
			p.groupModal = nil
			return []Collection{Groups, Nodes}
		}
	}
}

// ConfirmKind is the destructive action awaiting confirmation.
type ConfirmKind int

const (
	ConfirmDeleteNode ConfirmKind = iota
	ConfirmDeleteGroup
)

// Confirmation is a pending yes/no question.
type Confirmation struct {
	Kind    ConfirmKind
	ID      int
	Message string
}

// RequestDeleteNode asks for confirmation before deleting node id.
func (p *Portal) RequestDeleteNode(id int) {
	p.confirm = &Confirmation{Kind: ConfirmDeleteNode, ID: id, Message: "Are you sure you want to delete this node?"}
}

// RequestDeleteGroup asks for confirmation before deleting group id.
func (p *Portal) RequestDeleteGroup(id int) {
	p.confirm = &Confirmation{Kind: ConfirmDeleteGroup, ID: id, Message: "Are you sure you want to delete this group?"}
}

// Confirmation returns the pending question, if any.
func (p *Portal) Confirmation() (Confirmation, bool) {
	if p.confirm == nil {
		return Confirmation{}, false
	}
	return *p.confirm, true
}

// CancelConfirmation drops the pending question without side effects.
func (p *Portal) CancelConfirmation() {
	p.confirm = nil
}

// Confirm accepts the pending question and returns the task that carries it out.
func (p *Portal) Confirm() Task {
	c := p.confirm
	p.confirm = nil
	if c == nil {
		return nil
	}
	switch c.Kind {
	case ConfirmDeleteNode:
		return p.DeleteNode(c.ID)
	case ConfirmDeleteGroup:
		return p.DeleteGroup(c.ID)
	}
	return nil
}

// DeleteNode deletes node id without asking. The server cascades memberships.
func (p *Portal) DeleteNode(id int) Task {
	return func(ctx context.Context) Completion {
		err := p.api.DeleteNode(ctx, id)
		return func(p *Portal) []Collection {
			if err != nil {
				p.fail(err, "Failed to delete node", "id", id)
				return nil
			}
			p.succeed("Node deleted successfully")
			return []Collection{Nodes, Groups}
		}
	}
}

// DeleteGroup deletes group id without asking.
func (p *Portal) DeleteGroup(id int) Task {
	return func(ctx context.Context) Completion {
		err := p.api.DeleteGroup(ctx, id)
		return func(p *Portal) []Collection {
			if err != nil {
				p.fail(err, "Failed to delete group", "id", id)
				return nil
			}
			p.succeed("Group deleted successfully")
			return []Collection{Groups, Nodes}
		}
	}
}
