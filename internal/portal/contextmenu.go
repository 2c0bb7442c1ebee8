package portal

import (
	"github.com/desertthunder/portal/internal/models"
	"github.com/desertthunder/portal/internal/shared"
)

// MenuAction is what a context menu item does.
type MenuAction string

const (
	ActionPing   MenuAction = "ping"
	ActionEdit   MenuAction = "edit"
	ActionDelete MenuAction = "delete"
)

// MenuItem is one entry of a context menu.
type MenuItem struct {
	Action MenuAction
	Label  string
	Danger bool
}

// ContextMenu is the transient action menu for a node or group row.
type ContextMenu struct {
	ID     string
	Target models.Target
	Items  []MenuItem
	X, Y   int
}

// Width is the number of columns the menu occupies.
func (m ContextMenu) Width() int {
	w := 0
	for _, item := range m.Items {
		w = max(w, len([]rune(item.Label)))
	}
	return w + 4
}

// Height is the number of rows the menu occupies.
func (m ContextMenu) Height() int {
	return len(m.Items) + 2
}

func menuItems(t models.TargetType) []MenuItem {
	if t == models.TargetGroups {
		return []MenuItem{
			{Action: ActionEdit, Label: "Edit Group"},
			{Action: ActionDelete, Label: "Delete Group", Danger: true},
		}
	}
	return []MenuItem{
		{Action: ActionPing, Label: "Ping Node"},
		{Action: ActionEdit, Label: "Edit Node"},
		{Action: ActionDelete, Label: "Delete Node", Danger: true},
	}
}

// Viewport is the size of the area a menu must fit in.
type Viewport struct {
	Width, Height int
}

// OpenContextMenu shows the menu for target at (x, y), replacing any open menu. A menu that
// would overflow the right or bottom edge is shifted left by its width or up by its height,
// never past the origin.
func (p *Portal) OpenContextMenu(target models.Target, x, y int, vp Viewport) ContextMenu {
	m := ContextMenu{
		ID:     shared.GenerateID(),
		Target: target,
		Items:  menuItems(target.Type),
		X:      x,
		Y:      y,
	}
	if vp.Width > 0 && m.X+m.Width() > vp.Width {
		m.X = max(0, m.X-m.Width())
	}
	if vp.Height > 0 && m.Y+m.Height() > vp.Height {
		m.Y = max(0, m.Y-m.Height())
	}
	p.contextMenu = &m
	return m
}

// ContextMenu returns the open menu, if any.
func (p *Portal) ContextMenu() (ContextMenu, bool) {
	if p.contextMenu == nil {
		return ContextMenu{}, false
	}
	return *p.contextMenu, true
}

// CloseContextMenu hides the menu.
func (p *Portal) CloseContextMenu() {
	p.contextMenu = nil
}

// ActivateMenuItem closes the menu and performs action on its target. Ping returns a task;
// edit opens the entity's modal; delete asks for confirmation.
func (p *Portal) ActivateMenuItem(action MenuAction) Task {
	m := p.contextMenu
	p.contextMenu = nil
	if m == nil {
		return nil
	}

	switch action {
	case ActionPing:
		if m.Target.Type == models.TargetNodes {
			return p.PingNodes([]int{m.Target.ID})
		}
	case ActionEdit:
		if m.Target.Type == models.TargetNodes {
			p.OpenNodeModal(m.Target.ID)
		} else {
			p.OpenGroupModal(m.Target.ID)
		}
	case ActionDelete:
		if m.Target.Type == models.TargetNodes {
			p.RequestDeleteNode(m.Target.ID)
		} else {
			p.RequestDeleteGroup(m.Target.ID)
		}
	}
	return nil
}
