package portal

import (
	"context"
	"testing"

	"github.com/desertthunder/portal/internal/models"
)

func TestContextMenu(t *testing.T) {
	node1 := models.Target{Type: models.TargetNodes, ID: 1}
	group10 := models.Target{Type: models.TargetGroups, ID: 10}
	vp := Viewport{Width: 80, Height: 24}

	t.Run("Items", func(t *testing.T) {
		p, _ := newTestPortal(t)

		m := p.OpenContextMenu(node1, 0, 0, vp)
		if len(m.Items) != 3 || m.Items[0].Label != "Ping Node" || !m.Items[2].Danger {
			t.Errorf("unexpected node items %+v", m.Items)
		}

		m = p.OpenContextMenu(group10, 0, 0, vp)
		if len(m.Items) != 2 || m.Items[0].Label != "Edit Group" || m.Items[1].Label != "Delete Group" {
			t.Errorf("unexpected group items %+v", m.Items)
		}
		if m.Width() != len("Delete Group")+4 || m.Height() != 4 {
			t.Errorf("unexpected size %dx%d", m.Width(), m.Height())
		}
	})

	t.Run("Placement", func(t *testing.T) {
		tc := []struct {
			name   string
			x, y   int
			vp     Viewport
			wx, wy int
		}{
			{name: "fits", x: 10, y: 5, vp: vp, wx: 10, wy: 5},
			{name: "right overflow", x: 75, y: 5, vp: vp, wx: 75 - 15, wy: 5},
			{name: "bottom overflow", x: 10, y: 22, vp: vp, wx: 10, wy: 22 - 5},
			{name: "both overflow", x: 75, y: 22, vp: vp, wx: 60, wy: 17},
			{name: "clamped at origin", x: 5, y: 2, vp: Viewport{Width: 10, Height: 4}, wx: 0, wy: 0},
			{name: "unknown viewport", x: 500, y: 500, vp: Viewport{}, wx: 500, wy: 500},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				p, _ := newTestPortal(t)
				m := p.OpenContextMenu(node1, tt.x, tt.y, tt.vp)
				if m.X != tt.wx || m.Y != tt.wy {
					t.Errorf("expected (%d,%d), got (%d,%d)", tt.wx, tt.wy, m.X, m.Y)
				}
			})
		}
	})

	t.Run("Opening Replaces", func(t *testing.T) {
		p, _ := newTestPortal(t)
		first := p.OpenContextMenu(node1, 1, 1, vp)
		second := p.OpenContextMenu(group10, 2, 2, vp)

		m, ok := p.ContextMenu()
		if !ok || m.ID != second.ID || m.ID == first.ID {
			t.Errorf("expected only the second menu open, got %+v", m)
		}

		p.CloseContextMenu()
		if _, ok := p.ContextMenu(); ok {
			t.Error("menu should be closed")
		}
	})

	t.Run("Activate", func(t *testing.T) {
		t.Run("ping", func(t *testing.T) {
			p, api := newTestPortal(t)
			p.OpenContextMenu(node1, 0, 0, vp)

			if err := p.Run(context.Background(), p.ActivateMenuItem(ActionPing)); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if api.CallCount("Ping") != 1 {
				t.Error("expected a ping request")
			}
			if _, ok := p.ContextMenu(); ok {
				t.Error("menu should close on activation")
			}
		})

		t.Run("edit node", func(t *testing.T) {
			p, _ := newTestPortal(t)
			p.OpenContextMenu(node1, 0, 0, vp)

			if p.ActivateMenuItem(ActionEdit) != nil {
				t.Error("edit should not return a task")
			}
			if m, ok := p.NodeModal(); !ok || m.Node.ID != 1 {
				t.Error("expected node 1 modal")
			}
		})

		t.Run("edit group", func(t *testing.T) {
			p, _ := newTestPortal(t)
			p.OpenContextMenu(group10, 0, 0, vp)
			p.ActivateMenuItem(ActionEdit)

			if m, ok := p.GroupModal(); !ok || m.Group.ID != 10 {
				t.Error("expected group 10 modal")
			}
		})

		t.Run("delete asks first", func(t *testing.T) {
			p, api := newTestPortal(t)
			p.OpenContextMenu(group10, 0, 0, vp)
			p.ActivateMenuItem(ActionDelete)

			c, ok := p.Confirmation()
			if !ok || c.Kind != ConfirmDeleteGroup || c.ID != 10 {
				t.Errorf("unexpected confirmation %+v", c)
			}
			if api.CallCount("DeleteGroup") != 0 {
				t.Error("delete should wait for confirmation")
			}
		})

		t.Run("no menu", func(t *testing.T) {
			p, _ := newTestPortal(t)
			if p.ActivateMenuItem(ActionPing) != nil {
				t.Error("expected nil task without an open menu")
			}
		})
	})
}
