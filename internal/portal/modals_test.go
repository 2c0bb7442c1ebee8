package portal

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/desertthunder/portal/internal/models"
	"github.com/desertthunder/portal/internal/shared"
)

func TestNodeForm(t *testing.T) {
	tc := []struct {
		name    string
		port    string
		want    int
		wantErr bool
	}{
		{name: "blank port defaults", port: "", want: 22},
		{name: "whitespace port defaults", port: "   ", want: 22},
		{name: "explicit port", port: "2222", want: 2222},
		{name: "padded port", port: " 8022 ", want: 8022},
		{name: "non-numeric port", port: "ssh", wantErr: true},
		{name: "zero port", port: "0", wantErr: true},
		{name: "port too large", port: "70000", wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			in, err := NodeForm{Name: " web ", Hostname: "h", Username: "u", Port: tt.port}.Input()
			if tt.wantErr {
				if !errors.Is(err, shared.ErrInvalidInput) {
					t.Errorf("expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if in.Port != tt.want {
				t.Errorf("expected port %d, got %d", tt.want, in.Port)
			}
			if in.Name != "web" {
				t.Errorf("expected trimmed name, got %q", in.Name)
			}
		})
	}
}

func TestNodeModal(t *testing.T) {
	ctx := context.Background()

	t.Run("Create Sends Default Port", func(t *testing.T) {
		p, api := newTestPortal(t)
		p.OpenCreateNodeModal()

		m, ok := p.NodeModal()
		if !ok || m.Editing() || m.Title() != "Add Node" || m.Form.Port != "22" {
			t.Fatalf("unexpected modal %+v", m)
		}

		form := m.Form
		form.Name, form.Hostname, form.Username = "new", "10.0.0.9", "admin"
		p.SetNodeForm(form)

		if err := p.Run(ctx, p.SaveNode()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(api.Created) != 1 || api.Created[0].Port != 22 {
			t.Fatalf("expected a create with port 22, got %+v", api.Created)
		}
		if _, ok := p.NodeModal(); ok {
			t.Error("modal should close on success")
		}
		if toast := lastToast(t, p); toast.Message != "Node created successfully" {
			t.Errorf("unexpected toast %+v", toast)
		}
		if len(p.Nodes()) != 3 {
			t.Errorf("expected nodes reloaded, got %d", len(p.Nodes()))
		}
		if api.CallCount("ListGroups") != 2 {
			t.Errorf("expected groups reloaded, got %d loads", api.CallCount("ListGroups"))
		}
	})

	t.Run("Cleared Port Field Sends Default", func(t *testing.T) {
		p, api := newTestPortal(t)
		p.OpenCreateNodeModal()
		p.SetNodeForm(NodeForm{Name: "n", Hostname: "h", Username: "u"})

		p.Run(ctx, p.SaveNode())
		if len(api.Created) != 1 || api.Created[0].Port != 22 {
			t.Errorf("expected port 22, got %+v", api.Created)
		}
	})

	t.Run("Edit Prefills And Updates", func(t *testing.T) {
		p, api := newTestPortal(t)
		if !p.OpenNodeModal(2) {
			t.Fatal("expected node 2 to open")
		}

		m, _ := p.NodeModal()
		if m.Title() != "Edit Node" || m.Form.Port != "2222" || m.Form.Description != "primary" {
			t.Fatalf("unexpected prefill %+v", m.Form)
		}

		m.Form.Hostname = "db.internal"
		p.SetNodeForm(m.Form)
		if err := p.Run(ctx, p.SaveNode()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		n, _ := p.Node(2)
		if n.Hostname != "db.internal" || n.Port != 2222 {
			t.Errorf("expected updated node, got %+v", n)
		}
		if api.CallCount("UpdateNode") != 1 || api.CallCount("CreateNode") != 0 {
			t.Error("edit should PUT, not POST")
		}
		if toast := lastToast(t, p); toast.Message != "Node updated successfully" {
			t.Errorf("unexpected toast %+v", toast)
		}
	})

	t.Run("Open Unknown Node", func(t *testing.T) {
		p, _ := newTestPortal(t)
		if p.OpenNodeModal(99) {
			t.Error("expected false for an unknown node")
		}
		if _, ok := p.NodeModal(); ok {
			t.Error("no modal should open")
		}
	})

	t.Run("Invalid Port Keeps Modal Open", func(t *testing.T) {
		p, api := newTestPortal(t)
		p.OpenCreateNodeModal()
		p.SetNodeForm(NodeForm{Name: "n", Hostname: "h", Username: "u", Port: "abc"})

		err := p.Run(ctx, p.SaveNode())
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if api.CallCount("CreateNode") != 0 {
			t.Error("no request should be sent")
		}
		if _, ok := p.NodeModal(); !ok {
			t.Error("modal should stay open")
		}
		if toast := lastToast(t, p); toast.Message != "Failed to save node" {
			t.Errorf("unexpected toast %+v", toast)
		}
	})

	t.Run("Server Failure Keeps Modal Open", func(t *testing.T) {
		p, api := newTestPortal(t)
		api.Fail("CreateNode", errBoom)
		p.OpenCreateNodeModal()

		p.Run(ctx, p.SaveNode())
		if _, ok := p.NodeModal(); !ok {
			t.Error("modal should stay open")
		}
		if api.CallCount("ListNodes") != 1 {
			t.Error("nothing should be reloaded")
		}
	})

	t.Run("Save Without Modal", func(t *testing.T) {
		p, _ := newTestPortal(t)
		if p.SaveNode() != nil {
			t.Error("expected nil task")
		}
	})
}

func TestGroupModal(t *testing.T) {
	ctx := context.Background()

	t.Run("Edit Prechecks Members", func(t *testing.T) {
		p, _ := newTestPortal(t)
		if !p.OpenGroupModal(10) {
			t.Fatal("expected group 10 to open")
		}

		m, _ := p.GroupModal()
		if m.Title() != "Edit Group" || m.Form.Name != "web" {
			t.Fatalf("unexpected modal %+v", m)
		}
		want := []MemberOption{
			{NodeID: 1, Label: "web-1 (10.0.0.1)", Checked: true},
			{NodeID: 2, Label: "db-1 (10.0.0.2)"},
		}
		if !slices.Equal(m.Form.Members, want) {
			t.Errorf("expected %+v, got %+v", want, m.Form.Members)
		}
	})

	t.Run("Modals Are Exclusive", func(t *testing.T) {
		p, _ := newTestPortal(t)
		p.OpenCreateNodeModal()
		p.OpenCreateGroupModal()

		if _, ok := p.NodeModal(); ok {
			t.Error("node modal should close when the group modal opens")
		}
		p.OpenNodeModal(1)
		if _, ok := p.GroupModal(); ok {
			t.Error("group modal should close when the node modal opens")
		}
	})

	t.Run("Create With Members", func(t *testing.T) {
		p, api := newTestPortal(t)
		p.OpenCreateGroupModal()
		p.SetGroupFields(" db ", "databases")
		p.ToggleGroupMember(2)

		if err := p.Run(ctx, p.SaveGroup()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(api.Saved) != 1 {
			t.Fatalf("expected one save, got %d", len(api.Saved))
		}
		in := api.Saved[0]
		if in.Name != "db" || in.Description != "databases" || !slices.Equal(in.NodeIDs, []int{2}) {
			t.Errorf("unexpected input %+v", in)
		}
		if len(p.Groups()) != 3 {
			t.Errorf("expected groups reloaded, got %d", len(p.Groups()))
		}
		if toast := lastToast(t, p); toast.Message != "Group created successfully" {
			t.Errorf("unexpected toast %+v", toast)
		}
	})

	t.Run("Unchecking All Members Sends Empty List", func(t *testing.T) {
		p, api := newTestPortal(t)
		p.OpenGroupModal(10)
		p.ToggleGroupMember(1)

		p.Run(ctx, p.SaveGroup())
		if len(api.Saved) != 1 || api.Saved[0].NodeIDs == nil || len(api.Saved[0].NodeIDs) != 0 {
			t.Errorf("expected empty node_ids, got %+v", api.Saved)
		}
		g, _ := p.Group(10)
		if len(g.Nodes) != 0 {
			t.Errorf("expected no members after reload, got %+v", g.Nodes)
		}
		if toast := lastToast(t, p); toast.Message != "Group updated successfully" {
			t.Errorf("unexpected toast %+v", toast)
		}
	})

	t.Run("Returned Modal Is A Copy", func(t *testing.T) {
		p, _ := newTestPortal(t)
		p.OpenGroupModal(10)

		m, _ := p.GroupModal()
		m.Form.Members[0].Checked = false

		again, _ := p.GroupModal()
		if !again.Form.Members[0].Checked {
			t.Error("mutating the returned modal should not change controller state")
		}
	})

	t.Run("Failure", func(t *testing.T) {
		p, api := newTestPortal(t)
		api.Fail("UpdateGroup", errBoom)
		p.OpenGroupModal(11)

		if err := p.Run(ctx, p.SaveGroup()); !errors.Is(err, errBoom) {
			t.Errorf("expected save error, got %v", err)
		}
		if _, ok := p.GroupModal(); !ok {
			t.Error("modal should stay open")
		}
		if toast := lastToast(t, p); toast.Message != "Failed to save group" {
			t.Errorf("unexpected toast %+v", toast)
		}
	})
}

func TestConfirmation(t *testing.T) {
	ctx := context.Background()

	t.Run("Cancel Has No Side Effects", func(t *testing.T) {
		p, api := newTestPortal(t)
		p.RequestDeleteNode(1)

		c, ok := p.Confirmation()
		if !ok || c.Message != "Are you sure you want to delete this node?" {
			t.Fatalf("unexpected confirmation %+v", c)
		}

		p.CancelConfirmation()
		if _, ok := p.Confirmation(); ok {
			t.Error("confirmation should be gone")
		}
		if p.Confirm() != nil || api.CallCount("DeleteNode") != 0 {
			t.Error("nothing should be deleted")
		}
	})

	t.Run("Confirmed Node Delete Reloads Both Lists", func(t *testing.T) {
		p, _ := newTestPortal(t)
		p.RequestDeleteNode(1)

		if err := p.Run(ctx, p.Confirm()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := p.Node(1); ok {
			t.Error("node 1 should be gone")
		}
		g, _ := p.Group(10)
		if len(g.Nodes) != 0 {
			t.Errorf("membership should be cascaded, got %+v", g.Nodes)
		}
		if toast := lastToast(t, p); toast.Message != "Node deleted successfully" {
			t.Errorf("unexpected toast %+v", toast)
		}
	})

	t.Run("Deleted Group Leaves Renders And Targets", func(t *testing.T) {
		p, _ := newTestPortal(t)
		p.SetTargetType(models.TargetGroups)
		target := models.Target{Type: models.TargetGroups, ID: 10}
		p.ToggleTarget(target)

		p.RequestDeleteGroup(10)
		c, _ := p.Confirmation()
		if c.Message != "Are you sure you want to delete this group?" {
			t.Errorf("unexpected message %q", c.Message)
		}
		if err := p.Run(ctx, p.Confirm()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for _, card := range p.GroupList().Items {
			if card.ID == 10 {
				t.Error("group 10 should not render")
			}
		}
		for _, item := range p.TargetList().Items {
			if item.Target == target {
				t.Error("group 10 should not be a target")
			}
		}
		if p.TargetSelected(target) {
			t.Error("group 10 should be pruned from the selection")
		}
	})

	t.Run("Delete Failure", func(t *testing.T) {
		p, api := newTestPortal(t)
		api.Fail("DeleteGroup", errBoom)

		if err := p.Run(ctx, p.DeleteGroup(10)); !errors.Is(err, errBoom) {
			t.Errorf("expected delete error, got %v", err)
		}
		if toast := lastToast(t, p); toast.Message != "Failed to delete group" {
			t.Errorf("unexpected toast %+v", toast)
		}
		if _, ok := p.Group(10); !ok {
			t.Error("group should remain cached")
		}
	})
}
