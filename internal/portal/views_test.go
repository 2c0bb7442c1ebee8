package portal

import (
	"context"
	"testing"
	"time"

	"github.com/desertthunder/portal/internal/models"
)

func TestRender(t *testing.T) {
	t.Run("Empty Collections", func(t *testing.T) {
		tc := []struct {
			name  string
			empty *EmptyState
			items int
			want  EmptyState
		}{
			{name: "playbooks", empty: RenderPlaybooks(nil, nil).Empty, want: EmptyPlaybooks},
			{name: "nodes", empty: RenderNodes([]models.Node{}, nil).Empty, want: EmptyNodes},
			{name: "groups", empty: RenderGroups(nil).Empty, want: EmptyGroups},
			{name: "node targets", empty: RenderNodeTargets(nil, nil).Empty, want: EmptyNodeTargets},
			{name: "group targets", empty: RenderGroupTargets(nil, nil).Empty, want: EmptyGroupTargets},
			{name: "executions", empty: RenderExecutions(nil).Empty, want: EmptyExecutions},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				if tt.empty == nil {
					t.Fatal("expected empty state")
				}
				if *tt.empty != tt.want {
					t.Errorf("expected %+v, got %+v", tt.want, *tt.empty)
				}
			})
		}
	})

	t.Run("Zero Playbooks Has No Items", func(t *testing.T) {
		l := RenderPlaybooks([]models.Playbook{}, []string{"ghost.yml"})
		if !l.IsEmpty() || len(l.Items) != 0 {
			t.Errorf("unexpected list %+v", l)
		}
		if l.Empty.Title != "No Playbooks Found" || l.Empty.Hint != "Add some Ansible playbooks to the playbooks directory" {
			t.Errorf("unexpected empty state %+v", l.Empty)
		}
	})

	t.Run("Playbooks", func(t *testing.T) {
		pbs := []models.Playbook{
			{Name: "site.yml", Size: 1536, Modified: models.NewLocalTimestamp(time.Date(2024, 3, 5, 14, 7, 9, 0, time.Local))},
			{Name: "web.yml", Size: 0},
		}
		l := RenderPlaybooks(pbs, []string{"web.yml"})

		if l.IsEmpty() || len(l.Items) != 2 {
			t.Fatalf("unexpected list %+v", l)
		}
		want := PlaybookCard{Name: "site.yml", Size: "1.5 KB", Modified: "Mar 5, 2024 2:07:09 PM"}
		if l.Items[0] != want {
			t.Errorf("expected %+v, got %+v", want, l.Items[0])
		}
		if !l.Items[1].Selected || l.Items[1].Size != "0 Bytes" || l.Items[1].Modified != "-" {
			t.Errorf("unexpected second card %+v", l.Items[1])
		}
	})

	t.Run("Nodes", func(t *testing.T) {
		p, _ := newTestPortal(t)
		p.ToggleNodeMark(2)
		l := p.NodeList()

		want := NodeCard{ID: 1, Name: "web-1", Status: "unreachable", Host: "10.0.0.1:22", User: "root", Groups: "web"}
		if l.Items[0] != want {
			t.Errorf("expected %+v, got %+v", want, l.Items[0])
		}
		if l.Items[1].Groups != "None" || !l.Items[1].Marked || l.Items[1].Host != "10.0.0.2:2222" {
			t.Errorf("unexpected second card %+v", l.Items[1])
		}
	})

	t.Run("Groups", func(t *testing.T) {
		p, _ := newTestPortal(t)
		l := p.GroupList()

		if l.Items[0].NodeCount != 1 || l.Items[0].Members != "web-1" {
			t.Errorf("unexpected first card %+v", l.Items[0])
		}
		if l.Items[1].NodeCount != 0 || l.Items[1].Members != "None" {
			t.Errorf("unexpected second card %+v", l.Items[1])
		}
	})

	t.Run("Targets Follow Active Type", func(t *testing.T) {
		p, _ := newTestPortal(t)
		p.ToggleTarget(models.Target{Type: models.TargetNodes, ID: 2})

		l := p.TargetList()
		if len(l.Items) != 2 || l.Items[0].Details != "10.0.0.1 (unreachable)" || !l.Items[1].Selected {
			t.Errorf("unexpected node targets %+v", l.Items)
		}

		p.SetTargetType(models.TargetGroups)
		l = p.TargetList()
		if len(l.Items) != 2 || l.Items[0].Details != "1 nodes" || l.Items[0].Target.Type != models.TargetGroups {
			t.Errorf("unexpected group targets %+v", l.Items)
		}
	})

	t.Run("Executions", func(t *testing.T) {
		started := time.Date(2024, 3, 5, 14, 7, 9, 0, time.Local)
		done := models.NewTimestamp(started.Add(time.Minute))
		l := RenderExecutions([]models.Execution{
			{ID: 7, Status: "running", Playbooks: []string{"a.yml", "b.yml"}, StartedAt: models.NewTimestamp(started)},
			{ID: 6, Status: "completed", Playbooks: []string{"a.yml"}, StartedAt: models.NewTimestamp(started), CompletedAt: &done},
		})

		want := ExecutionCard{ID: 7, Title: "Execution #7", Status: "running", Playbooks: "a.yml, b.yml", Started: "3/5/2024, 2:07:09 PM"}
		if l.Items[0] != want {
			t.Errorf("expected %+v, got %+v", want, l.Items[0])
		}
		if l.Items[1].Completed != "3/5/2024, 2:08:09 PM" {
			t.Errorf("unexpected completion %q", l.Items[1].Completed)
		}
	})

	t.Run("Execution Detail", func(t *testing.T) {
		v := RenderExecutionDetail(models.Execution{ID: 3, Output: "PLAY RECAP", ErrorOutput: "fatal"})
		if v.Title != "Execution #3" || v.Output != "PLAY RECAP" || v.ErrorOutput != "fatal" {
			t.Errorf("unexpected detail %+v", v)
		}
	})
}

func TestExecutionsView(t *testing.T) {
	ctx := context.Background()

	t.Run("OpenExecution", func(t *testing.T) {
		p, _ := newTestPortal(t)
		if err := p.Run(ctx, p.OpenExecution(5)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		e, ok := p.ExecutionDetail()
		if !ok || e.ID != 5 || e.Output != "ok" {
			t.Errorf("unexpected detail %+v", e)
		}
		p.CloseExecution()
		if _, ok := p.ExecutionDetail(); ok {
			t.Error("detail should be closed")
		}
	})

	t.Run("OpenExecution Failure", func(t *testing.T) {
		p, _ := newTestPortal(t)
		if err := p.Run(ctx, p.OpenExecution(404)); err == nil {
			t.Error("expected error for unknown execution")
		}
		if toast := lastToast(t, p); toast.Message != "Failed to load execution details" {
			t.Errorf("unexpected toast %+v", toast)
		}
	})

	t.Run("OpenPlaybook", func(t *testing.T) {
		p, _ := newTestPortal(t)
		p.Run(ctx, p.OpenExecution(5))

		if err := p.Run(ctx, p.OpenPlaybook("site.yml")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		v, ok := p.Playbook()
		if !ok || v.Name != "site.yml" || v.Content != "- hosts: all\n" {
			t.Errorf("unexpected playbook view %+v", v)
		}
		if _, ok := p.ExecutionDetail(); ok {
			t.Error("opening a playbook should replace the execution detail")
		}

		p.ClosePlaybook()
		if _, ok := p.Playbook(); ok {
			t.Error("playbook view should be closed")
		}
	})

	t.Run("OpenPlaybook Failure", func(t *testing.T) {
		p, _ := newTestPortal(t)
		p.Run(ctx, p.OpenPlaybook("missing.yml"))
		if toast := lastToast(t, p); toast.Message != "Failed to load playbook" {
			t.Errorf("unexpected toast %+v", toast)
		}
	})
}

func TestHandleEvent(t *testing.T) {
	ctx := context.Background()

	tc := []struct {
		name      string
		event     string
		wantToast string
		wantLevel Level
		reload    bool
	}{
		{name: "completed", event: models.EventExecutionCompleted, wantToast: "Execution completed", wantLevel: LevelSuccess, reload: true},
		{name: "failed", event: models.EventExecutionFailed, wantToast: "Execution failed", wantLevel: LevelError, reload: true},
		{name: "unknown", event: "node_updated"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			p, api := newTestPortal(t)
			api.Executions = append(api.Executions, models.Execution{ID: 6, Status: models.ExecutionCompleted})

			task := p.HandleEvent(models.Event{Name: tt.event, Payload: []byte(`{"execution_id":6}`)})
			if !tt.reload {
				if task != nil {
					t.Error("unknown events should yield no task")
				}
				if p.Toasts().Len() != 0 {
					t.Error("unknown events should not toast")
				}
				return
			}

			toast := lastToast(t, p)
			if toast.Message != tt.wantToast || toast.Level != tt.wantLevel {
				t.Errorf("unexpected toast %+v", toast)
			}
			if err := p.Run(ctx, task); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(p.Executions()) != 2 {
				t.Errorf("expected history reloaded, got %d", len(p.Executions()))
			}
		})
	}
}
