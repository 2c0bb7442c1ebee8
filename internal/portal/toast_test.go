package portal

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestToasts(t *testing.T) {
	t.Run("Expire After Lifetime", func(t *testing.T) {
		clock := &fakeClock{t: time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC)}
		toasts := NewToasts(clock.Now)

		first := toasts.Push(LevelInfo, "one")
		clock.Advance(2 * time.Second)
		toasts.Push(LevelError, "two")

		if first.ExpiresAt.Sub(first.CreatedAt) != ToastLifetime {
			t.Errorf("unexpected lifetime %v", first.ExpiresAt.Sub(first.CreatedAt))
		}

		clock.Advance(3 * time.Second)
		active := toasts.Active()
		if len(active) != 1 || active[0].Message != "two" {
			t.Errorf("expected only the second toast, got %+v", active)
		}

		clock.Advance(2 * time.Second)
		if toasts.Expire() != 1 || toasts.Len() != 0 {
			t.Errorf("expected all toasts expired, %d left", toasts.Len())
		}
	})

	t.Run("Dismiss", func(t *testing.T) {
		toasts := NewToasts(nil)
		a := toasts.Push(LevelSuccess, "a")
		b := toasts.Push(LevelSuccess, "b")

		if a.ID == b.ID {
			t.Fatal("toast ids should be unique")
		}
		if !toasts.Dismiss(a.ID) {
			t.Error("expected dismiss to remove a toast")
		}
		if toasts.Dismiss(a.ID) {
			t.Error("second dismiss should be a no-op")
		}
		if last, _ := toasts.Last(); last.ID != b.ID {
			t.Errorf("expected b to remain, got %+v", last)
		}
	})

	t.Run("Stacked Toasts Are Independent", func(t *testing.T) {
		clock := &fakeClock{t: time.Now()}
		p, _ := newTestPortal(t)
		WithClock(clock.Now)(p)

		p.succeed("first")
		clock.Advance(4 * time.Second)
		p.succeed("second")
		clock.Advance(time.Second)

		active := p.Toasts().Active()
		if len(active) != 1 || active[0].Message != "second" {
			t.Errorf("unexpected active toasts %+v", active)
		}
	})

	t.Run("Drain", func(t *testing.T) {
		toasts := NewToasts(nil)
		toasts.Push(LevelInfo, "x")
		if got := toasts.Drain(); len(got) != 1 {
			t.Errorf("expected 1 drained toast, got %d", len(got))
		}
		if _, ok := toasts.Last(); ok {
			t.Error("stack should be empty")
		}
	})

	t.Run("Icons", func(t *testing.T) {
		tc := map[Level]string{LevelInfo: "i", LevelSuccess: "✓", LevelWarning: "!", LevelError: "✗"}
		for level, icon := range tc {
			if level.Icon() != icon {
				t.Errorf("%s.Icon() = %q, want %q", level, level.Icon(), icon)
			}
		}
	})
}
