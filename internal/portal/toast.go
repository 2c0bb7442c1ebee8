package portal

import (
	"slices"
	"time"

	"github.com/desertthunder/portal/internal/shared"
)

// ToastLifetime is how long a notification stays visible unless dismissed.
const ToastLifetime = 5 * time.Second

// Level is the severity of a toast.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Icon returns a one-character glyph for the level.
func (l Level) Icon() string {
	switch l {
	case LevelSuccess:
		return "✓"
	case LevelWarning:
		return "!"
	case LevelError:
		return "✗"
	default:
		return "i"
	}
}

// Toast is one transient notification.
type Toast struct {
	ID        string
	Level     Level
	Message   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Toasts is a stack of notifications, each with its own expiry.
type Toasts struct {
	items []Toast
	now   func() time.Time
}

// NewToasts creates an empty stack using now as its clock (time.Now when nil).
func NewToasts(now func() time.Time) *Toasts {
	if now == nil {
		now = time.Now
	}
	return &Toasts{now: now}
}

// Push adds a notification and returns it. Each toast gets a fresh id.
func (t *Toasts) Push(level Level, msg string) Toast {
	created := t.now()
	toast := Toast{
		ID:        shared.GenerateID(),
		Level:     level,
		Message:   msg,
		CreatedAt: created,
		ExpiresAt: created.Add(ToastLifetime),
	}
	t.items = append(t.items, toast)
	return toast
}

// Dismiss removes the toast with id. It reports whether one was removed; a toast that
// already expired or was dismissed is a no-op.
func (t *Toasts) Dismiss(id string) bool {
	before := len(t.items)
	t.items = slices.DeleteFunc(t.items, func(x Toast) bool { return x.ID == id })
	return len(t.items) != before
}

// Expire drops every toast whose lifetime has passed and returns how many were removed.
func (t *Toasts) Expire() int {
	now := t.now()
	before := len(t.items)
	t.items = slices.DeleteFunc(t.items, func(x Toast) bool { return !now.Before(x.ExpiresAt) })
	return before - len(t.items)
}

// Active returns the visible toasts, oldest first, after expiring stale ones.
func (t *Toasts) Active() []Toast {
	t.Expire()
	return slices.Clone(t.items)
}

// Drain returns every toast and empties the stack.
func (t *Toasts) Drain() []Toast {
	items := t.items
	t.items = nil
	return items
}

// Last returns the newest toast.
func (t *Toasts) Last() (Toast, bool) {
	if len(t.items) == 0 {
		return Toast{}, false
	}
	return t.items[len(t.items)-1], true
}

// Len returns the number of toasts, including expired ones not yet removed.
func (t *Toasts) Len() int {
	return len(t.items)
}
