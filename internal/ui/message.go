package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/portal/internal/models"
	"github.com/desertthunder/portal/internal/portal"
)

var (
	_ tea.Msg = completionMsg{}
	_ tea.Msg = eventMsg{}
	_ tea.Msg = eventsClosedMsg{}
	_ tea.Msg = toastTickMsg{}
)

// completionMsg carries a finished task's completion back to the update loop.
type completionMsg struct {
	done portal.Completion
}

// eventMsg is one push channel event.
type eventMsg struct {
	event models.Event
}

// eventsClosedMsg reports that the push channel stopped.
type eventsClosedMsg struct{}

// toastTickMsg drives toast expiry.
type toastTickMsg time.Time

// waitForEvent blocks on the push channel and returns its next event.
func waitForEvent(events <-chan models.Event) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg{event: ev}
	}
}

func toastTick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return toastTickMsg(t) })
}
