package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/portal/internal/models"
	"github.com/desertthunder/portal/internal/portal"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF5F87", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title    lipgloss.Style
	ok       lipgloss.Style
	err      lipgloss.Style
	warn     lipgloss.Style
	help     lipgloss.Style
	tab      lipgloss.Style
	active   lipgloss.Style
	cursor   lipgloss.Style
	muted    lipgloss.Style
	modal    lipgloss.Style
	menu     lipgloss.Style
	selected lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title:    NewBold(t).MarginBottom(1),
		ok:       NewBold(s),
		err:      NewBold(e),
		warn:     NewStyle(w),
		help:     NewEm(h),
		tab:      NewStyle(h).Padding(0, 1),
		active:   lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color(t)),
		cursor:   NewBold(t),
		muted:    NewStyle(h),
		modal:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color(t)).Padding(1, 2),
		menu:     lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color(h)).Padding(0, 1),
		selected: NewBold(s),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// status colors a node or execution status.
func (p *Palette) status(s string) string {
	switch s {
	case models.NodeReachable, models.ExecutionCompleted:
		return p.ok.Render(s)
	case models.NodeUnreachable, models.ExecutionFailed:
		return p.err.Render(s)
	case models.ExecutionRunning, models.ExecutionPending:
		return p.warn.Render(s)
	default:
		return p.muted.Render(s)
	}
}

// toast colors a notification by level.
func (p *Palette) toast(t portal.Toast) string {
	line := t.Level.Icon() + " " + t.Message
	switch t.Level {
	case portal.LevelSuccess:
		return p.ok.Render(line)
	case portal.LevelError:
		return p.err.Render(line)
	case portal.LevelWarning:
		return p.warn.Render(line)
	default:
		return p.cursor.Render(line)
	}
}
