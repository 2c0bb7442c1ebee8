package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/portal/internal/portal"
)

// View renders the active section, then layers modals, the context menu and toasts on top.
func (m *Model) View() string {
	var body string
	switch {
	case m.detailOpen():
		body = m.renderDetail()
	default:
		body = m.renderSection()
	}

	screen := lipgloss.JoinVertical(lipgloss.Left, m.renderTabs(), "", body)

	if menu, ok := m.portal.ContextMenu(); ok {
		screen = placeOverlay(menu.X, menu.Y, m.renderMenu(menu), screen)
	}

	if modal := m.renderModal(); modal != "" {
		screen = m.center(modal)
	}

	footer := []string{}
	if toasts := m.renderToasts(); toasts != "" {
		footer = append(footer, toasts)
	}
	footer = append(footer, m.renderHelp())

	return lipgloss.JoinVertical(lipgloss.Left, screen, "", strings.Join(footer, "\n"))
}

func (m *Model) center(s string) string {
	if m.width == 0 || m.height == 0 {
		return s
	}
	return lipgloss.Place(m.width, max(m.height-4, lipgloss.Height(s)), lipgloss.Center, lipgloss.Center, s)
}

func (m *Model) renderTabs() string {
	tabs := make([]string, len(sectionTitles))
	for i, title := range sectionTitles {
		if Section(i) == m.section {
			tabs[i] = styles.active.Render(title)
		} else {
			tabs[i] = styles.tab.Render(title)
		}
	}
	bar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	if m.pending > 0 {
		bar += " " + m.spinner.View()
	}
	return bar
}

func (m *Model) renderSection() string {
	switch m.section {
	case PlaybooksSection:
		return m.renderPlaybooks()
	case NodesSection:
		return m.renderNodes()
	case GroupsSection:
		return m.renderGroups()
	default:
		return m.renderExecutions()
	}
}

func renderEmpty(e *portal.EmptyState) string {
	return styles.title.Render(e.Title) + "\n" + styles.help.Render(e.Hint)
}

func row(selected bool, line string) string {
	if selected {
		return styles.cursor.Render("> ") + line
	}
	return "  " + line
}

func (m *Model) renderPlaybooks() string {
	var left strings.Builder
	playbooks := m.portal.PlaybookList()
	if playbooks.IsEmpty() {
		left.WriteString(renderEmpty(playbooks.Empty))
	}
	for i, card := range playbooks.Items {
		line := fmt.Sprintf("%s %-24s %9s  %s", checkbox(card.Selected), card.Name, card.Size, styles.muted.Render(card.Modified))
		left.WriteString(row(m.pane == playbookPane && i == m.playbookCursor.index, line) + "\n")
	}

	var right strings.Builder
	tt := m.portal.TargetType()
	right.WriteString(fmt.Sprintf("Targets: %s / %s\n",
		targetTab(string(tt.Other()), false), targetTab(string(tt), true)))
	targets := m.portal.TargetList()
	if targets.IsEmpty() {
		right.WriteString(renderEmpty(targets.Empty))
	}
	for i, item := range targets.Items {
		line := fmt.Sprintf("%s %-16s %s", checkbox(item.Selected), item.Name, styles.muted.Render(item.Details))
		right.WriteString(row(m.pane == targetPane && i == m.targetCursor.index, line) + "\n")
	}

	columns := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(max(m.width/2, 50)).Render(left.String()),
		right.String(),
	)

	button := m.portal.ExecuteButton()
	label := styles.muted.Render("[ " + button.Label + " ]")
	if button.Enabled {
		label = styles.active.Render(button.Label)
	}
	return columns + "\n\n" + label
}

func targetTab(name string, active bool) string {
	if active {
		return styles.cursor.Render(name)
	}
	return styles.muted.Render(name)
}

func (m *Model) renderNodes() string {
	nodes := m.portal.NodeList()
	if nodes.IsEmpty() {
		return renderEmpty(nodes.Empty)
	}

	var b strings.Builder
	for i, card := range nodes.Items {
		mark := " "
		if card.Marked {
			mark = styles.selected.Render("●")
		}
		line := fmt.Sprintf("%s %-16s %-22s %-10s %-12s %s",
			mark, card.Name, card.Host, card.User, styles.status(card.Status), styles.muted.Render("groups: "+card.Groups))
		b.WriteString(row(i == m.nodeCursor.index, line) + "\n")
	}

	if i := m.nodeCursor.index; i < len(nodes.Items) && nodes.Items[i].Description != "" {
		b.WriteString("\n" + styles.help.Render(nodes.Items[i].Description))
	}
	return b.String()
}

func (m *Model) renderGroups() string {
	groups := m.portal.GroupList()
	if groups.IsEmpty() {
		return renderEmpty(groups.Empty)
	}

	var b strings.Builder
	for i, card := range groups.Items {
		line := fmt.Sprintf("%-16s %-10s %s", card.Name, fmt.Sprintf("%d nodes", card.NodeCount), styles.muted.Render(card.Members))
		b.WriteString(row(i == m.groupCursor.index, line) + "\n")
	}

	if i := m.groupCursor.index; i < len(groups.Items) && groups.Items[i].Description != "" {
		b.WriteString("\n" + styles.help.Render(groups.Items[i].Description))
	}
	return b.String()
}

func (m *Model) renderExecutions() string {
	executions := m.portal.ExecutionList()
	if executions.IsEmpty() {
		return renderEmpty(executions.Empty)
	}
	return m.executions.View()
}

// renderExecutionDetail formats an execution for the detail viewport.
func renderExecutionDetail(v portal.ExecutionDetailView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", styles.title.Render(v.Title))
	fmt.Fprintf(&b, "Status:    %s\n", styles.status(v.Status))
	fmt.Fprintf(&b, "Playbooks: %s\n", v.Playbooks)
	fmt.Fprintf(&b, "Started:   %s\n", v.Started)
	if v.Completed != "" {
		fmt.Fprintf(&b, "Completed: %s\n", v.Completed)
	}
	if v.Output != "" {
		fmt.Fprintf(&b, "\n%s\n%s\n", styles.ok.Render("Output"), v.Output)
	}
	if v.ErrorOutput != "" {
		fmt.Fprintf(&b, "\n%s\n%s\n", styles.err.Render("Errors"), v.ErrorOutput)
	}
	return b.String()
}

func (m *Model) renderDetail() string {
	title := "Execution"
	if pb, ok := m.portal.Playbook(); ok {
		title = pb.Name
	}
	scroll := fmt.Sprintf("%3.0f%%", m.detail.ScrollPercent()*100)
	header := styles.cursor.Render(title) + "  " + styles.muted.Render(scroll)
	return header + "\n\n" + m.detail.View()
}

func (m *Model) renderMenu(menu portal.ContextMenu) string {
	lines := make([]string, len(menu.Items))
	for i, item := range menu.Items {
		label := item.Label
		switch {
		case i == m.menuCursor.index:
			label = styles.active.UnsetPadding().Render(label)
		case item.Danger:
			label = styles.err.Render(label)
		}
		lines[i] = label
	}
	return styles.menu.Render(strings.Join(lines, "\n"))
}

// renderModal returns the open dialog, or "" when none is open. The confirmation sits above forms.
func (m *Model) renderModal() string {
	if c, ok := m.portal.Confirmation(); ok {
		body := styles.warn.Render(c.Message) + "\n\n" + styles.help.Render("y confirm • n cancel")
		return styles.modal.Render(body)
	}
	if modal, ok := m.portal.NodeModal(); ok && m.nodeForm != nil {
		return m.nodeForm.view(modal.Title())
	}
	if modal, ok := m.portal.GroupModal(); ok && m.groupForm != nil {
		return m.groupForm.view(modal.Title(), modal.Form.Members)
	}
	return ""
}

func (m *Model) renderToasts() string {
	active := m.portal.Toasts().Active()
	lines := make([]string, len(active))
	for i, t := range active {
		lines[i] = styles.toast(t)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderHelp() string {
	if m.help.ShowAll {
		return m.help.View(m.keys)
	}
	return m.help.ShortHelpView(m.keys.sectionHelp(m.section))
}
