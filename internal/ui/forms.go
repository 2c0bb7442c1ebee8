package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/portal/internal/portal"
)

func newInput(placeholder, value string, limit int) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	in.Prompt = ""
	in.SetValue(value)
	return in
}

// focusInput focuses inputs[i] and blurs the rest.
func focusInput(inputs []textinput.Model, i int) tea.Cmd {
	var cmd tea.Cmd
	for j := range inputs {
		if j == i {
			cmd = inputs[j].Focus()
		} else {
			inputs[j].Blur()
		}
	}
	return cmd
}

var nodeFieldLabels = []string{"Name", "Hostname", "Username", "Port", "Description"}

// nodeForm edits the fields of the controller's node modal.
type nodeForm struct {
	inputs []textinput.Model
	focus  int
}

func newNodeForm(f portal.NodeForm) *nodeForm {
	form := &nodeForm{inputs: []textinput.Model{
		newInput("web-1", f.Name, 64),
		newInput("10.0.0.1", f.Hostname, 255),
		newInput("root", f.Username, 64),
		newInput("22", f.Port, 5),
		newInput("optional", f.Description, 255),
	}}
	focusInput(form.inputs, 0)
	return form
}

func (f *nodeForm) value() portal.NodeForm {
	return portal.NodeForm{
		Name:        f.inputs[0].Value(),
		Hostname:    f.inputs[1].Value(),
		Username:    f.inputs[2].Value(),
		Port:        f.inputs[3].Value(),
		Description: f.inputs[4].Value(),
	}
}

func (f *nodeForm) move(delta int) tea.Cmd {
	f.focus = (f.focus + delta + len(f.inputs)) % len(f.inputs)
	return focusInput(f.inputs, f.focus)
}

func (f *nodeForm) last() bool {
	return f.focus == len(f.inputs)-1
}

func (f *nodeForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f *nodeForm) view(title string) string {
	var b strings.Builder
	b.WriteString(styles.title.Render(title))
	b.WriteString("\n")
	for i, in := range f.inputs {
		label := nodeFieldLabels[i]
		if i == f.focus {
			label = styles.cursor.Render(label)
		}
		b.WriteString(label + "\n" + in.View() + "\n\n")
	}
	b.WriteString(styles.help.Render("tab next • ctrl+s save • esc cancel"))
	return styles.modal.Render(b.String())
}

// groupFocusMembers is the focus index of the member checklist, after the two text inputs.
const groupFocusMembers = 2

// groupForm edits the name and description of the controller's group modal. Member checks
// live on the controller and are toggled through it.
type groupForm struct {
	inputs []textinput.Model
	focus  int
	member cursor
}

func newGroupForm(f portal.GroupForm) *groupForm {
	form := &groupForm{inputs: []textinput.Model{
		newInput("webservers", f.Name, 64),
		newInput("optional", f.Description, 255),
	}}
	focusInput(form.inputs, 0)
	return form
}

func (f *groupForm) name() string        { return f.inputs[0].Value() }
func (f *groupForm) description() string { return f.inputs[1].Value() }

func (f *groupForm) move(delta int) tea.Cmd {
	f.focus = (f.focus + delta + groupFocusMembers + 1) % (groupFocusMembers + 1)
	if f.focus == groupFocusMembers {
		focusInput(f.inputs, -1)
		return nil
	}
	return focusInput(f.inputs, f.focus)
}

func (f *groupForm) update(msg tea.Msg) tea.Cmd {
	if f.focus >= groupFocusMembers {
		return nil
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f *groupForm) view(title string, members []portal.MemberOption) string {
	var b strings.Builder
	b.WriteString(styles.title.Render(title))
	b.WriteString("\n")
	for i, label := range []string{"Name", "Description"} {
		if i == f.focus {
			label = styles.cursor.Render(label)
		}
		b.WriteString(label + "\n" + f.inputs[i].View() + "\n\n")
	}

	label := "Nodes"
	if f.focus == groupFocusMembers {
		label = styles.cursor.Render(label)
	}
	b.WriteString(label + "\n")
	if len(members) == 0 {
		b.WriteString(styles.muted.Render("No nodes available") + "\n")
	}
	for i, m := range members {
		line := checkbox(m.Checked) + " " + m.Label
		if f.focus == groupFocusMembers && i == f.member.index {
			line = styles.cursor.Render("> ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n" + styles.help.Render("tab next • space toggle • ctrl+s save • esc cancel"))
	return styles.modal.Render(b.String())
}

func checkbox(checked bool) string {
	if checked {
		return styles.selected.Render("[x]")
	}
	return "[ ]"
}
