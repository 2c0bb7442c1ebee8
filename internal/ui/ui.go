package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/portal/internal/models"
	"github.com/desertthunder/portal/internal/portal"
)

// Section is one of the four top-level screens.
type Section int

const (
	PlaybooksSection Section = iota
	NodesSection
	GroupsSection
	ExecutionsSection
)

var sectionTitles = []string{"1 Playbooks", "2 Nodes", "3 Groups", "4 Executions"}

// pane is the focused column of the playbooks section.
type pane int

const (
	playbookPane pane = iota
	targetPane
)

// listTop is the screen row of the first list item: the tab bar and a blank line precede it.
const listTop = 2

const defaultToastInterval = 250 * time.Millisecond

// Model represents the TUI application state. Controller state lives in [portal.Portal];
// the model only holds widget state (cursors, inputs, scroll positions).
type Model struct {
	ctx    context.Context
	portal *portal.Portal
	events <-chan models.Event

	section        Section
	pane           pane
	playbookCursor cursor
	targetCursor   cursor
	nodeCursor     cursor
	groupCursor    cursor
	menuCursor     cursor
	executions     list.Model
	detail         viewport.Model
	detailKey      string
	nodeForm       *nodeForm
	groupForm      *groupForm

	spinner       spinner.Model
	pending       int
	ticking       bool
	toastInterval time.Duration

	width  int
	height int
	help   help.Model
	keys   keyMap
}

// NewModel creates a TUI bound to p. Events, when non-nil, is the push channel stream.
func NewModel(ctx context.Context, p *portal.Portal, events <-chan models.Event) *Model {
	executions := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	executions.Title = "Execution History"
	executions.SetShowHelp(false)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.cursor

	return &Model{
		ctx:           ctx,
		portal:        p,
		events:        events,
		section:       PlaybooksSection,
		executions:    executions,
		detail:        viewport.New(0, 0),
		spinner:       s,
		toastInterval: defaultToastInterval,
		help:          help.New(),
		keys:          newKeyMap(),
	}
}

// Init loads every collection and starts listening for push events.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.run(m.portal.LoadInitialData()), waitForEvent(m.events))
}

// run turns a controller task into a command whose message is the task's completion.
func (m *Model) run(task portal.Task) tea.Cmd {
	if task == nil {
		return nil
	}
	m.pending++
	ctx := m.ctx
	cmd := func() tea.Msg { return completionMsg{done: task(ctx)} }
	if m.pending == 1 {
		return tea.Batch(cmd, m.spinner.Tick)
	}
	return cmd
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.executions.SetSize(msg.Width-2, max(msg.Height-listTop-4, 5))
		m.detail.Width = msg.Width - 4
		m.detail.Height = max(msg.Height-6, 5)

	case completionMsg:
		m.pending = max(m.pending-1, 0)
		for _, c := range m.portal.Apply(msg.done) {
			cmds = append(cmds, m.run(m.portal.Load(c)))
		}
		// Failures are already shown as toasts.
		m.portal.Err()

	case eventMsg:
		cmds = append(cmds, m.run(m.portal.HandleEvent(msg.event)), waitForEvent(m.events))

	case eventsClosedMsg:
		m.events = nil

	case toastTickMsg:
		m.ticking = false
		m.portal.Toasts().Expire()

	case spinner.TickMsg:
		if m.pending > 0 {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.MouseMsg:
		cmds = append(cmds, m.handleMouse(msg))

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKey(msg))

	default:
		if m.section == ExecutionsSection {
			var cmd tea.Cmd
			m.executions, cmd = m.executions.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	cmds = append(cmds, m.sync())
	return m, tea.Batch(cmds...)
}

// sync reconciles widget state with the controller after every message.
func (m *Model) sync() tea.Cmd {
	var cmds []tea.Cmd

	m.playbookCursor.clamp(len(m.portal.Playbooks()))
	m.targetCursor.clamp(len(m.portal.TargetList().Items))
	m.nodeCursor.clamp(len(m.portal.Nodes()))
	m.groupCursor.clamp(len(m.portal.Groups()))
	cmds = append(cmds, m.executions.SetItems(executionItems(m.portal.ExecutionList())))

	if modal, ok := m.portal.NodeModal(); ok {
		if m.nodeForm == nil {
			m.nodeForm = newNodeForm(modal.Form)
			cmds = append(cmds, m.nodeForm.inputs[0].Focus())
		}
	} else {
		m.nodeForm = nil
	}

	if modal, ok := m.portal.GroupModal(); ok {
		if m.groupForm == nil {
			m.groupForm = newGroupForm(modal.Form)
			cmds = append(cmds, m.groupForm.inputs[0].Focus())
		}
		m.groupForm.member.clamp(len(modal.Form.Members))
	} else {
		m.groupForm = nil
	}

	m.syncDetail()

	if !m.ticking && m.portal.Toasts().Len() > 0 {
		m.ticking = true
		cmds = append(cmds, toastTick(m.toastInterval))
	}
	return tea.Batch(cmds...)
}

// syncDetail loads the open execution or playbook into the viewport when it changes.
func (m *Model) syncDetail() {
	id, content := "", ""
	if e, ok := m.portal.ExecutionDetail(); ok {
		id, content = fmt.Sprintf("execution:%d:%s", e.ID, e.Status), renderExecutionDetail(portal.RenderExecutionDetail(*e))
	} else if pb, ok := m.portal.Playbook(); ok {
		id, content = "playbook:"+pb.Name, pb.Content
	}

	if id != m.detailKey {
		m.detailKey = id
		m.detail.SetContent(content)
		m.detail.GotoTop()
	}
}

func (m *Model) detailOpen() bool {
	return m.detailKey != ""
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return tea.Quit
	}

	if _, ok := m.portal.Confirmation(); ok {
		switch {
		case key.Matches(msg, m.keys.yes):
			return m.run(m.portal.Confirm())
		case key.Matches(msg, m.keys.no):
			m.portal.CancelConfirmation()
		}
		return nil
	}

	if menu, ok := m.portal.ContextMenu(); ok {
		return m.handleMenuKeys(msg, menu)
	}

	if _, ok := m.portal.NodeModal(); ok && m.nodeForm != nil {
		return m.handleNodeFormKeys(msg)
	}

	if modal, ok := m.portal.GroupModal(); ok && m.groupForm != nil {
		return m.handleGroupFormKeys(msg, modal)
	}

	if m.detailOpen() {
		if key.Matches(msg, m.keys.back, m.keys.quit) {
			m.portal.CloseExecution()
			m.portal.ClosePlaybook()
			return nil
		}
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return cmd
	}

	if m.section == ExecutionsSection && m.executions.SettingFilter() {
		var cmd tea.Cmd
		m.executions, cmd = m.executions.Update(msg)
		return cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return tea.Quit
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
		return nil
	case key.Matches(msg, m.keys.playbooks):
		return m.switchSection(PlaybooksSection)
	case key.Matches(msg, m.keys.nodes):
		return m.switchSection(NodesSection)
	case key.Matches(msg, m.keys.groups):
		return m.switchSection(GroupsSection)
	case key.Matches(msg, m.keys.executions):
		return m.switchSection(ExecutionsSection)
	case key.Matches(msg, m.keys.refresh):
		return m.run(m.portal.Refresh(sectionCollections(m.section)...))
	}

	switch m.section {
	case PlaybooksSection:
		return m.handlePlaybookKeys(msg)
	case NodesSection:
		return m.handleNodeKeys(msg)
	case GroupsSection:
		return m.handleGroupKeys(msg)
	default:
		return m.handleExecutionKeys(msg)
	}
}

// sectionCollections is what a section reloads when it is shown.
func sectionCollections(s Section) []portal.Collection {
	switch s {
	case PlaybooksSection:
		return []portal.Collection{portal.Playbooks, portal.Nodes, portal.Groups}
	case NodesSection:
		return []portal.Collection{portal.Nodes}
	case GroupsSection:
		return []portal.Collection{portal.Groups, portal.Nodes}
	default:
		return []portal.Collection{portal.Executions}
	}
}

// switchSection shows s and reloads its data.
func (m *Model) switchSection(s Section) tea.Cmd {
	m.section = s
	m.portal.CloseContextMenu()
	return m.run(m.portal.Refresh(sectionCollections(s)...))
}

func (m *Model) handlePlaybookKeys(msg tea.KeyMsg) tea.Cmd {
	playbooks := m.portal.Playbooks()
	targets := m.portal.TargetList()

	switch {
	case key.Matches(msg, m.keys.pane):
		if m.pane == playbookPane {
			m.pane = targetPane
		} else {
			m.pane = playbookPane
		}
	case key.Matches(msg, m.keys.up):
		if m.pane == playbookPane {
			m.playbookCursor.up()
		} else {
			m.targetCursor.up()
		}
	case key.Matches(msg, m.keys.down):
		if m.pane == playbookPane {
			m.playbookCursor.down(len(playbooks))
		} else {
			m.targetCursor.down(len(targets.Items))
		}
	case key.Matches(msg, m.keys.toggle):
		if m.pane == playbookPane && len(playbooks) > 0 {
			m.portal.TogglePlaybook(playbooks[m.playbookCursor.index].Name)
		} else if m.pane == targetPane && len(targets.Items) > 0 {
			m.portal.ToggleTarget(targets.Items[m.targetCursor.index].Target)
		}
	case key.Matches(msg, m.keys.targetType):
		m.portal.SetTargetType(m.portal.TargetType().Other())
		m.targetCursor = cursor{}
	case key.Matches(msg, m.keys.execute):
		return m.run(m.portal.Execute())
	case key.Matches(msg, m.keys.enter):
		if m.pane == playbookPane && len(playbooks) > 0 {
			return m.run(m.portal.OpenPlaybook(playbooks[m.playbookCursor.index].Name))
		}
	}
	return nil
}

func (m *Model) handleNodeKeys(msg tea.KeyMsg) tea.Cmd {
	nodes := m.portal.Nodes()

	switch {
	case key.Matches(msg, m.keys.up):
		m.nodeCursor.up()
	case key.Matches(msg, m.keys.down):
		m.nodeCursor.down(len(nodes))
	case key.Matches(msg, m.keys.add):
		m.portal.OpenCreateNodeModal()
	case key.Matches(msg, m.keys.ping):
		return m.run(m.portal.PingMarked())
	}

	if len(nodes) == 0 {
		return nil
	}
	n := nodes[m.nodeCursor.index]

	switch {
	case key.Matches(msg, m.keys.toggle):
		m.portal.ToggleNodeMark(n.ID)
	case key.Matches(msg, m.keys.edit):
		m.portal.OpenNodeModal(n.ID)
	case key.Matches(msg, m.keys.remove):
		m.portal.RequestDeleteNode(n.ID)
	case key.Matches(msg, m.keys.menu):
		m.openMenu(models.Target{Type: models.TargetNodes, ID: n.ID}, 2, listTop+m.nodeCursor.index+1)
	case key.Matches(msg, m.keys.enter):
		return m.run(m.portal.PingNodes([]int{n.ID}))
	}
	return nil
}

func (m *Model) handleGroupKeys(msg tea.KeyMsg) tea.Cmd {
	groups := m.portal.Groups()

	switch {
	case key.Matches(msg, m.keys.up):
		m.groupCursor.up()
	case key.Matches(msg, m.keys.down):
		m.groupCursor.down(len(groups))
	case key.Matches(msg, m.keys.add):
		m.portal.OpenCreateGroupModal()
	}

	if len(groups) == 0 {
		return nil
	}
	g := groups[m.groupCursor.index]

	switch {
	case key.Matches(msg, m.keys.edit, m.keys.enter):
		m.portal.OpenGroupModal(g.ID)
	case key.Matches(msg, m.keys.remove):
		m.portal.RequestDeleteGroup(g.ID)
	case key.Matches(msg, m.keys.menu):
		m.openMenu(models.Target{Type: models.TargetGroups, ID: g.ID}, 2, listTop+m.groupCursor.index+1)
	}
	return nil
}

func (m *Model) handleExecutionKeys(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.enter) {
		if item, ok := m.executions.SelectedItem().(executionItem); ok {
			return m.run(m.portal.OpenExecution(item.card.ID))
		}
		return nil
	}

	var cmd tea.Cmd
	m.executions, cmd = m.executions.Update(msg)
	return cmd
}

func (m *Model) handleNodeFormKeys(msg tea.KeyMsg) tea.Cmd {
	f := m.nodeForm
	switch {
	case key.Matches(msg, m.keys.back):
		m.portal.CloseNodeModal()
		return nil
	case key.Matches(msg, m.keys.pane), msg.Type == tea.KeyDown:
		return f.move(1)
	case key.Matches(msg, m.keys.prevField), msg.Type == tea.KeyUp:
		return f.move(-1)
	case key.Matches(msg, m.keys.save), msg.Type == tea.KeyEnter && f.last():
		m.portal.SetNodeForm(f.value())
		return m.run(m.portal.SaveNode())
	case msg.Type == tea.KeyEnter:
		return f.move(1)
	}

	cmd := f.update(msg)
	m.portal.SetNodeForm(f.value())
	return cmd
}

func (m *Model) handleGroupFormKeys(msg tea.KeyMsg, modal portal.GroupModal) tea.Cmd {
	f := m.groupForm
	members := modal.Form.Members

	switch {
	case key.Matches(msg, m.keys.back):
		m.portal.CloseGroupModal()
		return nil
	case key.Matches(msg, m.keys.pane):
		return f.move(1)
	case key.Matches(msg, m.keys.prevField):
		return f.move(-1)
	case key.Matches(msg, m.keys.save):
		m.portal.SetGroupFields(f.name(), f.description())
		return m.run(m.portal.SaveGroup())
	}

	if f.focus == groupFocusMembers {
		switch {
		case key.Matches(msg, m.keys.up):
			f.member.up()
		case key.Matches(msg, m.keys.down):
			f.member.down(len(members))
		case key.Matches(msg, m.keys.toggle), msg.Type == tea.KeyEnter:
			if len(members) > 0 {
				m.portal.ToggleGroupMember(members[f.member.index].NodeID)
			}
		}
		return nil
	}

	if msg.Type == tea.KeyEnter {
		return f.move(1)
	}
	cmd := f.update(msg)
	m.portal.SetGroupFields(f.name(), f.description())
	return cmd
}

func (m *Model) openMenu(target models.Target, x, y int) {
	m.portal.OpenContextMenu(target, x, y, portal.Viewport{Width: m.width, Height: m.height})
	m.menuCursor = cursor{}
}

func (m *Model) handleMenuKeys(msg tea.KeyMsg, menu portal.ContextMenu) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.back, m.keys.menu):
		m.portal.CloseContextMenu()
	case key.Matches(msg, m.keys.up):
		m.menuCursor.up()
	case key.Matches(msg, m.keys.down):
		m.menuCursor.down(len(menu.Items))
	case key.Matches(msg, m.keys.enter):
		return m.run(m.portal.ActivateMenuItem(menu.Items[m.menuCursor.index].Action))
	}
	return nil
}

// handleMouse opens the context menu on a right click over a node or group row, and
// activates or dismisses an open menu on a left click.
func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if msg.Action != tea.MouseActionPress {
		return nil
	}

	if menu, ok := m.portal.ContextMenu(); ok {
		if msg.Button == tea.MouseButtonLeft {
			row := msg.Y - menu.Y - 1
			inside := msg.X >= menu.X && msg.X < menu.X+menu.Width()
			if inside && row >= 0 && row < len(menu.Items) {
				return m.run(m.portal.ActivateMenuItem(menu.Items[row].Action))
			}
			m.portal.CloseContextMenu()
		}
		if msg.Button != tea.MouseButtonRight {
			return nil
		}
	}

	if msg.Button != tea.MouseButtonRight || m.detailOpen() {
		return nil
	}

	row := msg.Y - listTop
	switch m.section {
	case NodesSection:
		nodes := m.portal.Nodes()
		if row >= 0 && row < len(nodes) {
			m.nodeCursor.index = row
			m.openMenu(models.Target{Type: models.TargetNodes, ID: nodes[row].ID}, msg.X, msg.Y)
		}
	case GroupsSection:
		groups := m.portal.Groups()
		if row >= 0 && row < len(groups) {
			m.groupCursor.index = row
			m.openMenu(models.Target{Type: models.TargetGroups, ID: groups[row].ID}, msg.X, msg.Y)
		}
	}
	return nil
}
