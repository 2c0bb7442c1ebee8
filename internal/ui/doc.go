// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI is a thin binding over [portal.Portal], which owns all client state. It has four sections:
//  1. [PlaybooksSection] : select playbooks and targets (nodes or groups), then execute
//  2. [NodesSection] : manage nodes and ping them
//  3. [GroupsSection] : manage groups and their members
//  4. [ExecutionsSection] : browse execution history and open run output
//
// Switching to a section reloads the collections it shows.
//
// Controller tasks run as commands; each returns a completion message that the update loop applies,
// so the controller is only ever touched from the bubbletea goroutine. Push channel events arrive
// through a command that blocks on the event stream and is re-armed after every event.
//
// Node and group forms use bubbles/textinput, execution output is shown in a bubbles/viewport,
// and the context menu (right click or m) is drawn over the section with charmbracelet/x/ansi.
// Toasts stack above the help footer and expire independently.
package ui
