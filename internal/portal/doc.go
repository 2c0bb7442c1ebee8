// Package portal implements the client-side controller for the automation portal.
//
// A [Portal] owns all client state: the cached playbooks, nodes, groups and executions,
// the playbook and target selections, the node and group modals, pending delete
// confirmations, the context menu, and the toast stack. State changes only through
// its methods, and those methods must run on one owner goroutine (the Bubble Tea update
// loop or a CLI command).
//
// # Tasks
//
// Anything that talks to the server is returned as a [Task]. A task does its I/O on
// whatever goroutine runs it and hands back a [Completion], which the owner applies
// with [Portal.Apply]. A completion may ask for collections to be reloaded, and the
// owner turns each into another task with [Portal.Load].
//
// [Portal.Run] does the same synchronously and returns the first failure, which is
// what the CLI uses.
//
// # Rendering
//
// RenderPlaybooks, RenderNodes, RenderGroups, RenderNodeTargets, RenderGroupTargets and
// RenderExecutions are pure functions from a collection to a [List] view-model. An empty
// collection yields an [EmptyState] and no items.
package portal
