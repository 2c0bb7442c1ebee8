package main

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/desertthunder/portal/internal/formatter"
	"github.com/desertthunder/portal/internal/models"
	"github.com/desertthunder/portal/internal/portal"
	"github.com/desertthunder/portal/internal/shared"
	"github.com/urfave/cli/v3"
)

func parseID(raw, what string) (int, error) {
	if raw == "" {
		return 0, fmt.Errorf("%w: %s id", shared.ErrMissingArgument, what)
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s id %q", shared.ErrInvalidArgument, what, raw)
	}
	return id, nil
}

// NodesList prints every node.
func (r *Runner) NodesList(ctx context.Context, cmd *cli.Command) error {
	nodes, err := r.api.ListNodes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list nodes: %w", err)
	}
	return writeList(r, cmd, nodes, formatter.NodesToCSV, formatter.NodesToText)
}

// nodeFormFromFlags overlays the flags that were set on f.
func nodeFormFromFlags(cmd *cli.Command, f portal.NodeForm) portal.NodeForm {
	if cmd.IsSet("name") {
		f.Name = cmd.String("name")
	}
	if cmd.IsSet("hostname") {
		f.Hostname = cmd.String("hostname")
	}
	if cmd.IsSet("username") {
		f.Username = cmd.String("username")
	}
	if cmd.IsSet("port") || f.Port == "" {
		f.Port = strconv.Itoa(cmd.Int("port"))
	}
	if cmd.IsSet("description") {
		f.Description = cmd.String("description")
	}
	return f
}

// NodesAdd creates a node through the same form flow as the TUI.
func (r *Runner) NodesAdd(ctx context.Context, cmd *cli.Command) error {
	p := r.newPortal()
	p.OpenCreateNodeModal()
	modal, _ := p.NodeModal()
	p.SetNodeForm(nodeFormFromFlags(cmd, modal.Form))

	err := p.Run(ctx, p.SaveNode())
	r.flushToasts(p)
	return err
}

// NodesEdit updates a node. Flags that are not set keep the node's current values.
func (r *Runner) NodesEdit(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd.StringArg("id"), "node")
	if err != nil {
		return err
	}

	p := r.newPortal()
	if err := p.Run(ctx, p.Load(portal.Nodes)); err != nil {
		return err
	}
	if !p.OpenNodeModal(id) {
		return fmt.Errorf("%w: node %d", shared.ErrNotFound, id)
	}
	modal, _ := p.NodeModal()
	p.SetNodeForm(nodeFormFromFlags(cmd, modal.Form))

	err = p.Run(ctx, p.SaveNode())
	r.flushToasts(p)
	return err
}

// NodesDelete removes a node after confirmation.
func (r *Runner) NodesDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd.StringArg("id"), "node")
	if err != nil {
		return err
	}
	if err := r.confirm(cmd, fmt.Sprintf("Delete node %d?", id)); err != nil {
		return err
	}

	p := r.newPortal()
	err = p.Run(ctx, p.DeleteNode(id))
	r.flushToasts(p)
	return err
}

// NodesPing checks connectivity of the named nodes, or of every node with --all.
func (r *Runner) NodesPing(ctx context.Context, cmd *cli.Command) error {
	nodes, err := r.api.ListNodes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list nodes: %w", err)
	}

	var ids []int
	if cmd.Bool("all") {
		for _, n := range nodes {
			ids = append(ids, n.ID)
		}
	} else {
		for _, raw := range cmd.Args().Slice() {
			id, err := parseID(raw, "node")
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return fmt.Errorf("%w: no nodes specified", shared.ErrMissingArgument)
	}

	r.logger.Debug("pinging nodes", "ids", ids)
	results, err := r.api.Ping(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to ping nodes: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(results, true)
	}

	r.writePlainHeader(fmt.Sprintf("Ping results: %d node(s)", len(results)))
	for _, id := range ids {
		res, ok := results[strconv.Itoa(id)]
		if !ok {
			r.writePlain("[%d] %s\n", id, "no result")
			continue
		}
		name := strconv.Itoa(id)
		if i := slices.IndexFunc(nodes, func(n models.Node) bool { return n.ID == id }); i >= 0 {
			name = nodes[i].Name
		}
		detail := res.Output
		if res.Error != "" {
			detail = res.Error
		}
		r.writePlain("[%d] %-16s %-12s %s\n", id, name, res.Status, detail)
	}
	return nil
}

// GroupsList prints every group with its members.
func (r *Runner) GroupsList(ctx context.Context, cmd *cli.Command) error {
	groups, err := r.api.ListGroups(ctx)
	if err != nil {
		return fmt.Errorf("failed to list groups: %w", err)
	}
	return writeList(r, cmd, groups, formatter.GroupsToCSV, formatter.GroupsToText)
}

// applyGroupFlags writes the set flags into the open group modal. --node replaces the member
// set; --clear-nodes empties it.
func applyGroupFlags(cmd *cli.Command, p *portal.Portal) error {
	modal, ok := p.GroupModal()
	if !ok {
		return nil
	}

	name, description := modal.Form.Name, modal.Form.Description
	if cmd.IsSet("name") {
		name = cmd.String("name")
	}
	if cmd.IsSet("description") {
		description = cmd.String("description")
	}
	p.SetGroupFields(name, description)

	if !cmd.IsSet("node") && !cmd.Bool("clear-nodes") {
		return nil
	}
	want := cmd.IntSlice("node")
	for _, id := range want {
		if !slices.ContainsFunc(modal.Form.Members, func(m portal.MemberOption) bool { return m.NodeID == id }) {
			return fmt.Errorf("%w: node %d", shared.ErrNotFound, id)
		}
	}
	for _, m := range modal.Form.Members {
		if m.Checked != slices.Contains(want, m.NodeID) {
			p.ToggleGroupMember(m.NodeID)
		}
	}
	return nil
}

// GroupsAdd creates a group through the same form flow as the TUI.
func (r *Runner) GroupsAdd(ctx context.Context, cmd *cli.Command) error {
	p := r.newPortal()
	if err := p.Run(ctx, p.Load(portal.Nodes)); err != nil {
		return err
	}
	p.OpenCreateGroupModal()
	if err := applyGroupFlags(cmd, p); err != nil {
		return err
	}

	err := p.Run(ctx, p.SaveGroup())
	r.flushToasts(p)
	return err
}

// GroupsEdit updates a group. Members are kept unless --node or --clear-nodes is given.
func (r *Runner) GroupsEdit(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd.StringArg("id"), "group")
	if err != nil {
		return err
	}

	p := r.newPortal()
	if err := p.Run(ctx, p.Refresh(portal.Nodes, portal.Groups)); err != nil {
		return err
	}
	if !p.OpenGroupModal(id) {
		return fmt.Errorf("%w: group %d", shared.ErrNotFound, id)
	}
	if err := applyGroupFlags(cmd, p); err != nil {
		return err
	}

	err = p.Run(ctx, p.SaveGroup())
	r.flushToasts(p)
	return err
}

// GroupsDelete removes a group after confirmation. Its nodes are kept.
func (r *Runner) GroupsDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd.StringArg("id"), "group")
	if err != nil {
		return err
	}
	if err := r.confirm(cmd, fmt.Sprintf("Delete group %d? Its nodes are kept.", id)); err != nil {
		return err
	}

	p := r.newPortal()
	err = p.Run(ctx, p.DeleteGroup(id))
	r.flushToasts(p)
	return err
}
