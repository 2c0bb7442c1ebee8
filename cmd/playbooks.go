package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/portal/internal/formatter"
	"github.com/desertthunder/portal/internal/shared"
	"github.com/urfave/cli/v3"
)

// PlaybooksList prints the playbooks available on the server.
func (r *Runner) PlaybooksList(ctx context.Context, cmd *cli.Command) error {
	playbooks, err := r.api.ListPlaybooks(ctx)
	if err != nil {
		return fmt.Errorf("failed to list playbooks: %w", err)
	}
	return writeList(r, cmd, playbooks, formatter.PlaybooksToCSV, formatter.PlaybooksToText)
}

// PlaybooksShow prints the YAML content of one playbook.
func (r *Runner) PlaybooksShow(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: playbook name", shared.ErrMissingArgument)
	}

	content, err := r.api.PlaybookContent(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to load playbook %s: %w", name, err)
	}

	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return r.writePlain("%s", content)
}
