// package formatter renders portal data (nodes, groups, playbooks, executions) as CSV, Markdown, or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/portal/internal/models"
	"github.com/desertthunder/portal/internal/shared"
)

// Format is an output format for list and report commands.
type Format string

const (
	FormatText     Format = "text"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// ParseFormat validates s against the allowed formats. An empty string yields text.
func ParseFormat(s string, allowed ...Format) (Format, error) {
	if s == "" {
		return FormatText, nil
	}
	f := Format(strings.ToLower(s))
	if f == "md" {
		f = FormatMarkdown
	}
	for _, a := range allowed {
		if f == a {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: format %q", shared.ErrInvalidArgument, s)
}

func writeCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, record := range rows {
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// NodesToCSV converts nodes to CSV with columns: ID, Name, Hostname, Port, Username, Status, Groups, Description
func NodesToCSV(nodes []models.Node) ([]byte, error) {
	rows := make([][]string, 0, len(nodes))
	for _, n := range nodes {
		rows = append(rows, []string{
			strconv.Itoa(n.ID),
			n.Name,
			n.Hostname,
			strconv.Itoa(n.Port),
			n.Username,
			n.Status,
			strings.Join(groupNames(n.Groups), ";"),
			n.Description,
		})
	}
	return writeCSV([]string{"ID", "Name", "Hostname", "Port", "Username", "Status", "Groups", "Description"}, rows)
}

// GroupsToCSV converts groups to CSV with columns: ID, Name, Description, Nodes
func GroupsToCSV(groups []models.Group) ([]byte, error) {
	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, []string{strconv.Itoa(g.ID), g.Name, g.Description, strings.Join(nodeNames(g.Nodes), ";")})
	}
	return writeCSV([]string{"ID", "Name", "Description", "Nodes"}, rows)
}

// PlaybooksToCSV converts playbooks to CSV with columns: Name, Size, Modified
func PlaybooksToCSV(playbooks []models.Playbook) ([]byte, error) {
	rows := make([][]string, 0, len(playbooks))
	for _, pb := range playbooks {
		modified := ""
		if !pb.Modified.IsZero() {
			modified = pb.Modified.UTC().Format("2006-01-02T15:04:05Z")
		}
		rows = append(rows, []string{pb.Name, strconv.FormatInt(pb.Size, 10), modified})
	}
	return writeCSV([]string{"Name", "Size", "Modified"}, rows)
}

// ExecutionsToCSV converts execution history to CSV with columns: ID, Status, Playbooks, Started, Completed
func ExecutionsToCSV(executions []models.Execution) ([]byte, error) {
	rows := make([][]string, 0, len(executions))
	for _, e := range executions {
		completed := ""
		if e.Finished() {
			completed = shared.FormatDateTime(e.CompletedAt.Time)
		}
		rows = append(rows, []string{
			strconv.Itoa(e.ID),
			e.Status,
			strings.Join(e.Playbooks, ";"),
			shared.FormatDateTime(e.StartedAt.Time),
			completed,
		})
	}
	return writeCSV([]string{"ID", "Status", "Playbooks", "Started", "Completed"}, rows)
}

// NodesToText renders one line per node.
func NodesToText(nodes []models.Node) []byte {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Nodes: %d\n\n", len(nodes)))
	for _, n := range nodes {
		buf.WriteString(fmt.Sprintf("[%d] %s %s@%s (%s)\n", n.ID, n.Name, n.Username, n.Address(), n.Status))
		if len(n.Groups) > 0 {
			buf.WriteString(fmt.Sprintf("    groups: %s\n", strings.Join(groupNames(n.Groups), ", ")))
		}
	}
	return buf.Bytes()
}

// GroupsToText renders one line per group with its members.
func GroupsToText(groups []models.Group) []byte {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Groups: %d\n\n", len(groups)))
	for _, g := range groups {
		buf.WriteString(fmt.Sprintf("[%d] %s (%d nodes)\n", g.ID, g.Name, len(g.Nodes)))
		if g.Description != "" {
			buf.WriteString(fmt.Sprintf("    %s\n", g.Description))
		}
		if len(g.Nodes) > 0 {
			buf.WriteString(fmt.Sprintf("    members: %s\n", strings.Join(nodeNames(g.Nodes), ", ")))
		}
	}
	return buf.Bytes()
}

// PlaybooksToText renders one line per playbook with its size and modification date.
func PlaybooksToText(playbooks []models.Playbook) []byte {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Playbooks: %d\n\n", len(playbooks)))
	for _, pb := range playbooks {
		buf.WriteString(fmt.Sprintf("%s  %s  %s\n", pb.Name, shared.FormatFileSize(pb.Size), shared.FormatDate(pb.Modified.Time)))
	}
	return buf.Bytes()
}

// ExecutionsToText renders one line per execution.
func ExecutionsToText(executions []models.Execution) []byte {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Executions: %d\n\n", len(executions)))
	for _, e := range executions {
		buf.WriteString(fmt.Sprintf("#%d %-9s %s  %s\n", e.ID, e.Status, shared.FormatDateTime(e.StartedAt.Time), strings.Join(e.Playbooks, ", ")))
	}
	return buf.Bytes()
}

// ExecutionToText renders a single execution with its output streams.
func ExecutionToText(e *models.Execution) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Execution #%d\n", e.ID))
	buf.WriteString(fmt.Sprintf("Status: %s\n", e.Status))
	buf.WriteString(fmt.Sprintf("Playbooks: %s\n", strings.Join(e.Playbooks, ", ")))
	buf.WriteString(fmt.Sprintf("Started: %s\n", shared.FormatDateTime(e.StartedAt.Time)))
	if e.Finished() {
		buf.WriteString(fmt.Sprintf("Completed: %s\n", shared.FormatDateTime(e.CompletedAt.Time)))
	}

	if e.Output != "" {
		buf.WriteString("\nOutput:\n")
		buf.WriteString(e.Output)
		if !strings.HasSuffix(e.Output, "\n") {
			buf.WriteString("\n")
		}
	}
	if e.ErrorOutput != "" {
		buf.WriteString("\nErrors:\n")
		buf.WriteString(e.ErrorOutput)
		if !strings.HasSuffix(e.ErrorOutput, "\n") {
			buf.WriteString("\n")
		}
	}
	return buf.Bytes()
}

// ExecutionToMarkdown renders a single execution as a Markdown report with fenced output blocks.
func ExecutionToMarkdown(e *models.Execution) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# Execution #%d\n\n", e.ID))
	buf.WriteString(fmt.Sprintf("**Status**: %s\n", e.Status))
	buf.WriteString(fmt.Sprintf("**Started**: %s\n", shared.FormatDateTime(e.StartedAt.Time)))
	if e.Finished() {
		buf.WriteString(fmt.Sprintf("**Completed**: %s\n", shared.FormatDateTime(e.CompletedAt.Time)))
		buf.WriteString(fmt.Sprintf("**Duration**: %s\n", e.Duration()))
	}

	buf.WriteString("\n## Playbooks\n\n")
	for i, name := range e.Playbooks {
		buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, name))
	}

	if len(e.TargetNodes) > 0 || len(e.TargetGroups) > 0 {
		buf.WriteString("\n## Targets\n\n")
		if len(e.TargetNodes) > 0 {
			buf.WriteString(fmt.Sprintf("- nodes: %s\n", joinInts(e.TargetNodes)))
		}
		if len(e.TargetGroups) > 0 {
			buf.WriteString(fmt.Sprintf("- groups: %s\n", joinInts(e.TargetGroups)))
		}
	}

	if e.Output != "" {
		buf.WriteString("\n## Output\n\n```\n")
		buf.WriteString(strings.TrimRight(e.Output, "\n"))
		buf.WriteString("\n```\n")
	}
	if e.ErrorOutput != "" {
		buf.WriteString("\n## Errors\n\n```\n")
		buf.WriteString(strings.TrimRight(e.ErrorOutput, "\n"))
		buf.WriteString("\n```\n")
	}
	return buf.Bytes()
}

// WriteExecutionReport writes an execution report in format f.
//
// Defaults to execution_{id}.md or execution_{id}.txt as the filename.
func WriteExecutionReport(e *models.Execution, f Format, path string) (string, error) {
	var data []byte
	ext := "txt"
	switch f {
	case FormatMarkdown:
		data, ext = ExecutionToMarkdown(e), "md"
	case FormatText, "":
		data = ExecutionToText(e)
	default:
		return "", fmt.Errorf("%w: format %q", shared.ErrInvalidArgument, f)
	}

	if path == "" {
		path = fmt.Sprintf("execution_%d.%s", e.ID, ext)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

func groupNames(refs []models.GroupRef) []string {
	names := make([]string, 0, len(refs))
	for _, r := range refs {
		names = append(names, r.Name)
	}
	return names
}

func nodeNames(refs []models.NodeRef) []string {
	names := make([]string, 0, len(refs))
	for _, r := range refs {
		names = append(names, r.Name)
	}
	return names
}

func joinInts(ids []int) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.Itoa(id))
	}
	return strings.Join(parts, ", ")
}
