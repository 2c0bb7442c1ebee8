package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/portal/internal/portal"
)

var (
	_ list.Item = executionItem{}
)

// executionItem wraps [portal.ExecutionCard] to implement [list.Item].
type executionItem struct {
	card portal.ExecutionCard
}

func (i executionItem) FilterValue() string { return i.card.Playbooks }
func (i executionItem) Title() string {
	return fmt.Sprintf("%s • %s", i.card.Title, i.card.Status)
}
func (i executionItem) Description() string {
	desc := fmt.Sprintf("%s • started %s", i.card.Playbooks, i.card.Started)
	if i.card.Completed != "" {
		desc = fmt.Sprintf("%s • completed %s", desc, i.card.Completed)
	}
	return desc
}

func executionItems(l portal.List[portal.ExecutionCard]) []list.Item {
	items := make([]list.Item, len(l.Items))
	for i, card := range l.Items {
		items[i] = executionItem{card: card}
	}
	return items
}

// cursor is a row index clamped to a list length.
type cursor struct {
	index int
}

func (c *cursor) up() {
	if c.index > 0 {
		c.index--
	}
}

func (c *cursor) down(n int) {
	if c.index < n-1 {
		c.index++
	}
}

func (c *cursor) clamp(n int) {
	c.index = max(0, min(c.index, n-1))
}
