package portal

import (
	"context"
	"slices"
	"strconv"

	"github.com/desertthunder/portal/internal/models"
)

// PingNodes checks connectivity of the given nodes. Each cached node named in the response has
// its status replaced in place; ids without a cached node are skipped. Lists are not reloaded.
func (p *Portal) PingNodes(ids []int) Task {
	return p.pingNodes(ids, false)
}

// pingNodes pings ids. With clearMarks the bulk-ping marks are dropped once the ping succeeds.
func (p *Portal) pingNodes(ids []int, clearMarks bool) Task {
	ids = slices.Clone(ids)
	return func(ctx context.Context) Completion {
		results, err := p.api.Ping(ctx, ids)
		return func(p *Portal) []Collection {
			if err != nil {
				p.fail(err, "Failed to ping nodes", "ids", ids)
				return nil
			}
			p.applyPing(results)
			if clearMarks {
				p.markedNodes = nil
			}
			p.succeed("Ping completed")
			return nil
		}
	}
}

func (p *Portal) applyPing(results models.PingResults) {
	for key, r := range results {
		id, err := strconv.Atoi(key)
		if err != nil {
			p.logger.Warn("skipping ping result with non-numeric id", "id", key)
			continue
		}
		for i := range p.nodes {
			if p.nodes[i].ID == id {
				p.nodes[i].Status = r.Status
				break
			}
		}
	}
}

// ToggleNodeMark flips whether node id is marked for a bulk ping.
func (p *Portal) ToggleNodeMark(id int) {
	if i := slices.Index(p.markedNodes, id); i >= 0 {
		p.markedNodes = slices.Delete(p.markedNodes, i, i+1)
		return
	}
	p.markedNodes = append(p.markedNodes, id)
}

// NodeMarked reports whether node id is marked.
func (p *Portal) NodeMarked(id int) bool {
	return slices.Contains(p.markedNodes, id)
}

// MarkedNodes returns the marked node ids in marking order.
func (p *Portal) MarkedNodes() []int {
	return slices.Clone(p.markedNodes)
}

// PingMarked pings every marked node, or warns when none are marked.
func (p *Portal) PingMarked() Task {
	if len(p.markedNodes) == 0 {
		return func(context.Context) Completion {
			return func(p *Portal) []Collection {
				p.warn("Please select nodes to ping")
				return nil
			}
		}
	}
	return p.pingNodes(p.markedNodes, true)
}
