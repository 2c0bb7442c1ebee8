package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/portal/internal/models"
)

// PortalService is the typed client for the portal REST API.
type PortalService struct {
	api *APIService
}

// NewPortalService wraps api with typed endpoint methods.
func NewPortalService(api *APIService) *PortalService {
	return &PortalService{api: api}
}

// ListPlaybooks calls GET /playbooks.
func (p *PortalService) ListPlaybooks(ctx context.Context) ([]models.Playbook, error) {
	var playbooks []models.Playbook
	if err := p.api.call(ctx, http.MethodGet, "/playbooks", nil, &playbooks); err != nil {
		return nil, err
	}
	return playbooks, nil
}

// PlaybookContent calls GET /playbooks/{name} and returns the file body.
func (p *PortalService) PlaybookContent(ctx context.Context, name string) (string, error) {
	var resp models.PlaybookContent
	if err := p.api.call(ctx, http.MethodGet, "/playbooks/"+url.PathEscape(name), nil, &resp); err != nil {
		return "", err
	}
	return resp.Content, nil
}

// ListNodes calls GET /nodes.
func (p *PortalService) ListNodes(ctx context.Context) ([]models.Node, error) {
	var nodes []models.Node
	if err := p.api.call(ctx, http.MethodGet, "/nodes", nil, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// CreateNode calls POST /nodes and returns the new node's id.
func (p *PortalService) CreateNode(ctx context.Context, in models.NodeInput) (int, error) {
	var resp models.MessageResponse
	if err := p.api.call(ctx, http.MethodPost, "/nodes", in, &resp); err != nil {
		return 0, err
	}
	return resp.ID, nil
}

// UpdateNode calls PUT /nodes/{id}.
func (p *PortalService) UpdateNode(ctx context.Context, id int, in models.NodeInput) error {
	return p.api.call(ctx, http.MethodPut, fmt.Sprintf("/nodes/%d", id), in, nil)
}

// DeleteNode calls DELETE /nodes/{id}.
func (p *PortalService) DeleteNode(ctx context.Context, id int) error {
	return p.api.call(ctx, http.MethodDelete, fmt.Sprintf("/nodes/%d", id), nil, nil)
}

// ListGroups calls GET /groups.
func (p *PortalService) ListGroups(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	if err := p.api.call(ctx, http.MethodGet, "/groups", nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// CreateGroup calls POST /groups and returns the new group's id.
func (p *PortalService) CreateGroup(ctx context.Context, in models.GroupInput) (int, error) {
	var resp models.MessageResponse
	if err := p.api.call(ctx, http.MethodPost, "/groups", withNodeIDs(in), &resp); err != nil {
		return 0, err
	}
	return resp.ID, nil
}

// UpdateGroup calls PUT /groups/{id}.
func (p *PortalService) UpdateGroup(ctx context.Context, id int, in models.GroupInput) error {
	return p.api.call(ctx, http.MethodPut, fmt.Sprintf("/groups/%d", id), withNodeIDs(in), nil)
}

// DeleteGroup calls DELETE /groups/{id}.
func (p *PortalService) DeleteGroup(ctx context.Context, id int) error {
	return p.api.call(ctx, http.MethodDelete, fmt.Sprintf("/groups/%d", id), nil, nil)
}

// Execute calls POST /execute and returns the id of the started run, or 0 when the server
// does not report one. The run itself is asynchronous; completion arrives on the push channel.
func (p *PortalService) Execute(ctx context.Context, req models.ExecuteRequest) (int, error) {
	if req.NodeIDs == nil {
		req.NodeIDs = []int{}
	}
	if req.GroupIDs == nil {
		req.GroupIDs = []int{}
	}
	var resp models.MessageResponse
	if err := p.api.call(ctx, http.MethodPost, "/execute", req, &resp); err != nil {
		return 0, err
	}
	return resp.ID, nil
}

// Ping calls POST /ping for the given node ids.
func (p *PortalService) Ping(ctx context.Context, nodeIDs []int) (models.PingResults, error) {
	results := models.PingResults{}
	if err := p.api.call(ctx, http.MethodPost, "/ping", models.PingRequest{NodeIDs: nodeIDs}, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// ListExecutions calls GET /executions.
func (p *PortalService) ListExecutions(ctx context.Context) ([]models.Execution, error) {
	var executions []models.Execution
	if err := p.api.call(ctx, http.MethodGet, "/executions", nil, &executions); err != nil {
		return nil, err
	}
	return executions, nil
}

// GetExecution calls GET /executions/{id}.
func (p *PortalService) GetExecution(ctx context.Context, id int) (*models.Execution, error) {
	var execution models.Execution
	if err := p.api.call(ctx, http.MethodGet, fmt.Sprintf("/executions/%d", id), nil, &execution); err != nil {
		return nil, err
	}
	return &execution, nil
}

// withNodeIDs makes an empty member list explicit so an update clears membership instead of leaving it.
func withNodeIDs(in models.GroupInput) models.GroupInput {
	if in.NodeIDs == nil {
		in.NodeIDs = []int{}
	}
	return in
}
