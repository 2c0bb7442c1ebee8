package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/portal/internal/models"
	"github.com/desertthunder/portal/internal/repositories"
	"github.com/desertthunder/portal/internal/shared"
)

const defaultSSHPort = 22

// Sandbox serves the portal REST API from sqlite and a playbook directory.
type Sandbox struct {
	nodes      *repositories.NodeRepository
	groups     *repositories.GroupRepository
	executions *repositories.ExecutionRepository
	playbooks  *PlaybookStore
	executor   *Executor
	pinger     *Pinger
	hub        *Hub
	logger     *log.Logger

	// ctx bounds background runs; cancelled by Close.
	ctx    context.Context
	cancel context.CancelFunc
}

// SandboxOption configures a [Sandbox].
type SandboxOption func(*Sandbox)

// WithProber replaces the TCP prober used by POST /ping.
func WithProber(p Prober) SandboxOption {
	return func(s *Sandbox) { s.pinger.prober = p }
}

// WithRunDelay sets how long a simulated execution takes.
func WithRunDelay(d time.Duration) SandboxOption {
	return func(s *Sandbox) { s.executor.delay = d }
}

// WithHub replaces the push channel hub.
func WithHub(h *Hub) SandboxOption {
	return func(s *Sandbox) {
		s.hub = h
		s.executor.events = h
	}
}

// NewSandbox wires repositories over db and playbooks from dir.
func NewSandbox(db *sql.DB, dir string, logger *log.Logger, opts ...SandboxOption) *Sandbox {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Sandbox{
		nodes:      repositories.NewNodeRepository(db),
		groups:     repositories.NewGroupRepository(db),
		executions: repositories.NewExecutionRepository(db),
		playbooks:  NewPlaybookStore(dir),
		pinger:     NewPinger(TCPProber{}, 0, 0),
		hub:        NewHub(logger),
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
	s.executor = &Executor{
		nodes:      s.nodes,
		groups:     s.groups,
		executions: s.executions,
		playbooks:  s.playbooks,
		events:     s.hub,
		logger:     logger.With("component", "executor"),
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hub returns the push channel hub.
func (s *Sandbox) Hub() *Hub { return s.hub }

// Wait blocks until background executions finish.
func (s *Sandbox) Wait() { s.executor.Wait() }

// Close cancels running executions, waits for them and disconnects push clients.
func (s *Sandbox) Close() {
	s.cancel()
	s.executor.Wait()
	s.hub.Close()
}

// Register adds every API route and the Socket.IO endpoint to r.
func (s *Sandbox) Register(r *BasicRouter) {
	r.HandleFunc(http.MethodGet, "/api/playbooks", s.listPlaybooks)
	r.HandleFunc(http.MethodGet, "/api/playbooks/{name}", s.getPlaybook)

	r.HandleFunc(http.MethodGet, "/api/nodes", s.listNodes)
	r.HandleFunc(http.MethodPost, "/api/nodes", s.createNode)
	r.HandleFunc(http.MethodGet, "/api/nodes/{id}", s.getNode)
	r.HandleFunc(http.MethodPut, "/api/nodes/{id}", s.updateNode)
	r.HandleFunc(http.MethodDelete, "/api/nodes/{id}", s.deleteNode)

	r.HandleFunc(http.MethodGet, "/api/groups", s.listGroups)
	r.HandleFunc(http.MethodPost, "/api/groups", s.createGroup)
	r.HandleFunc(http.MethodGet, "/api/groups/{id}", s.getGroup)
	r.HandleFunc(http.MethodPut, "/api/groups/{id}", s.updateGroup)
	r.HandleFunc(http.MethodDelete, "/api/groups/{id}", s.deleteGroup)

	r.HandleFunc(http.MethodPost, "/api/execute", s.execute)
	r.HandleFunc(http.MethodPost, "/api/ping", s.ping)
	r.HandleFunc(http.MethodGet, "/api/executions", s.listExecutions)
	r.HandleFunc(http.MethodGet, "/api/executions/{id}", s.getExecution)

	r.Handler(s.hub)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.ErrorResponse{Error: msg})
}

// fail maps a repository error to a status code and writes it.
func (s *Sandbox) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, shared.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, shared.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Join(shared.ErrInvalidInput, err)
	}
	return nil
}

// pathID parses {id}. Anything that is not a positive integer cannot name a row.
func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	return id, err == nil && id > 0
}

func (s *Sandbox) listPlaybooks(w http.ResponseWriter, r *http.Request) {
	playbooks, err := s.playbooks.List()
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, playbooks)
}

func (s *Sandbox) getPlaybook(w http.ResponseWriter, r *http.Request) {
	content, err := s.playbooks.Content(r.PathValue("name"))
	if errors.Is(err, shared.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Playbook not found")
		return
	}
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.PlaybookContent{Content: content})
}

func (s *Sandbox) listNodes(w http.ResponseWriter, r *http.Request) {
	nodes, err := s.nodes.List()
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nodes)
}

func (s *Sandbox) getNode(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Node not found")
		return
	}
	n, err := s.nodes.Get(id)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Sandbox) createNode(w http.ResponseWriter, r *http.Request) {
	var in models.NodeInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if in.Port == 0 {
		in.Port = defaultSSHPort
	}

	id, err := s.nodes.Create(in)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.MessageResponse{Message: "Node created successfully", ID: id})
}

// nodePatch holds the fields a PUT may carry; absent fields keep their stored value.
type nodePatch struct {
	Name        *string `json:"name"`
	Hostname    *string `json:"hostname"`
	Username    *string `json:"username"`
	Port        *int    `json:"port"`
	Description *string `json:"description"`
}

func (p nodePatch) apply(n *models.Node) models.NodeInput {
	in := models.NodeInput{
		Name:        n.Name,
		Hostname:    n.Hostname,
		Username:    n.Username,
		Port:        n.Port,
		Description: n.Description,
	}
	if p.Name != nil {
		in.Name = *p.Name
	}
	if p.Hostname != nil {
		in.Hostname = *p.Hostname
	}
	if p.Username != nil {
		in.Username = *p.Username
	}
	if p.Port != nil {
		in.Port = *p.Port
	}
	if p.Description != nil {
		in.Description = *p.Description
	}
	return in
}

func (s *Sandbox) updateNode(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Node not found")
		return
	}

	var patch nodePatch
	if err := decode(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	existing, err := s.nodes.Get(id)
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := s.nodes.Update(id, patch.apply(existing)); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Node updated successfully"})
}

func (s *Sandbox) deleteNode(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Node not found")
		return
	}
	if err := s.nodes.Delete(id); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Node deleted successfully"})
}

func (s *Sandbox) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.groups.List()
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (s *Sandbox) getGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Group not found")
		return
	}
	g, err := s.groups.Get(id)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Sandbox) createGroup(w http.ResponseWriter, r *http.Request) {
	var in models.GroupInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	id, err := s.groups.Create(in)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.MessageResponse{Message: "Group created successfully", ID: id})
}

type groupPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	NodeIDs     []int   `json:"node_ids"`
}

func (s *Sandbox) updateGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Group not found")
		return
	}

	var patch groupPatch
	if err := decode(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	existing, err := s.groups.Get(id)
	if err != nil {
		s.fail(w, err)
		return
	}

	in := models.GroupInput{Name: existing.Name, Description: existing.Description, NodeIDs: patch.NodeIDs}
	if patch.Name != nil {
		in.Name = *patch.Name
	}
	if patch.Description != nil {
		in.Description = *patch.Description
	}

	if err := s.groups.Update(id, in); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Group updated successfully"})
}

func (s *Sandbox) deleteGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Group not found")
		return
	}
	if err := s.groups.Delete(id); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Group deleted successfully"})
}

func (s *Sandbox) execute(w http.ResponseWriter, r *http.Request) {
	var req models.ExecuteRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Playbooks) == 0 {
		writeError(w, http.StatusBadRequest, "No playbooks specified")
		return
	}
	if len(req.NodeIDs) == 0 && len(req.GroupIDs) == 0 {
		writeError(w, http.StatusBadRequest, "No targets specified")
		return
	}

	id, err := s.executions.Start(req.Playbooks, req.NodeIDs, req.GroupIDs)
	if err != nil {
		s.fail(w, err)
		return
	}

	s.executor.Run(s.ctx, id, req)
	writeJSON(w, http.StatusAccepted, models.MessageResponse{Message: "Execution started", ID: id})
}

func (s *Sandbox) ping(w http.ResponseWriter, r *http.Request) {
	var req models.PingRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.NodeIDs) == 0 {
		writeError(w, http.StatusBadRequest, "No nodes specified")
		return
	}

	nodes, err := s.nodes.FindByIDs(req.NodeIDs)
	if err != nil {
		s.fail(w, err)
		return
	}

	results := s.pinger.Ping(r.Context(), nodes)
	for _, n := range nodes {
		res, ok := results[strconv.Itoa(n.ID)]
		if !ok {
			continue
		}
		if err := s.nodes.SetStatus(n.ID, res.Status); err != nil {
			s.logger.Warn("failed to store node status", "id", n.ID, "error", err)
		}
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Sandbox) listExecutions(w http.ResponseWriter, r *http.Request) {
	executions, err := s.executions.List()
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, executions)
}

func (s *Sandbox) getExecution(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Execution not found")
		return
	}
	e, err := s.executions.Get(id)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}
