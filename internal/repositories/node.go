package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/portal/internal/models"
	"github.com/desertthunder/portal/internal/shared"
)

const nodeColumns = "id, name, hostname, username, port, description, status, created_at"

// NodeRepository persists managed hosts.
type NodeRepository struct {
	db *sql.DB
}

// NewNodeRepository creates a new NodeRepository with the given database connection
func NewNodeRepository(db *sql.DB) *NodeRepository {
	return &NodeRepository{db: db}
}

// Create inserts a node with status "unknown" and returns its id.
// A duplicate name yields [shared.ErrConflict].
func (r *NodeRepository) Create(in models.NodeInput) (int, error) {
	if err := validateNode(in); err != nil {
		return 0, err
	}

	query := `
		INSERT INTO nodes (name, hostname, username, port, description, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query, in.Name, in.Hostname, in.Username, in.Port, in.Description, models.NodeUnknown, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to insert node: %w", insertError("node", in.Name, err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get node id: %w", err)
	}
	return int(id), nil
}

// Get retrieves a node by id along with its group memberships
func (r *NodeRepository) Get(id int) (*models.Node, error) {
	row := r.db.QueryRow("SELECT "+nodeColumns+" FROM nodes WHERE id = ?", id)

	n, err := scanNode(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: node %d", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan node: %w", err)
	}

	groups, err := r.memberships()
	if err != nil {
		return nil, err
	}
	n.Groups = orEmpty(groups[n.ID])
	return &n, nil
}

// Update overwrites every editable field of node id
func (r *NodeRepository) Update(id int, in models.NodeInput) error {
	if err := validateNode(in); err != nil {
		return err
	}

	query := `
		UPDATE nodes
		SET name = ?, hostname = ?, username = ?, port = ?, description = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query, in.Name, in.Hostname, in.Username, in.Port, in.Description, id)
	if err != nil {
		return fmt.Errorf("failed to update node: %w", insertError("node", in.Name, err))
	}
	return expectAffected(result, "node", id)
}

// Delete removes node id. Group memberships cascade.
func (r *NodeRepository) Delete(id int) error {
	result, err := r.db.Exec("DELETE FROM nodes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete node: %w", err)
	}
	return expectAffected(result, "node", id)
}

// SetStatus records the outcome of a connectivity check
func (r *NodeRepository) SetStatus(id int, status string) error {
	result, err := r.db.Exec("UPDATE nodes SET status = ? WHERE id = ?", status, id)
	if err != nil {
		return fmt.Errorf("failed to update node status: %w", err)
	}
	return expectAffected(result, "node", id)
}

// List retrieves every node ordered by id, each with its groups
func (r *NodeRepository) List() ([]models.Node, error) {
	return r.query("SELECT " + nodeColumns + " FROM nodes ORDER BY id ASC")
}

// FindByIDs retrieves the nodes among ids that exist, ordered by id. Unknown ids are skipped.
func (r *NodeRepository) FindByIDs(ids []int) ([]models.Node, error) {
	if len(ids) == 0 {
		return []models.Node{}, nil
	}
	marks, args := placeholders(ids)
	return r.query("SELECT "+nodeColumns+" FROM nodes WHERE id IN ("+marks+") ORDER BY id ASC", args...)
}

func (r *NodeRepository) query(query string, args ...any) ([]models.Node, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	nodes := []models.Node{}
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		nodes = append(nodes, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	rows.Close()

	groups, err := r.memberships()
	if err != nil {
		return nil, err
	}
	for i := range nodes {
		nodes[i].Groups = orEmpty(groups[nodes[i].ID])
	}
	return nodes, nil
}

// memberships maps node ids to the groups they belong to.
func (r *NodeRepository) memberships() (map[int][]models.GroupRef, error) {
	rows, err := r.db.Query(`
		SELECT m.node_id, g.id, g.name
		FROM node_group_members m
		JOIN node_groups g ON g.id = m.group_id
		ORDER BY g.id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query memberships: %w", err)
	}
	defer rows.Close()

	groups := map[int][]models.GroupRef{}
	for rows.Next() {
		var nodeID int
		var ref models.GroupRef
		if err := rows.Scan(&nodeID, &ref.ID, &ref.Name); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		groups[nodeID] = append(groups[nodeID], ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return groups, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNode(s scanner) (models.Node, error) {
	var (
		n         models.Node
		createdAt time.Time
	)
	if err := s.Scan(&n.ID, &n.Name, &n.Hostname, &n.Username, &n.Port, &n.Description, &n.Status, &createdAt); err != nil {
		return models.Node{}, err
	}
	n.CreatedAt = models.NewTimestamp(createdAt)
	return n, nil
}

func validateNode(in models.NodeInput) error {
	switch {
	case in.Name == "":
		return fmt.Errorf("%w: name is required", shared.ErrInvalidInput)
	case in.Hostname == "":
		return fmt.Errorf("%w: hostname is required", shared.ErrInvalidInput)
	case in.Username == "":
		return fmt.Errorf("%w: username is required", shared.ErrInvalidInput)
	case in.Port < 1 || in.Port > 65535:
		return fmt.Errorf("%w: port %d out of range", shared.ErrInvalidInput, in.Port)
	}
	return nil
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
