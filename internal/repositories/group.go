package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/portal/internal/models"
	"github.com/desertthunder/portal/internal/shared"
)

const groupColumns = "id, name, description, created_at"

// GroupRepository persists node groups and their memberships.
type GroupRepository struct {
	db *sql.DB
}

// NewGroupRepository creates a new GroupRepository with the given database connection
func NewGroupRepository(db *sql.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// Create inserts a group and its members in one transaction and returns the group id.
// Node ids that do not exist are ignored.
func (r *GroupRepository) Create(in models.GroupInput) (int, error) {
	if in.Name == "" {
		return 0, fmt.Errorf("%w: name is required", shared.ErrInvalidInput)
	}

	var id int
	err := withTx(r.db, func(tx *sql.Tx) error {
		result, err := tx.Exec(
			"INSERT INTO node_groups (name, description, created_at) VALUES (?, ?, ?)",
			in.Name, in.Description, time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert group: %w", insertError("group", in.Name, err))
		}

		lastID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get group id: %w", err)
		}
		id = int(lastID)

		return setMembers(tx, id, in.NodeIDs)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Get retrieves a group by id with its members
func (r *GroupRepository) Get(id int) (*models.Group, error) {
	row := r.db.QueryRow("SELECT "+groupColumns+" FROM node_groups WHERE id = ?", id)

	g, err := scanGroup(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: group %d", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan group: %w", err)
	}

	members, err := r.members()
	if err != nil {
		return nil, err
	}
	g.Nodes = orEmpty(members[g.ID])
	return &g, nil
}

// Update overwrites the group's name and description. When in.NodeIDs is non-nil the
// membership is replaced as well; nil leaves members untouched.
func (r *GroupRepository) Update(id int, in models.GroupInput) error {
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", shared.ErrInvalidInput)
	}

	return withTx(r.db, func(tx *sql.Tx) error {
		result, err := tx.Exec("UPDATE node_groups SET name = ?, description = ? WHERE id = ?", in.Name, in.Description, id)
		if err != nil {
			return fmt.Errorf("failed to update group: %w", insertError("group", in.Name, err))
		}
		if err := expectAffected(result, "group", id); err != nil {
			return err
		}

		if in.NodeIDs == nil {
			return nil
		}
		return setMembers(tx, id, in.NodeIDs)
	})
}

// Delete removes group id. Member nodes are kept.
func (r *GroupRepository) Delete(id int) error {
	result, err := r.db.Exec("DELETE FROM node_groups WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	return expectAffected(result, "group", id)
}

// List retrieves every group ordered by id, each with its members
func (r *GroupRepository) List() ([]models.Group, error) {
	return r.query("SELECT " + groupColumns + " FROM node_groups ORDER BY id ASC")
}

// FindByIDs retrieves the groups among ids that exist, ordered by id. Unknown ids are skipped.
func (r *GroupRepository) FindByIDs(ids []int) ([]models.Group, error) {
	if len(ids) == 0 {
		return []models.Group{}, nil
	}
	marks, args := placeholders(ids)
	return r.query("SELECT "+groupColumns+" FROM node_groups WHERE id IN ("+marks+") ORDER BY id ASC", args...)
}

func (r *GroupRepository) query(query string, args ...any) ([]models.Group, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer rows.Close()

	groups := []models.Group{}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	rows.Close()

	members, err := r.members()
	if err != nil {
		return nil, err
	}
	for i := range groups {
		groups[i].Nodes = orEmpty(members[groups[i].ID])
	}
	return groups, nil
}

// members maps group ids to their member nodes.
func (r *GroupRepository) members() (map[int][]models.NodeRef, error) {
	rows, err := r.db.Query(`
		SELECT m.group_id, n.id, n.name
		FROM node_group_members m
		JOIN nodes n ON n.id = m.node_id
		ORDER BY n.id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	members := map[int][]models.NodeRef{}
	for rows.Next() {
		var groupID int
		var ref models.NodeRef
		if err := rows.Scan(&groupID, &ref.ID, &ref.Name); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members[groupID] = append(members[groupID], ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return members, nil
}

func scanGroup(s scanner) (models.Group, error) {
	var (
		g         models.Group
		createdAt time.Time
	)
	if err := s.Scan(&g.ID, &g.Name, &g.Description, &createdAt); err != nil {
		return models.Group{}, err
	}
	g.CreatedAt = models.NewTimestamp(createdAt)
	return g, nil
}
