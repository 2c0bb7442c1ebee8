// package repositories provides the sqlite persistence layer behind the sandbox API server.
package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/desertthunder/portal/internal/shared"
)

// Queryer is satisfied by both *sql.DB and *sql.Tx.
type Queryer interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// insertError maps sqlite constraint violations to [shared.ErrConflict].
func insertError(entity, name string, err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
		return fmt.Errorf("%w: %s %q", shared.ErrConflict, entity, name)
	}
	return err
}

// expectAffected returns [shared.ErrNotFound] when result touched no rows.
func expectAffected(result sql.Result, entity string, id int) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s %d", shared.ErrNotFound, entity, id)
	}
	return nil
}

// placeholders returns "?, ?, ?" for n parameters and the ids as query args.
func placeholders(ids []int) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", "), args
}

// withTx runs fn in a transaction, committing on success.
func withTx(db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// setMembers replaces the members of groupID with the ids that name existing nodes.
func setMembers(q Queryer, groupID int, nodeIDs []int) error {
	if _, err := q.Exec("DELETE FROM node_group_members WHERE group_id = ?", groupID); err != nil {
		return fmt.Errorf("failed to clear group members: %w", err)
	}

	for _, nodeID := range nodeIDs {
		_, err := q.Exec(`
			INSERT OR IGNORE INTO node_group_members (node_id, group_id)
			SELECT id, ? FROM nodes WHERE id = ?
		`, groupID, nodeID)
		if err != nil {
			return fmt.Errorf("failed to add node %d to group: %w", nodeID, err)
		}
	}
	return nil
}
