package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/desertthunder/portal/internal/models"
	"github.com/desertthunder/portal/internal/shared"
)

// HistoryLimit caps how many executions [ExecutionRepository.List] returns.
const HistoryLimit = 50

const executionColumns = "id, playbooks, target_nodes, target_groups, status, started_at, completed_at, output, error_output"

// ExecutionRepository persists playbook runs. Playbook and target lists are stored as JSON arrays.
type ExecutionRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewExecutionRepository creates a new ExecutionRepository with the given database connection
func NewExecutionRepository(db *sql.DB) *ExecutionRepository {
	return &ExecutionRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Start records a new execution in the running state and returns its id.
func (r *ExecutionRepository) Start(playbooks []string, nodeIDs, groupIDs []int) (int, error) {
	if len(playbooks) == 0 {
		return 0, fmt.Errorf("%w: no playbooks", shared.ErrInvalidInput)
	}

	encoded := make([]string, 3)
	for i, v := range []any{playbooks, orEmpty(nodeIDs), orEmpty(groupIDs)} {
		data, err := json.Marshal(v)
		if err != nil {
			return 0, fmt.Errorf("failed to encode execution: %w", err)
		}
		encoded[i] = string(data)
	}

	query := `
		INSERT INTO executions (playbooks, target_nodes, target_groups, status, started_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query, encoded[0], encoded[1], encoded[2], models.ExecutionRunning, r.now())
	if err != nil {
		return 0, fmt.Errorf("failed to insert execution: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get execution id: %w", err)
	}
	return int(id), nil
}

// Finish sets the final status, completion time and output streams of execution id.
// An empty errorOutput is stored as NULL.
func (r *ExecutionRepository) Finish(id int, status, output, errorOutput string) error {
	var errOut any = errorOutput
	if errorOutput == "" {
		errOut = nil
	}

	query := `
		UPDATE executions
		SET status = ?, completed_at = ?, output = ?, error_output = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query, status, r.now(), output, errOut, id)
	if err != nil {
		return fmt.Errorf("failed to update execution: %w", err)
	}
	return expectAffected(result, "execution", id)
}

// Get retrieves an execution by id
func (r *ExecutionRepository) Get(id int) (*models.Execution, error) {
	e, err := scanExecution(r.db.QueryRow("SELECT "+executionColumns+" FROM executions WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: execution %d", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan execution: %w", err)
	}
	return &e, nil
}

// List retrieves the most recent executions, newest first, capped at [HistoryLimit]
func (r *ExecutionRepository) List() ([]models.Execution, error) {
	rows, err := r.db.Query("SELECT "+executionColumns+" FROM executions ORDER BY started_at DESC, id DESC LIMIT ?", HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}
	defer rows.Close()

	executions := []models.Execution{}
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}
		executions = append(executions, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return executions, nil
}

func scanExecution(s scanner) (models.Execution, error) {
	var (
		e                                 models.Execution
		playbooks, targetNodes            string
		targetGroups, output, errorOutput sql.NullString
		startedAt                         time.Time
		completedAt                       sql.NullTime
	)

	err := s.Scan(&e.ID, &playbooks, &targetNodes, &targetGroups, &e.Status, &startedAt, &completedAt, &output, &errorOutput)
	if err != nil {
		return models.Execution{}, err
	}

	if err := json.Unmarshal([]byte(playbooks), &e.Playbooks); err != nil {
		return models.Execution{}, fmt.Errorf("failed to decode playbooks: %w", err)
	}
	if err := json.Unmarshal([]byte(targetNodes), &e.TargetNodes); err != nil {
		return models.Execution{}, fmt.Errorf("failed to decode target nodes: %w", err)
	}
	if targetGroups.Valid && targetGroups.String != "" {
		if err := json.Unmarshal([]byte(targetGroups.String), &e.TargetGroups); err != nil {
			return models.Execution{}, fmt.Errorf("failed to decode target groups: %w", err)
		}
	}

	e.StartedAt = models.NewTimestamp(startedAt)
	if completedAt.Valid {
		ts := models.NewTimestamp(completedAt.Time)
		e.CompletedAt = &ts
	}
	e.Output = output.String
	e.ErrorOutput = errorOutput.String
	return e, nil
}
