package db

import (
	"context"
	"database/sql"
	"fmt"

	apperrors "github.com/devtrackhq/contrib-monitor/internal/errors"
	"github.com/devtrackhq/contrib-monitor/internal/models"
)

// ContributionExists reports whether a contribution with the given
// (project, commit hash) pair is already persisted.
func (s *PostgresStore) ContributionExists(ctx context.Context, projectID int64, commitHash string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM git_contributions
			WHERE project_id = $1 AND commit_hash = $2
		)
	`, projectID, commitHash).Scan(&exists)

	if err != nil {
		return false, fmt.Errorf("failed to check contribution existence: %w", err)
	}

	return exists, nil
}

// SaveContributions inserts a staged batch inside one transaction; either
// the whole delivery becomes visible or none of it does. An insert whose
// (project_id, commit_hash) key already exists is counted as a duplicate
// rather than failing the batch: two concurrent deliveries of the same
// payload can both pass the existence check, and the unique constraint is
// the safety net. ON CONFLICT DO NOTHING turns the losing insert into a
// no-op instead of aborting the transaction.
func (s *PostgresStore) SaveContributions(ctx context.Context, contributions []*models.GitContribution) (created, duplicates int, err error) {
	if len(contributions) == 0 {
		return 0, 0, nil
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO git_contributions (
			user_id, project_id, task_id, commit_hash, branch,
			commit_message, provider, commit_url, committed_at, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, NOW()
		) ON CONFLICT (project_id, commit_hash) DO NOTHING
	`)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range contributions {
		result, err := stmt.ExecContext(ctx,
			c.UserID,
			c.ProjectID,
			c.TaskID,
			c.CommitHash,
			c.Branch,
			c.CommitMessage,
			c.Provider,
			c.CommitURL,
			c.CommittedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				duplicates++
				continue
			}
			return 0, 0, fmt.Errorf("failed to insert contribution %s: %w", c.CommitHash, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return 0, 0, fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 1 {
			created++
		} else {
			duplicates++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return created, duplicates, nil
}

// GetContribution retrieves a contribution by ID
func (s *PostgresStore) GetContribution(ctx context.Context, id int64) (*models.GitContribution, error) {
	var c models.GitContribution
	var userID, taskID sql.NullInt64
	var commitURL sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, project_id, task_id, commit_hash, branch,
			commit_message, provider, commit_url, committed_at, created_at
		FROM git_contributions
		WHERE id = $1
	`, id).Scan(
		&c.ID,
		&userID,
		&c.ProjectID,
		&taskID,
		&c.CommitHash,
		&c.Branch,
		&c.CommitMessage,
		&c.Provider,
		&commitURL,
		&c.CommittedAt,
		&c.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get contribution: %w", err)
	}

	if userID.Valid {
		c.UserID = &userID.Int64
	}
	if taskID.Valid {
		c.TaskID = &taskID.Int64
	}
	if commitURL.Valid {
		c.CommitURL = commitURL.String
	}

	return &c, nil
}

// ListProjectContributions returns a page of contributions for a project,
// newest first, along with the total count.
func (s *PostgresStore) ListProjectContributions(ctx context.Context, projectID int64, limit, offset int) ([]*models.GitContribution, int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM git_contributions WHERE project_id = $1`,
		projectID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count contributions: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, project_id, task_id, commit_hash, branch,
			commit_message, provider, commit_url, committed_at, created_at
		FROM git_contributions
		WHERE project_id = $1
		ORDER BY committed_at DESC
		LIMIT $2 OFFSET $3
	`, projectID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query contributions: %w", err)
	}
	defer rows.Close()

	var contributions []*models.GitContribution
	for rows.Next() {
		var c models.GitContribution
		var userID, taskID sql.NullInt64
		var commitURL sql.NullString
		if err := rows.Scan(
			&c.ID,
			&userID,
			&c.ProjectID,
			&taskID,
			&c.CommitHash,
			&c.Branch,
			&c.CommitMessage,
			&c.Provider,
			&commitURL,
			&c.CommittedAt,
			&c.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan contribution: %w", err)
		}
		if userID.Valid {
			c.UserID = &userID.Int64
		}
		if taskID.Valid {
			c.TaskID = &taskID.Int64
		}
		if commitURL.Valid {
			c.CommitURL = commitURL.String
		}
		contributions = append(contributions, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating contributions: %w", err)
	}

	return contributions, total, nil
}

// LinkContributionTask sets or clears the task reference on a contribution.
func (s *PostgresStore) LinkContributionTask(ctx context.Context, id int64, taskID *int64) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE git_contributions SET task_id = $1 WHERE id = $2`,
		taskID, id)
	if err != nil {
		return fmt.Errorf("failed to link contribution task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("contribution %d not found", id), nil)
	}

	return nil
}
