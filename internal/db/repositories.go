package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	apperrors "github.com/devtrackhq/contrib-monitor/internal/errors"
	"github.com/devtrackhq/contrib-monitor/internal/models"
)

const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a Postgres unique-constraint error.
func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == uniqueViolation
	}
	return false
}

// GetRepositoryMappingByURL looks up an active mapping by its normalized URL.
func (s *PostgresStore) GetRepositoryMappingByURL(ctx context.Context, normalizedURL string) (*models.RepositoryMapping, error) {
	return s.getRepositoryMapping(ctx, `
		SELECT id, project_id, repository_url, repository_name, provider, is_active, created_at, updated_at
		FROM repositories
		WHERE repository_url = $1 AND is_active = TRUE
	`, normalizedURL)
}

// GetRepositoryMappingByName looks up an active mapping by repository name.
func (s *PostgresStore) GetRepositoryMappingByName(ctx context.Context, name string) (*models.RepositoryMapping, error) {
	return s.getRepositoryMapping(ctx, `
		SELECT id, project_id, repository_url, repository_name, provider, is_active, created_at, updated_at
		FROM repositories
		WHERE repository_name = $1 AND is_active = TRUE
	`, name)
}

func (s *PostgresStore) getRepositoryMapping(ctx context.Context, query, arg string) (*models.RepositoryMapping, error) {
	if arg == "" {
		return nil, nil
	}

	var m models.RepositoryMapping
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&m.ID,
		&m.ProjectID,
		&m.RepositoryURL,
		&m.RepositoryName,
		&m.Provider,
		&m.IsActive,
		&m.CreatedAt,
		&m.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get repository mapping: %w", err)
	}

	return &m, nil
}

// LinkRepository persists a repository -> project mapping. The URL must
// already be normalized by the caller.
func (s *PostgresStore) LinkRepository(ctx context.Context, mapping *models.RepositoryMapping) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO repositories (project_id, repository_url, repository_name, provider, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, TRUE, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`, mapping.ProjectID, mapping.RepositoryURL, mapping.RepositoryName, mapping.Provider).Scan(
		&mapping.ID, &mapping.CreatedAt, &mapping.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflictError(
				fmt.Sprintf("repository %s is already linked to a project", mapping.RepositoryURL), err)
		}
		return fmt.Errorf("failed to link repository: %w", err)
	}

	mapping.IsActive = true
	return nil
}

// ListProjectRepositories returns all active mappings for a project.
func (s *PostgresStore) ListProjectRepositories(ctx context.Context, projectID int64) ([]*models.RepositoryMapping, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, repository_url, repository_name, provider, is_active, created_at, updated_at
		FROM repositories
		WHERE project_id = $1 AND is_active = TRUE
		ORDER BY id
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query repository mappings: %w", err)
	}
	defer rows.Close()

	var mappings []*models.RepositoryMapping
	for rows.Next() {
		var m models.RepositoryMapping
		if err := rows.Scan(
			&m.ID,
			&m.ProjectID,
			&m.RepositoryURL,
			&m.RepositoryName,
			&m.Provider,
			&m.IsActive,
			&m.CreatedAt,
			&m.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan repository mapping: %w", err)
		}
		mappings = append(mappings, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating repository mappings: %w", err)
	}

	return mappings, nil
}

// UnlinkRepository removes a mapping by ID.
func (s *PostgresStore) UnlinkRepository(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM repositories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to unlink repository: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("repository mapping %d not found", id), nil)
	}

	return nil
}
