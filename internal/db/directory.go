package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/devtrackhq/contrib-monitor/internal/models"
)

// GetUserByEmail looks up an active user by email, case-insensitively.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, nil
	}

	var u models.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, full_name, is_active, created_at
		FROM users
		WHERE LOWER(email) = LOWER($1) AND is_active = TRUE
	`, email).Scan(&u.ID, &u.Email, &u.FullName, &u.IsActive, &u.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &u, nil
}

// GetProject retrieves a project by ID
func (s *PostgresStore) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	var p models.Project
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, is_active, created_at
		FROM projects
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.IsActive, &p.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return &p, nil
}

// GetTask retrieves a task by ID
func (s *PostgresStore) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	var t models.Task
	err := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, title, created_at
		FROM tasks
		WHERE id = $1
	`, id).Scan(&t.ID, &t.ProjectID, &t.Title, &t.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return &t, nil
}
