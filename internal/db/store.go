package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/devtrackhq/contrib-monitor/internal/models"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

type PostgresStore struct {
	db *sql.DB
}

// Store defines the interface for database operations. Lookup methods return
// (nil, nil) when no row matches; callers decide whether that is an error.
type Store interface {
	// Directory lookups
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetProject(ctx context.Context, id int64) (*models.Project, error)
	GetTask(ctx context.Context, id int64) (*models.Task, error)

	// Repository mapping operations
	GetRepositoryMappingByURL(ctx context.Context, normalizedURL string) (*models.RepositoryMapping, error)
	GetRepositoryMappingByName(ctx context.Context, name string) (*models.RepositoryMapping, error)
	LinkRepository(ctx context.Context, mapping *models.RepositoryMapping) error
	ListProjectRepositories(ctx context.Context, projectID int64) ([]*models.RepositoryMapping, error)
	UnlinkRepository(ctx context.Context, id int64) error

	// Contribution operations
	ContributionExists(ctx context.Context, projectID int64, commitHash string) (bool, error)
	SaveContributions(ctx context.Context, contributions []*models.GitContribution) (created, duplicates int, err error)
	GetContribution(ctx context.Context, id int64) (*models.GitContribution, error)
	ListProjectContributions(ctx context.Context, projectID int64, limit, offset int) ([]*models.GitContribution, int64, error)
	LinkContributionTask(ctx context.Context, id int64, taskID *int64) error

	Ping(ctx context.Context) error
}

func NewPostgresStore(connectionString string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Migrate() error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	if err := goose.Up(s.db, "internal/db/migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
