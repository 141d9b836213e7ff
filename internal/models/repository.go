package models

import "time"

// RepositoryMapping links a source repository to the project that owns its
// contributions. RepositoryURL is stored normalized (trimmed, lower-cased,
// no .git suffix, no trailing slash) so webhook lookups are exact matches.
type RepositoryMapping struct {
	ID             int64     `json:"id"`
	ProjectID      int64     `json:"project_id"`
	RepositoryURL  string    `json:"repository_url"`
	RepositoryName string    `json:"repository_name"`
	Provider       Provider  `json:"provider"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
