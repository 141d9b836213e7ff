package models

import "time"

// GitContribution is a commit attributed to an internal user on a project.
// The pair (ProjectID, CommitHash) is unique; redelivered webhooks hit that
// constraint instead of creating a second row.
type GitContribution struct {
	ID            int64     `json:"id"`
	UserID        *int64    `json:"user_id"`
	ProjectID     int64     `json:"project_id"`
	TaskID        *int64    `json:"task_id,omitempty"`
	CommitHash    string    `json:"commit_hash"`
	Branch        string    `json:"branch"`
	CommitMessage string    `json:"commit_message"`
	Provider      Provider  `json:"provider"`
	CommitURL     string    `json:"commit_url,omitempty"`
	CommittedAt   time.Time `json:"committed_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// IngestStats aggregates the outcome of one webhook delivery. It is the
// response body for a successful push and the only observable side effect
// besides the rows themselves.
type IngestStats struct {
	Created           int `json:"created"`
	SkippedDuplicates int `json:"skipped_duplicates"`
	SkippedNoUser     int `json:"skipped_no_user"`
	SkippedNoReply    int `json:"skipped_no_reply"`
	TotalProcessed    int `json:"total_processed"`
}
