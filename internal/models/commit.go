package models

import "time"

// Provider identifies the source-control service a webhook came from.
type Provider string

const (
	ProviderGitHub    Provider = "github"
	ProviderGitLab    Provider = "gitlab"
	ProviderBitbucket Provider = "bitbucket"
)

// CommitInfo is the provider-agnostic commit record produced by payload
// normalization. It lives only for the duration of one ingestion run and is
// never persisted directly.
type CommitInfo struct {
	Hash        string    `json:"hash"`
	Message     string    `json:"message"`
	Branch      string    `json:"branch"`
	Timestamp   time.Time `json:"timestamp"`
	AuthorEmail string    `json:"author_email"`
	AuthorName  string    `json:"author_name"`
	URL         string    `json:"url,omitempty"`
}
