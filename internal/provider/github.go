package provider

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "github.com/devtrackhq/contrib-monitor/internal/errors"
	"github.com/devtrackhq/contrib-monitor/internal/models"
)

type gitHubAdapter struct {
	logger *logrus.Logger
}

type gitHubPushPayload struct {
	Ref        string            `json:"ref"`
	Commits    []gitHubCommit    `json:"commits"`
	Repository *gitHubRepository `json:"repository"`
}

type gitHubRepository struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	HTMLURL  string `json:"html_url"`
	CloneURL string `json:"clone_url"`
}

type gitHubCommit struct {
	ID        string        `json:"id"`
	Message   string        `json:"message"`
	Timestamp string        `json:"timestamp"`
	URL       string        `json:"url"`
	Author    *gitSignature `json:"author"`
	Committer *gitSignature `json:"committer"`
}

// gitSignature is the author/committer block shared by GitHub and GitLab
// commit objects.
type gitSignature struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Date  string `json:"date"`
}

func (a *gitHubAdapter) Name() models.Provider {
	return models.ProviderGitHub
}

// Verify checks the X-Hub-Signature-256 header, which GitHub sends as
// "sha256=" + hex(HMAC-SHA256(secret, raw body)).
func (a *gitHubAdapter) Verify(body []byte, credential, secret string) bool {
	digest, ok := strings.CutPrefix(credential, "sha256=")
	if !ok {
		return false
	}
	return verifyHMACSHA256(body, digest, secret)
}

func (a *gitHubAdapter) ParsePush(body []byte) (*Push, error) {
	var payload gitHubPushPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperrors.NewValidationError("invalid GitHub payload", err)
	}

	if payload.Ref == "" {
		return nil, apperrors.NewValidationError("GitHub payload is missing ref", nil)
	}
	if payload.Commits == nil {
		return nil, apperrors.NewValidationError("GitHub payload is missing commits", nil)
	}

	branch := extractBranchFromRef(payload.Ref)

	commits := make([]models.CommitInfo, 0, len(payload.Commits))
	for _, c := range payload.Commits {
		if strings.TrimSpace(c.ID) == "" {
			return nil, apperrors.NewValidationError("GitHub commit is missing its id", nil)
		}

		name, email := gitHubAuthor(c)
		timestamp := a.commitTimestamp(c)

		commits = append(commits, models.CommitInfo{
			Hash:        strings.TrimSpace(c.ID),
			Message:     c.Message,
			Branch:      branch,
			Timestamp:   timestamp,
			AuthorEmail: email,
			AuthorName:  name,
			URL:         c.URL,
		})
	}

	push := &Push{Commits: commits}
	if payload.Repository != nil {
		push.RepositoryURL = firstNonEmpty(payload.Repository.CloneURL, payload.Repository.HTMLURL)
		push.RepositoryName = firstNonEmpty(payload.Repository.FullName, payload.Repository.Name)
	}

	return push, nil
}

func (a *gitHubAdapter) CommitURL(repositoryURL, hash string) string {
	return repositoryURL + "/commit/" + hash
}

// gitHubAuthor prefers the author block, falling back to the committer.
func gitHubAuthor(c gitHubCommit) (name, email string) {
	if c.Author != nil && c.Author.Email != "" {
		return c.Author.Name, c.Author.Email
	}
	if c.Committer != nil {
		return c.Committer.Name, c.Committer.Email
	}
	if c.Author != nil {
		return c.Author.Name, ""
	}
	return "", ""
}

func (a *gitHubAdapter) commitTimestamp(c gitHubCommit) time.Time {
	raw := c.Timestamp
	if raw == "" && c.Author != nil {
		raw = c.Author.Date
	}
	if raw == "" && c.Committer != nil {
		raw = c.Committer.Date
	}
	if raw == "" {
		return time.Now().UTC()
	}

	ts, ok := parseTimestamp(raw)
	if !ok {
		a.logger.Warnf("Could not parse timestamp %q from github, using current time", raw)
	}
	return ts
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
