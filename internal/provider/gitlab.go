package provider

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "github.com/devtrackhq/contrib-monitor/internal/errors"
	"github.com/devtrackhq/contrib-monitor/internal/models"
)

type gitLabAdapter struct {
	logger *logrus.Logger
}

type gitLabPushPayload struct {
	Ref        string            `json:"ref"`
	Commits    []gitLabCommit    `json:"commits"`
	Project    *gitLabProject    `json:"project"`
	Repository *gitLabRepository `json:"repository"`
}

type gitLabProject struct {
	Name              string `json:"name"`
	PathWithNamespace string `json:"path_with_namespace"`
}

type gitLabRepository struct {
	GitHTTPURL string `json:"git_http_url"`
	URL        string `json:"url"`
}

type gitLabCommit struct {
	ID        string        `json:"id"`
	Message   string        `json:"message"`
	Timestamp string        `json:"timestamp"`
	URL       string        `json:"url"`
	Author    *gitSignature `json:"author"`
}

func (a *gitLabAdapter) Name() models.Provider {
	return models.ProviderGitLab
}

// Verify compares the X-Gitlab-Token header against the configured shared
// token. GitLab does not sign the body.
func (a *gitLabAdapter) Verify(_ []byte, credential, secret string) bool {
	return verifyToken(credential, secret)
}

func (a *gitLabAdapter) ParsePush(body []byte) (*Push, error) {
	var payload gitLabPushPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperrors.NewValidationError("invalid GitLab payload", err)
	}

	if payload.Ref == "" {
		return nil, apperrors.NewValidationError("GitLab payload is missing ref", nil)
	}
	if payload.Commits == nil {
		return nil, apperrors.NewValidationError("GitLab payload is missing commits", nil)
	}

	branch := extractBranchFromRef(payload.Ref)

	commits := make([]models.CommitInfo, 0, len(payload.Commits))
	for _, c := range payload.Commits {
		if strings.TrimSpace(c.ID) == "" {
			return nil, apperrors.NewValidationError("GitLab commit is missing its id", nil)
		}

		var name, email string
		if c.Author != nil {
			name, email = c.Author.Name, c.Author.Email
		}

		var timestamp time.Time
		if c.Timestamp == "" {
			timestamp = time.Now().UTC()
		} else {
			var ok bool
			timestamp, ok = parseTimestamp(c.Timestamp)
			if !ok {
				a.logger.Warnf("Could not parse timestamp %q from gitlab, using current time", c.Timestamp)
			}
		}

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
		push.RepositoryURL = firstNonEmpty(payload.Repository.GitHTTPURL, payload.Repository.URL)
	}
	if payload.Project != nil {
		push.RepositoryName = firstNonEmpty(payload.Project.PathWithNamespace, payload.Project.Name)
	}

	return push, nil
}

func (a *gitLabAdapter) CommitURL(repositoryURL, hash string) string {
	return repositoryURL + "/-/commit/" + hash
}
