package provider

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "github.com/devtrackhq/contrib-monitor/internal/errors"
	"github.com/devtrackhq/contrib-monitor/internal/models"
)

type bitbucketAdapter struct {
	logger *logrus.Logger
}

type bitbucketPushPayload struct {
	Push       *bitbucketPush       `json:"push"`
	Repository *bitbucketRepository `json:"repository"`
}

type bitbucketPush struct {
	Changes []bitbucketChange `json:"changes"`
}

type bitbucketChange struct {
	New *bitbucketChangeTarget `json:"new"`
}

type bitbucketChangeTarget struct {
	Name    string            `json:"name"`
	Commits []bitbucketCommit `json:"commits"`
}

type bitbucketCommit struct {
	Hash    string           `json:"hash"`
	Message string           `json:"message"`
	Date    string           `json:"date"`
	Author  *bitbucketAuthor `json:"author"`
}

type bitbucketAuthor struct {
	Raw  string         `json:"raw"`
	User *bitbucketUser `json:"user"`
}

type bitbucketUser struct {
	DisplayName  string `json:"display_name"`
	EmailAddress string `json:"email_address"`
	Email        string `json:"email"`
}

type bitbucketRepository struct {
	Name     string          `json:"name"`
	FullName string          `json:"full_name"`
	Links    *bitbucketLinks `json:"links"`
}

type bitbucketLinks struct {
	HTML *bitbucketLink `json:"html"`
}

type bitbucketLink struct {
	Href string `json:"href"`
}

func (a *bitbucketAdapter) Name() models.Provider {
	return models.ProviderBitbucket
}

// Verify checks the X-Hub-Signature header. Bitbucket sends the bare hex
// HMAC-SHA256 digest, without GitHub's "sha256=" prefix.
func (a *bitbucketAdapter) Verify(body []byte, credential, secret string) bool {
	return verifyHMACSHA256(body, credential, secret)
}

func (a *bitbucketAdapter) ParsePush(body []byte) (*Push, error) {
	var payload bitbucketPushPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperrors.NewValidationError("invalid Bitbucket payload", err)
	}

	push := &Push{}
	if payload.Repository != nil {
		push.RepositoryName = firstNonEmpty(payload.Repository.FullName, payload.Repository.Name)
		if payload.Repository.Links != nil && payload.Repository.Links.HTML != nil {
			push.RepositoryURL = payload.Repository.Links.HTML.Href
		}
	}

	branch := a.branch(payload)
	if branch == "" {
		// A push with no branch target (e.g. tag-only) carries nothing to
		// attribute; this is an empty delivery, not an error.
		a.logger.Warn("Could not extract branch from Bitbucket payload")
		return push, nil
	}

	for _, c := range a.commits(payload) {
		hash := strings.TrimSpace(c.Hash)
		if hash == "" {
			a.logger.Warn("Skipping commit with missing hash in Bitbucket payload")
			continue
		}

		name, email := bitbucketAuthorInfo(c.Author)

		var timestamp time.Time
		if c.Date == "" {
			timestamp = time.Now().UTC()
		} else {
			var ok bool
			timestamp, ok = parseTimestamp(c.Date)
			if !ok {
				a.logger.Warnf("Could not parse timestamp %q from bitbucket, using current time", c.Date)
			}
		}

		push.Commits = append(push.Commits, models.CommitInfo{
			Hash:        hash,
			Message:     c.Message,
			Branch:      branch,
			Timestamp:   timestamp,
			AuthorEmail: email,
			AuthorName:  name,
			// Bitbucket push payloads carry no per-commit URL; the
			// ingestion engine derives one from the repository URL.
		})
	}

	return push, nil
}

func (a *bitbucketAdapter) CommitURL(repositoryURL, hash string) string {
	return repositoryURL + "/commits/" + hash
}

// branch reads the branch name from the first change target.
func (a *bitbucketAdapter) branch(payload bitbucketPushPayload) string {
	if payload.Push == nil || len(payload.Push.Changes) == 0 {
		return ""
	}
	if target := payload.Push.Changes[0].New; target != nil {
		return target.Name
	}
	return ""
}

// commits flattens push.changes[].new.commits[] in delivered order.
func (a *bitbucketAdapter) commits(payload bitbucketPushPayload) []bitbucketCommit {
	if payload.Push == nil {
		return nil
	}
	var commits []bitbucketCommit
	for _, change := range payload.Push.Changes {
		if change.New != nil {
			commits = append(commits, change.New.Commits...)
		}
	}
	return commits
}

// bitbucketAuthorInfo extracts name and email from the raw "Name <email>"
// string, falling back to the nested user object.
func bitbucketAuthorInfo(author *bitbucketAuthor) (name, email string) {
	if author == nil {
		return "", ""
	}

	if author.Raw != "" {
		name, email = splitRawAuthor(author.Raw)
	}

	if email == "" && author.User != nil {
		email = firstNonEmpty(author.User.EmailAddress, author.User.Email)
		if name == "" {
			name = author.User.DisplayName
		}
	}

	return name, email
}
