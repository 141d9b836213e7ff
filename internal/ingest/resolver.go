package ingest

import (
	"context"
	"regexp"
	"strings"

	apperrors "github.com/devtrackhq/contrib-monitor/internal/errors"
	"github.com/devtrackhq/contrib-monitor/internal/models"
	"github.com/devtrackhq/contrib-monitor/internal/utils"
)

// noReplyPatterns match provider-generated placeholder addresses. Commits
// authored under these must never create or attach to human records.
var noReplyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^noreply@`),
	regexp.MustCompile(`^no-reply@`),
	regexp.MustCompile(`@users\.noreply\.github\.com$`),
	regexp.MustCompile(`@users\.noreply\.gitlab\.com$`),
	regexp.MustCompile(`@bitbucket\.org$`),
}

// IsNoReplyEmail reports whether email is empty or a provider no-reply
// placeholder.
func IsNoReplyEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return true
	}

	for _, pattern := range noReplyPatterns {
		if pattern.MatchString(email) {
			return true
		}
	}
	return false
}

// ResolveContributor maps a commit author email to a directory user.
// It returns (nil, nil) when the email has no match; no-reply filtering is
// the caller's first step and is not repeated here.
func (s *Service) ResolveContributor(ctx context.Context, email string) (*models.User, error) {
	return s.store.GetUserByEmail(ctx, email)
}

// ResolveRepository maps a repository URL/name to its project mapping.
// The URL is normalized the same way mapping records are stored, then tried
// first; the name is an exact-match fallback. A miss is a hard stop for the
// whole delivery: commits cannot exist without an owning project.
func (s *Service) ResolveRepository(ctx context.Context, repositoryURL, repositoryName string) (*models.RepositoryMapping, error) {
	if normalized := utils.NormalizeRepoURL(repositoryURL); normalized != "" {
		mapping, err := s.store.GetRepositoryMappingByURL(ctx, normalized)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to look up repository mapping", err)
		}
		if mapping != nil {
			return mapping, nil
		}
	}

	if repositoryName != "" {
		mapping, err := s.store.GetRepositoryMappingByName(ctx, repositoryName)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to look up repository mapping", err)
		}
		if mapping != nil {
			return mapping, nil
		}
	}

	s.logger.Warnf("No project mapping found for repository: %s", firstNonEmpty(repositoryName, repositoryURL))
	return nil, apperrors.NewNotFoundError("repository not linked to a project", nil)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
