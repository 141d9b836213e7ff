// Package provider contains one adapter per Git hosting service. An adapter
// authenticates a raw webhook delivery and turns its provider-specific push
// payload into canonical commit records; everything downstream of this
// package is provider-agnostic.
package provider

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/devtrackhq/contrib-monitor/internal/models"
)

// Push is the result of parsing a provider push payload: the repository the
// push targeted and its commits, normalized and in delivered order.
type Push struct {
	RepositoryURL  string
	RepositoryName string
	Commits        []models.CommitInfo
}

// Adapter is the per-provider capability set. Verify is a pure predicate
// over the exact raw request bytes; ParsePush validates the payload schema
// and normalizes commits in one pass.
type Adapter interface {
	Name() models.Provider
	Verify(body []byte, credential, secret string) bool
	ParsePush(body []byte) (*Push, error)
	CommitURL(repositoryURL, hash string) string
}

// NewAdapter returns the adapter for a provider.
func NewAdapter(p models.Provider, logger *logrus.Logger) (Adapter, error) {
	switch p {
	case models.ProviderGitHub:
		return &gitHubAdapter{logger: logger}, nil
	case models.ProviderGitLab:
		return &gitLabAdapter{logger: logger}, nil
	case models.ProviderBitbucket:
		return &bitbucketAdapter{logger: logger}, nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", p)
	}
}
