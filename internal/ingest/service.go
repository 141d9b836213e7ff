// Package ingest persists normalized webhook commits as contributions. One
// delivery is one batch: per-commit problems are absorbed into counters so a
// single bad record never poisons the rest, while the final write is a single
// transaction so a failed delivery leaves no partial rows behind.
package ingest

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/devtrackhq/contrib-monitor/internal/db"
	apperrors "github.com/devtrackhq/contrib-monitor/internal/errors"
	"github.com/devtrackhq/contrib-monitor/internal/models"
	"github.com/devtrackhq/contrib-monitor/internal/provider"
)

type Service struct {
	store  db.Store
	logger *logrus.Logger
}

func NewService(store db.Store, logger *logrus.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// Ingest processes commits in delivered order: no-reply filtering, contributor
// resolution, dedup check, commit-URL derivation, then one transactional batch
// insert. The returned stats are the delivery's response body; redelivering
// the same payload reports duplicates instead of erroring.
func (s *Service) Ingest(ctx context.Context, adapter provider.Adapter, commits []models.CommitInfo, projectID int64, repositoryURL string) (*models.IngestStats, error) {
	stats := &models.IngestStats{TotalProcessed: len(commits)}

	var staged []*models.GitContribution
	for _, commit := range commits {
		contribution, outcome := s.prepare(ctx, adapter, commit, projectID, repositoryURL)
		switch outcome {
		case outcomeCreate:
			staged = append(staged, contribution)
		case outcomeNoReply:
			stats.SkippedNoReply++
		case outcomeNoUser:
			stats.SkippedNoUser++
		case outcomeDuplicate:
			stats.SkippedDuplicates++
		case outcomeError:
			// Already logged; isolate the bad record and move on.
		}
	}

	if err := s.persist(ctx, staged, stats); err != nil {
		return nil, err
	}

	s.logger.Infof("Webhook processing complete: %d created, %d skipped (duplicates), %d skipped (no user), %d skipped (no-reply)",
		stats.Created, stats.SkippedDuplicates, stats.SkippedNoUser, stats.SkippedNoReply)

	return stats, nil
}

type prepareOutcome int

const (
	outcomeCreate prepareOutcome = iota
	outcomeNoReply
	outcomeNoUser
	outcomeDuplicate
	outcomeError
)

// prepare runs the per-commit pipeline stages that precede persistence.
func (s *Service) prepare(ctx context.Context, adapter provider.Adapter, commit models.CommitInfo, projectID int64, repositoryURL string) (*models.GitContribution, prepareOutcome) {
	if IsNoReplyEmail(commit.AuthorEmail) {
		s.logger.Debugf("Skipping commit %s: no-reply email %s", shortHash(commit.Hash), commit.AuthorEmail)
		return nil, outcomeNoReply
	}

	user, err := s.ResolveContributor(ctx, commit.AuthorEmail)
	if err != nil {
		s.logger.Errorf("Error processing commit %s: %v", shortHash(commit.Hash), err)
		return nil, outcomeError
	}
	if user == nil {
		s.logger.Debugf("Skipping commit %s: no user found for email %s", shortHash(commit.Hash), commit.AuthorEmail)
		return nil, outcomeNoUser
	}

	exists, err := s.store.ContributionExists(ctx, projectID, commit.Hash)
	if err != nil {
		s.logger.Errorf("Error processing commit %s: %v", shortHash(commit.Hash), err)
		return nil, outcomeError
	}
	if exists {
		s.logger.Debugf("Skipping duplicate commit %s (already exists)", shortHash(commit.Hash))
		return nil, outcomeDuplicate
	}

	commitURL := commit.URL
	if commitURL == "" && repositoryURL != "" {
		commitURL = adapter.CommitURL(repositoryURL, commit.Hash)
	}

	userID := user.ID
	return &models.GitContribution{
		UserID:        &userID,
		ProjectID:     projectID,
		CommitHash:    commit.Hash,
		Branch:        commit.Branch,
		CommitMessage: commit.Message,
		Provider:      adapter.Name(),
		CommitURL:     commitURL,
		CommittedAt:   commit.Timestamp,
	}, outcomeCreate
}

// persist writes the staged batch in one transaction. An insert that loses
// the race against a concurrent delivery of the same commit counts as a
// duplicate rather than failing the batch.
func (s *Service) persist(ctx context.Context, staged []*models.GitContribution, stats *models.IngestStats) error {
	if len(staged) == 0 {
		return nil
	}

	created, duplicates, err := s.store.SaveContributions(ctx, staged)
	if err != nil {
		s.logger.Errorf("Error committing contributions: %v", err)
		return apperrors.NewInternalError("failed to persist contributions", err)
	}

	stats.Created += created
	stats.SkippedDuplicates += duplicates
	return nil
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
