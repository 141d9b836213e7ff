package api

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/devtrackhq/contrib-monitor/internal/config"
	apperrors "github.com/devtrackhq/contrib-monitor/internal/errors"
	"github.com/devtrackhq/contrib-monitor/internal/models"
	"github.com/devtrackhq/contrib-monitor/internal/provider"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// mockIngestService is a mock implementation of IngestService
type mockIngestService struct {
	mock.Mock
}

func (m *mockIngestService) ResolveRepository(ctx context.Context, repositoryURL, repositoryName string) (*models.RepositoryMapping, error) {
	args := m.Called(ctx, repositoryURL, repositoryName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RepositoryMapping), args.Error(1)
}

func (m *mockIngestService) Ingest(ctx context.Context, adapter provider.Adapter, commits []models.CommitInfo, projectID int64, repositoryURL string) (*models.IngestStats, error) {
	args := m.Called(ctx, adapter, commits, projectID, repositoryURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.IngestStats), args.Error(1)
}

// mockStore is a mock implementation of db.Store
type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockStore) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *mockStore) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

func (m *mockStore) GetRepositoryMappingByURL(ctx context.Context, normalizedURL string) (*models.RepositoryMapping, error) {
	args := m.Called(ctx, normalizedURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RepositoryMapping), args.Error(1)
}

func (m *mockStore) GetRepositoryMappingByName(ctx context.Context, name string) (*models.RepositoryMapping, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RepositoryMapping), args.Error(1)
}

func (m *mockStore) LinkRepository(ctx context.Context, mapping *models.RepositoryMapping) error {
	args := m.Called(ctx, mapping)
	return args.Error(0)
}

func (m *mockStore) ListProjectRepositories(ctx context.Context, projectID int64) ([]*models.RepositoryMapping, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RepositoryMapping), args.Error(1)
}

func (m *mockStore) UnlinkRepository(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockStore) ContributionExists(ctx context.Context, projectID int64, commitHash string) (bool, error) {
	args := m.Called(ctx, projectID, commitHash)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) SaveContributions(ctx context.Context, contributions []*models.GitContribution) (int, int, error) {
	args := m.Called(ctx, contributions)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *mockStore) GetContribution(ctx context.Context, id int64) (*models.GitContribution, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GitContribution), args.Error(1)
}

func (m *mockStore) ListProjectContributions(ctx context.Context, projectID int64, limit, offset int) ([]*models.GitContribution, int64, error) {
	args := m.Called(ctx, projectID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*models.GitContribution), args.Get(1).(int64), args.Error(2)
}

func (m *mockStore) LinkContributionTask(ctx context.Context, id int64, taskID *int64) error {
	args := m.Called(ctx, id, taskID)
	return args.Error(0)
}

func (m *mockStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func setupTestRouter(t *testing.T) (*gin.Engine, *mockIngestService, *mockStore) {
	t.Helper()

	svc := new(mockIngestService)
	store := new(mockStore)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &config.Config{
		GitHubWebhookSecret:    "github-secret",
		GitLabWebhookToken:     "gitlab-token",
		BitbucketWebhookSecret: "bitbucket-secret",
	}

	h, err := NewHandler(svc, store, cfg, logger)
	require.NoError(t, err)
	return SetupRouter(h), svc, store
}

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func performRequest(r *gin.Engine, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeErrorDetail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Detail
}

const gitHubPushBody = `{
	"ref": "refs/heads/main",
	"repository": {
		"name": "app",
		"full_name": "acme/app",
		"html_url": "https://github.com/acme/app",
		"clone_url": "https://github.com/acme/app.git"
	},
	"commits": [
		{
			"id": "abc123def456",
			"message": "Fix login redirect",
			"timestamp": "2024-03-20T10:00:00Z",
			"url": "https://github.com/acme/app/commit/abc123def456",
			"author": {"name": "Jane Doe", "email": "jane@co.com"}
		}
	]
}`

func TestGitHubWebhookAcceptsSignedPush(t *testing.T) {
	router, svc, _ := setupTestRouter(t)
	body := []byte(gitHubPushBody)

	mapping := &models.RepositoryMapping{ID: 3, ProjectID: 7}
	svc.On("ResolveRepository", mock.Anything, "https://github.com/acme/app.git", "acme/app").Return(mapping, nil)
	svc.On("Ingest", mock.Anything, mock.Anything, mock.Anything, int64(7), "https://github.com/acme/app.git").
		Return(&models.IngestStats{Created: 1, TotalProcessed: 1}, nil)

	w := performRequest(router, http.MethodPost, "/webhooks/github", body, map[string]string{
		"X-GitHub-Event":      "push",
		"X-Hub-Signature-256": "sha256=" + signBody("github-secret", body),
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var stats models.IngestStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.Created)
	assert.Equal(t, 1, stats.TotalProcessed)

	svc.AssertExpectations(t)
}

func TestGitHubWebhookIgnoresNonPushEvents(t *testing.T) {
	router, svc, _ := setupTestRouter(t)
	body := []byte(`{"zen": "Keep it logically awesome."}`)

	// Non-push events are acknowledged without any signature check.
	w := performRequest(router, http.MethodPost, "/webhooks/github", body, map[string]string{
		"X-GitHub-Event": "ping",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Event ignored (not a push event)")

	svc.AssertNotCalled(t, "ResolveRepository", mock.Anything, mock.Anything, mock.Anything)
	svc.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGitHubWebhookRejectsTamperedBody(t *testing.T) {
	router, svc, _ := setupTestRouter(t)
	body := []byte(gitHubPushBody)
	signature := "sha256=" + signBody("github-secret", body)

	tampered := bytes.Replace(body, []byte("jane@co.com"), []byte("mall@ry.com"), 1)
	w := performRequest(router, http.MethodPost, "/webhooks/github", tampered, map[string]string{
		"X-GitHub-Event":      "push",
		"X-Hub-Signature-256": signature,
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid signature", decodeErrorDetail(t, w))

	svc.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGitHubWebhookRejectsMissingSignature(t *testing.T) {
	router, svc, _ := setupTestRouter(t)
	body := []byte(gitHubPushBody)

	w := performRequest(router, http.MethodPost, "/webhooks/github", body, map[string]string{
		"X-GitHub-Event": "push",
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	svc.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGitHubWebhookRejectsUnmappedRepository(t *testing.T) {
	router, svc, _ := setupTestRouter(t)
	body := []byte(gitHubPushBody)

	svc.On("ResolveRepository", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, apperrors.NewNotFoundError("repository not linked to a project", nil))

	w := performRequest(router, http.MethodPost, "/webhooks/github", body, map[string]string{
		"X-GitHub-Event":      "push",
		"X-Hub-Signature-256": "sha256=" + signBody("github-secret", body),
	})

	// 400, not 404: the endpoint exists, the repository is not registered.
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Project mapping required. Repository not linked to a project.", decodeErrorDetail(t, w))

	svc.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGitHubWebhookPersistFailure(t *testing.T) {
	router, svc, _ := setupTestRouter(t)
	body := []byte(gitHubPushBody)

	svc.On("ResolveRepository", mock.Anything, mock.Anything, mock.Anything).
		Return(&models.RepositoryMapping{ProjectID: 7}, nil)
	svc.On("Ingest", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, apperrors.NewInternalError("failed to persist contributions", errors.New("deadlock")))

	w := performRequest(router, http.MethodPost, "/webhooks/github", body, map[string]string{
		"X-GitHub-Event":      "push",
		"X-Hub-Signature-256": "sha256=" + signBody("github-secret", body),
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to persist contributions", decodeErrorDetail(t, w))
}

func TestGitLabWebhookRejectsWrongToken(t *testing.T) {
	router, svc, _ := setupTestRouter(t)

	w := performRequest(router, http.MethodPost, "/webhooks/gitlab", []byte(`{}`), map[string]string{
		"X-Gitlab-Event": "Push Hook",
		"X-Gitlab-Token": "wrong-token",
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid token", decodeErrorDetail(t, w))

	svc.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGitLabWebhookRejectsMalformedPayload(t *testing.T) {
	router, svc, _ := setupTestRouter(t)

	// Valid token, but the payload has no ref.
	w := performRequest(router, http.MethodPost, "/webhooks/gitlab", []byte(`{"commits": []}`), map[string]string{
		"X-Gitlab-Event": "Push Hook",
		"X-Gitlab-Token": "gitlab-token",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeErrorDetail(t, w), "Invalid payload structure")

	svc.AssertNotCalled(t, "ResolveRepository", mock.Anything, mock.Anything, mock.Anything)
}

func TestBitbucketWebhookAcceptsSignedPush(t *testing.T) {
	router, svc, _ := setupTestRouter(t)
	body := []byte(`{
		"repository": {
			"full_name": "acme/app",
			"links": {"html": {"href": "https://bitbucket.org/acme/app"}}
		},
		"push": {
			"changes": [
				{
					"new": {"name": "main", "type": "branch"},
					"commits": [
						{
							"hash": "abc123def456",
							"message": "Fix login redirect",
							"date": "2024-03-20T10:00:00+00:00",
							"author": {"raw": "Jane Doe <jane@co.com>"}
						}
					]
				}
			]
		}
	}`)

	svc.On("ResolveRepository", mock.Anything, "https://bitbucket.org/acme/app", "acme/app").
		Return(&models.RepositoryMapping{ProjectID: 7}, nil)
	svc.On("Ingest", mock.Anything, mock.Anything, mock.Anything, int64(7), "https://bitbucket.org/acme/app").
		Return(&models.IngestStats{Created: 1, TotalProcessed: 1}, nil)

	// Bitbucket sends the bare hex digest without a scheme prefix.
	w := performRequest(router, http.MethodPost, "/webhooks/bitbucket", body, map[string]string{
		"X-Event-Key":     "repo:push",
		"X-Hub-Signature": signBody("bitbucket-secret", body),
	})

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestLinkRepository(t *testing.T) {
	t.Run("creates a normalized mapping", func(t *testing.T) {
		router, _, store := setupTestRouter(t)

		store.On("GetProject", mock.Anything, int64(7)).Return(&models.Project{ID: 7, Name: "App"}, nil)
		store.On("LinkRepository", mock.Anything, mock.MatchedBy(func(m *models.RepositoryMapping) bool {
			return m.RepositoryURL == "https://github.com/acme/app" && m.ProjectID == 7
		})).Return(nil)

		body := []byte(`{
			"project_id": 7,
			"repository_url": "https://GitHub.com/Acme/App.git",
			"repository_name": "acme/app",
			"provider": "github"
		}`)
		w := performRequest(router, http.MethodPost, "/api/v1/repositories", body, nil)

		assert.Equal(t, http.StatusCreated, w.Code)

		var mapping models.RepositoryMapping
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &mapping))
		assert.Equal(t, "https://github.com/acme/app", mapping.RepositoryURL)
		store.AssertExpectations(t)
	})

	t.Run("unknown provider", func(t *testing.T) {
		router, _, store := setupTestRouter(t)

		body := []byte(`{"project_id": 7, "repository_url": "https://svn.example.com/acme/app", "provider": "svn"}`)
		w := performRequest(router, http.MethodPost, "/api/v1/repositories", body, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		store.AssertNotCalled(t, "LinkRepository", mock.Anything, mock.Anything)
	})

	t.Run("unknown project", func(t *testing.T) {
		router, _, store := setupTestRouter(t)

		store.On("GetProject", mock.Anything, int64(99)).Return(nil, nil)

		body := []byte(`{"project_id": 99, "repository_url": "https://github.com/acme/app", "provider": "github"}`)
		w := performRequest(router, http.MethodPost, "/api/v1/repositories", body, nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("already linked", func(t *testing.T) {
		router, _, store := setupTestRouter(t)

		store.On("GetProject", mock.Anything, int64(7)).Return(&models.Project{ID: 7}, nil)
		store.On("LinkRepository", mock.Anything, mock.Anything).
			Return(apperrors.NewConflictError("repository already linked", nil))

		body := []byte(`{"project_id": 7, "repository_url": "https://github.com/acme/app", "provider": "github"}`)
		w := performRequest(router, http.MethodPost, "/api/v1/repositories", body, nil)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestUnlinkRepositoryEndpoint(t *testing.T) {
	router, _, store := setupTestRouter(t)

	store.On("UnlinkRepository", mock.Anything, int64(3)).Return(nil)
	w := performRequest(router, http.MethodDelete, "/api/v1/repositories/3", nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	store.On("UnlinkRepository", mock.Anything, int64(99)).
		Return(apperrors.NewNotFoundError("repository mapping 99 not found", nil))
	w = performRequest(router, http.MethodDelete, "/api/v1/repositories/99", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListProjectContributionsEndpoint(t *testing.T) {
	router, _, store := setupTestRouter(t)

	contributions := []*models.GitContribution{
		{ID: 2, ProjectID: 7, CommitHash: "def456", Provider: models.ProviderGitHub},
		{ID: 1, ProjectID: 7, CommitHash: "abc123", Provider: models.ProviderGitHub},
	}
	store.On("ListProjectContributions", mock.Anything, int64(7), 50, 0).
		Return(contributions, int64(2), nil)

	w := performRequest(router, http.MethodGet, "/api/v1/projects/7/contributions", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp ContributionListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.Total)
	assert.Equal(t, 50, resp.Limit)
	require.Len(t, resp.Contributions, 2)
	assert.Equal(t, "def456", resp.Contributions[0].CommitHash)

	w = performRequest(router, http.MethodGet, "/api/v1/projects/7/contributions?limit=abc", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLinkContributionTaskEndpoint(t *testing.T) {
	t.Run("links a task in the same project", func(t *testing.T) {
		router, _, store := setupTestRouter(t)
		taskID := int64(12)

		store.On("GetContribution", mock.Anything, int64(5)).
			Return(&models.GitContribution{ID: 5, ProjectID: 7, CommitHash: "abc123"}, nil)
		store.On("GetTask", mock.Anything, int64(12)).
			Return(&models.Task{ID: 12, ProjectID: 7, Title: "Fix login"}, nil)
		store.On("LinkContributionTask", mock.Anything, int64(5), &taskID).Return(nil)

		w := performRequest(router, http.MethodPatch, "/api/v1/contributions/5/task", []byte(`{"task_id": 12}`), nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var c models.GitContribution
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &c))
		require.NotNil(t, c.TaskID)
		assert.Equal(t, int64(12), *c.TaskID)
	})

	t.Run("task from another project", func(t *testing.T) {
		router, _, store := setupTestRouter(t)

		store.On("GetContribution", mock.Anything, int64(5)).
			Return(&models.GitContribution{ID: 5, ProjectID: 7}, nil)
		store.On("GetTask", mock.Anything, int64(12)).
			Return(&models.Task{ID: 12, ProjectID: 8}, nil)

		w := performRequest(router, http.MethodPatch, "/api/v1/contributions/5/task", []byte(`{"task_id": 12}`), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Task does not belong to this project", decodeErrorDetail(t, w))

		store.AssertNotCalled(t, "LinkContributionTask", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown contribution", func(t *testing.T) {
		router, _, store := setupTestRouter(t)

		store.On("GetContribution", mock.Anything, int64(99)).Return(nil, nil)

		w := performRequest(router, http.MethodPatch, "/api/v1/contributions/99/task", []byte(`{"task_id": 12}`), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("null task clears the link", func(t *testing.T) {
		router, _, store := setupTestRouter(t)

		store.On("GetContribution", mock.Anything, int64(5)).
			Return(&models.GitContribution{ID: 5, ProjectID: 7}, nil)
		store.On("LinkContributionTask", mock.Anything, int64(5), (*int64)(nil)).Return(nil)

		w := performRequest(router, http.MethodPatch, "/api/v1/contributions/5/task", []byte(`{"task_id": null}`), nil)
		assert.Equal(t, http.StatusOK, w.Code)

		store.AssertNotCalled(t, "GetTask", mock.Anything, mock.Anything)
	})
}

func TestHealthz(t *testing.T) {
	router, _, store := setupTestRouter(t)

	store.On("Ping", mock.Anything).Return(nil).Once()
	w := performRequest(router, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	store.On("Ping", mock.Anything).Return(errors.New("connection refused")).Once()
	w = performRequest(router, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
