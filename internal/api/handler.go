package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/devtrackhq/contrib-monitor/internal/config"
	"github.com/devtrackhq/contrib-monitor/internal/db"
	apperrors "github.com/devtrackhq/contrib-monitor/internal/errors"
	"github.com/devtrackhq/contrib-monitor/internal/models"
	"github.com/devtrackhq/contrib-monitor/internal/provider"
	"github.com/devtrackhq/contrib-monitor/internal/utils"
)

// IngestService is the contribution pipeline consumed by webhook endpoints.
type IngestService interface {
	ResolveRepository(ctx context.Context, repositoryURL, repositoryName string) (*models.RepositoryMapping, error)
	Ingest(ctx context.Context, adapter provider.Adapter, commits []models.CommitInfo, projectID int64, repositoryURL string) (*models.IngestStats, error)
}

type Handler struct {
	ingestService IngestService
	store         db.Store
	cfg           *config.Config
	logger        *logrus.Logger
	adapters      map[models.Provider]provider.Adapter
}

func NewHandler(ingestService IngestService, store db.Store, cfg *config.Config, logger *logrus.Logger) (*Handler, error) {
	adapters := make(map[models.Provider]provider.Adapter)
	for _, p := range []models.Provider{models.ProviderGitHub, models.ProviderGitLab, models.ProviderBitbucket} {
		adapter, err := provider.NewAdapter(p, logger)
		if err != nil {
			return nil, err
		}
		adapters[p] = adapter
	}

	return &Handler{
		ingestService: ingestService,
		store:         store,
		cfg:           cfg,
		logger:        logger,
		adapters:      adapters,
	}, nil
}

// webhookRoute binds an adapter to the headers and credential one provider's
// endpoint uses.
type webhookRoute struct {
	adapter    provider.Adapter
	eventHdr   string
	pushEvent  string
	authHdr    string
	secret     string
	authDetail string
}

// GitHubWebhook handles GitHub push webhooks
// @Summary GitHub webhook endpoint
// @Description Verifies the X-Hub-Signature-256 HMAC and ingests push-event commits
// @Tags webhooks
// @Accept json
// @Produce json
// @Success 200 {object} models.IngestStats
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /webhooks/github [post]
func (h *Handler) GitHubWebhook(c *gin.Context) {
	h.handleWebhook(c, webhookRoute{
		adapter:    h.adapters[models.ProviderGitHub],
		eventHdr:   "X-GitHub-Event",
		pushEvent:  "push",
		authHdr:    "X-Hub-Signature-256",
		secret:     h.cfg.GitHubWebhookSecret,
		authDetail: "Invalid signature",
	})
}

// GitLabWebhook handles GitLab push webhooks
// @Summary GitLab webhook endpoint
// @Description Verifies the X-Gitlab-Token shared token and ingests push-event commits
// @Tags webhooks
// @Accept json
// @Produce json
// @Success 200 {object} models.IngestStats
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /webhooks/gitlab [post]
func (h *Handler) GitLabWebhook(c *gin.Context) {
	h.handleWebhook(c, webhookRoute{
		adapter:    h.adapters[models.ProviderGitLab],
		eventHdr:   "X-Gitlab-Event",
		pushEvent:  "Push Hook",
		authHdr:    "X-Gitlab-Token",
		secret:     h.cfg.GitLabWebhookToken,
		authDetail: "Invalid token",
	})
}

// BitbucketWebhook handles Bitbucket push webhooks
// @Summary Bitbucket webhook endpoint
// @Description Verifies the X-Hub-Signature HMAC and ingests push-event commits
// @Tags webhooks
// @Accept json
// @Produce json
// @Success 200 {object} models.IngestStats
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /webhooks/bitbucket [post]
func (h *Handler) BitbucketWebhook(c *gin.Context) {
	h.handleWebhook(c, webhookRoute{
		adapter:    h.adapters[models.ProviderBitbucket],
		eventHdr:   "X-Event-Key",
		pushEvent:  "repo:push",
		authHdr:    "X-Hub-Signature",
		secret:     h.cfg.BitbucketWebhookSecret,
		authDetail: "Invalid signature",
	})
}

// handleWebhook runs one delivery through the endpoint state machine:
// event filter -> verify -> parse -> resolve repository -> ingest. Each
// failing stage is terminal; verification gates all state-mutating work.
func (h *Handler) handleWebhook(c *gin.Context, route webhookRoute) {
	providerName := route.adapter.Name()
	h.logger.Infof("Received %s webhook request", providerName)

	if event := c.GetHeader(route.eventHdr); event != route.pushEvent {
		h.logger.Infof("Ignoring non-push event: %s", event)
		c.JSON(http.StatusOK, gin.H{"message": "Event ignored (not a push event)"})
		return
	}

	// The raw bytes must be kept intact: the signature is computed over the
	// body as delivered, not over re-serialized JSON.
	body, err := c.GetRawData()
	if err != nil {
		h.logger.Errorf("Error reading request body: %v", err)
		respondWithError(c, http.StatusBadRequest, "Failed to read request body")
		return
	}

	if route.secret == "" {
		h.logger.Errorf("%s webhook secret not configured", providerName)
	}

	if !route.adapter.Verify(body, c.GetHeader(route.authHdr), route.secret) {
		h.logger.Warnf("%s webhook credential verification failed", providerName)
		respondWithError(c, http.StatusUnauthorized, route.authDetail)
		return
	}

	push, err := route.adapter.ParsePush(body)
	if err != nil {
		h.logger.Errorf("Error parsing %s payload: %v", providerName, err)
		respondWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid payload structure: %v", err))
		return
	}

	ctx := c.Request.Context()

	mapping, err := h.ingestService.ResolveRepository(ctx, push.RepositoryURL, push.RepositoryName)
	if err != nil {
		if apperrors.IsNotFound(err) {
			// 400, not 404: the endpoint path is fine, the repository is
			// simply not linked to any project.
			respondWithError(c, http.StatusBadRequest, "Project mapping required. Repository not linked to a project.")
			return
		}
		h.logger.Errorf("Error resolving %s repository: %v", providerName, err)
		respondWithError(c, http.StatusInternalServerError, "Failed to process webhook")
		return
	}

	h.logger.Infof("Extracted %d commits from %s push", len(push.Commits), providerName)

	stats, err := h.ingestService.Ingest(ctx, route.adapter, push.Commits, mapping.ProjectID, push.RepositoryURL)
	if err != nil {
		h.logger.Errorf("Error processing %s webhook: %v", providerName, err)
		respondWithError(c, http.StatusInternalServerError, "Failed to persist contributions")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ErrorResponse is the error body shape for all endpoints.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

func respondWithError(c *gin.Context, code int, detail string) {
	c.JSON(code, ErrorResponse{Detail: detail})
}

func getIntQueryParam(c *gin.Context, param string, defaultValue int) (int, error) {
	value := c.Query(param)
	if value == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(value)
}

// LinkRepositoryRequest is the body for POST /api/v1/repositories.
type LinkRepositoryRequest struct {
	ProjectID      int64           `json:"project_id" binding:"required"`
	RepositoryURL  string          `json:"repository_url" binding:"required"`
	RepositoryName string          `json:"repository_name"`
	Provider       models.Provider `json:"provider" binding:"required"`
}

// LinkRepository links a repository to a project
// @Summary Link a repository to a project
// @Tags repositories
// @Accept json
// @Produce json
// @Param request body LinkRepositoryRequest true "Mapping to create"
// @Success 201 {object} models.RepositoryMapping
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/repositories [post]
func (h *Handler) LinkRepository(c *gin.Context) {
	var req LinkRepositoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	switch req.Provider {
	case models.ProviderGitHub, models.ProviderGitLab, models.ProviderBitbucket:
	default:
		respondWithError(c, http.StatusBadRequest, fmt.Sprintf("Unknown provider: %s", req.Provider))
		return
	}

	ctx := c.Request.Context()

	project, err := h.store.GetProject(ctx, req.ProjectID)
	if err != nil {
		h.logger.Errorf("Failed to get project %d: %v", req.ProjectID, err)
		respondWithError(c, http.StatusInternalServerError, "Failed to link repository")
		return
	}
	if project == nil {
		respondWithError(c, http.StatusNotFound, fmt.Sprintf("Project with id %d not found", req.ProjectID))
		return
	}

	mapping := &models.RepositoryMapping{
		ProjectID:      req.ProjectID,
		RepositoryURL:  utils.NormalizeRepoURL(req.RepositoryURL),
		RepositoryName: req.RepositoryName,
		Provider:       req.Provider,
	}

	if err := h.store.LinkRepository(ctx, mapping); err != nil {
		if apperrors.IsConflict(err) {
			respondWithError(c, http.StatusConflict, fmt.Sprintf("Repository with URL %s is already linked to a project", mapping.RepositoryURL))
			return
		}
		h.logger.Errorf("Failed to link repository: %v", err)
		respondWithError(c, http.StatusInternalServerError, "Failed to link repository")
		return
	}

	c.JSON(http.StatusCreated, mapping)
}

// ListProjectRepositories lists a project's repository mappings
// @Summary List active repository mappings for a project
// @Tags repositories
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {array} models.RepositoryMapping
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/projects/{id}/repositories [get]
func (h *Handler) ListProjectRepositories(c *gin.Context) {
	projectID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondWithError(c, http.StatusBadRequest, "Invalid project ID")
		return
	}

	mappings, err := h.store.ListProjectRepositories(c.Request.Context(), projectID)
	if err != nil {
		h.logger.Errorf("Failed to list repositories for project %d: %v", projectID, err)
		respondWithError(c, http.StatusInternalServerError, "Failed to list repositories")
		return
	}

	if mappings == nil {
		mappings = []*models.RepositoryMapping{}
	}
	c.JSON(http.StatusOK, mappings)
}

// UnlinkRepository removes a repository mapping
// @Summary Unlink a repository from its project
// @Tags repositories
// @Param id path int true "Mapping ID"
// @Success 204 "No Content"
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/repositories/{id} [delete]
func (h *Handler) UnlinkRepository(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondWithError(c, http.StatusBadRequest, "Invalid repository ID")
		return
	}

	if err := h.store.UnlinkRepository(c.Request.Context(), id); err != nil {
		if apperrors.IsNotFound(err) {
			respondWithError(c, http.StatusNotFound, fmt.Sprintf("Repository with id %d not found", id))
			return
		}
		h.logger.Errorf("Failed to unlink repository %d: %v", id, err)
		respondWithError(c, http.StatusInternalServerError, "Failed to unlink repository")
		return
	}

	c.Status(http.StatusNoContent)
}

// ContributionListResponse is a page of contributions.
type ContributionListResponse struct {
	Contributions []*models.GitContribution `json:"contributions"`
	Total         int64                     `json:"total"`
	Limit         int                       `json:"limit"`
	Offset        int                       `json:"offset"`
}

// ListProjectContributions lists a project's contributions
// @Summary List contributions for a project, newest first
// @Tags contributions
// @Produce json
// @Param id path int true "Project ID"
// @Param limit query int false "Page size" default(50)
// @Param offset query int false "Page offset" default(0)
// @Success 200 {object} ContributionListResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/projects/{id}/contributions [get]
func (h *Handler) ListProjectContributions(c *gin.Context) {
	projectID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondWithError(c, http.StatusBadRequest, "Invalid project ID")
		return
	}

	limit, err := getIntQueryParam(c, "limit", 50)
	if err != nil {
		respondWithError(c, http.StatusBadRequest, "Invalid limit parameter")
		return
	}

	offset, err := getIntQueryParam(c, "offset", 0)
	if err != nil {
		respondWithError(c, http.StatusBadRequest, "Invalid offset parameter")
		return
	}

	contributions, total, err := h.store.ListProjectContributions(c.Request.Context(), projectID, limit, offset)
	if err != nil {
		h.logger.Errorf("Failed to list contributions for project %d: %v", projectID, err)
		respondWithError(c, http.StatusInternalServerError, "Failed to list contributions")
		return
	}

	if contributions == nil {
		contributions = []*models.GitContribution{}
	}
	c.JSON(http.StatusOK, ContributionListResponse{
		Contributions: contributions,
		Total:         total,
		Limit:         limit,
		Offset:        offset,
	})
}

// LinkTaskRequest is the body for PATCH /api/v1/contributions/{id}/task.
// A null task_id clears the link.
type LinkTaskRequest struct {
	TaskID *int64 `json:"task_id"`
}

// LinkContributionTask links a contribution to a task
// @Summary Link or unlink a contribution's task
// @Tags contributions
// @Accept json
// @Produce json
// @Param id path int true "Contribution ID"
// @Param request body LinkTaskRequest true "Task to link (null clears)"
// @Success 200 {object} models.GitContribution
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/contributions/{id}/task [patch]
func (h *Handler) LinkContributionTask(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondWithError(c, http.StatusBadRequest, "Invalid contribution ID")
		return
	}

	var req LinkTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	ctx := c.Request.Context()

	contribution, err := h.store.GetContribution(ctx, id)
	if err != nil {
		h.logger.Errorf("Failed to get contribution %d: %v", id, err)
		respondWithError(c, http.StatusInternalServerError, "Failed to link task")
		return
	}
	if contribution == nil {
		respondWithError(c, http.StatusNotFound, fmt.Sprintf("Contribution with id %d not found", id))
		return
	}

	if req.TaskID != nil {
		task, err := h.store.GetTask(ctx, *req.TaskID)
		if err != nil {
			h.logger.Errorf("Failed to get task %d: %v", *req.TaskID, err)
			respondWithError(c, http.StatusInternalServerError, "Failed to link task")
			return
		}
		if task == nil || task.ProjectID != contribution.ProjectID {
			respondWithError(c, http.StatusBadRequest, "Task does not belong to this project")
			return
		}
	}

	if err := h.store.LinkContributionTask(ctx, id, req.TaskID); err != nil {
		h.logger.Errorf("Failed to link task for contribution %d: %v", id, err)
		respondWithError(c, http.StatusInternalServerError, "Failed to link task")
		return
	}

	contribution.TaskID = req.TaskID
	c.JSON(http.StatusOK, contribution)
}

// Healthz reports liveness
// @Summary Liveness check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} ErrorResponse
// @Router /healthz [get]
func (h *Handler) Healthz(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		respondWithError(c, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
