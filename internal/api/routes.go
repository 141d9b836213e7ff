package api

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRouter configures the API routes
func SetupRouter(h *Handler) *gin.Engine {
	r := gin.Default()

	// API documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/healthz", h.Healthz)

	// Provider webhook endpoints. One endpoint per provider; each pairs an
	// event-type header with its own credential scheme.
	webhooks := r.Group("/webhooks")
	{
		webhooks.POST("/github", h.GitHubWebhook)
		webhooks.POST("/gitlab", h.GitLabWebhook)
		webhooks.POST("/bitbucket", h.BitbucketWebhook)
	}

	// Management endpoints for the repository registry and recorded
	// contributions.
	v1 := r.Group("/api/v1")
	{
		v1.POST("/repositories", h.LinkRepository)
		v1.DELETE("/repositories/:id", h.UnlinkRepository)
		v1.GET("/projects/:id/repositories", h.ListProjectRepositories)
		v1.GET("/projects/:id/contributions", h.ListProjectContributions)
		v1.PATCH("/contributions/:id/task", h.LinkContributionTask)
	}

	return r
}
