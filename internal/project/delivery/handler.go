package delivery

import (
	"net/http"

	"devboard-backend/internal/project/domain"
	"devboard-backend/internal/project/usecase"
	"devboard-backend/pkg/httpx"

	"github.com/gin-gonic/gin"
)

// ProjectHandler handles GitHub repository endpoints
type ProjectHandler struct {
	projectUsecase usecase.ProjectUsecase
}

func NewProjectHandler(projectUsecase usecase.ProjectUsecase) *ProjectHandler {
	return &ProjectHandler{
		projectUsecase: projectUsecase,
	}
}

// ListRepos returns the user's repositories, most recently updated first
// GET /api/projects/repos
func (h *ProjectHandler) ListRepos(c *gin.Context) {
	userID := c.GetString("userID")

	repos, err := h.projectUsecase.ListRepos(c.Request.Context(), userID)
	if err != nil {
		httpx.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"repos": repos, "total": len(repos)})
}

// CreateRepo creates a repository on the user's GitHub account
// POST /api/projects/repos
func (h *ProjectHandler) CreateRepo(c *gin.Context) {
	userID := c.GetString("userID")

	var req domain.CreateRepoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	repo, err := h.projectUsecase.CreateRepo(c.Request.Context(), userID, &req)
	if err != nil {
		httpx.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, repo)
}

// GetRepo returns repository details
// GET /api/projects/repos/:owner/:repo
func (h *ProjectHandler) GetRepo(c *gin.Context) {
	userID := c.GetString("userID")

	repo, err := h.projectUsecase.GetRepo(c.Request.Context(), userID, c.Param("owner"), c.Param("repo"))
	if err != nil {
		httpx.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, repo)
}

// ListCommits returns a repository's recent commits
// GET /api/projects/repos/:owner/:repo/commits
func (h *ProjectHandler) ListCommits(c *gin.Context) {
	userID := c.GetString("userID")

	commits, err := h.projectUsecase.ListCommits(c.Request.Context(), userID, c.Param("owner"), c.Param("repo"))
	if err != nil {
		httpx.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"commits": commits})
}
