package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/graficaops/envelopamento-api/internal/services"
)

type JobHandler struct {
	jobService *services.JobService
}

func NewJobHandler(jobSvc *services.JobService) *JobHandler {
	return &JobHandler{
		jobService: jobSvc,
	}
}

// Status returns the current worker status
// @Summary Get background job status
// @Description Statistics about background jobs (document archival, draft purge) and open quote sessions
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /jobs/status [get]
func (h *JobHandler) Status(c *gin.Context) {
	status := h.jobService.GetStatus()
	c.JSON(http.StatusOK, status)
}

// PurgeDrafts runs the stale draft purge immediately
// @Summary Purge stale drafts
// @Description Deletes autosaved drafts older than the retention window
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Router /jobs/purge-drafts [post]
func (h *JobHandler) PurgeDrafts(c *gin.Context) {
	if err := h.jobService.PurgeStaleDrafts(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rascunhos antigos removidos"})
}
