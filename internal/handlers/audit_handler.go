package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/graficaops/envelopamento-api/internal/services"
)

type AuditHandler struct {
	auditService *services.AuditService
}

func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// @Summary Quote Audit Trail
// @Description Lists save, preview and finalize events of one quote, newest first
// @Tags Quotes
// @Produce json
// @Param quote_id path string true "Quote ID or draft ID"
// @Param limit query int false "Max entries" default(50)
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /quotes/{quote_id}/audits [get]
func (h *AuditHandler) Index(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	logs, err := h.auditService.ListByEntity(c.Request.Context(), "Quote", c.Param("quote_id"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"audits": logs})
}
