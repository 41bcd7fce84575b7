package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/graficaops/envelopamento-api/internal/services"
)

type QuoteHandler struct {
	quoteService *services.QuoteService
}

func NewQuoteHandler(quoteService *services.QuoteService) *QuoteHandler {
	return &QuoteHandler{quoteService: quoteService}
}

// @Summary Get Quote
// @Description Get a persisted quote by id or code
// @Tags Quotes
// @Produce json
// @Param quote_id path string true "Quote ID or code"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /quotes/{quote_id} [get]
func (h *QuoteHandler) Show(c *gin.Context) {
	quote, err := h.quoteService.Get(c.Request.Context(), c.Param("quote_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quote": quote})
}

// @Summary Export Quote
// @Description Download a persisted quote as PDF, XLSX or the printable layout
// @Tags Quotes
// @Produce application/pdf
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param quote_id path string true "Quote ID or code"
// @Param format query string false "pdf, xlsx or print" default(pdf)
// @Success 200 {file} file
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /quotes/{quote_id}/export [get]
func (h *QuoteHandler) Export(c *gin.Context) {
	doc, err := h.quoteService.Export(c.Request.Context(), c.Param("quote_id"), c.DefaultQuery("format", services.ExportFormatPDF))
	if err != nil {
		respondError(c, err)
		return
	}
	sendDocument(c, doc, "attachment")
}
