package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/graficaops/envelopamento-api/internal/middleware"
	"github.com/graficaops/envelopamento-api/internal/models"
	"github.com/graficaops/envelopamento-api/internal/services"
)

type DraftHandler struct {
	sessions *services.DraftSessions
}

func NewDraftHandler(sessions *services.DraftSessions) *DraftHandler {
	return &DraftHandler{sessions: sessions}
}

func (h *DraftHandler) session(c *gin.Context) (*services.FinalizationOrchestrator, bool) {
	orch, err := h.sessions.Get(c.Param("session_id"), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return orch, true
}

// @Summary Open Quote Session
// @Description Opens a quote form session. The body may carry a full quote payload (preferred) or a quote id, plus a finalize flag that goes straight to payment.
// @Tags Drafts
// @Accept json
// @Produce json
// @Param intent body services.Intent false "Session intent"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /drafts [post]
func (h *DraftHandler) Create(c *gin.Context) {
	var intent services.Intent
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&intent); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	id, orch, err := h.sessions.Open(c.Request.Context(), middleware.GetUserID(c), intent)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session_id": id, "session": orch.Status()})
}

// @Summary Get Quote Session
// @Description Returns the current quote, the open payment request and the last finalization error
// @Tags Drafts
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 200 {object} services.SessionStatus
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /drafts/{session_id} [get]
func (h *DraftHandler) Show(c *gin.Context) {
	orch, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, orch.Status())
}

// @Summary Close Quote Session
// @Tags Drafts
// @Param session_id path string true "Session ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /drafts/{session_id} [delete]
func (h *DraftHandler) Delete(c *gin.Context) {
	if err := h.sessions.Close(c.Param("session_id"), middleware.GetUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Apply Form Action
// @Description Applies one mutation (add_piece, remove_piece, set_piece_quantity, set_piece_product, set_piece_measurements, set_piece_services, set_client, set_discount, set_freight, set_observation) and returns the recomputed quote
// @Tags Drafts
// @Accept json
// @Produce json
// @Param session_id path string true "Session ID"
// @Param action body services.Action true "Action"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /drafts/{session_id}/actions [post]
func (h *DraftHandler) Mutate(c *gin.Context) {
	orch, ok := h.session(c)
	if !ok {
		return
	}

	var action services.Action
	if err := BindNestedOrFlat(c, &action, "action", "acao"); err != nil {
		respondError(c, fmt.Errorf("%w: %v", services.ErrUnknownAction, err))
		return
	}

	quote, err := orch.Store().Mutate(action)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quote": quote})
}

// @Summary Save Draft
// @Description Persists the draft. A draft id creates a backend record, a saved quote is updated in place.
// @Tags Drafts
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /drafts/{session_id}/save [post]
func (h *DraftHandler) Save(c *gin.Context) {
	orch, ok := h.session(c)
	if !ok {
		return
	}
	quote, err := orch.SaveProgress(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quote": quote, "message": "Rascunho salvo"})
}

// @Summary Reset Draft
// @Description Discards the current quote and starts a new empty one
// @Tags Drafts
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /drafts/{session_id}/reset [post]
func (h *DraftHandler) Reset(c *gin.Context) {
	orch, ok := h.session(c)
	if !ok {
		return
	}
	quote, err := orch.Reset()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quote": quote})
}

// @Summary Finalize Quote
// @Description Validates the quote against live stock and opens payment collection for its total
// @Tags Drafts
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Security BearerAuth
// @Router /drafts/{session_id}/finalize [post]
func (h *DraftHandler) Finalize(c *gin.Context) {
	orch, ok := h.session(c)
	if !ok {
		return
	}
	payment, err := orch.Finalize(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	status := orch.Status()
	c.JSON(http.StatusOK, gin.H{"payment": payment, "warnings": status.Warnings, "quote": status.Quote})
}

// @Summary Confirm Payment
// @Description Confirms the payment breakdown, persists the finalized quote, emits its document and resets the draft
// @Tags Drafts
// @Accept json
// @Produce json
// @Param session_id path string true "Session ID"
// @Param payments body []models.Payment true "Payments"
// @Success 200 {object} services.FinalizationResult
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 500 {object} map[string]interface{}
// @Security BearerAuth
// @Router /drafts/{session_id}/payments/confirm [post]
func (h *DraftHandler) ConfirmPayment(c *gin.Context) {
	orch, ok := h.session(c)
	if !ok {
		return
	}

	var payments []models.Payment
	if err := BindNestedOrFlat(c, &payments, "payments", "pagamentos"); err != nil {
		respondError(c, fmt.Errorf("%w: %v", services.ErrInvalidPayments, err))
		return
	}

	result, err := orch.ConfirmPayment(c.Request.Context(), payments)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Summary Cancel Payment
// @Description Closes payment collection and returns the quote to draft
// @Tags Drafts
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /drafts/{session_id}/payments/cancel [post]
func (h *DraftHandler) CancelPayment(c *gin.Context) {
	orch, ok := h.session(c)
	if !ok {
		return
	}
	quote, err := orch.CancelPayment(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quote": quote})
}

// @Summary Preview Quote
// @Description Renders a non-binding PDF of the draft. Stock is not checked.
// @Tags Drafts
// @Produce application/pdf
// @Param session_id path string true "Session ID"
// @Success 200 {file} file
// @Failure 422 {object} map[string]interface{}
// @Security BearerAuth
// @Router /drafts/{session_id}/preview [get]
func (h *DraftHandler) Preview(c *gin.Context) {
	orch, ok := h.session(c)
	if !ok {
		return
	}
	doc, err := orch.Preview(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	sendDocument(c, doc, "inline")
}

func sendDocument(c *gin.Context, doc *services.Document, disposition string) {
	c.Header("Content-Disposition", fmt.Sprintf(`%s; filename="%s"`, disposition, doc.Filename))
	c.Data(http.StatusOK, doc.ContentType, doc.Data)
}
