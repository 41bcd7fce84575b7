package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/graficaops/envelopamento-api/internal/catalog"
	"github.com/graficaops/envelopamento-api/internal/repository"
	"github.com/graficaops/envelopamento-api/internal/services"
	"github.com/graficaops/envelopamento-api/pkg/logger"
)

// respondError maps engine errors to HTTP responses. Validation failures keep
// their specific reason so the form can point at the offending field or piece.
func respondError(c *gin.Context, err error) {
	var (
		validationErr *services.ValidationError
		stockErr      *services.StockInsufficientError
		lookupErr     *services.StockLookupError
		persistErr    *services.PersistenceError
		documentErr   *services.DocumentEmissionError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":      validationErr.Message,
			"reason":     "validation",
			"field":      validationErr.Field,
			"piece_id":   validationErr.PieceID,
			"piece_name": validationErr.PieceName,
		})
	case errors.As(err, &stockErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   stockErr.Error(),
			"reason":  "stock_insufficient",
			"details": stockErr,
		})
	case errors.As(err, &lookupErr):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":  lookupErr.Error(),
			"reason": "stock_lookup",
			"retry":  true,
		})
	case errors.As(err, &persistErr):
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      persistErr.Error(),
			"reason":     "persistence",
			"retry_save": true,
		})
	case errors.As(err, &documentErr):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":  documentErr.Error(),
			"reason": "document",
		})

	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrSessionNotFound),
		errors.Is(err, services.ErrPieceNotFound),
		errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, catalog.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, services.ErrQuoteLocked),
		errors.Is(err, services.ErrInvalidState),
		errors.Is(err, services.ErrIntentConsumed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrInvalidMeasure),
		errors.Is(err, services.ErrInvalidDiscount),
		errors.Is(err, services.ErrUnknownAction),
		errors.Is(err, services.ErrInvalidPayments),
		errors.Is(err, services.ErrEmptyPayload),
		errors.Is(err, services.ErrUnsupportedFormat),
		errors.Is(err, errEmptyBody):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, catalog.ErrUnauthorized):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Catálogo indisponível no momento"})

	default:
		logger.Error("Unhandled request error", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro interno do servidor"})
	}
	_ = c.Error(err)
}
