package handlers

import (
	"github.com/graficaops/envelopamento-api/internal/services"
)

// Handlers holds all handler instances
type Handlers struct {
	Health  *HealthHandler
	Catalog *CatalogHandler
	Draft   *DraftHandler
	Quote   *QuoteHandler
	Job     *JobHandler
	Audit   *AuditHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(),
		Catalog: NewCatalogHandler(svcs.Catalog),
		Draft:   NewDraftHandler(svcs.Sessions),
		Quote:   NewQuoteHandler(svcs.Quote),
		Job:     NewJobHandler(svcs.Job),
		Audit:   NewAuditHandler(svcs.Audit),
	}
}
