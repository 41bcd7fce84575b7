package services

import (
	"github.com/graficaops/envelopamento-api/internal/config"
	"github.com/graficaops/envelopamento-api/internal/jobs"
	"github.com/graficaops/envelopamento-api/internal/repository"
	"github.com/graficaops/envelopamento-api/internal/storage"
	"gorm.io/gorm"
)

// Services holds all service instances
type Services struct {
	Catalog   PartCatalog
	Quote     *QuoteService
	Documents *DocumentService
	Sessions  *DraftSessions
	Audit     *AuditService
	Job       *JobService
}

// NewServices creates all service instances. catalog is the source of parts,
// products and live stock.
func NewServices(repos *repository.Repositories, catalog PartCatalog, worker *jobs.Worker, storage *storage.LocalStorage, cfg *config.Config, db *gorm.DB) *Services {
	auditSvc := NewAuditService(db)
	documentSvc := NewDocumentService(cfg.Currency, storage)
	validator := NewStockValidator(catalog)
	settings := DefaultRestoreSettings()

	sessions := NewDraftSessions(func(userID uint) OrchestratorDeps {
		return OrchestratorDeps{
			Quotes:       repos.Quote,
			Slots:        repos.DraftSlot,
			Validator:    validator,
			Documents:    documentSvc,
			Archiver:     documentSvc,
			Jobs:         worker,
			Auditor:      auditSvc,
			UserID:       userID,
			Settings:     settings,
			AutosaveIdle: cfg.AutosaveIdle,
			ReadyTimeout: cfg.FinalizeReadyTimeout,
		}
	})

	return &Services{
		Catalog:   catalog,
		Quote:     NewQuoteService(repos.Quote, documentSvc),
		Documents: documentSvc,
		Sessions:  sessions,
		Audit:     auditSvc,
		Job:       NewJobService(worker, repos.DraftSlot, sessions, cfg.DraftRetentionDays),
	}
}
