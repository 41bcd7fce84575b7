package repository

import (
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	Quote     QuoteRepository
	Catalog   CatalogRepository
	DraftSlot DraftSlotRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Quote:     NewQuoteRepository(db),
		Catalog:   NewCatalogRepository(db),
		DraftSlot: NewDraftSlotRepository(db),
	}
}
