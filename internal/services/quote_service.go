package services

import (
	"context"
	"errors"
	"strings"

	"github.com/graficaops/envelopamento-api/internal/models"
	"github.com/graficaops/envelopamento-api/internal/repository"
)

// Export formats
const (
	ExportFormatPDF   = "pdf"
	ExportFormatXLSX  = "xlsx"
	ExportFormatPrint = "print"
)

// PartCatalog is the read-only catalog of parts and products, served either
// by the local database or by the remote catalog service.
type PartCatalog interface {
	ListParts(ctx context.Context) ([]models.Part, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	ProductLookup
}

// QuoteService reads persisted quotes and renders their documents
type QuoteService struct {
	quotes    repository.QuoteRepository
	documents *DocumentService
}

func NewQuoteService(quotes repository.QuoteRepository, documents *DocumentService) *QuoteService {
	return &QuoteService{quotes: quotes, documents: documents}
}

// Get returns a persisted quote by id or code
func (s *QuoteService) Get(ctx context.Context, id string) (*models.Quote, error) {
	q, err := s.quotes.GetByID(ctx, id)
	if errors.Is(err, repository.ErrQuoteNotFound) {
		return nil, ErrNotFound
	}
	return q, err
}

// Export renders a persisted quote in the requested format
func (s *QuoteService) Export(ctx context.Context, id, format string) (*Document, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var doc *Document
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", ExportFormatPDF:
		doc, err = s.documents.ExportPDF(ctx, *q)
	case ExportFormatXLSX:
		doc, err = s.documents.ExportXLSX(ctx, *q)
	case ExportFormatPrint:
		doc, err = s.documents.Print(ctx, *q)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, &DocumentEmissionError{QuoteID: q.ID, Err: err}
	}
	return doc, nil
}
