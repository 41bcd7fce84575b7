package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/graficaops/envelopamento-api/internal/catalog"
	"github.com/graficaops/envelopamento-api/internal/models"
	"github.com/graficaops/envelopamento-api/pkg/logger"
)

// stockEpsilon absorbs float noise from height × width × quantity
const stockEpsilon = 1e-9

// ProductLookup reads a product's current catalog record
type ProductLookup interface {
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
}

// ValidationReport is the outcome of a successful validation. Warnings are
// non-blocking notes, e.g. a stock check that ran against cached numbers.
type ValidationReport struct {
	Warnings []string `json:"warnings,omitempty"`
}

// StockValidator gates finalization on the quote contents and live inventory.
// It never reserves or decrements stock.
type StockValidator struct {
	products ProductLookup
}

// NewStockValidator creates a validator reading live stock from products
func NewStockValidator(products ProductLookup) *StockValidator {
	return &StockValidator{products: products}
}

// PreCheck runs the local checks. It performs no I/O.
func (v *StockValidator) PreCheck(q *models.Quote) error {
	if !q.HasClient() {
		return &ValidationError{Field: "client", Message: "Selecione um cliente antes de finalizar o orçamento."}
	}
	if strings.TrimSpace(q.Observation) == "" {
		return &ValidationError{Field: "observation", Message: "Preencha a observação antes de finalizar o orçamento."}
	}
	if len(q.Pieces) == 0 {
		return &ValidationError{Field: "pieces", Message: "Adicione pelo menos uma peça ao orçamento."}
	}
	for i := range q.Pieces {
		p := &q.Pieces[i]
		if !p.HasProduct() {
			return &ValidationError{
				Field:     "product",
				PieceID:   p.ID,
				PieceName: p.DisplayName(),
				Message:   fmt.Sprintf("Selecione um produto para a peça %q.", p.DisplayName()),
			}
		}
	}
	return nil
}

// Validate runs the local checks and then compares every area-priced piece
// against the product's current stock. Pieces are checked one at a time and
// the first failure is returned without looking up the remaining ones.
func (v *StockValidator) Validate(ctx context.Context, q *models.Quote) (ValidationReport, error) {
	var report ValidationReport
	if err := v.PreCheck(q); err != nil {
		return report, err
	}

	for i := range q.Pieces {
		p := &q.Pieces[i]
		if !p.Product.IsAreaPriced() {
			continue
		}

		available, warning, err := v.liveStock(ctx, p)
		if err != nil {
			return report, err
		}
		if warning != "" {
			report.Warnings = append(report.Warnings, warning)
		}

		required := PieceArea(*p)
		if available < required-stockEpsilon {
			return report, &StockInsufficientError{
				ProductName: p.Product.Name,
				PieceID:     p.ID,
				PieceName:   p.DisplayName(),
				Required:    required,
				Available:   available,
				Unit:        p.Product.UnitLabel(),
			}
		}
	}
	return report, nil
}

// liveStock reads the current stock from the catalog. Only an auth failure
// degrades to the stock cached on the piece when the product was selected.
func (v *StockValidator) liveStock(ctx context.Context, p *models.Piece) (float64, string, error) {
	cached := p.Product.StockAvailable
	if v.products == nil || p.Product.ID == 0 {
		err := ErrNoCatalogProduct
		if v.products == nil {
			err = ErrNoStockSource
		}
		logger.Error("Stock lookup not possible", "product_id", p.Product.ID, "product", p.Product.Name, "piece", p.DisplayName(), "error", err)
		return 0, "", &StockLookupError{PieceName: p.DisplayName(), ProductName: p.Product.Name, Err: err}
	}

	product, err := v.products.GetProduct(ctx, p.Product.ID)
	if err == nil {
		return product.StockAvailable, "", nil
	}
	if errors.Is(err, catalog.ErrUnauthorized) {
		// Known race: the cached value may already be consumed by another order.
		logger.Warn("Catalog rejected stock lookup, using cached stock",
			"product_id", p.Product.ID, "product", p.Product.Name, "cached", cached, "error", err)
		warning := fmt.Sprintf("Não foi possível consultar o estoque atual de %q; usado o último valor conhecido (%s %s).",
			p.Product.Name, FormatDecimal(cached, 2), p.Product.UnitLabel())
		return cached, warning, nil
	}

	logger.Error("Stock lookup failed", "product_id", p.Product.ID, "piece", p.DisplayName(), "error", err)
	return 0, "", &StockLookupError{PieceName: p.DisplayName(), ProductName: p.Product.Name, Err: err}
}
