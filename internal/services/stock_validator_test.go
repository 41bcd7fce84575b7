package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/graficaops/envelopamento-api/internal/catalog"
	"github.com/graficaops/envelopamento-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validQuote(pieces ...models.Piece) *models.Quote {
	return &models.Quote{
		ID:          "draft-1",
		Client:      &models.Client{ID: "1", Name: "Ana"},
		Observation: "entregar na loja",
		Pieces:      pieces,
	}
}

func stockPiece(id, name string, height, width float64, qty int, product *models.Product) models.Piece {
	return models.Piece{ID: id, Part: models.Part{Name: name, Height: height, Width: width}, Quantity: qty, Product: product}
}

func lookupWithStock(stock map[uint]float64) *mockProductLookup {
	return &mockProductLookup{mockGet: func(ctx context.Context, id uint) (*models.Product, error) {
		s, ok := stock[id]
		if !ok {
			return nil, catalog.ErrNotFound
		}
		return &models.Product{ID: id, StockAvailable: s}, nil
	}}
}

func TestStockValidatorPreChecks(t *testing.T) {
	v := NewStockValidator(nil)
	product := areaProduct(10)

	tests := []struct {
		name  string
		quote *models.Quote
		field string
	}{
		{"missing client", &models.Quote{Observation: "x", Pieces: []models.Piece{stockPiece("p1", "A", 1, 1, 1, product)}}, "client"},
		{"missing observation", &models.Quote{Client: &models.Client{Name: "Ana"}, Observation: "  ", Pieces: []models.Piece{stockPiece("p1", "A", 1, 1, 1, product)}}, "observation"},
		{"no pieces", &models.Quote{Client: &models.Client{Name: "Ana"}, Observation: "x"}, "pieces"},
		{"piece without product", validQuote(stockPiece("p1", "A", 1, 1, 1, product), stockPiece("p2", "Capô", 1, 1, 1, nil)), "product"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.PreCheck(tt.quote)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.NotEmpty(t, verr.Message)
		})
	}

	err := v.PreCheck(validQuote(stockPiece("p1", "A", 1, 1, 1, product), stockPiece("p2", "Capô", 1, 1, 1, nil)))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "p2", verr.PieceID)
	assert.Equal(t, "Capô", verr.PieceName)
}

func TestStockValidatorMissingObservationMakesNoCalls(t *testing.T) {
	lookup := lookupWithStock(map[uint]float64{1: 100})
	v := NewStockValidator(lookup)
	q := validQuote(stockPiece("p1", "A", 1, 1, 1, areaProduct(10)))
	q.Observation = ""

	_, err := v.Validate(context.Background(), q)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "observation", verr.Field)
	assert.Equal(t, 0, lookup.callCount())
}

func TestStockValidatorBoundary(t *testing.T) {
	product := areaProduct(10)
	q := validQuote(stockPiece("p1", "Lateral", 2, 1.5, 3, product))

	_, err := NewStockValidator(lookupWithStock(map[uint]float64{1: 9})).Validate(context.Background(), q)
	assert.NoError(t, err)

	_, err = NewStockValidator(lookupWithStock(map[uint]float64{1: 8})).Validate(context.Background(), q)
	var serr *StockInsufficientError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "p1", serr.PieceID)
	assert.Equal(t, "Lateral", serr.PieceName)
	assert.Equal(t, "Vinil", serr.ProductName)
	assert.Equal(t, 9.0, serr.Required)
	assert.Equal(t, 8.0, serr.Available)
	assert.Contains(t, serr.Error(), "9,00")
	assert.Contains(t, serr.Error(), "8,00")
}

func TestStockValidatorUsesLiveStockOverCached(t *testing.T) {
	product := areaProduct(10)
	product.StockAvailable = 1000
	q := validQuote(stockPiece("p1", "Lateral", 1, 1, 5, product))

	_, err := NewStockValidator(lookupWithStock(map[uint]float64{1: 2})).Validate(context.Background(), q)
	var serr *StockInsufficientError
	assert.ErrorAs(t, err, &serr)
}

func TestStockValidatorStopsAtFirstFailure(t *testing.T) {
	first := &models.Product{ID: 1, Name: "Vinil", UnitOfMeasure: models.UnitSquareMeter, UnitPrice: 10}
	second := &models.Product{ID: 2, Name: "Fosco", UnitOfMeasure: models.UnitSquareMeter, UnitPrice: 10}
	lookup := lookupWithStock(map[uint]float64{1: 0, 2: 100})
	q := validQuote(stockPiece("p1", "A", 1, 1, 1, first), stockPiece("p2", "B", 1, 1, 1, second))

	_, err := NewStockValidator(lookup).Validate(context.Background(), q)

	var serr *StockInsufficientError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "p1", serr.PieceID)
	assert.Equal(t, 1, lookup.callCount())
}

func TestStockValidatorSkipsCountPricedProducts(t *testing.T) {
	lookup := lookupWithStock(map[uint]float64{})
	logo := &models.Product{ID: 9, Name: "Logo", UnitOfMeasure: models.UnitCount, UnitPrice: 12}

	_, err := NewStockValidator(lookup).Validate(context.Background(), validQuote(stockPiece("p1", "A", 0, 0, 4, logo)))

	assert.NoError(t, err)
	assert.Equal(t, 0, lookup.callCount())
}

func TestStockValidatorAuthFallback(t *testing.T) {
	unauthorized := &mockProductLookup{mockGet: func(ctx context.Context, id uint) (*models.Product, error) {
		return nil, fmt.Errorf("%w (status 401)", catalog.ErrUnauthorized)
	}}

	enough := areaProduct(10)
	enough.StockAvailable = 4
	report, err := NewStockValidator(unauthorized).Validate(context.Background(), validQuote(stockPiece("p1", "A", 2, 2, 1, enough)))
	require.NoError(t, err)
	require.Len(t, report.Warnings, 1)

	short := areaProduct(10)
	short.StockAvailable = 3
	_, err = NewStockValidator(unauthorized).Validate(context.Background(), validQuote(stockPiece("p1", "A", 2, 2, 1, short)))
	var serr *StockInsufficientError
	assert.ErrorAs(t, err, &serr)
}

func TestStockValidatorNetworkFailureIsFatal(t *testing.T) {
	network := errors.New("connection refused")
	lookup := &mockProductLookup{mockGet: func(ctx context.Context, id uint) (*models.Product, error) {
		return nil, network
	}}

	_, err := NewStockValidator(lookup).Validate(context.Background(), validQuote(stockPiece("p1", "Teto", 1, 1, 1, areaProduct(10))))

	var lerr *StockLookupError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, "Teto", lerr.PieceName)
	assert.ErrorIs(t, err, network)
	assert.Contains(t, err.Error(), "Tente novamente")
}

func TestStockValidatorRequiresLiveLookup(t *testing.T) {
	restored, err := NormalizeQuotePayload([]byte(`{
		"cliente": "Ana", "observacao": "x",
		"pecas": [{"nome": "Teto", "altura": 1, "largura": 1,
			"produto": {"id": "prod-7", "nome": "Vinil", "preco": 10, "estoque": 100}}]
	}`), DefaultRestoreSettings())
	require.NoError(t, err)
	require.Equal(t, uint(0), restored.Pieces[0].Product.ID)

	lookup := lookupWithStock(map[uint]float64{})
	report, err := NewStockValidator(lookup).Validate(context.Background(), restored)

	var lerr *StockLookupError
	require.ErrorAs(t, err, &lerr)
	assert.ErrorIs(t, err, ErrNoCatalogProduct)
	assert.Equal(t, "Teto", lerr.PieceName)
	assert.Empty(t, report.Warnings)
	assert.Equal(t, 0, lookup.callCount())

	_, err = NewStockValidator(nil).Validate(context.Background(), validQuote(stockPiece("p1", "Teto", 1, 1, 1, areaProduct(10))))
	require.ErrorAs(t, err, &lerr)
	assert.ErrorIs(t, err, ErrNoStockSource)
}
