package repository

import (
	"testing"

	"github.com/graficaops/envelopamento-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatQuoteCode(t *testing.T) {
	assert.Equal(t, "ORC-000042", FormatQuoteCode(42))
	assert.Equal(t, "ORC-1234567", FormatQuoteCode(1234567))
}

func TestQuoteRecordConversionKeepsPiecesAndPayments(t *testing.T) {
	q := models.Quote{
		ID:           "draft-abc",
		Client:       &models.Client{ID: "c1", Name: "Ana"},
		DiscountType: models.DiscountTypeFixed,
		Discount:     15,
		Freight:      20,
		Observation:  "Entregar na loja",
		Status:       models.QuoteStatusFinalized,
		Pieces: []models.Piece{{
			ID:       "p1",
			Part:     models.Part{Name: "Capô", Height: 1.2, Width: 1.5},
			Quantity: 1,
			Product:  &models.Product{ID: 7, Name: "Vinil fosco", UnitOfMeasure: "m2", UnitPrice: 80},
		}},
		Payments: []models.Payment{{Method: "pix", Amount: 149}},
		Total:    149,
	}

	record, err := quoteToRecord(q)
	require.NoError(t, err)
	record.ID = 9
	record.Code = FormatQuoteCode(9)

	assert.Equal(t, "c1", record.ClientID)
	assert.Equal(t, "Ana", record.ClientName)

	back, err := recordToQuote(record)
	require.NoError(t, err)

	assert.Equal(t, "9", back.ID)
	assert.Equal(t, "ORC-000009", back.Code)
	assert.Equal(t, "Ana", back.Client.Name)
	require.Len(t, back.Pieces, 1)
	assert.Equal(t, "Vinil fosco", back.Pieces[0].Product.Name)
	require.Len(t, back.Payments, 1)
	assert.Equal(t, "pix", back.Payments[0].Method)
	assert.Equal(t, models.QuoteStatusFinalized, back.Status)
}

func TestRecordToQuoteFallsBackToClientColumns(t *testing.T) {
	record := &models.QuoteRecord{ID: 3, ClientID: "c9", ClientName: "Bruno", Status: models.QuoteStatusDraft}

	q, err := recordToQuote(record)
	require.NoError(t, err)
	require.NotNil(t, q.Client)
	assert.Equal(t, "Bruno", q.Client.Name)
	assert.Empty(t, q.Pieces)
}
