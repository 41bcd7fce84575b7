package services

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/graficaops/envelopamento-api/internal/models"
	"github.com/graficaops/envelopamento-api/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func finalizedSnapshot() models.Quote {
	finalizedAt := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	q := models.Quote{
		ID:           "12",
		Code:         "ORC-000012",
		Client:       &models.Client{ID: "1", Name: "Ana Souza"},
		DiscountType: models.DiscountTypePercentage,
		Discount:     50,
		Freight:      20,
		Observation:  "Entrega às 14h",
		Status:       models.QuoteStatusFinalized,
		FinalizedAt:  &finalizedAt,
		Pieces: []models.Piece{{
			ID:       "p1",
			Part:     models.Part{Name: "Capô", Height: 2, Width: 1},
			Quantity: 2,
			Product:  areaProduct(50),
			AdditionalServices: []models.AdditionalService{
				{ID: "s1", Description: "Remoção de película", Value: 30},
			},
		}},
		Payments: []models.Payment{{Method: "cartao", Amount: 135, Installments: 3, CardMachine: "Stone"}},
	}
	Recompute(&q)
	return q
}

func TestDocumentServiceExportPDF(t *testing.T) {
	svc := NewDocumentService("R$", nil)

	doc, err := svc.ExportPDF(context.Background(), finalizedSnapshot())

	require.NoError(t, err)
	assert.Equal(t, "orcamento_ORC-000012.pdf", doc.Filename)
	assert.Equal(t, contentTypePDF, doc.ContentType)
	assert.True(t, bytes.HasPrefix(doc.Data, []byte("%PDF")))
}

func TestDocumentServicePreviewLabel(t *testing.T) {
	svc := NewDocumentService("R$", nil)
	snap := finalizedSnapshot()
	snap.ID = models.NewPreviewID()
	snap.Code = ""
	snap.Payments = nil

	doc, err := svc.Preview(context.Background(), snap)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(doc.Filename, "previa_preview-"))

	view := svc.buildView(snap)
	assert.True(t, view.Preview)
	assert.Contains(t, view.Title, "PRÉ-VISUALIZAÇÃO")
}

func TestDocumentServiceView(t *testing.T) {
	view := NewDocumentService("R$", nil).buildView(finalizedSnapshot())

	assert.Equal(t, "Orçamento ORC-000012", view.Title)
	assert.Equal(t, "14/03/2026", view.Date)
	assert.Equal(t, "R$ 230,00", view.Subtotal)
	assert.Equal(t, "R$ 115,00", view.Discount)
	assert.Equal(t, "50,00%", view.DiscountNote)
	assert.Equal(t, "R$ 135,00", view.Total)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, "4,00 m²", view.Lines[0].Billable)
	assert.Equal(t, "2,00 x 1,00", view.Lines[0].Measures)
	require.Len(t, view.Lines[0].Services, 1)
}

func TestRenderQuoteHTML(t *testing.T) {
	html, err := renderQuoteHTML(NewDocumentService("R$", nil).buildView(finalizedSnapshot()))

	require.NoError(t, err)
	out := string(html)
	assert.Contains(t, out, "Ana Souza")
	assert.Contains(t, out, "ORC-000012")
	assert.Contains(t, out, "Remoção de película")
	assert.Contains(t, out, "em 3x")
}

func TestDocumentServiceExportXLSX(t *testing.T) {
	doc, err := NewDocumentService("R$", nil).ExportXLSX(context.Background(), finalizedSnapshot())
	require.NoError(t, err)
	assert.Equal(t, "orcamento_ORC-000012.xlsx", doc.Filename)

	f, err := excelize.OpenReader(bytes.NewReader(doc.Data))
	require.NoError(t, err)
	defer f.Close()

	name, err := f.GetCellValue("Orçamento", "A6")
	require.NoError(t, err)
	assert.Equal(t, "Capô", name)

	client, _ := f.GetCellValue("Orçamento", "B2")
	assert.Equal(t, "Ana Souza", client)

	totalLabel, _ := f.GetCellValue("Orçamento", "I11")
	total, _ := f.GetCellValue("Orçamento", "J11")
	assert.Equal(t, "Total", totalLabel)
	assert.Equal(t, "135", total)
}

func TestDocumentServiceArchive(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	svc := NewDocumentService("R$", store)
	doc, err := svc.ExportPDF(context.Background(), finalizedSnapshot())
	require.NoError(t, err)

	path, err := svc.Archive(context.Background(), finalizedSnapshot(), doc)

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "quotes"))
	assert.True(t, store.Exists(path))

	_, err = NewDocumentService("R$", nil).Archive(context.Background(), finalizedSnapshot(), doc)
	assert.Error(t, err)
}
