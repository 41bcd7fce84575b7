package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/graficaops/envelopamento-api/internal/models"
	"github.com/graficaops/envelopamento-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func localePtr(v float64) *LocaleFloat {
	f := LocaleFloat(v)
	return &f
}

func addPiece(t *testing.T, s *DraftStore, height, width float64, qty int, product *models.Product) models.Quote {
	t.Helper()
	q, err := s.Mutate(Action{
		Type:     ActionAddPiece,
		Part:     &models.Part{Name: "Lateral"},
		Height:   localePtr(height),
		Width:    localePtr(width),
		Quantity: intPtr(qty),
		Product:  product,
	})
	require.NoError(t, err)
	return q
}

func TestDraftStoreMutationsRecompute(t *testing.T) {
	s := NewDraftStore(nil, nil, DefaultRestoreSettings(), 0)
	defer s.Close()

	_, err := s.Mutate(Action{Type: ActionSetClient, Client: &models.Client{ID: "1", Name: "Ana"}})
	require.NoError(t, err)
	q := addPiece(t, s, 2, 1, 2, areaProduct(50))
	assert.Equal(t, 200.0, q.Subtotal)

	q, err = s.Mutate(Action{Type: ActionSetFreight, Freight: localePtr(20)})
	require.NoError(t, err)
	assert.Equal(t, 220.0, q.Total)

	pieceID := q.Pieces[0].ID
	q, err = s.Mutate(Action{Type: ActionSetPieceQuantity, PieceID: pieceID, Quantity: intPtr(3)})
	require.NoError(t, err)
	assert.Equal(t, 6.0, q.Pieces[0].Area)
	assert.Equal(t, 320.0, q.Total)

	q, err = s.Mutate(Action{
		Type:     ActionSetPieceServices,
		PieceID:  pieceID,
		Services: []models.AdditionalService{{Description: "Aplicação", Value: 30}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, q.Pieces[0].AdditionalServices[0].ID)
	assert.Equal(t, 350.0, q.Total)

	q, err = s.Mutate(Action{Type: ActionSetDiscount, DiscountType: models.DiscountTypeFixed, Discount: localePtr(50)})
	require.NoError(t, err)
	assert.Equal(t, 50.0, q.DiscountCalculated)
	assert.Equal(t, 300.0, q.Total)

	q, err = s.Mutate(Action{Type: ActionRemovePiece, PieceID: pieceID})
	require.NoError(t, err)
	assert.Empty(t, q.Pieces)
	assert.Equal(t, -30.0, q.Total)
}

func TestDraftStoreRejectsInvalidActions(t *testing.T) {
	s := NewDraftStore(nil, nil, DefaultRestoreSettings(), 0)
	defer s.Close()
	q := addPiece(t, s, 1, 1, 1, areaProduct(10))

	_, err := s.Mutate(Action{Type: ActionSetPieceQuantity, PieceID: q.Pieces[0].ID, Quantity: intPtr(0)})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = s.Mutate(Action{Type: ActionRemovePiece, PieceID: "missing"})
	assert.ErrorIs(t, err, ErrPieceNotFound)

	_, err = s.Mutate(Action{Type: ActionSetDiscount, DiscountType: "bogus"})
	assert.ErrorIs(t, err, ErrInvalidDiscount)

	_, err = s.Mutate(Action{Type: "explode"})
	assert.ErrorIs(t, err, ErrUnknownAction)

	_, err = s.Mutate(Action{Type: ActionSetPieceMeasurements, PieceID: q.Pieces[0].ID, Height: localePtr(-1)})
	assert.ErrorIs(t, err, ErrInvalidMeasure)

	// failed actions leave the quote untouched
	assert.Equal(t, q, s.Snapshot())
}

func TestDraftStoreLockedOutsideDraft(t *testing.T) {
	s := NewDraftStore(nil, nil, DefaultRestoreSettings(), 0)
	defer s.Close()
	require.NoError(t, s.fire(context.Background(), "validate"))

	_, err := s.Mutate(Action{Type: ActionSetObservation, Observation: new(string)})
	assert.ErrorIs(t, err, ErrQuoteLocked)
	assert.Equal(t, models.QuoteStatusValidating, s.status())

	_, err = s.SaveProgress(context.Background())
	assert.Error(t, err)
}

func TestDraftStoreSnapshotIsDetached(t *testing.T) {
	s := NewDraftStore(nil, nil, DefaultRestoreSettings(), 0)
	defer s.Close()
	addPiece(t, s, 1, 1, 1, areaProduct(10))

	snap := s.Snapshot()
	snap.Pieces[0].Quantity = 99
	snap.Pieces[0].Product.UnitPrice = 1

	again := s.Snapshot()
	assert.Equal(t, 1, again.Pieces[0].Quantity)
	assert.Equal(t, 10.0, again.Pieces[0].Product.UnitPrice)
}

func TestDraftStoreRestore(t *testing.T) {
	s := NewDraftStore(nil, nil, DefaultRestoreSettings(), 0)
	defer s.Close()

	q, err := s.Restore([]byte(`{"id":"12","cliente":"Ana","frete":"10,5","pecas":[{"nome":"Teto","altura":"2","largura":"1,5","produto":{"id":1,"nome":"Vinil","preco":"100"}}]}`), DefaultRestoreSettings())
	require.NoError(t, err)

	assert.Equal(t, "12", q.ID)
	assert.False(t, q.IsDraft())
	assert.Equal(t, 3.0, q.Pieces[0].Area)
	assert.Equal(t, 310.5, q.Total)
	assert.True(t, s.Ready())
}

func TestDraftStoreReady(t *testing.T) {
	s := NewDraftStore(nil, nil, DefaultRestoreSettings(), 0)
	defer s.Close()
	assert.False(t, s.Ready())

	q := addPiece(t, s, 1, 1, 1, nil)
	assert.False(t, s.Ready())

	_, err := s.Mutate(Action{Type: ActionSetPieceProduct, PieceID: q.Pieces[0].ID, Product: areaProduct(10)})
	require.NoError(t, err)
	assert.True(t, s.Ready())
}

func TestDraftStoreReset(t *testing.T) {
	s := NewDraftStore(nil, nil, DefaultRestoreSettings(), 0)
	defer s.Close()
	before := addPiece(t, s, 1, 1, 1, areaProduct(10))
	s.SuppressAutosave()

	fresh := s.Reset()

	assert.NotEqual(t, before.ID, fresh.ID)
	assert.True(t, fresh.IsDraft())
	assert.Empty(t, fresh.Pieces)
	assert.Nil(t, fresh.Client)
	assert.Equal(t, 0.0, fresh.Total)
	assert.Equal(t, models.QuoteStatusDraft, fresh.Status)
	assert.False(t, s.AutosaveSuppressed())
}

func TestDraftStoreSaveProgress(t *testing.T) {
	quotes := newMockQuoteRepository()
	slots := newMockDraftSlotRepository()
	s := NewDraftStore(quotes, slots, DefaultRestoreSettings(), 0)
	defer s.Close()
	draftID := addPiece(t, s, 1, 1, 1, areaProduct(10)).ID
	require.NoError(t, slots.Put(context.Background(), draftID, []byte(`{}`)))

	saved, err := s.SaveProgress(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1", saved.ID)
	assert.Equal(t, "ORC-000001", saved.Code)
	assert.False(t, slots.has(draftID))

	// durable ids update in place
	_, err = s.Mutate(Action{Type: ActionSetFreight, Freight: localePtr(5)})
	require.NoError(t, err)
	saved, err = s.SaveProgress(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1", saved.ID)
	assert.Equal(t, 1, quotes.count())

	stored, err := quotes.GetByID(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, 15.0, stored.Total)
}

func TestDraftStoreSaveProgressFailure(t *testing.T) {
	quotes := newMockQuoteRepository()
	quotes.mockCreate = func(ctx context.Context, q models.Quote) (repository.PersistResult, error) {
		return repository.PersistResult{}, errors.New("db down")
	}
	s := NewDraftStore(quotes, nil, DefaultRestoreSettings(), 0)
	defer s.Close()
	draftID := addPiece(t, s, 1, 1, 1, areaProduct(10)).ID

	_, err := s.SaveProgress(context.Background())
	assert.Error(t, err)
	assert.Equal(t, draftID, s.Snapshot().ID)

	_, err = NewDraftStore(nil, nil, DefaultRestoreSettings(), 0).SaveProgress(context.Background())
	assert.ErrorIs(t, err, ErrRepositoryMissing)
}

func TestDraftStoreAutosaveDebounced(t *testing.T) {
	slots := newMockDraftSlotRepository()
	s := NewDraftStore(nil, slots, DefaultRestoreSettings(), 20*time.Millisecond)
	defer s.Close()

	q := addPiece(t, s, 1, 1, 1, areaProduct(10))
	for i := 2; i <= 5; i++ {
		_, err := s.Mutate(Action{Type: ActionSetPieceQuantity, PieceID: q.Pieces[0].ID, Quantity: intPtr(i)})
		require.NoError(t, err)
	}

	assert.Eventually(t, func() bool { return slots.has(q.ID) }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, slots.putCount())

	slot, err := slots.Get(context.Background(), q.ID)
	require.NoError(t, err)
	restored, err := NormalizeQuotePayload(slot.Payload, DefaultRestoreSettings())
	require.NoError(t, err)
	assert.Equal(t, 5, restored.Pieces[0].Quantity)
}

func TestDraftStoreAutosaveSuppressed(t *testing.T) {
	slots := newMockDraftSlotRepository()
	s := NewDraftStore(nil, slots, DefaultRestoreSettings(), 10*time.Millisecond)
	defer s.Close()
	s.SuppressAutosave()

	addPiece(t, s, 1, 1, 1, areaProduct(10))

	assert.Never(t, func() bool { return slots.putCount() > 0 }, 60*time.Millisecond, 5*time.Millisecond)
}

func TestDraftStoreCloseFlushesPendingAutosave(t *testing.T) {
	slots := newMockDraftSlotRepository()
	s := NewDraftStore(nil, slots, DefaultRestoreSettings(), time.Hour)

	q := addPiece(t, s, 2, 1, 3, areaProduct(10))
	require.Equal(t, 0, slots.putCount())

	s.Close()

	require.True(t, slots.has(q.ID))
	assert.Equal(t, 1, slots.putCount())
	slot, err := slots.Get(context.Background(), q.ID)
	require.NoError(t, err)
	restored, err := NormalizeQuotePayload(slot.Payload, DefaultRestoreSettings())
	require.NoError(t, err)
	assert.Equal(t, 3, restored.Pieces[0].Quantity)

	// nothing pending the second time
	s.Close()
	assert.Equal(t, 1, slots.putCount())
}

func TestDraftStoreCloseWithoutEditsWritesNothing(t *testing.T) {
	slots := newMockDraftSlotRepository()
	NewDraftStore(nil, slots, DefaultRestoreSettings(), time.Hour).Close()

	suppressed := NewDraftStore(nil, slots, DefaultRestoreSettings(), time.Hour)
	suppressed.SuppressAutosave()
	addPiece(t, suppressed, 1, 1, 1, areaProduct(10))
	suppressed.Close()

	assert.Equal(t, 0, slots.putCount())
}
