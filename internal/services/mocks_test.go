package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/graficaops/envelopamento-api/internal/models"
	"github.com/graficaops/envelopamento-api/internal/repository"
)

// Mock QuoteRepository
type mockQuoteRepository struct {
	mu         sync.Mutex
	nextID     int
	saved      map[string]models.Quote
	mockCreate func(ctx context.Context, quote models.Quote) (repository.PersistResult, error)
	mockSave   func(ctx context.Context, quote models.Quote) (repository.PersistResult, error)
}

func newMockQuoteRepository() *mockQuoteRepository {
	return &mockQuoteRepository{saved: map[string]models.Quote{}}
}

func (m *mockQuoteRepository) GetByID(ctx context.Context, id string) (*models.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.saved[id]
	if !ok {
		return nil, repository.ErrQuoteNotFound
	}
	out := q.Clone()
	return &out, nil
}

func (m *mockQuoteRepository) Create(ctx context.Context, quote models.Quote) (repository.PersistResult, error) {
	if m.mockCreate != nil {
		return m.mockCreate(ctx, quote)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	res := repository.PersistResult{ID: fmt.Sprintf("%d", m.nextID), Code: repository.FormatQuoteCode(uint(m.nextID))}
	quote.ID, quote.Code = res.ID, res.Code
	m.saved[res.ID] = quote.Clone()
	return res, nil
}

func (m *mockQuoteRepository) Save(ctx context.Context, quote models.Quote) (repository.PersistResult, error) {
	if m.mockSave != nil {
		return m.mockSave(ctx, quote)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.saved[quote.ID]; !ok {
		return repository.PersistResult{}, repository.ErrQuoteNotFound
	}
	m.saved[quote.ID] = quote.Clone()
	return repository.PersistResult{ID: quote.ID, Code: quote.Code}, nil
}

func (m *mockQuoteRepository) SetDocumentPath(ctx context.Context, id string, path string) error {
	return nil
}

func (m *mockQuoteRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

// Mock DraftSlotRepository
type mockDraftSlotRepository struct {
	mu    sync.Mutex
	slots map[string][]byte
	puts  int
}

func newMockDraftSlotRepository() *mockDraftSlotRepository {
	return &mockDraftSlotRepository{slots: map[string][]byte{}}
}

func (m *mockDraftSlotRepository) Put(ctx context.Context, draftID string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	m.slots[draftID] = append([]byte{}, payload...)
	return nil
}

func (m *mockDraftSlotRepository) Get(ctx context.Context, draftID string) (*models.DraftSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	payload, ok := m.slots[draftID]
	if !ok {
		return nil, repository.ErrDraftSlotNotFound
	}
	return &models.DraftSlot{DraftID: draftID, Payload: payload}, nil
}

func (m *mockDraftSlotRepository) Delete(ctx context.Context, draftID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, draftID)
	return nil
}

func (m *mockDraftSlotRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (m *mockDraftSlotRepository) has(draftID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.slots[draftID]
	return ok
}

func (m *mockDraftSlotRepository) putCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

// Mock ProductLookup
type mockProductLookup struct {
	mu      sync.Mutex
	calls   int
	mockGet func(ctx context.Context, id uint) (*models.Product, error)
}

func (m *mockProductLookup) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.mockGet != nil {
		return m.mockGet(ctx, id)
	}
	return nil, repository.ErrProductNotFound
}

func (m *mockProductLookup) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
