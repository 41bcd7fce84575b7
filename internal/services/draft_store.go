package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/graficaops/envelopamento-api/internal/models"
	"github.com/graficaops/envelopamento-api/internal/repository"
	"github.com/graficaops/envelopamento-api/internal/statemachine"
	"github.com/graficaops/envelopamento-api/pkg/logger"
)

// ActionType names a single form mutation
type ActionType string

const (
	ActionAddPiece             ActionType = "add_piece"
	ActionRemovePiece          ActionType = "remove_piece"
	ActionSetPieceQuantity     ActionType = "set_piece_quantity"
	ActionSetPieceProduct      ActionType = "set_piece_product"
	ActionSetPieceMeasurements ActionType = "set_piece_measurements"
	ActionSetPieceServices     ActionType = "set_piece_services"
	ActionSetClient            ActionType = "set_client"
	ActionSetDiscount          ActionType = "set_discount"
	ActionSetFreight           ActionType = "set_freight"
	ActionSetObservation       ActionType = "set_observation"
)

// Action is one mutation of the draft. Only the fields relevant to Type are read.
type Action struct {
	Type         ActionType                 `json:"type" binding:"required"`
	PieceID      string                     `json:"piece_id,omitempty"`
	Part         *models.Part               `json:"part,omitempty"`
	Height       *LocaleFloat               `json:"height,omitempty"`
	Width        *LocaleFloat               `json:"width,omitempty"`
	Quantity     *int                       `json:"quantity,omitempty"`
	Product      *models.Product            `json:"product,omitempty"`
	Services     []models.AdditionalService `json:"services,omitempty"`
	Client       *models.Client             `json:"client,omitempty"`
	Discount     *LocaleFloat               `json:"discount,omitempty"`
	DiscountType string                     `json:"discount_type,omitempty"`
	Freight      *LocaleFloat               `json:"freight,omitempty"`
	Observation  *string                    `json:"observation,omitempty"`
}

// DraftStore is the single owner of an in-progress quote. Every mutation
// is followed by a pricing pass, so totals are never stale.
type DraftStore struct {
	mu       sync.Mutex
	quote    *models.Quote
	quotes   repository.QuoteRepository
	slots    repository.DraftSlotRepository
	settings RestoreSettings
	idle     time.Duration

	suppressAutosave bool
	timer            *time.Timer
	closed           bool
}

// NewDraftStore creates a store holding a fresh empty draft. slots may be nil
// to disable autosave; idle is the quiet period before an autosave runs.
func NewDraftStore(quotes repository.QuoteRepository, slots repository.DraftSlotRepository, settings RestoreSettings, idle time.Duration) *DraftStore {
	return &DraftStore{
		quote:    models.NewDraftQuote(),
		quotes:   quotes,
		slots:    slots,
		settings: settings,
		idle:     idle,
	}
}

// Snapshot returns a deep copy of the current quote
func (s *DraftStore) Snapshot() models.Quote {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quote.Clone()
}

// Restore replaces the current quote with one rehydrated from payload and
// recomputes its totals.
func (s *DraftStore) Restore(payload []byte, settings RestoreSettings) (models.Quote, error) {
	q, err := NormalizeQuotePayload(payload, settings)
	if err != nil {
		return models.Quote{}, err
	}
	return s.Load(*q), nil
}

// Load replaces the current quote with an already typed one, e.g. fetched
// from the repository, and recomputes its totals.
func (s *DraftStore) Load(q models.Quote) models.Quote {
	work := q.Clone()
	if work.ID == "" {
		work.ID = models.NewDraftID()
	}
	if work.Status != models.QuoteStatusFinalized {
		work.Status = models.QuoteStatusDraft
	}
	if work.DiscountType == "" {
		work.DiscountType = normalizeDiscountType("", s.settings.DefaultDiscountType)
	}
	for i := range work.Pieces {
		if work.Pieces[i].ID == "" {
			work.Pieces[i].ID = uuid.NewString()
		}
		if work.Pieces[i].Quantity < 1 {
			work.Pieces[i].Quantity = 1
		}
	}
	Recompute(&work)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
	s.quote = &work
	return work.Clone()
}

// Mutate applies one action and recomputes. A failed action leaves the
// quote untouched.
func (s *DraftStore) Mutate(action Action) (models.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.quote.MayEdit() {
		return models.Quote{}, ErrQuoteLocked
	}

	work := s.quote.Clone()
	if err := applyAction(&work, action); err != nil {
		return models.Quote{}, err
	}
	Recompute(&work)
	s.quote = &work
	s.scheduleAutosaveLocked()
	return work.Clone(), nil
}

// Reset discards the current quote and starts a fresh empty draft
func (s *DraftStore) Reset() models.Quote {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
	s.quote = models.NewDraftQuote()
	s.suppressAutosave = false
	return s.quote.Clone()
}

// SuppressAutosave disables idle autosave, used when the session only exists
// to collect payment for an existing quote.
func (s *DraftStore) SuppressAutosave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suppressAutosave = true
	s.stopTimerLocked()
}

// AutosaveSuppressed reports whether idle autosave is disabled
func (s *DraftStore) AutosaveSuppressed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suppressAutosave
}

// Ready reports whether the quote carries the derived data needed to collect payment
func (s *DraftStore) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.quote.Pieces) == 0 || s.quote.Total <= 0 {
		return false
	}
	for i := range s.quote.Pieces {
		if !s.quote.Pieces[i].HasProduct() {
			return false
		}
	}
	return true
}

// SaveProgress persists the draft: a draft id creates a backend record,
// a durable id updates it.
func (s *DraftStore) SaveProgress(ctx context.Context) (models.Quote, error) {
	if s.quotes == nil {
		return models.Quote{}, ErrRepositoryMissing
	}

	s.mu.Lock()
	if !s.quote.MayEdit() {
		s.mu.Unlock()
		return models.Quote{}, ErrQuoteLocked
	}
	snap := s.quote.Clone()
	s.mu.Unlock()

	var (
		result repository.PersistResult
		err    error
	)
	if snap.IsDraft() {
		result, err = s.quotes.Create(ctx, snap)
	} else {
		result, err = s.quotes.Save(ctx, snap)
	}
	if err != nil {
		return models.Quote{}, fmt.Errorf("failed to save quote progress: %w", err)
	}

	s.mu.Lock()
	if s.quote.ID == snap.ID {
		s.quote.ID = result.ID
		s.quote.Code = result.Code
	}
	out := s.quote.Clone()
	s.mu.Unlock()

	if snap.IsDraft() && s.slots != nil {
		if err := s.slots.Delete(ctx, snap.ID); err != nil {
			logger.Warn("Failed to drop draft slot after save", "draft_id", snap.ID, "error", err)
		}
	}
	return out, nil
}

// Close writes a pending autosave right away and stops the timer. The store
// must not be used afterwards.
func (s *DraftStore) Close() {
	s.mu.Lock()
	pending := s.timer != nil && !s.suppressAutosave && s.quote.MayEdit()
	s.closed = true
	s.stopTimerLocked()
	snap := s.quote.Clone()
	s.mu.Unlock()

	if pending {
		s.writeSlot(snap)
	}
}

// fire runs a finalization event on the owned quote
func (s *DraftStore) fire(ctx context.Context, event string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := statemachine.NewQuoteFSM(s.quote).Fire(ctx, event); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	return nil
}

// status returns the current lifecycle state
func (s *DraftStore) status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quote.Status
}

func (s *DraftStore) scheduleAutosaveLocked() {
	if s.slots == nil || s.idle <= 0 || s.suppressAutosave || s.closed {
		return
	}
	s.stopTimerLocked()
	s.timer = time.AfterFunc(s.idle, s.flushAutosave)
}

func (s *DraftStore) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *DraftStore) flushAutosave() {
	s.mu.Lock()
	if s.closed || s.suppressAutosave || !s.quote.MayEdit() {
		s.mu.Unlock()
		return
	}
	snap := s.quote.Clone()
	s.timer = nil
	s.mu.Unlock()

	s.writeSlot(snap)
}

func (s *DraftStore) writeSlot(snap models.Quote) {
	payload, err := SerializeQuote(snap)
	if err != nil {
		logger.Warn("Failed to serialize draft for autosave", "draft_id", snap.ID, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.slots.Put(ctx, snap.ID, payload); err != nil {
		logger.Warn("Draft autosave failed", "draft_id", snap.ID, "error", err)
		return
	}
	logger.Debug("Draft autosaved", "draft_id", snap.ID, "pieces", len(snap.Pieces))
}

func applyAction(q *models.Quote, a Action) error {
	switch a.Type {
	case ActionAddPiece:
		piece := models.Piece{
			ID:                 uuid.NewString(),
			Quantity:           1,
			Product:            a.Product,
			AdditionalServices: append([]models.AdditionalService{}, a.Services...),
		}
		if a.Part != nil {
			piece.Part = *a.Part
		}
		if a.Height != nil {
			piece.Part.Height = a.Height.Float64()
		}
		if a.Width != nil {
			piece.Part.Width = a.Width.Float64()
		}
		if a.Quantity != nil {
			piece.Quantity = *a.Quantity
		}
		if piece.Quantity < 1 {
			return ErrInvalidQuantity
		}
		if piece.Part.Height < 0 || piece.Part.Width < 0 {
			return ErrInvalidMeasure
		}
		fillServiceIDs(piece.AdditionalServices)
		q.Pieces = append(q.Pieces, piece)

	case ActionRemovePiece:
		i, err := pieceIndex(q, a.PieceID)
		if err != nil {
			return err
		}
		q.Pieces = append(q.Pieces[:i], q.Pieces[i+1:]...)

	case ActionSetPieceQuantity:
		i, err := pieceIndex(q, a.PieceID)
		if err != nil {
			return err
		}
		if a.Quantity == nil || *a.Quantity < 1 {
			return ErrInvalidQuantity
		}
		q.Pieces[i].Quantity = *a.Quantity

	case ActionSetPieceProduct:
		i, err := pieceIndex(q, a.PieceID)
		if err != nil {
			return err
		}
		if a.Product != nil {
			p := *a.Product
			q.Pieces[i].Product = &p
		} else {
			q.Pieces[i].Product = nil
		}

	case ActionSetPieceMeasurements:
		i, err := pieceIndex(q, a.PieceID)
		if err != nil {
			return err
		}
		if a.Height != nil {
			q.Pieces[i].Part.Height = a.Height.Float64()
		}
		if a.Width != nil {
			q.Pieces[i].Part.Width = a.Width.Float64()
		}
		if q.Pieces[i].Part.Height < 0 || q.Pieces[i].Part.Width < 0 {
			return ErrInvalidMeasure
		}

	case ActionSetPieceServices:
		i, err := pieceIndex(q, a.PieceID)
		if err != nil {
			return err
		}
		services := append([]models.AdditionalService{}, a.Services...)
		fillServiceIDs(services)
		q.Pieces[i].AdditionalServices = services

	case ActionSetClient:
		if a.Client != nil {
			c := *a.Client
			q.Client = &c
		} else {
			q.Client = nil
		}

	case ActionSetDiscount:
		if a.DiscountType != "" {
			switch a.DiscountType {
			case models.DiscountTypePercentage, models.DiscountTypeFixed:
				q.DiscountType = a.DiscountType
			default:
				return ErrInvalidDiscount
			}
		}
		if a.Discount != nil {
			q.Discount = a.Discount.Float64()
		}

	case ActionSetFreight:
		if a.Freight != nil {
			q.Freight = a.Freight.Float64()
		} else {
			q.Freight = 0
		}

	case ActionSetObservation:
		if a.Observation != nil {
			q.Observation = *a.Observation
		} else {
			q.Observation = ""
		}

	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, a.Type)
	}
	return nil
}

func pieceIndex(q *models.Quote, id string) (int, error) {
	i := q.FindPiece(strings.TrimSpace(id))
	if i < 0 {
		return -1, fmt.Errorf("%w: %s", ErrPieceNotFound, id)
	}
	return i, nil
}

func fillServiceIDs(services []models.AdditionalService) {
	for i := range services {
		if services[i].ID == "" {
			services[i].ID = uuid.NewString()
		}
	}
}
