package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-playground/validator/v10"
	"github.com/graficaops/envelopamento-api/internal/jobs"
	"github.com/graficaops/envelopamento-api/internal/models"
	"github.com/graficaops/envelopamento-api/internal/repository"
	"github.com/graficaops/envelopamento-api/internal/statemachine"
	"github.com/graficaops/envelopamento-api/pkg/logger"
)

// readyPollInterval is how often a finalize intent checks for derived data
const readyPollInterval = 50 * time.Millisecond

// Intent is the one-shot command a session is opened with: a full quote
// payload (preferred) or a bare quote id, plus whether to go straight to payment.
type Intent struct {
	Quote    json.RawMessage `json:"quote,omitempty"`
	QuoteID  string          `json:"quote_id,omitempty"`
	Finalize bool            `json:"finalize"`
}

// PaymentRequest is what the payment collector needs to charge the client
type PaymentRequest struct {
	QuoteID string         `json:"quote_id"`
	Amount  float64        `json:"amount"`
	Client  *models.Client `json:"client"`
}

// PaymentCollector returns the confirmed breakdown, or ErrPaymentCancelled
type PaymentCollector interface {
	Collect(ctx context.Context, req PaymentRequest) ([]models.Payment, error)
}

// Document is a rendered artifact
type Document struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}

// DocumentEmitter renders frozen quote snapshots. A snapshot id may be a
// preview id that was never persisted.
type DocumentEmitter interface {
	Preview(ctx context.Context, snapshot models.Quote) (*Document, error)
	Print(ctx context.Context, snapshot models.Quote) (*Document, error)
	ExportPDF(ctx context.Context, snapshot models.Quote) (*Document, error)
}

// DocumentArchiver stores a finalized document and returns its path
type DocumentArchiver interface {
	Archive(ctx context.Context, snapshot models.Quote, doc *Document) (string, error)
}

// JobQueue runs fire-and-forget background work
type JobQueue interface {
	EnqueueAsync(job jobs.Job)
}

// FinalizationResult is returned once payment was confirmed and the quote persisted
type FinalizationResult struct {
	Quote         models.Quote `json:"quote"`
	Document      *Document    `json:"document,omitempty"`
	DocumentError string       `json:"document_error,omitempty"`
	Warnings      []string     `json:"warnings,omitempty"`
	NextDraft     models.Quote `json:"next_draft"`
}

// SessionStatus is a read-only view of a finalization session
type SessionStatus struct {
	Quote     models.Quote    `json:"quote"`
	Payment   *PaymentRequest `json:"payment,omitempty"`
	Warnings  []string        `json:"warnings,omitempty"`
	LastError string          `json:"last_error,omitempty"`
}

// OrchestratorDeps wires the collaborators of a finalization session
type OrchestratorDeps struct {
	Quotes       repository.QuoteRepository
	Slots        repository.DraftSlotRepository
	Validator    *StockValidator
	Documents    DocumentEmitter
	Archiver     DocumentArchiver
	Jobs         JobQueue
	Auditor      Auditor
	UserID       uint
	Settings     RestoreSettings
	AutosaveIdle time.Duration
	ReadyTimeout time.Duration
}

type paymentBreakdown struct {
	Payments []models.Payment `validate:"required,min=1,dive"`
}

// courtesyBreakdown applies when nothing is due; no lines are needed
type courtesyBreakdown struct {
	Payments []models.Payment `validate:"omitempty,dive"`
}

var paymentValidate = validator.New()

// FinalizationOrchestrator drives Draft → Validating → AwaitingPayment → Finalized
// for the quote owned by its DraftStore.
type FinalizationOrchestrator struct {
	deps  OrchestratorDeps
	store *DraftStore

	// serializes finalize, confirm and cancel
	flow sync.Mutex

	mu        sync.Mutex
	consumed  bool
	pending   *PaymentRequest
	warnings  []string
	lastError string
	cancelBg  context.CancelFunc
	bgDone    chan struct{}
}

// NewFinalizationOrchestrator creates a session holding a fresh empty draft
func NewFinalizationOrchestrator(deps OrchestratorDeps) *FinalizationOrchestrator {
	if deps.Validator == nil {
		deps.Validator = NewStockValidator(nil)
	}
	return &FinalizationOrchestrator{
		deps:  deps,
		store: NewDraftStore(deps.Quotes, deps.Slots, deps.Settings, deps.AutosaveIdle),
	}
}

// Store exposes the draft for form mutations
func (o *FinalizationOrchestrator) Store() *DraftStore {
	return o.store
}

// Initialize consumes the session intent. It may only be called once so a
// replayed request cannot restore the same payload twice.
func (o *FinalizationOrchestrator) Initialize(ctx context.Context, intent Intent) error {
	o.mu.Lock()
	if o.consumed {
		o.mu.Unlock()
		return ErrIntentConsumed
	}
	o.consumed = true
	o.mu.Unlock()

	if intent.Finalize {
		o.store.SuppressAutosave()
	}

	switch {
	case len(intent.Quote) > 0 && string(intent.Quote) != "null":
		if _, err := o.store.Restore(intent.Quote, o.deps.Settings); err != nil {
			return err
		}
		if intent.Finalize {
			o.startAutoFinalize(nil)
		}

	case intent.QuoteID != "":
		if o.deps.Quotes == nil {
			return ErrRepositoryMissing
		}
		id := intent.QuoteID
		fetch := func(ctx context.Context) error {
			q, err := o.deps.Quotes.GetByID(ctx, id)
			if err != nil {
				return err
			}
			o.store.Load(*q)
			return nil
		}
		if intent.Finalize {
			o.startAutoFinalize(fetch)
			return nil
		}
		if err := fetch(ctx); err != nil {
			if errors.Is(err, repository.ErrQuoteNotFound) {
				return ErrNotFound
			}
			return err
		}
	}
	return nil
}

// startAutoFinalize loads the quote in the background when needed, waits for
// its derived fields and then opens payment collection. After ReadyTimeout it
// proceeds regardless so a missing field surfaces as a validation error.
func (o *FinalizationOrchestrator) startAutoFinalize(fetch func(ctx context.Context) error) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	o.mu.Lock()
	o.cancelBg = cancel
	o.bgDone = done
	o.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel()

		if fetch != nil {
			if err := fetch(ctx); err != nil {
				if ctx.Err() == nil {
					logger.Error("Failed to load quote for finalization", "error", err)
					o.setLastError(err)
				}
				return
			}
		}

		timeout := time.NewTimer(o.deps.ReadyTimeout)
		defer timeout.Stop()
		tick := time.NewTicker(readyPollInterval)
		defer tick.Stop()

	wait:
		for !o.store.Ready() {
			select {
			case <-ctx.Done():
				return
			case <-timeout.C:
				logger.Warn("Quote not ready before timeout, opening payment anyway", "quote_id", o.store.Snapshot().ID)
				break wait
			case <-tick.C:
			}
		}

		if ctx.Err() != nil {
			return
		}
		if _, err := o.Finalize(ctx); err != nil {
			logger.Warn("Automatic finalization did not open payment", "error", err)
		}
	}()
}

// WaitIdle blocks until a background intent finished or ctx expires
func (o *FinalizationOrchestrator) WaitIdle(ctx context.Context) error {
	o.mu.Lock()
	done := o.bgDone
	o.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Finalize validates the quote and opens payment collection for its total.
// Any validation failure returns the quote to Draft untouched.
func (o *FinalizationOrchestrator) Finalize(ctx context.Context) (*PaymentRequest, error) {
	o.flow.Lock()
	defer o.flow.Unlock()

	if err := o.store.fire(ctx, statemachine.EventValidate); err != nil {
		return nil, err
	}

	snap := o.store.Snapshot()
	report, err := o.deps.Validator.Validate(ctx, &snap)
	if err != nil {
		if ferr := o.store.fire(ctx, statemachine.EventFail); ferr != nil {
			logger.Error("Failed to return quote to draft", "quote_id", snap.ID, "error", ferr)
		}
		o.setLastError(err)
		return nil, err
	}

	if err := o.store.fire(ctx, statemachine.EventAwaitPayment); err != nil {
		return nil, err
	}

	req := &PaymentRequest{QuoteID: snap.ID, Amount: snap.Total, Client: snap.Client}
	o.mu.Lock()
	o.pending = req
	o.warnings = report.Warnings
	o.lastError = ""
	o.mu.Unlock()

	logger.Info("Quote awaiting payment", "quote_id", snap.ID, "total", snap.Total, "warnings", len(report.Warnings))
	out := *req
	return &out, nil
}

// ConfirmPayment freezes the quote with its payments, persists it, emits the
// document and resets the draft. A persistence failure keeps the quote
// awaiting payment so the save can be retried without collecting again.
func (o *FinalizationOrchestrator) ConfirmPayment(ctx context.Context, payments []models.Payment) (*FinalizationResult, error) {
	o.flow.Lock()
	defer o.flow.Unlock()

	if o.store.status() != models.QuoteStatusAwaitingPayment {
		return nil, ErrInvalidState
	}
	snapshot := o.store.Snapshot()
	if err := validatePayments(snapshot.Total, payments); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayments, err)
	}
	if o.deps.Quotes == nil {
		return nil, ErrRepositoryMissing
	}

	now := time.Now()
	frozen := snapshot.Clone()
	frozen.Payments = append([]models.Payment{}, payments...)
	frozen.Status = models.QuoteStatusFinalized
	frozen.FinalizedAt = &now

	var (
		result repository.PersistResult
		err    error
	)
	if frozen.IsDraft() {
		result, err = o.deps.Quotes.Create(ctx, frozen)
	} else {
		result, err = o.deps.Quotes.Save(ctx, frozen)
	}
	if err != nil {
		perr := &PersistenceError{QuoteID: snapshot.ID, Err: err}
		logger.Error("Payment confirmed but finalized quote was not saved",
			"quote_id", snapshot.ID, "total", snapshot.Total, "payments", len(payments), "error", err)
		sentry.CaptureException(perr)
		o.setLastError(perr)
		return nil, perr
	}
	frozen.ID = result.ID
	frozen.Code = result.Code

	if err := o.store.fire(ctx, statemachine.EventConfirm); err != nil {
		return nil, err
	}

	o.mu.Lock()
	warnings := o.warnings
	o.pending = nil
	o.warnings = nil
	o.lastError = ""
	o.mu.Unlock()

	if snapshot.IsDraft() && o.deps.Slots != nil {
		if err := o.deps.Slots.Delete(ctx, snapshot.ID); err != nil {
			logger.Warn("Failed to drop draft slot after finalization", "draft_id", snapshot.ID, "error", err)
		}
	}
	o.audit(ctx, models.AuditActionFinalize, frozen.ID, fmt.Sprintf("Orçamento %s finalizado, total %s", frozen.Code, FormatDecimal(frozen.Total, 2)))

	out := &FinalizationResult{Quote: frozen, Warnings: warnings}
	if doc, err := o.emit(ctx, frozen); err != nil {
		derr := &DocumentEmissionError{QuoteID: frozen.ID, Err: err}
		logger.Warn("Quote finalized without document", "quote_id", frozen.ID, "error", err)
		out.DocumentError = derr.Error()
	} else {
		out.Document = doc
		o.archive(frozen, doc)
	}

	out.NextDraft = o.store.Reset()
	logger.Info("Quote finalized", "quote_id", frozen.ID, "code", frozen.Code, "total", frozen.Total)
	return out, nil
}

// CancelPayment closes payment collection and returns the quote to Draft
func (o *FinalizationOrchestrator) CancelPayment(ctx context.Context) (models.Quote, error) {
	o.flow.Lock()
	defer o.flow.Unlock()

	if err := o.store.fire(ctx, statemachine.EventCancel); err != nil {
		return models.Quote{}, err
	}
	o.mu.Lock()
	o.pending = nil
	o.warnings = nil
	o.mu.Unlock()
	return o.store.Snapshot(), nil
}

// RunWithCollector runs the whole flow against an interactive collector
func (o *FinalizationOrchestrator) RunWithCollector(ctx context.Context, collector PaymentCollector) (*FinalizationResult, error) {
	req, err := o.Finalize(ctx)
	if err != nil {
		return nil, err
	}

	payments, err := collector.Collect(ctx, *req)
	if err != nil {
		if _, cerr := o.CancelPayment(ctx); cerr != nil {
			logger.Error("Failed to cancel payment", "quote_id", req.QuoteID, "error", cerr)
		}
		return nil, err
	}
	return o.ConfirmPayment(ctx, payments)
}

// Preview renders a non-binding document. Only the local checks run and the
// snapshot carries a synthetic id that is never persisted.
func (o *FinalizationOrchestrator) Preview(ctx context.Context) (*Document, error) {
	if o.deps.Documents == nil {
		return nil, ErrNoDocumentEmitter
	}
	snap := o.store.Snapshot()
	if err := o.deps.Validator.PreCheck(&snap); err != nil {
		return nil, err
	}
	sourceID := snap.ID
	snap.ID = models.NewPreviewID()
	snap.Code = ""

	doc, err := o.deps.Documents.Preview(ctx, snap)
	if err != nil {
		return nil, &DocumentEmissionError{QuoteID: snap.ID, Err: err}
	}
	o.audit(ctx, models.AuditActionPreview, sourceID, "Pré-visualização gerada")
	return doc, nil
}

// SaveProgress persists the draft explicitly
func (o *FinalizationOrchestrator) SaveProgress(ctx context.Context) (models.Quote, error) {
	q, err := o.store.SaveProgress(ctx)
	if err != nil {
		return models.Quote{}, err
	}
	o.audit(ctx, models.AuditActionSave, q.ID, fmt.Sprintf("Rascunho salvo, total %s", FormatDecimal(q.Total, 2)))
	return q, nil
}

// Reset discards the draft and any pending payment
func (o *FinalizationOrchestrator) Reset() (models.Quote, error) {
	o.flow.Lock()
	defer o.flow.Unlock()
	if snap := o.store.Snapshot(); !snap.MayEdit() {
		return models.Quote{}, ErrQuoteLocked
	}
	o.mu.Lock()
	o.pending = nil
	o.warnings = nil
	o.lastError = ""
	o.mu.Unlock()
	return o.store.Reset(), nil
}

// Status returns the current quote and any open payment request
func (o *FinalizationOrchestrator) Status() SessionStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	st := SessionStatus{
		Quote:     o.store.Snapshot(),
		Warnings:  append([]string{}, o.warnings...),
		LastError: o.lastError,
	}
	if o.pending != nil {
		p := *o.pending
		st.Payment = &p
	}
	return st
}

// Close stops the background intent and the autosave timer
func (o *FinalizationOrchestrator) Close() {
	o.mu.Lock()
	cancel, done := o.cancelBg, o.bgDone
	o.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
	o.store.Close()
}

// validatePayments checks the confirmed breakdown. A zero or negative total
// may close with no lines; anything due needs at least one positive line.
func validatePayments(total float64, payments []models.Payment) error {
	if total <= 0 {
		return paymentValidate.Struct(courtesyBreakdown{Payments: payments})
	}
	if err := paymentValidate.Struct(paymentBreakdown{Payments: payments}); err != nil {
		return err
	}
	for i := range payments {
		if err := paymentValidate.Var(payments[i].Amount, "gt=0"); err != nil {
			return fmt.Errorf("payments[%d].amount: %w", i, err)
		}
	}
	return nil
}

func (o *FinalizationOrchestrator) emit(ctx context.Context, snapshot models.Quote) (*Document, error) {
	if o.deps.Documents == nil {
		return nil, ErrNoDocumentEmitter
	}
	return o.deps.Documents.Preview(ctx, snapshot)
}

func (o *FinalizationOrchestrator) archive(snapshot models.Quote, doc *Document) {
	if o.deps.Archiver == nil || o.deps.Jobs == nil {
		return
	}
	archiver, quotes := o.deps.Archiver, o.deps.Quotes
	o.deps.Jobs.EnqueueAsync(func(ctx context.Context) error {
		path, err := archiver.Archive(ctx, snapshot, doc)
		if err != nil {
			return fmt.Errorf("failed to archive document for quote %s: %w", snapshot.ID, err)
		}
		return quotes.SetDocumentPath(ctx, snapshot.ID, path)
	})
}

func (o *FinalizationOrchestrator) audit(ctx context.Context, action, entityID, details string) {
	if o.deps.Auditor == nil {
		return
	}
	if err := o.deps.Auditor.Log(ctx, o.deps.UserID, action, "Quote", entityID, details); err != nil {
		logger.Warn("Failed to write audit entry", "action", action, "entity_id", entityID, "error", err)
	}
}

func (o *FinalizationOrchestrator) setLastError(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastError = err.Error()
}
