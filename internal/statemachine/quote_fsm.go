package statemachine

import (
	"context"
	"fmt"

	"github.com/graficaops/envelopamento-api/internal/models"
	"github.com/looplab/fsm"
)

// Quote finalization events
const (
	EventValidate     = "validate"
	EventFail         = "fail"
	EventAwaitPayment = "await_payment"
	EventConfirm      = "confirm"
	EventCancel       = "cancel"
)

// QuoteFSM wraps a quote with its finalization state machine
type QuoteFSM struct {
	quote *models.Quote
	fsm   *fsm.FSM
}

// NewQuoteFSM creates a new quote state machine
func NewQuoteFSM(quote *models.Quote) *QuoteFSM {
	qfsm := &QuoteFSM{
		quote: quote,
	}

	qfsm.fsm = fsm.NewFSM(
		quote.Status,
		fsm.Events{
			// draft → validating (user asked to finalize)
			{Name: EventValidate, Src: []string{models.QuoteStatusDraft}, Dst: models.QuoteStatusValidating},

			// validating → draft (any validation failure)
			{Name: EventFail, Src: []string{models.QuoteStatusValidating}, Dst: models.QuoteStatusDraft},

			// validating → awaiting_payment (collector opened)
			{Name: EventAwaitPayment, Src: []string{models.QuoteStatusValidating}, Dst: models.QuoteStatusAwaitingPayment},

			// awaiting_payment → finalized
			{Name: EventConfirm, Src: []string{models.QuoteStatusAwaitingPayment}, Dst: models.QuoteStatusFinalized},

			// awaiting_payment → draft (collector closed without paying)
			{Name: EventCancel, Src: []string{models.QuoteStatusAwaitingPayment}, Dst: models.QuoteStatusDraft},
		},
		fsm.Callbacks{},
	)

	return qfsm
}

// Validate transitions the quote to validating
func (q *QuoteFSM) Validate(ctx context.Context) error {
	if !q.quote.MayValidate() {
		return fmt.Errorf("quote cannot be validated in current state: %s", q.quote.Status)
	}
	return q.fire(ctx, EventValidate)
}

// Fail returns a quote under validation to draft
func (q *QuoteFSM) Fail(ctx context.Context) error {
	return q.fire(ctx, EventFail)
}

// AwaitPayment transitions a validated quote to awaiting_payment
func (q *QuoteFSM) AwaitPayment(ctx context.Context) error {
	if !q.quote.MayAwaitPayment() {
		return fmt.Errorf("quote cannot await payment in current state: %s", q.quote.Status)
	}
	return q.fire(ctx, EventAwaitPayment)
}

// Confirm transitions the quote to finalized
func (q *QuoteFSM) Confirm(ctx context.Context) error {
	if !q.quote.MayConfirmPayment() {
		return fmt.Errorf("quote payment cannot be confirmed in current state: %s", q.quote.Status)
	}
	return q.fire(ctx, EventConfirm)
}

// Cancel transitions the quote from awaiting_payment back to draft
func (q *QuoteFSM) Cancel(ctx context.Context) error {
	if !q.quote.MayCancelPayment() {
		return fmt.Errorf("quote payment cannot be cancelled in current state: %s", q.quote.Status)
	}
	return q.fire(ctx, EventCancel)
}

// Fire runs the named event, for callers that pick the event dynamically
func (q *QuoteFSM) Fire(ctx context.Context, event string) error {
	switch event {
	case EventValidate:
		return q.Validate(ctx)
	case EventFail:
		return q.Fail(ctx)
	case EventAwaitPayment:
		return q.AwaitPayment(ctx)
	case EventConfirm:
		return q.Confirm(ctx)
	case EventCancel:
		return q.Cancel(ctx)
	}
	return fmt.Errorf("unknown quote event: %s", event)
}

func (q *QuoteFSM) fire(ctx context.Context, event string) error {
	if err := q.fsm.Event(ctx, event); err != nil {
		return fmt.Errorf("failed to %s quote: %w", event, err)
	}
	q.quote.Status = q.fsm.Current()
	return nil
}

// Current returns the current state
func (q *QuoteFSM) Current() string {
	return q.fsm.Current()
}

// Can checks if a transition is possible
func (q *QuoteFSM) Can(event string) bool {
	return q.fsm.Can(event)
}
