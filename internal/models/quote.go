package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Quote status constants
const (
	QuoteStatusDraft           = "draft"
	QuoteStatusValidating      = "validating"
	QuoteStatusAwaitingPayment = "awaiting_payment"
	QuoteStatusFinalized       = "finalized"
)

// Discount type constants
const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
)

// Identifier prefixes. A draft id marks a quote that has never been
// persisted; a preview id is only ever used for display.
const (
	DraftIDPrefix   = "draft-"
	PreviewIDPrefix = "preview-"
)

// Client is the customer a quote is addressed to
type Client struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Document string `json:"document,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// AdditionalService is an add-on charge attached to a single piece
type AdditionalService struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Value       float64 `json:"value"`
}

// Piece is one line item of a quote: a dimensioned part covered with a product
type Piece struct {
	ID                 string              `json:"id"`
	Part               Part                `json:"part"`
	Quantity           int                 `json:"quantity"`
	Product            *Product            `json:"product"`
	AdditionalServices []AdditionalService `json:"additional_services"`

	// Derived by the pricing pass
	Area     float64 `json:"area"`
	Subtotal float64 `json:"subtotal"`
}

// HasProduct returns true if a catalog product was assigned to the piece
func (p *Piece) HasProduct() bool {
	return p.Product != nil && (p.Product.ID != 0 || p.Product.Name != "")
}

// DisplayName returns the part name, or a positional fallback
func (p *Piece) DisplayName() string {
	if strings.TrimSpace(p.Part.Name) != "" {
		return p.Part.Name
	}
	return "sem nome"
}

// Payment is one method of the confirmed payment breakdown
type Payment struct {
	Method       string  `json:"method" validate:"required"`
	Amount       float64 `json:"amount" validate:"gte=0"`
	Installments int     `json:"installments,omitempty" validate:"gte=0"`
	CardMachine  string  `json:"card_machine,omitempty"`
}

// Quote is a wrapping-service budget, either a draft or a finalized order
type Quote struct {
	ID                 string     `json:"id"`
	Code               string     `json:"code"`
	Client             *Client    `json:"client"`
	Pieces             []Piece    `json:"pieces"`
	Discount           float64    `json:"discount"`
	DiscountType       string     `json:"discount_type"`
	DiscountCalculated float64    `json:"discount_calculated"`
	Freight            float64    `json:"freight"`
	Observation        string     `json:"observation"`
	Subtotal           float64    `json:"subtotal"`
	Total              float64    `json:"total"`
	Status             string     `json:"status"`
	Payments           []Payment  `json:"payments"`
	FinalizedAt        *time.Time `json:"finalized_at,omitempty"`
}

// NewDraftQuote returns an empty quote with a fresh draft identifier
func NewDraftQuote() *Quote {
	return &Quote{
		ID:           NewDraftID(),
		Pieces:       []Piece{},
		DiscountType: DiscountTypePercentage,
		Status:       QuoteStatusDraft,
		Payments:     []Payment{},
	}
}

// NewDraftID generates an identifier for a quote that was never persisted
func NewDraftID() string {
	return DraftIDPrefix + uuid.NewString()
}

// NewPreviewID generates a display-only identifier for preview documents
func NewPreviewID() string {
	return PreviewIDPrefix + uuid.NewString()
}

// IsDraftID reports whether id belongs to a quote that was never persisted
func IsDraftID(id string) bool {
	return id == "" || strings.HasPrefix(id, DraftIDPrefix)
}

// IsDraft returns true if the quote has not been persisted yet
func (q *Quote) IsDraft() bool {
	return IsDraftID(q.ID)
}

// IsPreview returns true if the quote carries a display-only identifier
func (q *Quote) IsPreview() bool {
	return strings.HasPrefix(q.ID, PreviewIDPrefix)
}

// HasClient returns true if a customer was selected
func (q *Quote) HasClient() bool {
	return q.Client != nil && (strings.TrimSpace(q.Client.ID) != "" || strings.TrimSpace(q.Client.Name) != "")
}

// FindPiece returns the index of the piece with the given id, or -1
func (q *Quote) FindPiece(id string) int {
	for i := range q.Pieces {
		if q.Pieces[i].ID == id {
			return i
		}
	}
	return -1
}

// MayEdit returns true if the quote accepts form mutations
func (q *Quote) MayEdit() bool {
	return q.Status == QuoteStatusDraft
}

// MayValidate returns true if finalization can start
func (q *Quote) MayValidate() bool {
	return q.Status == QuoteStatusDraft
}

// MayAwaitPayment returns true if validation is in progress
func (q *Quote) MayAwaitPayment() bool {
	return q.Status == QuoteStatusValidating
}

// MayConfirmPayment returns true if the payment collector is open
func (q *Quote) MayConfirmPayment() bool {
	return q.Status == QuoteStatusAwaitingPayment
}

// MayCancelPayment returns true if the payment collector can be closed
func (q *Quote) MayCancelPayment() bool {
	return q.Status == QuoteStatusAwaitingPayment
}

// Clone returns a deep copy, used to freeze snapshots
func (q *Quote) Clone() Quote {
	out := *q
	if q.Client != nil {
		c := *q.Client
		out.Client = &c
	}
	out.Pieces = make([]Piece, len(q.Pieces))
	for i, p := range q.Pieces {
		cp := p
		if p.Product != nil {
			prod := *p.Product
			cp.Product = &prod
		}
		cp.AdditionalServices = append([]AdditionalService{}, p.AdditionalServices...)
		out.Pieces[i] = cp
	}
	out.Payments = append([]Payment{}, q.Payments...)
	if q.FinalizedAt != nil {
		t := *q.FinalizedAt
		out.FinalizedAt = &t
	}
	return out
}
