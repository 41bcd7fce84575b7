package services

import (
	"github.com/graficaops/envelopamento-api/internal/models"
)

// PieceTotals holds the derived figures of a single piece
type PieceTotals struct {
	PieceID       string  `json:"piece_id"`
	Area          float64 `json:"area"`
	Billable      float64 `json:"billable"`
	ServicesTotal float64 `json:"services_total"`
	Subtotal      float64 `json:"subtotal"`
}

// Totals is the output of a pricing pass. Values keep full precision;
// round with RoundMoney only when presenting them.
type Totals struct {
	Pieces             []PieceTotals `json:"pieces"`
	Subtotal           float64       `json:"subtotal"`
	DiscountCalculated float64       `json:"discount_calculated"`
	Freight            float64       `json:"freight"`
	Total              float64       `json:"total"`
}

// PieceArea returns height × width × quantity, in square meters
func PieceArea(p models.Piece) float64 {
	return p.Part.Height * p.Part.Width * float64(p.Quantity)
}

// CalculatePiece prices one piece. Area-priced products bill the area,
// everything else bills the quantity.
func CalculatePiece(p models.Piece) PieceTotals {
	t := PieceTotals{
		PieceID: p.ID,
		Area:    PieceArea(p),
	}
	for _, s := range p.AdditionalServices {
		t.ServicesTotal += s.Value
	}
	if p.Product != nil {
		if p.Product.IsAreaPriced() {
			t.Billable = t.Area
		} else {
			t.Billable = float64(p.Quantity)
		}
		t.Subtotal = t.Billable * p.Product.UnitPrice
	}
	t.Subtotal += t.ServicesTotal
	return t
}

// CalculateTotals is the pure pricing function: quote state → totals.
// Negative totals pass through unchanged.
func CalculateTotals(q *models.Quote) Totals {
	totals := Totals{
		Pieces:  make([]PieceTotals, 0, len(q.Pieces)),
		Freight: q.Freight,
	}
	for _, p := range q.Pieces {
		pt := CalculatePiece(p)
		totals.Pieces = append(totals.Pieces, pt)
		totals.Subtotal += pt.Subtotal
	}

	if q.DiscountType == models.DiscountTypePercentage {
		totals.DiscountCalculated = totals.Subtotal * (q.Discount / 100)
	} else {
		totals.DiscountCalculated = q.Discount
	}

	totals.Total = totals.Subtotal - totals.DiscountCalculated + totals.Freight
	return totals
}

// Recompute writes the derived fields of q from its inputs. It is only
// called by the DraftStore, which owns the quote.
func Recompute(q *models.Quote) Totals {
	totals := CalculateTotals(q)
	for i := range q.Pieces {
		q.Pieces[i].Area = totals.Pieces[i].Area
		q.Pieces[i].Subtotal = totals.Pieces[i].Subtotal
	}
	q.Subtotal = totals.Subtotal
	q.DiscountCalculated = totals.DiscountCalculated
	q.Total = totals.Total
	return totals
}
