package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/graficaops/envelopamento-api/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrQuoteNotFound is returned when no persisted quote matches the lookup
var ErrQuoteNotFound = errors.New("quote not found")

// PersistResult carries the identifiers the backend assigned to a quote
type PersistResult struct {
	ID   string `json:"id"`
	Code string `json:"code"`
}

// QuoteRepository defines the interface for quote persistence
type QuoteRepository interface {
	GetByID(ctx context.Context, id string) (*models.Quote, error)
	Create(ctx context.Context, quote models.Quote) (PersistResult, error)
	Save(ctx context.Context, quote models.Quote) (PersistResult, error)
	SetDocumentPath(ctx context.Context, id string, path string) error
}

type quoteRepository struct {
	db *gorm.DB
}

// NewQuoteRepository creates a new quote repository
func NewQuoteRepository(db *gorm.DB) QuoteRepository {
	return &quoteRepository{db: db}
}

// GetByID accepts either the numeric id or the human-readable code
func (r *quoteRepository) GetByID(ctx context.Context, id string) (*models.Quote, error) {
	var record models.QuoteRecord
	db := r.db.WithContext(ctx)

	var err error
	if numericID, convErr := strconv.ParseUint(strings.TrimSpace(id), 10, 64); convErr == nil {
		err = db.First(&record, numericID).Error
	} else {
		err = db.Where("code = ?", strings.TrimSpace(id)).First(&record).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrQuoteNotFound
	}
	if err != nil {
		return nil, err
	}
	return recordToQuote(&record)
}

// Create inserts a new quote row and assigns its code
func (r *quoteRepository) Create(ctx context.Context, quote models.Quote) (PersistResult, error) {
	record, err := quoteToRecord(quote)
	if err != nil {
		return PersistResult{}, err
	}
	record.ID = 0

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return err
		}
		record.Code = FormatQuoteCode(record.ID)
		return tx.Model(record).Update("code", record.Code).Error
	})
	if err != nil {
		return PersistResult{}, err
	}
	return PersistResult{ID: strconv.FormatUint(uint64(record.ID), 10), Code: record.Code}, nil
}

// Save updates an existing quote row in place
func (r *quoteRepository) Save(ctx context.Context, quote models.Quote) (PersistResult, error) {
	numericID, err := strconv.ParseUint(quote.ID, 10, 64)
	if err != nil {
		return PersistResult{}, fmt.Errorf("quote %q has not been persisted yet", quote.ID)
	}

	var existing models.QuoteRecord
	if err := r.db.WithContext(ctx).First(&existing, numericID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PersistResult{}, ErrQuoteNotFound
		}
		return PersistResult{}, err
	}

	record, err := quoteToRecord(quote)
	if err != nil {
		return PersistResult{}, err
	}
	record.ID = existing.ID
	record.Code = existing.Code
	record.CreatedAt = existing.CreatedAt
	record.DocumentPath = existing.DocumentPath
	if record.Code == "" {
		record.Code = FormatQuoteCode(existing.ID)
	}

	if err := r.db.WithContext(ctx).Save(record).Error; err != nil {
		return PersistResult{}, err
	}
	return PersistResult{ID: quote.ID, Code: record.Code}, nil
}

func (r *quoteRepository) SetDocumentPath(ctx context.Context, id string, path string) error {
	numericID, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid quote id %q: %w", id, err)
	}
	return r.db.WithContext(ctx).
		Model(&models.QuoteRecord{}).
		Where("id = ?", numericID).
		Update("document_path", path).Error
}

// FormatQuoteCode renders the human-readable code for a quote row id
func FormatQuoteCode(id uint) string {
	return fmt.Sprintf("ORC-%06d", id)
}

func quoteToRecord(q models.Quote) (*models.QuoteRecord, error) {
	pieces, err := json.Marshal(q.Pieces)
	if err != nil {
		return nil, fmt.Errorf("failed to encode pieces: %w", err)
	}
	payments, err := json.Marshal(q.Payments)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payments: %w", err)
	}

	record := &models.QuoteRecord{
		Code:               q.Code,
		Status:             q.Status,
		Pieces:             datatypes.JSON(pieces),
		Payments:           datatypes.JSON(payments),
		Discount:           q.Discount,
		DiscountType:       q.DiscountType,
		DiscountCalculated: q.DiscountCalculated,
		Freight:            q.Freight,
		Observation:        q.Observation,
		Subtotal:           q.Subtotal,
		Total:              q.Total,
		FinalizedAt:        q.FinalizedAt,
	}
	if q.Client != nil {
		client, err := json.Marshal(q.Client)
		if err != nil {
			return nil, fmt.Errorf("failed to encode client: %w", err)
		}
		record.Client = datatypes.JSON(client)
		record.ClientID = q.Client.ID
		record.ClientName = q.Client.Name
	}
	if record.Status == "" {
		record.Status = models.QuoteStatusDraft
	}
	return record, nil
}

func recordToQuote(r *models.QuoteRecord) (*models.Quote, error) {
	q := &models.Quote{
		ID:                 strconv.FormatUint(uint64(r.ID), 10),
		Code:               r.Code,
		Status:             r.Status,
		Discount:           r.Discount,
		DiscountType:       r.DiscountType,
		DiscountCalculated: r.DiscountCalculated,
		Freight:            r.Freight,
		Observation:        r.Observation,
		Subtotal:           r.Subtotal,
		Total:              r.Total,
		FinalizedAt:        r.FinalizedAt,
		Pieces:             []models.Piece{},
		Payments:           []models.Payment{},
	}
	if len(r.Pieces) > 0 {
		if err := json.Unmarshal(r.Pieces, &q.Pieces); err != nil {
			return nil, fmt.Errorf("failed to decode pieces of quote %d: %w", r.ID, err)
		}
	}
	if len(r.Payments) > 0 {
		if err := json.Unmarshal(r.Payments, &q.Payments); err != nil {
			return nil, fmt.Errorf("failed to decode payments of quote %d: %w", r.ID, err)
		}
	}
	if len(r.Client) > 0 && string(r.Client) != "null" {
		var client models.Client
		if err := json.Unmarshal(r.Client, &client); err != nil {
			return nil, fmt.Errorf("failed to decode client of quote %d: %w", r.ID, err)
		}
		q.Client = &client
	} else if r.ClientID != "" || r.ClientName != "" {
		q.Client = &models.Client{ID: r.ClientID, Name: r.ClientName}
	}
	return q, nil
}
