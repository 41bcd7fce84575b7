package models

import (
	"time"

	"gorm.io/datatypes"
)

// QuoteRecord is the persisted row behind a Quote. Pieces and payments
// are stored as JSON so the rendered document can always be rebuilt
// from exactly what the customer agreed to.
type QuoteRecord struct {
	ID                 uint           `gorm:"primaryKey"`
	Code               string         `gorm:"size:32;uniqueIndex"`
	Status             string         `gorm:"default:draft;not null;index"`
	ClientID           string         `gorm:"size:64;index"`
	ClientName         string         `gorm:"size:255"`
	Client             datatypes.JSON `gorm:"type:jsonb"`
	Pieces             datatypes.JSON `gorm:"type:jsonb;not null"`
	Payments           datatypes.JSON `gorm:"type:jsonb"`
	Discount           float64        `gorm:"type:decimal(15,4);default:0"`
	DiscountType       string         `gorm:"size:16;default:percentage"`
	DiscountCalculated float64        `gorm:"type:decimal(15,4);default:0"`
	Freight            float64        `gorm:"type:decimal(15,4);default:0"`
	Observation        string         `gorm:"type:text"`
	Subtotal           float64        `gorm:"type:decimal(15,4);default:0"`
	Total              float64        `gorm:"type:decimal(15,4);default:0"`
	DocumentPath       *string        `gorm:"type:text"`
	FinalizedAt        *time.Time     `gorm:"index"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TableName specifies the table name for QuoteRecord
func (QuoteRecord) TableName() string {
	return "quotes"
}

// DraftSlot holds the autosaved serialized form of an in-progress quote
type DraftSlot struct {
	DraftID   string         `gorm:"primaryKey;size:64"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time `gorm:"index"`
}

// TableName specifies the table name for DraftSlot
func (DraftSlot) TableName() string {
	return "quote_draft_slots"
}
