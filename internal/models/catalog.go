package models

import (
	"strings"
	"time"
)

// Unit of measure constants
const (
	UnitSquareMeter = "m2"
	UnitCount       = "un"
)

// Part is a reusable named surface with dimensions in meters
type Part struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null;index" json:"name"`
	Height    float64   `gorm:"type:decimal(10,4);not null" json:"height"`
	Width     float64   `gorm:"type:decimal(10,4);not null" json:"width"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// TableName specifies the table name for Part
func (Part) TableName() string {
	return "parts"
}

// Product is a catalog product applied to pieces
type Product struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"not null;index" json:"name"`
	UnitOfMeasure  string    `gorm:"default:m2;not null" json:"unit_of_measure"`
	UnitPrice      float64   `gorm:"type:decimal(15,2);not null" json:"unit_price"`
	StockAvailable float64   `gorm:"type:decimal(15,4);default:0" json:"stock_available"`
	CreatedAt      time.Time `json:"-"`
	UpdatedAt      time.Time `json:"-"`
}

// TableName specifies the table name for Product
func (Product) TableName() string {
	return "products"
}

// IsAreaPriced returns true if the product is billed per square meter
func (p *Product) IsAreaPriced() bool {
	switch strings.ToLower(strings.TrimSpace(p.UnitOfMeasure)) {
	case "m2", "m²", "m^2":
		return true
	}
	return false
}

// UnitLabel returns the unit as printed on documents and messages
func (p *Product) UnitLabel() string {
	if p.IsAreaPriced() {
		return "m²"
	}
	if p.UnitOfMeasure == "" {
		return UnitCount
	}
	return p.UnitOfMeasure
}
