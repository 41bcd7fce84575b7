package models

import (
	"time"
)

// AuditLog represents a system audit entry
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index" json:"user_id"`
	Action    string    `gorm:"size:50;not null" json:"action"` // SAVE, FINALIZE, PREVIEW
	Entity    string    `gorm:"size:50;not null" json:"entity"` // Quote
	EntityID  string    `gorm:"size:64;index" json:"entity_id"`
	Details   string    `gorm:"type:text" json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}

// Audit action constants
const (
	AuditActionSave     = "SAVE"
	AuditActionFinalize = "FINALIZE"
	AuditActionPreview  = "PREVIEW"
)
