package services

import (
	"context"

	"github.com/graficaops/envelopamento-api/internal/models"
	"gorm.io/gorm"
)

// Auditor records who did what to a quote
type Auditor interface {
	Log(ctx context.Context, userID uint, action, entity, entityID, details string) error
}

type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// Log records an audit entry
func (s *AuditService) Log(ctx context.Context, userID uint, action, entity, entityID, details string) error {
	logEntry := &models.AuditLog{
		UserID:   userID,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Details:  details,
	}
	return s.db.WithContext(ctx).Create(logEntry).Error
}

// ListByEntity retrieves the audit trail of one quote, newest first
func (s *AuditService) ListByEntity(ctx context.Context, entity, entityID string, limit int) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	result := s.db.WithContext(ctx).
		Where("entity = ? AND entity_id = ?", entity, entityID).
		Order("created_at desc").
		Limit(limit).
		Find(&logs)
	return logs, result.Error
}
