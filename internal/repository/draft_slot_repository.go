package repository

import (
	"context"
	"errors"
	"time"

	"github.com/graficaops/envelopamento-api/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrDraftSlotNotFound is returned when no autosaved draft exists for an id
var ErrDraftSlotNotFound = errors.New("draft slot not found")

// DraftSlotRepository stores the autosaved serialized form of in-progress quotes
type DraftSlotRepository interface {
	Put(ctx context.Context, draftID string, payload []byte) error
	Get(ctx context.Context, draftID string) (*models.DraftSlot, error)
	Delete(ctx context.Context, draftID string) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type draftSlotRepository struct {
	db *gorm.DB
}

// NewDraftSlotRepository creates a new draft slot repository
func NewDraftSlotRepository(db *gorm.DB) DraftSlotRepository {
	return &draftSlotRepository{db: db}
}

// Put upserts the payload for the given draft id
func (r *draftSlotRepository) Put(ctx context.Context, draftID string, payload []byte) error {
	slot := &models.DraftSlot{
		DraftID: draftID,
		Payload: datatypes.JSON(payload),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "draft_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(slot).Error
}

func (r *draftSlotRepository) Get(ctx context.Context, draftID string) (*models.DraftSlot, error) {
	var slot models.DraftSlot
	err := r.db.WithContext(ctx).Where("draft_id = ?", draftID).First(&slot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDraftSlotNotFound
	}
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *draftSlotRepository) Delete(ctx context.Context, draftID string) error {
	return r.db.WithContext(ctx).Where("draft_id = ?", draftID).Delete(&models.DraftSlot{}).Error
}

// DeleteOlderThan purges slots that were not touched since cutoff
func (r *draftSlotRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("updated_at < ?", cutoff).Delete(&models.DraftSlot{})
	return result.RowsAffected, result.Error
}
