package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/unaytac-cmd/printnest-sub005/internal/domain/gangsheet"
	"github.com/unaytac-cmd/printnest-sub005/internal/domain/shared"
	"github.com/unaytac-cmd/printnest-sub005/internal/infrastructure/persistence/models"
)

// GormRollSettingsRepository implements gangsheet.RollSettingsRepository using GORM
type GormRollSettingsRepository struct {
	db *gorm.DB
}

// NewGormRollSettingsRepository creates a new GormRollSettingsRepository
func NewGormRollSettingsRepository(db *gorm.DB) *GormRollSettingsRepository {
	return &GormRollSettingsRepository{db: db}
}

// FindForTenant returns the tenant's stored settings
func (r *GormRollSettingsRepository) FindForTenant(ctx context.Context, tenantID uuid.UUID) (*gangsheet.RollSettings, error) {
	var model models.RollSettingsModel
	if err := r.db.WithContext(ctx).First(&model, "tenant_id = ?", tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or replaces the tenant's settings
func (r *GormRollSettingsRepository) Save(ctx context.Context, tenantID uuid.UUID, settings gangsheet.RollSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	model := models.RollSettingsModelFromDomain(tenantID, settings)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "tenant_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"roll_width", "roll_length", "dpi", "gap",
				"border", "border_size", "border_color", "updated_at",
			}),
		}).
		Create(model).Error
}

// Delete removes the tenant's settings, restoring defaults
func (r *GormRollSettingsRepository) Delete(ctx context.Context, tenantID uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.RollSettingsModel{}, "tenant_id = ?", tenantID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
