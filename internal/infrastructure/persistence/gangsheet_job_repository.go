package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/unaytac-cmd/printnest-sub005/internal/domain/gangsheet"
	"github.com/unaytac-cmd/printnest-sub005/internal/domain/shared"
	"github.com/unaytac-cmd/printnest-sub005/internal/infrastructure/persistence/models"
)

// GangsheetJobSortFields defines allowed sort fields for gangsheet jobs
var GangsheetJobSortFields = map[string]bool{
	"created_at":   true,
	"updated_at":   true,
	"status":       true,
	"order_id":     true,
	"total_rolls":  true,
	"completed_at": true,
}

// GormGangsheetJobRepository implements gangsheet.GangsheetJobRepository using GORM
type GormGangsheetJobRepository struct {
	db *gorm.DB
}

// NewGormGangsheetJobRepository creates a new GormGangsheetJobRepository
func NewGormGangsheetJobRepository(db *gorm.DB) *GormGangsheetJobRepository {
	return &GormGangsheetJobRepository{db: db}
}

// FindByID finds a job by ID
func (r *GormGangsheetJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*gangsheet.GangsheetJob, error) {
	var model models.GangsheetJobModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindByIDForTenant finds a job by ID within a specific tenant
func (r *GormGangsheetJobRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*gangsheet.GangsheetJob, error) {
	var model models.GangsheetJobModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindByOrder finds all jobs issued for an order, newest first
func (r *GormGangsheetJobRepository) FindByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]gangsheet.GangsheetJob, error) {
	var jobModels []models.GangsheetJobModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND order_id = ?", tenantID, orderID).
		Order("created_at DESC").
		Find(&jobModels).Error; err != nil {
		return nil, err
	}
	return toDomainJobs(jobModels)
}

// FindAllForTenant finds all jobs for a tenant with filtering
func (r *GormGangsheetJobRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]gangsheet.GangsheetJob, error) {
	var jobModels []models.GangsheetJobModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.GangsheetJobModel{}).Where("tenant_id = ?", tenantID), filter)

	if err := query.Find(&jobModels).Error; err != nil {
		return nil, err
	}
	return toDomainJobs(jobModels)
}

// FindByPhase finds jobs in a given phase for a tenant
func (r *GormGangsheetJobRepository) FindByPhase(ctx context.Context, tenantID uuid.UUID, phase gangsheet.JobPhase, filter shared.Filter) ([]gangsheet.GangsheetJob, error) {
	status, err := models.StatusCodeForPhase(phase)
	if err != nil {
		return nil, err
	}

	var jobModels []models.GangsheetJobModel
	query := r.applyFilter(r.db.WithContext(ctx).
		Model(&models.GangsheetJobModel{}).
		Where("tenant_id = ? AND status = ?", tenantID, status), filter)

	if err := query.Find(&jobModels).Error; err != nil {
		return nil, err
	}
	return toDomainJobs(jobModels)
}

// Save saves a job (insert or update)
func (r *GormGangsheetJobRepository) Save(ctx context.Context, job *gangsheet.GangsheetJob) error {
	model, err := models.GangsheetJobModelFromDomain(job)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormGangsheetJobRepository) SaveWithLock(ctx context.Context, job *gangsheet.GangsheetJob) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var currentVersion int
		if err := tx.Model(&models.GangsheetJobModel{}).
			Where("id = ?", job.ID).
			Select("version").
			Scan(&currentVersion).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		if currentVersion != job.Version {
			return shared.NewDomainError("CONCURRENT_MODIFICATION", "The job has been modified by another worker")
		}

		job.Version++
		job.UpdatedAt = time.Now()

		model, err := models.GangsheetJobModelFromDomain(job)
		if err != nil {
			return err
		}

		result := tx.Model(&models.GangsheetJobModel{}).
			Where("id = ? AND version = ?", job.ID, currentVersion).
			Updates(map[string]interface{}{
				"status":        model.Status,
				"progress":      model.Progress,
				"total_units":   model.TotalUnits,
				"total_rolls":   model.TotalRolls,
				"result":        model.Result,
				"artifact_keys": model.ArtifactKeys,
				"unit_failures": model.UnitFailures,
				"error_message": model.ErrorMessage,
				"started_at":    model.StartedAt,
				"completed_at":  model.CompletedAt,
				"cancelled_at":  model.CancelledAt,
				"updated_at":    model.UpdatedAt,
				"version":       model.Version,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewDomainError("CONCURRENT_MODIFICATION", "The job has been modified by another worker")
		}
		return nil
	})
}

// CountForTenant counts jobs for a tenant with optional filters
func (r *GormGangsheetJobRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.GangsheetJobModel{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Delete deletes a job by ID
func (r *GormGangsheetJobRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.GangsheetJobModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// applyFilter applies filter options to the query
func (r *GormGangsheetJobRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		sortField := ValidateSortField(filter.OrderBy, GangsheetJobSortFields, "")
		if sortField != "" {
			query = query.Order(sortField + " " + ValidateSortOrder(filter.OrderDir))
		}
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// applyFilterWithoutPagination applies only the where-clause filters
func (r *GormGangsheetJobRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		if GangsheetJobSortFields[key] {
			query = query.Where(key+" = ?", value)
		}
	}
	return query
}

func toDomainJobs(jobModels []models.GangsheetJobModel) ([]gangsheet.GangsheetJob, error) {
	jobs := make([]gangsheet.GangsheetJob, len(jobModels))
	for i := range jobModels {
		job, err := jobModels[i].ToDomain()
		if err != nil {
			return nil, err
		}
		jobs[i] = *job
	}
	return jobs, nil
}
