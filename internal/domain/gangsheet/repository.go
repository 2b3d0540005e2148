package gangsheet

import (
	"context"

	"github.com/google/uuid"

	"github.com/unaytac-cmd/printnest-sub005/internal/domain/shared"
)

// GangsheetJobRepository defines the interface for gangsheet job persistence
type GangsheetJobRepository interface {
	// FindByID finds a job by ID
	FindByID(ctx context.Context, id uuid.UUID) (*GangsheetJob, error)

	// FindByIDForTenant finds a job by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*GangsheetJob, error)

	// FindByOrder finds all jobs issued for an order, newest first
	FindByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]GangsheetJob, error)

	// FindAllForTenant finds all jobs for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]GangsheetJob, error)

	// FindByPhase finds jobs in a given phase for a tenant
	FindByPhase(ctx context.Context, tenantID uuid.UUID, phase JobPhase, filter shared.Filter) ([]GangsheetJob, error)

	// Save creates or updates a job
	Save(ctx context.Context, job *GangsheetJob) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, job *GangsheetJob) error

	// CountForTenant counts jobs for a tenant with optional filters
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// Delete deletes a job (soft delete)
	Delete(ctx context.Context, id uuid.UUID) error
}

// RollSettingsRepository defines the interface for per-tenant roll settings
// persistence. Each tenant has at most one settings row; reads fall back to
// DefaultRollSettings when none is stored.
type RollSettingsRepository interface {
	// FindForTenant returns the tenant's stored settings, or
	// shared.ErrNotFound when the tenant has never saved any
	FindForTenant(ctx context.Context, tenantID uuid.UUID) (*RollSettings, error)

	// Save creates or replaces the tenant's settings
	Save(ctx context.Context, tenantID uuid.UUID, settings RollSettings) error

	// Delete removes the tenant's settings, restoring defaults
	Delete(ctx context.Context, tenantID uuid.UUID) error
}
