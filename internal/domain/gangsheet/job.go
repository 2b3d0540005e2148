package gangsheet

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/unaytac-cmd/printnest-sub005/internal/domain/shared"
)

// GangsheetJob represents a gangsheet generation job aggregate root.
// It tracks a single order's journey from request to uploaded roll images,
// carrying an immutable snapshot of the roll settings that were in effect
// when the job was created so later settings changes never affect a job
// already in flight.
type GangsheetJob struct {
	shared.TenantAggregateRoot
	OrderID      uuid.UUID
	Phase        JobPhase
	Progress     int // 0-100
	Settings     RollSettings
	TotalUnits   int
	TotalRolls   int
	Result       *PlacementResult
	ArtifactKeys []string
	UnitFailures []UnitFailure
	ErrorMessage string
	RequestedBy  uuid.UUID
	StartedAt    *time.Time
	CompletedAt  *time.Time
	CancelledAt  *time.Time
}

// NewGangsheetJob creates a new gangsheet job in PENDING phase with a
// validated settings snapshot
func NewGangsheetJob(tenantID, orderID, requestedBy uuid.UUID, settings RollSettings) (*GangsheetJob, error) {
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order ID cannot be empty")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	job := &GangsheetJob{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		OrderID:             orderID,
		Phase:               JobPhasePending,
		Settings:            settings,
		RequestedBy:         requestedBy,
	}

	job.AddDomainEvent(NewGangsheetJobCreatedEvent(job))

	return job, nil
}

// AdvancePhase moves the job to the next phase on the happy path.
// Terminal phases and skipped phases are rejected.
func (j *GangsheetJob) AdvancePhase(target JobPhase) error {
	if !j.Phase.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot move job from %s to %s", j.Phase, target))
	}

	now := time.Now()
	if j.Phase == JobPhasePending {
		j.StartedAt = &now
	}
	from := j.Phase
	j.Phase = target
	j.UpdatedAt = now

	j.AddDomainEvent(NewGangsheetJobPhaseChangedEvent(j, from))

	return nil
}

// SetProgress updates the coarse completion percentage. Progress is
// monotonic within a job; regressions are clamped away rather than erroring
// so concurrent out-of-order reporters cannot fail the pipeline.
func (j *GangsheetJob) SetProgress(percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	if percent <= j.Progress {
		return
	}
	j.Progress = percent
	j.UpdatedAt = time.Now()
}

// RecordPlan attaches the placement result computed in the CALCULATING phase
func (j *GangsheetJob) RecordPlan(result *PlacementResult) error {
	if result == nil {
		return shared.NewDomainError("INVALID_INPUT", "Placement result cannot be nil")
	}
	if j.Phase.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot record plan for job in %s phase", j.Phase))
	}

	j.Result = result
	j.TotalUnits = result.TotalUnits
	j.TotalRolls = result.TotalRolls
	j.UpdatedAt = time.Now()

	return nil
}

// RecordUnitFailures records units that could not be drawn during
// compositing. Partial failures do not fail the job; they surface as
// warnings on completion.
func (j *GangsheetJob) RecordUnitFailures(failures []UnitFailure) {
	if len(failures) == 0 {
		return
	}
	j.UnitFailures = append(j.UnitFailures, failures...)
	j.UpdatedAt = time.Now()
}

// AttachArtifacts records the storage keys of the uploaded roll images
func (j *GangsheetJob) AttachArtifacts(keys []string) error {
	if j.Phase != JobPhaseUploading {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot attach artifacts to job in %s phase", j.Phase))
	}
	j.ArtifactKeys = append([]string(nil), keys...)
	j.UpdatedAt = time.Now()
	return nil
}

// Complete marks the job as successfully finished. A job that carries unit
// failures still completes; callers inspect HasWarnings afterwards.
func (j *GangsheetJob) Complete() error {
	if !j.Phase.CanTransitionTo(JobPhaseCompleted) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot complete job in %s phase", j.Phase))
	}

	now := time.Now()
	j.Phase = JobPhaseCompleted
	j.Progress = 100
	j.CompletedAt = &now
	j.UpdatedAt = now

	j.AddDomainEvent(NewGangsheetJobCompletedEvent(j))

	return nil
}

// Fail marks the job as failed with a terminal error message
func (j *GangsheetJob) Fail(message string) error {
	if !j.Phase.CanTransitionTo(JobPhaseFailed) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot fail job in %s phase", j.Phase))
	}
	if message == "" {
		return shared.NewDomainError("INVALID_INPUT", "Failure message is required")
	}

	j.Phase = JobPhaseFailed
	j.ErrorMessage = message
	j.UpdatedAt = time.Now()

	j.AddDomainEvent(NewGangsheetJobFailedEvent(j))

	return nil
}

// Cancel cancels the job before it reaches a terminal phase
func (j *GangsheetJob) Cancel(reason string) error {
	if !j.Phase.CanTransitionTo(JobPhaseCancelled) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel job in %s phase", j.Phase))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}

	now := time.Now()
	j.Phase = JobPhaseCancelled
	j.ErrorMessage = reason
	j.CancelledAt = &now
	j.UpdatedAt = now

	j.AddDomainEvent(NewGangsheetJobCancelledEvent(j))

	return nil
}

// HasWarnings reports whether any units were skipped during compositing
func (j *GangsheetJob) HasWarnings() bool {
	return len(j.UnitFailures) > 0
}
