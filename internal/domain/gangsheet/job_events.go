package gangsheet

import (
	"github.com/google/uuid"

	"github.com/unaytac-cmd/printnest-sub005/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeGangsheetJob = "GangsheetJob"

// Event type constants
const (
	EventTypeGangsheetJobCreated      = "GangsheetJobCreated"
	EventTypeGangsheetJobPhaseChanged = "GangsheetJobPhaseChanged"
	EventTypeGangsheetJobCompleted    = "GangsheetJobCompleted"
	EventTypeGangsheetJobFailed       = "GangsheetJobFailed"
	EventTypeGangsheetJobCancelled    = "GangsheetJobCancelled"
)

// GangsheetJobCreatedEvent is raised when a new gangsheet job is created
type GangsheetJobCreatedEvent struct {
	shared.BaseDomainEvent
	JobID       uuid.UUID `json:"job_id"`
	OrderID     uuid.UUID `json:"order_id"`
	RequestedBy uuid.UUID `json:"requested_by"`
	DPI         int       `json:"dpi"`
	RollWidth   string    `json:"roll_width"`
	RollLength  string    `json:"roll_length"`
}

// NewGangsheetJobCreatedEvent creates a new GangsheetJobCreatedEvent
func NewGangsheetJobCreatedEvent(job *GangsheetJob) *GangsheetJobCreatedEvent {
	return &GangsheetJobCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGangsheetJobCreated, AggregateTypeGangsheetJob, job.ID, job.TenantID),
		JobID:           job.ID,
		OrderID:         job.OrderID,
		RequestedBy:     job.RequestedBy,
		DPI:             job.Settings.DPI,
		RollWidth:       job.Settings.RollWidth.String(),
		RollLength:      job.Settings.RollLength.String(),
	}
}

// EventType returns the event type name
func (e *GangsheetJobCreatedEvent) EventType() string {
	return EventTypeGangsheetJobCreated
}

// GangsheetJobPhaseChangedEvent is raised on every happy-path phase transition
type GangsheetJobPhaseChangedEvent struct {
	shared.BaseDomainEvent
	JobID     uuid.UUID `json:"job_id"`
	OrderID   uuid.UUID `json:"order_id"`
	FromPhase JobPhase  `json:"from_phase"`
	ToPhase   JobPhase  `json:"to_phase"`
	Progress  int       `json:"progress"`
}

// NewGangsheetJobPhaseChangedEvent creates a new GangsheetJobPhaseChangedEvent
func NewGangsheetJobPhaseChangedEvent(job *GangsheetJob, from JobPhase) *GangsheetJobPhaseChangedEvent {
	return &GangsheetJobPhaseChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGangsheetJobPhaseChanged, AggregateTypeGangsheetJob, job.ID, job.TenantID),
		JobID:           job.ID,
		OrderID:         job.OrderID,
		FromPhase:       from,
		ToPhase:         job.Phase,
		Progress:        job.Progress,
	}
}

// EventType returns the event type name
func (e *GangsheetJobPhaseChangedEvent) EventType() string {
	return EventTypeGangsheetJobPhaseChanged
}

// GangsheetJobCompletedEvent is raised when a job finishes successfully.
// SkippedUnits is non-zero when the job completed with warnings.
type GangsheetJobCompletedEvent struct {
	shared.BaseDomainEvent
	JobID        uuid.UUID `json:"job_id"`
	OrderID      uuid.UUID `json:"order_id"`
	TotalUnits   int       `json:"total_units"`
	TotalRolls   int       `json:"total_rolls"`
	SkippedUnits int       `json:"skipped_units"`
	ArtifactKeys []string  `json:"artifact_keys"`
}

// NewGangsheetJobCompletedEvent creates a new GangsheetJobCompletedEvent
func NewGangsheetJobCompletedEvent(job *GangsheetJob) *GangsheetJobCompletedEvent {
	return &GangsheetJobCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGangsheetJobCompleted, AggregateTypeGangsheetJob, job.ID, job.TenantID),
		JobID:           job.ID,
		OrderID:         job.OrderID,
		TotalUnits:      job.TotalUnits,
		TotalRolls:      job.TotalRolls,
		SkippedUnits:    len(job.UnitFailures),
		ArtifactKeys:    job.ArtifactKeys,
	}
}

// EventType returns the event type name
func (e *GangsheetJobCompletedEvent) EventType() string {
	return EventTypeGangsheetJobCompleted
}

// GangsheetJobFailedEvent is raised when a job fails terminally
type GangsheetJobFailedEvent struct {
	shared.BaseDomainEvent
	JobID   uuid.UUID `json:"job_id"`
	OrderID uuid.UUID `json:"order_id"`
	Reason  string    `json:"reason"`
}

// NewGangsheetJobFailedEvent creates a new GangsheetJobFailedEvent
func NewGangsheetJobFailedEvent(job *GangsheetJob) *GangsheetJobFailedEvent {
	return &GangsheetJobFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGangsheetJobFailed, AggregateTypeGangsheetJob, job.ID, job.TenantID),
		JobID:           job.ID,
		OrderID:         job.OrderID,
		Reason:          job.ErrorMessage,
	}
}

// EventType returns the event type name
func (e *GangsheetJobFailedEvent) EventType() string {
	return EventTypeGangsheetJobFailed
}

// GangsheetJobCancelledEvent is raised when a job is cancelled
type GangsheetJobCancelledEvent struct {
	shared.BaseDomainEvent
	JobID   uuid.UUID `json:"job_id"`
	OrderID uuid.UUID `json:"order_id"`
	Reason  string    `json:"reason"`
}

// NewGangsheetJobCancelledEvent creates a new GangsheetJobCancelledEvent
func NewGangsheetJobCancelledEvent(job *GangsheetJob) *GangsheetJobCancelledEvent {
	return &GangsheetJobCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGangsheetJobCancelled, AggregateTypeGangsheetJob, job.ID, job.TenantID),
		JobID:           job.ID,
		OrderID:         job.OrderID,
		Reason:          job.ErrorMessage,
	}
}

// EventType returns the event type name
func (e *GangsheetJobCancelledEvent) EventType() string {
	return EventTypeGangsheetJobCancelled
}
