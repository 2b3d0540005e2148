package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/unaytac-cmd/printnest-sub005/internal/domain/gangsheet"
	"github.com/unaytac-cmd/printnest-sub005/internal/domain/shared"
)

// Job phases are stored as compact numeric codes; the string phase exists
// only in the domain. The codes are part of the schema, never reorder them.
const (
	jobStatusPending         = 0
	jobStatusFetchingDesigns = 1
	jobStatusCalculating     = 2
	jobStatusGenerating      = 3
	jobStatusUploading       = 4
	jobStatusCompleted       = 5
	jobStatusFailed          = 6
	jobStatusCancelled       = 7
)

var phaseToStatus = map[gangsheet.JobPhase]int{
	gangsheet.JobPhasePending:         jobStatusPending,
	gangsheet.JobPhaseFetchingDesigns: jobStatusFetchingDesigns,
	gangsheet.JobPhaseCalculating:     jobStatusCalculating,
	gangsheet.JobPhaseGenerating:      jobStatusGenerating,
	gangsheet.JobPhaseUploading:       jobStatusUploading,
	gangsheet.JobPhaseCompleted:       jobStatusCompleted,
	gangsheet.JobPhaseFailed:          jobStatusFailed,
	gangsheet.JobPhaseCancelled:       jobStatusCancelled,
}

var statusToPhase = map[int]gangsheet.JobPhase{
	jobStatusPending:         gangsheet.JobPhasePending,
	jobStatusFetchingDesigns: gangsheet.JobPhaseFetchingDesigns,
	jobStatusCalculating:     gangsheet.JobPhaseCalculating,
	jobStatusGenerating:      gangsheet.JobPhaseGenerating,
	jobStatusUploading:       gangsheet.JobPhaseUploading,
	jobStatusCompleted:       gangsheet.JobPhaseCompleted,
	jobStatusFailed:          gangsheet.JobPhaseFailed,
	jobStatusCancelled:       gangsheet.JobPhaseCancelled,
}

// StatusCodeForPhase returns the stored status code for a domain phase.
// Repositories use it to build phase-filtered queries.
func StatusCodeForPhase(phase gangsheet.JobPhase) (int, error) {
	status, ok := phaseToStatus[phase]
	if !ok {
		return 0, fmt.Errorf("unknown job phase %q", phase)
	}
	return status, nil
}

// GangsheetJobModel is the GORM model for the gangsheet_jobs table
type GangsheetJobModel struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key"`
	TenantID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	OrderID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	Status       int        `gorm:"not null;default:0;index"`
	Progress     int        `gorm:"not null;default:0"`
	Settings     string     `gorm:"type:jsonb;not null"`
	TotalUnits   int        `gorm:"column:total_units;not null;default:0"`
	TotalRolls   int        `gorm:"column:total_rolls;not null;default:0"`
	Result       string     `gorm:"type:jsonb"`
	ArtifactKeys string     `gorm:"column:artifact_keys;type:jsonb;default:'[]'"`
	UnitFailures string     `gorm:"column:unit_failures;type:jsonb;default:'[]'"`
	ErrorMessage string     `gorm:"column:error_message;type:text"`
	RequestedBy  uuid.UUID  `gorm:"type:uuid"`
	StartedAt    *time.Time `gorm:"column:started_at"`
	CompletedAt  *time.Time `gorm:"column:completed_at"`
	CancelledAt  *time.Time `gorm:"column:cancelled_at"`
	CreatedAt    time.Time  `gorm:"not null"`
	UpdatedAt    time.Time  `gorm:"not null"`
	Version      int        `gorm:"not null;default:1"`
}

// TableName returns the table name for GangsheetJobModel
func (GangsheetJobModel) TableName() string {
	return "gangsheet_jobs"
}

// ToDomain converts GangsheetJobModel to domain GangsheetJob
func (m *GangsheetJobModel) ToDomain() (*gangsheet.GangsheetJob, error) {
	phase, ok := statusToPhase[m.Status]
	if !ok {
		return nil, fmt.Errorf("gangsheet job %s has unknown status code %d", m.ID, m.Status)
	}

	var settings gangsheet.RollSettings
	if err := json.Unmarshal([]byte(m.Settings), &settings); err != nil {
		return nil, fmt.Errorf("unmarshal job settings: %w", err)
	}

	var result *gangsheet.PlacementResult
	if m.Result != "" && m.Result != "null" {
		result = &gangsheet.PlacementResult{}
		if err := json.Unmarshal([]byte(m.Result), result); err != nil {
			return nil, fmt.Errorf("unmarshal placement result: %w", err)
		}
	}

	var artifactKeys []string
	if m.ArtifactKeys != "" {
		if err := json.Unmarshal([]byte(m.ArtifactKeys), &artifactKeys); err != nil {
			return nil, fmt.Errorf("unmarshal artifact keys: %w", err)
		}
	}

	var unitFailures []gangsheet.UnitFailure
	if m.UnitFailures != "" {
		if err := json.Unmarshal([]byte(m.UnitFailures), &unitFailures); err != nil {
			return nil, fmt.Errorf("unmarshal unit failures: %w", err)
		}
	}

	return &gangsheet.GangsheetJob{
		TenantAggregateRoot: shared.TenantAggregateRoot{
			BaseAggregateRoot: shared.BaseAggregateRoot{
				BaseEntity: shared.BaseEntity{
					ID:        m.ID,
					CreatedAt: m.CreatedAt,
					UpdatedAt: m.UpdatedAt,
				},
				Version: m.Version,
			},
			TenantID: m.TenantID,
		},
		OrderID:      m.OrderID,
		Phase:        phase,
		Progress:     m.Progress,
		Settings:     settings,
		TotalUnits:   m.TotalUnits,
		TotalRolls:   m.TotalRolls,
		Result:       result,
		ArtifactKeys: artifactKeys,
		UnitFailures: unitFailures,
		ErrorMessage: m.ErrorMessage,
		RequestedBy:  m.RequestedBy,
		StartedAt:    m.StartedAt,
		CompletedAt:  m.CompletedAt,
		CancelledAt:  m.CancelledAt,
	}, nil
}

// GangsheetJobModelFromDomain creates a GangsheetJobModel from domain GangsheetJob
func GangsheetJobModelFromDomain(job *gangsheet.GangsheetJob) (*GangsheetJobModel, error) {
	status, ok := phaseToStatus[job.Phase]
	if !ok {
		return nil, fmt.Errorf("gangsheet job %s has unknown phase %q", job.ID, job.Phase)
	}

	settings, err := json.Marshal(job.Settings)
	if err != nil {
		return nil, fmt.Errorf("marshal job settings: %w", err)
	}

	result := ""
	if job.Result != nil {
		b, err := json.Marshal(job.Result)
		if err != nil {
			return nil, fmt.Errorf("marshal placement result: %w", err)
		}
		result = string(b)
	}

	artifactKeys, err := json.Marshal(emptyIfNil(job.ArtifactKeys))
	if err != nil {
		return nil, fmt.Errorf("marshal artifact keys: %w", err)
	}

	failures := job.UnitFailures
	if failures == nil {
		failures = []gangsheet.UnitFailure{}
	}
	unitFailures, err := json.Marshal(failures)
	if err != nil {
		return nil, fmt.Errorf("marshal unit failures: %w", err)
	}

	return &GangsheetJobModel{
		ID:           job.ID,
		TenantID:     job.TenantID,
		OrderID:      job.OrderID,
		Status:       status,
		Progress:     job.Progress,
		Settings:     string(settings),
		TotalUnits:   job.TotalUnits,
		TotalRolls:   job.TotalRolls,
		Result:       result,
		ArtifactKeys: string(artifactKeys),
		UnitFailures: string(unitFailures),
		ErrorMessage: job.ErrorMessage,
		RequestedBy:  job.RequestedBy,
		StartedAt:    job.StartedAt,
		CompletedAt:  job.CompletedAt,
		CancelledAt:  job.CancelledAt,
		CreatedAt:    job.CreatedAt,
		UpdatedAt:    job.UpdatedAt,
		Version:      job.Version,
	}, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// RollSettingsModel is the GORM model for the tenant_roll_settings table.
// One row per tenant.
type RollSettingsModel struct {
	TenantID    uuid.UUID       `gorm:"type:uuid;primary_key"`
	RollWidth   decimal.Decimal `gorm:"column:roll_width;type:numeric(8,3);not null"`
	RollLength  decimal.Decimal `gorm:"column:roll_length;type:numeric(8,3);not null"`
	DPI         int             `gorm:"column:dpi;not null"`
	Gap         decimal.Decimal `gorm:"type:numeric(6,3);not null"`
	Border      bool            `gorm:"not null;default:false"`
	BorderSize  decimal.Decimal `gorm:"column:border_size;type:numeric(6,3);not null"`
	BorderColor string          `gorm:"column:border_color;type:varchar(7);not null"`
	CreatedAt   time.Time       `gorm:"not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for RollSettingsModel
func (RollSettingsModel) TableName() string {
	return "tenant_roll_settings"
}

// ToDomain converts RollSettingsModel to domain RollSettings
func (m *RollSettingsModel) ToDomain() *gangsheet.RollSettings {
	return &gangsheet.RollSettings{
		RollWidth:   m.RollWidth,
		RollLength:  m.RollLength,
		DPI:         m.DPI,
		Gap:         m.Gap,
		Border:      m.Border,
		BorderSize:  m.BorderSize,
		BorderColor: m.BorderColor,
	}
}

// RollSettingsModelFromDomain creates a RollSettingsModel from domain RollSettings
func RollSettingsModelFromDomain(tenantID uuid.UUID, s gangsheet.RollSettings) *RollSettingsModel {
	return &RollSettingsModel{
		TenantID:    tenantID,
		RollWidth:   s.RollWidth,
		RollLength:  s.RollLength,
		DPI:         s.DPI,
		Gap:         s.Gap,
		Border:      s.Border,
		BorderSize:  s.BorderSize,
		BorderColor: s.BorderColor,
	}
}
