package gangsheet

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/unaytac-cmd/printnest-sub005/internal/domain/gangsheet"
)

// =============================================================================
// Requests
// =============================================================================

// SettingsOverridePayload carries optional per-job overrides of the tenant's
// roll settings. Absent fields keep the tenant defaults.
type SettingsOverridePayload struct {
	RollWidth   *decimal.Decimal `json:"roll_width,omitempty"`
	RollLength  *decimal.Decimal `json:"roll_length,omitempty"`
	DPI         *int             `json:"dpi,omitempty"`
	Gap         *decimal.Decimal `json:"gap,omitempty"`
	Border      *bool            `json:"border,omitempty"`
	BorderSize  *decimal.Decimal `json:"border_size,omitempty"`
	BorderColor *string          `json:"border_color,omitempty"`
}

func (p *SettingsOverridePayload) toOverride() *gangsheet.SettingsOverride {
	if p == nil {
		return nil
	}
	return &gangsheet.SettingsOverride{
		RollWidth:   p.RollWidth,
		RollLength:  p.RollLength,
		DPI:         p.DPI,
		Gap:         p.Gap,
		Border:      p.Border,
		BorderSize:  p.BorderSize,
		BorderColor: p.BorderColor,
	}
}

// CreateJobRequest starts gangsheet generation for an order
type CreateJobRequest struct {
	OrderID  uuid.UUID                `json:"order_id" binding:"required"`
	Settings *SettingsOverridePayload `json:"settings,omitempty"`
}

// ListJobsRequest filters the tenant's job list
type ListJobsRequest struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Phase    string `form:"phase"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir"`
}

// UpdateSettingsRequest replaces the tenant's default roll settings
type UpdateSettingsRequest struct {
	RollWidth   decimal.Decimal `json:"roll_width" binding:"required"`
	RollLength  decimal.Decimal `json:"roll_length" binding:"required"`
	DPI         int             `json:"dpi" binding:"required"`
	Gap         decimal.Decimal `json:"gap"`
	Border      bool            `json:"border"`
	BorderSize  decimal.Decimal `json:"border_size"`
	BorderColor string          `json:"border_color"`
}

// =============================================================================
// Responses
// =============================================================================

// RollSettingsResponse is the API view of roll settings
type RollSettingsResponse struct {
	RollWidth   decimal.Decimal `json:"roll_width"`
	RollLength  decimal.Decimal `json:"roll_length"`
	DPI         int             `json:"dpi"`
	Gap         decimal.Decimal `json:"gap"`
	Border      bool            `json:"border"`
	BorderSize  decimal.Decimal `json:"border_size"`
	BorderColor string          `json:"border_color"`
	PixelWidth  int             `json:"pixel_width"`
	PixelLength int             `json:"pixel_length"`
}

func toSettingsResponse(s gangsheet.RollSettings) *RollSettingsResponse {
	return &RollSettingsResponse{
		RollWidth:   s.RollWidth,
		RollLength:  s.RollLength,
		DPI:         s.DPI,
		Gap:         s.Gap,
		Border:      s.Border,
		BorderSize:  s.BorderSize,
		BorderColor: s.BorderColor,
		PixelWidth:  s.PixelWidth(),
		PixelLength: s.PixelLength(),
	}
}

// ArtifactResponse is one rendered roll with its time-limited download URL
type ArtifactResponse struct {
	RollNumber  int       `json:"roll_number"`
	StorageKey  string    `json:"storage_key"`
	DownloadURL string    `json:"download_url,omitempty"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
}

// UnitFailureResponse reports a design copy that could not be rendered
type UnitFailureResponse struct {
	RollNumber     int       `json:"roll_number"`
	Seq            int       `json:"seq"`
	SourceURL      string    `json:"source_url"`
	OrderProductID uuid.UUID `json:"order_product_id"`
	Reason         string    `json:"reason"`
}

// RollSummaryResponse summarizes one packed roll
type RollSummaryResponse struct {
	Number     int `json:"number"`
	Placements int `json:"placements"`
	UsedHeight int `json:"used_height"`
}

// JobResponse is the API view of a gangsheet job
type JobResponse struct {
	ID           uuid.UUID             `json:"id"`
	OrderID      uuid.UUID             `json:"order_id"`
	Phase        string                `json:"phase"`
	Progress     int                   `json:"progress"`
	Settings     *RollSettingsResponse `json:"settings"`
	TotalUnits   int                   `json:"total_units"`
	TotalRolls   int                   `json:"total_rolls"`
	Rolls        []RollSummaryResponse `json:"rolls,omitempty"`
	Artifacts    []ArtifactResponse    `json:"artifacts,omitempty"`
	UnitFailures []UnitFailureResponse `json:"unit_failures,omitempty"`
	ErrorMessage string                `json:"error_message,omitempty"`
	RequestedBy  uuid.UUID             `json:"requested_by"`
	CreatedAt    time.Time             `json:"created_at"`
	StartedAt    *time.Time            `json:"started_at,omitempty"`
	CompletedAt  *time.Time            `json:"completed_at,omitempty"`
	CancelledAt  *time.Time            `json:"cancelled_at,omitempty"`
}

func toJobResponse(job *gangsheet.GangsheetJob) *JobResponse {
	resp := &JobResponse{
		ID:           job.ID,
		OrderID:      job.OrderID,
		Phase:        job.Phase.String(),
		Progress:     job.Progress,
		Settings:     toSettingsResponse(job.Settings),
		TotalUnits:   job.TotalUnits,
		TotalRolls:   job.TotalRolls,
		ErrorMessage: job.ErrorMessage,
		RequestedBy:  job.RequestedBy,
		CreatedAt:    job.CreatedAt,
		StartedAt:    job.StartedAt,
		CompletedAt:  job.CompletedAt,
		CancelledAt:  job.CancelledAt,
	}

	if job.Result != nil {
		resp.Rolls = make([]RollSummaryResponse, 0, len(job.Result.Rolls))
		for _, roll := range job.Result.Rolls {
			resp.Rolls = append(resp.Rolls, RollSummaryResponse{
				Number:     roll.Number,
				Placements: len(roll.Placements),
				UsedHeight: roll.UsedHeight,
			})
		}
	}

	for _, f := range job.UnitFailures {
		resp.UnitFailures = append(resp.UnitFailures, UnitFailureResponse{
			RollNumber:     f.RollNumber,
			Seq:            f.Seq,
			SourceURL:      f.SourceURL,
			OrderProductID: f.OrderProductID,
			Reason:         f.Reason,
		})
	}

	return resp
}

// JobStatusResponse is the lightweight polling view of a running job
type JobStatusResponse struct {
	ID        uuid.UUID `json:"id"`
	Phase     string    `json:"phase"`
	Progress  int       `json:"progress"`
	Message   string    `json:"message,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListJobsResponse is a paginated job list
type ListJobsResponse struct {
	Jobs     []JobResponse `json:"jobs"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}
