package gangsheet

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/unaytac-cmd/printnest-sub005/internal/domain/gangsheet"
)

// DesignProvider fetches the ordered designs for an order from the upstream
// order service. Implemented by the infrastructure layer (HTTP client, or an
// in-process stub for tests).
type DesignProvider interface {
	// FetchOrderDesigns returns every printable design of the order,
	// quantity included, in the order the customer placed them.
	FetchOrderDesigns(ctx context.Context, tenantID, orderID uuid.UUID) ([]gangsheet.DesignInput, error)
}

// ArtifactStorage persists rendered roll images and hands out time-limited
// download URLs. Implemented by the infrastructure layer (S3-compatible
// object storage, or an in-memory stub for tests).
type ArtifactStorage interface {
	// UploadArtifact stores a rendered roll under the given storage key.
	UploadArtifact(ctx context.Context, storageKey, contentType string, body []byte) error

	// GenerateDownloadURL generates a presigned URL for downloading an artifact.
	// Returns the download URL and expiration time.
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)

	// DeleteArtifact removes a stored artifact.
	DeleteArtifact(ctx context.Context, storageKey string) error
}

// JobProgress is the fast-changing progress snapshot of a running job. It is
// kept out of the relational store so status polling does not contend with
// the worker's optimistic-lock writes.
type JobProgress struct {
	Phase     gangsheet.JobPhase `json:"phase"`
	Progress  int                `json:"progress"`
	Message   string             `json:"message,omitempty"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// ProgressStore tracks live job progress and cancellation requests.
// Entries expire on their own; the relational row remains the durable record.
type ProgressStore interface {
	// SetProgress overwrites the progress snapshot for a job.
	SetProgress(ctx context.Context, jobID uuid.UUID, progress JobProgress) error

	// GetProgress returns the current snapshot, or shared.ErrNotFound when
	// the job has no live entry (not started, finished, or expired).
	GetProgress(ctx context.Context, jobID uuid.UUID) (*JobProgress, error)

	// RequestCancel flags the job for cancellation. Returns true if this
	// call set the flag, false if it was already set.
	RequestCancel(ctx context.Context, jobID uuid.UUID) (bool, error)

	// IsCancelRequested reports whether cancellation has been requested.
	IsCancelRequested(ctx context.Context, jobID uuid.UUID) (bool, error)

	// Clear removes the progress snapshot and cancel flag for a job.
	Clear(ctx context.Context, jobID uuid.UUID) error
}

// RenderedRoll is one finished roll image produced by the compositor.
type RenderedRoll struct {
	RollNumber int
	Width      int // pixels
	Height     int // pixels, the roll's used height
	PNG        []byte
	Failures   []gangsheet.UnitFailure
}

// RollCompositor renders the rolls of a placement plan into PNG images.
// Per-unit fetch or decode failures do not abort the render; they are
// reported on the returned rolls and the unit's footprint is left blank.
type RollCompositor interface {
	ComposeRolls(ctx context.Context, settings gangsheet.RollSettings, plan *gangsheet.PlacementResult) ([]RenderedRoll, error)
}
