package gangsheet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unaytac-cmd/printnest-sub005/internal/domain/gangsheet"
	"github.com/unaytac-cmd/printnest-sub005/internal/domain/shared"
)

// ErrJobCancelled is returned by Run when the job was cancelled mid-flight.
var ErrJobCancelled = errors.New("gangsheet job cancelled")

// Phase progress baselines. The compositor and uploader interpolate within
// their band; SetProgress is monotonic so a late write never moves backwards.
const (
	progressFetching    = 10
	progressCalculating = 30
	progressGenerating  = 50
	progressUploading   = 85
	progressDone        = 100
)

// GangsheetService orchestrates gangsheet jobs end to end: design fetch,
// size resolution, placement, composition and artifact upload.
type GangsheetService struct {
	jobRepo      gangsheet.GangsheetJobRepository
	settingsRepo gangsheet.RollSettingsRepository
	designs      DesignProvider
	compositor   RollCompositor
	artifacts    ArtifactStorage
	progress     ProgressStore
	maxDesigns   int
	logger       *zap.Logger
}

// NewGangsheetService creates a new GangsheetService
func NewGangsheetService(
	jobRepo gangsheet.GangsheetJobRepository,
	settingsRepo gangsheet.RollSettingsRepository,
	designs DesignProvider,
	compositor RollCompositor,
	artifacts ArtifactStorage,
	progress ProgressStore,
	maxDesigns int,
	logger *zap.Logger,
) *GangsheetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxDesigns < 1 {
		maxDesigns = 500
	}
	return &GangsheetService{
		jobRepo:      jobRepo,
		settingsRepo: settingsRepo,
		designs:      designs,
		compositor:   compositor,
		artifacts:    artifacts,
		progress:     progress,
		maxDesigns:   maxDesigns,
		logger:       logger,
	}
}

// =============================================================================
// Job lifecycle
// =============================================================================

// CreateJob registers a new gangsheet job for an order. The job starts in
// PENDING; Run drives it through the pipeline.
func (s *GangsheetService) CreateJob(ctx context.Context, tenantID, requestedBy uuid.UUID, req CreateJobRequest) (*JobResponse, error) {
	defaults, err := s.tenantSettings(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	settings, err := gangsheet.ResolveSettings(defaults, req.Settings.toOverride())
	if err != nil {
		return nil, err
	}

	job, err := gangsheet.NewGangsheetJob(tenantID, req.OrderID, requestedBy, settings)
	if err != nil {
		return nil, err
	}

	if err := s.jobRepo.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	s.publishProgress(ctx, job, "")

	s.logger.Info("gangsheet job created",
		zap.String("job_id", job.ID.String()),
		zap.String("order_id", job.OrderID.String()))

	return toJobResponse(job), nil
}

// Run executes the generation pipeline for a pending job. It is safe to run
// in a background goroutine; all failures are recorded on the job itself.
func (s *GangsheetService) Run(ctx context.Context, jobID uuid.UUID) error {
	job, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load job: %w", err)
	}
	if job.Phase != gangsheet.JobPhasePending {
		return shared.NewDomainError("INVALID_PHASE", "Job has already been started")
	}

	// Phase 1: fetch designs
	if err := s.advance(ctx, job, gangsheet.JobPhaseFetchingDesigns, progressFetching); err != nil {
		return err
	}

	designs, err := s.designs.FetchOrderDesigns(ctx, job.TenantID, job.OrderID)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return s.cancelJob(ctx, job, "Cancelled while fetching designs")
		}
		return s.failJob(ctx, job, fmt.Sprintf("failed to fetch order designs: %v", err))
	}
	if len(designs) > s.maxDesigns {
		return s.failJob(ctx, job, fmt.Sprintf("order has %d designs, the limit is %d", len(designs), s.maxDesigns))
	}

	// Phase 2: resolve sizes and pack
	if err := s.advance(ctx, job, gangsheet.JobPhaseCalculating, progressCalculating); err != nil {
		return err
	}

	units, err := gangsheet.ExpandUnits(designs, job.Settings)
	if err != nil {
		return s.failJob(ctx, job, err.Error())
	}

	plan, err := gangsheet.NewPlanner(job.Settings).Plan(units)
	if err != nil {
		return s.failJob(ctx, job, err.Error())
	}
	if err := job.RecordPlan(plan); err != nil {
		return s.failJob(ctx, job, err.Error())
	}
	if err := s.saveProgress(ctx, job, progressGenerating); err != nil {
		return err
	}

	// Phase 3: render rolls
	if err := s.advance(ctx, job, gangsheet.JobPhaseGenerating, progressGenerating); err != nil {
		return err
	}

	rendered, err := s.compositor.ComposeRolls(ctx, job.Settings, plan)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return s.cancelJob(ctx, job, "Cancelled while rendering")
		}
		return s.failJob(ctx, job, fmt.Sprintf("failed to render rolls: %v", err))
	}

	var failures []gangsheet.UnitFailure
	for _, roll := range rendered {
		failures = append(failures, roll.Failures...)
	}
	job.RecordUnitFailures(failures)
	if plan.TotalUnits > 0 && len(failures) == plan.TotalUnits {
		return s.failJob(ctx, job, "every design failed to download or decode")
	}

	// Phase 4: upload artifacts
	if err := s.advance(ctx, job, gangsheet.JobPhaseUploading, progressUploading); err != nil {
		return err
	}

	keys := make([]string, 0, len(rendered))
	for _, roll := range rendered {
		key := artifactKey(job.TenantID, job.ID, roll.RollNumber)
		if err := s.artifacts.UploadArtifact(ctx, key, "image/png", roll.PNG); err != nil {
			if errors.Is(err, context.Canceled) {
				return s.cancelJob(ctx, job, "Cancelled while uploading")
			}
			return s.failJob(ctx, job, fmt.Sprintf("failed to upload roll %d: %v", roll.RollNumber, err))
		}
		keys = append(keys, key)
	}
	if len(keys) > 0 {
		if err := job.AttachArtifacts(keys); err != nil {
			return s.failJob(ctx, job, err.Error())
		}
	}

	// Done
	if err := job.Complete(); err != nil {
		return s.failJob(ctx, job, err.Error())
	}
	if err := s.jobRepo.SaveWithLock(ctx, job); err != nil {
		return fmt.Errorf("failed to save completed job: %w", err)
	}
	s.publishProgress(ctx, job, "")

	s.logger.Info("gangsheet job completed",
		zap.String("job_id", job.ID.String()),
		zap.Int("total_units", job.TotalUnits),
		zap.Int("total_rolls", job.TotalRolls),
		zap.Int("unit_failures", len(job.UnitFailures)))

	return nil
}

// GetJob returns the full job view, with presigned artifact URLs when the
// job has uploaded rolls.
func (s *GangsheetService) GetJob(ctx context.Context, tenantID, jobID uuid.UUID) (*JobResponse, error) {
	job, err := s.jobRepo.FindByIDForTenant(ctx, tenantID, jobID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Job not found")
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	resp := toJobResponse(job)
	for i, key := range job.ArtifactKeys {
		artifact := ArtifactResponse{
			RollNumber: i + 1,
			StorageKey: key,
		}
		url, expiresAt, err := s.artifacts.GenerateDownloadURL(ctx, key, 0)
		if err != nil {
			s.logger.Warn("failed to presign artifact",
				zap.String("job_id", job.ID.String()),
				zap.String("key", key),
				zap.Error(err))
		} else {
			artifact.DownloadURL = url
			artifact.ExpiresAt = expiresAt
		}
		resp.Artifacts = append(resp.Artifacts, artifact)
	}

	return resp, nil
}

// GetJobStatus returns the lightweight polling view. Live progress comes
// from the progress store; finished or expired jobs fall back to the
// persisted row.
func (s *GangsheetService) GetJobStatus(ctx context.Context, tenantID, jobID uuid.UUID) (*JobStatusResponse, error) {
	job, err := s.jobRepo.FindByIDForTenant(ctx, tenantID, jobID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Job not found")
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	if !job.Phase.IsTerminal() {
		if live, err := s.progress.GetProgress(ctx, jobID); err == nil {
			return &JobStatusResponse{
				ID:        jobID,
				Phase:     live.Phase.String(),
				Progress:  live.Progress,
				Message:   live.Message,
				UpdatedAt: live.UpdatedAt,
			}, nil
		}
	}

	return &JobStatusResponse{
		ID:        job.ID,
		Phase:     job.Phase.String(),
		Progress:  job.Progress,
		Message:   job.ErrorMessage,
		UpdatedAt: job.UpdatedAt,
	}, nil
}

// ListJobs returns the tenant's jobs, optionally filtered by phase.
func (s *GangsheetService) ListJobs(ctx context.Context, tenantID uuid.UUID, req ListJobsRequest) (*ListJobsResponse, error) {
	filter := shared.DefaultFilter()
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 && req.PageSize <= 100 {
		filter.PageSize = req.PageSize
	}
	if req.OrderBy != "" {
		filter.OrderBy = req.OrderBy
	}
	if req.OrderDir != "" {
		filter.OrderDir = req.OrderDir
	}

	var (
		jobs []gangsheet.GangsheetJob
		err  error
	)
	if req.Phase != "" {
		phase := gangsheet.JobPhase(req.Phase)
		if !phase.IsValid() {
			return nil, shared.NewDomainError("INVALID_INPUT", "Invalid job phase")
		}
		jobs, err = s.jobRepo.FindByPhase(ctx, tenantID, phase, filter)
	} else {
		jobs, err = s.jobRepo.FindAllForTenant(ctx, tenantID, filter)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	total, err := s.jobRepo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}

	resp := &ListJobsResponse{
		Jobs:     make([]JobResponse, 0, len(jobs)),
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}
	for i := range jobs {
		resp.Jobs = append(resp.Jobs, *toJobResponse(&jobs[i]))
	}
	return resp, nil
}

// ListOrderJobs returns every job issued for an order, newest first.
func (s *GangsheetService) ListOrderJobs(ctx context.Context, tenantID, orderID uuid.UUID) ([]JobResponse, error) {
	jobs, err := s.jobRepo.FindByOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order jobs: %w", err)
	}

	result := make([]JobResponse, 0, len(jobs))
	for i := range jobs {
		result = append(result, *toJobResponse(&jobs[i]))
	}
	return result, nil
}

// CancelJob requests cancellation of a job. Jobs that have not started are
// cancelled immediately; running jobs are flagged and the worker cancels at
// its next phase boundary.
func (s *GangsheetService) CancelJob(ctx context.Context, tenantID, jobID uuid.UUID, reason string) (*JobResponse, error) {
	job, err := s.jobRepo.FindByIDForTenant(ctx, tenantID, jobID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Job not found")
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	if reason == "" {
		reason = "Cancelled by user request"
	}

	if job.Phase == gangsheet.JobPhasePending {
		if err := job.Cancel(reason); err != nil {
			return nil, err
		}
		if err := s.jobRepo.SaveWithLock(ctx, job); err != nil {
			return nil, fmt.Errorf("failed to save cancelled job: %w", err)
		}
		s.publishProgress(ctx, job, reason)
		return toJobResponse(job), nil
	}

	if job.Phase.IsTerminal() {
		return nil, shared.NewDomainError("ALREADY_TERMINAL", "Job has already finished")
	}

	if _, err := s.progress.RequestCancel(ctx, jobID); err != nil {
		return nil, fmt.Errorf("failed to request cancellation: %w", err)
	}

	s.logger.Info("gangsheet job cancellation requested",
		zap.String("job_id", jobID.String()),
		zap.String("phase", job.Phase.String()))

	return toJobResponse(job), nil
}

// =============================================================================
// Tenant settings
// =============================================================================

// GetSettings returns the tenant's roll settings, falling back to the
// built-in defaults when none are stored.
func (s *GangsheetService) GetSettings(ctx context.Context, tenantID uuid.UUID) (*RollSettingsResponse, error) {
	settings, err := s.tenantSettings(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return toSettingsResponse(settings), nil
}

// UpdateSettings replaces the tenant's default roll settings.
func (s *GangsheetService) UpdateSettings(ctx context.Context, tenantID uuid.UUID, req UpdateSettingsRequest) (*RollSettingsResponse, error) {
	settings := gangsheet.RollSettings{
		RollWidth:   req.RollWidth,
		RollLength:  req.RollLength,
		DPI:         req.DPI,
		Gap:         req.Gap,
		Border:      req.Border,
		BorderSize:  req.BorderSize,
		BorderColor: req.BorderColor,
	}
	if settings.BorderColor == "" {
		settings.BorderColor = gangsheet.DefaultRollSettings().BorderColor
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	if err := s.settingsRepo.Save(ctx, tenantID, settings); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}

	s.logger.Info("roll settings updated", zap.String("tenant_id", tenantID.String()))
	return toSettingsResponse(settings), nil
}

// ResetSettings removes the tenant's stored settings, restoring defaults.
func (s *GangsheetService) ResetSettings(ctx context.Context, tenantID uuid.UUID) (*RollSettingsResponse, error) {
	if err := s.settingsRepo.Delete(ctx, tenantID); err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("failed to reset settings: %w", err)
	}
	return toSettingsResponse(gangsheet.DefaultRollSettings()), nil
}

// =============================================================================
// Internals
// =============================================================================

func (s *GangsheetService) tenantSettings(ctx context.Context, tenantID uuid.UUID) (gangsheet.RollSettings, error) {
	stored, err := s.settingsRepo.FindForTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return gangsheet.DefaultRollSettings(), nil
		}
		return gangsheet.RollSettings{}, fmt.Errorf("failed to load tenant settings: %w", err)
	}
	return *stored, nil
}

// advance checks for cancellation, moves the job to the next phase and
// persists it. Phase boundaries are the only cancellation points; a phase
// that has started always runs to its end.
func (s *GangsheetService) advance(ctx context.Context, job *gangsheet.GangsheetJob, target gangsheet.JobPhase, progress int) error {
	if err := ctx.Err(); err != nil {
		return s.cancelJob(ctx, job, "Cancelled by shutdown")
	}
	if requested, err := s.progress.IsCancelRequested(ctx, job.ID); err == nil && requested {
		return s.cancelJob(ctx, job, "Cancelled by user request")
	}

	if err := job.AdvancePhase(target); err != nil {
		return err
	}
	return s.saveProgress(ctx, job, progress)
}

func (s *GangsheetService) saveProgress(ctx context.Context, job *gangsheet.GangsheetJob, progress int) error {
	job.SetProgress(progress)
	if err := s.jobRepo.SaveWithLock(ctx, job); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	s.publishProgress(ctx, job, "")
	return nil
}

func (s *GangsheetService) failJob(ctx context.Context, job *gangsheet.GangsheetJob, message string) error {
	if err := job.Fail(message); err != nil {
		return err
	}
	if err := s.jobRepo.SaveWithLock(ctx, job); err != nil {
		s.logger.Error("failed to persist job failure",
			zap.String("job_id", job.ID.String()),
			zap.Error(err))
	}
	s.publishProgress(ctx, job, message)

	s.logger.Warn("gangsheet job failed",
		zap.String("job_id", job.ID.String()),
		zap.String("reason", message))

	return shared.NewDomainError("JOB_FAILED", message)
}

func (s *GangsheetService) cancelJob(ctx context.Context, job *gangsheet.GangsheetJob, reason string) error {
	if err := job.Cancel(reason); err != nil {
		return err
	}
	if err := s.jobRepo.SaveWithLock(ctx, job); err != nil {
		s.logger.Error("failed to persist job cancellation",
			zap.String("job_id", job.ID.String()),
			zap.Error(err))
	}
	s.publishProgress(ctx, job, reason)

	s.logger.Info("gangsheet job cancelled",
		zap.String("job_id", job.ID.String()),
		zap.String("reason", reason))

	return ErrJobCancelled
}

// publishProgress mirrors the job's state into the progress store.
// Best effort: a progress write never fails the pipeline.
func (s *GangsheetService) publishProgress(ctx context.Context, job *gangsheet.GangsheetJob, message string) {
	err := s.progress.SetProgress(ctx, job.ID, JobProgress{
		Phase:     job.Phase,
		Progress:  job.Progress,
		Message:   message,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		s.logger.Warn("failed to publish progress",
			zap.String("job_id", job.ID.String()),
			zap.Error(err))
	}
}

func artifactKey(tenantID, jobID uuid.UUID, rollNumber int) string {
	return fmt.Sprintf("gangsheets/%s/%s/roll-%d.png", tenantID, jobID, rollNumber)
}
