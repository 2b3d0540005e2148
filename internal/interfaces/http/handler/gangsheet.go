package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	gangsheetapp "github.com/unaytac-cmd/printnest-sub005/internal/application/gangsheet"
	"github.com/unaytac-cmd/printnest-sub005/internal/domain/shared"
	"github.com/unaytac-cmd/printnest-sub005/internal/interfaces/http/dto"
	"github.com/unaytac-cmd/printnest-sub005/internal/interfaces/http/middleware"
)

// JobRunner launches a generation run for a created job. The default
// runner executes the job in a background goroutine so POST /jobs can
// return immediately; tests swap it out for a synchronous one.
type JobRunner func(jobID uuid.UUID)

// GangsheetHandler exposes the gangsheet job and settings API.
type GangsheetHandler struct {
	BaseHandler
	service *gangsheetapp.GangsheetService
	runner  JobRunner
	logger  *zap.Logger
}

// GangsheetHandlerOption configures a GangsheetHandler.
type GangsheetHandlerOption func(*GangsheetHandler)

// WithJobRunner overrides how created jobs are executed.
func WithJobRunner(runner JobRunner) GangsheetHandlerOption {
	return func(h *GangsheetHandler) {
		h.runner = runner
	}
}

// NewGangsheetHandler creates a new gangsheet handler.
func NewGangsheetHandler(service *gangsheetapp.GangsheetService, logger *zap.Logger, opts ...GangsheetHandlerOption) *GangsheetHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &GangsheetHandler{
		service: service,
		logger:  logger,
	}
	h.runner = h.runInBackground

	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *GangsheetHandler) runInBackground(jobID uuid.UUID) {
	go func() {
		// Detached from the request context so a closed client
		// connection does not abort the run.
		if err := h.service.Run(context.Background(), jobID); err != nil {
			if errors.Is(err, gangsheetapp.ErrJobCancelled) {
				h.logger.Info("gangsheet job cancelled",
					zap.String("job_id", jobID.String()))
				return
			}
			h.logger.Error("gangsheet job run failed",
				zap.String("job_id", jobID.String()),
				zap.Error(err))
		}
	}()
}

// CreateJob handles POST /gangsheet/jobs
func (h *GangsheetHandler) CreateJob(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "invalid tenant ID")
		return
	}

	userID, err := getUserID(c)
	if err != nil {
		h.BadRequest(c, "invalid user ID")
		return
	}

	var req gangsheetapp.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	job, err := h.service.CreateJob(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.mapError(c, err)
		return
	}

	h.runner(job.ID)
	h.Accepted(c, job)
}

// ListJobs handles GET /gangsheet/jobs
func (h *GangsheetHandler) ListJobs(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "invalid tenant ID")
		return
	}

	var req gangsheetapp.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.service.ListJobs(c.Request.Context(), tenantID, req)
	if err != nil {
		h.mapError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Jobs, result.Total, result.Page, result.PageSize)
}

// GetJob handles GET /gangsheet/jobs/:id
func (h *GangsheetHandler) GetJob(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "invalid tenant ID")
		return
	}

	jobID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid job ID")
		return
	}

	job, err := h.service.GetJob(c.Request.Context(), tenantID, jobID)
	if err != nil {
		h.mapError(c, err)
		return
	}

	h.Success(c, job)
}

// GetJobStatus handles GET /gangsheet/jobs/:id/status
func (h *GangsheetHandler) GetJobStatus(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "invalid tenant ID")
		return
	}

	jobID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid job ID")
		return
	}

	status, err := h.service.GetJobStatus(c.Request.Context(), tenantID, jobID)
	if err != nil {
		h.mapError(c, err)
		return
	}

	h.Success(c, status)
}

type cancelJobPayload struct {
	Reason string `json:"reason"`
}

// CancelJob handles POST /gangsheet/jobs/:id/cancel
func (h *GangsheetHandler) CancelJob(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "invalid tenant ID")
		return
	}

	jobID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "invalid job ID")
		return
	}

	var payload cancelJobPayload
	// Body is optional; a bare POST cancels with a default reason.
	_ = c.ShouldBindJSON(&payload)
	if payload.Reason == "" {
		payload.Reason = "Cancelled by user request"
	}

	job, err := h.service.CancelJob(c.Request.Context(), tenantID, jobID, payload.Reason)
	if err != nil {
		h.mapError(c, err)
		return
	}

	h.Success(c, job)
}

// ListOrderJobs handles GET /gangsheet/orders/:orderId/jobs
func (h *GangsheetHandler) ListOrderJobs(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "invalid tenant ID")
		return
	}

	orderID, err := parseUUIDParam(c, "orderId")
	if err != nil {
		h.BadRequest(c, "invalid order ID")
		return
	}

	jobs, err := h.service.ListOrderJobs(c.Request.Context(), tenantID, orderID)
	if err != nil {
		h.mapError(c, err)
		return
	}

	h.Success(c, jobs)
}

// GetSettings handles GET /gangsheet/settings
func (h *GangsheetHandler) GetSettings(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "invalid tenant ID")
		return
	}

	settings, err := h.service.GetSettings(c.Request.Context(), tenantID)
	if err != nil {
		h.mapError(c, err)
		return
	}

	h.Success(c, settings)
}

// UpdateSettings handles PUT /gangsheet/settings
func (h *GangsheetHandler) UpdateSettings(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "invalid tenant ID")
		return
	}

	var req gangsheetapp.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	settings, err := h.service.UpdateSettings(c.Request.Context(), tenantID, req)
	if err != nil {
		h.mapError(c, err)
		return
	}

	h.Success(c, settings)
}

// ResetSettings handles DELETE /gangsheet/settings
func (h *GangsheetHandler) ResetSettings(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "invalid tenant ID")
		return
	}

	settings, err := h.service.ResetSettings(c.Request.Context(), tenantID)
	if err != nil {
		h.mapError(c, err)
		return
	}

	h.Success(c, settings)
}

// mapError converts application errors into API error responses.
func (h *GangsheetHandler) mapError(c *gin.Context, err error) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		h.ErrorWithCode(c, dto.GetHTTPStatus(code), code, domainErr.Message)
		return
	}

	if errors.Is(err, shared.ErrNotFound) {
		h.NotFound(c, "resource not found")
		return
	}

	h.logger.Error("unhandled service error",
		zap.String("path", c.FullPath()),
		zap.Error(err))
	h.InternalError(c, "internal server error")
}
