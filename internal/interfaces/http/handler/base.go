package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/unaytac-cmd/printnest-sub005/internal/interfaces/http/dto"
)

// BaseHandler provides common response helpers for all handlers.
type BaseHandler struct{}

// Success sends a 200 response with the standard envelope.
func (h *BaseHandler) Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a 200 response with pagination metadata.
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data interface{}, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 response with the standard envelope.
func (h *BaseHandler) Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Accepted sends a 202 response for operations that continue asynchronously.
func (h *BaseHandler) Accepted(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 response.
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response using the status mapped from the code.
func (h *BaseHandler) Error(c *gin.Context, code, message string) {
	h.ErrorWithCode(c, dto.GetHTTPStatus(code), code, message)
}

// ErrorWithCode sends an error response with an explicit HTTP status.
func (h *BaseHandler) ErrorWithCode(c *gin.Context, status int, code, message string) {
	requestID := getRequestID(c)
	c.JSON(status, dto.NewErrorResponseWithRequestID(code, message, requestID))
}

// BadRequest sends a 400 response for malformed input.
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.ErrorWithCode(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 response.
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.ErrorWithCode(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// InternalError sends a 500 response.
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.ErrorWithCode(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

func getRequestID(c *gin.Context) string {
	return c.GetString("request_id")
}

// getTenantID extracts the tenant from the X-Tenant-ID header. In
// development a fixed tenant is used when the header is missing so the
// API can be exercised without a gateway in front.
func getTenantID(c *gin.Context) (uuid.UUID, error) {
	header := c.GetHeader("X-Tenant-ID")
	if header == "" {
		return uuid.MustParse("00000000-0000-0000-0000-000000000001"), nil
	}
	return uuid.Parse(header)
}

// getUserID extracts the acting user from the X-User-ID header.
// Returns uuid.Nil when the header is absent; the caller decides
// whether an anonymous request is acceptable.
func getUserID(c *gin.Context) (uuid.UUID, error) {
	header := c.GetHeader("X-User-ID")
	if header == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(header)
}

// parseUUIDParam parses a path parameter as a UUID.
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Param(name))
}
