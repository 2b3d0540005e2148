package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	t.Run("known codes resolve to their status", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, GetHTTPStatus(ErrCodeNotFound))
		assert.Equal(t, http.StatusBadRequest, GetHTTPStatus(ErrCodeInvalidInput))
		assert.Equal(t, http.StatusConflict, GetHTTPStatus(ErrCodeConcurrencyConflict))
		assert.Equal(t, http.StatusUnprocessableEntity, GetHTTPStatus(ErrCodeInvalidState))
		assert.Equal(t, http.StatusUnprocessableEntity, GetHTTPStatus(ErrCodeDesignTooLarge))
	})

	t.Run("unknown code falls back to 500", func(t *testing.T) {
		assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus("ERR_NO_SUCH_CODE"))
	})
}

func TestNormalizeErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode("NOT_FOUND"))
	assert.Equal(t, ErrCodeInvalidInput, NormalizeErrorCode("INVALID_SETTINGS"))
	assert.Equal(t, ErrCodeInvalidState, NormalizeErrorCode("ALREADY_TERMINAL"))
	assert.Equal(t, ErrCodeJobFailed, NormalizeErrorCode("JOB_FAILED"))

	// unmapped codes pass through
	assert.Equal(t, "SOMETHING_ELSE", NormalizeErrorCode("SOMETHING_ELSE"))
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]string{"a", "b"}, 45, 2, 20)
	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Meta)
	assert.Equal(t, int64(45), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 20, resp.Meta.PageSize)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse(ErrCodeNotFound, "gangsheet job not found")
	assert.False(t, resp.Success)
	assert.Nil(t, resp.Data)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "gangsheet job not found", resp.Error.Message)
}
