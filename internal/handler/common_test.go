package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	apperrors "go-airline-booking/pkg/app_errors"
)

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{apperrors.ErrFlightNotFound, http.StatusNotFound},
		{apperrors.ErrSeatNotFound, http.StatusNotFound},
		{apperrors.ErrBookingNotFound, http.StatusNotFound},
		{apperrors.ErrSeatUnavailable, http.StatusConflict},
		{apperrors.ErrLockNotOwned, http.StatusConflict},
		{apperrors.ErrLockExpired, http.StatusConflict},
		{apperrors.ErrInvalidBookingStatus, http.StatusConflict},
		{apperrors.ErrInvalidFlightStatus, http.StatusBadRequest},
		{errors.New("database exploded"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, statusForError(tt.err), "error %v", tt.err)
	}
}

// 包裝後的領域錯誤也要對應到相同狀態碼
func TestStatusForError_WrappedErrors(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), apperrors.ErrSeatUnavailable)
	assert.Equal(t, http.StatusConflict, statusForError(wrapped))
}

// 未分類錯誤回 500 時，回應內容不得洩漏底層錯誤訊息
func TestHandleError_InternalErrorBodyIsGeneric(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	handleError(c, errors.New("pq: connection refused"), "Test")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), apperrors.ErrInternalServerError.Error())
	assert.NotContains(t, w.Body.String(), "connection refused")
}
