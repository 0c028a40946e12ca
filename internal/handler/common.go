package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "go-airline-booking/pkg/app_errors"
	"go-airline-booking/pkg/logger"
)

func BindJson(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return err
	}
	return nil
}

func BindQuery(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindQuery(obj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return err
	}
	return nil
}

// statusForError 錯誤分類對應的 HTTP 狀態碼。
// 所有領域錯誤對呼叫端都是可恢復的：重試或換一個座位即可。
func statusForError(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrFlightNotFound),
		errors.Is(err, apperrors.ErrSeatNotFound),
		errors.Is(err, apperrors.ErrBookingNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrSeatUnavailable),
		errors.Is(err, apperrors.ErrLockNotOwned),
		errors.Is(err, apperrors.ErrLockExpired),
		errors.Is(err, apperrors.ErrInvalidBookingStatus):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrInvalidFlightStatus):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func handleError(c *gin.Context, err error, operation string) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		// 未分類錯誤不洩漏內部細節，一律以 ErrInternalServerError 回應
		logger.WithComponent("handler").Error("unexpected error",
			zap.String("operation", operation), zap.Error(err))
		c.JSON(status, gin.H{"error": apperrors.ErrInternalServerError.Error()})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
