package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-airline-booking/internal/lock"
)

// SeatLockHandler 座位鎖定端點。鎖定期間結帳未完成的座位由回收器自動釋放，
// 傳輸層沒有取消訊號進入 LockManager。座位表快取由 LockManager 失效，
// 這裡不再重複處理。
type SeatLockHandler struct {
	manager *lock.Manager
}

func NewSeatLockHandler(manager *lock.Manager) *SeatLockHandler {
	return &SeatLockHandler{manager: manager}
}

func (h *SeatLockHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.POST("flights/:id/seats/:seat/lock", h.LockSeat)
		router.DELETE("flights/:id/seats/:seat/lock", h.ReleaseSeat)
	}
}

type lockSeatRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

func (h *SeatLockHandler) LockSeat(c *gin.Context) {
	var req lockSeatRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	flightID := c.Param("id")
	seatNumber := c.Param("seat")

	if err := h.manager.Acquire(c, flightID, seatNumber, req.UserID); err != nil {
		handleError(c, err, "LockSeat")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"flight_id":   flightID,
		"seat_number": seatNumber,
		"locked":      true,
		"expires_in":  h.manager.TTL().Seconds(),
	})
}

func (h *SeatLockHandler) ReleaseSeat(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	flightID := c.Param("id")
	seatNumber := c.Param("seat")

	if err := h.manager.Release(c, flightID, seatNumber, userID); err != nil {
		handleError(c, err, "ReleaseSeat")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"flight_id":   flightID,
		"seat_number": seatNumber,
		"locked":      false,
	})
}
