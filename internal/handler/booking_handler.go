package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-airline-booking/internal/model"
	"go-airline-booking/internal/service"
)

type BookingHandler struct {
	service service.BookingService
}

func NewBookingHandler(service service.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.POST("bookings", h.CreateBooking)
		router.GET("bookings/:id", h.GetBooking)
		router.PUT("bookings/:id/confirm", h.ConfirmBooking)
		router.PUT("bookings/:id/cancel", h.CancelBooking)
		router.GET("bookings/pnr/:pnr", h.GetBookingByPNR)
		router.GET("users/:id/bookings", h.ListUserBookings)
	}
}

func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req model.CreateBookingRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	booking, err := h.service.Create(c, req)
	if err != nil {
		handleError(c, err, "CreateBooking")
		return
	}
	c.JSON(http.StatusCreated, booking)
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	booking, err := h.service.GetByID(c, c.Param("id"))
	if err != nil {
		handleError(c, err, "GetBooking")
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (h *BookingHandler) ConfirmBooking(c *gin.Context) {
	var req model.ConfirmBookingRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	booking, err := h.service.Confirm(c, c.Param("id"), req.PaymentRef)
	if err != nil {
		handleError(c, err, "ConfirmBooking")
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (h *BookingHandler) CancelBooking(c *gin.Context) {
	booking, err := h.service.Cancel(c, c.Param("id"))
	if err != nil {
		handleError(c, err, "CancelBooking")
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (h *BookingHandler) GetBookingByPNR(c *gin.Context) {
	booking, err := h.service.GetByPNR(c, c.Param("pnr"))
	if err != nil {
		handleError(c, err, "GetBookingByPNR")
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (h *BookingHandler) ListUserBookings(c *gin.Context) {
	bookings, err := h.service.ListByUser(c, c.Param("id"))
	if err != nil {
		handleError(c, err, "ListUserBookings")
		return
	}
	c.JSON(http.StatusOK, bookings)
}
