package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-airline-booking/internal/model"
	"go-airline-booking/internal/service"
)

type FlightHandler struct {
	service service.FlightService
}

func NewFlightHandler(service service.FlightService) *FlightHandler {
	return &FlightHandler{service: service}
}

func (h *FlightHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.GET("flights", h.SearchFlights)
		router.GET("flights/:id", h.GetFlight)
		router.GET("flights/:id/seats", h.GetSeatMap)
		router.PUT("flights/:id/status", h.UpdateStatus)
	}
}

func (h *FlightHandler) SearchFlights(c *gin.Context) {
	var req model.SearchFlightsRequest
	if err := BindQuery(c, &req); err != nil {
		return
	}

	flights, err := h.service.Search(c, req)
	if err != nil {
		handleError(c, err, "SearchFlights")
		return
	}
	c.JSON(http.StatusOK, flights)
}

func (h *FlightHandler) GetFlight(c *gin.Context) {
	flight, err := h.service.GetByID(c, c.Param("id"))
	if err != nil {
		handleError(c, err, "GetFlight")
		return
	}
	c.JSON(http.StatusOK, flight)
}

func (h *FlightHandler) GetSeatMap(c *gin.Context) {
	seats, err := h.service.SeatMap(c, c.Param("id"))
	if err != nil {
		handleError(c, err, "GetSeatMap")
		return
	}
	c.JSON(http.StatusOK, seats)
}

func (h *FlightHandler) UpdateStatus(c *gin.Context) {
	var req model.UpdateFlightStatusRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	if err := h.service.UpdateStatus(c, c.Param("id"), req.Status); err != nil {
		handleError(c, err, "UpdateStatus")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": req.Status})
}
