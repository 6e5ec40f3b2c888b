package api

import (
	"net/http"
	"strconv"

	"github.com/Leonti1991/flightbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type FlightHandler struct {
	service booking.BookingUseCase
}

func NewFlightHandler(service booking.BookingUseCase) *FlightHandler {
	return &FlightHandler{service: service}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("/:id/seats", h.seatMap)
}

func (h *FlightHandler) seatMap(c *gin.Context) {
	flightID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid flight id"})
		return
	}

	seatMap, err := h.service.SeatMap(c.Request.Context(), flightID)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, seatMap)
}
