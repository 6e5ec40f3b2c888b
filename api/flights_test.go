package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Leonti1991/flightbooking/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestFlightHandler_seatMap(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewFlightHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "4"}}
	c.Request = httptest.NewRequest("GET", "/flights/4/seats", nil)

	seatMap := &domain.SeatMap{
		FlightID:       4,
		AirplaneID:     2,
		TotalSeats:     2,
		AvailableSeats: 1,
		Seats: []domain.SeatMapEntry{
			{SeatNumber: "12A", Class: domain.SeatClassEconomy, Status: domain.SeatStatusAvailable, PriceCents: 10000},
			{SeatNumber: "5C", Class: domain.SeatClassBusiness, Status: domain.SeatStatusBooked, PriceCents: 25000},
		},
	}

	mockService.On("SeatMap", c.Request.Context(), int64(4)).Return(seatMap, nil)

	handler.seatMap(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response domain.SeatMap
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, int64(4), response.FlightID)
	assert.Equal(t, 1, response.AvailableSeats)
	assert.Len(t, response.Seats, 2)

	mockService.AssertExpectations(t)
}

func TestFlightHandler_seatMap_flightNotFound(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewFlightHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "99"}}
	c.Request = httptest.NewRequest("GET", "/flights/99/seats", nil)

	mockService.On("SeatMap", c.Request.Context(), int64(99)).Return(nil, domain.ErrFlightNotFound)

	handler.seatMap(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	mockService.AssertExpectations(t)
}

func TestFlightHandler_seatMap_invalidID(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewFlightHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	c.Request = httptest.NewRequest("GET", "/flights/abc/seats", nil)

	handler.seatMap(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "SeatMap")
}
