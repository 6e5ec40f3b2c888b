package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Leonti1991/flightbooking/internal/domain"
	"github.com/Leonti1991/flightbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	FlightID    int64    `json:"flight_id"`
	SeatNumbers []string `json:"seat_numbers"`
	UserID      *int64   `json:"user_id"`
	Email       string   `json:"email"`
}

type ticketResponse struct {
	ID         int64  `json:"id"`
	SeatNumber string `json:"seat_number"`
	PriceCents int64  `json:"price_cents"`
	Status     string `json:"status"`
}

type orderResponse struct {
	OrderID       int64            `json:"order_id"`
	FlightID      int64            `json:"flight_id"`
	Status        string           `json:"status"`
	TotalCents    int64            `json:"total_cents"`
	Tickets       []ticketResponse `json:"tickets"`
	PaymentStatus string           `json:"payment_status,omitempty"`
	ClientSecret  string           `json:"client_secret,omitempty"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.GET("/:id", h.get)
	router.POST("/:id/confirm", h.confirm)
	router.POST("/:id/cancel", h.cancel)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		FlightID:    req.FlightID,
		SeatNumbers: req.SeatNumbers,
		UserID:      req.UserID,
		Email:       req.Email,
	})
	if err != nil {
		respondBookingError(c, err)
		return
	}

	resp := orderResponse{
		OrderID:      result.Order.ID,
		FlightID:     result.Order.FlightID,
		Status:       string(result.Order.Status),
		TotalCents:   result.Order.TotalCents,
		Tickets:      toTicketResponses(result.Tickets),
		ClientSecret: result.ClientSecret,
	}
	if result.Payment != nil {
		resp.PaymentStatus = string(result.Payment.Status)
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *BookingHandler) get(c *gin.Context) {
	orderID, err := orderIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	details, err := h.service.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	resp := orderResponse{
		OrderID:    details.Order.ID,
		FlightID:   details.Order.FlightID,
		Status:     string(details.Order.Status),
		TotalCents: details.Order.TotalCents,
		Tickets:    toTicketResponses(details.Tickets),
	}
	if details.Payment != nil {
		resp.PaymentStatus = string(details.Payment.Status)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) confirm(c *gin.Context) {
	orderID, err := orderIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	order, err := h.service.ConfirmBooking(c.Request.Context(), orderID)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": order.ID, "status": string(order.Status)})
}

func (h *BookingHandler) cancel(c *gin.Context) {
	orderID, err := orderIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	order, err := h.service.CancelBooking(c.Request.Context(), orderID, domain.CancelCauseUser)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": order.ID, "status": string(order.Status)})
}

func orderIDParam(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

func toTicketResponses(tickets []domain.Ticket) []ticketResponse {
	out := make([]ticketResponse, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, ticketResponse{
			ID:         t.ID,
			SeatNumber: t.SeatNumber,
			PriceCents: t.PriceCents,
			Status:     string(t.Status),
		})
	}
	return out
}

// respondBookingError maps the domain error taxonomy onto structured
// HTTP responses: conflicts carry the offending seat numbers so the
// client can re-select without a full search retry.
func respondBookingError(c *gin.Context, err error) {
	var conflict *domain.SeatConflictError
	var unknown *domain.UnknownSeatError
	switch {
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": "seats not available", "seats": conflict.Seats})
	case errors.As(err, &unknown):
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown seats", "seats": unknown.Seats})
	case errors.Is(err, domain.ErrFlightNotBookable):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrFlightNotFound), errors.Is(err, domain.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}
