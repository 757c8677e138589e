package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"smartbus/internal/booking"
	"smartbus/internal/http/middleware"
	"smartbus/internal/services"
	"smartbus/internal/utils"
)

func respondFlow(c *gin.Context, v booking.FlowView, err error) {
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// POST /api/bookings
func (h *Handler) StartBooking(c *gin.Context) {
	var req services.StartBookingRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "invalid payload", err)
			return
		}
	}
	if claims, ok := middleware.GetClaims(c); ok && req.Passenger == "" {
		req.Passenger = claims.Name
	}
	v, err := h.Bookings.Start(c.Request.Context(), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	utils.LogEvent(middleware.GetRequestID(c), "booking", "start", "flow="+v.ID)
	c.JSON(http.StatusCreated, v)
}

// GET /api/bookings/:id
func (h *Handler) GetBooking(c *gin.Context) {
	v, err := h.Bookings.Get(c.Param("id"))
	respondFlow(c, v, err)
}

// POST /api/bookings/:id/bus
func (h *Handler) SelectBookingBus(c *gin.Context) {
	var req services.StartBookingRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	v, err := h.Bookings.SelectBus(c.Request.Context(), c.Param("id"), req.BusID, req.Direct)
	respondFlow(c, v, err)
}

// POST /api/bookings/:id/continue
func (h *Handler) ContinueBooking(c *gin.Context) {
	v, err := h.Bookings.Continue(c.Param("id"))
	respondFlow(c, v, err)
}

// POST /api/bookings/:id/seats/:seat
func (h *Handler) ToggleBookingSeat(c *gin.Context) {
	seat, err := strconv.Atoi(c.Param("seat"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid seat", err)
		return
	}
	v, err := h.Bookings.ToggleSeat(c.Param("id"), seat)
	respondFlow(c, v, err)
}

// PUT /api/bookings/:id/payment/method
func (h *Handler) SelectPaymentMethod(c *gin.Context) {
	var req struct {
		Method string `json:"method"`
	}
	if !BindJSONOrError(c, &req) {
		return
	}
	v, err := h.Bookings.SelectMethod(c.Param("id"), req.Method)
	respondFlow(c, v, err)
}

// PUT /api/bookings/:id/payment/details
func (h *Handler) UpdatePaymentDetails(c *gin.Context) {
	var in booking.PaymentInput
	if !BindJSONOrError(c, &in) {
		return
	}
	v, err := h.Bookings.UpdatePayment(c.Param("id"), in)
	respondFlow(c, v, err)
}

// POST /api/bookings/:id/proceed
func (h *Handler) ProceedBooking(c *gin.Context) {
	v, err := h.Bookings.Proceed(c.Param("id"))
	respondFlow(c, v, err)
}

// POST /api/bookings/:id/confirm
func (h *Handler) ConfirmBooking(c *gin.Context) {
	v, err := h.Bookings.Confirm(c.Param("id"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	utils.LogEvent(middleware.GetRequestID(c), "booking", "confirm", "flow="+v.ID)
	c.JSON(http.StatusAccepted, v)
}

// POST /api/bookings/:id/back
func (h *Handler) BackBooking(c *gin.Context) {
	v, err := h.Bookings.Back(c.Param("id"))
	respondFlow(c, v, err)
}

// DELETE /api/bookings/:id
func (h *Handler) CancelBooking(c *gin.Context) {
	if err := h.Bookings.Cancel(c.Param("id")); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "booking cancelled"})
}
