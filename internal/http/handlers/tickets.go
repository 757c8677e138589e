package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"smartbus/internal/booking"
	"smartbus/internal/http/middleware"
	"smartbus/internal/utils"
)

// GET /api/tickets/:id
func (h *Handler) GetTicket(c *gin.Context) {
	v, err := h.Bookings.Ticket(c.Param("id"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// POST /api/tickets/:id/scan
func (h *Handler) ScanTicket(c *gin.Context) {
	v, err := h.Bookings.Scan(c.Param("id"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	utils.LogEvent(middleware.GetRequestID(c), "booking", "scan", "ticket="+v.ID)
	c.JSON(http.StatusOK, v)
}

// GET /api/tickets/:id/countdown streams one event per second until the
// ticket is scanned or disqualified, or the client goes away.
func (h *Handler) TicketCountdown(c *gin.Context) {
	ticks := make(chan booking.Countdown, 1)
	w, err := h.Bookings.WatchTicket(c.Param("id"), func(cd booking.Countdown) {
		// keep only the latest snapshot for a slow reader
		select {
		case <-ticks:
		default:
		}
		select {
		case ticks <- cd:
		default:
		}
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	defer w.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case cd := <-ticks:
			c.SSEvent("countdown", cd.View())
			return cd.State == booking.StateQualified
		}
	})
}

// GET /api/tickets/:id/qr
func (h *Handler) TicketQR(c *gin.Context) {
	t, err := h.Bookings.TicketRecord(c.Param("id"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	png, err := h.docs(c).TicketQR(t)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "could not render QR code", err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// GET /api/tickets/:id/e-ticket
func (h *Handler) TicketPDF(c *gin.Context) {
	t, err := h.Bookings.TicketRecord(c.Param("id"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	pdf, filename, err := h.docs(c).GenerateETicket(t, h.Clock.Now())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "could not render e-ticket", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
