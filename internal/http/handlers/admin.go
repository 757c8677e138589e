package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"smartbus/internal/domain/models"
	"smartbus/internal/http/middleware"
	"smartbus/internal/services"
	"smartbus/internal/session"
)

func adminSession(c *gin.Context) (session.Session, bool) {
	sess, ok := middleware.GetAdminSession(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "admin session required", nil)
		return session.Session{}, false
	}
	return sess, true
}

// GET /api/admin/buses
func (h *Handler) AdminListBuses(c *gin.Context) {
	sess, ok := adminSession(c)
	if !ok {
		return
	}
	buses, err := h.Admin.List(c.Request.Context(), sess)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	cards := make([]services.BusCard, 0, len(buses))
	for _, b := range buses {
		cards = append(cards, services.NewBusCard(b, 0))
	}
	c.JSON(http.StatusOK, gin.H{
		"company_id":   sess.CompanyID,
		"company_name": sess.CompanyName,
		"buses":        cards,
	})
}

// POST /api/admin/buses
func (h *Handler) AdminCreateBus(c *gin.Context) {
	sess, ok := adminSession(c)
	if !ok {
		return
	}
	var in models.BusInput
	if !BindJSONOrError(c, &in) {
		return
	}
	bus, err := h.Admin.Create(c.Request.Context(), sess, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, services.NewBusCard(bus, 0))
}

// PUT /api/admin/buses/:id
func (h *Handler) AdminUpdateBus(c *gin.Context) {
	sess, ok := adminSession(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var in models.BusInput
	if !BindJSONOrError(c, &in) {
		return
	}
	bus, err := h.Admin.Update(c.Request.Context(), sess, id, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, services.NewBusCard(bus, 0))
}

// DELETE /api/admin/buses/:id
func (h *Handler) AdminDeleteBus(c *gin.Context) {
	sess, ok := adminSession(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.Admin.Delete(c.Request.Context(), sess, id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "bus deleted", "id": id})
}
