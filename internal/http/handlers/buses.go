package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// GET /api/buses?company=
func (h *Handler) ListBuses(c *gin.Context) {
	cards, err := h.Buses.List(c.Request.Context(), strings.TrimSpace(c.Query("company")))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if len(cards) == 0 {
		c.JSON(http.StatusOK, gin.H{"buses": cards, "message": "No buses available right now."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"buses": cards})
}

// GET /api/buses/companies
func (h *Handler) ListCompanies(c *gin.Context) {
	names, err := h.Buses.Companies(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"companies": names})
}

// GET /api/buses/:id
func (h *Handler) GetBus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	card, err := h.Buses.Get(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, card)
}

// GET /api/buses/:id/location
func (h *Handler) GetBusLocation(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	loc, err := h.Buses.Location(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, loc)
}

// GET /api/driver-locations
func (h *Handler) ListDriverLocations(c *gin.Context) {
	locs, err := h.Buses.DriverLocations(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"locations": locs})
}
