package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

var checkedTables = []string{"active_buses", "companies", "admins", "users", "driver_locations"}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "smartbus backend running"})
}

func (h *Handler) DBCheck(c *gin.Context) {
	if h.DB == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database not connected"})
		return
	}
	ctx := c.Request.Context()
	if err := h.DB.PingContext(ctx); err != nil {
		RespondError(c, http.StatusInternalServerError, "database ping failed", err)
		return
	}
	tables := gin.H{}
	for _, t := range checkedTables {
		tables[t] = h.Dialect.HasTable(ctx, h.DB, t)
	}
	c.JSON(http.StatusOK, gin.H{"message": "database connection OK", "driver": h.Dialect, "tables": tables})
}

func (h *Handler) Routes(c *gin.Context) {
	if h.routes == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "router not ready"})
		return
	}

	routes := h.routes()
	out := make([]gin.H, 0, len(routes))
	for _, rt := range routes {
		out = append(out, gin.H{
			"method":  rt.Method,
			"path":    rt.Path,
			"handler": rt.Handler,
		})
	}
	c.JSON(http.StatusOK, gin.H{"routes": out})
}
