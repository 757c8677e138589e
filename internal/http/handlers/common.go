package handlers

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"smartbus/internal/clock"
	intdb "smartbus/internal/db"
	"smartbus/internal/http/middleware"
	"smartbus/internal/services"
)

// Handler carries the services every endpoint needs.
type Handler struct {
	Auth     services.AuthService
	Buses    services.BusService
	Admin    services.AdminService
	Bookings *services.BookingService
	Clock    clock.Clock

	DB      *sql.DB
	Dialect intdb.Dialect

	routes func() gin.RoutesInfo
}

// SetRouter lets /api/routes list the engine's routes.
func (h *Handler) SetRouter(r *gin.Engine) {
	h.routes = r.Routes
}

func (h *Handler) docs(c *gin.Context) services.DocsService {
	return services.DocsService{RequestID: middleware.GetRequestID(c)}
}

// RespondError sends standard error payload with request_id included.
func RespondError(c *gin.Context, status int, message string, err error) {
	payload := gin.H{
		"message":    message,
		"request_id": middleware.GetRequestID(c),
	}
	if err != nil {
		payload["error"] = err.Error()
	}
	c.JSON(status, payload)
}

// BindJSONOrError ensures body is present and parsable.
func BindJSONOrError[T any](c *gin.Context, dst *T) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		RespondError(c, http.StatusBadRequest, "empty body", nil)
		return false
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid payload", err)
		return false
	}
	return true
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id <= 0 {
		RespondError(c, http.StatusBadRequest, "invalid "+name, nil)
		return 0, false
	}
	return id, true
}
