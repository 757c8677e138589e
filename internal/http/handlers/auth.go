package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"smartbus/internal/http/middleware"
	"smartbus/internal/services"
	"smartbus/internal/utils"
)

// POST /api/auth/signup
func (h *Handler) SignUp(c *gin.Context) {
	var form services.SignUpForm
	if !BindJSONOrError(c, &form) {
		return
	}
	res, err := h.Auth.SignUp(c.Request.Context(), form)
	if err != nil {
		utils.LogError(middleware.GetRequestID(c), "auth", "signup", err)
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// POST /api/auth/signin
func (h *Handler) SignIn(c *gin.Context) {
	var form services.SignInForm
	if !BindJSONOrError(c, &form) {
		return
	}
	res, err := h.Auth.SignIn(c.Request.Context(), form)
	if err != nil {
		utils.LogError(middleware.GetRequestID(c), "auth", "signin", err)
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/auth/logout
func (h *Handler) Logout(c *gin.Context) {
	claims, _ := middleware.GetClaims(c)
	if err := h.Auth.Logout(c.Request.Context(), claims); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "signed out"})
}

// GET /api/auth/session
func (h *Handler) Session(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	rc := claims.RequestContext()
	out := gin.H{
		"authenticated": true,
		"user":          rc,
		"name":          claims.Name,
		"is_admin":      false,
	}
	if rc.IsAdmin() {
		if sess, err := h.Auth.AdminSession(c.Request.Context(), claims); err == nil {
			out["admin"] = sess
			out["is_admin"] = true
		} else {
			out["admin"] = nil
		}
	}
	c.JSON(http.StatusOK, out)
}
