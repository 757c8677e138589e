package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"smartbus/internal/domain"
	"smartbus/internal/services"
	"smartbus/internal/session"
)

const (
	claimsKey       = "claims"
	adminSessionKey = "adminSession"
)

type TokenParser interface {
	ParseToken(raw string) (services.Claims, error)
}

type AdminSessionResolver interface {
	AdminSession(ctx context.Context, c services.Claims) (session.Session, error)
}

func abortJSON(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":      msg,
		"code":       code,
		"message":    msg,
		"request_id": GetRequestID(c),
	})
}

// Auth reads an optional bearer token. A present but invalid token is
// rejected; an absent one lets the request through anonymously.
func Auth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			c.Next()
			return
		}
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "malformed authorization header")
			return
		}
		claims, err := parser.ParseToken(strings.TrimSpace(raw))
		if err != nil {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", err.Error())
			return
		}
		c.Set(claimsKey, claims)
		c.Set("userRole", claims.Role)
		c.Set("userEmail", claims.Email)
		c.Next()
	}
}

// GetClaims returns the token claims set by Auth.
func GetClaims(c *gin.Context) (services.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return services.Claims{}, false
	}
	claims, ok := v.(services.Claims)
	return claims, ok
}

func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetClaims(c); !ok {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "sign in required")
			return
		}
		c.Next()
	}
}

// RequireRoles allows the request only if userRole is one of roles.
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := map[string]bool{}
	for _, r := range roles {
		allowed[strings.ToLower(strings.TrimSpace(r))] = true
	}
	return func(c *gin.Context) {
		role := strings.ToLower(strings.TrimSpace(c.GetString("userRole")))
		if role == "" {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "sign in required")
			return
		}
		if !allowed[role] {
			abortJSON(c, http.StatusForbidden, "forbidden", "role "+role+" may not access this resource")
			return
		}
		c.Next()
	}
}

// RequireAdminSession checks that the token's admin session is still open
// and stores it for the handler.
func RequireAdminSession(resolver AdminSessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "sign in required")
			return
		}
		sess, err := resolver.AdminSession(c.Request.Context(), claims)
		if err != nil {
			if domain.IsUnauthorized(err) {
				abortJSON(c, http.StatusUnauthorized, "unauthorized", err.Error())
				return
			}
			abortJSON(c, http.StatusInternalServerError, "internal_error", "could not verify admin session")
			return
		}
		c.Set(adminSessionKey, sess)
		c.Next()
	}
}

func GetAdminSession(c *gin.Context) (session.Session, bool) {
	v, ok := c.Get(adminSessionKey)
	if !ok {
		return session.Session{}, false
	}
	s, ok := v.(session.Session)
	return s, ok
}
