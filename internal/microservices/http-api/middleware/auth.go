package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"coursehub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware
const (
	ContextEmail   = "email"
	ContextName    = "name"
	ContextPicture = "picture"
)

// AuthMiddleware verifies the bearer token issued by the identity provider
// and stores the caller's identity in the gin context.
func AuthMiddleware(verifier service.IdentityVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get token from header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		// Extract token (format: "Bearer <token>")
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		identity, err := verifier.Verify(c.Request.Context(), parts[1])
		if err != nil {
			slog.Debug("token_rejected", "path", c.FullPath(), "error", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(ContextEmail, identity.Email)
		c.Set(ContextName, identity.Name)
		c.Set(ContextPicture, identity.Picture)

		c.Next()
	}
}

// RequireAdmin looks the caller's role up in the principal store on every
// request. Roles are never taken from the token.
func RequireAdmin(principals service.PrincipalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.GetString(ContextEmail)
		if email == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		isAdmin, err := principals.IsAdmin(c.Request.Context(), email)
		if err != nil {
			slog.Error("role_lookup_failed", "email", email, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			c.Abort()
			return
		}
		if !isAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			c.Abort()
			return
		}

		c.Next()
	}
}
