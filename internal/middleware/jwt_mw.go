package middleware

import (
	"context"
	"net/http"
	"strings"

	"lms_backend/internal/policy"
	"lms_backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	AuthUserKey      = "authUser"
	AuthPrincipalKey = "authPrincipal"
)

// Authenticator resolves a bearer token to the calling principal
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (policy.Principal, error)
}

// JWTAuthMiddleware creates a middleware for JWT authentication. The role is
// read from the user's profile on every request, never from the token.
func JWTAuthMiddleware(auth Authenticator, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			return
		}

		principal, err := auth.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			if service.KindOf(err) == service.KindAuth {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
				return
			}
			log.WithError(err).Error("failed to authenticate request")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to authenticate"})
			return
		}

		c.Set(AuthUserKey, principal.UserID)
		c.Set(AuthPrincipalKey, principal)

		c.Next()
	}
}

// GetPrincipal returns the principal stored by JWTAuthMiddleware, or the
// anonymous principal when the request was not authenticated.
func GetPrincipal(c *gin.Context) policy.Principal {
	val, exists := c.Get(AuthPrincipalKey)
	if !exists {
		return policy.Anonymous()
	}
	p, ok := val.(policy.Principal)
	if !ok {
		return policy.Anonymous()
	}
	return p
}
