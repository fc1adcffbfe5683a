package middleware

import (
	"net/http"
	"strings"

	"pos-backoffice/internal/auth"

	"github.com/gin-gonic/gin"
)

const (
	CashierIDKey = "cashierID"
	RoleKey      = "role"
)

// Identify reads an optional bearer token. Requests without one pass through
// untouched; a token that is present but invalid is rejected.
func Identify(tokens *auth.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}
		if !authenticate(c, tokens, authHeader) {
			return
		}
		c.Next()
	}
}

// RequireAuth is Identify without the anonymous path.
func RequireAuth(tokens *auth.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}
		if !authenticate(c, tokens, authHeader) {
			return
		}
		c.Next()
	}
}

// RequireRole is a secondary guard that checks for specific permissions
func RequireRole(allowedRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(RoleKey)
		if !exists || role != allowedRole {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You do not have permission to access this resource"})
			return
		}
		c.Next()
	}
}

// CashierID returns the cashier identified by the request token, if any.
func CashierID(c *gin.Context) string {
	return c.GetString(CashierIDKey)
}

func authenticate(c *gin.Context, tokens *auth.Tokens, authHeader string) bool {
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header must start with Bearer"})
		return false
	}

	claims, err := tokens.Validate(tokenString)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return false
	}

	c.Set(CashierIDKey, claims.CashierID)
	c.Set(RoleKey, claims.Role)
	return true
}
