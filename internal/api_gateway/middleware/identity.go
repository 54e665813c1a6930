package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// UserIDHeader carries the identity of the requesting user
	UserIDHeader = "X-User-ID"

	// UserIDKey is the key used to store the user ID in the context
	UserIDKey = "user_id"
)

// Identity stores the X-User-ID header on the context. Token validation
// happens upstream; this only propagates the identity.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID := strings.TrimSpace(c.GetHeader(UserIDHeader)); userID != "" {
			c.Set(UserIDKey, userID)
		}
		c.Next()
	}
}

// RequireIdentity aborts with 401 when no user ID is present
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserID(c) == "" {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing "+UserIDHeader+" header")
			return
		}
		c.Next()
	}
}

// GetUserID retrieves the requesting user's ID, or "" when anonymous
func GetUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
