// Package validation provides input validation middleware for the Cardioserve API.
package validation

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

// MaxRequestSize is the maximum request body size (64KB is generous for 13 numbers)
const MaxRequestSize = 64 << 10

// MaxSessionIDLength matches the storage column width.
const MaxSessionIDLength = 255

// sessionIDRegex accepts the IDs we generate (UUID-shaped) plus any
// reasonable opaque token a client might supply.
var sessionIDRegex = regexp.MustCompile(`^[A-Za-z0-9_.:-]+$`)

// RequestSizeMiddleware limits request body size
func RequestSizeMiddleware(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}

// IsValidSessionID checks whether a client-supplied session identifier is
// acceptable as a lookup key.
func IsValidSessionID(id string) bool {
	return id != "" && len(id) <= MaxSessionIDLength && sessionIDRegex.MatchString(id)
}

// SessionIDParamMiddleware rejects requests with a malformed :session_id URL
// parameter. A no-op when the route has no such parameter.
func SessionIDParamMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("session_id")
		if id != "" && !IsValidSessionID(id) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_session_id",
				"message": "session_id contains invalid characters or is too long",
			})
			return
		}
		c.Next()
	}
}

// SanitizeString trims whitespace, strips null bytes, and truncates to maxLen.
func SanitizeString(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if len(s) > maxLen {
		s = s[:maxLen]
	}
	return strings.ReplaceAll(s, "\x00", "")
}
