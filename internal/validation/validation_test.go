package validation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestIsValidSessionID(t *testing.T) {
	tests := []struct {
		id    string
		valid bool
	}{
		{"550e8400-e29b-41d4-a716-446655440000", true},
		{"client.token_1:abc", true},
		{"", false},
		{"has space", false},
		{"semi;colon", false},
		{strings.Repeat("a", MaxSessionIDLength), true},
		{strings.Repeat("a", MaxSessionIDLength+1), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.valid, IsValidSessionID(tt.id), "id=%q", tt.id)
	}
}

func TestSessionIDParamMiddleware(t *testing.T) {
	router := gin.New()
	router.GET("/history/:session_id", SessionIDParamMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/history/abc-123", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/history/bad%3Bid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestSizeMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(RequestSizeMiddleware(16))
	router.POST("/", func(c *gin.Context) {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "too_large"})
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"a":1}`))
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/", strings.NewReader(`{"key":"`+strings.Repeat("x", 64)+`"}`))
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello", SanitizeString("  hello  ", 100))
	assert.Equal(t, "ab", SanitizeString("ab\x00", 100))
	assert.Equal(t, "abc", SanitizeString("abcdef", 3))
}
