package records

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cardioserve/cardioserve/internal/logging"
	"github.com/cardioserve/cardioserve/internal/pagination"
)

// Handler provides HTTP endpoints for prediction history
type Handler struct {
	service *Service
}

// NewHandler creates a new records handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes sets up history routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/history/:session_id", h.GetHistory)
	r.GET("/stats", h.GetStats)
	r.GET("/export/:session_id", h.Export)
}

// GetHistory handles GET /history/:session_id
//
// Without limit the full history is returned. With ?limit= the response is
// cursor-paginated: pass the returned next_cursor to fetch the next page.
func (h *Handler) GetHistory(c *gin.Context) {
	sessionID := c.Param("session_id")

	user, preds, err := h.service.History(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "No history found for this session",
			})
			return
		}
		logging.L(c.Request.Context()).Error("history lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to load history",
		})
		return
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > 200 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_limit",
				"message": "limit must be an integer between 1 and 200",
			})
			return
		}

		cur, err := pagination.Decode(c.Query("cursor"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_cursor",
				"message": "cursor is not valid",
			})
			return
		}
		if cur != nil {
			preds = afterCursor(preds, cur)
		}

		if len(preds) > limit+1 {
			preds = preds[:limit+1]
		}
		page, next, more := pagination.ComputePage(preds, limit, func(p *Prediction) (time.Time, string) {
			return p.CreatedAt, p.ID
		})

		c.JSON(http.StatusOK, gin.H{
			"user":        user,
			"predictions": page,
			"next_cursor": next,
			"has_more":    more,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":        user,
		"predictions": preds,
	})
}

// afterCursor drops entries at or before the cursor position in a
// newest-first list.
func afterCursor(preds []*Prediction, cur *pagination.Cursor) []*Prediction {
	for i, p := range preds {
		if p.CreatedAt.Equal(cur.CreatedAt) && p.ID == cur.ID {
			return preds[i+1:]
		}
		if p.CreatedAt.Before(cur.CreatedAt) {
			return preds[i:]
		}
	}
	return nil
}

// GetStats handles GET /stats
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		logging.L(c.Request.Context()).Error("stats query failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to compute stats",
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Export handles GET /export/:session_id
func (h *Handler) Export(c *gin.Context) {
	sessionID := c.Param("session_id")

	user, preds, err := h.service.History(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "No data found for this session",
			})
			return
		}
		logging.L(c.Request.Context()).Error("export failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to export data",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_info":         user,
		"predictions":       preds,
		"export_timestamp":  time.Now().UTC(),
		"total_predictions": len(preds),
	})
}
