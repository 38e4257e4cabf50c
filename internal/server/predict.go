package server

import (
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cardioserve/cardioserve/internal/features"
	"github.com/cardioserve/cardioserve/internal/idgen"
	"github.com/cardioserve/cardioserve/internal/logging"
	"github.com/cardioserve/cardioserve/internal/metrics"
	"github.com/cardioserve/cardioserve/internal/model"
	"github.com/cardioserve/cardioserve/internal/records"
	"github.com/cardioserve/cardioserve/internal/risk"
	"github.com/cardioserve/cardioserve/internal/traces"
	"github.com/cardioserve/cardioserve/internal/validation"
)

// predictHandler handles POST /predict
//
// Persistence is best-effort: a storage failure is logged and counted but the
// client still receives the scoring result, just without prediction_id and
// session_id.
func (s *Server) predictHandler(c *gin.Context) {
	ctx, span := traces.StartSpan(c.Request.Context(), "score_prediction")
	defer span.End()

	var data map[string]any
	if err := c.ShouldBindJSON(&data); err != nil || len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "no_data",
			"message": "No input data provided",
		})
		return
	}

	vec, err := features.ParseVector(data)
	if err != nil {
		var missing *features.MissingFeaturesError
		if errors.As(err, &missing) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":            "missing_features",
				"message":          missing.Error(),
				"missing_features": missing.Names,
			})
			return
		}
		var invalid *features.InvalidFeatureError
		if errors.As(err, &invalid) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_feature",
				"message": invalid.Error(),
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": err.Error(),
		})
		return
	}

	result, err := s.runtime.Score(vec)
	if err != nil {
		if errors.Is(err, model.ErrModelUnavailable) {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "model_unavailable",
				"message": "Model not loaded. Please train the model first.",
			})
			return
		}
		logging.L(ctx).Error("scoring failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Prediction failed",
		})
		return
	}

	riskPct := round2(result.Probabilities[1] * 100)
	bucket := risk.Classify(riskPct)
	confidence := round2(math.Max(result.Probabilities[0], result.Probabilities[1]) * 100)

	interpretationResult := "No Heart Disease Detected"
	if result.Label == 1 {
		interpretationResult = "Heart Disease Detected"
	}

	span.SetAttributes(traces.RiskLevel(string(bucket.Level)))
	metrics.PredictionsTotal.WithLabelValues(string(bucket.Level)).Inc()
	metrics.RiskPercentage.Observe(riskPct)

	resp := gin.H{
		"prediction":      result.Label,
		"risk_percentage": riskPct,
		"risk_level":      string(bucket.Level),
		"risk_color":      bucket.Color,
		"interpretation": gin.H{
			"result":         interpretationResult,
			"confidence":     fmt.Sprintf("%.2f%%", confidence),
			"recommendation": bucket.Recommendation,
		},
	}

	// Resolve the session and persist; never fail the prediction over storage.
	sessionID := c.GetHeader("X-Session-ID")
	if sessionID != "" && !validation.IsValidSessionID(sessionID) {
		logging.L(ctx).Warn("rejecting malformed session ID, issuing a new one")
		sessionID = ""
	}
	if sessionID == "" {
		sessionID = idgen.NewSessionID()
	}

	featureMap := make(map[string]float64, len(vec))
	for i, name := range features.Order() {
		featureMap[name] = vec[i]
	}

	user, err := s.records.GetOrCreateUser(ctx, sessionID)
	if err != nil {
		logging.L(ctx).Error("failed to resolve session user", "error", err)
		metrics.PersistenceFailuresTotal.Inc()
		c.JSON(http.StatusOK, resp)
		return
	}

	pred, err := s.records.SavePrediction(ctx, user, featureMap, records.Outcome{
		Prediction:     result.Label,
		RiskPercentage: riskPct,
		RiskLevel:      string(bucket.Level),
		Confidence:     confidence,
	}, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		logging.L(ctx).Error("failed to save prediction", "error", err)
		metrics.PersistenceFailuresTotal.Inc()
		c.JSON(http.StatusOK, resp)
		return
	}

	span.SetAttributes(traces.SessionID(sessionID), traces.PredictionID(pred.ID))

	s.realtimeHub.BroadcastPrediction(map[string]interface{}{
		"prediction_id":   pred.ID,
		"prediction":      result.Label,
		"risk_level":      string(bucket.Level),
		"risk_percentage": riskPct,
	})

	resp["prediction_id"] = pred.ID
	resp["session_id"] = sessionID
	c.JSON(http.StatusOK, resp)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
