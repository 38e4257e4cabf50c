package records

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := NewService(NewMemoryStore())
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group("/"))
	return r, svc
}

func seedSession(t *testing.T, svc *Service, sessionID string, outcomes ...Outcome) *User {
	t.Helper()
	ctx := context.Background()
	user, err := svc.GetOrCreateUser(ctx, sessionID)
	require.NoError(t, err)
	for _, o := range outcomes {
		_, err := svc.SavePrediction(ctx, user, sampleFeatures(), o, "10.0.0.1", "ua")
		require.NoError(t, err)
	}
	return user
}

func TestGetHistory(t *testing.T) {
	r, svc := setupRouter(t)
	seedSession(t, svc, "sess-h",
		Outcome{Prediction: 1, RiskPercentage: 75, RiskLevel: "High", Confidence: 75})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/history/sess-h", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		User        User          `json:"user"`
		Predictions []*Prediction `json:"predictions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "sess-h", body.User.SessionID)
	assert.Equal(t, 1, body.User.PredictionsCount)
	require.Len(t, body.Predictions, 1)
	assert.Equal(t, "High", body.Predictions[0].Results.RiskLevel)
	assert.Equal(t, "10.0.0.1", body.Predictions[0].IPAddress)
	assert.Len(t, body.Predictions[0].Features, 13)
}

func TestGetHistoryNotFound(t *testing.T) {
	r, _ := setupRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/history/ghost", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not_found")
}

func TestGetStats(t *testing.T) {
	r, svc := setupRouter(t)
	seedSession(t, svc, "sess-s1",
		Outcome{RiskPercentage: 20, RiskLevel: "Low", Confidence: 80},
		Outcome{RiskPercentage: 50, RiskLevel: "Moderate", Confidence: 50})
	seedSession(t, svc, "sess-s2",
		Outcome{Prediction: 1, RiskPercentage: 90, RiskLevel: "High", Confidence: 90})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var stats Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.TotalUsers)
	assert.Equal(t, 3, stats.TotalPredictions)
	assert.Equal(t, 3, stats.Recent24h)
	assert.Equal(t, 1, stats.RiskDistribution["High"])
}

func TestExport(t *testing.T) {
	r, svc := setupRouter(t)
	seedSession(t, svc, "sess-e",
		Outcome{RiskPercentage: 10, RiskLevel: "Low", Confidence: 90},
		Outcome{RiskPercentage: 40, RiskLevel: "Moderate", Confidence: 60})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/export/sess-e", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "user_info")
	assert.Contains(t, body, "predictions")
	assert.Contains(t, body, "export_timestamp")

	var total int
	require.NoError(t, json.Unmarshal(body["total_predictions"], &total))
	assert.Equal(t, 2, total)
}

func TestGetHistoryPaginated(t *testing.T) {
	r, svc := setupRouter(t)
	user := seedSession(t, svc, "sess-page")
	for i := 0; i < 5; i++ {
		_, err := svc.SavePrediction(context.Background(), user, sampleFeatures(),
			Outcome{RiskPercentage: float64(10 * i), RiskLevel: "Low", Confidence: 90}, "", "")
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	type page struct {
		Predictions []*Prediction `json:"predictions"`
		NextCursor  string        `json:"next_cursor"`
		HasMore     bool          `json:"has_more"`
	}

	fetch := func(cursor string) page {
		url := "/history/sess-page?limit=2"
		if cursor != "" {
			url += "&cursor=" + cursor
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, url, nil))
		require.Equal(t, http.StatusOK, w.Code)
		var p page
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
		return p
	}

	var seen []string
	p := fetch("")
	for {
		for _, pred := range p.Predictions {
			seen = append(seen, pred.ID)
		}
		if !p.HasMore {
			break
		}
		require.NotEmpty(t, p.NextCursor)
		p = fetch(p.NextCursor)
	}

	assert.Len(t, seen, 5)
	// No duplicates across pages
	unique := make(map[string]bool)
	for _, id := range seen {
		unique[id] = true
	}
	assert.Len(t, unique, 5)
}

func TestGetHistoryInvalidLimit(t *testing.T) {
	r, svc := setupRouter(t)
	seedSession(t, svc, "sess-badlimit",
		Outcome{RiskPercentage: 10, RiskLevel: "Low", Confidence: 90})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/history/sess-badlimit?limit=0", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_limit")
}

func TestExportNotFound(t *testing.T) {
	r, _ := setupRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/export/ghost", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}
