// Package risk maps disease probabilities to the risk buckets shown to users.
package risk

// Level is a risk bucket name.
type Level string

const (
	Low      Level = "Low"
	Moderate Level = "Moderate"
	High     Level = "High"
)

// Bucket carries the presentation attributes of one risk level.
type Bucket struct {
	Level          Level
	Color          string
	Recommendation string
}

const (
	lowRecommendation      = "Your heart health appears good. Continue maintaining a healthy lifestyle with regular exercise and balanced diet."
	moderateRecommendation = "Moderate risk detected. Consider consulting with a healthcare provider for preventive measures and regular monitoring."
	highRecommendation     = "High risk detected. Please consult with a cardiologist immediately for comprehensive evaluation and treatment planning."
)

// Classify buckets a risk percentage in [0,100]. Boundaries are inclusive on
// the upper bucket: 30 is Moderate, 70 is High.
func Classify(riskPercentage float64) Bucket {
	switch {
	case riskPercentage < 30:
		return Bucket{Level: Low, Color: "#28a745", Recommendation: lowRecommendation}
	case riskPercentage < 70:
		return Bucket{Level: Moderate, Color: "#ffc107", Recommendation: moderateRecommendation}
	default:
		return Bucket{Level: High, Color: "#dc3545", Recommendation: highRecommendation}
	}
}
