package risk

import "testing"

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		pct   float64
		level Level
		color string
	}{
		{0, Low, "#28a745"},
		{29.999, Low, "#28a745"},
		{30, Moderate, "#ffc107"},
		{50, Moderate, "#ffc107"},
		{69.999, Moderate, "#ffc107"},
		{70, High, "#dc3545"},
		{100, High, "#dc3545"},
	}
	for _, tc := range cases {
		b := Classify(tc.pct)
		if b.Level != tc.level {
			t.Errorf("Classify(%v) level = %s, want %s", tc.pct, b.Level, tc.level)
		}
		if b.Color != tc.color {
			t.Errorf("Classify(%v) color = %s, want %s", tc.pct, b.Color, tc.color)
		}
		if b.Recommendation == "" {
			t.Errorf("Classify(%v) missing recommendation", tc.pct)
		}
	}
}
