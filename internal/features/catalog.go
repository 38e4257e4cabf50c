// Package features defines the clinical input schema: the thirteen features
// the classifier was trained on, their display metadata, and request parsing.
package features

import (
	"fmt"
	"strconv"
	"strings"
)

// Info describes one clinical feature for client form rendering.
type Info struct {
	Name    string            `json:"name"`
	Unit    string            `json:"unit,omitempty"`
	Min     *float64          `json:"min,omitempty"`
	Max     *float64          `json:"max,omitempty"`
	Options map[string]string `json:"options,omitempty"`
}

var order = []string{
	"age", "sex", "cp", "trestbps", "chol", "fbs", "restecg",
	"thalach", "exang", "oldpeak", "slope", "ca", "thal",
}

func f(v float64) *float64 { return &v }

var catalog = map[string]Info{
	"age":      {Name: "Age", Unit: "years", Min: f(1), Max: f(120)},
	"sex":      {Name: "Sex", Options: map[string]string{"1": "Male", "0": "Female"}},
	"cp":       {Name: "Chest Pain Type", Options: map[string]string{"1": "Typical Angina", "2": "Atypical Angina", "3": "Non-Anginal Pain", "4": "Asymptomatic"}},
	"trestbps": {Name: "Resting Blood Pressure", Unit: "mm Hg", Min: f(80), Max: f(200)},
	"chol":     {Name: "Cholesterol", Unit: "mg/dl", Min: f(100), Max: f(600)},
	"fbs":      {Name: "Fasting Blood Sugar > 120 mg/dl", Options: map[string]string{"1": "True", "0": "False"}},
	"restecg":  {Name: "Resting ECG Results", Options: map[string]string{"0": "Normal", "1": "ST-T Wave Abnormality", "2": "Left Ventricular Hypertrophy"}},
	"thalach":  {Name: "Maximum Heart Rate Achieved", Unit: "bpm", Min: f(60), Max: f(220)},
	"exang":    {Name: "Exercise Induced Angina", Options: map[string]string{"1": "Yes", "0": "No"}},
	"oldpeak":  {Name: "ST Depression Induced by Exercise", Unit: "mm", Min: f(0), Max: f(10)},
	"slope":    {Name: "Slope of Peak Exercise ST Segment", Options: map[string]string{"1": "Upsloping", "2": "Flat", "3": "Downsloping"}},
	"ca":       {Name: "Number of Major Vessels Colored by Fluoroscopy", Options: map[string]string{"0": "0", "1": "1", "2": "2", "3": "3"}},
	"thal":     {Name: "Thalassemia", Options: map[string]string{"3": "Normal", "6": "Fixed Defect", "7": "Reversible Defect"}},
}

// Count is the number of features the classifier consumes.
const Count = 13

// Order returns the feature names in training order.
func Order() []string {
	out := make([]string, len(order))
	copy(out, order)
	return out
}

// Catalog returns the display metadata for every feature, keyed by name.
func Catalog() map[string]Info {
	out := make(map[string]Info, len(catalog))
	for k, v := range catalog {
		out[k] = v
	}
	return out
}

// MissingFeaturesError reports every feature absent from a request.
type MissingFeaturesError struct {
	Names []string
}

func (e *MissingFeaturesError) Error() string {
	return fmt.Sprintf("missing features: %s", strings.Join(e.Names, ", "))
}

// InvalidFeatureError reports a feature value that could not be read as a number.
type InvalidFeatureError struct {
	Name  string
	Value any
}

func (e *InvalidFeatureError) Error() string {
	return fmt.Sprintf("invalid value for feature %s: %v", e.Name, e.Value)
}

// ParseVector extracts the thirteen feature values from a decoded JSON object,
// in training order. Values may be JSON numbers or numeric strings. All
// missing features are reported together before any value is checked.
func ParseVector(data map[string]any) ([]float64, error) {
	var missing []string
	for _, name := range order {
		if _, ok := data[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingFeaturesError{Names: missing}
	}

	vec := make([]float64, len(order))
	for i, name := range order {
		v, err := toFloat(data[name])
		if err != nil {
			return nil, &InvalidFeatureError{Name: name, Value: data[name]}
		}
		vec[i] = v
	}
	return vec, nil
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(x), 64)
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case nil:
		return 0, fmt.Errorf("null value")
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}
