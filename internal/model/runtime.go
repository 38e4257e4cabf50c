// Package model loads the frozen scaler and logistic classifier exported from
// the training pipeline and scores feature vectors with them.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
)

const (
	scalerFile     = "scaler_final.json"
	classifierFile = "model_final.json"
)

// ErrModelUnavailable is returned by Score when the artifacts are not loaded.
var ErrModelUnavailable = errors.New("model artifacts not loaded")

// Scaler holds the standardization parameters fitted during training.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Classifier holds the logistic regression parameters fitted during training.
type Classifier struct {
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
}

// Result is the outcome of scoring one feature vector.
type Result struct {
	// Label is 1 when disease probability >= 0.5, else 0.
	Label int
	// Probabilities holds [P(no disease), P(disease)].
	Probabilities [2]float64
}

// Runtime scores feature vectors against the frozen artifacts. The artifacts
// are immutable after Load, so Runtime is safe for concurrent use.
type Runtime struct {
	scaler     *Scaler
	classifier *Classifier
}

// Load searches dirs in order for a directory containing both artifact files
// and loads them. Loading is all-or-nothing per directory: a candidate with
// only one valid artifact is skipped. A Runtime is always returned; if no
// candidate succeeds it scores nothing and Score returns ErrModelUnavailable.
func Load(dirs []string, logger *slog.Logger) *Runtime {
	rt := &Runtime{}
	for _, dir := range dirs {
		scaler, err := loadScaler(filepath.Join(dir, scalerFile))
		if err != nil {
			logger.Debug("skipping model dir", "dir", dir, "error", err)
			continue
		}
		classifier, err := loadClassifier(filepath.Join(dir, classifierFile))
		if err != nil {
			logger.Debug("skipping model dir", "dir", dir, "error", err)
			continue
		}
		if len(scaler.Mean) != len(classifier.Coefficients) {
			logger.Warn("artifact dimension mismatch",
				"dir", dir,
				"scaler_dims", len(scaler.Mean),
				"classifier_dims", len(classifier.Coefficients))
			continue
		}
		rt.scaler = scaler
		rt.classifier = classifier
		logger.Info("model artifacts loaded", "dir", dir, "features", len(scaler.Mean))
		return rt
	}
	logger.Warn("no model artifacts found, predictions disabled", "searched", dirs)
	return rt
}

// Loaded reports whether the scaler and classifier are available.
func (rt *Runtime) Loaded() (scalerLoaded, classifierLoaded bool) {
	return rt.scaler != nil, rt.classifier != nil
}

// Score standardizes values with the frozen scaler and applies the logistic
// classifier. The input length must match the training dimensionality.
func (rt *Runtime) Score(values []float64) (*Result, error) {
	if rt.scaler == nil || rt.classifier == nil {
		return nil, ErrModelUnavailable
	}
	if len(values) != len(rt.scaler.Mean) {
		return nil, fmt.Errorf("expected %d features, got %d", len(rt.scaler.Mean), len(values))
	}

	logit := rt.classifier.Intercept
	for i, v := range values {
		z := (v - rt.scaler.Mean[i]) / rt.scaler.Scale[i]
		logit += rt.classifier.Coefficients[i] * z
	}

	p1 := 1.0 / (1.0 + math.Exp(-logit))
	res := &Result{Probabilities: [2]float64{1 - p1, p1}}
	if p1 >= 0.5 {
		res.Label = 1
	}
	return res, nil
}

func loadScaler(path string) (*Scaler, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Scaler
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(s.Mean) == 0 || len(s.Mean) != len(s.Scale) {
		return nil, fmt.Errorf("%s: mean/scale length mismatch", path)
	}
	for i, sc := range s.Scale {
		if sc == 0 {
			return nil, fmt.Errorf("%s: zero scale at index %d", path, i)
		}
	}
	return &s, nil
}

func loadClassifier(path string) (*Classifier, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Classifier
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(c.Coefficients) == 0 {
		return nil, fmt.Errorf("%s: no coefficients", path)
	}
	return &c, nil
}
