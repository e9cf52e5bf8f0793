package monitoring

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// Classifier maps a vitals reading to a binary risk label. Implementations
// must be pure: identical vitals always yield the identical label, with no
// dependence on call order or history.
type Classifier interface {
	Classify(v Vitals) int
}

// Canonical clinical thresholds for the rule-based classifier. These are the
// single threshold set used across the system; the UI's separate warning
// bands are a frontend concern.
const (
	RiskHeartRateHigh = 100.0
	RiskHeartRateLow  = 50.0
	RiskSpO2Low       = 92.0
	RiskTemperature   = 38.0
)

// RuleClassifier is the fixed-threshold fallback. It is always available and
// needs no artifact.
type RuleClassifier struct{}

func (RuleClassifier) Classify(v Vitals) int {
	if v.HeartRate > RiskHeartRateHigh || v.HeartRate < RiskHeartRateLow ||
		v.SpO2 < RiskSpO2Low || v.Temperature > RiskTemperature {
		return 1
	}
	return 0
}

// LogisticClassifier is the trained model: a standardized logistic regression
// over (heart_rate, temperature, spo2). Feature order is fixed.
type LogisticClassifier struct {
	Bias    float64    `json:"bias"`
	Weights [3]float64 `json:"weights"`
	Mean    [3]float64 `json:"mean"`
	Std     [3]float64 `json:"std"`
}

func (m *LogisticClassifier) Classify(v Vitals) int {
	features := [3]float64{v.HeartRate, v.Temperature, v.SpO2}
	z := m.Bias
	for i, x := range features {
		std := m.Std[i]
		if std == 0 {
			std = 1
		}
		z += m.Weights[i] * (x - m.Mean[i]) / std
	}
	if sigmoid(z) >= 0.5 {
		return 1
	}
	return 0
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// modelArtifact is the on-disk form of a trained classifier.
type modelArtifact struct {
	Kind       string             `json:"kind"`
	TrainedAt  string             `json:"trained_at,omitempty"`
	Accuracy   float64            `json:"accuracy,omitempty"`
	Regression LogisticClassifier `json:"regression"`
}

// LoadModel reads a classifier artifact from disk. Any failure is reported as
// ErrModelUnavailable so the caller can fall back to the rule-based policy.
func LoadModel(path string) (*LogisticClassifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	var art modelArtifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrModelUnavailable, path, err)
	}
	if art.Kind != "logistic" {
		return nil, fmt.Errorf("%w: unsupported model kind %q", ErrModelUnavailable, art.Kind)
	}
	m := art.Regression
	return &m, nil
}

// ModelInfo describes which classifier the service selected at startup.
type ModelInfo struct {
	Loaded bool   `json:"model_loaded"`
	Kind   string `json:"model_type"`
}
