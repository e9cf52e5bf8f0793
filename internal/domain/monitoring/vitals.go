package monitoring

import (
	"math"
	"time"
)

// Physiological clamp bounds. Every vital the package emits is forced into
// these ranges before it leaves the generator.
const (
	MinHeartRate   = 40.0
	MaxHeartRate   = 180.0
	MinTemperature = 34.0
	MaxTemperature = 42.0
	MinSpO2        = 70.0
	MaxSpO2        = 100.0
)

// Vitals is a single reading of the three simulated signs. The JSON field
// names are a wire contract with the dashboard frontend and must not change.
type Vitals struct {
	HeartRate   float64 `json:"heart_rate"`
	Temperature float64 `json:"temperature"`
	SpO2        float64 `json:"spo2"`
}

// Clamped returns a copy with every vital forced into its physiological range.
func (v Vitals) Clamped() Vitals {
	return Vitals{
		HeartRate:   clamp(v.HeartRate, MinHeartRate, MaxHeartRate),
		Temperature: clamp(v.Temperature, MinTemperature, MaxTemperature),
		SpO2:        clamp(v.SpO2, MinSpO2, MaxSpO2),
	}
}

// Rounded returns a copy rounded to display precision: whole bpm and %, one
// decimal for temperature.
func (v Vitals) Rounded() Vitals {
	return Vitals{
		HeartRate:   math.Round(v.HeartRate),
		Temperature: math.Round(v.Temperature*10) / 10,
		SpO2:        math.Round(v.SpO2),
	}
}

// InBounds reports whether every vital is within its clamp range.
func (v Vitals) InBounds() bool {
	return v.HeartRate >= MinHeartRate && v.HeartRate <= MaxHeartRate &&
		v.Temperature >= MinTemperature && v.Temperature <= MaxTemperature &&
		v.SpO2 >= MinSpO2 && v.SpO2 <= MaxSpO2
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Snapshot is one classified reading. Risk is assigned exactly once, when the
// snapshot is created; snapshots are immutable afterwards.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`
	Vitals
	Risk int `json:"risk"`
}

// RiskLabel returns the display label the frontend shows next to a snapshot.
func (s Snapshot) RiskLabel() string {
	if s.Risk == 1 {
		return "High Risk"
	}
	return "Normal"
}
