package monitoring

import "fmt"

// Trend is an operator-set bias applied to a patient's simulated walk.
type Trend string

const (
	TrendNormal    Trend = "normal"
	TrendImproving Trend = "improving"
	TrendWorsening Trend = "worsening"
	TrendCritical  Trend = "critical"
)

// ParseTrend validates an override value received from the API layer.
func ParseTrend(s string) (Trend, error) {
	switch Trend(s) {
	case TrendNormal, TrendImproving, TrendWorsening, TrendCritical:
		return Trend(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTrend, s)
}

// TrendOverride is the per-patient override state machine. A patient has at
// most one active override; TTLTicks > 0 makes it decay back to normal after
// that many simulation ticks, 0 means it holds until replaced.
type TrendOverride struct {
	Trend    Trend
	TTLTicks int
}
