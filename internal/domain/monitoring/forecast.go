package monitoring

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// ForecastEntry is one projected point. Field names mirror the live snapshot
// contract; minutes_ahead ascends from the step size to the horizon.
type ForecastEntry struct {
	MinutesAhead int    `json:"minutes_ahead"`
	Vitals       Vitals `json:"vitals"`
	Risk         int    `json:"risk"`
	RiskLabel    string `json:"risk_label"`
}

// Forecast projects a patient's vitals forward by running the generator on a
// cloned state. The live record is read once under the read lock and never
// mutated; the projection uses its own random source so the authoritative
// walk's stream is untouched. horizonMinutes=10, stepMinutes=2 yields exactly
// five entries at minutes_ahead 2,4,6,8,10.
func (r *Registry) Forecast(id uuid.UUID, horizonMinutes, stepMinutes int) ([]ForecastEntry, error) {
	if stepMinutes <= 0 {
		return nil, fmt.Errorf("step must be positive, got %d", stepMinutes)
	}
	if horizonMinutes < stepMinutes {
		return []ForecastEntry{}, nil
	}

	r.mu.RLock()
	rec, ok := r.records[id]
	if !ok {
		r.mu.RUnlock()
		return nil, ErrPatientNotFound
	}
	state := rec.state
	trend := rec.override.Trend
	tickEvery := r.tickEvery
	r.mu.RUnlock()

	ticksPerMinute := int(time.Minute / tickEvery)
	if ticksPerMinute < 1 {
		ticksPerMinute = 1
	}

	rng := rand.New(rand.NewSource(r.seed + r.forecasts.Add(1)))

	steps := horizonMinutes / stepMinutes
	entries := make([]ForecastEntry, 0, steps)
	var vitals Vitals
	for k := 1; k <= steps; k++ {
		for t := 0; t < stepMinutes*ticksPerMinute; t++ {
			state, vitals = Advance(state, trend, rng)
		}
		v := vitals.Rounded()
		risk := r.classifier.Classify(v)
		entry := ForecastEntry{
			MinutesAhead: k * stepMinutes,
			Vitals:       v,
			Risk:         risk,
		}
		entry.RiskLabel = Snapshot{Risk: risk}.RiskLabel()
		entries = append(entries, entry)
	}
	return entries, nil
}
