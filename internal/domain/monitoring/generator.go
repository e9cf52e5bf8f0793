package monitoring

import "math/rand"

// Spike probabilities per tick. A spike is a short-lived larger deviation
// (transient HR surge or SpO2 dip) standing in for sensor noise and real
// anomalies. It can fire under any trend.
const (
	spikeChance         = 0.05
	criticalSpikeChance = 0.15
)

// State is a patient's live simulation state: the immutable baseline profile
// and the current walk position. It is a value type so the forecast engine
// can clone it by copying.
type State struct {
	Baseline Vitals
	Current  Vitals
}

// NewState starts a walk at the patient's baseline.
func NewState(baseline Vitals) State {
	b := baseline.Clamped()
	return State{Baseline: b, Current: b}
}

// Advance performs one simulation tick. It is a pure function of the previous
// state, the active trend, and the supplied random source, returning the next
// state and the clamped vitals reading for the tick. Callers own the state;
// injecting a seeded rng gives deterministic replay in tests.
func Advance(st State, trend Trend, rng *rand.Rand) (State, Vitals) {
	cur := st.Current

	hrDrift := pick(rng, -1, 0, 1)
	tempDrift := pick(rng, -0.1, 0, 0.1)
	spo2Drift := pick(rng, -1, 0, 1)

	switch trend {
	case TrendImproving:
		// Walk straight back toward the baseline profile.
		hrDrift = toward(cur.HeartRate, st.Baseline.HeartRate, 1)
		tempDrift = toward(cur.Temperature, st.Baseline.Temperature, 0.1)
		spo2Drift = toward(cur.SpO2, st.Baseline.SpO2, 1)
	case TrendWorsening:
		// HR up, SpO2 down, temperature erratic.
		hrDrift += pick(rng, 0, 1, 2)
		spo2Drift -= pick(rng, 0, 1, 2)
		tempDrift += pick(rng, -0.1, 0.1, 0.2)
	case TrendCritical:
		// Same direction as worsening with a larger step.
		hrDrift += pick(rng, 0, 2, 4)
		spo2Drift -= pick(rng, 1, 2, 3)
		tempDrift += pick(rng, 0, 0.2, 0.3)
	}

	cur.HeartRate += hrDrift
	cur.Temperature += tempDrift
	cur.SpO2 += spo2Drift

	if trend == TrendNormal && rng.Float64() < 0.05 {
		// Occasional pull halfway back to baseline keeps the normal walk
		// mean-reverting instead of wandering off.
		cur.HeartRate = (cur.HeartRate + st.Baseline.HeartRate) / 2
		cur.Temperature = (cur.Temperature + st.Baseline.Temperature) / 2
		cur.SpO2 = (cur.SpO2 + st.Baseline.SpO2) / 2
	}

	chance := spikeChance
	if trend == TrendCritical {
		chance = criticalSpikeChance
	}
	if rng.Float64() < chance {
		if rng.Float64() < 0.5 {
			cur.HeartRate += float64(5 + rng.Intn(11)) // surge of 5..15 bpm
		} else {
			cur.SpO2 -= float64(3 + rng.Intn(4)) // dip of 3..6 points
		}
	}

	cur = cur.Clamped()
	st.Current = cur
	return st, cur
}

// pick returns one of three candidate drift values with equal probability.
func pick(rng *rand.Rand, a, b, c float64) float64 {
	switch rng.Intn(3) {
	case 0:
		return a
	case 1:
		return b
	}
	return c
}

// toward returns a step of the given size in the direction of target,
// or 0 when already within one step of it.
func toward(cur, target, step float64) float64 {
	switch {
	case cur > target+step:
		return -step
	case cur < target-step:
		return step
	}
	return 0
}
