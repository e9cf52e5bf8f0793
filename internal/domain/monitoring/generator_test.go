package monitoring

import (
	"math/rand"
	"testing"
)

func testBaseline() Vitals {
	return Vitals{HeartRate: 75, Temperature: 36.8, SpO2: 98}
}

func TestAdvance_StaysInBounds(t *testing.T) {
	for _, trend := range []Trend{TrendNormal, TrendImproving, TrendWorsening, TrendCritical} {
		rng := rand.New(rand.NewSource(1))
		st := NewState(testBaseline())
		for i := 0; i < 2000; i++ {
			var v Vitals
			st, v = Advance(st, trend, rng)
			if !v.InBounds() {
				t.Fatalf("trend %s tick %d: vitals out of bounds: %+v", trend, i, v)
			}
			if !st.Current.InBounds() {
				t.Fatalf("trend %s tick %d: state out of bounds: %+v", trend, i, st.Current)
			}
		}
	}
}

func TestAdvance_DeterministicWithSeed(t *testing.T) {
	run := func() []Vitals {
		rng := rand.New(rand.NewSource(99))
		st := NewState(testBaseline())
		var out []Vitals
		for i := 0; i < 50; i++ {
			var v Vitals
			st, v = Advance(st, TrendWorsening, rng)
			out = append(out, v)
		}
		return out
	}

	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("tick %d: same seed produced different vitals: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestAdvance_DoesNotMutateInput(t *testing.T) {
	st := NewState(testBaseline())
	before := st
	rng := rand.New(rand.NewSource(7))
	next, _ := Advance(st, TrendCritical, rng)
	if st != before {
		t.Fatalf("Advance mutated its input state: %+v", st)
	}
	if next == before {
		t.Fatal("Advance returned the input state unchanged")
	}
}

func TestAdvance_CriticalRaisesRiskRate(t *testing.T) {
	rules := RuleClassifier{}

	riskRate := func(trend Trend, seed int64) float64 {
		rng := rand.New(rand.NewSource(seed))
		st := NewState(testBaseline())
		var risky int
		const ticks = 200
		for i := 0; i < ticks; i++ {
			var v Vitals
			st, v = Advance(st, trend, rng)
			risky += rules.Classify(v)
		}
		return float64(risky) / ticks
	}

	normal := riskRate(TrendNormal, 3)
	critical := riskRate(TrendCritical, 3)
	if critical <= normal {
		t.Fatalf("expected critical risk rate (%.2f) to exceed normal (%.2f)", critical, normal)
	}
}

func TestAdvance_ImprovingRevertsTowardBaseline(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	st := NewState(testBaseline())
	st.Current = Vitals{HeartRate: 150, Temperature: 39.5, SpO2: 85}

	for i := 0; i < 300; i++ {
		st, _ = Advance(st, TrendImproving, rng)
	}

	// Spikes can still fire under improving, so allow transient headroom.
	if d := st.Current.HeartRate - st.Baseline.HeartRate; d > 40 || d < -40 {
		t.Errorf("heart rate did not revert: current %.0f, baseline %.0f", st.Current.HeartRate, st.Baseline.HeartRate)
	}
	if st.Current.SpO2 < 85 {
		t.Errorf("spo2 did not recover: %.0f", st.Current.SpO2)
	}
}

func TestNewState_ClampsBaseline(t *testing.T) {
	st := NewState(Vitals{HeartRate: 500, Temperature: 20, SpO2: 120})
	if !st.Baseline.InBounds() || !st.Current.InBounds() {
		t.Fatalf("baseline not clamped: %+v", st.Baseline)
	}
}
