package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func testRegistry(t *testing.T, opts ...Option) (*Registry, uuid.UUID) {
	t.Helper()
	opts = append([]Option{WithSeed(42), WithTickInterval(2 * time.Second)}, opts...)
	r := NewRegistry(RuleClassifier{}, opts...)
	id := uuid.New()
	r.Register(id, testBaseline())
	return r, id
}

func TestRegistry_UnknownPatient(t *testing.T) {
	r, _ := testRegistry(t)
	unknown := uuid.New()

	if _, _, err := r.Latest(unknown); !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("Latest: expected ErrPatientNotFound, got %v", err)
	}
	if _, err := r.History(unknown, false); !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("History: expected ErrPatientNotFound, got %v", err)
	}
	if err := r.SetTrend(unknown, TrendWorsening, 0); !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("SetTrend: expected ErrPatientNotFound, got %v", err)
	}
	if _, err := r.Forecast(unknown, 60, 15); !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("Forecast: expected ErrPatientNotFound, got %v", err)
	}
}

func TestRegistry_LatestBeforeFirstTick(t *testing.T) {
	r, id := testRegistry(t)
	snap, trend, err := r.Latest(id)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Vitals != testBaseline() {
		t.Errorf("expected baseline vitals before first tick, got %+v", snap.Vitals)
	}
	if trend != TrendNormal {
		t.Errorf("expected normal trend, got %s", trend)
	}
}

func TestRegistry_TickAdvancesAndRecords(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r, id := testRegistry(t, WithClock(func() time.Time { return now }))

	results := r.Tick()
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].PatientID != id {
		t.Errorf("result for wrong patient: %s", results[0].PatientID)
	}
	if !results[0].Snapshot.Timestamp.Equal(now) {
		t.Errorf("snapshot not stamped with clock time: %s", results[0].Snapshot.Timestamp)
	}

	snap, _, err := r.Latest(id)
	if err != nil {
		t.Fatal(err)
	}
	if snap != results[0].Snapshot {
		t.Errorf("Latest (%+v) disagrees with tick result (%+v)", snap, results[0].Snapshot)
	}

	hist, err := r.History(id, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 1 || hist[0] != snap {
		t.Errorf("history does not hold the tick snapshot: %+v", hist)
	}
}

func TestRegistry_HistoryBounded(t *testing.T) {
	r, id := testRegistry(t, WithHistorySize(10))
	for i := 0; i < 25; i++ {
		r.Tick()
	}
	hist, err := r.History(id, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 10 {
		t.Fatalf("history length = %d, want 10", len(hist))
	}
	for i := 1; i < len(hist); i++ {
		if hist[i].Timestamp.Before(hist[i-1].Timestamp) {
			t.Fatalf("history out of order at %d", i)
		}
	}
}

func TestRegistry_TrendOverrideTTLDecays(t *testing.T) {
	r, id := testRegistry(t)
	if err := r.SetTrend(id, TrendCritical, 3); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		results := r.Tick()
		if results[0].Trend != TrendCritical && i < 2 {
			t.Fatalf("tick %d: override dropped early, trend %s", i, results[0].Trend)
		}
	}

	_, trend, err := r.Latest(id)
	if err != nil {
		t.Fatal(err)
	}
	if trend != TrendNormal {
		t.Fatalf("override did not decay after TTL: trend %s", trend)
	}
}

func TestRegistry_TrendOverrideWithoutTTLPersists(t *testing.T) {
	r, id := testRegistry(t)
	if err := r.SetTrend(id, TrendWorsening, 0); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 50; i++ {
		r.Tick()
	}
	_, trend, err := r.Latest(id)
	if err != nil {
		t.Fatal(err)
	}
	if trend != TrendWorsening {
		t.Fatalf("override without TTL decayed: trend %s", trend)
	}
}

func TestRegistry_ReRegisterResetsWalk(t *testing.T) {
	r, id := testRegistry(t)
	r.SetTrend(id, TrendCritical, 0)
	for i := 0; i < 100; i++ {
		r.Tick()
	}
	r.Register(id, testBaseline())

	snap, trend, err := r.Latest(id)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Vitals != testBaseline() {
		t.Errorf("re-register did not reset the walk: %+v", snap.Vitals)
	}
	if trend != TrendNormal {
		t.Errorf("re-register did not reset the override: %s", trend)
	}
	if n := len(r.IDs()); n != 1 {
		t.Errorf("re-register duplicated the id: %d entries", n)
	}
}

func TestForecast_Shape(t *testing.T) {
	r, id := testRegistry(t)
	entries, err := r.Forecast(id, 10, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(entries))
	}
	for i, e := range entries {
		if want := (i + 1) * 2; e.MinutesAhead != want {
			t.Errorf("entry %d: minutes_ahead %d, want %d", i, e.MinutesAhead, want)
		}
		if !e.Vitals.InBounds() {
			t.Errorf("entry %d: vitals out of bounds: %+v", i, e.Vitals)
		}
	}
}

func TestForecast_DefaultWindow(t *testing.T) {
	r, id := testRegistry(t)
	entries, err := r.Forecast(id, 60, 15)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{15, 30, 45, 60}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, e := range entries {
		if e.MinutesAhead != want[i] {
			t.Errorf("entry %d: minutes_ahead %d, want %d", i, e.MinutesAhead, want[i])
		}
	}
}

func TestForecast_InvalidStep(t *testing.T) {
	r, id := testRegistry(t)
	if _, err := r.Forecast(id, 60, 0); err == nil {
		t.Fatal("expected error for zero step")
	}
	entries, err := r.Forecast(id, 5, 15)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("horizon below step should yield no entries, got %d", len(entries))
	}
}

// A forecast reads live state but must not consume the live random stream:
// two registries with the same seed stay in lockstep even when one of them
// serves forecasts in between ticks.
func TestForecast_DoesNotPerturbLiveWalk(t *testing.T) {
	a := NewRegistry(RuleClassifier{}, WithSeed(7), WithTickInterval(2*time.Second))
	b := NewRegistry(RuleClassifier{}, WithSeed(7), WithTickInterval(2*time.Second))
	id := uuid.New()
	a.Register(id, testBaseline())
	b.Register(id, testBaseline())

	for i := 0; i < 20; i++ {
		a.Tick()
		if _, err := b.Forecast(id, 60, 15); err != nil {
			t.Fatal(err)
		}
		b.Tick()
	}

	snapA, _, _ := a.Latest(id)
	snapB, _, _ := b.Latest(id)
	if snapA.Vitals != snapB.Vitals {
		t.Fatalf("forecasting perturbed the live walk: %+v vs %+v", snapA.Vitals, snapB.Vitals)
	}
}
