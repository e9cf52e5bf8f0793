package monitoring

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// record is the mutable per-patient state. It is exclusively owned by the
// Registry; all mutation goes through the tick pass.
type record struct {
	state    State
	override TrendOverride
	history  *History
	latest   Snapshot
	hasData  bool
}

// Registry maps patient ids to their owned simulation records and enforces
// the single-writer/many-readers discipline: Tick holds the write lock for
// the whole mutation pass, readers take copies under the read lock.
type Registry struct {
	mu          sync.RWMutex
	records     map[uuid.UUID]*record
	order       []uuid.UUID
	classifier  Classifier
	rng         *rand.Rand
	clock       func() time.Time
	historySize int
	tickEvery   time.Duration
	seed        int64
	forecasts   atomic.Int64
}

// Option configures a Registry.
type Option func(*Registry)

// WithSeed makes the whole simulation deterministic, for replay in tests.
func WithSeed(seed int64) Option {
	return func(r *Registry) {
		r.seed = seed
		r.rng = rand.New(rand.NewSource(seed))
	}
}

// WithClock injects the time source used to stamp snapshots.
func WithClock(clock func() time.Time) Option {
	return func(r *Registry) { r.clock = clock }
}

// WithHistorySize overrides the per-patient ring capacity.
func WithHistorySize(n int) Option {
	return func(r *Registry) { r.historySize = n }
}

// WithTickInterval tells the registry how much wall time one tick represents,
// which fixes the ticks-per-minute ratio the forecast engine uses.
func WithTickInterval(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.tickEvery = d
		}
	}
}

func NewRegistry(classifier Classifier, opts ...Option) *Registry {
	seed := time.Now().UnixNano()
	r := &Registry{
		records:     make(map[uuid.UUID]*record),
		classifier:  classifier,
		rng:         rand.New(rand.NewSource(seed)),
		clock:       time.Now,
		historySize: DefaultHistorySize,
		tickEvery:   2 * time.Second,
		seed:        seed,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a patient with the given baseline profile. Registering an id
// twice resets its walk; identity stays stable.
func (r *Registry) Register(id uuid.UUID, baseline Vitals) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		r.order = append(r.order, id)
	}
	r.records[id] = &record{
		state:    NewState(baseline),
		override: TrendOverride{Trend: TrendNormal},
		history:  NewHistory(r.historySize),
	}
}

// IDs returns the registered patient ids in registration order.
func (r *Registry) IDs() []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]uuid.UUID, len(r.order))
	copy(out, r.order)
	return out
}

// TickResult pairs a patient with the snapshot its tick produced.
type TickResult struct {
	PatientID uuid.UUID
	Snapshot  Snapshot
	Trend     Trend
}

// Tick advances every patient one simulation step: walk, classify, append to
// history, decay expiring overrides. This is the only mutation pass.
func (r *Registry) Tick() []TickResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock()
	results := make([]TickResult, 0, len(r.order))
	for _, id := range r.order {
		rec := r.records[id]

		next, vitals := Advance(rec.state, rec.override.Trend, r.rng)
		rec.state = next

		snap := Snapshot{Timestamp: now, Vitals: vitals.Rounded()}
		snap.Risk = r.classifier.Classify(snap.Vitals)

		rec.latest = snap
		rec.hasData = true
		rec.history.Append(snap)

		if rec.override.TTLTicks > 0 {
			rec.override.TTLTicks--
			if rec.override.TTLTicks == 0 {
				rec.override = TrendOverride{Trend: TrendNormal}
			}
		}

		results = append(results, TickResult{PatientID: id, Snapshot: snap, Trend: rec.override.Trend})
	}
	return results
}

// Latest returns the most recent snapshot and active trend for a patient.
// Before the first tick the snapshot holds the baseline, unclassified at
// risk 0 until the simulator stamps one.
func (r *Registry) Latest(id uuid.UUID) (Snapshot, Trend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return Snapshot{}, "", ErrPatientNotFound
	}
	if !rec.hasData {
		snap := Snapshot{Timestamp: r.clock(), Vitals: rec.state.Current.Rounded()}
		snap.Risk = r.classifier.Classify(snap.Vitals)
		return snap, rec.override.Trend, nil
	}
	return rec.latest, rec.override.Trend, nil
}

// History returns the buffered snapshots, oldest to newest (or reversed).
func (r *Registry) History(id uuid.UUID, desc bool) ([]Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	if desc {
		return rec.history.RecentDesc(), nil
	}
	return rec.history.Recent(), nil
}

// SetTrend replaces the patient's active override. ttlTicks > 0 makes it
// decay to normal after that many ticks.
func (r *Registry) SetTrend(id uuid.UUID, trend Trend, ttlTicks int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return ErrPatientNotFound
	}
	if ttlTicks < 0 {
		ttlTicks = 0
	}
	rec.override = TrendOverride{Trend: trend, TTLTicks: ttlTicks}
	return nil
}
