package monitoring

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// SnapshotObserver is notified of every snapshot a tick produces. The alert
// engine implements it; observers must not block the tick.
type SnapshotObserver interface {
	Observe(ctx context.Context, result TickResult)
}

// Simulator is the scheduler that drives the whole simulation: one ticker,
// one mutation pass per tick across all patients. Stopping it means
// cancelling the context passed to Start.
type Simulator struct {
	registry     *Registry
	interval     time.Duration
	persistEvery int
	vitalsLog    VitalsLogRepository
	observers    []SnapshotObserver
	logger       zerolog.Logger
}

// SimulatorConfig wires the simulator. VitalsLog may be nil to disable
// persistence; PersistEvery counts ticks between persisted samples.
type SimulatorConfig struct {
	Interval     time.Duration
	PersistEvery int
	VitalsLog    VitalsLogRepository
	Observers    []SnapshotObserver
	Logger       zerolog.Logger
}

func NewSimulator(registry *Registry, cfg SimulatorConfig) *Simulator {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.PersistEvery <= 0 {
		cfg.PersistEvery = 5
	}
	return &Simulator{
		registry:     registry,
		interval:     cfg.Interval,
		persistEvery: cfg.PersistEvery,
		vitalsLog:    cfg.VitalsLog,
		observers:    cfg.Observers,
		logger:       cfg.Logger,
	}
}

// Start runs the tick loop until ctx is cancelled. It is meant to be launched
// as `go sim.Start(ctx)` next to the HTTP server.
func (s *Simulator) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().
		Dur("interval", s.interval).
		Int("patients", len(s.registry.IDs())).
		Msg("simulator started")

	step := 0
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("simulator stopped")
			return
		case <-ticker.C:
			s.step(ctx, step)
			step++
		}
	}
}

// step performs one tick: advance everyone, notify observers, persist the
// sampled snapshots.
func (s *Simulator) step(ctx context.Context, step int) {
	results := s.registry.Tick()

	for _, res := range results {
		for _, obs := range s.observers {
			obs.Observe(ctx, res)
		}
	}

	if s.vitalsLog == nil || step%s.persistEvery != 0 {
		return
	}
	for _, res := range results {
		if err := s.vitalsLog.Insert(ctx, res.PatientID, res.Snapshot); err != nil {
			s.logger.Error().Err(err).
				Str("patient_id", res.PatientID.String()).
				Msg("failed to persist vitals sample")
		}
	}
}
