package monitoring

import (
	"context"

	"github.com/google/uuid"
)

// RosterEntry is the slice of patient identity the monitoring views join
// with live vitals. The identity domain supplies it through an adapter so
// the two domains stay decoupled.
type RosterEntry struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Age      int       `json:"age"`
	Gender   string    `json:"gender"`
	DoctorID *uuid.UUID `json:"assigned_doctor_id,omitempty"`
}

// Roster lists the patients the monitoring API may expose.
type Roster interface {
	List(ctx context.Context) ([]RosterEntry, error)
	Get(ctx context.Context, id uuid.UUID) (RosterEntry, error)
}

// PatientView is a roster entry joined with the patient's latest snapshot.
type PatientView struct {
	RosterEntry
	HeartRate   float64 `json:"heart_rate"`
	Temperature float64 `json:"temperature"`
	SpO2        float64 `json:"spo2"`
	Risk        int     `json:"risk"`
	RiskLabel   string  `json:"risk_label"`
	Trend       Trend   `json:"trend"`
}

// Service exposes the read/override surface over the registry.
type Service struct {
	registry  *Registry
	roster    Roster
	vitalsLog VitalsLogRepository
	modelInfo ModelInfo
}

func NewService(registry *Registry, roster Roster, vitalsLog VitalsLogRepository, modelInfo ModelInfo) *Service {
	return &Service{
		registry:  registry,
		roster:    roster,
		vitalsLog: vitalsLog,
		modelInfo: modelInfo,
	}
}

// ListPatients returns every roster patient joined with live vitals.
func (s *Service) ListPatients(ctx context.Context) ([]PatientView, error) {
	entries, err := s.roster.List(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]PatientView, 0, len(entries))
	for _, entry := range entries {
		snap, trend, err := s.registry.Latest(entry.ID)
		if err != nil {
			// Roster patient without a live record: skip rather than fail
			// the whole listing.
			continue
		}
		views = append(views, joinView(entry, snap, trend))
	}
	return views, nil
}

// GetPatient returns one patient's joined view.
func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (PatientView, error) {
	entry, err := s.roster.Get(ctx, id)
	if err != nil {
		return PatientView{}, ErrPatientNotFound
	}
	snap, trend, err := s.registry.Latest(id)
	if err != nil {
		return PatientView{}, err
	}
	return joinView(entry, snap, trend), nil
}

func joinView(entry RosterEntry, snap Snapshot, trend Trend) PatientView {
	return PatientView{
		RosterEntry: entry,
		HeartRate:   snap.HeartRate,
		Temperature: snap.Temperature,
		SpO2:        snap.SpO2,
		Risk:        snap.Risk,
		RiskLabel:   snap.RiskLabel(),
		Trend:       trend,
	}
}

// History returns the in-memory ring, oldest..newest (desc reverses), capped
// at limit entries from the newest end.
func (s *Service) History(_ context.Context, id uuid.UUID, limit int, desc bool) ([]Snapshot, error) {
	snaps, err := s.registry.History(id, desc)
	if err != nil {
		return nil, err
	}
	if limit > 0 && limit < len(snaps) {
		if desc {
			snaps = snaps[:limit]
		} else {
			snaps = snaps[len(snaps)-limit:]
		}
	}
	return snaps, nil
}

// LoggedHistory reads the persisted long-horizon samples, newest first.
func (s *Service) LoggedHistory(ctx context.Context, id uuid.UUID, limit int) ([]*VitalsLogEntry, error) {
	if _, _, err := s.registry.Latest(id); err != nil {
		return nil, err
	}
	if s.vitalsLog == nil {
		return []*VitalsLogEntry{}, nil
	}
	return s.vitalsLog.ListByPatient(ctx, id, limit)
}

// Forecast projects a patient forward; see Registry.Forecast.
func (s *Service) Forecast(_ context.Context, id uuid.UUID, horizonMinutes, stepMinutes int) ([]ForecastEntry, error) {
	return s.registry.Forecast(id, horizonMinutes, stepMinutes)
}

// SetTrend validates and applies an operator override.
func (s *Service) SetTrend(_ context.Context, id uuid.UUID, value string, ttlTicks int) (Trend, error) {
	trend, err := ParseTrend(value)
	if err != nil {
		return "", err
	}
	if err := s.registry.SetTrend(id, trend, ttlTicks); err != nil {
		return "", err
	}
	return trend, nil
}

// ModelInfo reports which classifier was selected at startup.
func (s *Service) ModelInfo() ModelInfo { return s.modelInfo }

// Latest exposes the registry's latest snapshot, for other domains.
func (s *Service) Latest(id uuid.UUID) (Snapshot, Trend, error) {
	return s.registry.Latest(id)
}
