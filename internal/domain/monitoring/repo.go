package monitoring

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// VitalsLogEntry is one persisted snapshot row.
type VitalsLogEntry struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
	HeartRate float64   `db:"heart_rate" json:"heart_rate"`
	Temp      float64   `db:"temperature" json:"temperature"`
	SpO2      float64   `db:"spo2" json:"spo2"`
	Risk      int       `db:"risk" json:"risk"`
}

// VitalsLogRepository persists sampled snapshots for long-horizon charting.
// The in-memory history ring stays authoritative for the polling API.
type VitalsLogRepository interface {
	Insert(ctx context.Context, patientID uuid.UUID, s Snapshot) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*VitalsLogEntry, error)
}

// memoryVitalsLog is the repository used when no database is configured.
type memoryVitalsLog struct {
	mu      sync.RWMutex
	entries map[uuid.UUID][]*VitalsLogEntry
	cap     int
}

// NewMemoryVitalsLog keeps at most capPerPatient rows per patient in memory.
func NewMemoryVitalsLog(capPerPatient int) VitalsLogRepository {
	if capPerPatient <= 0 {
		capPerPatient = 1000
	}
	return &memoryVitalsLog{
		entries: make(map[uuid.UUID][]*VitalsLogEntry),
		cap:     capPerPatient,
	}
}

func (m *memoryVitalsLog) Insert(_ context.Context, patientID uuid.UUID, s Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := append(m.entries[patientID], &VitalsLogEntry{
		ID:        uuid.New(),
		PatientID: patientID,
		Timestamp: s.Timestamp,
		HeartRate: s.HeartRate,
		Temp:      s.Temperature,
		SpO2:      s.SpO2,
		Risk:      s.Risk,
	})
	if len(rows) > m.cap {
		rows = rows[len(rows)-m.cap:]
	}
	m.entries[patientID] = rows
	return nil
}

func (m *memoryVitalsLog) ListByPatient(_ context.Context, patientID uuid.UUID, limit int) ([]*VitalsLogEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := m.entries[patientID]
	if limit <= 0 || limit > len(rows) {
		limit = len(rows)
	}
	// Newest first, matching the Postgres query.
	out := make([]*VitalsLogEntry, 0, limit)
	for i := len(rows) - 1; i >= len(rows)-limit; i-- {
		out = append(out, rows[i])
	}
	return out, nil
}
