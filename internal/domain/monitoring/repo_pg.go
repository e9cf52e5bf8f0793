package monitoring

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type vitalsLogRepoPG struct{ pool *pgxpool.Pool }

func NewVitalsLogRepoPG(pool *pgxpool.Pool) VitalsLogRepository {
	return &vitalsLogRepoPG{pool: pool}
}

func (r *vitalsLogRepoPG) Insert(ctx context.Context, patientID uuid.UUID, s Snapshot) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO vitals_log (id, patient_id, timestamp, heart_rate, temperature, spo2, risk)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		uuid.New(), patientID, s.Timestamp, s.HeartRate, s.Temperature, s.SpO2, s.Risk)
	return err
}

func (r *vitalsLogRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*VitalsLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, timestamp, heart_rate, temperature, spo2, risk
		FROM vitals_log WHERE patient_id = $1
		ORDER BY timestamp DESC LIMIT $2`, patientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*VitalsLogEntry
	for rows.Next() {
		var e VitalsLogEntry
		if err := rows.Scan(&e.ID, &e.PatientID, &e.Timestamp, &e.HeartRate, &e.Temp, &e.SpO2, &e.Risk); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
