package alerts

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const alertCols = `id, patient_id, patient_name, severity, alert_type, message,
	sent_to_roles, vitals_snapshot, acknowledged, acknowledged_by, created_at`

func (r *repoPG) Create(ctx context.Context, a *Alert) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO alerts (id, patient_id, patient_name, severity, alert_type, message,
			sent_to_roles, vitals_snapshot)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at`,
		a.ID, a.PatientID, a.PatientName, a.Severity, a.Type, a.Message,
		a.SentToRoles, a.VitalsSnapshot,
	).Scan(&a.CreatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Alert, error) {
	return scanAlert(r.pool.QueryRow(ctx, `SELECT `+alertCols+` FROM alerts WHERE id = $1`, id))
}

func (r *repoPG) List(ctx context.Context, f ListFilter) ([]*Alert, error) {
	query := `SELECT ` + alertCols + ` FROM alerts WHERE 1=1`
	args := []interface{}{}
	if f.PatientID != uuid.Nil {
		args = append(args, f.PatientID)
		query += ` AND patient_id = $1`
	}
	if f.OnlyUnresolved {
		query += ` AND NOT acknowledged`
	}
	query += ` ORDER BY created_at DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		if f.PatientID != uuid.Nil {
			query += ` LIMIT $2`
		} else {
			query += ` LIMIT $1`
		}
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repoPG) Acknowledge(ctx context.Context, id uuid.UUID, by uuid.UUID) (*Alert, error) {
	a, err := scanAlert(r.pool.QueryRow(ctx, `
		UPDATE alerts SET acknowledged = TRUE, acknowledged_by = $2
		WHERE id = $1
		RETURNING `+alertCols, id, by))
	if err != nil {
		return nil, err
	}
	return a, nil
}

func scanAlert(row pgx.Row) (*Alert, error) {
	var a Alert
	err := row.Scan(&a.ID, &a.PatientID, &a.PatientName, &a.Severity, &a.Type, &a.Message,
		&a.SentToRoles, &a.VitalsSnapshot, &a.Acknowledged, &a.AcknowledgedBy, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAlertNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
