package alerts

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrAlertNotFound = errors.New("alert not found")

// ListFilter narrows an alert listing. Zero values mean no filtering.
type ListFilter struct {
	PatientID      uuid.UUID
	OnlyUnresolved bool
	Limit          int
}

type Repository interface {
	Create(ctx context.Context, a *Alert) error
	GetByID(ctx context.Context, id uuid.UUID) (*Alert, error)
	List(ctx context.Context, f ListFilter) ([]*Alert, error)
	Acknowledge(ctx context.Context, id uuid.UUID, by uuid.UUID) (*Alert, error)
}

// memoryRepo is the repository used when no database is configured.
type memoryRepo struct {
	mu     sync.RWMutex
	alerts []*Alert
	byID   map[uuid.UUID]*Alert
}

func NewMemoryRepo() Repository {
	return &memoryRepo{byID: make(map[uuid.UUID]*Alert)}
}

func (r *memoryRepo) Create(_ context.Context, a *Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	cp := *a
	r.alerts = append(r.alerts, &cp)
	r.byID[a.ID] = &cp
	return nil
}

func (r *memoryRepo) GetByID(_ context.Context, id uuid.UUID) (*Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, ErrAlertNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *memoryRepo) List(_ context.Context, f ListFilter) ([]*Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	// Newest first, matching the Postgres query.
	out := make([]*Alert, 0, len(r.alerts))
	for i := len(r.alerts) - 1; i >= 0; i-- {
		a := r.alerts[i]
		if f.PatientID != uuid.Nil && a.PatientID != f.PatientID {
			continue
		}
		if f.OnlyUnresolved && a.Acknowledged {
			continue
		}
		cp := *a
		out = append(out, &cp)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (r *memoryRepo) Acknowledge(_ context.Context, id uuid.UUID, by uuid.UUID) (*Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, ErrAlertNotFound
	}
	a.Acknowledged = true
	a.AcknowledgedBy = &by
	cp := *a
	return &cp, nil
}
