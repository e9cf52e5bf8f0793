package main

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/carelink/internal/domain/identity"
	"github.com/carelink/carelink/internal/domain/monitoring"
)

func seededService(t *testing.T) *identity.Service {
	t.Helper()
	svc := identity.NewService(identity.NewMemoryUserRepo(), identity.NewMemoryPatientRepo())
	if err := svc.Seed(context.Background(), zerolog.Nop()); err != nil {
		t.Fatal(err)
	}
	return svc
}

func TestRosterAdapter_List(t *testing.T) {
	roster := &rosterAdapter{svc: seededService(t)}

	entries, err := roster.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 10 {
		t.Fatalf("expected 10 seeded patients, got %d", len(entries))
	}
	for _, e := range entries {
		if e.Name == "" || e.Age == 0 || e.Gender == "" {
			t.Errorf("incomplete roster entry: %+v", e)
		}
		if e.DoctorID == nil {
			t.Errorf("patient %s has no assigned doctor", e.Name)
		}
	}
}

func TestRosterAdapter_Get(t *testing.T) {
	svc := seededService(t)
	roster := &rosterAdapter{svc: svc}

	patients, err := svc.ListPatients(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := patients[0]

	got, err := roster.Get(context.Background(), want.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != want.ID || got.Name != want.Name {
		t.Errorf("got %+v, want %s/%s", got, want.ID, want.Name)
	}
}

func TestRosterAdapter_GetUnknownMapsToMonitoringError(t *testing.T) {
	roster := &rosterAdapter{svc: seededService(t)}

	_, err := roster.Get(context.Background(), uuid.New())
	if !errors.Is(err, monitoring.ErrPatientNotFound) {
		t.Fatalf("expected monitoring.ErrPatientNotFound, got %v", err)
	}
}

func TestRosterEntry_BaselinesFeedRegistry(t *testing.T) {
	svc := seededService(t)
	patients, err := svc.ListPatients(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	registry := monitoring.NewRegistry(monitoring.RuleClassifier{}, monitoring.WithSeed(1))
	for _, p := range patients {
		registry.Register(p.ID, monitoring.Vitals{
			HeartRate:   p.BaselineHR,
			Temperature: p.BaselineTemp,
			SpO2:        p.BaselineSpO2,
		})
	}

	if got := len(registry.IDs()); got != len(patients) {
		t.Fatalf("registered %d walks for %d patients", got, len(patients))
	}
	snap, _, err := registry.Latest(patients[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Vitals.HeartRate != patients[0].BaselineHR {
		t.Errorf("pre-tick latest should be the baseline, got %v", snap.Vitals)
	}
}
