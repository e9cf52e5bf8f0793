package identity

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/rs/zerolog"
)

var bloodTypes = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

var smokingStatuses = []string{"never", "former", "current"}

// Seed populates the demo accounts and ward roster. It is idempotent: when
// any user already exists it does nothing.
func (s *Service) Seed(ctx context.Context, logger zerolog.Logger) error {
	n, err := s.users.Count(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		logger.Info().Msg("demo data already exists, skipping seed")
		return nil
	}

	logger.Info().Msg("seeding demo data")

	if _, _, err := s.Register(ctx, RegisterInput{
		Email: "admin@carelink.ai", Password: "admin123", Role: RoleAdmin,
		FirstName: "System", LastName: "Administrator", Phone: strPtr("+1-555-0100"),
	}); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	doctorSeeds := []RegisterInput{
		{Email: "dr.smith@carelink.ai", FirstName: "John", LastName: "Smith", Phone: strPtr("+1-555-0101")},
		{Email: "dr.johnson@carelink.ai", FirstName: "Emily", LastName: "Johnson", Phone: strPtr("+1-555-0102")},
		{Email: "dr.williams@carelink.ai", FirstName: "Michael", LastName: "Williams", Phone: strPtr("+1-555-0103")},
	}
	doctors := make([]*User, 0, len(doctorSeeds))
	for _, in := range doctorSeeds {
		in.Password, in.Role = "doctor123", RoleDoctor
		doctor, _, err := s.Register(ctx, in)
		if err != nil {
			return fmt.Errorf("seed doctor %s: %w", in.Email, err)
		}
		doctors = append(doctors, doctor)
	}

	staffSeeds := []RegisterInput{
		{Email: "nurse.davis@carelink.ai", FirstName: "Sarah", LastName: "Davis", Phone: strPtr("+1-555-0201")},
		{Email: "nurse.miller@carelink.ai", FirstName: "James", LastName: "Miller", Phone: strPtr("+1-555-0202")},
		{Email: "nurse.wilson@carelink.ai", FirstName: "Lisa", LastName: "Wilson", Phone: strPtr("+1-555-0203")},
	}
	for _, in := range staffSeeds {
		in.Password, in.Role = "staff123", RoleStaff
		if _, _, err := s.Register(ctx, in); err != nil {
			return fmt.Errorf("seed staff %s: %w", in.Email, err)
		}
	}

	patientSeeds := []struct {
		first, last, gender string
		age                 int
	}{
		{"Robert", "Anderson", "M", 65},
		{"Mary", "Thomas", "F", 58},
		{"David", "Martinez", "M", 72},
		{"Jennifer", "Garcia", "F", 45},
		{"William", "Rodriguez", "M", 68},
		{"Linda", "Lopez", "F", 54},
		{"Richard", "Hernandez", "M", 61},
		{"Patricia", "Gonzalez", "F", 70},
		{"Charles", "Perez", "M", 48},
		{"Barbara", "Taylor", "F", 63},
	}
	for i, seed := range patientSeeds {
		_, patient, err := s.Register(ctx, RegisterInput{
			Email:     fmt.Sprintf("patient%d@example.com", i+1),
			Password:  "patient123",
			Role:      RolePatient,
			FirstName: seed.first,
			LastName:  seed.last,
			Phone:     strPtr(fmt.Sprintf("+1-555-03%02d", i)),
			PatientData: &PatientData{
				Age:             seed.age,
				Gender:          seed.gender,
				BloodType:       strPtr(bloodTypes[rand.Intn(len(bloodTypes))]),
				HasHypertension: rand.Intn(2) == 0,
				HasHeartDisease: seed.age > 60 && rand.Intn(2) == 0,
				HasDiabetes:     seed.age > 50 && rand.Intn(2) == 0,
				SmokingStatus:   smokingStatuses[rand.Intn(len(smokingStatuses))],
			},
		})
		if err != nil {
			return fmt.Errorf("seed patient %s %s: %w", seed.first, seed.last, err)
		}
		// Round-robin assignment across the seeded doctors.
		doctor := doctors[i%len(doctors)]
		if err := s.AssignDoctor(ctx, patient.ID, doctor.ID); err != nil {
			return fmt.Errorf("assign %s to %s: %w", patient.Name, doctor.Email, err)
		}
	}

	logger.Info().
		Int("doctors", len(doctors)).
		Int("patients", len(patientSeeds)).
		Msg("demo data seeded")
	return nil
}

func strPtr(s string) *string { return &s }
