package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func testService(t *testing.T) *Service {
	t.Helper()
	return NewService(NewMemoryUserRepo(), NewMemoryPatientRepo())
}

func TestService_RegisterAndAuthenticate(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	user, patient, err := svc.Register(ctx, RegisterInput{
		Email:     "Dr.House@carelink.ai",
		Password:  "secret123",
		Role:      RoleDoctor,
		FirstName: "Gregory",
		LastName:  "House",
	})
	if err != nil {
		t.Fatal(err)
	}
	if patient != nil {
		t.Error("doctor registration created a patient profile")
	}
	if user.Email != "dr.house@carelink.ai" {
		t.Errorf("email not normalized: %q", user.Email)
	}
	if user.PasswordHash == "secret123" || user.PasswordHash == "" {
		t.Error("password not hashed")
	}

	got, err := svc.Authenticate(ctx, "dr.house@carelink.ai", "secret123")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != user.ID {
		t.Error("authenticated a different user")
	}

	if _, err := svc.Authenticate(ctx, "dr.house@carelink.ai", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody@carelink.ai", "secret123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: got %v", err)
	}
}

func TestService_RegisterValidation(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, RegisterInput{Email: "a@b.c", Password: "x", Role: "superuser", FirstName: "A", LastName: "B"}); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("invalid role: got %v", err)
	}
	if _, _, err := svc.Register(ctx, RegisterInput{Email: "a@b.c", Role: RoleStaff}); err == nil {
		t.Error("missing fields accepted")
	}

	in := RegisterInput{Email: "a@b.c", Password: "pw123", Role: RoleStaff, FirstName: "A", LastName: "B"}
	if _, _, err := svc.Register(ctx, in); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.Register(ctx, in); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate email: got %v", err)
	}
}

func TestService_RegisterPatientCreatesProfile(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	user, patient, err := svc.Register(ctx, RegisterInput{
		Email:     "robert@example.com",
		Password:  "patient123",
		Role:      RolePatient,
		FirstName: "Robert",
		LastName:  "Anderson",
		PatientData: &PatientData{
			Age:    65,
			Gender: "M",
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if patient == nil {
		t.Fatal("no patient profile created")
	}
	if patient.Name != "Robert Anderson" {
		t.Errorf("patient name %q", patient.Name)
	}
	if patient.UserID == nil || *patient.UserID != user.ID {
		t.Error("patient not linked to user")
	}
	if patient.BaselineHR < baselineHRMin || patient.BaselineHR > baselineHRMax {
		t.Errorf("baseline HR %.1f outside healthy range", patient.BaselineHR)
	}
	if patient.BaselineTemp < baselineTempMin || patient.BaselineTemp > baselineTempMax {
		t.Errorf("baseline temperature %.2f outside healthy range", patient.BaselineTemp)
	}
	if patient.BaselineSpO2 < baselineSpO2Min || patient.BaselineSpO2 > baselineSpO2Max {
		t.Errorf("baseline SpO2 %.1f outside healthy range", patient.BaselineSpO2)
	}

	byUser, err := svc.GetPatientByUser(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if byUser.ID != patient.ID {
		t.Error("GetPatientByUser returned a different profile")
	}
}

func TestService_AssignDoctor(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	doctor, _, err := svc.Register(ctx, RegisterInput{
		Email: "doc@carelink.ai", Password: "pw", Role: RoleDoctor, FirstName: "Jane", LastName: "Doe",
	})
	if err != nil {
		t.Fatal(err)
	}
	nurse, _, err := svc.Register(ctx, RegisterInput{
		Email: "nurse@carelink.ai", Password: "pw", Role: RoleStaff, FirstName: "Ann", LastName: "Roe",
	})
	if err != nil {
		t.Fatal(err)
	}
	patient := &Patient{Name: "John Doe", Age: 50, Gender: "M"}
	if err := svc.CreatePatient(ctx, patient); err != nil {
		t.Fatal(err)
	}

	if err := svc.AssignDoctor(ctx, patient.ID, doctor.ID); err != nil {
		t.Fatal(err)
	}
	got, err := svc.GetPatient(ctx, patient.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.AssignedDoctorID == nil || *got.AssignedDoctorID != doctor.ID {
		t.Error("doctor not assigned")
	}

	if err := svc.AssignDoctor(ctx, patient.ID, nurse.ID); !errors.Is(err, ErrDoctorNotFound) {
		t.Errorf("assigning a non-doctor: got %v", err)
	}
	if err := svc.AssignDoctor(ctx, uuid.New(), doctor.ID); !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("unknown patient: got %v", err)
	}
}

func TestService_SeedIsIdempotent(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	if err := svc.Seed(ctx, zerolog.Nop()); err != nil {
		t.Fatal(err)
	}
	users, err := svc.ListUsers(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	// 1 admin + 3 doctors + 3 staff + 10 patients.
	if len(users) != 17 {
		t.Fatalf("seeded %d users, want 17", len(users))
	}
	patients, err := svc.ListPatients(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(patients) != 10 {
		t.Fatalf("seeded %d patients, want 10", len(patients))
	}
	for _, p := range patients {
		if p.AssignedDoctorID == nil {
			t.Errorf("patient %s has no assigned doctor", p.Name)
		}
	}

	if err := svc.Seed(ctx, zerolog.Nop()); err != nil {
		t.Fatal(err)
	}
	again, _ := svc.ListUsers(ctx, "")
	if len(again) != len(users) {
		t.Fatal("second seed created more users")
	}
}

func TestService_ListUsersByRole(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	if err := svc.Seed(ctx, zerolog.Nop()); err != nil {
		t.Fatal(err)
	}

	doctors, err := svc.ListUsers(ctx, RoleDoctor)
	if err != nil {
		t.Fatal(err)
	}
	if len(doctors) != 3 {
		t.Fatalf("listed %d doctors, want 3", len(doctors))
	}
	if _, err := svc.ListUsers(ctx, "wizard"); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("invalid role filter: got %v", err)
	}
}
