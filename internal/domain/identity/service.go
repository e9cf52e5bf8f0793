package identity

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Healthy resting ranges the baseline profiles are drawn from.
const (
	baselineHRMin   = 65.0
	baselineHRMax   = 85.0
	baselineTempMin = 36.5
	baselineTempMax = 37.2
	baselineSpO2Min = 96.0
	baselineSpO2Max = 99.0
)

// RandomBaseline draws a resting vitals profile for a new patient. It uses the
// package-level random source, which is safe for concurrent registration.
func RandomBaseline() (hr, temp, spo2 float64) {
	hr = baselineHRMin + rand.Float64()*(baselineHRMax-baselineHRMin)
	temp = baselineTempMin + rand.Float64()*(baselineTempMax-baselineTempMin)
	spo2 = baselineSpO2Min + rand.Float64()*(baselineSpO2Max-baselineSpO2Min)
	return hr, temp, spo2
}

type Service struct {
	users    UserRepository
	patients PatientRepository
}

func NewService(users UserRepository, patients PatientRepository) *Service {
	return &Service{users: users, patients: patients}
}

// PatientData is the medical profile supplied when registering a patient user.
type PatientData struct {
	Age             int     `json:"age"`
	Gender          string  `json:"gender"`
	BloodType       *string `json:"blood_type,omitempty"`
	HasHypertension bool    `json:"has_hypertension"`
	HasHeartDisease bool    `json:"has_heart_disease"`
	HasDiabetes     bool    `json:"has_diabetes"`
	SmokingStatus   string  `json:"smoking_status"`
}

type RegisterInput struct {
	Email       string       `json:"email"`
	Password    string       `json:"password"`
	Role        string       `json:"role"`
	FirstName   string       `json:"first_name"`
	LastName    string       `json:"last_name"`
	Phone       *string      `json:"phone,omitempty"`
	PatientData *PatientData `json:"patient_data,omitempty"`
}

// Register creates a user and, for the patient role, its linked patient
// profile with a freshly drawn baseline.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, *Patient, error) {
	if in.Email == "" || in.Password == "" || in.FirstName == "" || in.LastName == "" {
		return nil, nil, fmt.Errorf("email, password, first_name and last_name are required")
	}
	if !ValidRole(in.Role) {
		return nil, nil, fmt.Errorf("%w: %q", ErrInvalidRole, in.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		Email:        strings.ToLower(in.Email),
		PasswordHash: string(hash),
		Role:         in.Role,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        in.Phone,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	if in.Role != RolePatient {
		return user, nil, nil
	}

	data := in.PatientData
	if data == nil {
		data = &PatientData{}
	}
	if data.SmokingStatus == "" {
		data.SmokingStatus = "never"
	}
	hr, temp, spo2 := RandomBaseline()
	patient := &Patient{
		UserID:          &user.ID,
		Name:            user.FullName(),
		Age:             data.Age,
		Gender:          data.Gender,
		BloodType:       data.BloodType,
		HasHypertension: data.HasHypertension,
		HasHeartDisease: data.HasHeartDisease,
		HasDiabetes:     data.HasDiabetes,
		SmokingStatus:   data.SmokingStatus,
		BaselineHR:      hr,
		BaselineTemp:    temp,
		BaselineSpO2:    spo2,
	}
	if err := s.patients.Create(ctx, patient); err != nil {
		return nil, nil, err
	}
	return user, patient, nil
}

// Authenticate checks the credentials and returns the user on success.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.Active {
		return nil, ErrAccountDeactivated
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context, role string) ([]*User, error) {
	if role != "" && !ValidRole(role) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	return s.users.List(ctx, role)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

// GetPatientByUser returns the patient profile linked to a user account.
func (s *Service) GetPatientByUser(ctx context.Context, userID uuid.UUID) (*Patient, error) {
	return s.patients.GetByUserID(ctx, userID)
}

func (s *Service) ListPatients(ctx context.Context) ([]*Patient, error) {
	return s.patients.List(ctx)
}

// CreatePatient adds a monitoring-only patient without a login account.
func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.BaselineHR == 0 && p.BaselineTemp == 0 && p.BaselineSpO2 == 0 {
		p.BaselineHR, p.BaselineTemp, p.BaselineSpO2 = RandomBaseline()
	}
	if p.SmokingStatus == "" {
		p.SmokingStatus = "never"
	}
	return s.patients.Create(ctx, p)
}

// AssignDoctor links a patient to a doctor-role user.
func (s *Service) AssignDoctor(ctx context.Context, patientID, doctorID uuid.UUID) error {
	doctor, err := s.users.GetByID(ctx, doctorID)
	if err != nil || doctor.Role != RoleDoctor {
		return ErrDoctorNotFound
	}
	return s.patients.AssignDoctor(ctx, patientID, doctorID)
}
