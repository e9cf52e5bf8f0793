package identity

import (
	"time"

	"github.com/google/uuid"
)

// Roles recognised by the access layer.
const (
	RoleAdmin   = "admin"
	RoleDoctor  = "doctor"
	RoleStaff   = "staff"
	RolePatient = "patient"
)

// ValidRole reports whether the given role is one of the four known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleDoctor, RoleStaff, RolePatient:
		return true
	}
	return false
}

// User maps to the users table.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	Phone        *string   `db:"phone" json:"phone,omitempty"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Patient maps to the patients table. The baseline columns pin each patient's
// resting vitals so the simulation restarts from the same profile.
type Patient struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	UserID           *uuid.UUID `db:"user_id" json:"user_id,omitempty"`
	Name             string     `db:"name" json:"name"`
	Age              int        `db:"age" json:"age"`
	Gender           string     `db:"gender" json:"gender"`
	BloodType        *string    `db:"blood_type" json:"blood_type,omitempty"`
	HasHypertension  bool       `db:"has_hypertension" json:"has_hypertension"`
	HasHeartDisease  bool       `db:"has_heart_disease" json:"has_heart_disease"`
	HasDiabetes      bool       `db:"has_diabetes" json:"has_diabetes"`
	SmokingStatus    string     `db:"smoking_status" json:"smoking_status"`
	AssignedDoctorID *uuid.UUID `db:"assigned_doctor_id" json:"assigned_doctor_id,omitempty"`
	BaselineHR       float64    `db:"baseline_heart_rate" json:"baseline_heart_rate"`
	BaselineTemp     float64    `db:"baseline_temperature" json:"baseline_temperature"`
	BaselineSpO2     float64    `db:"baseline_spo2" json:"baseline_spo2"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}
