package alerts

import (
	"time"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/domain/monitoring"
)

// Severity levels, ordered by how widely the alert fans out.
const (
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
	SeveritySOS      = "sos"
)

// Alert types raised by the engine.
const (
	TypeSustainedHypoxia     = "sustained_hypoxia"
	TypeSustainedTachycardia = "sustained_tachycardia"
	TypeRapidDeterioration   = "rapid_deterioration"
	TypeSOS                  = "sos_alert"
)

// SOS trigger sources.
const (
	TriggerPatient        = "patient_triggered"
	TriggerVitalsCritical = "vitals_critical"
	TriggerSystemFailure  = "system_failure"
)

// Alert is one raised notification. SOS alerts additionally carry the vitals
// snapshot at trigger time.
type Alert struct {
	ID             uuid.UUID          `db:"id" json:"id"`
	PatientID      uuid.UUID          `db:"patient_id" json:"patient_id"`
	PatientName    string             `db:"patient_name" json:"patient_name"`
	Severity       string             `db:"severity" json:"severity"`
	Type           string             `db:"alert_type" json:"alert_type"`
	Message        string             `db:"message" json:"message"`
	SentToRoles    []string           `db:"sent_to_roles" json:"sent_to_roles"`
	VitalsSnapshot *monitoring.Vitals `db:"vitals_snapshot" json:"vitals_snapshot,omitempty"`
	Acknowledged   bool               `db:"acknowledged" json:"acknowledged"`
	AcknowledgedBy *uuid.UUID         `db:"acknowledged_by" json:"acknowledged_by,omitempty"`
	CreatedAt      time.Time          `db:"created_at" json:"created_at"`
}

// rolesFor maps a severity to the roles it is routed to.
func rolesFor(severity string) []string {
	switch severity {
	case SeveritySOS:
		return []string{"doctor", "staff", "admin"}
	case SeverityCritical:
		return []string{"doctor", "staff"}
	case SeverityWarning:
		return []string{"staff"}
	}
	return nil
}
