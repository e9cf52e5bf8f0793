package alerts

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/carelink/internal/domain/monitoring"
)

// Escalation thresholds. These sit above the risk classifier's bands: the
// classifier flags a reading, the engine pages someone.
const (
	hypoxiaSpO2          = 88.0
	tachycardiaHR        = 120.0
	sustainedFor         = 60 * time.Second
	deteriorationDelta   = 20.0
	deteriorationWindow  = 30 * time.Second
	defaultAlertCooldown = 5 * time.Minute
)

type hrSample struct {
	at time.Time
	hr float64
}

// Engine watches the snapshot stream for sustained or rapidly deteriorating
// conditions and raises alerts, with a per-patient cooldown so one incident
// does not page in every tick. It implements monitoring.SnapshotObserver.
type Engine struct {
	repo     Repository
	roster   monitoring.Roster
	logger   zerolog.Logger
	cooldown time.Duration

	mu        sync.Mutex
	lastAlert map[uuid.UUID]time.Time
	condSince map[uuid.UUID]map[string]time.Time
	hrWindow  map[uuid.UUID][]hrSample
}

type EngineConfig struct {
	Repo     Repository
	Roster   monitoring.Roster
	Logger   zerolog.Logger
	Cooldown time.Duration
}

func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = defaultAlertCooldown
	}
	return &Engine{
		repo:      cfg.Repo,
		roster:    cfg.Roster,
		logger:    cfg.Logger,
		cooldown:  cfg.Cooldown,
		lastAlert: make(map[uuid.UUID]time.Time),
		condSince: make(map[uuid.UUID]map[string]time.Time),
		hrWindow:  make(map[uuid.UUID][]hrSample),
	}
}

// Observe inspects one tick's snapshot. Time is taken from the snapshot
// itself, so replayed streams evaluate identically.
func (e *Engine) Observe(ctx context.Context, res monitoring.TickResult) {
	now := res.Snapshot.Timestamp
	pid := res.PatientID
	v := res.Snapshot.Vitals

	e.mu.Lock()

	if _, ok := e.condSince[pid]; !ok {
		e.condSince[pid] = make(map[string]time.Time)
	}

	type candidate struct {
		alertType string
		message   string
	}
	var triggered []candidate

	// Sustained hypoxia: SpO2 below threshold continuously for over a minute.
	if v.SpO2 < hypoxiaSpO2 {
		if start, ok := e.condSince[pid][TypeSustainedHypoxia]; !ok {
			e.condSince[pid][TypeSustainedHypoxia] = now
		} else if d := now.Sub(start); d > sustainedFor {
			triggered = append(triggered, candidate{
				TypeSustainedHypoxia,
				fmt.Sprintf("SUSTAINED HYPOXIA (SpO2 %.0f%% for %ds)", v.SpO2, int(d.Seconds())),
			})
		}
	} else {
		delete(e.condSince[pid], TypeSustainedHypoxia)
	}

	// Sustained tachycardia: HR above threshold continuously for over a minute.
	if v.HeartRate > tachycardiaHR {
		if start, ok := e.condSince[pid][TypeSustainedTachycardia]; !ok {
			e.condSince[pid][TypeSustainedTachycardia] = now
		} else if d := now.Sub(start); d > sustainedFor {
			triggered = append(triggered, candidate{
				TypeSustainedTachycardia,
				fmt.Sprintf("SUSTAINED TACHYCARDIA (HR %.0f bpm for %ds)", v.HeartRate, int(d.Seconds())),
			})
		}
	} else {
		delete(e.condSince[pid], TypeSustainedTachycardia)
	}

	// Rapid deterioration: HR climbing more than the delta inside the window.
	window := append(e.hrWindow[pid], hrSample{at: now, hr: v.HeartRate})
	for len(window) > 0 && now.Sub(window[0].at) > deteriorationWindow {
		window = window[1:]
	}
	e.hrWindow[pid] = window
	if len(window) > 1 {
		if rise := v.HeartRate - window[0].hr; rise > deteriorationDelta {
			triggered = append(triggered, candidate{
				TypeRapidDeterioration,
				fmt.Sprintf("RAPID DETERIORATION (HR +%.0f bpm in <30s)", rise),
			})
		}
	}

	canSend := len(triggered) > 0 && now.Sub(e.lastAlert[pid]) > e.cooldown
	if canSend {
		e.lastAlert[pid] = now
	}
	e.mu.Unlock()

	if !canSend {
		return
	}
	name := e.patientName(ctx, pid)
	for _, t := range triggered {
		e.dispatch(ctx, &Alert{
			PatientID:   pid,
			PatientName: name,
			Severity:    SeverityCritical,
			Type:        t.alertType,
			Message:     t.message,
			SentToRoles: rolesFor(SeverityCritical),
			CreatedAt:   now,
		})
	}
}

// TriggerSOS raises an SOS alert immediately, bypassing the cooldown.
func (e *Engine) TriggerSOS(ctx context.Context, patientID uuid.UUID, triggerType string, vitals *monitoring.Vitals) (*Alert, error) {
	switch triggerType {
	case TriggerPatient, TriggerVitalsCritical, TriggerSystemFailure:
	case "":
		triggerType = TriggerPatient
	default:
		return nil, fmt.Errorf("unknown sos trigger type %q", triggerType)
	}

	name := e.patientName(ctx, patientID)
	alert := &Alert{
		PatientID:      patientID,
		PatientName:    name,
		Severity:       SeveritySOS,
		Type:           TypeSOS,
		Message:        fmt.Sprintf("SOS ALERT: %s - %s", name, titleCase(triggerType)),
		SentToRoles:    rolesFor(SeveritySOS),
		VitalsSnapshot: vitals,
		CreatedAt:      time.Now().UTC(),
	}
	e.dispatch(ctx, alert)
	return alert, nil
}

// dispatch stores the alert and emits the notification. Delivery is a log
// line standing in for the SMS/email gateway.
func (e *Engine) dispatch(ctx context.Context, a *Alert) {
	if err := e.repo.Create(ctx, a); err != nil {
		e.logger.Error().Err(err).
			Str("patient_id", a.PatientID.String()).
			Msg("failed to store alert")
	}
	e.logger.Warn().
		Str("severity", a.Severity).
		Str("alert_type", a.Type).
		Str("patient", a.PatientName).
		Strs("to_roles", a.SentToRoles).
		Msg(a.Message)
}

func (e *Engine) patientName(ctx context.Context, id uuid.UUID) string {
	if e.roster == nil {
		return id.String()
	}
	entry, err := e.roster.Get(ctx, id)
	if err != nil {
		return id.String()
	}
	return entry.Name
}

func titleCase(snake string) string {
	words := strings.Split(snake, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
