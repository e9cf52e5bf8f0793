package alerts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/carelink/carelink/internal/domain/monitoring"
	"github.com/carelink/carelink/internal/platform/auth"
)

var testJWT = auth.JWTConfig{Secret: []byte("test-secret")}

func alertsServer(t *testing.T) (*echo.Echo, Repository, *Engine, uuid.UUID) {
	t.Helper()
	repo := NewMemoryRepo()
	patientID := uuid.New()

	registry := monitoring.NewRegistry(monitoring.RuleClassifier{}, monitoring.WithSeed(42))
	registry.Register(patientID, monitoring.Vitals{HeartRate: 75, Temperature: 36.8, SpO2: 98})
	registry.Tick()

	engine := NewEngine(EngineConfig{
		Repo:   repo,
		Roster: &stubRoster{entries: map[uuid.UUID]string{patientID: "Robert Anderson"}},
		Logger: zerolog.Nop(),
	})
	h := NewHandler(repo, engine, registry)

	e := echo.New()
	api := e.Group("/api/v1", auth.JWTMiddleware(testJWT))
	h.RegisterRoutes(api)
	return e, repo, engine, patientID
}

func token(t *testing.T, role, patientID string) string {
	t.Helper()
	tok, err := auth.IssueToken(testJWT, uuid.NewString(), "Test User", []string{role}, patientID)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func do(e *echo.Echo, method, path, body, tok string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func seedAlert(t *testing.T, repo Repository, patientID uuid.UUID) *Alert {
	t.Helper()
	a := &Alert{
		PatientID:   patientID,
		PatientName: "Robert Anderson",
		Severity:    SeverityCritical,
		Type:        TypeSustainedHypoxia,
		Message:     "SUSTAINED HYPOXIA (SpO2 85% for 62s)",
		SentToRoles: rolesFor(SeverityCritical),
		CreatedAt:   time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), a); err != nil {
		t.Fatal(err)
	}
	return a
}

func TestHandler_ListAlerts(t *testing.T) {
	e, repo, _, patientID := alertsServer(t)
	seedAlert(t, repo, patientID)
	seedAlert(t, repo, uuid.New())

	rec := do(e, http.MethodGet, "/api/v1/alerts", "", token(t, "doctor", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
	var all []*Alert
	if err := json.Unmarshal(rec.Body.Bytes(), &all); err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("listed %d alerts, want 2", len(all))
	}

	rec = do(e, http.MethodGet, "/api/v1/alerts?patient_id="+patientID.String(), "", token(t, "staff", ""))
	var filtered []*Alert
	if err := json.Unmarshal(rec.Body.Bytes(), &filtered); err != nil {
		t.Fatal(err)
	}
	if len(filtered) != 1 || filtered[0].PatientID != patientID {
		t.Fatalf("filtered listing wrong: %d alerts", len(filtered))
	}
}

func TestHandler_ListAlerts_ForbiddenForPatients(t *testing.T) {
	e, _, _, patientID := alertsServer(t)
	rec := do(e, http.MethodGet, "/api/v1/alerts", "", token(t, "patient", patientID.String()))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status %d, want 403", rec.Code)
	}
}

func TestHandler_Acknowledge(t *testing.T) {
	e, repo, _, patientID := alertsServer(t)
	a := seedAlert(t, repo, patientID)

	rec := do(e, http.MethodPost, "/api/v1/alerts/"+a.ID.String()+"/ack", "", token(t, "staff", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}

	got, err := repo.GetByID(context.Background(), a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Acknowledged || got.AcknowledgedBy == nil {
		t.Error("alert not acknowledged")
	}

	rec = do(e, http.MethodPost, "/api/v1/alerts/"+uuid.NewString()+"/ack", "", token(t, "doctor", ""))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown alert: status %d, want 404", rec.Code)
	}
}

func TestHandler_TriggerSOS(t *testing.T) {
	e, repo, _, patientID := alertsServer(t)

	rec := do(e, http.MethodPost, "/api/v1/patients/"+patientID.String()+"/sos",
		`{"trigger_type":"patient_triggered"}`, token(t, "patient", patientID.String()))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Alert Alert `json:"alert"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Alert.Severity != SeveritySOS {
		t.Errorf("severity %s", resp.Alert.Severity)
	}
	if resp.Alert.VitalsSnapshot == nil {
		t.Error("SOS carries no vitals snapshot")
	}
	if got := listAll(t, repo); len(got) != 1 {
		t.Fatalf("stored %d alerts", len(got))
	}
}

func TestHandler_TriggerSOS_PatientScopedToSelf(t *testing.T) {
	e, _, _, patientID := alertsServer(t)

	rec := do(e, http.MethodPost, "/api/v1/patients/"+uuid.NewString()+"/sos",
		"", token(t, "patient", patientID.String()))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status %d, want 403", rec.Code)
	}
}

func TestHandler_TriggerSOS_UnknownPatient(t *testing.T) {
	e, _, _, _ := alertsServer(t)
	rec := do(e, http.MethodPost, "/api/v1/patients/"+uuid.NewString()+"/sos", "", token(t, "staff", ""))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", rec.Code)
	}
}
