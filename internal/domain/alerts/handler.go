package alerts

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carelink/carelink/internal/domain/monitoring"
	"github.com/carelink/carelink/internal/platform/auth"
)

// VitalsReader supplies the live snapshot attached to SOS alerts. The
// monitoring service satisfies it.
type VitalsReader interface {
	Latest(id uuid.UUID) (monitoring.Snapshot, monitoring.Trend, error)
}

type Handler struct {
	repo   Repository
	engine *Engine
	vitals VitalsReader
}

func NewHandler(repo Repository, engine *Engine, vitals VitalsReader) *Handler {
	return &Handler{repo: repo, engine: engine, vitals: vitals}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	clinical := api.Group("", auth.RequireRole("doctor", "staff"))
	clinical.GET("/alerts", h.ListAlerts)
	clinical.POST("/alerts/:id/ack", h.Acknowledge)

	// Patients may raise an SOS for themselves; clinical roles for anyone.
	sos := api.Group("", auth.RequireRole("admin", "doctor", "staff", "patient"))
	sos.POST("/patients/:id/sos", h.TriggerSOS)
}

func (h *Handler) ListAlerts(c echo.Context) error {
	f := ListFilter{Limit: 50}
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			f.Limit = n
		}
	}
	if raw := c.QueryParam("patient_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
		}
		f.PatientID = id
	}
	f.OnlyUnresolved = c.QueryParam("unacknowledged") == "true"

	out, err := h.repo.List(c.Request().Context(), f)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if out == nil {
		out = []*Alert{}
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) Acknowledge(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid alert id")
	}
	userID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
	}

	alert, err := h.repo.Acknowledge(c.Request().Context(), id, userID)
	if errors.Is(err, ErrAlertNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "alert not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Alert acknowledged",
		"alert":   alert,
	})
}

type sosRequest struct {
	TriggerType string `json:"trigger_type"`
}

func (h *Handler) TriggerSOS(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	// Patient tokens are scoped to their own record.
	if own := auth.PatientIDFromContext(c.Request().Context()); own != "" && own != id.String() {
		return echo.NewHTTPError(http.StatusForbidden, "patients may only raise an SOS for themselves")
	}

	var req sosRequest
	if err := c.Bind(&req); err != nil && c.Request().ContentLength > 0 {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var vitals *monitoring.Vitals
	if h.vitals != nil {
		if snap, _, err := h.vitals.Latest(id); err == nil {
			v := snap.Vitals
			vitals = &v
		} else if errors.Is(err, monitoring.ErrPatientNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
	}

	alert, err := h.engine.TriggerSOS(c.Request().Context(), id, req.TriggerType, vitals)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "SOS alert sent",
		"alert":   alert,
	})
}
