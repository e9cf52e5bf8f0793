package monitoring

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carelink/carelink/internal/platform/auth"
)

// Forecast defaults reproduce the original dashboard view: four points over
// an hour.
const (
	defaultForecastHorizon = 60
	defaultForecastStep    = 15
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("admin", "doctor", "staff", "patient"))
	read.GET("/patients", h.ListPatients)
	read.GET("/patients/:id", h.GetPatient)
	read.GET("/patients/:id/history", h.GetHistory)

	clinical := api.Group("", auth.RequireRole("admin", "doctor"))
	clinical.GET("/patients/:id/forecast", h.GetForecast)
	clinical.POST("/patients/:id/trend", h.SetTrend)

	api.GET("/model-info", h.ModelInfo)
}

func (h *Handler) ListPatients(c echo.Context) error {
	views, err := h.svc.ListPatients(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, views)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	view, err := h.svc.GetPatient(c.Request().Context(), id)
	if err != nil {
		return patientError(err)
	}
	return c.JSON(http.StatusOK, view)
}

// GetHistory serves the charting ring. ?source=log reads the persisted
// samples instead; ?order=desc reverses; ?limit caps the count.
func (h *Handler) GetHistory(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = DefaultHistorySize
	}

	if c.QueryParam("source") == "log" {
		entries, err := h.svc.LoggedHistory(c.Request().Context(), id, limit)
		if err != nil {
			return patientError(err)
		}
		return c.JSON(http.StatusOK, entries)
	}

	desc := c.QueryParam("order") == "desc"
	snaps, err := h.svc.History(c.Request().Context(), id, limit, desc)
	if err != nil {
		return patientError(err)
	}
	return c.JSON(http.StatusOK, snaps)
}

func (h *Handler) GetForecast(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	horizon, _ := strconv.Atoi(c.QueryParam("horizon"))
	if horizon <= 0 {
		horizon = defaultForecastHorizon
	}
	step, _ := strconv.Atoi(c.QueryParam("step"))
	if step <= 0 {
		step = defaultForecastStep
	}

	view, err := h.svc.GetPatient(c.Request().Context(), id)
	if err != nil {
		return patientError(err)
	}
	entries, err := h.svc.Forecast(c.Request().Context(), id, horizon, step)
	if err != nil {
		return patientError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"patient_id":    id,
		"name":          view.Name,
		"current_trend": view.Trend,
		"forecast":      entries,
	})
}

type trendRequest struct {
	Trend    string `json:"trend"`
	TTLTicks int    `json:"ttl_ticks"`
}

func (h *Handler) SetTrend(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	var req trendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	trend, err := h.svc.SetTrend(c.Request().Context(), id, req.Trend, req.TTLTicks)
	if err != nil {
		return patientError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"trend":   trend,
	})
}

func (h *Handler) ModelInfo(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.ModelInfo())
}

// patientError maps domain errors to HTTP status codes.
func patientError(err error) error {
	switch {
	case errors.Is(err, ErrPatientNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	case errors.Is(err, ErrInvalidTrend):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
