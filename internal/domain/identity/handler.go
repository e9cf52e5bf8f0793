package identity

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carelink/carelink/internal/platform/auth"
	"github.com/carelink/carelink/pkg/pagination"
)

type Handler struct {
	svc    *Service
	jwtCfg auth.JWTConfig
}

func NewHandler(svc *Service, jwtCfg auth.JWTConfig) *Handler {
	return &Handler{svc: svc, jwtCfg: jwtCfg}
}

// RegisterRoutes mounts the open auth endpoints on public and the
// authenticated account/admin endpoints on api.
func (h *Handler) RegisterRoutes(public, api *echo.Group) {
	public.POST("/auth/register", h.Register)
	public.POST("/auth/login", h.Login)

	api.GET("/auth/me", h.Me)

	admin := api.Group("", auth.RequireRole("admin"))
	admin.GET("/users", h.ListUsers)
	admin.POST("/patients/:id/assign-doctor", h.AssignDoctor)
}

func (h *Handler) Register(c echo.Context) error {
	var in RegisterInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	user, patient, err := h.svc.Register(c.Request().Context(), in)
	if err != nil {
		return identityError(err)
	}
	resp := map[string]interface{}{
		"message": "User registered successfully",
		"user":    user,
	}
	if patient != nil {
		resp["patient"] = patient
	}
	return c.JSON(http.StatusCreated, resp)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password required")
	}

	user, err := h.svc.Authenticate(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return identityError(err)
	}

	// Patient users carry their record id in the token so the API can scope
	// them to their own data.
	patientID := ""
	if user.Role == RolePatient {
		if patient, err := h.svc.GetPatientByUser(c.Request().Context(), user.ID); err == nil {
			patientID = patient.ID.String()
		}
	}

	token, err := auth.IssueToken(h.jwtCfg, user.ID.String(), user.FullName(), []string{user.Role}, patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to issue token")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":      "Login successful",
		"access_token": token,
		"user":         user,
	})
}

func (h *Handler) Me(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := uuid.Parse(auth.UserIDFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
	}
	user, err := h.svc.GetUser(ctx, userID)
	if err != nil {
		return identityError(err)
	}
	resp := map[string]interface{}{"user": user}
	if user.Role == RolePatient {
		if patient, err := h.svc.GetPatientByUser(ctx, user.ID); err == nil {
			resp["patient"] = patient
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) ListUsers(c echo.Context) error {
	users, err := h.svc.ListUsers(c.Request().Context(), c.QueryParam("role"))
	if err != nil {
		return identityError(err)
	}

	p := pagination.FromContext(c)
	total := len(users)
	start := p.Offset
	if start > total {
		start = total
	}
	end := start + p.Limit
	if end > total {
		end = total
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(users[start:end], total, p.Limit, p.Offset))
}

type assignDoctorRequest struct {
	DoctorID uuid.UUID `json:"doctor_id"`
}

func (h *Handler) AssignDoctor(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	var req assignDoctorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.AssignDoctor(c.Request().Context(), patientID, req.DoctorID); err != nil {
		return identityError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true})
}

// identityError maps domain errors to HTTP status codes.
func identityError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrAccountDeactivated):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrEmailTaken), errors.Is(err, ErrInvalidRole):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrPatientNotFound), errors.Is(err, ErrDoctorNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
