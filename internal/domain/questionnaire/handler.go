package questionnaire

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/lifeline/donor-assistant/internal/platform/auth"
	"github.com/lifeline/donor-assistant/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type answerRequest struct {
	Answer string `json:"answer"`
}

// RegisterRoutes mounts the chat-facing assessment routes on public and the
// staff listing on admin (expected to be /api/v1).
func (h *Handler) RegisterRoutes(public *echo.Group, admin *echo.Group) {
	g := public.Group("/api/assessment")
	g.POST("/start", h.Start)
	g.POST("/answer", h.Answer)
	g.POST("/reset", h.Reset)
	g.GET("/status", h.Status)
	public.POST("/api/reset/", h.Reset)

	staff := admin.Group("", auth.RequireRole("staff"))
	staff.GET("/profiles", h.ListProfiles)
	staff.GET("/profiles/:id", h.GetProfile)
}

func sessionID(c echo.Context) (string, error) {
	sid, _ := c.Get("session_id").(string)
	if sid == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "missing session")
	}
	return sid, nil
}

func (h *Handler) Start(c echo.Context) error {
	sid, err := sessionID(c)
	if err != nil {
		return err
	}
	var owner *uuid.UUID
	if uid, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context())); err == nil {
		owner = &uid
	}
	reply, err := h.svc.Start(c.Request().Context(), sid, owner)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
	return c.JSON(http.StatusOK, reply)
}

func (h *Handler) Answer(c echo.Context) error {
	sid, err := sessionID(c)
	if err != nil {
		return err
	}
	var req answerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	reply, err := h.svc.Submit(c.Request().Context(), sid, req.Answer)
	if errors.Is(err, ErrFlowNotActive) {
		return echo.NewHTTPError(http.StatusConflict, "no questionnaire in progress; start one first")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
	return c.JSON(http.StatusOK, reply)
}

func (h *Handler) Reset(c echo.Context) error {
	sid, err := sessionID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Reset(c.Request().Context(), sid); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "reset"})
}

func (h *Handler) Status(c echo.Context) error {
	sid, err := sessionID(c)
	if err != nil {
		return err
	}
	view, err := h.svc.Status(c.Request().Context(), sid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) GetProfile(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetProfile(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "profile not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListProfiles(c echo.Context) error {
	p := pagination.FromContext(c)
	f, err := filterFromQuery(c)
	if err != nil {
		return err
	}
	profiles, total, err := h.svc.SearchProfiles(c.Request().Context(), f, p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(profiles, total, p.Limit, p.Offset).WithLinks(c.Request().URL))
}

func filterFromQuery(c echo.Context) (ProfileFilter, error) {
	f := ProfileFilter{
		EligibilityStatus: c.QueryParam("eligibility_status"),
		BloodGroup:        strings.ToUpper(strings.TrimSpace(c.QueryParam("blood_group"))),
		Query:             c.QueryParam("q"),
	}
	if f.Query == "" {
		f.Query = c.QueryParam("name")
	}
	bools := []struct {
		param string
		dst   **bool
	}{
		{"completed", &f.Completed},
		{"has_diabetes", &f.HasDiabetes},
		{"had_covid", &f.HadCovid},
		{"has_anemia", &f.HasAnemia},
	}
	for _, b := range bools {
		raw := c.QueryParam(b.param)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return f, echo.NewHTTPError(http.StatusBadRequest, "invalid "+b.param+": must be true or false")
		}
		*b.dst = &v
	}
	return f, nil
}
