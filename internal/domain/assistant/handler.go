package assistant

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type chatRequest struct {
	Question string `json:"question"`
	Language string `json:"language"`
}

type getResponse struct {
	Response   string  `json:"response"`
	Source     string  `json:"source,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Degraded   bool    `json:"degraded,omitempty"`
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/api/chat/", h.Chat)
	g.GET("/get-response/", h.GetResponse)
	g.GET("/api/locations", h.Locations)
	g.GET("/api/models/", h.Models)
}

func (h *Handler) Chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ans, err := h.svc.Ask(c.Request().Context(), req.Question, req.Language)
	if errors.Is(err, ErrEmptyQuestion) {
		return echo.NewHTTPError(http.StatusBadRequest, "empty question")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
	return c.JSON(http.StatusOK, ans)
}

// GetResponse is the query-string variant used by simple clients. An empty
// message is answered with a prompt, not an error.
func (h *Handler) GetResponse(c echo.Context) error {
	ans, err := h.svc.Respond(c.Request().Context(), c.QueryParam("msg"))
	if errors.Is(err, ErrEmptyQuestion) {
		return c.JSON(http.StatusOK, getResponse{Response: "Please ask a valid question."})
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
	return c.JSON(http.StatusOK, getResponse{
		Response:   ans.Answer,
		Source:     ans.Source,
		Confidence: ans.Confidence,
		Degraded:   ans.Degraded,
	})
}

func (h *Handler) Locations(c echo.Context) error {
	city := strings.TrimSpace(c.QueryParam("city"))
	if city == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "city is required")
	}
	return c.JSON(http.StatusOK, h.svc.FindCenters(c.Request().Context(), city))
}

func (h *Handler) Models(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{"models": h.svc.Models()})
}
