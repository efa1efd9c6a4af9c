package report

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/api/report/:id", h.Get)
	g.GET("/download-report/:id", h.Download)
	g.GET("/download-report/:id/", h.Download)
}

func (h *Handler) load(c echo.Context) (*Report, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	r, err := h.svc.Get(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return nil, echo.NewHTTPError(http.StatusNotFound, "profile not found")
	}
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
	return r, nil
}

func (h *Handler) Get(c echo.Context) error {
	r, err := h.load(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) Download(c echo.Context) error {
	r, err := h.load(c)
	if err != nil {
		return err
	}
	data, err := RenderXLSX(r)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=donor-report-%s.xlsx", r.ProfileID))
	return c.Blob(http.StatusOK, XLSXType, data)
}
