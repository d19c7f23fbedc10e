package staffing

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medrec/registry/internal/platform/apperr"
	"github.com/medrec/registry/internal/platform/auth"
	"github.com/medrec/registry/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("admin", "physician", "nurse", "registrar"))
	readGroup.GET("/staff-assignments", h.List)
	readGroup.GET("/staff-assignments/statistics", h.Statistics)
	readGroup.GET("/staff-assignments/:id", h.Get)

	writeGroup := api.Group("", auth.RequireRole("admin", "registrar"))
	writeGroup.POST("/staff-assignments", h.Create)
	writeGroup.PUT("/staff-assignments/:id", h.Update)
	writeGroup.DELETE("/staff-assignments/:id", h.Delete)
	writeGroup.POST("/staff-assignments/:id/complete", h.Complete)
	writeGroup.POST("/staff-assignments/:id/extend", h.Extend)
	writeGroup.POST("/staff-assignments/:id/suspend", h.Suspend)
	writeGroup.POST("/staff-assignments/:id/activate", h.Activate)
	writeGroup.POST("/staff-assignments/:id/notes", h.AddNote)
}

func (h *Handler) Create(c echo.Context) error {
	var a Assignment
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), &a); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := map[string]string{
		"specialist_name": c.QueryParam("specialist_name"),
		"area_number":     c.QueryParam("area_number"),
		"department":      c.QueryParam("department"),
		"specialization":  c.QueryParam("specialization"),
		"status":          c.QueryParam("status"),
		"current":         c.QueryParam("current"),
	}
	items, total, err := h.svc.Search(c.Request().Context(), params, pg.Limit, pg.Offset())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var a Assignment
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a.ID = id
	if err := h.svc.Update(c.Request().Context(), &a); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type completeRequest struct {
	EndDate time.Time `json:"end_date"`
}

func (h *Handler) Complete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req completeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.EndDate.IsZero() {
		return apperr.Validation("end_date is required")
	}
	if err := h.svc.Complete(c.Request().Context(), id, req.EndDate); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type extendRequest struct {
	NewEndDate time.Time `json:"new_end_date"`
	Reason     string    `json:"reason"`
}

func (h *Handler) Extend(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req extendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.NewEndDate.IsZero() {
		return apperr.Validation("new_end_date is required")
	}
	if err := h.svc.Extend(c.Request().Context(), id, req.NewEndDate, req.Reason); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) Suspend(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req reasonRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Suspend(c.Request().Context(), id, req.Reason); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Activate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Activate(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type noteRequest struct {
	Note string `json:"note"`
}

func (h *Handler) AddNote(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req noteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.AddNote(c.Request().Context(), id, req.Note); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Statistics(c echo.Context) error {
	stats, err := h.svc.GetStats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
