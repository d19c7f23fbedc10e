package sickleave

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
	readGroup.GET("/sick-leaves", h.List)
	readGroup.GET("/sick-leaves/statistics", h.Statistics)
	readGroup.GET("/sick-leaves/:id", h.Get)
	readGroup.GET("/sick-leaves/:id/extensions", h.Extensions)
	readGroup.GET("/patients/:patient_id/sick-leaves", h.ListByPatient)
	readGroup.GET("/patients/:patient_id/sick-leaves/active", h.ActiveByPatient)

	writeGroup := api.Group("", auth.RequireRole("admin", "physician"))
	writeGroup.POST("/sick-leaves", h.Create)
	writeGroup.PUT("/sick-leaves/:id", h.Update)
	writeGroup.DELETE("/sick-leaves/:id", h.Delete)
	writeGroup.POST("/sick-leaves/:id/close", h.Close)
	writeGroup.POST("/sick-leaves/:id/extend", h.Extend)
	writeGroup.POST("/sick-leaves/:id/cancel", h.Cancel)
	writeGroup.POST("/sick-leaves/:id/transfer", h.Transfer)
}

type createRequest struct {
	SickLeave
	IIN string `json:"iin"`
}

func (h *Handler) Create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), &req.SickLeave, req.IIN); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, req.SickLeave)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	l, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, l)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := map[string]string{
		"status":       c.QueryParam("status"),
		"area":         c.QueryParam("area"),
		"specialist":   c.QueryParam("specialist"),
		"date_from":    c.QueryParam("date_from"),
		"date_to":      c.QueryParam("date_to"),
		"organization": c.QueryParam("organization"),
	}
	items, total, err := h.svc.Search(c.Request().Context(), params, pg.Limit, pg.Offset())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) ListByPatient(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patient_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListByPatient(c.Request().Context(), patientID, pg.Limit, pg.Offset())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) ActiveByPatient(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patient_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
	}
	items, err := h.svc.ActiveByPatient(c.Request().Context(), patientID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var l SickLeave
	if err := c.Bind(&l); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	l.ID = id
	if err := h.svc.Update(c.Request().Context(), &l); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, l)
}

type closeRequest struct {
	EndDate time.Time `json:"end_date"`
	Note    string    `json:"note"`
}

func (h *Handler) Close(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req closeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.EndDate.IsZero() {
		return apperr.Validation("end_date is required")
	}
	if err := h.svc.Close(c.Request().Context(), id, req.EndDate, req.Note); err != nil {
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

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req cancelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Reason == "" {
		return apperr.Validation("reason is required")
	}
	if err := h.svc.Cancel(c.Request().Context(), id, req.Reason); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type transferRequest struct {
	OrganizationCode string `json:"organization_code"`
}

func (h *Handler) Transfer(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req transferRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.OrganizationCode == "" {
		return apperr.Validation("organization_code is required")
	}
	if err := h.svc.Transfer(c.Request().Context(), id, req.OrganizationCode); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Extensions(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	items, err := h.svc.GetExtensions(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
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

func (h *Handler) Statistics(c echo.Context) error {
	stats, err := h.svc.GetStats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
