package emergency

import (
	"net/http"

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
	readGroup.GET("/emergency-assets", h.List)
	readGroup.GET("/emergency-assets/statistics", h.Statistics)
	readGroup.GET("/emergency-assets/:id", h.Get)
	readGroup.GET("/patients/:patient_id/emergency-assets", h.ListByPatient)

	writeGroup := api.Group("", auth.RequireRole("admin", "physician", "registrar"))
	writeGroup.POST("/emergency-assets", h.Create)
	writeGroup.PUT("/emergency-assets/:id", h.Update)
	writeGroup.DELETE("/emergency-assets/:id", h.Delete)
	writeGroup.POST("/emergency-assets/:id/confirm", h.Confirm)
	writeGroup.POST("/emergency-assets/:id/refuse", h.Refuse)
	writeGroup.POST("/emergency-assets/:id/transfer", h.Transfer)
	writeGroup.POST("/emergency-assets/import", h.Import)
}

type createRequest struct {
	Asset
	IIN string `json:"iin"`
}

func (h *Handler) Create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), &req.Asset, req.IIN); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, req.Asset)
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
		"status":          c.QueryParam("status"),
		"delivery_status": c.QueryParam("delivery_status"),
		"outcome":         c.QueryParam("outcome"),
		"organization":    c.QueryParam("organization"),
		"date_from":       c.QueryParam("date_from"),
		"date_to":         c.QueryParam("date_to"),
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

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in Asset
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.svc.Update(c.Request().Context(), id, &in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Confirm(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Confirm(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

type refuseRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) Refuse(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req refuseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Reason == "" {
		return apperr.Validation("reason is required")
	}
	a, err := h.svc.Refuse(c.Request().Context(), id, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

type transferRequest struct {
	OrganizationCode string `json:"organization_code"`
	UpdateAttachment bool   `json:"update_attachment"`
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
	a, err := h.svc.Transfer(c.Request().Context(), id, req.OrganizationCode, req.UpdateAttachment)
	if err != nil {
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

// Import accepts an ambulance bureau export as the request body and
// registers the contained assets.
func (h *Handler) Import(c echo.Context) error {
	result, err := h.svc.ImportFromFile(c.Request().Context(), c.Request().Body)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) Statistics(c echo.Context) error {
	stats, err := h.svc.GetStats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
