package catalog

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

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
	readGroup.GET("/diagnoses", h.ListDiagnoses)
	readGroup.GET("/diagnoses/:id", h.GetDiagnosis)
	readGroup.GET("/diagnoses/by-code/:code", h.GetDiagnosisByCode)
	readGroup.GET("/patients/:patient_id/diagnoses", h.ListPatientDiagnoses)
	readGroup.GET("/identity-documents", h.ListDocuments)
	readGroup.GET("/identity-documents/:id", h.GetDocument)
	readGroup.GET("/patients/:patient_id/identity-documents", h.ListDocumentsByPatient)
	readGroup.GET("/medical-organizations", h.ListOrganizations)
	readGroup.GET("/medical-organizations/:id", h.GetOrganization)
	readGroup.GET("/medical-organizations/by-code/:code", h.GetOrganizationByCode)

	writeGroup := api.Group("", auth.RequireRole("admin", "registrar"))
	writeGroup.POST("/diagnoses", h.CreateDiagnosis)
	writeGroup.PUT("/diagnoses/:id", h.UpdateDiagnosis)
	writeGroup.DELETE("/diagnoses/:id", h.DeleteDiagnosis)
	writeGroup.POST("/patients/:patient_id/diagnoses", h.AddPatientDiagnosis)
	writeGroup.PUT("/patient-diagnoses/:id", h.UpdatePatientDiagnosis)
	writeGroup.DELETE("/patient-diagnoses/:id", h.RemovePatientDiagnosis)
	writeGroup.POST("/identity-documents", h.CreateDocument)
	writeGroup.PUT("/identity-documents/:id", h.UpdateDocument)
	writeGroup.DELETE("/identity-documents/:id", h.DeleteDocument)

	adminGroup := api.Group("", auth.RequireRole("admin"))
	adminGroup.POST("/medical-organizations", h.CreateOrganization)
	adminGroup.PUT("/medical-organizations/:id", h.UpdateOrganization)
	adminGroup.DELETE("/medical-organizations/:id", h.DeleteOrganization)
}

func intParam(c echo.Context, name string) (int, error) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return v, nil
}

// Diagnoses

func (h *Handler) CreateDiagnosis(c echo.Context) error {
	var d Diagnosis
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateDiagnosis(c.Request().Context(), &d); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDiagnosis(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	d, err := h.svc.GetDiagnosis(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) GetDiagnosisByCode(c echo.Context) error {
	d, err := h.svc.GetDiagnosisByCode(c.Request().Context(), c.Param("code"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) UpdateDiagnosis(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	var d Diagnosis
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d.ID = id
	if err := h.svc.UpdateDiagnosis(c.Request().Context(), &d); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DeleteDiagnosis(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteDiagnosis(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListDiagnoses(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := map[string]string{
		"is_active": c.QueryParam("is_active"),
		"query":     c.QueryParam("query"),
	}
	items, total, err := h.svc.ListDiagnoses(c.Request().Context(), params, pg.Limit, pg.Offset())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) AddPatientDiagnosis(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patient_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
	}
	var l PatientDiagnosis
	if err := c.Bind(&l); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	l.PatientID = patientID
	if err := h.svc.AddPatientDiagnosis(c.Request().Context(), &l); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, l)
}

func (h *Handler) UpdatePatientDiagnosis(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	var l PatientDiagnosis
	if err := c.Bind(&l); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	l.ID = id
	if err := h.svc.UpdatePatientDiagnosis(c.Request().Context(), &l); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, l)
}

func (h *Handler) RemovePatientDiagnosis(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.RemovePatientDiagnosis(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListPatientDiagnoses(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patient_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
	}
	items, err := h.svc.ListPatientDiagnoses(c.Request().Context(), patientID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

// Identity documents

func (h *Handler) CreateDocument(c echo.Context) error {
	var d IdentityDocument
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateDocument(c.Request().Context(), &d); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDocument(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	d, err := h.svc.GetDocument(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) UpdateDocument(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	var d IdentityDocument
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d.ID = id
	if err := h.svc.UpdateDocument(c.Request().Context(), &d); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DeleteDocument(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteDocument(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListDocumentsByPatient(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patient_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
	}
	items, err := h.svc.ListDocumentsByPatient(c.Request().Context(), patientID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListDocuments(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := map[string]string{
		"type":   c.QueryParam("type"),
		"number": c.QueryParam("number"),
	}
	items, total, err := h.svc.ListDocuments(c.Request().Context(), params, pg.Limit, pg.Offset())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

// Medical organizations

func (h *Handler) CreateOrganization(c echo.Context) error {
	var o MedicalOrganization
	if err := c.Bind(&o); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateOrganization(c.Request().Context(), &o); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, o)
}

func (h *Handler) GetOrganization(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	o, err := h.svc.GetOrganization(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) GetOrganizationByCode(c echo.Context) error {
	o, err := h.svc.GetOrganizationByCode(c.Request().Context(), c.Param("code"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) UpdateOrganization(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	var o MedicalOrganization
	if err := c.Bind(&o); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	o.ID = id
	if err := h.svc.UpdateOrganization(c.Request().Context(), &o); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) DeleteOrganization(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteOrganization(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListOrganizations(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := map[string]string{
		"query": c.QueryParam("query"),
	}
	items, total, err := h.svc.ListOrganizations(c.Request().Context(), params, pg.Limit, pg.Offset())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}
