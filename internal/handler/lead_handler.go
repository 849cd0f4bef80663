package handler

import (
	"net/http"

	"lead-service/internal/middleware"
	"lead-service/pkg/logger"
	"lead-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CreateLead captures a lead into the calling admin's tenant store, shaped
// by the tenant's materialized lead schema. Payload keys outside the schema
// are dropped.
func (h *Handler) CreateLead(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordLeadOperation("leads", "create")

	claims := middleware.ClaimsFrom(c)
	admin, err := h.registry.Get(claims.AdminID)
	if err != nil {
		return fail(c, err)
	}

	var payload map[string]interface{}
	if err := c.Bind(&payload); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	lead, err := h.tenants.CreateLead(claims.TenantDB, admin.SelectedFields, payload)
	if err != nil {
		return fail(c, err)
	}

	log.Info("Lead created", zap.String("tenant_db", claims.TenantDB))
	return c.JSON(http.StatusCreated, lead)
}

// ListLeads returns the calling admin's leads, newest first.
func (h *Handler) ListLeads(c echo.Context) error {
	prometheus.RecordLeadOperation("leads", "list")

	claims := middleware.ClaimsFrom(c)
	admin, err := h.registry.Get(claims.AdminID)
	if err != nil {
		return fail(c, err)
	}

	leads, err := h.tenants.ListLeads(claims.TenantDB, admin.SelectedFields)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, leads)
}

// GetLead fetches one lead from the calling admin's tenant store.
func (h *Handler) GetLead(c echo.Context) error {
	prometheus.RecordLeadOperation("leads", "get")

	claims := middleware.ClaimsFrom(c)
	admin, err := h.registry.Get(claims.AdminID)
	if err != nil {
		return fail(c, err)
	}

	id, err := idParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	lead, err := h.tenants.GetLead(claims.TenantDB, admin.SelectedFields, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, lead)
}
