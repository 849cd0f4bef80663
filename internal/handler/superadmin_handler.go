package handler

import (
	"net/http"

	"lead-service/internal/model"
	"lead-service/internal/registry"
	"lead-service/pkg/logger"
	"lead-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type createAdminRequest struct {
	Username       string        `json:"username"`
	Password       string        `json:"password"`
	Email          string        `json:"email"`
	Company        model.Company `json:"company"`
	SelectedFields []string      `json:"selected_fields"`
}

// CreateAdmin provisions a tenant registry entry and lazily allocates the
// tenant's data store.
func (h *Handler) CreateAdmin(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.AdminOperationCounter.WithLabelValues("create").Inc()

	var req createAdminRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	admin, err := h.registry.CreateAdmin(registry.CreateAdminInput{
		Username:       req.Username,
		Password:       req.Password,
		Email:          req.Email,
		Company:        req.Company,
		SelectedFields: req.SelectedFields,
	})
	if err != nil {
		return fail(c, err)
	}

	// Touch the tenant store so the namespace and schemas exist before the
	// admin's first request.
	if err := h.tenants.Touch(admin.DBName, admin.SelectedFields); err != nil {
		log.Error("Failed to allocate tenant store",
			zap.String("tenant_db", admin.DBName), zap.Error(err))
		return fail(c, err)
	}

	log.Info("Admin created",
		zap.String("username", admin.Username),
		zap.String("tenant_db", admin.DBName))
	return c.JSON(http.StatusCreated, admin)
}

// ListAdmins returns every registry entry. Password hashes never leave the
// registry; the model hides them from serialization.
func (h *Handler) ListAdmins(c echo.Context) error {
	prometheus.AdminOperationCounter.WithLabelValues("list").Inc()

	admins, err := h.registry.List()
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, admins)
}

// GetAdmin fetches one registry entry.
func (h *Handler) GetAdmin(c echo.Context) error {
	prometheus.AdminOperationCounter.WithLabelValues("get").Inc()

	id, err := idParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	admin, err := h.registry.Get(id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, admin)
}

// GetAdminLeads lists the lead records captured in one tenant's store.
func (h *Handler) GetAdminLeads(c echo.Context) error {
	prometheus.AdminOperationCounter.WithLabelValues("get").Inc()

	id, err := idParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	admin, err := h.registry.Get(id)
	if err != nil {
		return fail(c, err)
	}

	leads, err := h.tenants.ListLeads(admin.DBName, admin.SelectedFields)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, leads)
}

type updateAdminRequest struct {
	Email          *string        `json:"email"`
	Password       *string        `json:"password"`
	Company        *model.Company `json:"company"`
	SelectedFields *[]string      `json:"selected_fields"`
}

// UpdateAdmin applies the mutable registry entry fields. A selected-fields
// edit does not reshape a live tenant connection's lead schema; it applies
// once that connection is next opened.
func (h *Handler) UpdateAdmin(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.AdminOperationCounter.WithLabelValues("update").Inc()

	id, err := idParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	var req updateAdminRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	admin, err := h.registry.Update(id, registry.UpdateAdminInput{
		Email:          req.Email,
		Password:       req.Password,
		Company:        req.Company,
		SelectedFields: req.SelectedFields,
	})
	if err != nil {
		return fail(c, err)
	}

	log.Info("Admin updated", zap.Uint("id", admin.ID))
	return c.JSON(http.StatusOK, admin)
}

// ToggleAdminStatus flips an entry's active flag. Tokens issued earlier
// remain valid until expiry.
func (h *Handler) ToggleAdminStatus(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.AdminOperationCounter.WithLabelValues("toggle").Inc()

	id, err := idParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	admin, err := h.registry.ToggleActive(id)
	if err != nil {
		return fail(c, err)
	}

	log.Info("Admin status toggled",
		zap.Uint("id", admin.ID), zap.Bool("is_active", admin.IsActive))
	return c.JSON(http.StatusOK, admin)
}

// DeleteAdmin removes the registry entry and evicts the cached tenant
// connection. The tenant's data store is left in place.
func (h *Handler) DeleteAdmin(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.AdminOperationCounter.WithLabelValues("delete").Inc()

	id, err := idParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	admin, err := h.registry.Delete(id)
	if err != nil {
		return fail(c, err)
	}

	h.tenants.EvictTenant(admin.DBName)

	log.Info("Admin deleted",
		zap.Uint("id", admin.ID), zap.String("tenant_db", admin.DBName))
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
