package handler

import (
	"net/http"

	"lead-service/internal/middleware"
	"lead-service/internal/model"
	"lead-service/pkg/logger"
	"lead-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CreateUser adds a user record to the calling admin's tenant store.
func (h *Handler) CreateUser(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordLeadOperation("users", "create")

	claims := middleware.ClaimsFrom(c)

	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	user, err := h.tenants.CreateUser(claims.TenantDB, model.User{
		Name:  req.Name,
		Email: req.Email,
		Role:  req.Role,
	})
	if err != nil {
		return fail(c, err)
	}

	log.Info("Tenant user created",
		zap.String("tenant_db", claims.TenantDB), zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusCreated, user)
}

// ListUsers returns the calling admin's tenant users, newest first.
func (h *Handler) ListUsers(c echo.Context) error {
	prometheus.RecordLeadOperation("users", "list")

	claims := middleware.ClaimsFrom(c)
	users, err := h.tenants.ListUsers(claims.TenantDB)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

// GetUser fetches one tenant user by id.
func (h *Handler) GetUser(c echo.Context) error {
	prometheus.RecordLeadOperation("users", "get")

	claims := middleware.ClaimsFrom(c)
	id, err := idParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	user, err := h.tenants.GetUser(claims.TenantDB, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateUser applies a partial update to a tenant user.
func (h *Handler) UpdateUser(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordLeadOperation("users", "update")

	claims := middleware.ClaimsFrom(c)
	id, err := idParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	var input map[string]interface{}
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	user, err := h.tenants.UpdateUser(claims.TenantDB, id, input)
	if err != nil {
		return fail(c, err)
	}

	log.Info("Tenant user updated",
		zap.String("tenant_db", claims.TenantDB), zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusOK, user)
}

// DeleteUser removes a tenant user by id.
func (h *Handler) DeleteUser(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordLeadOperation("users", "delete")

	claims := middleware.ClaimsFrom(c)
	id, err := idParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	if err := h.tenants.DeleteUser(claims.TenantDB, id); err != nil {
		return fail(c, err)
	}

	log.Info("Tenant user deleted",
		zap.String("tenant_db", claims.TenantDB), zap.Uint("user_id", id))
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
