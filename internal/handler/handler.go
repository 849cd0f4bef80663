package handler

import (
	"net/http"
	"strconv"

	"lead-service/internal/apperr"
	"lead-service/internal/model"
	"lead-service/internal/registry"
	"lead-service/pkg/config"
	"lead-service/pkg/jwtutil"
	"lead-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RegistryService is the tenant registry surface the handlers depend on.
type RegistryService interface {
	CreateAdmin(in registry.CreateAdminInput) (*model.Admin, error)
	Authenticate(username, password string) (*model.Admin, error)
	List() ([]model.Admin, error)
	Get(id uint) (*model.Admin, error)
	Update(id uint, in registry.UpdateAdminInput) (*model.Admin, error)
	ToggleActive(id uint) (*model.Admin, error)
	Delete(id uint) (*model.Admin, error)
}

// TenantStore is the tenant-scoped data surface the handlers depend on.
// Every method takes the tenant database name from token claims, never from
// a request payload.
type TenantStore interface {
	Touch(dbName string, selectedFields []string) error
	EvictTenant(dbName string)
	CreateLead(dbName string, selectedFields []string, payload map[string]interface{}) (map[string]interface{}, error)
	ListLeads(dbName string, selectedFields []string) ([]map[string]interface{}, error)
	GetLead(dbName string, selectedFields []string, id uint) (map[string]interface{}, error)
	CreateUser(dbName string, user model.User) (*model.User, error)
	ListUsers(dbName string) ([]model.User, error)
	GetUser(dbName string, id uint) (*model.User, error)
	UpdateUser(dbName string, id uint, input map[string]interface{}) (*model.User, error)
	DeleteUser(dbName string, id uint) error
}

// Handler carries the wired dependencies for every route.
type Handler struct {
	registry   RegistryService
	tenants    TenantStore
	jwt        *jwtutil.JWTUtil
	superadmin config.SuperadminConfig
}

// New creates the handler set.
func New(reg RegistryService, tenants TenantStore, jwt *jwtutil.JWTUtil, superadmin config.SuperadminConfig) *Handler {
	return &Handler{
		registry:   reg,
		tenants:    tenants,
		jwt:        jwt,
		superadmin: superadmin,
	}
}

// fail maps a taxonomy error to its JSON response. Unexpected errors are
// logged in full and reported as a generic 500.
func fail(c echo.Context, err error) error {
	log := logger.FromContext(c)
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		log.Error("Request failed", zap.Error(err))
	} else {
		log.Warn("Request rejected", zap.Error(err), zap.Int("status", status))
	}
	return c.JSON(status, echo.Map{"error": apperr.Message(err)})
}

// idParam parses the :id route parameter.
func idParam(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
