package handler

import (
	"crypto/subtle"
	"net/http"

	"lead-service/pkg/jwtutil"
	"lead-service/pkg/logger"
	"lead-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SuperadminLogin authenticates against the bootstrap superadmin
// credentials from the environment. There is no registry entry for the
// superadmin.
func (h *Handler) SuperadminLogin(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.WithLabelValues(jwtutil.RoleSuperadmin).Inc()

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Username == "" || req.Password == "" {
		prometheus.RecordAuthError("missing_credentials")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username and password are required"})
	}

	if h.superadmin.Username == "" || h.superadmin.Password == "" {
		log.Error("Superadmin credentials not configured")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "superadmin is not configured"})
	}

	if !h.superadminMatch(req.Username, req.Password) {
		log.Error("Superadmin login failed", zap.String("username", req.Username))
		prometheus.RecordAuthError("invalid_credentials")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	token, err := h.jwt.GenerateSuperadminToken(req.Username)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	log.Info("Superadmin logged in", zap.String("username", req.Username))
	return c.JSON(http.StatusOK, echo.Map{"token": token, "role": jwtutil.RoleSuperadmin})
}

// AdminLogin authenticates a tenant admin against the registry and returns
// a token bound to the admin's tenant database.
func (h *Handler) AdminLogin(c echo.Context) error {
	prometheus.LoginCounter.WithLabelValues(jwtutil.RoleAdmin).Inc()

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	return h.adminLogin(c, req)
}

func (h *Handler) adminLogin(c echo.Context, req loginRequest) error {
	log := logger.FromContext(c)

	admin, err := h.registry.Authenticate(req.Username, req.Password)
	if err != nil {
		log.Error("Admin login failed", zap.String("username", req.Username))
		prometheus.RecordAuthError("invalid_credentials")
		return fail(c, err)
	}

	token, err := h.jwt.GenerateAdminToken(admin.Username, admin.DBName, admin.ID)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	log.Info("Admin logged in",
		zap.String("username", admin.Username),
		zap.String("tenant_db", admin.DBName))
	return c.JSON(http.StatusOK, echo.Map{
		"token":           token,
		"role":            jwtutil.RoleAdmin,
		"db_name":         admin.DBName,
		"selected_fields": admin.SelectedFields,
		"company":         admin.Company,
	})
}

// Login is the unified authentication endpoint: it accepts credentials and
// decides the role internally, so clients no longer probe both role logins.
// Bootstrap superadmin credentials win; anything else is resolved against
// the registry.
func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Username == "" || req.Password == "" {
		prometheus.RecordAuthError("missing_credentials")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username and password are required"})
	}

	if h.superadminMatch(req.Username, req.Password) {
		prometheus.LoginCounter.WithLabelValues(jwtutil.RoleSuperadmin).Inc()
		token, err := h.jwt.GenerateSuperadminToken(req.Username)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
		}
		logger.FromContext(c).Info("Superadmin logged in", zap.String("username", req.Username))
		return c.JSON(http.StatusOK, echo.Map{"token": token, "role": jwtutil.RoleSuperadmin})
	}

	prometheus.LoginCounter.WithLabelValues(jwtutil.RoleAdmin).Inc()
	return h.adminLogin(c, req)
}

func (h *Handler) superadminMatch(username, password string) bool {
	if h.superadmin.Username == "" || h.superadmin.Password == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(h.superadmin.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(h.superadmin.Password)) == 1
	return userOK && passOK
}
