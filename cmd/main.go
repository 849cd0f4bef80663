package main

import (
	"lead-service/internal/handler"
	"lead-service/internal/middleware"
	"lead-service/internal/registry"
	"lead-service/internal/tenant"
	"lead-service/pkg/config"
	"lead-service/pkg/database"
	"lead-service/pkg/jwtutil"
	"lead-service/pkg/logger"
	"lead-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting lead service...", zap.String("environment", cfg.Server.Env))

	// Initialize the registry database
	masterDB, err := database.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to initialize registry database", zap.Error(err))
	}
	log.Info("Registry database connection established")

	// Tenant runtime: one cached connection per tenant for the life of the
	// process, created lazily on first use.
	runtime := tenant.NewRuntime(tenant.PostgresOpener(&cfg.Database), log)
	tenants := tenant.NewService(runtime)

	reg := registry.New(masterDB)
	jwt := jwtutil.New(&cfg.JWT)
	h := handler.New(reg, tenants, jwt, cfg.Superadmin)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     []string{cfg.Server.CORSOrigin},
		AllowCredentials: true,
	}))
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Unified login: decides the role from the credentials
	e.POST("/auth/login", h.Login)

	// Superadmin routes
	superadmin := e.Group("/superadmin")
	superadmin.POST("/login", h.SuperadminLogin)

	superadminAPI := e.Group("/superadmin",
		middleware.RequireAuth(jwt), middleware.RequireRole(jwtutil.RoleSuperadmin))
	superadminAPI.POST("/create-admin", h.CreateAdmin)
	superadminAPI.GET("/admins", h.ListAdmins)
	superadminAPI.GET("/admins/:id", h.GetAdmin)
	superadminAPI.GET("/admins/:id/users", h.GetAdminLeads)
	superadminAPI.PUT("/admins/:id", h.UpdateAdmin)
	superadminAPI.PATCH("/admins/:id/toggle-status", h.ToggleAdminStatus)
	superadminAPI.DELETE("/admins/:id", h.DeleteAdmin)

	// Admin routes - tenant scope always comes from the token claims
	admin := e.Group("/admin")
	admin.POST("/login", h.AdminLogin)

	adminAPI := e.Group("/admin",
		middleware.RequireAuth(jwt), middleware.RequireRole(jwtutil.RoleAdmin))
	adminAPI.GET("/users", h.ListUsers)
	adminAPI.POST("/users", h.CreateUser)
	adminAPI.GET("/users/:id", h.GetUser)
	adminAPI.PUT("/users/:id", h.UpdateUser)
	adminAPI.DELETE("/users/:id", h.DeleteUser)
	adminAPI.GET("/leads", h.ListLeads)
	adminAPI.POST("/leads", h.CreateLead)
	adminAPI.GET("/leads/:id", h.GetLead)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
