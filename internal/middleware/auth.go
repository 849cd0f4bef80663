package middleware

import (
	"net/http"
	"strings"

	"lead-service/pkg/jwtutil"
	"lead-service/pkg/logger"
	"lead-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// claimsKey is the echo context key the validated token claims live under.
const claimsKey = "claims"

// RequireAuth validates the bearer token from the Authorization header and
// stores its claims on the context. Missing, malformed or expired tokens are
// rejected with 401.
func RequireAuth(jwt *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				log.Error("Missing Authorization header")
				prometheus.RecordAuthError("missing_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				log.Error("Invalid Authorization header format")
				prometheus.RecordAuthError("invalid_auth_format")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
			}

			claims, err := jwt.ValidateToken(parts[1])
			if err != nil {
				log.Error("Invalid JWT token", zap.Error(err))
				prometheus.RecordAuthError("invalid_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			// Admin tokens must carry their tenant binding; a token without
			// it cannot be scoped and is treated as malformed.
			if claims.Role == jwtutil.RoleAdmin && claims.TenantDB == "" {
				log.Error("Admin token without tenant binding")
				prometheus.RecordAuthError("invalid_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			c.Set(claimsKey, claims)
			return next(c)
		}
	}
}

// RequireRole rejects authenticated requests whose token carries a
// different role. Runs after RequireAuth.
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := ClaimsFrom(c)
			if claims == nil || claims.Role != role {
				logger.FromContext(c).Error("Role mismatch",
					zap.String("required", role))
				prometheus.RecordAuthError("wrong_role")
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// ClaimsFrom returns the validated token claims, or nil outside an
// authenticated request.
func ClaimsFrom(c echo.Context) *jwtutil.Claims {
	claims, _ := c.Get(claimsKey).(*jwtutil.Claims)
	return claims
}
