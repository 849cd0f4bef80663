package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"lead-service/pkg/config"

	"github.com/golang-jwt/jwt/v4"
)

// Roles carried in token claims.
const (
	RoleSuperadmin = "superadmin"
	RoleAdmin      = "admin"
)

// Claims represents the JWT claims for authenticated requests. Admin tokens
// carry the tenant database name and registry entry id; superadmin tokens
// carry neither.
type Claims struct {
	Role     string `json:"role"`
	Username string `json:"username"`
	TenantDB string `json:"tenant_db,omitempty"`
	AdminID  uint   `json:"admin_id,omitempty"`
	jwt.RegisteredClaims
}

// JWTUtil is a utility for JWT token operations
type JWTUtil struct {
	config *config.JWTConfig
}

// New creates a JWT utility with the given configuration
func New(cfg *config.JWTConfig) *JWTUtil {
	return &JWTUtil{config: cfg}
}

// GenerateSuperadminToken creates a token for the bootstrap superadmin.
func (j *JWTUtil) GenerateSuperadminToken(username string) (string, error) {
	return j.generate(Claims{Role: RoleSuperadmin, Username: username})
}

// GenerateAdminToken creates a token bound to a tenant admin. The tenant
// database name travels in the claims so tenant scope is never taken from a
// request payload.
func (j *JWTUtil) GenerateAdminToken(username, tenantDB string, adminID uint) (string, error) {
	if tenantDB == "" {
		return "", errors.New("tenant database name is required for admin tokens")
	}
	return j.generate(Claims{Role: RoleAdmin, Username: username, TenantDB: tenantDB, AdminID: adminID})
}

func (j *JWTUtil) generate(claims Claims) (string, error) {
	if j.config == nil {
		return "", errors.New("JWT configuration not provided")
	}

	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(j.config.ExpirationHours) * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.config.SigningKey))
}

// ValidateToken validates and parses the JWT token
func (j *JWTUtil) ValidateToken(tokenString string) (*Claims, error) {
	if j.config == nil {
		return nil, errors.New("JWT configuration not provided")
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			// Validate the signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(j.config.SigningKey), nil
		},
	)

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
