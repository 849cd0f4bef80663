package model

import "time"

// User roles within a tenant.
const (
	UserRoleUser    = "user"
	UserRoleManager = "manager"
	UserRoleAdmin   = "admin"
)

// User is a tenant-scoped account record. Its shape is fixed and identical
// across tenants; email is unique within a tenant only.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(200);not null"`
	Email     string    `json:"email" gorm:"type:varchar(200);uniqueIndex;not null"`
	Role      string    `json:"role" gorm:"type:varchar(20);default:user"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidUserRole reports whether role is one of the known tenant user roles.
func ValidUserRole(role string) bool {
	switch role {
	case UserRoleUser, UserRoleManager, UserRoleAdmin:
		return true
	}
	return false
}
