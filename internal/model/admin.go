package model

import (
	"time"

	"gorm.io/gorm"
)

// Company holds the optional tenant company profile embedded in Admin.
type Company struct {
	Name    string `json:"name,omitempty" gorm:"column:company_name;type:varchar(200)"`
	LogoURL string `json:"logo_url,omitempty" gorm:"column:company_logo_url;type:varchar(500)"`
	Details string `json:"details,omitempty" gorm:"column:company_details;type:text"`
}

// Admin is a tenant registration entry in the shared registry database.
// Username is stored lower-cased; DBName is derived from it at creation and
// never changes afterwards.
type Admin struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	Username       string         `json:"username" gorm:"type:varchar(64);uniqueIndex"`
	PasswordHash   string         `json:"-" gorm:"type:varchar(255)"`
	DBName         string         `json:"db_name" gorm:"type:varchar(96);uniqueIndex"`
	Email          string         `json:"email,omitempty" gorm:"type:varchar(200)"`
	IsActive       bool           `json:"is_active" gorm:"default:true"`
	Company        Company        `json:"company" gorm:"embedded"`
	SelectedFields []string       `json:"selected_fields" gorm:"serializer:json;type:jsonb"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
}
