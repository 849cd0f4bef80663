package registry

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"lead-service/internal/apperr"
	"lead-service/internal/model"
	"lead-service/prometheus"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// tenantDBPrefix prefixes every derived tenant database name.
const tenantDBPrefix = "tenant_"

// usernameRE constrains usernames after case folding. The derived database
// name ends up in schema DDL, so the charset doubles as identifier safety.
var usernameRE = regexp.MustCompile(`^[a-z0-9][a-z0-9_]{2,31}$`)

// NormalizeUsername applies the registry's case-folding policy: usernames
// are compared and stored lower-case, so "Alice" and "alice" are the same
// account.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// ValidUsername reports whether a folded username is acceptable.
func ValidUsername(username string) bool {
	return usernameRE.MatchString(username)
}

// TenantDBName derives the immutable tenant database name for a username.
func TenantDBName(username string) string {
	return tenantDBPrefix + NormalizeUsername(username)
}

// CreateAdminInput carries the fields accepted when provisioning an admin.
type CreateAdminInput struct {
	Username       string
	Password       string
	Email          string
	Company        model.Company
	SelectedFields []string
}

// UpdateAdminInput carries the mutable fields of a registry entry. Username
// and the derived database name are immutable after creation.
type UpdateAdminInput struct {
	Email          *string
	Password       *string
	Company        *model.Company
	SelectedFields *[]string
}

// Registry is the shared store of tenant registration entries.
type Registry struct {
	db *gorm.DB
}

// New creates a registry over the master database handle.
func New(db *gorm.DB) *Registry {
	return &Registry{db: db}
}

// CreateAdmin provisions a tenant registration entry. The username is case-
// folded and must be unique; the tenant database name is derived from it
// deterministically and never changes.
func (r *Registry) CreateAdmin(in CreateAdminInput) (*model.Admin, error) {
	username := NormalizeUsername(in.Username)
	if username == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", apperr.ErrValidation)
	}
	if !ValidUsername(username) {
		return nil, fmt.Errorf("%w: username must be 3-32 chars of a-z, 0-9 or underscore", apperr.ErrValidation)
	}

	var existing model.Admin
	if err := r.db.Where("username = ?", username).First(&existing).Error; err == nil {
		return nil, fmt.Errorf("%w: username already exists", apperr.ErrConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	admin := model.Admin{
		Username:       username,
		PasswordHash:   string(hash),
		DBName:         TenantDBName(username),
		Email:          in.Email,
		IsActive:       true,
		Company:        in.Company,
		SelectedFields: in.SelectedFields,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := r.db.Create(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: username already exists", apperr.ErrConflict)
		}
		return nil, fmt.Errorf("creating admin: %w", err)
	}
	return &admin, nil
}

// Authenticate verifies admin credentials. Inactive entries are not
// eligible; every failure mode reports the same unauthorized error.
func (r *Registry) Authenticate(username, password string) (*model.Admin, error) {
	username = NormalizeUsername(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: missing credentials", apperr.ErrValidation)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var admin model.Admin
	if err := r.db.Where("username = ? AND is_active = ?", username, true).First(&admin).Error; err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", apperr.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", apperr.ErrUnauthorized)
	}
	return &admin, nil
}

// List returns every registration entry, newest first.
func (r *Registry) List() ([]model.Admin, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var admins []model.Admin
	if err := r.db.Order("created_at DESC").Find(&admins).Error; err != nil {
		return nil, fmt.Errorf("listing admins: %w", err)
	}
	return admins, nil
}

// Get fetches one registration entry by id.
func (r *Registry) Get(id uint) (*model.Admin, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var admin model.Admin
	if err := r.db.First(&admin, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: admin %d", apperr.ErrNotFound, id)
		}
		return nil, fmt.Errorf("fetching admin %d: %w", id, err)
	}
	return &admin, nil
}

// Update applies the mutable fields of a registration entry. Editing the
// selected fields does not reshape an already-materialized lead schema; the
// change takes effect after the tenant connection is next (re)opened.
func (r *Registry) Update(id uint, in UpdateAdminInput) (*model.Admin, error) {
	admin, err := r.Get(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Email != nil {
		updates["email"] = *in.Email
	}
	if in.Password != nil {
		if *in.Password == "" {
			return nil, fmt.Errorf("%w: password must not be empty", apperr.ErrValidation)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hashing password: %w", err)
		}
		updates["password_hash"] = string(hash)
	}
	if in.Company != nil {
		updates["company_name"] = in.Company.Name
		updates["company_logo_url"] = in.Company.LogoURL
		updates["company_details"] = in.Company.Details
	}
	if len(updates) > 0 {
		defer prometheus.TrackDBOperation("update")(time.Now())
		if err := r.db.Model(admin).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("updating admin %d: %w", id, err)
		}
	}
	if in.SelectedFields != nil {
		admin.SelectedFields = *in.SelectedFields
		if err := r.db.Model(admin).Update("selected_fields", admin.SelectedFields).Error; err != nil {
			return nil, fmt.Errorf("updating admin %d: %w", id, err)
		}
	}
	return admin, nil
}

// ToggleActive flips the entry's active flag. Tokens issued before the flip
// stay valid until their natural expiry.
func (r *Registry) ToggleActive(id uint) (*model.Admin, error) {
	admin, err := r.Get(id)
	if err != nil {
		return nil, err
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	admin.IsActive = !admin.IsActive
	if err := r.db.Model(admin).Update("is_active", admin.IsActive).Error; err != nil {
		return nil, fmt.Errorf("toggling admin %d: %w", id, err)
	}
	return admin, nil
}

// Delete removes a registration entry. The tenant's data store is left
// alone; dropping it is a separate operation this service does not perform.
func (r *Registry) Delete(id uint) (*model.Admin, error) {
	admin, err := r.Get(id)
	if err != nil {
		return nil, err
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := r.db.Unscoped().Delete(admin).Error; err != nil {
		return nil, fmt.Errorf("deleting admin %d: %w", id, err)
	}
	return admin, nil
}
