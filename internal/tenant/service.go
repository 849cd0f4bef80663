package tenant

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"lead-service/internal/apperr"
	"lead-service/internal/model"
	"lead-service/prometheus"

	"gorm.io/gorm"
)

// Service performs tenant-scoped CRUD through the connection runtime. Every
// operation takes the tenant database name resolved from the caller's token
// claims; a client-supplied name never reaches this layer.
type Service struct {
	rt *Runtime
}

// NewService creates a tenant store service over the given runtime.
func NewService(rt *Runtime) *Service {
	return &Service{rt: rt}
}

// Touch lazily allocates a tenant's namespace and materializes both record
// shapes. Called right after an admin is provisioned, mirroring the first
// real request.
func (s *Service) Touch(dbName string, selectedFields []string) error {
	conn, err := s.rt.Acquire(dbName)
	if err != nil {
		return err
	}
	if err := conn.EnsureUserSchema(); err != nil {
		return err
	}
	_, err = conn.EnsureLeadSchema(selectedFields)
	return err
}

// EvictTenant drops the cached connection for a tenant. Data is untouched.
func (s *Service) EvictTenant(dbName string) {
	s.rt.Evict(dbName)
}

// CreateLead inserts a lead shaped by the tenant's materialized schema.
// Payload keys outside the schema are dropped; source must be a known enum
// value when present and defaults to manual.
func (s *Service) CreateLead(dbName string, selectedFields []string, payload map[string]interface{}) (map[string]interface{}, error) {
	conn, err := s.rt.Acquire(dbName)
	if err != nil {
		return nil, err
	}
	schema, err := conn.EnsureLeadSchema(selectedFields)
	if err != nil {
		return nil, err
	}

	columns := make([]string, 0, len(schema.Selected)+2)
	values := make([]interface{}, 0, cap(columns))
	for _, f := range schema.Selected {
		if v, ok := payload[f.JSON]; ok && v != nil {
			columns = append(columns, f.Column)
			values = append(values, fmt.Sprint(v))
		}
	}

	if v, ok := payload["source"]; ok {
		src, _ := v.(string)
		if !ValidLeadSource(src) {
			return nil, fmt.Errorf("%w: source must be %q or %q", apperr.ErrValidation, LeadSourceWebsite, LeadSourceManual)
		}
		columns = append(columns, "source")
		values = append(values, src)
	}
	if v, ok := payload["capture_time"]; ok {
		raw, _ := v.(string)
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: capture_time must be RFC 3339", apperr.ErrValidation)
		}
		columns = append(columns, "capture_time")
		values = append(values, ts)
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	row := map[string]interface{}{}
	if err := conn.DB.Raw(insertLeadSQL(columns), values...).Scan(&row).Error; err != nil {
		return nil, fmt.Errorf("creating lead in %q: %w", dbName, err)
	}
	return leadToJSON(schema, row), nil
}

// ListLeads returns the tenant's leads, newest first.
func (s *Service) ListLeads(dbName string, selectedFields []string) ([]map[string]interface{}, error) {
	conn, err := s.rt.Acquire(dbName)
	if err != nil {
		return nil, err
	}
	schema, err := conn.EnsureLeadSchema(selectedFields)
	if err != nil {
		return nil, err
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var rows []map[string]interface{}
	if err := conn.DB.Table(LeadsTable).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing leads in %q: %w", dbName, err)
	}
	out := make([]map[string]interface{}, len(rows))
	for i, row := range rows {
		out[i] = leadToJSON(schema, row)
	}
	return out, nil
}

// GetLead fetches one lead by id.
func (s *Service) GetLead(dbName string, selectedFields []string, id uint) (map[string]interface{}, error) {
	conn, err := s.rt.Acquire(dbName)
	if err != nil {
		return nil, err
	}
	schema, err := conn.EnsureLeadSchema(selectedFields)
	if err != nil {
		return nil, err
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var rows []map[string]interface{}
	if err := conn.DB.Table(LeadsTable).Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("fetching lead %d in %q: %w", id, dbName, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: lead %d", apperr.ErrNotFound, id)
	}
	return leadToJSON(schema, rows[0]), nil
}

// CreateUser inserts a tenant user. Email is unique within the tenant.
func (s *Service) CreateUser(dbName string, user model.User) (*model.User, error) {
	if user.Name == "" || user.Email == "" {
		return nil, fmt.Errorf("%w: name and email are required", apperr.ErrValidation)
	}
	if user.Role == "" {
		user.Role = model.UserRoleUser
	}
	if !model.ValidUserRole(user.Role) {
		return nil, fmt.Errorf("%w: unknown role %q", apperr.ErrValidation, user.Role)
	}

	conn, err := s.userConn(dbName)
	if err != nil {
		return nil, err
	}

	var existing model.User
	if err := conn.DB.Where("email = ?", user.Email).First(&existing).Error; err == nil {
		return nil, fmt.Errorf("%w: email already registered", apperr.ErrConflict)
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := conn.DB.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("creating user in %q: %w", dbName, err)
	}
	return &user, nil
}

// ListUsers returns the tenant's users, newest first.
func (s *Service) ListUsers(dbName string) ([]model.User, error) {
	conn, err := s.userConn(dbName)
	if err != nil {
		return nil, err
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var users []model.User
	if err := conn.DB.Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("listing users in %q: %w", dbName, err)
	}
	return users, nil
}

// GetUser fetches one tenant user by id.
func (s *Service) GetUser(dbName string, id uint) (*model.User, error) {
	conn, err := s.userConn(dbName)
	if err != nil {
		return nil, err
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if err := conn.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", apperr.ErrNotFound, id)
		}
		return nil, fmt.Errorf("fetching user %d in %q: %w", id, dbName, err)
	}
	return &user, nil
}

// UpdateUser applies a partial update (name, email, role) to a tenant user.
func (s *Service) UpdateUser(dbName string, id uint, input map[string]interface{}) (*model.User, error) {
	conn, err := s.userConn(dbName)
	if err != nil {
		return nil, err
	}

	var user model.User
	if err := conn.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", apperr.ErrNotFound, id)
		}
		return nil, fmt.Errorf("fetching user %d in %q: %w", id, dbName, err)
	}

	updates := map[string]interface{}{}
	if v, ok := input["name"].(string); ok && v != "" {
		updates["name"] = v
	}
	if v, ok := input["email"].(string); ok && v != "" {
		var existing model.User
		if err := conn.DB.Where("email = ? AND id <> ?", v, id).First(&existing).Error; err == nil {
			return nil, fmt.Errorf("%w: email already registered", apperr.ErrConflict)
		}
		updates["email"] = v
	}
	if v, ok := input["role"].(string); ok && v != "" {
		if !model.ValidUserRole(v) {
			return nil, fmt.Errorf("%w: unknown role %q", apperr.ErrValidation, v)
		}
		updates["role"] = v
	}
	if len(updates) == 0 {
		return &user, nil
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := conn.DB.Model(&user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("updating user %d in %q: %w", id, dbName, err)
	}
	return &user, nil
}

// DeleteUser removes a tenant user by id.
func (s *Service) DeleteUser(dbName string, id uint) error {
	conn, err := s.userConn(dbName)
	if err != nil {
		return err
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	res := conn.DB.Delete(&model.User{}, id)
	if res.Error != nil {
		return fmt.Errorf("deleting user %d in %q: %w", id, dbName, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: user %d", apperr.ErrNotFound, id)
	}
	return nil
}

func (s *Service) userConn(dbName string) (*Conn, error) {
	conn, err := s.rt.Acquire(dbName)
	if err != nil {
		return nil, err
	}
	if err := conn.EnsureUserSchema(); err != nil {
		return nil, err
	}
	return conn, nil
}

// insertLeadSQL builds the parametrized insert for the given columns.
// Columns come from the fixed translation table, never from client input.
func insertLeadSQL(columns []string) string {
	if len(columns) == 0 {
		return fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING *", LeadsTable)
	}
	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = quoteIdent(col)
		placeholders[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		LeadsTable, strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
}

// leadToJSON renames storage columns to wire field names.
func leadToJSON(schema *LeadSchema, row map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(row))
	for col, v := range row {
		out[schema.jsonNameForColumn(col)] = v
	}
	return out
}
