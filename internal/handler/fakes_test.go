package handler_test

import (
	"fmt"
	"sort"

	"lead-service/internal/apperr"
	"lead-service/internal/handler"
	"lead-service/internal/middleware"
	"lead-service/internal/model"
	"lead-service/internal/registry"
	"lead-service/internal/tenant"
	"lead-service/pkg/config"
	"lead-service/pkg/jwtutil"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

// fakeRegistry is an in-memory tenant registry. It reuses the real
// case-folding and derivation policy so mixed-case duplicate handling
// behaves like production.
type fakeRegistry struct {
	admins map[uint]*model.Admin
	pass   map[uint]string
	nextID uint
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		admins: make(map[uint]*model.Admin),
		pass:   make(map[uint]string),
	}
}

func (f *fakeRegistry) CreateAdmin(in registry.CreateAdminInput) (*model.Admin, error) {
	username := registry.NormalizeUsername(in.Username)
	if username == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", apperr.ErrValidation)
	}
	if !registry.ValidUsername(username) {
		return nil, fmt.Errorf("%w: invalid username", apperr.ErrValidation)
	}
	for _, a := range f.admins {
		if a.Username == username {
			return nil, fmt.Errorf("%w: username already exists", apperr.ErrConflict)
		}
	}
	f.nextID++
	admin := &model.Admin{
		ID:             f.nextID,
		Username:       username,
		DBName:         registry.TenantDBName(username),
		Email:          in.Email,
		IsActive:       true,
		Company:        in.Company,
		SelectedFields: in.SelectedFields,
	}
	f.admins[admin.ID] = admin
	f.pass[admin.ID] = in.Password
	return admin, nil
}

func (f *fakeRegistry) Authenticate(username, password string) (*model.Admin, error) {
	username = registry.NormalizeUsername(username)
	for id, a := range f.admins {
		if a.Username == username && a.IsActive && f.pass[id] == password {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: invalid credentials", apperr.ErrUnauthorized)
}

func (f *fakeRegistry) List() ([]model.Admin, error) {
	ids := make([]uint, 0, len(f.admins))
	for id := range f.admins {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	out := make([]model.Admin, 0, len(ids))
	for _, id := range ids {
		out = append(out, *f.admins[id])
	}
	return out, nil
}

func (f *fakeRegistry) Get(id uint) (*model.Admin, error) {
	admin, ok := f.admins[id]
	if !ok {
		return nil, fmt.Errorf("%w: admin %d", apperr.ErrNotFound, id)
	}
	return admin, nil
}

func (f *fakeRegistry) Update(id uint, in registry.UpdateAdminInput) (*model.Admin, error) {
	admin, err := f.Get(id)
	if err != nil {
		return nil, err
	}
	if in.Email != nil {
		admin.Email = *in.Email
	}
	if in.Password != nil {
		f.pass[id] = *in.Password
	}
	if in.Company != nil {
		admin.Company = *in.Company
	}
	if in.SelectedFields != nil {
		admin.SelectedFields = *in.SelectedFields
	}
	return admin, nil
}

func (f *fakeRegistry) ToggleActive(id uint) (*model.Admin, error) {
	admin, err := f.Get(id)
	if err != nil {
		return nil, err
	}
	admin.IsActive = !admin.IsActive
	return admin, nil
}

func (f *fakeRegistry) Delete(id uint) (*model.Admin, error) {
	admin, err := f.Get(id)
	if err != nil {
		return nil, err
	}
	delete(f.admins, id)
	delete(f.pass, id)
	return admin, nil
}

// fakeTenantStore keeps per-tenant leads and users in memory, keyed by the
// tenant database name. Lead shaping goes through the real schema builder so
// unknown-field dropping behaves like production.
type fakeTenantStore struct {
	schemas map[string]tenant.LeadSchema
	leads   map[string][]map[string]interface{}
	users   map[string][]model.User
	evicted []string
	touched []string
	nextID  uint
}

func newFakeTenantStore() *fakeTenantStore {
	return &fakeTenantStore{
		schemas: make(map[string]tenant.LeadSchema),
		leads:   make(map[string][]map[string]interface{}),
		users:   make(map[string][]model.User),
	}
}

// schemaFor mirrors the at-most-once materialization: the first selected
// list a tenant connection sees wins.
func (f *fakeTenantStore) schemaFor(dbName string, selected []string) tenant.LeadSchema {
	if schema, ok := f.schemas[dbName]; ok {
		return schema
	}
	schema := tenant.BuildLeadSchema(selected)
	f.schemas[dbName] = schema
	return schema
}

func (f *fakeTenantStore) Touch(dbName string, selected []string) error {
	f.touched = append(f.touched, dbName)
	f.schemaFor(dbName, selected)
	return nil
}

func (f *fakeTenantStore) EvictTenant(dbName string) {
	f.evicted = append(f.evicted, dbName)
	delete(f.schemas, dbName)
}

func (f *fakeTenantStore) CreateLead(dbName string, selected []string, payload map[string]interface{}) (map[string]interface{}, error) {
	schema := f.schemaFor(dbName, selected)
	f.nextID++
	rec := map[string]interface{}{
		"id":     f.nextID,
		"source": tenant.LeadSourceManual,
	}
	if v, ok := payload["source"]; ok {
		src, _ := v.(string)
		if !tenant.ValidLeadSource(src) {
			return nil, fmt.Errorf("%w: bad source", apperr.ErrValidation)
		}
		rec["source"] = src
	}
	for _, field := range schema.Selected {
		if v, ok := payload[field.JSON]; ok {
			rec[field.JSON] = v
		}
	}
	f.leads[dbName] = append(f.leads[dbName], rec)
	return rec, nil
}

func (f *fakeTenantStore) ListLeads(dbName string, selected []string) ([]map[string]interface{}, error) {
	f.schemaFor(dbName, selected)
	leads := f.leads[dbName]
	if leads == nil {
		leads = []map[string]interface{}{}
	}
	return leads, nil
}

func (f *fakeTenantStore) GetLead(dbName string, selected []string, id uint) (map[string]interface{}, error) {
	for _, lead := range f.leads[dbName] {
		if lead["id"] == id {
			return lead, nil
		}
	}
	return nil, fmt.Errorf("%w: lead %d", apperr.ErrNotFound, id)
}

func (f *fakeTenantStore) CreateUser(dbName string, user model.User) (*model.User, error) {
	if user.Name == "" || user.Email == "" {
		return nil, fmt.Errorf("%w: name and email are required", apperr.ErrValidation)
	}
	for _, u := range f.users[dbName] {
		if u.Email == user.Email {
			return nil, fmt.Errorf("%w: email already registered", apperr.ErrConflict)
		}
	}
	f.nextID++
	user.ID = f.nextID
	if user.Role == "" {
		user.Role = model.UserRoleUser
	}
	f.users[dbName] = append(f.users[dbName], user)
	return &user, nil
}

func (f *fakeTenantStore) ListUsers(dbName string) ([]model.User, error) {
	users := f.users[dbName]
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

func (f *fakeTenantStore) GetUser(dbName string, id uint) (*model.User, error) {
	for i := range f.users[dbName] {
		if f.users[dbName][i].ID == id {
			return &f.users[dbName][i], nil
		}
	}
	return nil, fmt.Errorf("%w: user %d", apperr.ErrNotFound, id)
}

func (f *fakeTenantStore) UpdateUser(dbName string, id uint, input map[string]interface{}) (*model.User, error) {
	user, err := f.GetUser(dbName, id)
	if err != nil {
		return nil, err
	}
	if v, ok := input["name"].(string); ok && v != "" {
		user.Name = v
	}
	if v, ok := input["email"].(string); ok && v != "" {
		user.Email = v
	}
	if v, ok := input["role"].(string); ok && v != "" {
		user.Role = v
	}
	return user, nil
}

func (f *fakeTenantStore) DeleteUser(dbName string, id uint) error {
	users := f.users[dbName]
	for i := range users {
		if users[i].ID == id {
			f.users[dbName] = append(users[:i], users[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: user %d", apperr.ErrNotFound, id)
}

// testEnv wires a handler set over the fakes behind the same routes main
// registers.
type testEnv struct {
	e        *echo.Echo
	registry *fakeRegistry
	tenants  *fakeTenantStore
	jwt      *jwtutil.JWTUtil
}

func newTestEnv() *testEnv {
	return newTestEnvWithSuperadmin(config.SuperadminConfig{
		Username: "root",
		Password: "rootpass",
	})
}

func newTestEnvWithSuperadmin(sa config.SuperadminConfig) *testEnv {
	reg := newFakeRegistry()
	tenants := newFakeTenantStore()
	jwt := jwtutil.New(&config.JWTConfig{SigningKey: "test-key", ExpirationHours: 1})
	h := handler.New(reg, tenants, jwt, sa)

	e := echo.New()
	e.Use(echomiddleware.Recover())

	e.POST("/auth/login", h.Login)
	e.POST("/superadmin/login", h.SuperadminLogin)

	superadminAPI := e.Group("/superadmin",
		middleware.RequireAuth(jwt), middleware.RequireRole(jwtutil.RoleSuperadmin))
	superadminAPI.POST("/create-admin", h.CreateAdmin)
	superadminAPI.GET("/admins", h.ListAdmins)
	superadminAPI.GET("/admins/:id", h.GetAdmin)
	superadminAPI.GET("/admins/:id/users", h.GetAdminLeads)
	superadminAPI.PUT("/admins/:id", h.UpdateAdmin)
	superadminAPI.PATCH("/admins/:id/toggle-status", h.ToggleAdminStatus)
	superadminAPI.DELETE("/admins/:id", h.DeleteAdmin)

	e.POST("/admin/login", h.AdminLogin)
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

	return &testEnv{e: e, registry: reg, tenants: tenants, jwt: jwt}
}
