package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAdminDerivesTenantDBName(t *testing.T) {
	env := newTestEnv()
	sa := superadminToken(t, env)

	rec := do(t, env, http.MethodPost, "/superadmin/create-admin", sa, map[string]interface{}{
		"username": "Alice", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, "tenant_alice", body["db_name"])

	// The tenant store is touched so the namespace exists up front.
	assert.Contains(t, env.tenants.touched, "tenant_alice")
}

func TestCreateAdminMixedCaseDuplicateConflicts(t *testing.T) {
	env := newTestEnv()
	sa := superadminToken(t, env)

	rec := do(t, env, http.MethodPost, "/superadmin/create-admin", sa, map[string]interface{}{
		"username": "Alice", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Same name with different casing folds to the same username and the
	// same derived database name, so it must conflict.
	rec = do(t, env, http.MethodPost, "/superadmin/create-admin", sa, map[string]interface{}{
		"username": "alice", "password": "othersecret",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateAdminRejectsBadUsername(t *testing.T) {
	env := newTestEnv()
	sa := superadminToken(t, env)

	rec := do(t, env, http.MethodPost, "/superadmin/create-admin", sa, map[string]interface{}{
		"username": "bad name!", "password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateAdminRequiresSuperadmin(t *testing.T) {
	env := newTestEnv()

	rec := do(t, env, http.MethodPost, "/superadmin/create-admin", "", map[string]interface{}{
		"username": "alice", "password": "secret123",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	adminToken := provisionAdmin(t, env, "bob", nil)
	rec = do(t, env, http.MethodPost, "/superadmin/create-admin", adminToken, map[string]interface{}{
		"username": "alice", "password": "secret123",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListAdminsExcludesPasswordHash(t *testing.T) {
	env := newTestEnv()
	provisionAdmin(t, env, "alice", nil)
	sa := superadminToken(t, env)

	rec := do(t, env, http.MethodGet, "/superadmin/admins", sa, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
	assert.Contains(t, rec.Body.String(), "tenant_alice")
}

func TestGetAdminNotFound(t *testing.T) {
	env := newTestEnv()
	sa := superadminToken(t, env)

	rec := do(t, env, http.MethodGet, "/superadmin/admins/99", sa, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, env, http.MethodGet, "/superadmin/admins/notanumber", sa, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateAdmin(t *testing.T) {
	env := newTestEnv()
	provisionAdmin(t, env, "alice", []string{"name"})
	sa := superadminToken(t, env)

	rec := do(t, env, http.MethodPut, "/superadmin/admins/1", sa, map[string]interface{}{
		"email":           "alice@example.com",
		"selected_fields": []string{"name", "email"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "alice@example.com", body["email"])
	assert.Equal(t, []interface{}{"name", "email"}, body["selected_fields"])
}

func TestToggleAdminStatus(t *testing.T) {
	env := newTestEnv()
	provisionAdmin(t, env, "alice", nil)
	sa := superadminToken(t, env)

	rec := do(t, env, http.MethodPatch, "/superadmin/admins/1/toggle-status", sa, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["is_active"])

	rec = do(t, env, http.MethodPatch, "/superadmin/admins/1/toggle-status", sa, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["is_active"])
}

func TestDeleteAdminEvictsConnectionOnly(t *testing.T) {
	env := newTestEnv()
	aliceToken := provisionAdmin(t, env, "alice", []string{"name"})
	sa := superadminToken(t, env)

	rec := do(t, env, http.MethodPost, "/admin/leads", aliceToken, map[string]interface{}{
		"name": "Prospect",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, env, http.MethodDelete, "/superadmin/admins/1", sa, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// The cached connection goes; the tenant's stored data stays.
	assert.Contains(t, env.tenants.evicted, "tenant_alice")
	assert.Contains(t, env.tenants.leads, "tenant_alice")

	rec = do(t, env, http.MethodGet, "/superadmin/admins/1", sa, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetAdminLeads(t *testing.T) {
	env := newTestEnv()
	aliceToken := provisionAdmin(t, env, "alice", []string{"name"})

	rec := do(t, env, http.MethodPost, "/admin/leads", aliceToken, map[string]interface{}{
		"name": "Prospect One",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	sa := superadminToken(t, env)
	rec = do(t, env, http.MethodGet, "/superadmin/admins/1/users", sa, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Prospect One")
}
