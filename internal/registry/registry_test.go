package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeUsername(t *testing.T) {
	assert.Equal(t, "alice", NormalizeUsername("Alice"))
	assert.Equal(t, "alice", NormalizeUsername("  ALICE "))
	assert.Equal(t, "bob_2", NormalizeUsername("Bob_2"))
}

func TestTenantDBNameIsDeterministic(t *testing.T) {
	// Mixed-case variants of the same username derive the same database
	// name, which is why usernames are folded before the uniqueness check.
	assert.Equal(t, "tenant_alice", TenantDBName("Alice"))
	assert.Equal(t, "tenant_alice", TenantDBName("alice"))
	assert.Equal(t, TenantDBName("ALICE"), TenantDBName("alice"))
}

func TestValidUsername(t *testing.T) {
	tests := []struct {
		username string
		valid    bool
	}{
		{"alice", true},
		{"alice_co", true},
		{"a1b2c3", true},
		{"ab", false},                 // too short
		{"", false},                   // empty
		{"_alice", false},             // must start alphanumeric
		{"alice-co", false},           // dash not allowed
		{"Alice", false},              // validated after folding
		{"alice;drop table", false},   // db_name feeds schema DDL
		{"averyveryverylongusernamethatkeepsgoing", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.valid, ValidUsername(tt.username), "username %q", tt.username)
	}
}
