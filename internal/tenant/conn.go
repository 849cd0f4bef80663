package tenant

import (
	"fmt"
	"sync"

	"gorm.io/gorm"
)

// Conn is a live handle to one tenant's isolated data store. The opener
// fills in the backend hooks; everything the connection materializes is
// cached on it for the lifetime of the handle.
type Conn struct {
	Name string
	DB   *gorm.DB

	// Ping reports backend health; nil means always healthy.
	Ping func() error
	// Close releases the underlying pool; nil means nothing to release.
	Close func() error
	// Exec runs a DDL statement against the tenant namespace.
	Exec func(stmt string) error
	// MigrateUsers ensures the fixed tenant users table.
	MigrateUsers func() error

	mu         sync.Mutex
	leadSchema *LeadSchema
	usersReady bool
}

// Healthy reports whether the handle can still reach its backend.
func (c *Conn) Healthy() bool {
	if c.Ping == nil {
		return true
	}
	return c.Ping() == nil
}

// EnsureLeadSchema returns the lead schema bound to this connection,
// materializing it on first call. Later calls return the bound schema
// unchanged and ignore selectedFields: the first caller wins for the life of
// the connection, so selected-field edits take effect only after the process
// restarts or the connection is evicted.
func (c *Conn) EnsureLeadSchema(selectedFields []string) (*LeadSchema, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.leadSchema != nil {
		return c.leadSchema, nil
	}
	if c.Exec == nil {
		return nil, fmt.Errorf("tenant connection %q is not initialized", c.Name)
	}

	schema := BuildLeadSchema(selectedFields)
	for _, stmt := range schema.DDL() {
		if err := c.Exec(stmt); err != nil {
			return nil, fmt.Errorf("materializing lead schema for %q: %w", c.Name, err)
		}
	}
	c.leadSchema = &schema
	return c.leadSchema, nil
}

// EnsureUserSchema materializes the fixed tenant users table once per
// connection. The user shape is tenant-independent and never parameterized.
func (c *Conn) EnsureUserSchema() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.usersReady {
		return nil
	}
	if c.MigrateUsers == nil {
		return fmt.Errorf("tenant connection %q is not initialized", c.Name)
	}
	if err := c.MigrateUsers(); err != nil {
		return fmt.Errorf("materializing user schema for %q: %w", c.Name, err)
	}
	c.usersReady = true
	return nil
}

// shutdown closes the backend pool if the opener provided a closer.
func (c *Conn) shutdown() {
	if c.Close != nil {
		_ = c.Close()
	}
}
