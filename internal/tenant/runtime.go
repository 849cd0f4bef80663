package tenant

import (
	"fmt"
	"sync"

	"lead-service/internal/apperr"
	"lead-service/prometheus"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// OpenFunc opens a fresh handle to the named tenant store. The production
// opener talks to Postgres; tests inject counting stubs.
type OpenFunc func(dbName string) (*Conn, error)

// Runtime owns the process-wide tenant connection cache. It is constructed
// once in main and injected into every handler; there is no package-level
// state.
type Runtime struct {
	mu    sync.RWMutex
	conns map[string]*Conn
	group singleflight.Group
	open  OpenFunc
	log   *zap.Logger
}

// NewRuntime creates a runtime around the given opener.
func NewRuntime(open OpenFunc, log *zap.Logger) *Runtime {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runtime{
		conns: make(map[string]*Conn),
		open:  open,
		log:   log,
	}
}

// Acquire returns the live handle for a tenant store, opening it on first
// use and reusing it afterwards. Concurrent first-time calls for the same
// name are coalesced through singleflight so exactly one underlying
// connection is opened; losers wait for and share the winner's handle.
// Different tenants never contend on each other's creation.
func (r *Runtime) Acquire(dbName string) (*Conn, error) {
	if dbName == "" {
		return nil, fmt.Errorf("%w: tenant database name is required", apperr.ErrValidation)
	}

	r.mu.RLock()
	conn := r.conns[dbName]
	r.mu.RUnlock()
	if conn != nil && conn.Healthy() {
		return conn, nil
	}

	v, err, _ := r.group.Do(dbName, func() (interface{}, error) {
		// Re-check inside the flight: a concurrent caller may have filled
		// the slot while this one was queued.
		r.mu.RLock()
		cached := r.conns[dbName]
		r.mu.RUnlock()
		if cached != nil && cached.Healthy() {
			return cached, nil
		}

		opened, err := r.open(dbName)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		if cached != nil {
			cached.shutdown()
		}
		r.conns[dbName] = opened
		size := len(r.conns)
		r.mu.Unlock()

		prometheus.TenantConnectionsOpened.Inc()
		prometheus.TenantConnectionsActive.Set(float64(size))
		r.log.Info("Tenant connection established", zap.String("tenant_db", dbName))
		return opened, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Conn), nil
}

// Evict closes and forgets the cached handle for a tenant, if any. It is
// the explicit invalidation hook: the next Acquire opens fresh and
// re-materializes schemas. Tenant data is untouched.
func (r *Runtime) Evict(dbName string) {
	r.mu.Lock()
	conn := r.conns[dbName]
	delete(r.conns, dbName)
	size := len(r.conns)
	r.mu.Unlock()

	if conn != nil {
		conn.shutdown()
		prometheus.TenantConnectionsActive.Set(float64(size))
		r.log.Info("Tenant connection evicted", zap.String("tenant_db", dbName))
	}
}

// Len reports the number of cached tenant connections.
func (r *Runtime) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
