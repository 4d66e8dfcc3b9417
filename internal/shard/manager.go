package shard

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	// Drivers for the supported shard databases
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/aryankumar/shardexec/internal/config"
	"github.com/aryankumar/shardexec/internal/util"
)

const (
	// maxConcurrentConnects limits simultaneous dials
	maxConcurrentConnects = 10

	healthCheckTimeout = 10 * time.Second
)

// openDB opens a driver pool. Tests replace it.
var openDB = sql.Open

// Manager manages the physical connections of the configured shards.
// It connects concurrently, health-checks, and closes them.
type Manager struct {
	// shards is the configuration, keyed by shard name
	shards map[string]config.ShardConfig

	// conns holds one pinned connection per connected shard
	conns map[string]*Conn

	// mu protects conns and closed
	mu sync.RWMutex

	logger *slog.Logger

	closed bool
}

// NewManager creates a manager for the given shard configuration
func NewManager(shards map[string]config.ShardConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		shards: shards,
		conns:  make(map[string]*Conn),
		logger: logger,
	}
}

// Connect opens the named shards concurrently. Every shard is attempted;
// the failures are returned combined, and the shards that did connect stay
// available.
func (m *Manager) Connect(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return fmt.Errorf("no shard names provided")
	}

	m.logger.Info("connecting to shards",
		"count", len(names),
		"shards", names)

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs error
	)
	g.SetLimit(maxConcurrentConnects)

	for _, name := range names {
		name := name
		g.Go(func() error {
			if err := m.connectOne(ctx, name); err != nil {
				m.logger.Error("failed to connect to shard",
					"shard", name,
					"error", err)
				mu.Lock()
				errs = multierr.Append(errs, util.WrapShardError(name, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if errs != nil {
		failed := len(multierr.Errors(errs))
		m.logger.Warn("some shard connections failed",
			"total", len(names),
			"failed", failed,
			"succeeded", len(names)-failed)
		return fmt.Errorf("failed to connect to %d/%d shards: %w", failed, len(names), errs)
	}

	m.logger.Info("successfully connected to all shards", "count", len(names))
	return nil
}

func (m *Manager) connectOne(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg, ok := m.shards[name]
	if !ok {
		return util.ErrShardNotFound
	}

	m.mu.RLock()
	_, connected := m.conns[name]
	m.mu.RUnlock()
	if connected {
		return nil
	}

	endpoint, err := DescribeDSN(cfg.Driver, cfg.DSN)
	if err != nil {
		return err
	}

	m.logger.Debug("connecting to shard",
		"shard", name,
		"driver", cfg.Driver,
		"host", endpoint.Host)

	db, err := openDB(cfg.Driver, cfg.DSN)
	if err != nil {
		return fmt.Errorf("%w: %w", util.ErrConnectionFailed, err)
	}

	if err := m.register(ctx, name, cfg.Driver, endpoint, db); err != nil {
		return err
	}

	m.logger.Info("successfully connected to shard",
		"shard", name,
		"host", endpoint.Host,
		"database", endpoint.Database)
	return nil
}

// Attach pins a connection of a pool the caller opened itself for a
// configured shard. The manager owns db afterwards and closes it.
func (m *Manager) Attach(ctx context.Context, name string, db *sql.DB) error {
	cfg, ok := m.shards[name]
	if !ok {
		return util.WrapShardError(name, util.ErrShardNotFound)
	}

	m.mu.RLock()
	_, connected := m.conns[name]
	m.mu.RUnlock()
	if connected {
		return util.WrapShardError(name, util.ErrAlreadyExists)
	}

	// The DSN only feeds logs and listings here
	endpoint, _ := DescribeDSN(cfg.Driver, cfg.DSN)
	if err := m.register(ctx, name, cfg.Driver, endpoint, db); err != nil {
		return util.WrapShardError(name, err)
	}

	m.logger.Info("attached shard", "shard", name)
	return nil
}

func (m *Manager) register(ctx context.Context, name, driver string, endpoint Endpoint, db *sql.DB) error {
	conn, err := newConn(ctx, name, driver, endpoint, db, m.logger)
	if err != nil {
		return fmt.Errorf("%w: %w", util.ErrConnectionFailed, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		m.logger.Warn("manager is closed, discarding connection", "shard", name)
		return conn.Close()
	}
	m.conns[name] = conn
	return nil
}

// ConnectAll connects every enabled shard of the configuration
func (m *Manager) ConnectAll(ctx context.Context) error {
	names := make([]string, 0, len(m.shards))
	for name, cfg := range m.shards {
		if cfg.Enabled {
			names = append(names, name)
		}
	}

	if len(names) == 0 {
		return fmt.Errorf("no enabled shards configured")
	}

	sort.Strings(names)
	return m.Connect(ctx, names)
}

// Get returns the connection of a shard
func (m *Manager) Get(name string) (*Conn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("manager is closed")
	}

	conn, ok := m.conns[name]
	if !ok {
		return nil, util.WrapShardError(name, util.ErrShardNotFound)
	}
	return conn, nil
}

// All returns the connected shards sorted by name
func (m *Manager) All() []*Conn {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conns := make([]*Conn, 0, len(m.conns))
	for _, conn := range m.conns {
		conns = append(conns, conn)
	}
	sort.Slice(conns, func(i, j int) bool {
		return conns[i].name < conns[j].name
	})
	return conns
}

// Names returns the connected shard names, sorted
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.conns))
	for name := range m.conns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has returns true if the shard is connected
func (m *Manager) Has(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.conns[name]
	return ok
}

// Count returns the number of connected shards
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.conns)
}

// HealthCheck pings every connected shard concurrently and returns the
// error per shard name (nil when healthy)
func (m *Manager) HealthCheck(ctx context.Context) map[string]error {
	results := make(map[string]error)
	for _, status := range m.HealthCheckWithStatus(ctx) {
		results[status.ShardName] = status.Error
	}
	return results
}

// HealthCheckWithStatus pings every connected shard concurrently and returns
// one status per shard, sorted by name
func (m *Manager) HealthCheckWithStatus(ctx context.Context) []HealthStatus {
	m.logger.Debug("starting health checks")

	conns := m.All()
	if len(conns) == 0 {
		m.logger.Warn("no shards to health check")
		return []HealthStatus{}
	}

	statuses := make([]HealthStatus, len(conns))

	var g errgroup.Group
	g.SetLimit(maxConcurrentConnects)
	for i, conn := range conns {
		i, conn := i, conn
		g.Go(func() error {
			statuses[i] = checkOne(ctx, conn)
			if statuses[i].Error != nil {
				m.logger.Warn("health check failed",
					"shard", conn.name,
					"error", statuses[i].Error)
			}
			return nil
		})
	}
	_ = g.Wait()

	healthy := 0
	for _, s := range statuses {
		if s.Healthy {
			healthy++
		}
	}
	m.logger.Info("health checks completed",
		"total", len(statuses),
		"healthy", healthy)

	return statuses
}

func checkOne(ctx context.Context, conn *Conn) HealthStatus {
	status := HealthStatus{ShardName: conn.name}

	pingCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	start := time.Now()
	err := conn.Ping(pingCtx)
	status.Latency = time.Since(start)
	status.Error = err
	status.Healthy = err == nil
	return status
}

// Close closes every connection and marks the manager closed
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		m.logger.Debug("manager already closed")
		return nil
	}

	m.logger.Info("closing shard manager", "shards", len(m.conns))

	var errs error
	for name, conn := range m.conns {
		errs = multierr.Append(errs, util.WrapShardError(name, conn.Close()))
	}
	m.conns = make(map[string]*Conn)
	m.closed = true

	return errs
}

// IsClosed returns true if the manager has been closed
func (m *Manager) IsClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}
