package shard

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"go.uber.org/multierr"
)

// Conn is the physical connection of one shard: a single connection pinned
// out of the driver's pool. Its pointer is the identity the statement
// executor locks on, so every unit of a shard shares one *Conn.
type Conn struct {
	name     string
	driver   string
	endpoint Endpoint

	db   *sql.DB
	conn *sql.Conn

	logger *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// newConn pins one connection of db
func newConn(ctx context.Context, name, driver string, endpoint Endpoint, db *sql.DB, logger *slog.Logger) (*Conn, error) {
	if logger == nil {
		logger = slog.Default()
	}

	// The pool only ever hands out the pinned connection
	db.SetMaxOpenConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("failed to acquire connection: %w", err), db.Close())
	}

	if err := conn.PingContext(ctx); err != nil {
		return nil, multierr.Combine(fmt.Errorf("failed to ping: %w", err), conn.Close(), db.Close())
	}

	logger.Debug("pinned shard connection",
		"shard", name,
		"driver", driver,
		"host", endpoint.Host,
		"database", endpoint.Database)

	return &Conn{
		name:     name,
		driver:   driver,
		endpoint: endpoint,
		db:       db,
		conn:     conn,
		logger:   logger,
	}, nil
}

// Name returns the shard name
func (c *Conn) Name() string {
	return c.name
}

// Driver returns the database/sql driver name
func (c *Conn) Driver() string {
	return c.driver
}

// Endpoint returns host and database of the shard
func (c *Conn) Endpoint() Endpoint {
	return c.endpoint
}

// Statement creates a new statement on this connection
func (c *Conn) Statement() *SQLStatement {
	return &SQLStatement{conn: c}
}

// Ping checks that the pinned connection is alive
func (c *Conn) Ping(ctx context.Context) error {
	return c.conn.PingContext(ctx)
}

// Close releases the pinned connection and the pool behind it
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = multierr.Combine(c.conn.Close(), c.db.Close())
		c.logger.Debug("closed shard connection", "shard", c.name)
	})
	return c.closeErr
}

func (c *Conn) String() string {
	return fmt.Sprintf("Conn{Name: %s, Driver: %s, Host: %s}", c.name, c.driver, c.endpoint.Host)
}
