package shard

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aryankumar/shardexec/internal/config"
	"github.com/aryankumar/shardexec/internal/statement"
)

// SQLStatement runs SQL on one shard connection through database/sql.
// Query results are drained into Rows before the call returns.
type SQLStatement struct {
	conn *Conn

	mu            sync.Mutex
	generatedKeys []any
	resultSet     *Rows
	updateCount   int
}

var _ statement.Statement = (*SQLStatement)(nil)

// Connection returns the shard connection
func (s *SQLStatement) Connection() statement.Connection {
	return s.conn
}

// ExecuteQuery runs sql and returns its rows
func (s *SQLStatement) ExecuteQuery(ctx context.Context, sql string) (statement.ResultSet, error) {
	rows, err := s.query(ctx, sql)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.resultSet = rows
	s.updateCount = -1
	s.mu.Unlock()
	return rows, nil
}

// ExecuteUpdate runs sql and returns the affected row count. When keys asks
// for generated keys they are kept for GeneratedKeys.
func (s *SQLStatement) ExecuteUpdate(ctx context.Context, sql string, keys statement.KeyRequest) (int, error) {
	if keys.Mode == statement.KeysColumnNames && keys.WantsKeys() && s.conn.driver == config.DriverPostgres {
		return s.updateReturning(ctx, sql, keys.ColumnNames)
	}

	res, err := s.conn.conn.ExecContext(ctx, sql)
	if err != nil {
		return 0, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	var generated []any
	if keys.WantsKeys() {
		// Drivers without LastInsertId support simply report no keys
		if id, err := res.LastInsertId(); err == nil {
			generated = []any{id}
		} else {
			s.conn.logger.Debug("generated keys unavailable",
				"shard", s.conn.name,
				"keys", keys.String(),
				"error", err)
		}
	}

	s.mu.Lock()
	s.generatedKeys = generated
	s.updateCount = int(affected)
	s.resultSet = nil
	s.mu.Unlock()

	return int(affected), nil
}

// updateReturning uses RETURNING to fetch named key columns on postgres
func (s *SQLStatement) updateReturning(ctx context.Context, sql string, columns []string) (int, error) {
	rows, err := s.query(ctx, fmt.Sprintf("%s RETURNING %s", strings.TrimRight(sql, "; \n\t"), strings.Join(columns, ", ")))
	if err != nil {
		return 0, err
	}

	var generated []any
	for rows.Next() {
		generated = append(generated, rows.Values()...)
	}

	s.mu.Lock()
	s.generatedKeys = generated
	s.updateCount = rows.Len()
	s.resultSet = nil
	s.mu.Unlock()

	return rows.Len(), nil
}

// Execute runs any statement. It returns true when the statement produced a
// result set, which is then available from ResultSet. When keys asks for
// generated keys and sql does not read rows, the statement runs as an update
// so its keys and row count are kept.
func (s *SQLStatement) Execute(ctx context.Context, sql string, keys statement.KeyRequest) (bool, error) {
	if keys.WantsKeys() && !readsRows(sql) {
		if _, err := s.ExecuteUpdate(ctx, sql, keys); err != nil {
			return false, err
		}
		return false, nil
	}

	rows, err := s.query(ctx, sql)
	if err != nil {
		return false, err
	}

	hasResult := len(rows.columns) > 0

	s.mu.Lock()
	defer s.mu.Unlock()
	s.generatedKeys = nil
	if hasResult {
		s.resultSet = rows
		s.updateCount = -1
	} else {
		s.resultSet = nil
		s.updateCount = 0
	}
	return hasResult, nil
}

var rowKeywords = map[string]bool{
	"SELECT": true, "WITH": true, "SHOW": true, "DESCRIBE": true, "DESC": true,
	"EXPLAIN": true, "VALUES": true, "TABLE": true,
}

// readsRows reports whether sql starts with a keyword that returns rows
func readsRows(sql string) bool {
	trimmed := strings.TrimLeft(sql, " \t\r\n(")
	end := strings.IndexAny(trimmed, " \t\r\n(;")
	if end < 0 {
		end = len(trimmed)
	}
	return rowKeywords[strings.ToUpper(trimmed[:end])]
}

// ResultSet returns the rows of the last query, or nil
func (s *SQLStatement) ResultSet() *Rows {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resultSet
}

// UpdateCount returns the affected rows of the last update, or -1 after a
// query
func (s *SQLStatement) UpdateCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateCount
}

// GeneratedKeys returns the keys generated by the last update or keyed execute
func (s *SQLStatement) GeneratedKeys() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generatedKeys
}

func (s *SQLStatement) query(ctx context.Context, query string) (*Rows, error) {
	rows, err := s.conn.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return drainRows(rows)
}
