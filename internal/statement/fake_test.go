package statement

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// fakeConn records whether two driver calls ever overlapped on it
type fakeConn struct {
	name    string
	active  atomic.Int32
	overlap atomic.Bool
}

func newFakeConn(name string) *fakeConn {
	return &fakeConn{name: name}
}

func (c *fakeConn) Name() string { return c.name }

func (c *fakeConn) enter() {
	if c.active.Add(1) > 1 {
		c.overlap.Store(true)
	}
}

func (c *fakeConn) exit() {
	c.active.Add(-1)
}

type fakeResultSet struct {
	name string
}

func (r *fakeResultSet) Columns() ([]string, error) { return []string{"name"}, nil }
func (r *fakeResultSet) Next() bool                 { return false }
func (r *fakeResultSet) Scan(dest ...any) error     { return nil }
func (r *fakeResultSet) Err() error                 { return nil }
func (r *fakeResultSet) Close() error               { return nil }

// fakeStatement returns canned results after an optional delay
type fakeStatement struct {
	conn   *fakeConn
	delay  time.Duration
	rs     ResultSet
	count  int
	result bool
	err    error

	// onCall runs inside the driver call, while the connection is held
	onCall func(ctx context.Context)

	calls atomic.Int32

	mu       sync.Mutex
	lastKeys KeyRequest
}

func (s *fakeStatement) Connection() Connection {
	if s.conn == nil {
		return nil
	}
	return s.conn
}

func (s *fakeStatement) call(ctx context.Context, keys KeyRequest) error {
	s.calls.Add(1)
	if s.conn != nil {
		s.conn.enter()
		defer s.conn.exit()
	}

	s.mu.Lock()
	s.lastKeys = keys
	s.mu.Unlock()

	if s.onCall != nil {
		s.onCall(ctx)
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.err
}

func (s *fakeStatement) ExecuteQuery(ctx context.Context, sql string) (ResultSet, error) {
	if err := s.call(ctx, NoKeys()); err != nil {
		return nil, err
	}
	return s.rs, nil
}

func (s *fakeStatement) ExecuteUpdate(ctx context.Context, sql string, keys KeyRequest) (int, error) {
	if err := s.call(ctx, keys); err != nil {
		return 0, err
	}
	return s.count, nil
}

func (s *fakeStatement) Execute(ctx context.Context, sql string, keys KeyRequest) (bool, error) {
	if err := s.call(ctx, keys); err != nil {
		return false, err
	}
	return s.result, nil
}

func (s *fakeStatement) keys() KeyRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastKeys
}
