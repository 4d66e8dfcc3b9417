package statement

import "sync"

// ConnLocks maps connection identity to a mutex. Entries are reference
// counted and dropped once no unit holds or waits for them.
type ConnLocks struct {
	mu      sync.Mutex
	entries map[Connection]*connLock
}

type connLock struct {
	mu   sync.Mutex
	refs int
}

// NewConnLocks creates an empty registry
func NewConnLocks() *ConnLocks {
	return &ConnLocks{
		entries: make(map[Connection]*connLock),
	}
}

var defaultConnLocks = NewConnLocks()

// DefaultConnLocks returns the process-wide registry. Executors share it
// unless given their own, so units of different logical calls on the same
// connection also exclude each other.
func DefaultConnLocks() *ConnLocks {
	return defaultConnLocks
}

// Lock blocks until conn is exclusively held and returns the release func.
// A nil conn has no identity and is not locked.
func (l *ConnLocks) Lock(conn Connection) (unlock func()) {
	if conn == nil {
		return func() {}
	}

	l.mu.Lock()
	entry, ok := l.entries[conn]
	if !ok {
		entry = &connLock{}
		l.entries[conn] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			entry.mu.Unlock()

			l.mu.Lock()
			entry.refs--
			if entry.refs == 0 {
				delete(l.entries, conn)
			}
			l.mu.Unlock()
		})
	}
}

// Len returns the number of connections currently held or waited for
func (l *ConnLocks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
