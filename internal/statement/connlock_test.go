package statement

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConnLocksExcludeSameConnection(t *testing.T) {
	locks := NewConnLocks()
	conn := newFakeConn("c")

	var active, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock(conn)
			defer unlock()

			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			active.Add(-1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), peak.Load())
	assert.Equal(t, 0, locks.Len())
}

func TestConnLocksDistinctConnections(t *testing.T) {
	locks := NewConnLocks()

	unlockA := locks.Lock(newFakeConn("a"))
	unlockB := locks.Lock(newFakeConn("b"))
	assert.Equal(t, 2, locks.Len())

	unlockA()
	unlockA()
	assert.Equal(t, 1, locks.Len())

	unlockB()
	assert.Equal(t, 0, locks.Len())
}

func TestConnLocksNilConnection(t *testing.T) {
	locks := NewConnLocks()
	unlock := locks.Lock(nil)
	assert.Equal(t, 0, locks.Len())
	assert.NotPanics(t, unlock)
}
