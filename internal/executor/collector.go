package executor

import (
	"sort"
	"sync"
	"time"

	"github.com/aryankumar/shardexec/internal/event"
)

// Collector turns lifecycle events into UnitReports.
// Subscribe it to a bus before a logical call and read Reports afterwards.
type Collector struct {
	mu      sync.Mutex
	reports map[string]*collected
}

type collected struct {
	seq    uint64
	report UnitReport
	start  time.Time
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{
		reports: make(map[string]*collected),
	}
}

// OnExecutionEvent implements event.Listener
func (c *Collector) OnExecutionEvent(ev event.ExecutionEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.reports[ev.ID]
	if !ok {
		entry = &collected{
			seq: ev.Sequence,
			report: UnitReport{
				DataSource: ev.DataSource,
				SQL:        ev.SQL,
				EventID:    ev.ID,
			},
			start: ev.Time,
		}
		c.reports[ev.ID] = entry
	}

	switch ev.Type {
	case event.BeforeExecute:
		entry.start = ev.Time
	case event.ExecuteSuccess, event.ExecuteFailure:
		entry.report.Finished = true
		entry.report.Error = ev.Err
		entry.report.Duration = ev.Time.Sub(entry.start)
	}
}

// Reports returns one report per unit, in before-event order
func (c *Collector) Reports() []UnitReport {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := make([]*collected, 0, len(c.reports))
	for _, e := range c.reports {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].seq < entries[j].seq
	})

	reports := make([]UnitReport, len(entries))
	for i, e := range entries {
		reports[i] = e.report
	}
	return reports
}

// Reset forgets all collected events
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports = make(map[string]*collected)
}
