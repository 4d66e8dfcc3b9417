package event

import (
	"time"

	"github.com/google/uuid"
)

// Postman publishes the lifecycle events of the units of one logical call.
// Each unit gets a fresh event id at construction; its before and after
// events carry the same id.
type Postman struct {
	bus     *Bus
	sqlType SQLType
	units   []Unit
	ids     []string
	now     func() time.Time
}

// NewPostman creates a postman for units. A nil bus means Default().
func NewPostman[U Unit](bus *Bus, sqlType SQLType, units []U) *Postman {
	if bus == nil {
		bus = Default()
	}

	p := &Postman{
		bus:     bus,
		sqlType: sqlType,
		units:   make([]Unit, len(units)),
		ids:     make([]string, len(units)),
		now:     time.Now,
	}
	for i, u := range units {
		p.units[i] = u
		p.ids[i] = uuid.NewString()
	}
	return p
}

// EventID returns the event id of the i-th unit
func (p *Postman) EventID(i int) string {
	return p.ids[i]
}

// PostExecutionEvents posts one BeforeExecute event per unit, in unit order.
func (p *Postman) PostExecutionEvents() {
	for i := range p.units {
		p.bus.Publish(p.newEvent(i, BeforeExecute, nil))
	}
}

// PostExecutionEventsAfterExecution posts the success event of the i-th unit.
func (p *Postman) PostExecutionEventsAfterExecution(i int) {
	p.bus.Publish(p.newEvent(i, ExecuteSuccess, nil))
}

// PostExecutionFailure posts the failure event of the i-th unit with its cause.
func (p *Postman) PostExecutionFailure(i int, cause error) {
	p.bus.Publish(p.newEvent(i, ExecuteFailure, cause))
}

func (p *Postman) newEvent(i int, typ ExecutionType, cause error) ExecutionEvent {
	u := p.units[i]
	return ExecutionEvent{
		ID:         p.ids[i],
		DataSource: u.DataSource(),
		SQL:        u.SQL(),
		SQLType:    p.sqlType,
		Type:       typ,
		Err:        cause,
		Time:       p.now(),
	}
}
