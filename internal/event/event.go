package event

import (
	"fmt"
	"time"
)

// ExecutionType is the lifecycle phase an event reports
type ExecutionType int

const (
	// BeforeExecute is posted for every unit before any unit runs
	BeforeExecute ExecutionType = iota
	// ExecuteSuccess is posted after a unit's driver call returned normally
	ExecuteSuccess
	// ExecuteFailure is posted after a unit's driver call failed
	ExecuteFailure
)

func (t ExecutionType) String() string {
	switch t {
	case BeforeExecute:
		return "BEFORE_EXECUTE"
	case ExecuteSuccess:
		return "EXECUTE_SUCCESS"
	case ExecuteFailure:
		return "EXECUTE_FAILURE"
	default:
		return fmt.Sprintf("ExecutionType(%d)", int(t))
	}
}

// SQLType classifies the statement a unit runs
type SQLType string

const (
	// DQL is a query returning rows
	DQL SQLType = "DQL"
	// DML is a statement returning an update count
	DML SQLType = "DML"
	// Unknown is used when the call shape does not tell
	Unknown SQLType = "UNKNOWN"
)

// ExecutionEvent records one lifecycle phase of one physical unit.
// Events are values; listeners must not expect to mutate them.
type ExecutionEvent struct {
	// ID is shared by the before and after events of one unit
	ID string

	// Sequence is assigned by the bus and grows monotonically per bus
	Sequence uint64

	// DataSource names the shard the unit runs against
	DataSource string

	// SQL is the physical statement text
	SQL string

	// SQLType is derived from the call shape
	SQLType SQLType

	// Type is the lifecycle phase
	Type ExecutionType

	// Err is the failure cause, set only for ExecuteFailure
	Err error

	// Time is when the event was created
	Time time.Time
}

// Unit is what the postman needs to know about a physical unit
type Unit interface {
	DataSource() string
	SQL() string
}
