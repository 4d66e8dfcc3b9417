package statement

//go:generate mockgen -source=statement.go -destination=mock_statement/mock_statement.go

import (
	"context"
	"fmt"
)

// Connection is a physical connection. Its dynamic value is the identity used
// for per-connection mutual exclusion, so implementations must be comparable
// (pointer types are).
type Connection interface {
	// Name identifies the connection in logs
	Name() string
}

// ResultSet is the row iterator returned by a query. *sql.Rows satisfies it.
type ResultSet interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// Statement is a physical statement bound to one Connection.
// It is not safe for concurrent use; the executor serializes calls that share
// a connection.
type Statement interface {
	// Connection returns the connection the statement runs on
	Connection() Connection

	// ExecuteQuery runs a query and returns its rows
	ExecuteQuery(ctx context.Context, sql string) (ResultSet, error)

	// ExecuteUpdate runs a DML statement and returns the affected row count
	ExecuteUpdate(ctx context.Context, sql string, keys KeyRequest) (int, error)

	// Execute runs any statement and reports whether it produced a result set
	Execute(ctx context.Context, sql string, keys KeyRequest) (bool, error)
}

// KeyMode selects how generated keys are requested from the driver
type KeyMode int

const (
	// KeysNone requests nothing
	KeysNone KeyMode = iota
	// KeysAutoGenerated passes an auto-generated-keys flag
	KeysAutoGenerated
	// KeysColumnIndexes names key columns by index
	KeysColumnIndexes
	// KeysColumnNames names key columns by name
	KeysColumnNames
)

// Auto-generated-keys flags
const (
	ReturnGeneratedKeys = 1
	NoGeneratedKeys     = 2
)

// KeyRequest selects one of the four driver call shapes of ExecuteUpdate and
// Execute. The zero value is NoKeys().
type KeyRequest struct {
	Mode              KeyMode
	AutoGeneratedKeys int
	ColumnIndexes     []int
	ColumnNames       []string
}

// NoKeys is the plain call shape
func NoKeys() KeyRequest {
	return KeyRequest{Mode: KeysNone}
}

// AutoGeneratedKeys passes flag (ReturnGeneratedKeys or NoGeneratedKeys)
func AutoGeneratedKeys(flag int) KeyRequest {
	return KeyRequest{Mode: KeysAutoGenerated, AutoGeneratedKeys: flag}
}

// ColumnIndexes requests the keys of the given 1-based columns
func ColumnIndexes(indexes ...int) KeyRequest {
	return KeyRequest{Mode: KeysColumnIndexes, ColumnIndexes: indexes}
}

// ColumnNames requests the keys of the named columns
func ColumnNames(names ...string) KeyRequest {
	return KeyRequest{Mode: KeysColumnNames, ColumnNames: names}
}

// WantsKeys reports whether the caller asked for generated keys at all
func (k KeyRequest) WantsKeys() bool {
	switch k.Mode {
	case KeysAutoGenerated:
		return k.AutoGeneratedKeys == ReturnGeneratedKeys
	case KeysColumnIndexes:
		return len(k.ColumnIndexes) > 0
	case KeysColumnNames:
		return len(k.ColumnNames) > 0
	default:
		return false
	}
}

func (k KeyRequest) String() string {
	switch k.Mode {
	case KeysNone:
		return "none"
	case KeysAutoGenerated:
		return fmt.Sprintf("autoGeneratedKeys=%d", k.AutoGeneratedKeys)
	case KeysColumnIndexes:
		return fmt.Sprintf("columnIndexes=%v", k.ColumnIndexes)
	case KeysColumnNames:
		return fmt.Sprintf("columnNames=%v", k.ColumnNames)
	default:
		return fmt.Sprintf("KeyMode(%d)", int(k.Mode))
	}
}
