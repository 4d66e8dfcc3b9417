package statement

import "fmt"

// Unit is one physical statement to run: a statement handle, the SQL text for
// it, and the name of the data source (shard) it belongs to.
type Unit struct {
	dataSource string
	sql        string
	stmt       Statement
}

// NewUnit creates a unit
func NewUnit(dataSource, sql string, stmt Statement) Unit {
	return Unit{
		dataSource: dataSource,
		sql:        sql,
		stmt:       stmt,
	}
}

// DataSource returns the shard name
func (u Unit) DataSource() string {
	return u.dataSource
}

// SQL returns the physical SQL text
func (u Unit) SQL() string {
	return u.sql
}

// Statement returns the statement handle
func (u Unit) Statement() Statement {
	return u.stmt
}

// Connection returns the connection of the unit's statement
func (u Unit) Connection() Connection {
	return u.stmt.Connection()
}

func (u Unit) validate() error {
	if u.stmt == nil {
		return fmt.Errorf("unit for data source %q has no statement", u.dataSource)
	}
	if u.sql == "" {
		return fmt.Errorf("unit for data source %q has no SQL", u.dataSource)
	}
	return nil
}
