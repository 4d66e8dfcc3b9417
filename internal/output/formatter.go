package output

import (
	"fmt"
	"io"
	"time"

	"github.com/aryankumar/shardexec/internal/executor"
)

// Format represents the output format type
type Format string

const (
	// FormatTable outputs data as a borderless table
	FormatTable Format = "table"
	// FormatJSON outputs data in JSON format
	FormatJSON Format = "json"
	// FormatYAML outputs data in YAML format
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name. Empty means table.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON, FormatYAML:
		return Format(name), nil
	default:
		return "", fmt.Errorf("unsupported output format: %s (supported: table, json, yaml)", name)
	}
}

// RowSet is the drained result of one query unit
type RowSet struct {
	// DataSource is the shard the rows came from
	DataSource string
	// Columns are the column names
	Columns []string
	// Rows holds the raw driver values
	Rows [][]any
	// Suppressed marks a unit whose failure was suppressed; it has no rows
	Suppressed bool
}

// Formatter defines the interface for output formatting
type Formatter interface {
	// Format outputs a single data item to the writer
	Format(w io.Writer, data interface{}) error

	// FormatReports outputs one line per executed unit
	FormatReports(w io.Writer, reports []executor.UnitReport) error

	// FormatRows outputs the rows returned by each query unit
	FormatRows(w io.Writer, sets []RowSet) error
}

// Option is a functional option for configuring formatters
type Option func(*Options)

// Options holds configuration for formatters
type Options struct {
	// NoColor disables color output
	NoColor bool

	// NoHeaders disables table headers
	NoHeaders bool

	// Wide adds the SQL column to unit reports
	Wide bool
}

// WithNoColor disables color output
func WithNoColor(noColor bool) Option {
	return func(o *Options) {
		o.NoColor = noColor
	}
}

// WithNoHeaders disables table headers
func WithNoHeaders(noHeaders bool) Option {
	return func(o *Options) {
		o.NoHeaders = noHeaders
	}
}

// WithWide enables wide output
func WithWide(wide bool) Option {
	return func(o *Options) {
		o.Wide = wide
	}
}

// NewFormatter creates a new formatter based on the specified format
func NewFormatter(format Format, opts ...Option) Formatter {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	switch format {
	case FormatJSON:
		return NewJSONFormatter(options)
	case FormatYAML:
		return NewYAMLFormatter(options)
	case FormatTable:
		fallthrough
	default:
		return NewTableFormatter(options)
	}
}

// ReportRecords converts reports into the structure used by JSON and YAML.
// Callers that wrap reports in a larger document use it directly.
func ReportRecords(reports []executor.UnitReport) []map[string]interface{} {
	records := make([]map[string]interface{}, len(reports))
	for i, r := range reports {
		item := map[string]interface{}{
			"shard":    r.DataSource,
			"sql":      r.SQL,
			"duration": r.Duration.String(),
			"status":   reportStatus(r),
		}
		if r.Error != nil {
			item["error"] = r.Error.Error()
		}
		if r.Data != nil {
			item["data"] = r.Data
		}
		records[i] = item
	}
	return records
}

// rowSetRecords converts row sets into the structure used by JSON and YAML
func rowSetRecords(sets []RowSet) []map[string]interface{} {
	records := make([]map[string]interface{}, len(sets))
	for i, set := range sets {
		rows := make([]map[string]interface{}, len(set.Rows))
		for j, row := range set.Rows {
			rec := make(map[string]interface{}, len(set.Columns))
			for k, col := range set.Columns {
				if k < len(row) {
					rec[col] = plainValue(row[k])
				}
			}
			rows[j] = rec
		}

		item := map[string]interface{}{
			"shard":   set.DataSource,
			"columns": set.Columns,
			"rows":    rows,
		}
		if set.Suppressed {
			item["suppressed"] = true
		}
		records[i] = item
	}
	return records
}

func reportStatus(r executor.UnitReport) string {
	switch {
	case r.Error != nil:
		return "failed"
	case !r.Finished:
		return "pending"
	default:
		return "success"
	}
}

// plainValue turns driver values into something every encoder prints as text
func plainValue(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	default:
		return x
	}
}

// cellText renders a driver value for a table cell
func cellText(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprint(plainValue(v))
}
