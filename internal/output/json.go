package output

import (
	"encoding/json"
	"io"

	"github.com/aryankumar/shardexec/internal/executor"
)

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	options *Options
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(opts *Options) *JSONFormatter {
	if opts == nil {
		opts = &Options{}
	}
	return &JSONFormatter{
		options: opts,
	}
}

// Format outputs a single data item as JSON
func (f *JSONFormatter) Format(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// FormatReports outputs unit reports as a JSON array
func (f *JSONFormatter) FormatReports(w io.Writer, reports []executor.UnitReport) error {
	return f.Format(w, ReportRecords(reports))
}

// FormatRows outputs row sets as a JSON array, one object per row
func (f *JSONFormatter) FormatRows(w io.Writer, sets []RowSet) error {
	return f.Format(w, rowSetRecords(sets))
}
