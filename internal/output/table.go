package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/aryankumar/shardexec/internal/executor"
	"github.com/aryankumar/shardexec/internal/util"
)

const maxCellWidth = 60

// TableFormatter formats output as a borderless, tab-separated table
type TableFormatter struct {
	options *Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(opts *Options) *TableFormatter {
	if opts == nil {
		opts = &Options{}
	}
	return &TableFormatter{
		options: opts,
	}
}

// Format outputs a single data item as a table
func (f *TableFormatter) Format(w io.Writer, data interface{}) error {
	table := f.createTable(w)

	switch v := data.(type) {
	case map[string]interface{}:
		return f.formatMap(table, v)
	case []map[string]interface{}:
		return f.formatMapSlice(table, v)
	default:
		fmt.Fprintln(w, v)
		return nil
	}
}

// FormatReports outputs one row per unit followed by a summary line
func (f *TableFormatter) FormatReports(w io.Writer, reports []executor.UnitReport) error {
	if len(reports) == 0 {
		fmt.Fprintln(w, "No units executed")
		return nil
	}

	colors := NewColorScheme(w, f.options.NoColor)
	table := f.createTable(w)

	headers := []string{"SHARD", "STATUS", "DURATION"}
	if f.options.Wide {
		headers = append(headers, "SQL")
	}
	headers = append(headers, "ERROR")
	f.setHeader(table, headers, colors)

	for _, r := range reports {
		table.Append(f.reportRow(r, colors))
	}
	table.Render()

	f.printSummary(w, reports, colors)
	return nil
}

func (f *TableFormatter) reportRow(r executor.UnitReport, colors *ColorScheme) []string {
	status := reportStatus(r)
	row := []string{
		colors.Shard("%s", r.DataSource),
		colors.ReportColor(r)("%s", status),
		colors.Duration("%s", r.Duration.Round(time.Microsecond)),
	}

	if f.options.Wide {
		row = append(row, util.Truncate(r.SQL, maxCellWidth))
	}

	errText := ""
	if r.Error != nil {
		errText = colors.Error("%s", util.Truncate(r.Error.Error(), maxCellWidth))
	}
	return append(row, errText)
}

// FormatRows outputs query rows. Sets that share their columns are merged
// into one table with a leading SHARD column; otherwise each set gets its
// own table.
func (f *TableFormatter) FormatRows(w io.Writer, sets []RowSet) error {
	if len(sets) == 0 {
		fmt.Fprintln(w, "No results")
		return nil
	}

	colors := NewColorScheme(w, f.options.NoColor)

	if columns, ok := sharedColumns(sets); ok {
		table := f.createTable(w)
		f.setHeader(table, append([]string{"SHARD"}, upper(columns)...), colors)
		total := 0
		for _, set := range sets {
			for _, row := range set.Rows {
				table.Append(append([]string{colors.Shard("%s", set.DataSource)}, cells(row, colors)...))
				total++
			}
		}
		table.Render()
		f.printRowSummary(w, sets, total, colors)
		return nil
	}

	total := 0
	for i, set := range sets {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "==> %s <==\n", colors.Shard("%s", set.DataSource))
		if set.Suppressed {
			fmt.Fprintln(w, colors.Warning("%s", "(failed, suppressed)"))
			continue
		}

		table := f.createTable(w)
		f.setHeader(table, upper(set.Columns), colors)
		for _, row := range set.Rows {
			table.Append(cells(row, colors))
		}
		table.Render()
		total += len(set.Rows)
	}
	f.printRowSummary(w, sets, total, colors)
	return nil
}

// sharedColumns returns the column list when every non-suppressed set has
// the same one
func sharedColumns(sets []RowSet) ([]string, bool) {
	var columns []string
	found := false
	for _, set := range sets {
		if set.Suppressed {
			continue
		}
		if !found {
			columns, found = set.Columns, true
			continue
		}
		if strings.Join(columns, "\x00") != strings.Join(set.Columns, "\x00") {
			return nil, false
		}
	}
	return columns, found
}

func cells(row []any, colors *ColorScheme) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = colors.Cell(v, maxCellWidth)
	}
	return out
}

func upper(columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = strings.ToUpper(c)
	}
	return out
}

func (f *TableFormatter) setHeader(table *tablewriter.Table, headers []string, colors *ColorScheme) {
	if f.options.NoHeaders {
		return
	}
	if colors.Disabled {
		table.SetHeader(headers)
		return
	}
	colored := make([]string, len(headers))
	for i, h := range headers {
		colored[i] = colors.Header("%s", h)
	}
	table.SetHeader(colored)
}

// formatMap formats a map as a two-column table (key-value pairs)
func (f *TableFormatter) formatMap(table *tablewriter.Table, data map[string]interface{}) error {
	if !f.options.NoHeaders {
		table.SetHeader([]string{"KEY", "VALUE"})
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		table.Append([]string{k, fmt.Sprintf("%v", data[k])})
	}

	table.Render()
	return nil
}

// formatMapSlice formats a slice of maps as a table with sorted columns
func (f *TableFormatter) formatMapSlice(table *tablewriter.Table, data []map[string]interface{}) error {
	if len(data) == 0 {
		return nil
	}

	keys := make([]string, 0, len(data[0]))
	for k := range data[0] {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if !f.options.NoHeaders {
		table.SetHeader(upper(keys))
	}

	for _, item := range data {
		row := make([]string, len(keys))
		for i, k := range keys {
			row[i] = fmt.Sprintf("%v", item[k])
		}
		table.Append(row)
	}

	table.Render()
	return nil
}

// createTable creates a borderless, tab-padded table
func (f *TableFormatter) createTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)

	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)

	return table
}

// printSummary prints a summary of the unit reports
func (f *TableFormatter) printSummary(w io.Writer, reports []executor.UnitReport, colors *ColorScheme) {
	summary := executor.Summarize(reports)

	successText := colors.Success("%d successful", summary.Successful)
	failedText := fmt.Sprintf("%d failed", summary.Failed)
	if summary.Failed > 0 {
		failedText = colors.Error("%s", failedText)
	}
	durationText := colors.Duration("avg=%s max=%s",
		summary.AvgDuration.Round(time.Microsecond),
		summary.MaxDuration.Round(time.Microsecond))

	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Summary: %s, %s, %s\n", successText, failedText, durationText)
}

func (f *TableFormatter) printRowSummary(w io.Writer, sets []RowSet, total int, colors *ColorScheme) {
	suppressed := 0
	for _, set := range sets {
		if set.Suppressed {
			suppressed++
		}
	}

	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "%d row(s) from %d unit(s)", total, len(sets))
	if suppressed > 0 {
		fmt.Fprintf(w, ", %s", colors.Warning("%d suppressed", suppressed))
	}
	fmt.Fprintln(w)
}
