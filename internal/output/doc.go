// Package output renders shardexec results as tables, JSON or YAML.
//
// Two kinds of results are printed: unit reports (one line per physical
// statement, with its status and duration) and row sets (the rows each query
// unit returned).
//
//	formatter := output.NewFormatter(output.FormatTable, output.WithNoColor(true))
//	formatter.FormatReports(os.Stdout, collector.Reports())
//	formatter.FormatRows(os.Stdout, sets)
//
// Row sets that share their columns are printed as one table with a leading
// SHARD column. JSON and YAML print byte slices as strings and times in
// RFC 3339.
//
// Colors are used only when writing to a terminal and can be turned off with
// WithNoColor.
package output
