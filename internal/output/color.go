package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/aryankumar/shardexec/internal/executor"
	"github.com/aryankumar/shardexec/internal/util"
)

type sprintf func(format string, a ...interface{}) string

// ColorScheme decorates shard names, unit states and cell values
type ColorScheme struct {
	Shard    sprintf
	Success  sprintf
	Error    sprintf
	Warning  sprintf
	Header   sprintf
	Duration sprintf

	// Null renders SQL NULL cells, so they stand apart from the string "NULL"
	Null sprintf

	// Disabled is true when every function above is plain fmt.Sprintf
	Disabled bool
}

// NewColorScheme picks colors for w. Output that is not a terminal, or
// noColor, gets a plain scheme.
func NewColorScheme(w io.Writer, noColor bool) *ColorScheme {
	if noColor || !isTTY(w) {
		return &ColorScheme{
			Shard:    fmt.Sprintf,
			Success:  fmt.Sprintf,
			Error:    fmt.Sprintf,
			Warning:  fmt.Sprintf,
			Header:   fmt.Sprintf,
			Duration: fmt.Sprintf,
			Null:     fmt.Sprintf,
			Disabled: true,
		}
	}

	return &ColorScheme{
		Shard:    color.New(color.FgCyan, color.Bold).Sprintf,
		Success:  color.New(color.FgGreen).Sprintf,
		Error:    color.New(color.FgRed, color.Bold).Sprintf,
		Warning:  color.New(color.FgYellow).Sprintf,
		Header:   color.New(color.FgWhite, color.Bold).Sprintf,
		Duration: color.New(color.FgBlue).Sprintf,
		Null:     color.New(color.Faint, color.Italic).Sprintf,
	}
}

func isTTY(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// ReportColor returns the color for a unit's state: failed, still pending,
// or finished
func (cs *ColorScheme) ReportColor(r executor.UnitReport) sprintf {
	switch {
	case r.Error != nil:
		return cs.Error
	case !r.Finished:
		return cs.Warning
	default:
		return cs.Success
	}
}

// Cell renders one query value, truncated to max runes
func (cs *ColorScheme) Cell(v any, max int) string {
	if v == nil {
		return cs.Null("%s", "NULL")
	}
	return util.Truncate(cellText(v), max)
}
