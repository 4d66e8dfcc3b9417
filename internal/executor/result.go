package executor

import (
	"fmt"
	"strings"
	"time"
)

// UnitReport describes how one physical unit of a logical call ended
type UnitReport struct {
	// DataSource identifies which shard the unit ran against
	DataSource string

	// SQL is the physical statement text
	SQL string

	// EventID links the report to the unit's lifecycle events
	EventID string

	// Data holds the unit's result when the caller attached one (nil otherwise)
	Data interface{}

	// Error contains the driver failure, nil if the unit succeeded
	Error error

	// Finished is false when no after-execute event was seen
	Finished bool

	// Duration is the time between the unit's before and after events
	Duration time.Duration
}

// CountSuccessful returns the number of finished reports without error
func CountSuccessful(reports []UnitReport) int {
	count := 0
	for _, r := range reports {
		if r.Finished && r.Error == nil {
			count++
		}
	}
	return count
}

// CountFailed returns the number of reports with an error
func CountFailed(reports []UnitReport) int {
	count := 0
	for _, r := range reports {
		if r.Error != nil {
			count++
		}
	}
	return count
}

// FilterFailed returns only the failed reports
func FilterFailed(reports []UnitReport) []UnitReport {
	filtered := make([]UnitReport, 0, len(reports))
	for _, r := range reports {
		if r.Error != nil {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// GroupByDataSource groups reports by shard name
func GroupByDataSource(reports []UnitReport) map[string][]UnitReport {
	grouped := make(map[string][]UnitReport)
	for _, r := range reports {
		grouped[r.DataSource] = append(grouped[r.DataSource], r)
	}
	return grouped
}

// AverageDuration calculates the average duration of all reports
func AverageDuration(reports []UnitReport) time.Duration {
	if len(reports) == 0 {
		return 0
	}

	var total time.Duration
	for _, r := range reports {
		total += r.Duration
	}

	return total / time.Duration(len(reports))
}

// MaxDuration returns the maximum duration among all reports
func MaxDuration(reports []UnitReport) time.Duration {
	if len(reports) == 0 {
		return 0
	}

	max := reports[0].Duration
	for _, r := range reports {
		if r.Duration > max {
			max = r.Duration
		}
	}
	return max
}

// MinDuration returns the minimum duration among all reports
func MinDuration(reports []UnitReport) time.Duration {
	if len(reports) == 0 {
		return 0
	}

	min := reports[0].Duration
	for _, r := range reports {
		if r.Duration < min {
			min = r.Duration
		}
	}
	return min
}

// GetErrors extracts all errors from reports
func GetErrors(reports []UnitReport) []error {
	errs := make([]error, 0)
	for _, r := range reports {
		if r.Error != nil {
			errs = append(errs, r.Error)
		}
	}
	return errs
}

// Summary provides a summary of a logical call
type Summary struct {
	Total       int
	Successful  int
	Failed      int
	AvgDuration time.Duration
	MaxDuration time.Duration
	MinDuration time.Duration
}

// Summarize creates a summary of the reports
func Summarize(reports []UnitReport) Summary {
	return Summary{
		Total:       len(reports),
		Successful:  CountSuccessful(reports),
		Failed:      CountFailed(reports),
		AvgDuration: AverageDuration(reports),
		MaxDuration: MaxDuration(reports),
		MinDuration: MinDuration(reports),
	}
}

// String returns a human-readable string representation of the summary
func (s Summary) String() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Total: %d, ", s.Total))
	sb.WriteString(fmt.Sprintf("Successful: %d, ", s.Successful))
	sb.WriteString(fmt.Sprintf("Failed: %d", s.Failed))

	if s.Total > 0 {
		sb.WriteString(fmt.Sprintf(", Avg: %s", s.AvgDuration.Round(time.Millisecond)))
		sb.WriteString(fmt.Sprintf(", Max: %s", s.MaxDuration.Round(time.Millisecond)))
		sb.WriteString(fmt.Sprintf(", Min: %s", s.MinDuration.Round(time.Millisecond)))
	}

	return sb.String()
}

// HasErrors returns true if any report contains an error
func HasErrors(reports []UnitReport) bool {
	for _, r := range reports {
		if r.Error != nil {
			return true
		}
	}
	return false
}

// SuccessRate returns the success rate as a percentage (0.0 to 100.0)
func SuccessRate(reports []UnitReport) float64 {
	if len(reports) == 0 {
		return 0.0
	}
	return float64(CountSuccessful(reports)) / float64(len(reports)) * 100.0
}
