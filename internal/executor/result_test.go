package executor

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestCountSuccessful(t *testing.T) {
	tests := []struct {
		name     string
		reports  []UnitReport
		expected int
	}{
		{
			name:     "empty reports",
			reports:  []UnitReport{},
			expected: 0,
		},
		{
			name: "all successful",
			reports: []UnitReport{
				{DataSource: "ds_0", Finished: true},
				{DataSource: "ds_1", Finished: true},
			},
			expected: 2,
		},
		{
			name: "unfinished does not count",
			reports: []UnitReport{
				{DataSource: "ds_0", Finished: true},
				{DataSource: "ds_1", Finished: false},
			},
			expected: 1,
		},
		{
			name: "mixed",
			reports: []UnitReport{
				{DataSource: "ds_0", Finished: true},
				{DataSource: "ds_1", Finished: true, Error: errors.New("error")},
				{DataSource: "ds_2", Finished: true},
			},
			expected: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CountSuccessful(tt.reports)
			if got != tt.expected {
				t.Errorf("CountSuccessful() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestCountFailedAndFilter(t *testing.T) {
	reports := []UnitReport{
		{DataSource: "ds_0", Finished: true},
		{DataSource: "ds_1", Finished: true, Error: errors.New("error1")},
		{DataSource: "ds_1", Finished: true, Error: errors.New("error2")},
	}

	if got := CountFailed(reports); got != 2 {
		t.Errorf("CountFailed() = %d, want 2", got)
	}

	failed := FilterFailed(reports)
	if len(failed) != 2 {
		t.Fatalf("FilterFailed() returned %d reports, want 2", len(failed))
	}

	if errs := GetErrors(reports); len(errs) != 2 {
		t.Errorf("GetErrors() returned %d errors, want 2", len(errs))
	}

	grouped := GroupByDataSource(reports)
	if len(grouped["ds_1"]) != 2 || len(grouped["ds_0"]) != 1 {
		t.Errorf("unexpected grouping: %v", grouped)
	}

	if !HasErrors(reports) {
		t.Error("HasErrors() = false, want true")
	}
	if HasErrors(reports[:1]) {
		t.Error("HasErrors() = true for successful reports")
	}
}

func TestDurations(t *testing.T) {
	tests := []struct {
		name    string
		reports []UnitReport
		avg     time.Duration
		max     time.Duration
		min     time.Duration
	}{
		{
			name:    "empty",
			reports: nil,
		},
		{
			name: "three reports",
			reports: []UnitReport{
				{Duration: 100 * time.Millisecond},
				{Duration: 200 * time.Millisecond},
				{Duration: 300 * time.Millisecond},
			},
			avg: 200 * time.Millisecond,
			max: 300 * time.Millisecond,
			min: 100 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AverageDuration(tt.reports); got != tt.avg {
				t.Errorf("AverageDuration() = %v, want %v", got, tt.avg)
			}
			if got := MaxDuration(tt.reports); got != tt.max {
				t.Errorf("MaxDuration() = %v, want %v", got, tt.max)
			}
			if got := MinDuration(tt.reports); got != tt.min {
				t.Errorf("MinDuration() = %v, want %v", got, tt.min)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	reports := []UnitReport{
		{DataSource: "ds_0", Finished: true, Duration: 100 * time.Millisecond},
		{DataSource: "ds_1", Finished: true, Error: errors.New("error"), Duration: 300 * time.Millisecond},
	}

	summary := Summarize(reports)

	if summary.Total != 2 || summary.Successful != 1 || summary.Failed != 1 {
		t.Errorf("unexpected summary counts: %+v", summary)
	}
	if summary.AvgDuration != 200*time.Millisecond {
		t.Errorf("AvgDuration = %v, want 200ms", summary.AvgDuration)
	}

	str := summary.String()
	for _, want := range []string{"Total: 2", "Successful: 1", "Failed: 1", "Avg: 200ms"} {
		if !strings.Contains(str, want) {
			t.Errorf("summary string %q missing %q", str, want)
		}
	}

	empty := Summarize(nil).String()
	if strings.Contains(empty, "Avg") {
		t.Errorf("empty summary should not contain durations, got %q", empty)
	}
}

func TestSuccessRate(t *testing.T) {
	if got := SuccessRate(nil); got != 0.0 {
		t.Errorf("SuccessRate(nil) = %v, want 0", got)
	}

	reports := []UnitReport{
		{Finished: true},
		{Finished: true, Error: errors.New("error")},
		{Finished: true},
		{Finished: true},
	}
	if got := SuccessRate(reports); got != 75.0 {
		t.Errorf("SuccessRate() = %v, want 75", got)
	}
}
