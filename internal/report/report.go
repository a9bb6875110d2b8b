package report

import "time"

// TestResult represents the outcome of a test run on a single device.
type TestResult struct {
	RunID      string
	DeviceID   string
	DeviceName string
	Platform   string
	Passed     bool
	ExitCode   int
	Duration   time.Duration
	StartTime  time.Time
	EndTime    time.Time
	Attempts   int
	Error      string
	// Stdout and Stderr hold the captured output of the test process.
	Stdout string
	Stderr string
}

// Reporter is the interface for test result reporting.
type Reporter interface {
	// Add adds the TestResult to the reporter. TestResults added this way can then be rendered out by calling Render().
	Add(t TestResult)
	// Render renders the test results. The destination depends on the implementation.
	Render()
	// Reset resets the state of the reporter (e.g. remove any previously reported TestResults).
	Reset()
}

// Span returns the earliest start and the latest end time of results.
func Span(results []TestResult) (start, end time.Time) {
	for _, r := range results {
		if !r.StartTime.IsZero() && (start.IsZero() || r.StartTime.Before(start)) {
			start = r.StartTime
		}
		if r.EndTime.After(end) {
			end = r.EndTime
		}
	}
	return start, end
}

// Failed returns the number of results that did not pass.
func Failed(results []TestResult) int {
	n := 0
	for _, r := range results {
		if !r.Passed {
			n++
		}
	}
	return n
}
