package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/mobilectl/mobilectl/internal/devices"
	"github.com/mobilectl/mobilectl/internal/msg"
)

// ErrProcessSpawn is matched by ProcessSpawnError via errors.Is.
var ErrProcessSpawn = errors.New(msg.ProcessSpawnFailed)

// ProcessSpawnError is recorded in a Result when the test process could not be started.
type ProcessSpawnError struct {
	DeviceID string
	Err      error
}

func (e *ProcessSpawnError) Error() string {
	return fmt.Sprintf("%s for device %q: %v", msg.ProcessSpawnFailed, e.DeviceID, e.Err)
}

func (e *ProcessSpawnError) Unwrap() []error {
	return []error{ErrProcessSpawn, e.Err}
}

// Result is the outcome of the test process of a single device.
type Result struct {
	DeviceID   string           `json:"device_id"`
	DeviceName string           `json:"device_name"`
	Platform   devices.Platform `json:"platform,omitempty"`
	Success    bool             `json:"success"`
	ExitCode   int              `json:"exit_code"`
	StartTime  time.Time        `json:"start_time"`
	Duration   time.Duration    `json:"duration"`
	Stdout     string           `json:"stdout"`
	Stderr     string           `json:"stderr"`
	// Attempts is the number of tries the process reported, 1 unless its result file says otherwise.
	Attempts int `json:"attempts"`
	// Error describes why the device failed, if it did.
	Error string `json:"error,omitempty"`
	// Details is the free form payload the process reported through its result file.
	Details map[string]any `json:"details,omitempty"`

	// Err is the typed cause of Error, if any.
	Err error `json:"-"`
}

// Summary aggregates the results of a run. Results are in input order.
type Summary struct {
	RunID      string        `json:"run_id"`
	TotalTests int           `json:"total_tests"`
	Passed     int           `json:"passed"`
	Failed     int           `json:"failed"`
	Results    []Result      `json:"results"`
	Duration   time.Duration `json:"duration"`
	StartTime  time.Time     `json:"start_time"`
	EndTime    time.Time     `json:"end_time"`
}

// ExitCode returns the process exit code representing the run: 1 if any device failed, otherwise 0.
func (s Summary) ExitCode() int {
	if s.Failed > 0 {
		return 1
	}
	return 0
}

// Successful reports whether no device failed.
func (s Summary) Successful() bool {
	return s.Failed == 0
}

func summarize(runID string, start, end time.Time, results []Result) Summary {
	s := Summary{
		RunID:      runID,
		TotalTests: len(results),
		Results:    results,
		Duration:   end.Sub(start),
		StartTime:  start,
		EndTime:    end,
	}
	for _, r := range results {
		if r.Success {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	return s
}
