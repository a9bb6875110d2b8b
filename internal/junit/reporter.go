package junit

import (
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mobilectl/mobilectl/internal/report"
)

// Reporter writes the results of a run as a JUnit report, with one test case per device.
type Reporter struct {
	TestResults []report.TestResult
	Filename    string
	lock        sync.Mutex
}

// Add adds the test result to the summary.
func (r *Reporter) Add(t report.TestResult) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.TestResults = append(r.TestResults, t)
}

// Render writes the report to Filename.
func (r *Reporter) Render() {
	r.lock.Lock()
	defer r.lock.Unlock()

	b, err := xml.MarshalIndent(r.suites(), "", "  ")
	if err != nil {
		log.Err(err).Msg("Failed to create junit report.")
		return
	}

	f, err := os.Create(r.Filename)
	if err != nil {
		log.Err(err).Msg("Failed to render junit report.")
		return
	}
	defer f.Close()

	_, _ = f.Write(b)
	_, _ = fmt.Fprint(f, "\n")
	log.Info().Str("file", r.Filename).Msg("JUnit report saved.")
}

func (r *Reporter) suites() TestSuites {
	start, end := report.Span(r.TestResults)
	failed := report.Failed(r.TestResults)

	suite := TestSuite{
		Name:     "mobilectl",
		Tests:    len(r.TestResults),
		Failures: failed,
		Time:     seconds(end.Sub(start)),
	}
	if !start.IsZero() {
		suite.Timestamp = start.UTC().Format(time.RFC3339)
	}
	if len(r.TestResults) > 0 && r.TestResults[0].RunID != "" {
		suite.Name = "mobilectl run " + r.TestResults[0].RunID
		suite.Properties = append(suite.Properties, Property{Name: "run_id", Value: r.TestResults[0].RunID})
	}

	for _, v := range r.TestResults {
		suite.TestCases = append(suite.TestCases, testCase(v))
	}

	return TestSuites{
		Tests:      suite.Tests,
		Failures:   suite.Failures,
		Time:       suite.Time,
		TestSuites: []TestSuite{suite},
	}
}

func testCase(v report.TestResult) TestCase {
	tc := TestCase{
		Name:      v.DeviceName,
		ClassName: v.DeviceID,
		Time:      seconds(v.Duration),
		Status:    "passed",
	}
	if v.Passed {
		return tc
	}

	tc.Status = "failed"
	msg := v.Error
	if msg == "" {
		msg = "exit code " + strconv.Itoa(v.ExitCode)
	}
	tc.Failure = &Failure{
		Message: msg,
		Type:    "exit code " + strconv.Itoa(v.ExitCode),
	}
	if v.Attempts > 1 {
		tc.Failure.Text = fmt.Sprintf("failed after %d attempts", v.Attempts)
	}
	return tc
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

// Reset resets the reporter to its initial state. This action will delete all test results.
func (r *Reporter) Reset() {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.TestResults = make([]report.TestResult, 0)
}
