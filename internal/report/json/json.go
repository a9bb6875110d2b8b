package json

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mobilectl/mobilectl/internal/ci"
	mhttp "github.com/mobilectl/mobilectl/internal/http"
	"github.com/mobilectl/mobilectl/internal/jsonio"
	"github.com/mobilectl/mobilectl/internal/report"
)

// Run is the document written by Reporter.
type Run struct {
	RunID      string              `json:"run_id"`
	TotalTests int                 `json:"total_tests"`
	Passed     int                 `json:"passed"`
	Failed     int                 `json:"failed"`
	StartTime  time.Time           `json:"start_time"`
	EndTime    time.Time           `json:"end_time"`
	Duration   float64             `json:"duration_seconds"`
	CI         *ci.CI              `json:"ci,omitempty"`
	Results    []Result            `json:"results"`
}

// Result is the record of a single device within Run.
type Result struct {
	DeviceID   string    `json:"device_id"`
	DeviceName string    `json:"device_name"`
	Platform   string    `json:"platform,omitempty"`
	Passed     bool      `json:"passed"`
	ExitCode   int       `json:"exit_code"`
	Duration   float64   `json:"duration_seconds"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Attempts   int       `json:"attempts,omitempty"`
	Error      string    `json:"error,omitempty"`
	Stdout     string    `json:"stdout"`
	Stderr     string    `json:"stderr"`
}

func newResult(t report.TestResult) Result {
	return Result{
		DeviceID:   t.DeviceID,
		DeviceName: t.DeviceName,
		Platform:   t.Platform,
		Passed:     t.Passed,
		ExitCode:   t.ExitCode,
		Duration:   t.Duration.Seconds(),
		StartTime:  t.StartTime,
		EndTime:    t.EndTime,
		Attempts:   t.Attempts,
		Error:      t.Error,
		Stdout:     t.Stdout,
		Stderr:     t.Stderr,
	}
}

// Reporter writes the results of a run as JSON, to a file and optionally to a webhook.
type Reporter struct {
	// Dir is the directory the run file is written to. The file is named run_<run id>.json.
	Dir string
	// Filename overrides the generated file name if set.
	Filename   string
	WebhookURL string
	// CI is recorded with the run if set.
	CI         *ci.CI
	Results    []report.TestResult
	lock       sync.Mutex
}

// Add adds a TestResult
func (r *Reporter) Add(t report.TestResult) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.Results = append(r.Results, t)
}

// Render sends the run to the webhook WebhookURL, if set, and writes it to the run file.
func (r *Reporter) Render() {
	r.lock.Lock()
	defer r.lock.Unlock()

	run := r.run()

	if r.WebhookURL != "" {
		r.post(run)
	}

	name := r.Path(run.RunID)
	if err := jsonio.WriteFile(name, run, 0644); err != nil {
		log.Error().Err(err).Msgf("failed to write test result to %s", name)
		return
	}
	log.Info().Str("file", name).Msg("Run summary saved.")
}

// Path returns the file the run with runID is written to.
func (r *Reporter) Path(runID string) string {
	if r.Filename != "" {
		return r.Filename
	}
	return filepath.Join(r.Dir, fmt.Sprintf("run_%s.json", runID))
}

// Reset resets the reporter to its initial state. This action will delete all test results.
func (r *Reporter) Reset() {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.Results = make([]report.TestResult, 0)
}

func (r *Reporter) run() Run {
	start, end := report.Span(r.Results)
	failed := report.Failed(r.Results)

	run := Run{
		TotalTests: len(r.Results),
		Passed:     len(r.Results) - failed,
		Failed:     failed,
		StartTime:  start,
		EndTime:    end,
		Duration:   end.Sub(start).Seconds(),
		Results:    make([]Result, 0, len(r.Results)),
		CI:         r.CI,
	}
	for _, t := range r.Results {
		run.Results = append(run.Results, newResult(t))
	}
	if len(r.Results) > 0 {
		run.RunID = r.Results[0].RunID
	}
	return run
}

func (r *Reporter) post(run Run) {
	body, err := json.Marshal(run)
	if err != nil {
		log.Error().Msgf("failed to generate test result (%v)", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	req, err := mhttp.NewRetryableRequestWithContext(ctx, http.MethodPost, r.WebhookURL, bytes.NewReader(body))
	if err != nil {
		log.Error().Err(err).Str("webhook", r.WebhookURL).Msg("failed to send test result to webhook.")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := mhttp.NewRetryableClient(10 * time.Second).Do(req)
	if err != nil {
		log.Error().Err(err).Str("webhook", r.WebhookURL).Msg("failed to send test result to webhook.")
		return
	}
	defer resp.Body.Close()

	webhookBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= http.StatusBadRequest {
		log.Error().Str("webhook", r.WebhookURL).Msgf("failed to send test result to webhook, status: '%d', msg:'%v'", resp.StatusCode, string(webhookBody))
		return
	}
	log.Info().Str("webhook", r.WebhookURL).Msg("test result has been sent successfully to webhook.")
}
