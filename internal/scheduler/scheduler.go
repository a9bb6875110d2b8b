// Package scheduler runs a test entrypoint against many devices in parallel, one process per device.
package scheduler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mobilectl/mobilectl/internal/devices"
	"github.com/mobilectl/mobilectl/internal/jsonio"
	"github.com/mobilectl/mobilectl/internal/msg"
)

// Environment variables passed to every test process.
const (
	EnvDeviceID   = "MOBILECTL_DEVICE_ID"
	EnvRunID      = "MOBILECTL_RUN_ID"
	EnvResultFile = "MOBILECTL_RESULT_FILE"
)

// Validator resolves a device identifier, failing if the device cannot be used.
type Validator interface {
	Validate(idOrName string) (devices.Target, error)
}

// Entrypoint is the test executable. Args are passed before the device ID.
type Entrypoint struct {
	Path string
	Args []string
	Dir  string
}

// Options controls the execution of a run.
type Options struct {
	// ProcessTimeout bounds each test process. Zero means no limit.
	ProcessTimeout time.Duration
	// RunTimeout bounds the whole run. Zero means no limit.
	RunTimeout time.Duration
	// KillGrace is how long to wait for output after a timed out process was killed.
	KillGrace time.Duration
	// Env is appended to the inherited environment of each test process.
	Env []string
}

// Report is the optional structured outcome a test process writes to the file named by EnvResultFile.
type Report struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	// Attempts is how often the process tried the test itself, e.g. through a test runner's own retries.
	Attempts int            `json:"attempts"`
	Details  map[string]any `json:"details"`
}

// Scheduler runs test processes in parallel.
type Scheduler struct {
	validator Validator
	opts      Options

	// Command creates the process for a device.
	Command func(ctx context.Context, name string, arg ...string) *exec.Cmd
	// NewRunID generates run IDs.
	NewRunID func() string
}

// New creates a new Scheduler.
func New(v Validator, opts Options) *Scheduler {
	return &Scheduler{
		validator: v,
		opts:      opts,
		Command:   exec.CommandContext,
		NewRunID:  uuid.NewString,
	}
}

// handle tracks the process of one device. index is the position of the device in the run's input.
type handle struct {
	index  int
	id     string
	target devices.Target
	done   chan Result
}

// Run validates every device, then starts one test process per device and waits for all of them.
// No process is started if any device fails validation. A failing process never affects the others; its
// failure is recorded in its Result.
func (s *Scheduler) Run(ctx context.Context, ep Entrypoint, ids []string) (Summary, error) {
	if ep.Path == "" {
		return Summary{}, errors.New(msg.MissingEntrypoint)
	}
	if len(ids) == 0 {
		return Summary{}, errors.New(msg.NoDevicesSelected)
	}

	handles := make([]*handle, len(ids))
	for i, id := range ids {
		t, err := s.validator.Validate(id)
		if err != nil {
			return Summary{}, err
		}
		handles[i] = &handle{index: i, id: id, target: t, done: make(chan Result, 1)}
	}

	if s.opts.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RunTimeout)
		defer cancel()
	}

	runID := s.NewRunID()
	start := time.Now()
	log.Info().Str("runID", runID).Int("devices", len(handles)).Msg("Starting run.")

	for _, h := range handles {
		go func() {
			h.done <- s.execute(ctx, ep, runID, h)
		}()
	}

	results := make([]Result, len(handles))
	for _, h := range handles {
		results[h.index] = <-h.done
	}

	return summarize(runID, start, time.Now(), results), nil
}

func (s *Scheduler) execute(ctx context.Context, ep Entrypoint, runID string, h *handle) Result {
	res := Result{
		DeviceID:   h.id,
		DeviceName: h.target.Name(),
		Platform:   h.target.Platform(),
		StartTime:  time.Now(),
		Attempts:   1,
	}
	logger := log.With().Str("device", h.id).Int("index", h.index).Logger()

	if s.opts.ProcessTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.ProcessTimeout)
		defer cancel()
	}

	resultFile := filepath.Join(os.TempDir(), fmt.Sprintf("mobilectl-%s-%d.json", runID, h.index))
	defer os.Remove(resultFile)

	args := append(append([]string{}, ep.Args...), h.id)
	cmd := s.Command(ctx, ep.Path, args...)
	cmd.Dir = ep.Dir
	cmd.Env = append(cmd.Environ(), s.opts.Env...)
	cmd.Env = append(cmd.Env,
		EnvDeviceID+"="+h.id,
		EnvRunID+"="+runID,
		EnvResultFile+"="+resultFile,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = s.opts.KillGrace

	if err := cmd.Start(); err != nil {
		res.ExitCode = -1
		res.Err = &ProcessSpawnError{DeviceID: h.id, Err: err}
		res.Error = res.Err.Error()
		res.Duration = time.Since(res.StartTime)
		logger.Error().Err(err).Msg("Failed to start test process.")
		return res
	}
	logger.Debug().Int("pid", cmd.Process.Pid).Msg("Test process started.")

	err := cmd.Wait()
	res.Duration = time.Since(res.StartTime)
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		res.Success = true
	case ctx.Err() != nil:
		res.ExitCode = -1
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		}
		res.Err = fmt.Errorf("%s: %w", msg.ProcessTimedOut, ctx.Err())
		res.Error = res.Err.Error()
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		res.Error = err.Error()
	default:
		res.ExitCode = -1
		res.Err = err
		res.Error = err.Error()
	}

	applyReport(&res, resultFile)

	logger.Info().Bool("passed", res.Success).Int("exitCode", res.ExitCode).Dur("duration", res.Duration).Msg("Test process finished.")
	return res
}

// applyReport merges the structured outcome the process may have written into res.
// A process that reports failure fails, regardless of its exit code.
func applyReport(res *Result, path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}

	var r Report
	if err := jsonio.ReadFile(path, &r); err != nil {
		log.Warn().Err(err).Str("device", res.DeviceID).Msg("Ignoring malformed result file.")
		return
	}

	if !r.Success && res.Success {
		res.Success = false
		res.Error = "test process reported failure"
	}
	if r.Error != "" {
		res.Error = r.Error
	}
	if r.Attempts > 0 {
		res.Attempts = r.Attempts
	}
	res.Details = r.Details
}
