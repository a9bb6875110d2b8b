package table

import (
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/mobilectl/mobilectl/internal/report"
	"github.com/mobilectl/mobilectl/internal/tables"
)

// Reporter is a table writer implementation for report.Reporter.
type Reporter struct {
	TestResults []report.TestResult
	Dst         io.Writer
	lock        sync.Mutex
}

// Add adds the test result to the summary table.
func (r *Reporter) Add(t report.TestResult) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.TestResults = append(r.TestResults, t)
}

// Render renders out a test summary table to the destination of Reporter.Dst.
func (r *Reporter) Render() {
	r.lock.Lock()
	defer r.lock.Unlock()

	t := table.NewWriter()
	t.SetOutputMirror(r.Dst)
	t.SetStyle(tables.DefaultStyle)
	t.SuppressEmptyColumns()

	t.AppendHeader(table.Row{"", "Device", "ID", "Duration", "Status", "Platform", "Exit Code", "Attempts", "Error"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{
			Number:   0, // it's the first nameless column that contains the passed/fail icon
			WidthMax: 1,
		},
		{
			Name:     "Device",
			WidthMin: 30,
		},
		{
			Name:        "Duration",
			Align:       text.AlignRight,
			AlignFooter: text.AlignRight,
		},
		{
			Name:     "Error",
			WidthMax: 60,
		},
	})

	for _, ts := range r.TestResults {
		var attempts string
		if ts.Attempts > 0 {
			attempts = strconv.Itoa(ts.Attempts)
		}
		id := ts.DeviceID
		if id == ts.DeviceName {
			id = ""
		}
		// the order of values must match the order of the header
		t.AppendRow(table.Row{statusSymbol(ts.Passed), ts.DeviceName, id, ts.Duration.Truncate(1 * time.Second),
			statusText(ts.Passed), ts.Platform, ts.ExitCode, attempts, ts.Error})
	}

	start, end := report.Span(r.TestResults)
	t.AppendFooter(footer(report.Failed(r.TestResults), len(r.TestResults), end.Sub(start)))

	_, _ = fmt.Fprintln(r.Dst)
	t.Render()
}

// Reset resets the reporter to its initial state. This action will delete all test results.
func (r *Reporter) Reset() {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.TestResults = make([]report.TestResult, 0)
}

func footer(errors, tests int, dur time.Duration) table.Row {
	if errors != 0 {
		relative := float64(errors) / float64(tests) * 100
		return table.Row{statusSymbol(false), fmt.Sprintf("%d of %d devices have failed (%.0f%%)", errors, tests, relative), "", dur.Truncate(1 * time.Second)}
	}
	return table.Row{statusSymbol(true), "All devices have passed", "", dur.Truncate(1 * time.Second)}
}

func statusText(passed bool) string {
	if passed {
		return color.GreenString("passed")
	}
	return color.RedString("failed")
}

func statusSymbol(passed bool) string {
	if passed {
		return color.GreenString("✔")
	}
	return color.RedString("✖")
}
