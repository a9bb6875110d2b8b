package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/ryanuber/go-glob"
	"github.com/spf13/cobra"

	"github.com/mobilectl/mobilectl/internal/ci"
	cmds "github.com/mobilectl/mobilectl/internal/cmd"
	"github.com/mobilectl/mobilectl/internal/cmd/cmdutil"
	"github.com/mobilectl/mobilectl/internal/config"
	"github.com/mobilectl/mobilectl/internal/devices"
	"github.com/mobilectl/mobilectl/internal/devices/registry"
	"github.com/mobilectl/mobilectl/internal/flags"
	"github.com/mobilectl/mobilectl/internal/junit"
	"github.com/mobilectl/mobilectl/internal/msg"
	"github.com/mobilectl/mobilectl/internal/notification/slack"
	"github.com/mobilectl/mobilectl/internal/report"
	"github.com/mobilectl/mobilectl/internal/report/json"
	"github.com/mobilectl/mobilectl/internal/report/table"
	"github.com/mobilectl/mobilectl/internal/scheduler"
)

var (
	runUse     = "run [flags] <device>..."
	runShort   = "Runs a test entrypoint on many devices in parallel"
	runLong    = `Starts one test process per device. Devices are registry IDs, friendly names, cloud device IDs
such as browserstack-google_pixel_8_14, or globs over registry IDs such as 'pixel-*'.

The entrypoint receives the device ID as its last argument and as $MOBILECTL_DEVICE_ID.`
	runExample = "mobilectl run --entrypoint ./scripts/e2e.sh pixel-6 iphone-15 saucelabs-Google_Pixel_8_real"
)

// Options holds the run flags that are not part of the configuration.
type Options struct {
	Entrypoint string
	Args       []string
	Dir        string
	All        bool
	Platform   string
	Env        map[string]string
	ShowOutput bool
}

// Command creates the `run` command
func Command() *cobra.Command {
	var opts Options

	cmd := &cobra.Command{
		Use:     runUse,
		Short:   runShort,
		Long:    runLong,
		Example: runExample,
		Run: func(cmd *cobra.Command, args []string) {
			exitCode, err := Run(cmd.Context(), cmds.ConfigFile(cmd), opts, args)
			if err != nil {
				log.Err(err).Msg("failed to execute run command")
			}
			os.Exit(exitCode)
		},
	}

	sc := flags.New(cmd.Flags())
	cmd.Flags().StringVarP(&opts.Entrypoint, "entrypoint", "x", "", "Test executable to start for every device.")
	cmd.Flags().StringArrayVar(&opts.Args, "arg", nil, "Argument passed to the entrypoint before the device ID. Can be repeated.")
	cmd.Flags().StringVar(&opts.Dir, "workdir", "", "Working directory of the test processes. Defaults to the current directory.")
	cmd.Flags().BoolVar(&opts.All, "all", false, "Run on every active registered device.")
	cmd.Flags().StringVar(&opts.Platform, "platform", "", "Limits --all to a platform. Options: android, ios.")
	cmd.Flags().StringToStringVarP(&opts.Env, "env", "e", map[string]string{}, "Set environment variables for the test processes, e.g. -e foo=bar.")
	cmd.Flags().BoolVar(&opts.ShowOutput, "show-output", false, "Shows the output of every test process. By default output is only shown on failures.")

	sc.Duration("process-timeout", "run::processTimeout", 0, "Limits how long a single test process can run. Supports duration values like '10s', '30m' etc. (default: no timeout)")
	sc.Duration("timeout", "run::timeout", 0, "Global timeout that limits how long the whole run can take. (default: no timeout)")
	sc.Duration("kill-grace", "run::killGrace", 0, "How long to wait for the output of a killed test process.")
	sc.String("registry", "registry::path", "", "Specifies the device registry file.")
	sc.String("hub", "hub::local", "", "Automation hub URL for local devices.")
	sc.Bool("reporters.json.enabled", "reporters::json::enabled", true, "Toggle the run summary JSON file on/off.")
	sc.String("reporters.json.dir", "reporters::json::dir", "", "Specifies the directory of the run summary JSON file.")
	sc.String("reporters.json.webhook", "reporters::json::webhookURL", "", "Specifies a URL the run summary is posted to.")
	sc.Bool("reporters.junit.enabled", "reporters::junit::enabled", false, "Toggle the JUnit report on/off.")
	sc.String("reporters.junit.filename", "reporters::junit::filename", "", "Specifies the JUnit report file name.")
	sc.String("slack.webhook", "notifications::slack::webhook", "", "Slack incoming webhook the run summary is sent to.")
	sc.String("slack.send", "notifications::slack::send", "", "Specifies when to send a slack notification. Options: always, fail, pass, never.")

	sc.BindAll()

	return cmd
}

// Run loads the configuration and runs the entrypoint on the selected devices. It returns the exit code of
// the CLI: 1 if any device failed or the run could not be started, otherwise 0.
func Run(ctx context.Context, cfgFile string, opts Options, args []string) (int, error) {
	env, err := cmdutil.Setup(ctx, cfgFile)
	if err != nil {
		return 1, err
	}
	return run(ctx, env, opts, args, os.Stdout)
}

func run(ctx context.Context, env *cmdutil.Env, opts Options, args []string, out io.Writer) (int, error) {
	if opts.Entrypoint == "" {
		return 1, errors.New(msg.MissingEntrypoint)
	}

	ids, err := selectDevices(env.Registry, opts, args)
	if err != nil {
		return 1, err
	}

	if cmdutil.NeedsCloud(ids) {
		for tag, ok := range env.Cloud.Initialize(ctx) {
			log.Debug().Str("provider", string(tag)).Bool("enabled", ok).Msg("Cloud provider probed.")
		}
	}

	sopts := cmdutil.SchedulerOptions(env.Config)
	sopts.Env = environ(opts.Env)
	s := scheduler.New(env.Resolver, sopts)

	log.Debug().Strs("devices", ids).Str("entrypoint", opts.Entrypoint).Msg("Devices selected.")
	summary, err := s.Run(ctx, scheduler.Entrypoint{Path: opts.Entrypoint, Args: opts.Args, Dir: opts.Dir}, ids)
	if err != nil {
		return 1, err
	}

	printOutput(out, summary, opts.ShowOutput)

	reps := createReporters(env.Config, out)
	for _, res := range summary.Results {
		tr := toTestResult(summary.RunID, res)
		for _, r := range reps {
			r.Add(tr)
		}
	}
	for _, r := range reps {
		r.Render()
	}

	if summary.Successful() {
		msg.LogRunSuccess()
	} else {
		msg.LogRunFailure(summary.Failed, summary.TotalTests)
	}

	return summary.ExitCode(), nil
}

// selectDevices expands args and --all into a list of device identifiers, keeping the order of first
// appearance. Arguments containing '*' are matched against registry IDs.
func selectDevices(reg *registry.Registry, opts Options, args []string) ([]string, error) {
	var ids []string
	// Expanded IDs are added once. Explicit arguments are kept as given, duplicates included.
	expanded := map[string]bool{}
	expand := func(id string) {
		if !expanded[id] {
			expanded[id] = true
			ids = append(ids, id)
		}
	}

	if opts.Platform != "" && !devices.Platform(opts.Platform).Valid() {
		return nil, errors.New("unknown platform")
	}
	if opts.All {
		devs, err := reg.List(registry.Filter{Platform: devices.Platform(opts.Platform), ActiveOnly: true})
		if err != nil {
			return nil, err
		}
		for _, d := range devs {
			expand(d.ID)
		}
	}

	for _, a := range args {
		if !strings.Contains(a, "*") {
			ids = append(ids, a)
			continue
		}
		matched := false
		for _, id := range reg.IDs() {
			if glob.Glob(a, id) {
				expand(id)
				matched = true
			}
		}
		if !matched {
			return nil, fmt.Errorf("no registered device matches %q", a)
		}
	}

	if len(ids) == 0 {
		return nil, errors.New(msg.NoDevicesSelected)
	}
	return ids, nil
}

func environ(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(m))
	for _, k := range keys {
		env = append(env, k+"="+m[k])
	}
	return env
}

func printOutput(w io.Writer, s scheduler.Summary, all bool) {
	for _, r := range s.Results {
		if r.Success && !all {
			continue
		}
		header := color.New(color.FgGreen).Sprintf("Output of %s", r.DeviceName)
		if !r.Success {
			header = color.New(color.FgRed).Sprintf("Output of %s (%s)", r.DeviceName, r.Error)
		}
		fmt.Fprintf(w, "\n%s\n", header)
		if r.Stdout != "" {
			fmt.Fprint(w, r.Stdout)
		}
		if r.Stderr != "" {
			fmt.Fprint(w, r.Stderr)
		}
	}
	fmt.Fprintln(w)
}

func toTestResult(runID string, r scheduler.Result) report.TestResult {
	return report.TestResult{
		RunID:      runID,
		DeviceID:   r.DeviceID,
		DeviceName: r.DeviceName,
		Platform:   string(r.Platform),
		Passed:     r.Success,
		ExitCode:   r.ExitCode,
		Duration:   r.Duration,
		StartTime:  r.StartTime,
		EndTime:    r.StartTime.Add(r.Duration),
		Attempts:   r.Attempts,
		Error:      r.Error,
		Stdout:     r.Stdout,
		Stderr:     r.Stderr,
	}
}

func createReporters(cfg config.Config, out io.Writer) []report.Reporter {
	var build *ci.CI
	if c, ok := ci.Detect(); ok {
		build = &c
	}

	reps := []report.Reporter{
		&table.Reporter{
			Dst: out,
		}}

	if cfg.Reporters.JSON.Enabled {
		reps = append(reps, &json.Reporter{
			Dir:        cfg.Reporters.JSON.Dir,
			Filename:   cfg.Reporters.JSON.Filename,
			WebhookURL: cfg.Reporters.JSON.WebhookURL,
			CI:         build,
		})
	}

	if cfg.Reporters.JUnit.Enabled {
		reps = append(reps, &junit.Reporter{
			Filename: cfg.Reporters.JUnit.Filename,
		})
	}

	if cfg.Notifications.Slack.Webhook != "" {
		reps = append(reps, &slack.Reporter{
			WebhookURL: cfg.Notifications.Slack.Webhook,
			Send:       cfg.Notifications.Slack.Send,
			CI:         build,
		})
	}

	return reps
}
