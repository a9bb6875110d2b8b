package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mobilectl/mobilectl/internal/cmd/cloud"
	"github.com/mobilectl/mobilectl/internal/cmd/completion"
	"github.com/mobilectl/mobilectl/internal/cmd/configure"
	"github.com/mobilectl/mobilectl/internal/cmd/devices"
	"github.com/mobilectl/mobilectl/internal/cmd/exec"
	"github.com/mobilectl/mobilectl/internal/cmd/run"
	"github.com/mobilectl/mobilectl/internal/version"
)

var (
	cmdUse   = "mobilectl [OPTIONS] COMMAND [ARG...]"
	cmdShort = "mobilectl"
	cmdLong  = `Runs mobile test suites in parallel across local devices and cloud device farms.

Register your local devices with 'mobilectl devices sync --register', store cloud
credentials with 'mobilectl configure' and start a run with 'mobilectl run'.`
)

func main() {
	cmd := newRootCommand()
	if err := cmd.ExecuteContext(newContext()); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:              cmdUse,
		Short:            cmdShort,
		Long:             cmdLong,
		SilenceUsage:     true,
		TraverseChildren: true,
		Version:          fmt.Sprintf("%s\n(build %s)", version.Version, version.GitCommit),
	}

	cmd.SetVersionTemplate("mobilectl version {{.Version}}\n")
	cmd.Flags().BoolP("version", "v", false, "print version")

	verbosity := cmd.PersistentFlags().Bool("verbose", false, "turn on verbose logging")
	noColor := cmd.PersistentFlags().Bool("no-color", false, "disable colorized output")
	cmd.PersistentFlags().StringP("config", "c", "", "Path to the mobilectl config file. Defaults to .mobilectl/config.yml")

	cmd.PersistentPreRun = func(_ *cobra.Command, _ []string) {
		setupLogging(*verbosity, *noColor)
	}

	cmd.AddCommand(
		run.Command(),
		exec.Command(),
		configure.Command(),
		devices.Command(cmd.PersistentPreRun),
		cloud.Command(cmd.PersistentPreRun),
		completion.Command(),
	)

	return cmd
}

func setupLogging(verbose bool, noColor bool) {
	color.NoColor = noColor
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	zerolog.DurationFieldInteger = true
	timeFormat := "15:04:05"
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		zerolog.TimeFieldFormat = time.RFC3339Nano
		timeFormat = "15:04:05.000"
	}

	zerolog.TimestampFunc = func() time.Time {
		return time.Now().In(time.Local)
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: timeFormat, NoColor: noColor})
}

// newContext returns a new context that is canceled when a SIGINT is received.
// A second SIGINT exits right away.
func newContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt)

	go func() {
		for range signals {
			if ctx.Err() != nil {
				os.Exit(1)
			}

			println("\nStopping running tests... (press Ctrl-c again to exit without waiting)\n")
			cancel()
		}
	}()

	return ctx
}
