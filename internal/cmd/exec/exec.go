package exec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	osexec "os/exec"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	cmds "github.com/mobilectl/mobilectl/internal/cmd"
	"github.com/mobilectl/mobilectl/internal/cmd/cmdutil"
	"github.com/mobilectl/mobilectl/internal/devices"
	"github.com/mobilectl/mobilectl/internal/flags"
	"github.com/mobilectl/mobilectl/internal/report"
	"github.com/mobilectl/mobilectl/internal/report/table"
	"github.com/mobilectl/mobilectl/internal/retry"
	"github.com/mobilectl/mobilectl/internal/scheduler"
	"github.com/mobilectl/mobilectl/internal/viper"
)

var (
	execUse     = "exec [flags] -- <command> [args...]"
	execShort   = "Runs a single test command, retrying it on failure"
	execExample = "mobilectl exec --device pixel-6 --retries 2 -- ./scripts/e2e.sh pixel-6"
)

// Command creates the `exec` command
func Command() *cobra.Command {
	var device string

	cmd := &cobra.Command{
		Use:     execUse,
		Short:   execShort,
		Example: execExample,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || args[0] == "" {
				return errors.New("no command specified")
			}
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			if cmd.Flags().Changed("retries") {
				viper.Set("retry::enabled", true)
			}
			exitCode, err := Run(cmd.Context(), cmds.ConfigFile(cmd), device, args)
			if err != nil {
				log.Err(err).Msg("failed to execute exec command")
			}
			os.Exit(exitCode)
		},
	}

	sc := flags.New(cmd.Flags())
	cmd.Flags().StringVarP(&device, "device", "d", "", "Device the command tests. It is validated first and passed as $MOBILECTL_DEVICE_ID.")
	sc.Bool("retry", "retry::enabled", false, "Retry the command when it fails. Implied by --retries.")
	sc.Uint("retries", "retry::maxRetries", 0, "Number of additional attempts after a failed one.")
	sc.Duration("retry-delay", "retry::delay", 0, "Pause between attempts, e.g. 5s.")
	sc.BindAll()

	return cmd
}

// Run loads the configuration and executes args. It returns the exit code of the CLI.
func Run(ctx context.Context, cfgFile, device string, args []string) (int, error) {
	env, err := cmdutil.Setup(ctx, cfgFile)
	if err != nil {
		return 1, err
	}
	return execute(ctx, env, device, args, os.Stdout, os.Stderr)
}

func execute(ctx context.Context, env *cmdutil.Env, device string, args []string, stdout, stderr io.Writer) (int, error) {
	name := args[0]
	var platform devices.Platform
	var extraEnv []string
	if device != "" {
		if cmdutil.NeedsCloud([]string{device}) {
			env.Cloud.Initialize(ctx)
		}
		t, err := env.Resolver.Validate(device)
		if err != nil {
			return 1, err
		}
		name = t.Name()
		platform = t.Platform()
		extraEnv = append(extraEnv, scheduler.EnvDeviceID+"="+t.ID)
	}

	start := time.Now()
	var lastExit int
	outcome, err := retry.Do(ctx, func(ctx context.Context) error {
		c := osexec.CommandContext(ctx, args[0], args[1:]...)
		c.Env = append(c.Environ(), extraEnv...)
		c.Stdout = stdout
		c.Stderr = stderr
		err := c.Run()
		lastExit = exitCode(err)
		return err
	}, cmdutil.RetryOptions(env.Config))
	end := time.Now()

	res := report.TestResult{
		DeviceID:   device,
		DeviceName: name,
		Platform:   string(platform),
		Passed:     err == nil,
		ExitCode:   lastExit,
		Duration:   end.Sub(start),
		StartTime:  start,
		EndTime:    end,
		Attempts:   outcome.Attempts,
	}
	if err != nil {
		res.Error = err.Error()
	}

	rep := &table.Reporter{Dst: stdout}
	rep.Add(res)
	rep.Render()

	if err != nil {
		return 1, fmt.Errorf("command failed: %w", err)
	}
	if outcome.Retried {
		log.Warn().Int("attempts", outcome.Attempts).Msg("Command passed after retrying.")
	}
	return 0, nil
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *osexec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
