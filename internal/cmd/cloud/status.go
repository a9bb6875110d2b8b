package cloud

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	fed "github.com/mobilectl/mobilectl/internal/cloud"
	cmds "github.com/mobilectl/mobilectl/internal/cmd"
	"github.com/mobilectl/mobilectl/internal/cmd/cmdutil"
	"github.com/mobilectl/mobilectl/internal/devices"
	"github.com/mobilectl/mobilectl/internal/msg"
	"github.com/mobilectl/mobilectl/internal/progress"
	"github.com/mobilectl/mobilectl/internal/tables"
)

func StatusCommand(env *cmdutil.Env) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:          "status",
		Short:        "Probes every device farm and shows which ones are usable",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cmds.CheckOutput(out); err != nil {
				return err
			}

			if out == cmds.TextOutput {
				progress.Show("Checking cloud device farms")
			}
			enabled := env.Cloud.Initialize(cmd.Context())
			progress.Stop()

			status := env.Cloud.Status()
			switch out {
			case cmds.JSONOutput:
				if err := cmds.RenderJSON(cmd.OutOrStdout(), status); err != nil {
					return fmt.Errorf("failed to render output: %w", err)
				}
			case cmds.TextOutput:
				renderStatus(cmd.OutOrStdout(), status)
				if !anyEnabled(enabled) {
					msg.LogNoCloudProviders()
				}
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&out, "out", "o", "text", "Output format to the console. Options: text, json.")

	return cmd
}

func anyEnabled(m map[devices.Tag]bool) bool {
	for _, v := range m {
		if v {
			return true
		}
	}
	return false
}

func renderStatus(w io.Writer, status []fed.Status) {
	t := table.NewWriter()
	t.SetStyle(tables.DefaultStyle)

	t.AppendHeader(table.Row{"Provider", "Status", "Platforms", "Hub", "Pricing"})
	for _, s := range status {
		state := color.RedString("disabled")
		if s.Enabled {
			state = color.GreenString("enabled")
		}
		platforms := make([]string, len(s.Platforms))
		for i, p := range s.Platforms {
			platforms[i] = p.SessionName()
		}
		hub := s.HubURL
		if hub == "" {
			hub = "batch runs only"
		}
		// the order of values must match the order of the header
		t.AppendRow(table.Row{
			s.Tag,
			state,
			strings.Join(platforms, ", "),
			hub,
			s.Pricing.Model,
		})
	}

	fmt.Fprintln(w, t.Render())
}
