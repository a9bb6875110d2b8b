package cloud

import (
	"errors"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	cmds "github.com/mobilectl/mobilectl/internal/cmd"
	"github.com/mobilectl/mobilectl/internal/cmd/cmdutil"
	"github.com/mobilectl/mobilectl/internal/devices"
	"github.com/mobilectl/mobilectl/internal/msg"
	"github.com/mobilectl/mobilectl/internal/progress"
	"github.com/mobilectl/mobilectl/internal/tables"
)

func DevicesCommand(env *cmdutil.Env) *cobra.Command {
	var out string
	var provider string
	var platform string

	cmd := &cobra.Command{
		Use:          "devices",
		Short:        "Lists the devices of all enabled device farms",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cmds.CheckOutput(out); err != nil {
				return err
			}
			if provider != "" && !devices.Tag(provider).Valid() {
				return fmt.Errorf("unknown provider %q", provider)
			}
			if platform != "" && !devices.Platform(platform).Valid() {
				return errors.New("unknown platform")
			}

			ctx := cmd.Context()
			if out == cmds.TextOutput {
				progress.Show("Discovering cloud devices")
			}
			enabled := env.Cloud.Initialize(ctx)
			all := env.Cloud.DiscoverAllDevices(ctx)
			progress.Stop()

			var devs []devices.CloudDevice
			for _, d := range all {
				if provider != "" && d.Provider != devices.Tag(provider) {
					continue
				}
				if platform != "" && d.Platform != devices.Platform(platform) {
					continue
				}
				devs = append(devs, d)
			}

			switch out {
			case cmds.JSONOutput:
				if devs == nil {
					devs = []devices.CloudDevice{}
				}
				if err := cmds.RenderJSON(cmd.OutOrStdout(), devs); err != nil {
					return fmt.Errorf("failed to render output: %w", err)
				}
			case cmds.TextOutput:
				if !anyEnabled(enabled) {
					msg.LogNoCloudProviders()
					return nil
				}
				renderDevices(cmd.OutOrStdout(), devs)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&out, "out", "o", "text", "Output format to the console. Options: text, json.")
	flags.StringVarP(&provider, "provider", "p", "", "Only list devices of this device farm.")
	flags.StringVar(&platform, "platform", "", "Filter devices by platform. Options: android, ios.")

	return cmd
}

func renderDevices(w io.Writer, devs []devices.CloudDevice) {
	if len(devs) == 0 {
		fmt.Fprintln(w, "No devices found")
		return
	}

	t := table.NewWriter()
	t.SetStyle(tables.DefaultStyle)
	t.SuppressEmptyColumns()

	t.AppendHeader(table.Row{"ID", "Name", "Platform", "OS", "Status"})
	for _, d := range devs {
		t.AppendRow(table.Row{
			d.ID,
			d.Name(),
			d.Platform.SessionName(),
			d.OSVersion,
			d.Status,
		})
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d devices", len(devs))})

	fmt.Fprintln(w, t.Render())
}
