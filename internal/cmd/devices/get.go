package devices

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	cmds "github.com/mobilectl/mobilectl/internal/cmd"
	"github.com/mobilectl/mobilectl/internal/cmd/cmdutil"
	"github.com/mobilectl/mobilectl/internal/devices"
	"github.com/mobilectl/mobilectl/internal/devices/registry"
	"github.com/mobilectl/mobilectl/internal/tables"
)

func GetCommand(env *cmdutil.Env) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:          "get <device-id>",
		Short:        "Get a registered device by ID or friendly name",
		SilenceUsage: true,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 || args[0] == "" {
				return errors.New("no device ID specified")
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cmds.CheckOutput(out); err != nil {
				return err
			}

			device, ok := env.Registry.Get(args[0])
			if !ok {
				return fmt.Errorf("failed to get device: %w", &registry.NotFoundError{ID: args[0]})
			}

			switch out {
			case cmds.JSONOutput:
				if err := cmds.RenderJSON(cmd.OutOrStdout(), device); err != nil {
					return fmt.Errorf("failed to render output: %w", err)
				}
			case cmds.TextOutput:
				renderDeviceTable(cmd.OutOrStdout(), device)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&out, "out", "o", "text", "Output format to the console. Options: text, json.")

	return cmd
}

func renderDeviceTable(w io.Writer, device devices.Device) {
	t := table.NewWriter()
	t.SetStyle(tables.DefaultStyle)
	t.SuppressEmptyColumns()

	t.AppendHeader(table.Row{"Property", "Value"})
	t.AppendRow(table.Row{"ID", device.ID})
	t.AppendRow(table.Row{"Name", device.Name()})
	t.AppendRow(table.Row{"Hardware ID", device.DeviceID})
	t.AppendRow(table.Row{"Platform", device.Platform.SessionName()})
	t.AppendRow(table.Row{"Type", title.String(string(device.Type))})
	t.AppendRow(table.Row{"Model", device.Model})
	t.AppendRow(table.Row{"OS Version", device.OSVersion})
	t.AppendRow(table.Row{"Active", device.Active})
	t.AppendRow(table.Row{"MITM Certificate", device.MitmCertInstalled})
	t.AppendRow(table.Row{"Notes", device.Notes})
	t.AppendRow(table.Row{"Registered", device.RegisteredAt.Local().Format("2006-01-02 15:04:05")})

	keys := make([]string, 0, len(device.Capabilities))
	for k := range device.Capabilities {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		t.AppendRow(table.Row{k, device.Capabilities[k]})
	}

	fmt.Fprintln(w, t.Render())
}
