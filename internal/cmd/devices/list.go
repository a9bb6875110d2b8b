package devices

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	cmds "github.com/mobilectl/mobilectl/internal/cmd"
	"github.com/mobilectl/mobilectl/internal/cmd/cmdutil"
	"github.com/mobilectl/mobilectl/internal/devices"
	"github.com/mobilectl/mobilectl/internal/devices/registry"
	"github.com/mobilectl/mobilectl/internal/progress"
	"github.com/mobilectl/mobilectl/internal/tables"
)

// ListOptions holds the list flags.
type ListOptions struct {
	Platform     string
	ActiveOnly   bool
	MinOSVersion string
	Cloud        bool
	OutputFormat string
}

// Listing is the JSON document printed by `devices list`.
type Listing struct {
	Local []devices.Device      `json:"local"`
	Cloud []devices.CloudDevice `json:"cloud,omitempty"`
}

func ListCommand(env *cmdutil.Env) *cobra.Command {
	var opts ListOptions

	cmd := &cobra.Command{
		Use: "list",
		Aliases: []string{
			"ls",
		},
		Short:        "Returns the list of registered devices",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cmds.CheckOutput(opts.OutputFormat); err != nil {
				return err
			}
			if opts.Platform != "" && !devices.Platform(opts.Platform).Valid() {
				return errors.New("unknown platform")
			}

			return list(cmd.Context(), cmd.OutOrStdout(), env, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.OutputFormat, "out", "o", "text", "Output format to the console. Options: text, json.")
	flags.StringVar(&opts.Platform, "platform", "", "Filter devices by platform. Options: android, ios.")
	flags.BoolVar(&opts.ActiveOnly, "active", false, "Only list active devices.")
	flags.StringVar(&opts.MinOSVersion, "min-os", "", "Only list devices running at least this OS version, e.g. 13 or 16.4.")
	flags.BoolVar(&opts.Cloud, "cloud", false, "Include the devices of all configured cloud device farms.")

	return cmd
}

func list(ctx context.Context, w io.Writer, env *cmdutil.Env, opts ListOptions) error {
	local, err := env.Registry.List(registry.Filter{
		Platform:     devices.Platform(opts.Platform),
		ActiveOnly:   opts.ActiveOnly,
		MinOSVersion: opts.MinOSVersion,
	})
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}

	listing := Listing{Local: local}
	if listing.Local == nil {
		listing.Local = []devices.Device{}
	}
	if opts.Cloud {
		if opts.OutputFormat == cmds.TextOutput {
			progress.Show("Discovering cloud devices")
		}
		env.Cloud.Initialize(ctx)
		for _, d := range env.Cloud.DiscoverAllDevices(ctx) {
			if opts.Platform == "" || d.Platform == devices.Platform(opts.Platform) {
				listing.Cloud = append(listing.Cloud, d)
			}
		}
		progress.Stop()
	}

	switch opts.OutputFormat {
	case cmds.JSONOutput:
		if err := cmds.RenderJSON(w, listing); err != nil {
			return fmt.Errorf("failed to render output: %w", err)
		}
	case cmds.TextOutput:
		renderListTable(w, listing)
	}

	return nil
}

var title = cases.Title(language.English)

func renderListTable(w io.Writer, l Listing) {
	if len(l.Local) == 0 && len(l.Cloud) == 0 {
		fmt.Fprintln(w, "No devices found")
		return
	}

	t := table.NewWriter()
	t.SetStyle(tables.DefaultStyle)
	t.SuppressEmptyColumns()

	t.AppendHeader(table.Row{
		"ID", "Name", "Platform", "Type", "OS", "Status",
	})

	for _, d := range l.Local {
		status := "active"
		if !d.Active {
			status = "inactive"
		}
		// the order of values must match the order of the header
		t.AppendRow(table.Row{
			d.ID,
			d.Name(),
			d.Platform.SessionName(),
			title.String(string(d.Type)),
			d.OSVersion,
			status,
		})
	}
	for _, d := range l.Cloud {
		t.AppendRow(table.Row{
			d.ID,
			d.Name(),
			d.Platform.SessionName(),
			title.String(string(d.Provider)),
			d.OSVersion,
			d.Status,
		})
	}

	t.AppendFooter(table.Row{
		fmt.Sprintf("%d local and %d cloud devices", len(l.Local), len(l.Cloud)),
	})

	fmt.Fprintln(w, t.Render())
}
