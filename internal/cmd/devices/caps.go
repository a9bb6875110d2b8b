package devices

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/mobilectl/mobilectl/internal/caps"
	cmds "github.com/mobilectl/mobilectl/internal/cmd"
	"github.com/mobilectl/mobilectl/internal/cmd/cmdutil"
	"github.com/mobilectl/mobilectl/internal/tables"
)

// Session is the JSON document printed by `devices caps`.
type Session struct {
	Device       string            `json:"device"`
	Kind         string            `json:"kind"`
	HubURL       string            `json:"hub_url,omitempty"`
	Capabilities caps.Capabilities `json:"capabilities"`
}

func CapsCommand(env *cmdutil.Env) *cobra.Command {
	var out string
	var capFlags map[string]string

	cmd := &cobra.Command{
		Use:          "caps <device-id>",
		Short:        "Prints the session capabilities and hub URL of a local or cloud device",
		Example:      "mobilectl devices caps browserstack-google_pixel_8_14 --cap app=bs://1a2b3c",
		SilenceUsage: true,
		Args:         requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cmds.CheckOutput(out); err != nil {
				return err
			}

			ctx := cmd.Context()
			if cmdutil.NeedsCloud(args) {
				env.Cloud.Initialize(ctx)
			}

			t, err := env.Resolver.Validate(args[0])
			if err != nil {
				return err
			}
			c, err := env.Resolver.CapabilitiesFor(ctx, t, parseCaps(capFlags))
			if err != nil {
				return fmt.Errorf("failed to resolve capabilities: %w", err)
			}
			hub, _ := env.Resolver.HubURLFor(t)

			s := Session{Device: t.ID, Kind: t.Kind.String(), HubURL: hub, Capabilities: c}
			switch out {
			case cmds.JSONOutput:
				if err := cmds.RenderJSON(cmd.OutOrStdout(), s); err != nil {
					return fmt.Errorf("failed to render output: %w", err)
				}
			case cmds.TextOutput:
				renderSession(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&out, "out", "o", "text", "Output format to the console. Options: text, json.")
	flags.StringToStringVar(&capFlags, "cap", nil, "Additional session capability, e.g. --cap app=/path/to/app.apk.")

	return cmd
}

func renderSession(w io.Writer, s Session) {
	t := table.NewWriter()
	t.SetStyle(tables.DefaultStyle)

	t.AppendHeader(table.Row{"Capability", "Value"})
	keys := make([]string, 0, len(s.Capabilities))
	for k := range s.Capabilities {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		t.AppendRow(table.Row{k, s.Capabilities[k]})
	}

	hub := s.HubURL
	if hub == "" {
		hub = "none, submit a batch run instead"
	}
	t.AppendFooter(table.Row{"Hub", hub})

	fmt.Fprintln(w, t.Render())
}
