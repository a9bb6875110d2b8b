package devices

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	cmds "github.com/mobilectl/mobilectl/internal/cmd"
	"github.com/mobilectl/mobilectl/internal/cmd/cmdutil"
	"github.com/mobilectl/mobilectl/internal/devices"
	"github.com/mobilectl/mobilectl/internal/devices/registry"
)

// SyncReport is the JSON document printed by `devices sync`.
type SyncReport struct {
	registry.SyncResult
	Registered []string `json:"registered,omitempty"`
}

func SyncCommand(env *cmdutil.Env) *cobra.Command {
	var out string
	var register bool

	cmd := &cobra.Command{
		Use:          "sync",
		Short:        "Discovers attached devices and compares them with the registry",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cmds.CheckOutput(out); err != nil {
				return err
			}

			res, err := env.Registry.SyncDiscovered(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to discover devices: %w", err)
			}

			rep := SyncReport{SyncResult: res}
			if register {
				rep.Registered = registerAll(env.Registry, res.NewDevices)
			}

			switch out {
			case cmds.JSONOutput:
				if err := cmds.RenderJSON(cmd.OutOrStdout(), rep); err != nil {
					return fmt.Errorf("failed to render output: %w", err)
				}
			case cmds.TextOutput:
				renderSync(cmd.OutOrStdout(), rep)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&out, "out", "o", "text", "Output format to the console. Options: text, json.")
	flags.BoolVar(&register, "register", false, "Register every newly discovered device under its suggested ID.")

	return cmd
}

// registerAll registers devs under their suggested IDs and returns the IDs that were registered.
// A device whose suggested ID is taken is registered with its hardware ID appended.
func registerAll(reg *registry.Registry, devs []devices.Device) []string {
	var ids []string
	for _, d := range devs {
		id := d.ID
		_, err := reg.Register(id, d)
		if errors.Is(err, registry.ErrDuplicateID) {
			id = devices.Slugify(d.ID + "-" + d.DeviceID)
			_, err = reg.Register(id, d)
		}
		if err != nil {
			log.Warn().Err(err).Str("deviceId", d.DeviceID).Msg("Failed to register discovered device.")
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func renderSync(w io.Writer, rep SyncReport) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	for _, id := range rep.AlreadyRegistered {
		fmt.Fprintf(w, "%s %s\n", green("registered"), id)
	}
	if len(rep.Registered) > 0 {
		for _, id := range rep.Registered {
			fmt.Fprintf(w, "%s %s\n", green("added"), id)
		}
		return
	}
	for _, d := range rep.NewDevices {
		fmt.Fprintf(w, "%s %s (%s, %s %s)\n", yellow("new"), d.DeviceID, d.Name(), d.Platform.SessionName(), d.OSVersion)
	}
	if len(rep.NewDevices) > 0 {
		fmt.Fprintln(w, "\nUse 'mobilectl devices register' or 'mobilectl devices sync --register' to add new devices.")
	}
}
