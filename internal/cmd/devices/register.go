package devices

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mobilectl/mobilectl/internal/caps"
	cmds "github.com/mobilectl/mobilectl/internal/cmd"
	"github.com/mobilectl/mobilectl/internal/cmd/cmdutil"
	"github.com/mobilectl/mobilectl/internal/devices"
)

func requireID(_ *cobra.Command, args []string) error {
	if len(args) == 0 || args[0] == "" {
		return errors.New("no device ID specified")
	}
	return nil
}

func RegisterCommand(env *cmdutil.Env) *cobra.Command {
	var d devices.Device
	var platform, typ string
	var inactive bool
	var capFlags map[string]string

	cmd := &cobra.Command{
		Use:          "register <device-id>",
		Short:        "Adds a local device to the registry",
		Example:      "mobilectl devices register pixel-6 --device-id 1A2B3C4D --platform android --os-version 14",
		SilenceUsage: true,
		Args:         requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			d.Platform = devices.Platform(platform)
			d.Type = devices.Type(typ)
			d.Active = !inactive
			d.Capabilities = parseCaps(capFlags)

			registered, err := env.Registry.Register(args[0], d)
			if err != nil {
				return fmt.Errorf("failed to register device: %w", err)
			}
			return cmds.RenderJSON(cmd.OutOrStdout(), registered)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&d.DeviceID, "device-id", "", "Hardware ID (serial or UDID) of the device.")
	flags.StringVarP(&d.FriendlyName, "name", "n", "", "Friendly name of the device. Defaults to the ID.")
	flags.StringVar(&platform, "platform", "", "Platform of the device. Options: android, ios.")
	flags.StringVar(&typ, "type", string(devices.Physical), "Type of the device. Options: physical, emulator, simulator.")
	flags.StringVar(&d.Model, "model", "", "Model of the device.")
	flags.StringVar(&d.OSVersion, "os-version", "", "OS version of the device.")
	flags.StringVar(&d.Notes, "notes", "", "Free form notes.")
	flags.BoolVar(&d.MitmCertInstalled, "mitm-cert", false, "Whether the proxy certificate is installed on the device.")
	flags.BoolVar(&inactive, "inactive", false, "Register the device as inactive.")
	flags.StringToStringVar(&capFlags, "cap", nil, "Session capability, e.g. --cap noReset=true. Replaces the default capabilities.")

	return cmd
}

func UpdateCommand(env *cmdutil.Env) *cobra.Command {
	var set map[string]string
	var capFlags map[string]string

	cmd := &cobra.Command{
		Use:          "update <device-id>",
		Short:        "Updates a registered device",
		Example:      "mobilectl devices update pixel-6 --set active=false --set os_version=15 --cap noReset=false",
		SilenceUsage: true,
		Args:         requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := make(map[string]any, len(set)+1)
			for k, v := range set {
				patch[k] = v
			}
			if len(capFlags) > 0 {
				cur, ok := env.Registry.Get(args[0])
				if !ok || cur.ID != args[0] {
					cur = devices.Device{}
				}
				patch["capabilities"] = map[string]any(caps.Merge(cur.Capabilities, parseCaps(capFlags)))
			}
			if len(patch) == 0 {
				return errors.New("nothing to update")
			}

			updated, err := env.Registry.Update(args[0], patch)
			if err != nil {
				return fmt.Errorf("failed to update device: %w", err)
			}
			return cmds.RenderJSON(cmd.OutOrStdout(), updated)
		},
	}

	flags := cmd.Flags()
	flags.StringToStringVar(&set, "set", nil, "Field to update, using the registry field names, e.g. --set friendly_name=Pixel.")
	flags.StringToStringVar(&capFlags, "cap", nil, "Session capability to add or override, e.g. --cap noReset=true.")

	return cmd
}

func UnregisterCommand(env *cmdutil.Env) *cobra.Command {
	cmd := &cobra.Command{
		Use: "unregister <device-id>",
		Aliases: []string{
			"rm",
		},
		Short:        "Removes a device from the registry",
		SilenceUsage: true,
		Args:         requireID,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.Registry.Unregister(args[0]); err != nil {
				return fmt.Errorf("failed to unregister device: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Device %s unregistered.\n", args[0])
			return nil
		},
	}

	return cmd
}

// parseCaps converts flag values into capabilities. Booleans and integers are converted, anything else is
// kept as a string.
func parseCaps(flags map[string]string) caps.Capabilities {
	if len(flags) == 0 {
		return nil
	}
	c := make(caps.Capabilities, len(flags))
	for k, v := range flags {
		c[caps.Normalize(k)] = parseValue(v)
	}
	return c
}

func parseValue(v string) any {
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	if i, err := strconv.Atoi(v); err == nil {
		return i
	}
	return v
}
