package devices

import (
	"github.com/spf13/cobra"

	cmds "github.com/mobilectl/mobilectl/internal/cmd"
	"github.com/mobilectl/mobilectl/internal/cmd/cmdutil"
)

// Command creates the `devices` command.
func Command(preRun func(cmd *cobra.Command, args []string)) *cobra.Command {
	env := &cmdutil.Env{}

	cmd := &cobra.Command{
		Use:              "devices",
		Short:            "Manage the local device registry and browse cloud devices",
		SilenceUsage:     true,
		TraverseChildren: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if preRun != nil {
				preRun(cmd, args)
			}

			e, err := cmdutil.Setup(cmd.Context(), cmds.ConfigFile(cmd))
			if err != nil {
				return err
			}
			*env = *e
			return nil
		},
	}

	cmd.AddCommand(
		ListCommand(env),
		GetCommand(env),
		SyncCommand(env),
		RegisterCommand(env),
		UpdateCommand(env),
		UnregisterCommand(env),
		CapsCommand(env),
	)

	return cmd
}
