package cloud

import (
	"github.com/spf13/cobra"

	cmds "github.com/mobilectl/mobilectl/internal/cmd"
	"github.com/mobilectl/mobilectl/internal/cmd/cmdutil"
)

// Command creates the `cloud` command.
func Command(preRun func(cmd *cobra.Command, args []string)) *cobra.Command {
	env := &cmdutil.Env{}

	cmd := &cobra.Command{
		Use:              "cloud",
		Short:            "Interact with the cloud device farms",
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
		StatusCommand(env),
		DevicesCommand(env),
		UploadCommand(env),
	)

	return cmd
}
