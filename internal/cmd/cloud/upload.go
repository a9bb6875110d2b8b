package cloud

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	cmds "github.com/mobilectl/mobilectl/internal/cmd"
	"github.com/mobilectl/mobilectl/internal/cmd/cmdutil"
	"github.com/mobilectl/mobilectl/internal/devices"
	"github.com/mobilectl/mobilectl/internal/human"
	"github.com/mobilectl/mobilectl/internal/progress"
	"github.com/mobilectl/mobilectl/internal/resolver"
)

// UploadResult is the JSON document printed by `cloud upload`.
type UploadResult struct {
	Provider devices.Tag `json:"provider"`
	App      string      `json:"app"`
}

func UploadCommand(env *cmdutil.Env) *cobra.Command {
	var out string
	var provider string

	cmd := &cobra.Command{
		Use:     "upload filename",
		Short:   "Uploads an app file to a device farm and returns the reference to use as the app capability",
		Example: "mobilectl cloud upload app-debug.apk --provider browserstack",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || args[0] == "" {
				return errors.New("no filename specified")
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cmds.CheckOutput(out); err != nil {
				return err
			}
			tag := devices.Tag(provider)
			p, ok := env.Cloud.Provider(tag)
			if !ok {
				return fmt.Errorf("unknown provider %q", provider)
			}

			finfo, err := os.Stat(args[0])
			if err != nil {
				return fmt.Errorf("failed to inspect file: %w", err)
			}

			ctx := cmd.Context()
			if err := p.Initialize(ctx); err != nil {
				return fmt.Errorf("%w: %v", &resolver.ProviderNotConfiguredError{Provider: tag}, err)
			}

			log.Info().Str("provider", provider).Str("size", human.Bytes(finfo.Size())).Msgf("Uploading %s.", finfo.Name())
			bar := progress.NewBar(finfo.Size(), out == cmds.TextOutput, "Uploading")
			app, err := p.UploadApp(progress.WithBar(ctx, bar), args[0])
			if err != nil {
				return fmt.Errorf("failed to upload file: %w", err)
			}
			_ = bar.Finish()

			switch out {
			case cmds.TextOutput:
				fmt.Fprintln(cmd.OutOrStdout(), "Success! Use this app reference in your capabilities: "+app)
			case cmds.JSONOutput:
				if err := cmds.RenderJSON(cmd.OutOrStdout(), UploadResult{Provider: tag, App: app}); err != nil {
					return fmt.Errorf("failed to render output: %w", err)
				}
			}

			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&out, "out", "o", "text", "Output format to the console. Options: text, json.")
	flags.StringVarP(&provider, "provider", "p", "", "Device farm to upload to. Options: browserstack, saucelabs, lambdatest, aws.")
	_ = cmd.MarkFlagRequired("provider")

	return cmd
}
