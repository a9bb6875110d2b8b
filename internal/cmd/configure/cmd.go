package configure

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mobilectl/mobilectl/internal/credentials"
	"github.com/mobilectl/mobilectl/internal/devices"
	"github.com/mobilectl/mobilectl/internal/msg"
)

var (
	configureUse     = "configure"
	configureShort   = "Configure your device farm credentials"
	configureLong    = `Persist locally the credentials of a cloud device farm vendor`
	configureExample = "mobilectl configure --provider browserstack -u jane -a 1234abcd"
)

// Options holds the configure flags.
type Options struct {
	Provider  string
	Username  string
	AccessKey string
}

// Command creates the `configure` command
func Command() *cobra.Command {
	var opts Options

	cmd := &cobra.Command{
		Use:          configureUse,
		Short:        configureShort,
		Long:         configureLong,
		Example:      configureExample,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := Run(opts); err != nil {
				log.Err(err).Msg("failed to execute configure command")
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.Provider, "provider", "p", "", "device farm vendor. Options: browserstack, saucelabs, lambdatest, aws.")
	cmd.Flags().StringVarP(&opts.Username, "username", "u", "", "username, or the access key ID for aws")
	cmd.Flags().StringVarP(&opts.AccessKey, "accessKey", "a", "", "access key, or the secret access key for aws")

	cmd.AddCommand(ListCommand())

	return cmd
}

// interactiveConfiguration expect user to manually type-in its credentials
func interactiveConfiguration(tag devices.Tag) (devices.Tag, credentials.Credentials, error) {
	fmt.Println(msg.CredentialsMessage)
	println("") // visual paragraph break

	if tag == "" {
		var selection string
		options := make([]string, len(devices.Tags))
		for i, t := range devices.Tags {
			options[i] = string(t)
		}
		prompt := &survey.Select{
			Message: "Select a device farm",
			Options: options,
		}
		if err := survey.AskOne(prompt, &selection); err != nil {
			return "", credentials.Credentials{}, err
		}
		tag = devices.Tag(selection)
	}

	creds := credentials.Get(tag)
	qs := []*survey.Question{
		{
			Name: "username",
			Prompt: &survey.Input{
				Message: fmt.Sprintf("%s username", tag),
				Default: creds.Username,
			},
			Validate: required("a username"),
		},
		{
			Name: "accessKey",
			Prompt: &survey.Password{
				Message: fmt.Sprintf("%s access key", tag),
			},
			Validate: required("an access key"),
		},
	}

	if err := survey.Ask(qs, &creds); err != nil {
		return tag, creds, err
	}
	println() // visual paragraph break
	return tag, creds, nil
}

func required(what string) survey.Validator {
	return func(val interface{}) error {
		str, ok := val.(string)
		if !ok {
			return fmt.Errorf("invalid value for %s", what)
		}
		if strings.TrimSpace(str) == "" {
			return fmt.Errorf("you need to type %s", what)
		}
		return nil
	}
}

// Run starts the configure command
func Run(opts Options) error {
	tag := devices.Tag(opts.Provider)
	if tag != "" && !tag.Valid() {
		return fmt.Errorf("unknown provider %q", opts.Provider)
	}

	var creds credentials.Credentials
	var err error

	if opts.Username == "" && opts.AccessKey == "" {
		if !isTerm(os.Stdin.Fd()) {
			return errors.New("no credentials provided and no terminal to prompt for them")
		}
		tag, creds, err = interactiveConfiguration(tag)
	} else {
		if tag == "" {
			return errors.New("--provider is required when passing credentials as flags")
		}
		creds = credentials.Credentials{
			Username:  opts.Username,
			AccessKey: opts.AccessKey,
		}
	}
	if err != nil {
		return err
	}

	if !creds.IsValid() {
		log.Error().Msg("The provided credentials appear to be invalid and will NOT be saved.")
		return fmt.Errorf("invalid credentials provided")
	}
	if err := credentials.ToFile(tag, creds); err != nil {
		return fmt.Errorf("unable to save credentials: %s", err)
	}
	println("You're all set!")
	return nil
}

func isTerm(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
