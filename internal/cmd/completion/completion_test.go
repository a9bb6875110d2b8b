package completion

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			root := &cobra.Command{Use: "mobilectl"}
			root.AddCommand(Command())

			var out bytes.Buffer
			root.SetOut(&out)
			root.SetArgs([]string{"completion", shell})
			require.NoError(t, root.Execute())
			assert.Contains(t, out.String(), "mobilectl")
		})
	}
}

func TestCommand_UnknownShell(t *testing.T) {
	root := &cobra.Command{Use: "mobilectl", SilenceErrors: true, SilenceUsage: true}
	root.AddCommand(Command())
	root.SetArgs([]string{"completion", "tcsh"})
	assert.Error(t, root.Execute())
}
