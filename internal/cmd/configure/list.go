package configure

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/mobilectl/mobilectl/internal/credentials"
	"github.com/mobilectl/mobilectl/internal/devices"
	"github.com/mobilectl/mobilectl/internal/tables"
)

func ListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use: "list",
		Aliases: []string{
			"ls",
		},
		Short: "Showing the current credentials of every device farm",
		Run: func(cmd *cobra.Command, args []string) {
			printCreds(credentials.Get)
		},
	}

	return cmd
}

func printCreds(get func(devices.Tag) credentials.Credentials) {
	t := table.NewWriter()
	t.SetStyle(tables.DefaultStyle)
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Provider", "Username", "Access Key", "Source"})

	for _, tag := range devices.Tags {
		c := get(tag)
		if !c.IsValid() {
			t.AppendRow(table.Row{tag, "-", "-", "not configured"})
			continue
		}
		t.AppendRow(table.Row{tag, c.Username, mask(c.AccessKey), c.Source})
	}
	t.Render()
	fmt.Println()
}

// mask hides all but the last four characters of s.
func mask(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}
