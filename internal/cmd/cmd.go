package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// Output formats supported by commands that print data.
const (
	JSONOutput = "json"
	TextOutput = "text"
)

// ErrUnknownOutput is returned for an unsupported --out value.
var ErrUnknownOutput = errors.New("unknown output format")

// FullName returns the full command name by concatenating the command names of any parents,
// except the name of the CLI itself.
func FullName(cmd *cobra.Command) string {
	name := ""

	for cmd != nil && cmd.Name() != "mobilectl" {
		// Prepending, because we are looking up names from the bottom up: list < devices < mobilectl
		// which ends up correctly as 'devices list' (sans mobilectl).
		name = fmt.Sprintf("%s %s", cmd.Name(), name)
		cmd = cmd.Parent()
	}

	return strings.TrimSpace(name)
}

// ConfigFile returns the value of the global --config flag, if any.
func ConfigFile(cmd *cobra.Command) string {
	if f := cmd.Flag("config"); f != nil {
		return f.Value.String()
	}
	return ""
}

// CheckOutput validates an --out value.
func CheckOutput(out string) error {
	if out != JSONOutput && out != TextOutput {
		return ErrUnknownOutput
	}
	return nil
}

// RenderJSON writes val to w as indented JSON.
func RenderJSON(w io.Writer, val any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(val)
}
