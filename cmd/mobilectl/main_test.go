package main

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogging(t *testing.T) {
	setupLogging(true, false)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
	setupLogging(false, true)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
	assert.True(t, color.NoColor)
}

func TestRootCommand(t *testing.T) {
	cmd := newRootCommand()

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"run", "exec", "configure", "devices", "cloud", "completion"})

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--version"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "mobilectl version 0.0.0+unknown")
}
