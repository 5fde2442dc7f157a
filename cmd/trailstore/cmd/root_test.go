package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_HelpListsSubcommands(t *testing.T) {
	// Given: the root command
	cmd := NewRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	// When: requesting help
	err := cmd.Execute()

	// Then: every subcommand should be listed
	require.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, "info")
	assert.Contains(t, output, "search")
	assert.Contains(t, output, "verify")
	assert.Contains(t, output, "remove")
	assert.Contains(t, output, "version")
}

func TestRootCmd_UnknownCommandFails(t *testing.T) {
	// Given: the root command
	cmd := NewRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"frobnicate"})

	// When: running an unknown subcommand
	err := cmd.Execute()

	// Then: cobra should reject it
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}
