package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoveCmd_ForceDeletesIndex(t *testing.T) {
	// Given: an existing index
	dir := filepath.Join(t.TempDir(), "events.idx")
	seedIndex(t, dir, map[string]auditEvent{
		"ev-1": {Event: "flow committed", Component: "scheduler"},
	})

	// When: removing with --force
	cmd := newRemoveCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir, "--force"})
	err := cmd.Execute()

	// Then: the directory should be gone
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Removed index")
	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr), "Index directory should be deleted")
}

func TestRemoveCmd_KeepFilesReleasesHandlesOnly(t *testing.T) {
	// Given: an existing index
	dir := filepath.Join(t.TempDir(), "events.idx")
	seedIndex(t, dir, map[string]auditEvent{
		"ev-1": {Event: "flow committed", Component: "scheduler"},
	})

	// When: removing with --keep-files
	cmd := newRemoveCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir, "--keep-files"})
	err := cmd.Execute()

	// Then: the files should survive
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Released all handles")
	_, statErr := os.Stat(dir)
	assert.NoError(t, statErr, "Index directory should still exist")
}

func TestRemoveCmd_PromptAbortsByDefault(t *testing.T) {
	// Given: an existing index and a declining answer on stdin
	dir := filepath.Join(t.TempDir(), "events.idx")
	seedIndex(t, dir, map[string]auditEvent{
		"ev-1": {Event: "flow committed", Component: "scheduler"},
	})

	cmd := newRemoveCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetIn(strings.NewReader("n\n"))
	cmd.SetArgs([]string{dir})

	// When: executing without --force
	err := cmd.Execute()

	// Then: nothing should be deleted
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Aborted")
	_, statErr := os.Stat(dir)
	assert.NoError(t, statErr, "Index directory should still exist")
}

func TestRemoveCmd_MissingIndexFails(t *testing.T) {
	// Given: a path with no index
	dir := filepath.Join(t.TempDir(), "missing.idx")

	// When: removing with --force
	cmd := newRemoveCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{dir, "--force"})
	err := cmd.Execute()

	// Then: it should fail without creating anything
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no index found")
}
