package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/trailstore/trailstore/internal/output"
)

func newRemoveCmd() *cobra.Command {
	var force bool
	var keepFiles bool

	cmd := &cobra.Command{
		Use:   "remove <dir>",
		Short: "Close all handles for an index and delete it",
		Long: `Remove an index directory.

Any writers or searchers the manager tracks for the directory are
force-closed first, so the on-disk files can be deleted cleanly. Use
--keep-files to release the handles without deleting anything.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd, args[0], force, keepFiles)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&keepFiles, "keep-files", false, "Release handles but keep the index files on disk")

	return cmd
}

func runRemove(cmd *cobra.Command, dir string, force, keepFiles bool) error {
	out := output.New(cmd.OutOrStdout())

	absPath, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return fmt.Errorf("no index found at %s", absPath)
	}

	if !force && !keepFiles {
		out.Statusf("", "Remove index at %s? [y/N]", absPath)
		var answer string
		if _, err := fmt.Fscanln(cmd.InOrStdin(), &answer); err != nil || (answer != "y" && answer != "Y") {
			out.Plain("Aborted")
			return nil
		}
	}

	mgr, err := newManager()
	if err != nil {
		return err
	}
	defer mgr.Close() //nolint:errcheck // RemoveIndex already released the handles

	mgr.RemoveIndex(absPath)

	if keepFiles {
		out.Successf("Released all handles for %s", absPath)
		return nil
	}

	if err := os.RemoveAll(absPath); err != nil {
		return fmt.Errorf("failed to delete index files: %w", err)
	}

	out.Successf("Removed index at %s", absPath)
	return nil
}
