package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/trailstore/trailstore/internal/index"
	"github.com/trailstore/trailstore/internal/output"
)

// indexInfo is the per-index report printed by the info command.
type indexInfo struct {
	Path     string `json:"path"`
	DocCount uint64 `json:"doc_count"`
	Error    string `json:"error,omitempty"`
}

func newInfoCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "info <dir>...",
		Short: "Show document counts for one or more indexes",
		Long: `Display basic statistics for each index directory.

The index is opened read-only through the shared resource manager, so
info is safe to run while a writer process holds the index open.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(cmd.Context(), cmd, args, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	return cmd
}

func runInfo(ctx context.Context, cmd *cobra.Command, dirs []string, jsonOutput bool) error {
	mgr, err := newManager()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := mgr.Close(); cerr != nil {
			slog.Warn("failed to close index manager", slog.String("error", cerr.Error()))
		}
	}()

	infos := make([]indexInfo, 0, len(dirs))
	var failed bool
	for _, dir := range dirs {
		infos = append(infos, inspectIndex(ctx, mgr, dir))
		if infos[len(infos)-1].Error != "" {
			failed = true
		}
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(infos); err != nil {
			return err
		}
	} else {
		out := output.New(cmd.OutOrStdout())
		for _, info := range infos {
			if info.Error != "" {
				out.Errorf("%s: %s", info.Path, info.Error)
				continue
			}
			out.Plainf("%s: %d documents", info.Path, info.DocCount)
		}
	}

	if failed {
		return fmt.Errorf("one or more indexes could not be inspected")
	}
	return nil
}

func inspectIndex(ctx context.Context, mgr *index.Manager, dir string) indexInfo {
	info := indexInfo{Path: dir}

	searcher, err := mgr.BorrowSearcher(ctx, dir)
	if err != nil {
		info.Error = err.Error()
		return info
	}
	defer mgr.ReturnSearcher(dir, searcher)

	count, err := searcher.DocCount()
	if err != nil {
		info.Error = err.Error()
		return info
	}
	info.DocCount = count
	return info
}
