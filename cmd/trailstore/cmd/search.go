package cmd

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trailstore/trailstore/internal/engine"
	"github.com/trailstore/trailstore/internal/output"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	limit  int
	format string // "text", "json"
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <dir> <query>...",
		Short: "Run a full-text query against an index",
		Long: `Search an index directory with a match query.

Examples:
  trailstore search ./events.idx "session terminated"
  trailstore search ./events.idx connection refused --limit 5
  trailstore search ./events.idx timeout --format json`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args[1:], " ")
			return runSearch(cmd.Context(), cmd, args[0], query, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "Maximum number of results")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, dir, query string, opts searchOptions) error {
	mgr, err := newManager()
	if err != nil {
		return err
	}
	defer mgr.Close() //nolint:errcheck // search results already delivered

	searcher, err := mgr.BorrowSearcher(ctx, dir)
	if err != nil {
		return err
	}
	defer mgr.ReturnSearcher(dir, searcher)

	hits, err := searcher.Search(ctx, query, opts.limit)
	if err != nil {
		return err
	}

	if opts.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(hits)
	}

	return printHits(cmd, query, hits)
}

func printHits(cmd *cobra.Command, query string, hits []engine.Hit) error {
	out := output.New(cmd.OutOrStdout())
	if len(hits) == 0 {
		out.Plainf("No results for %q", query)
		return nil
	}

	out.Plainf("Found %d result(s) for %q:", len(hits), query)
	for i, hit := range hits {
		out.Plainf("%3d. %s (score %.4f)", i+1, hit.ID, hit.Score)
	}
	return nil
}
