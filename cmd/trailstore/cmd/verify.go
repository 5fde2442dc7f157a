package cmd

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/trailstore/trailstore/internal/index"
	"github.com/trailstore/trailstore/internal/output"
)

// verifyResult is the outcome of checking a single index directory.
type verifyResult struct {
	path string
	docs uint64
	err  error
}

func newVerifyCmd() *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "verify <dir>...",
		Short: "Check that indexes open and answer queries",
		Long: `Verify that each index directory is healthy.

Every index is opened read-only and asked for its document count. A
corrupt or unreadable index is reported as failed without stopping the
checks for the remaining directories.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd.Context(), cmd, args, concurrency)
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Number of indexes to check in parallel")

	return cmd
}

func runVerify(ctx context.Context, cmd *cobra.Command, dirs []string, concurrency int) error {
	mgr, err := newManager()
	if err != nil {
		return err
	}
	defer mgr.Close() //nolint:errcheck // per-index results already reported

	var mu sync.Mutex
	results := make([]verifyResult, 0, len(dirs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, dir := range dirs {
		dir := dir
		g.Go(func() error {
			res := checkIndex(gctx, mgr, dir)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].path < results[j].path })

	out := output.New(cmd.OutOrStdout())
	var failed int
	for _, res := range results {
		if res.err != nil {
			failed++
			out.Plainf("FAIL %s: %v", res.path, res.err)
			continue
		}
		out.Plainf("OK   %s (%d documents)", res.path, res.docs)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d indexes failed verification", failed, len(dirs))
	}
	out.Successf("All %d indexes verified", len(dirs))
	return nil
}

func checkIndex(ctx context.Context, mgr *index.Manager, dir string) verifyResult {
	res := verifyResult{path: dir}

	searcher, err := mgr.BorrowSearcher(ctx, dir)
	if err != nil {
		res.err = err
		return res
	}
	defer mgr.ReturnSearcher(dir, searcher)

	res.docs, res.err = searcher.DocCount()
	return res
}
