package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trailstore/trailstore/internal/engine/bleveng"
	"github.com/trailstore/trailstore/internal/index"
)

type auditEvent struct {
	Event     string `json:"event"`
	Component string `json:"component"`
}

// seedIndex creates a real index at dir with the given events keyed by id.
func seedIndex(t *testing.T, dir string, events map[string]auditEvent) {
	t.Helper()

	mgr, err := index.NewManager(bleveng.New())
	require.NoError(t, err)
	defer func() { require.NoError(t, mgr.Close()) }()

	ctx := context.Background()
	writer, err := mgr.BorrowWriter(ctx, dir)
	require.NoError(t, err)
	defer mgr.ReturnWriter(dir, writer)

	for id, ev := range events {
		require.NoError(t, writer.Append(ctx, id, ev))
	}
}
