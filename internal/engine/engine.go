// Package engine defines the capabilities the index manager consumes from a
// full-text search engine: directories, analyzers, writers, and readers.
//
// The manager never constructs these itself; it only borrows them from an
// Engine and tracks their lifetimes. The production implementation lives in
// the bleveng subpackage.
package engine

import (
	"context"
	"time"
)

// Directory represents one physical index location on disk.
// It is opened by path and must be closed exactly once.
type Directory interface {
	// Path returns the absolute path this directory was opened for.
	Path() string
	Close() error
}

// Analyzer is the tokenization configuration for a writer.
// Its lifecycle is tied 1:1 to the writer it was created for.
type Analyzer interface {
	// Name identifies the analyzer configuration.
	Name() string
	Close() error
}

// Writer is the exclusive append/mutate handle over a directory.
// At most one writer may be open per directory; opening one acquires a
// cross-process write lock with a bounded wait.
type Writer interface {
	// Append adds or replaces a single record in the index.
	Append(ctx context.Context, id string, doc any) error

	// Delete removes a record by id.
	Delete(ctx context.Context, id string) error

	// Reader opens a near-real-time view over the writer's current state.
	// This is the only supported way to read an index while a writer holds
	// its directory open.
	Reader() (Reader, error)

	// Close flushes pending changes and releases the write lock.
	Close() error
}

// Reader is a point-in-time read view of an index.
//
// RefCount is the engine-owned liveness signal: a reader whose count has
// dropped to zero has been closed by its consumers and must not be reused.
// The manager only observes this signal, it never maintains it.
type Reader interface {
	RefCount() int
	Searcher() Searcher
	Close() error
}

// Searcher is the query surface bound to one Reader.
type Searcher interface {
	// Search runs a match query and returns up to limit hits.
	Search(ctx context.Context, query string, limit int) ([]Hit, error)

	// DocCount reports the number of documents visible to this view.
	DocCount() (uint64, error)
}

// Hit is a single search result.
type Hit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Engine opens the raw resources the manager pools.
type Engine interface {
	// OpenDirectory opens (creating if necessary) the index location at path.
	OpenDirectory(path string) (Directory, error)

	// NewAnalyzer builds the analyzer configuration used by writers.
	NewAnalyzer() (Analyzer, error)

	// OpenWriter opens the exclusive writer for dir using analyzer.
	// It waits up to lockTimeout for the directory's write lock before
	// failing. The writer does not take ownership of dir or analyzer.
	OpenWriter(ctx context.Context, dir Directory, analyzer Analyzer, lockTimeout time.Duration) (Writer, error)

	// OpenReader opens a standalone read-only view of dir.
	// It must only be used while no writer holds the directory open.
	OpenReader(dir Directory) (Reader, error)
}
