package index

import (
	"github.com/trailstore/trailstore/internal/engine"
)

// writerEntry tracks the single writer open for one index, together with the
// resources whose lifetimes are tied to it and the number of outstanding
// logical borrowers.
type writerEntry struct {
	writer   engine.Writer
	analyzer engine.Analyzer
	dir      engine.Directory

	// count is 1 for the initial open plus one per outstanding writer
	// borrow and per outstanding writer-derived searcher borrow.
	count int
}

// close releases the writer, analyzer, and directory, in that order,
// aggregating failures.
func (e *writerEntry) close() error {
	return closeAll(e.writer, e.analyzer, e.dir)
}

// searcherEntry tracks one searcher lent out for an index.
//
// Cacheable entries wrap a standalone directory reader and stay resident
// across borrow/return cycles until their reader stops reporting itself live.
// Non-cacheable entries wrap a snapshot of a live writer and are discarded on
// return; dir is nil for those since the writer owns the directory.
type searcherEntry struct {
	searcher  engine.Searcher
	reader    engine.Reader
	dir       engine.Directory
	cacheable bool
}

// live reports whether the entry's reader still has consumers according to
// the engine's own reference counting.
func (e *searcherEntry) live() bool {
	return e.reader.RefCount() > 0
}

// close releases the reader and, when owned, the directory.
func (e *searcherEntry) close() error {
	return closeAll(e.reader, e.dir)
}
