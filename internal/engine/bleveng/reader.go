package bleveng

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/blevesearch/bleve/v2"

	"github.com/trailstore/trailstore/internal/engine"
	trerrors "github.com/trailstore/trailstore/internal/errors"
)

// reader is a refcounted read view of one index.
//
// The count starts at one for the opener and drops on Close. Once it reaches
// zero the view is dead and the pool layer will discard any cache entry
// holding it. Standalone readers own their read-only index handle;
// writer-derived readers share the writer's and close nothing.
type reader struct {
	idx     bleve.Index
	refs    atomic.Int32
	ownsIdx bool
}

func newSharedReader(idx bleve.Index) *reader {
	r := &reader{idx: idx, ownsIdx: false}
	r.refs.Store(1)
	return r
}

// OpenReader opens a standalone read-only view of dir. It must only be used
// while no writer holds the directory open.
func (e *Engine) OpenReader(dir engine.Directory) (engine.Reader, error) {
	idx, err := bleve.OpenUsing(dir.Path(), map[string]interface{}{
		"read_only": true,
	})
	if err != nil {
		if isCorruptionError(err) {
			return nil, trerrors.CorruptIndexError(fmt.Sprintf("index at %s is corrupt", dir.Path()), err)
		}
		return nil, trerrors.OpenError(fmt.Sprintf("cannot open index reader for %s", dir.Path()), err)
	}

	r := &reader{idx: idx, ownsIdx: true}
	r.refs.Store(1)
	return r, nil
}

// RefCount reports the number of live references to this view.
func (r *reader) RefCount() int {
	return int(r.refs.Load())
}

// Searcher returns the query surface bound to this view.
func (r *reader) Searcher() engine.Searcher {
	return &searcher{r: r}
}

// Close drops one reference. When the last reference is dropped a standalone
// reader closes its underlying index; a writer-derived reader leaves the
// writer's index alone. Extra closes are no-ops.
func (r *reader) Close() error {
	if r.refs.Add(-1) > 0 {
		return nil
	}
	if !r.ownsIdx {
		return nil
	}
	if err := r.idx.Close(); err != nil {
		return trerrors.New(trerrors.ErrCodeCloseIndex, "failed to close index reader", err)
	}
	return nil
}

// searcher runs queries against one reader's view.
type searcher struct {
	r *reader
}

// Search runs a match query and returns up to limit hits.
func (s *searcher) Search(ctx context.Context, query string, limit int) ([]engine.Hit, error) {
	if query == "" {
		return nil, trerrors.New(trerrors.ErrCodeQueryEmpty, "query is empty", nil)
	}
	if s.r.RefCount() <= 0 {
		return nil, trerrors.OpenError("index reader is closed", nil)
	}

	matchQuery := bleve.NewMatchQuery(query)
	req := bleve.NewSearchRequest(matchQuery)
	req.Size = limit

	result, err := s.r.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, trerrors.New(trerrors.ErrCodeSearchFailed, "search failed", err)
	}

	hits := make([]engine.Hit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		hits = append(hits, engine.Hit{ID: hit.ID, Score: hit.Score})
	}
	return hits, nil
}

// DocCount reports the number of documents visible to this view.
func (s *searcher) DocCount() (uint64, error) {
	if s.r.RefCount() <= 0 {
		return 0, trerrors.OpenError("index reader is closed", nil)
	}
	return s.r.idx.DocCount()
}
