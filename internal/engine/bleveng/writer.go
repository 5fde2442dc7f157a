package bleveng

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/gofrs/flock"

	"github.com/trailstore/trailstore/internal/engine"
	trerrors "github.com/trailstore/trailstore/internal/errors"
)

// lockRetryDelay is how often the write-lock acquisition retries while
// waiting out the bounded timeout.
const lockRetryDelay = 250 * time.Millisecond

// writer is the exclusive append handle over one index directory.
type writer struct {
	idx  bleve.Index
	lock *flock.Flock
}

// OpenWriter opens the exclusive writer for dir. The directory's write lock
// is acquired first, waiting up to lockTimeout; an expired wait surfaces as a
// write-lock timeout error. The index is created on first open using the
// analyzer's mapping.
func (e *Engine) OpenWriter(ctx context.Context, dir engine.Directory, a engine.Analyzer, lockTimeout time.Duration) (engine.Writer, error) {
	an, ok := a.(*analyzer)
	if !ok {
		return nil, trerrors.InternalError(fmt.Sprintf("analyzer %q was not created by this engine", a.Name()), nil)
	}

	lock := flock.New(filepath.Join(dir.Path(), lockFileName))
	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	locked, err := lock.TryLockContext(lockCtx, lockRetryDelay)
	if !locked {
		if cerr := ctx.Err(); cerr != nil {
			// Caller cancellation, not a lock timeout.
			return nil, cerr
		}
		if lockCtx.Err() != nil {
			return nil, trerrors.LockTimeoutError(
				fmt.Sprintf("timed out after %s waiting for write lock on %s", lockTimeout, dir.Path()), err).
				WithDetail("path", dir.Path())
		}
		return nil, trerrors.OpenError(fmt.Sprintf("cannot acquire write lock for %s", dir.Path()), err)
	}

	var idx bleve.Index
	if indexExists(dir.Path()) {
		idx, err = bleve.Open(dir.Path())
	} else {
		idx, err = bleve.New(dir.Path(), an.mapping)
	}
	if err != nil {
		_ = lock.Unlock()
		if isCorruptionError(err) {
			return nil, trerrors.CorruptIndexError(fmt.Sprintf("index at %s is corrupt", dir.Path()), err)
		}
		return nil, trerrors.OpenError(fmt.Sprintf("cannot open index writer for %s", dir.Path()), err)
	}

	return &writer{idx: idx, lock: lock}, nil
}

// Append adds or replaces a single record.
func (w *writer) Append(ctx context.Context, id string, doc any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := w.idx.Index(id, doc); err != nil {
		return trerrors.New(trerrors.ErrCodeIndexFailed, fmt.Sprintf("failed to index record %s", id), err)
	}
	return nil
}

// Delete removes a record by id.
func (w *writer) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := w.idx.Delete(id); err != nil {
		return trerrors.New(trerrors.ErrCodeIndexFailed, fmt.Sprintf("failed to delete record %s", id), err)
	}
	return nil
}

// Reader opens a near-real-time view over the writer's current state. The
// returned reader shares the writer's underlying index; it holds no directory
// resources of its own.
func (w *writer) Reader() (engine.Reader, error) {
	return newSharedReader(w.idx), nil
}

// Close flushes pending changes and releases the write lock. The lock is
// released even when the index itself fails to close.
func (w *writer) Close() error {
	closeErr := w.idx.Close()
	if err := w.lock.Unlock(); err != nil && closeErr == nil {
		closeErr = err
	}
	if closeErr != nil {
		return trerrors.New(trerrors.ErrCodeCloseIndex, "failed to close index writer", closeErr)
	}
	return nil
}
