// Package index implements the shared resource manager for on-disk full-text
// index handles.
//
// The underlying search engine exposes single-writer, refcounted-reader
// semantics that are unsafe to use directly from concurrent callers. The
// Manager turns those single-owner handles into a safe shared pool: it tracks
// at most one writer per index with a manual reference count, caches
// standalone readers while they report themselves live, and derives
// non-cacheable reader snapshots from the writer whenever one is open.
//
// All handles remain owned by the Manager; callers only borrow them and must
// issue exactly one return per borrow.
package index

import (
	"context"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/trailstore/trailstore/internal/engine"
)

// DefaultLockTimeout is the bounded wait for the engine's exclusive write
// lock during writer creation.
const DefaultLockTimeout = 300 * time.Second

// Option configures a Manager.
type Option func(*Manager)

// WithLockTimeout overrides the write-lock wait used when opening writers.
func WithLockTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.lockTimeout = d
		}
	}
}

// WithKeyCacheSize overrides the size of the canonical-key cache.
func WithKeyCacheSize(size int) Option {
	return func(m *Manager) {
		m.keyCacheSize = size
	}
}

// Manager is the sole owner of all engine-native index handles.
//
// A single mutex guards both pools. Every public operation, including slow
// opens, runs inside that critical section: check-then-act sequences such as
// "cache miss, so open" stay atomic with respect to every other borrow and
// return, at the cost of serializing operations on unrelated keys.
type Manager struct {
	mu     sync.Mutex
	engine engine.Engine

	// writers holds at most one refcounted entry per canonical key.
	writers map[string]*writerEntry

	// searchers holds the active searcher entries per canonical key,
	// cacheable and writer-derived alike.
	searchers map[string][]*searcherEntry

	keys         *lru.Cache[string, string]
	keyCacheSize int
	lockTimeout  time.Duration
}

// NewManager creates a Manager over the given engine.
func NewManager(eng engine.Engine, opts ...Option) (*Manager, error) {
	m := &Manager{
		engine:      eng,
		writers:     make(map[string]*writerEntry),
		searchers:   make(map[string][]*searcherEntry),
		lockTimeout: DefaultLockTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}

	keys, err := newKeyCache(m.keyCacheSize)
	if err != nil {
		return nil, err
	}
	m.keys = keys
	return m, nil
}

// BorrowWriter returns the writer for the index at path, opening it on first
// use. Every successful call must be matched by exactly one ReturnWriter.
func (m *Manager) BorrowWriter(ctx context.Context, path string) (engine.Writer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key, err := m.canonicalKey(path)
	if err != nil {
		return nil, err
	}
	slog.Debug("borrowing index writer", slog.String("index", key))

	if entry, ok := m.writers[key]; ok {
		entry.count++
		slog.Debug("providing existing index writer",
			slog.String("index", key),
			slog.Int("count", entry.count))
		return entry.writer, nil
	}

	entry, err := m.openWriter(ctx, key)
	if err != nil {
		return nil, err
	}
	m.writers[key] = entry

	slog.Debug("providing new index writer", slog.String("index", key))
	return entry.writer, nil
}

// openWriter opens directory, analyzer, and writer for key, unwinding
// whatever was already open if any step fails. Caller holds the lock.
func (m *Manager) openWriter(ctx context.Context, key string) (*writerEntry, error) {
	dir, err := m.engine.OpenDirectory(key)
	if err != nil {
		return nil, err
	}

	analyzer, err := m.engine.NewAnalyzer()
	if err != nil {
		unwindOpen(err, dir)
		return nil, err
	}

	writer, err := m.engine.OpenWriter(ctx, dir, analyzer, m.lockTimeout)
	if err != nil {
		unwindOpen(err, analyzer, dir)
		return nil, err
	}

	return &writerEntry{writer: writer, analyzer: analyzer, dir: dir, count: 1}, nil
}

// unwindOpen closes partially opened sub-resources in reverse open order
// after a failed open chain, attaching close failures to the original error
// where possible.
func unwindOpen(cause error, closers ...interface{ Close() error }) {
	if err := closeAll(closers...); err != nil {
		slog.Warn("failed to unwind partially opened index resources",
			slog.String("cause", cause.Error()),
			slog.String("error", err.Error()))
	}
}

// ReturnWriter returns a writer previously obtained from BorrowWriter.
// The writer and its analyzer and directory are closed once the last
// outstanding borrow is returned. Close failures are logged, never returned;
// from the caller's point of view a return always succeeds.
func (m *Manager) ReturnWriter(path string, w engine.Writer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key, err := m.canonicalKey(path)
	if err != nil {
		slog.Warn("cannot resolve index path for returned writer",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return
	}
	slog.Debug("returning index writer", slog.String("index", key))

	entry, ok := m.writers[key]
	if !ok {
		// Nothing tracked for this key: close the stray handle directly
		// so at least the underlying resources are released.
		slog.Warn("returned index writer is not tracked, possible resource leak",
			slog.String("index", key))
		if cerr := w.Close(); cerr != nil {
			slog.Warn("failed to close untracked index writer",
				slog.String("index", key),
				slog.String("error", cerr.Error()))
		}
		return
	}

	if entry.count <= 1 {
		slog.Debug("closing index writer", slog.String("index", key))
		delete(m.writers, key)
		if cerr := entry.close(); cerr != nil {
			slog.Warn("failed to close index writer",
				slog.String("index", key),
				slog.String("error", cerr.Error()))
		}
		return
	}

	entry.count--
	slog.Debug("decremented index writer count",
		slog.String("index", key),
		slog.Int("count", entry.count))
}

// BorrowSearcher returns a searcher over the index at path.
//
// If a live cacheable searcher is resident it is reused. Otherwise a new one
// is opened: standalone and cacheable when no writer is open for the index,
// or derived from the live writer (and non-cacheable) when one is — reading
// the directory directly while a writer holds it open is not supported by
// the engine. Expired cacheable entries discovered during the scan are closed
// and purged. Every successful call must be matched by exactly one
// ReturnSearcher.
func (m *Manager) BorrowSearcher(ctx context.Context, path string) (engine.Searcher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key, err := m.canonicalKey(path)
	if err != nil {
		return nil, err
	}
	slog.Debug("borrowing index searcher", slog.String("index", key))

	if s, ok := m.cachedSearcher(key); ok {
		slog.Debug("providing cached index searcher", slog.String("index", key))
		return s, nil
	}

	entry, ok := m.writers[key]
	if !ok {
		return m.openCacheableSearcher(key)
	}

	// The new searcher's lifetime depends on the writer's directory
	// staying open, so it holds a reference on the writer until returned.
	entry.count++
	slog.Debug("creating searcher from live index writer",
		slog.String("index", key),
		slog.Int("writer_count", entry.count))

	reader, err := entry.writer.Reader()
	if err != nil {
		entry.count--
		return nil, err
	}

	se := &searcherEntry{searcher: reader.Searcher(), reader: reader, cacheable: false}
	m.searchers[key] = append(m.searchers[key], se)
	return se.searcher, nil
}

// cachedSearcher scans the cache list for key, purging entries whose readers
// no longer report themselves live, and returns a live cacheable searcher if
// one remains. Caller holds the lock.
func (m *Manager) cachedSearcher(key string) (engine.Searcher, bool) {
	cached := m.searchers[key]
	if len(cached) == 0 {
		return nil, false
	}

	var (
		found engine.Searcher
		ok    bool
		kept  = cached[:0]
	)
	for _, se := range cached {
		if !se.cacheable {
			kept = append(kept, se)
			continue
		}
		if !se.live() {
			slog.Debug("purging expired cached searcher", slog.String("index", key))
			if err := se.close(); err != nil {
				slog.Debug("failed to close expired searcher",
					slog.String("index", key),
					slog.String("error", err.Error()))
			}
			continue
		}
		if !ok {
			found, ok = se.searcher, true
		}
		kept = append(kept, se)
	}
	m.searchers[key] = kept
	return found, ok
}

// openCacheableSearcher opens a standalone directory reader for key and
// caches it. Caller holds the lock and has verified no writer is open.
func (m *Manager) openCacheableSearcher(key string) (engine.Searcher, error) {
	dir, err := m.engine.OpenDirectory(key)
	if err != nil {
		return nil, err
	}
	slog.Debug("no writer open, creating cacheable searcher", slog.String("index", key))

	reader, err := m.engine.OpenReader(dir)
	if err != nil {
		unwindOpen(err, dir)
		return nil, err
	}

	se := &searcherEntry{searcher: reader.Searcher(), reader: reader, dir: dir, cacheable: true}
	m.searchers[key] = append(m.searchers[key], se)
	return se.searcher, nil
}

// ReturnSearcher returns a searcher previously obtained from BorrowSearcher.
// Cacheable searchers stay resident for future borrows. Writer-derived
// searchers are closed and release their reference on the writer, closing the
// writer too if that was the last reference.
func (m *Manager) ReturnSearcher(path string, s engine.Searcher) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key, err := m.canonicalKey(path)
	if err != nil {
		slog.Warn("cannot resolve index path for returned searcher",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return
	}
	slog.Debug("returning index searcher", slog.String("index", key))

	cached, ok := m.searchers[key]
	if !ok {
		slog.Warn("returned index searcher has no tracked entries, possible resource leak",
			slog.String("index", key))
		return
	}

	for i, se := range cached {
		if se.searcher != s {
			continue
		}

		if se.cacheable {
			// Leave it resident for the next borrow.
			slog.Debug("index searcher is cached, leaving open", slog.String("index", key))
			return
		}

		// Writer-derived searcher: discard the snapshot and release
		// the reference taken on the writer at borrow time.
		m.searchers[key] = append(cached[:i], cached[i+1:]...)
		m.releaseWriterRef(key)

		if cerr := se.close(); cerr != nil {
			slog.Warn("failed to close index searcher",
				slog.String("index", key),
				slog.String("error", cerr.Error()))
		}
		return
	}
}

// releaseWriterRef mirrors ReturnWriter's decrement-or-close logic for the
// reference a writer-derived searcher holds. Caller holds the lock.
func (m *Manager) releaseWriterRef(key string) {
	entry, ok := m.writers[key]
	if !ok {
		return
	}

	if entry.count <= 1 {
		slog.Debug("writer count decremented to zero, closing writer", slog.String("index", key))
		delete(m.writers, key)
		if err := entry.close(); err != nil {
			slog.Warn("failed to close index writer",
				slog.String("index", key),
				slog.String("error", err.Error()))
		}
		return
	}

	entry.count--
	slog.Debug("decremented index writer count",
		slog.String("index", key),
		slog.Int("count", entry.count))
}

// RemoveIndex forcefully invalidates every handle tracked for the index at
// path, regardless of outstanding borrows. Callers holding borrowed handles
// for that index must not use them afterward. Close failures are logged and
// swallowed; removal itself never fails.
//
// Only entries for the target index are touched; searchers for other indexes
// stay resident.
func (m *Manager) RemoveIndex(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key, err := m.canonicalKey(path)
	if err != nil {
		slog.Warn("cannot resolve index path for removal",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return
	}
	slog.Info("removing index", slog.String("index", key))

	if entry, ok := m.writers[key]; ok {
		delete(m.writers, key)
		if cerr := entry.close(); cerr != nil {
			slog.Warn("failed to close index writer during removal",
				slog.String("index", key),
				slog.String("error", cerr.Error()))
		}
	}

	for _, se := range m.searchers[key] {
		if cerr := se.close(); cerr != nil {
			slog.Warn("failed to close index searcher during removal",
				slog.String("index", key),
				slog.String("error", cerr.Error()))
		}
	}
	delete(m.searchers, key)
}

// Close tears down every tracked writer and searcher across all keys,
// regardless of outstanding borrows. Every resource is attempted even after
// failures; if any close fails, a single *CloseError carrying the first
// failure plus all subsequent ones is returned.
//
// The pools are emptied, not marked closed: a later borrow transparently
// reopens resources from the filesystem.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	slog.Debug("closing index manager")

	var agg errAggregator
	for key, entry := range m.writers {
		if err := entry.close(); err != nil {
			agg.add(err)
			slog.Warn("failed to close index writer during shutdown",
				slog.String("index", key),
				slog.String("error", err.Error()))
		}
	}
	for key, list := range m.searchers {
		for _, se := range list {
			if err := se.close(); err != nil {
				agg.add(err)
				slog.Warn("failed to close index searcher during shutdown",
					slog.String("index", key),
					slog.String("error", err.Error()))
			}
		}
	}

	m.writers = make(map[string]*writerEntry)
	m.searchers = make(map[string][]*searcherEntry)
	m.keys.Purge()

	return agg.err()
}

// WriterCount reports the reference count tracked for the index at path, or
// zero when no writer is open. Intended for diagnostics and tests.
func (m *Manager) WriterCount(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	key, err := m.canonicalKey(path)
	if err != nil {
		return 0
	}
	if entry, ok := m.writers[key]; ok {
		return entry.count
	}
	return 0
}
