package index

import (
	"context"
	"sync"
	"time"

	"github.com/trailstore/trailstore/internal/engine"
)

// fakeEngine is an in-memory engine.Engine that records every open and close
// so tests can assert the manager's resource bookkeeping.
type fakeEngine struct {
	mu sync.Mutex

	openDirErr     error
	newAnalyzerErr error
	openWriterErr  error
	openReaderErr  error

	dirsOpened    int
	writersOpened int
	readersOpened int
}

type fakeDir struct {
	path   string
	mu     sync.Mutex
	closed bool
}

func (d *fakeDir) Path() string { return d.path }

func (d *fakeDir) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

type fakeAnalyzer struct {
	closed bool
}

func (a *fakeAnalyzer) Name() string { return "fake" }

func (a *fakeAnalyzer) Close() error {
	a.closed = true
	return nil
}

type fakeWriter struct {
	mu       sync.Mutex
	path     string
	closed   bool
	closeErr error
	readers  []*fakeReader
}

func (w *fakeWriter) Append(ctx context.Context, id string, doc any) error { return nil }

func (w *fakeWriter) Delete(ctx context.Context, id string) error { return nil }

func (w *fakeWriter) Reader() (engine.Reader, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	r := &fakeReader{refs: 1}
	w.readers = append(w.readers, r)
	return r, nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return w.closeErr
}

type fakeReader struct {
	mu       sync.Mutex
	refs     int
	closed   bool
	closeErr error
	searcher *fakeSearcher
}

func (r *fakeReader) RefCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refs
}

func (r *fakeReader) Searcher() engine.Searcher {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.searcher == nil {
		r.searcher = &fakeSearcher{r: r}
	}
	return r.searcher
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.refs = 0
	return r.closeErr
}

// expire simulates the engine dropping the reader's last reference, the
// external liveness signal the manager reacts to.
func (r *fakeReader) expire() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refs = 0
}

type fakeSearcher struct {
	r *fakeReader
}

func (s *fakeSearcher) Search(ctx context.Context, query string, limit int) ([]engine.Hit, error) {
	return nil, nil
}

func (s *fakeSearcher) DocCount() (uint64, error) { return 0, nil }

func (e *fakeEngine) OpenDirectory(path string) (engine.Directory, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.openDirErr != nil {
		return nil, e.openDirErr
	}
	e.dirsOpened++
	return &fakeDir{path: path}, nil
}

func (e *fakeEngine) NewAnalyzer() (engine.Analyzer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.newAnalyzerErr != nil {
		return nil, e.newAnalyzerErr
	}
	return &fakeAnalyzer{}, nil
}

func (e *fakeEngine) OpenWriter(ctx context.Context, dir engine.Directory, a engine.Analyzer, lockTimeout time.Duration) (engine.Writer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.openWriterErr != nil {
		return nil, e.openWriterErr
	}
	e.writersOpened++
	return &fakeWriter{path: dir.Path()}, nil
}

func (e *fakeEngine) OpenReader(dir engine.Directory) (engine.Reader, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.openReaderErr != nil {
		return nil, e.openReaderErr
	}
	e.readersOpened++
	return &fakeReader{refs: 1}, nil
}

var _ engine.Engine = (*fakeEngine)(nil)
