package index

import (
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"

	trerrors "github.com/trailstore/trailstore/internal/errors"
)

// defaultKeyCacheSize bounds the raw-path to canonical-key cache so that
// long-running processes touching many transient index paths do not grow
// without limit.
const defaultKeyCacheSize = 1024

// canonicalKey resolves a caller-supplied index path to the canonical key
// used across both pools. Two spellings of the same directory must produce an
// identical key or the pools would track the same index twice.
func (m *Manager) canonicalKey(path string) (string, error) {
	if path == "" {
		return "", trerrors.ValidationError("index path is empty", nil)
	}

	if key, ok := m.keys.Get(path); ok {
		return key, nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", trerrors.ValidationError("cannot resolve index path "+path, err)
	}
	key := filepath.Clean(abs)

	// Symlinked paths resolve to their target when possible so that a
	// symlink and its target share one pool entry. A broken link still
	// gets a stable key from the absolute path alone.
	if resolved, err := filepath.EvalSymlinks(key); err == nil {
		key = resolved
	}

	m.keys.Add(path, key)
	return key, nil
}

// newKeyCache builds the bounded canonical-key cache.
func newKeyCache(size int) (*lru.Cache[string, string], error) {
	if size <= 0 {
		size = defaultKeyCacheSize
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, trerrors.InternalError("failed to create key cache", err)
	}
	return cache, nil
}
