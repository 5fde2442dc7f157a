package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalKey_SpellingsOfSamePathShareOneEntry(t *testing.T) {
	// Given: one index directory addressed three different ways
	eng := &fakeEngine{}
	m := newTestManager(t, eng)
	dir := t.TempDir()

	spellings := []string{
		dir,
		dir + string(os.PathSeparator),
		filepath.Join(dir, ".", "."),
	}

	// When: borrowing a writer under each spelling
	w0, err := m.BorrowWriter(context.Background(), spellings[0])
	require.NoError(t, err)
	for _, p := range spellings[1:] {
		w, err := m.BorrowWriter(context.Background(), p)
		require.NoError(t, err)
		// Then: every spelling resolves to the same tracked writer
		assert.Same(t, w0.(*fakeWriter), w.(*fakeWriter))
	}

	assert.Equal(t, 3, m.WriterCount(dir))
	assert.Equal(t, 1, eng.writersOpened)
}

func TestCanonicalKey_EmptyPathIsRejected(t *testing.T) {
	m := newTestManager(t, &fakeEngine{})

	_, err := m.BorrowWriter(context.Background(), "")
	assert.Error(t, err)

	_, err = m.BorrowSearcher(context.Background(), "")
	assert.Error(t, err)
}

func TestCanonicalKey_SymlinkResolvesToTarget(t *testing.T) {
	// Given: a symlink pointing at the index directory
	eng := &fakeEngine{}
	m := newTestManager(t, eng)
	target := t.TempDir()
	link := filepath.Join(t.TempDir(), "idx-link")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	// When: borrowing through the target and through the link
	w1, err := m.BorrowWriter(context.Background(), target)
	require.NoError(t, err)
	w2, err := m.BorrowWriter(context.Background(), link)
	require.NoError(t, err)

	// Then: both resolve to one entry
	assert.Same(t, w1.(*fakeWriter), w2.(*fakeWriter))
	assert.Equal(t, 1, eng.writersOpened)
}

func TestNewKeyCache_RejectsNothing(t *testing.T) {
	cache, err := newKeyCache(0)
	require.NoError(t, err)
	assert.NotNil(t, cache)

	cache, err = newKeyCache(16)
	require.NoError(t, err)
	assert.NotNil(t, cache)
}
