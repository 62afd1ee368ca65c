package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveAndRead(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	rel, err := store.Save("term-1/./week_03.csv", []byte("Section,Mon\n"))
	require.NoError(t, err)
	assert.Equal(t, "term-1/week_03.csv", rel)

	data, err := store.Read(rel)
	require.NoError(t, err)
	assert.Equal(t, "Section,Mon\n", string(data))

	_, err = store.Read("term-1/missing.csv")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLocalStorageRejectsEscapes(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	for _, path := range []string{"../secret", "/etc/passwd", "a/../../b", ""} {
		_, err := store.Save(path, []byte("x"))
		assert.ErrorIs(t, err, ErrOutsideRoot, path)
	}
}

func TestLocalStorageCleanupOlderThan(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	_, err = store.Save("term-1/old.pdf", []byte("old"))
	require.NoError(t, err)
	_, err = store.Save("term-1/new.pdf", []byte("new"))
	require.NoError(t, err)
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "term-1", "old.pdf"), past, past))

	deleted, err := store.CleanupOlderThan(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"term-1/old.pdf"}, deleted)
	_, err = store.Read("term-1/new.pdf")
	assert.NoError(t, err)
}
