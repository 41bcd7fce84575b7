package storage

import (
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	path, err := s.UploadFromBytes([]byte("%PDF-1.3"), "orcamento_ORC-000001.pdf", "quotes")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(path, "quotes"+string(filepath.Separator)))
	assert.Contains(t, filepath.Base(path), "orcamento_ORC-000001_")
	assert.Equal(t, ".pdf", filepath.Ext(path))
	assert.True(t, s.Exists(path))

	f, err := s.Download(path)
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	f.Close()
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3", string(data))

	require.NoError(t, s.Delete(path))
	assert.False(t, s.Exists(path))
}

func TestLocalStorageRejectsEscapingPaths(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = s.Download("../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidPath)
	assert.ErrorIs(t, s.Delete("/tmp/x"), ErrInvalidPath)
	assert.False(t, s.Exists("../../x"))
}
