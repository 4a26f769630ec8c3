package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smallest valid PNG: signature plus IHDR chunk header is enough to sniff
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func newStore(t *testing.T) *PosterStore {
	t.Helper()
	s, err := NewPosterStore(t.TempDir(), "http://localhost:8080/")
	require.NoError(t, err)
	return s
}

func TestSaveAndDelete(t *testing.T) {
	s := newStore(t)

	rel, err := s.Save(bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rel, "posters/"), rel)
	assert.Equal(t, ".png", filepath.Ext(rel))

	full := filepath.Join(s.Root, filepath.FromSlash(rel))
	_, err = os.Stat(full)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/storage/"+rel, s.URL(rel))

	require.NoError(t, s.Delete(rel))
	_, err = os.Stat(full)
	assert.True(t, os.IsNotExist(err))

	// deleting twice is fine
	assert.NoError(t, s.Delete(rel))
}

func TestSaveRejectsType(t *testing.T) {
	s := newStore(t)
	_, err := s.Save(strings.NewReader("just some text"))
	assert.ErrorIs(t, err, ErrPosterType)
}

func TestSaveRejectsSize(t *testing.T) {
	s := newStore(t)
	big := append(append([]byte{}, pngHeader...), make([]byte, MaxPosterSize)...)
	_, err := s.Save(bytes.NewReader(big))
	assert.ErrorIs(t, err, ErrPosterTooLarge)
}

func TestDeleteIgnoresForeignPaths(t *testing.T) {
	s := newStore(t)
	outside := filepath.Join(s.Root, "keep.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))

	assert.NoError(t, s.Delete("../keep.txt"))
	assert.NoError(t, s.Delete("posters/../keep.txt"))
	_, err := os.Stat(outside)
	assert.NoError(t, err)
}
