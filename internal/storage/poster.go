// Package storage keeps uploaded movie posters on local disk under a public
// directory that the HTTP server exposes at /storage.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MaxPosterSize is the largest accepted poster upload (2 MiB).
const MaxPosterSize = 2 << 20

// posterDir is the sub-directory of the storage root holding posters; stored
// paths are relative to the root, e.g. "posters/<uuid>.png".
const posterDir = "posters"

// allowed maps accepted poster mime types to the stored file extension.
var allowed = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

var (
	// ErrPosterTooLarge is returned when the upload exceeds MaxPosterSize.
	ErrPosterTooLarge = errors.New("the poster may not be greater than 2048 kilobytes")
	// ErrPosterType is returned when the content is not a jpeg, png or gif.
	ErrPosterType = errors.New("the poster must be a file of type: jpeg, png, jpg, gif")
)

// PosterStore writes posters below Root and builds their public URLs from
// BaseURL.
type PosterStore struct {
	Root    string
	BaseURL string
}

// NewPosterStore creates the poster directory if needed.
func NewPosterStore(root, appURL string) (*PosterStore, error) {
	if err := os.MkdirAll(filepath.Join(root, posterDir), 0o755); err != nil {
		return nil, fmt.Errorf("create poster dir: %w", err)
	}
	return &PosterStore{Root: root, BaseURL: strings.TrimRight(appURL, "/")}, nil
}

// Save validates and stores the content of r and returns the relative path.
// The type is detected from the bytes, not from the client's file name.
func (s *PosterStore) Save(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxPosterSize+1))
	if err != nil {
		return "", err
	}
	if len(data) > MaxPosterSize {
		return "", ErrPosterTooLarge
	}
	ext, ok := allowed[mimetype.Detect(data).String()]
	if !ok {
		return "", ErrPosterType
	}

	rel := path.Join(posterDir, uuid.NewString()+ext)
	dst := filepath.Join(s.Root, filepath.FromSlash(rel))
	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create poster: %w", err)
	}
	if _, err := io.Copy(out, bytes.NewReader(data)); err != nil {
		out.Close()
		os.Remove(dst)
		return "", fmt.Errorf("write poster: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return "", err
	}
	return rel, nil
}

// Delete removes a stored poster.  Missing files and paths outside the
// poster directory are ignored.
func (s *PosterStore) Delete(rel string) error {
	clean := path.Clean("/" + rel)[1:]
	if rel == "" || !strings.HasPrefix(clean, posterDir+"/") {
		return nil
	}
	err := os.Remove(filepath.Join(s.Root, filepath.FromSlash(clean)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// URL returns the public URL of a stored poster.
func (s *PosterStore) URL(rel string) string {
	return s.BaseURL + "/storage/" + strings.TrimLeft(rel, "/")
}
