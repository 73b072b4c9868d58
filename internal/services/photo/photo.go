// Package photo normalises uploaded profile photos and stores them on the
// local filesystem.
package photo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

var (
	ErrInvalidImage = errors.New("photo: invalid image")
	ErrInvalidKey   = errors.New("photo: invalid key")
	ErrTooLarge     = errors.New("photo: image too large")
)

const (
	// MaxDimension bounds the width and height of a stored photo.
	MaxDimension = 512
	ContentType  = "image/jpeg"
	jpegQuality  = 85
)

// Key returns a fresh storage key for a photo owned by accountID.
func Key(accountID string) string {
	return "accounts/" + accountID + "/" + uuid.NewString() + ".jpg"
}

// Normalize decodes an uploaded image and re-encodes it as a JPEG that fits
// inside MaxDimension square. Reads past maxBytes fail with ErrTooLarge; a
// non-positive maxBytes disables the limit.
func Normalize(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes > 0 {
		r = io.LimitReader(r, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading photo: %w", err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, ErrTooLarge
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	resized := imaging.Fit(img, MaxDimension, MaxDimension, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("encoding photo: %w", err)
	}
	return buf.Bytes(), nil
}

// DiskStore keeps photos under a root directory.
type DiskStore struct {
	root string
}

func NewDiskStore(root string) (*DiskStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving upload dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}
	return &DiskStore{root: abs}, nil
}

// Save writes r to key, replacing any existing file atomically.
func (d *DiskStore) Save(ctx context.Context, key string, r io.Reader, contentType string) error {
	path, err := d.path(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating photo dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("writing photo: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing photo: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("storing photo: %w", err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (d *DiskStore) Delete(ctx context.Context, key string) error {
	path, err := d.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting photo: %w", err)
	}
	return nil
}

func (d *DiskStore) path(key string) (string, error) {
	if key == "" || filepath.IsAbs(key) || strings.Contains(key, "\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	path := filepath.Join(d.root, filepath.FromSlash(key))
	rel, err := filepath.Rel(d.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return path, nil
}
