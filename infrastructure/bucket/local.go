// Package bucket implements domain/ports.Bucket against a local
// filesystem directory and against Google Cloud Storage, ported from the
// original gateway's bucket.py (LocalBucket/GCPBucket).
package bucket

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	pkgerrors "github.com/Skryldev/battlegw/pkg/errors"
)

// Local implements ports.Bucket over a directory on disk, adapted from
// the teacher module's infrastructure/storage/local.go (which only
// offered Exists/Size/Remove/TempFile) to the Put/Get/GetURL/Delete
// capability bucket.py's LocalBucket actually exposes.
type Local struct {
	dir       string
	publicURL string // empty means GetURL always errors, matching LocalBucket
}

// NewLocal returns a Local bucket rooted at dir, creating it if absent.
// publicURL may be empty if this bucket is never used to mint public
// URLs (e.g. the metadata bucket).
func NewLocal(dir, publicURL string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating bucket directory %s: %w", dir, err)
	}
	return &Local{dir: dir, publicURL: publicURL}, nil
}

func (b *Local) resolve(key string) string {
	return filepath.Join(b.dir, filepath.FromSlash(key))
}

func (b *Local) Get(_ context.Context, key string) (io.ReadCloser, error) {
	path := b.resolve(key)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, pkgerrors.NewNotFound(key, fmt.Sprintf("key %q not found", key))
	}
	if err != nil {
		return nil, pkgerrors.NewStorageError(key, "failed to open object", err)
	}
	return f, nil
}

func (b *Local) Put(_ context.Context, key string, value io.Reader, public, allowOverwrite bool) error {
	path := b.resolve(key)
	if !allowOverwrite {
		if _, err := os.Stat(path); err == nil {
			return pkgerrors.NewStorageError(key, fmt.Sprintf("key %q already exists", key), nil)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return pkgerrors.NewStorageError(key, "failed to create parent directory", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return pkgerrors.NewStorageError(key, "failed to create object", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, value); err != nil {
		return pkgerrors.NewStorageError(key, "failed to write object", err)
	}
	mode := os.FileMode(0o600)
	if public {
		mode = 0o644
	}
	return os.Chmod(path, mode)
}

func (b *Local) GetURL(_ context.Context, key string) (string, error) {
	if b.publicURL == "" {
		return "", pkgerrors.NewStorageError(key, "public URL is not configured for this bucket", nil)
	}
	return b.publicURL + "/" + key, nil
}

func (b *Local) Delete(_ context.Context, key string) error {
	err := os.Remove(b.resolve(key))
	if err != nil && !os.IsNotExist(err) {
		return pkgerrors.NewStorageError(key, "failed to delete object", err)
	}
	return nil
}
