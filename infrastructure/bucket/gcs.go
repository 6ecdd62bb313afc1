package bucket

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"

	pkgerrors "github.com/Skryldev/battlegw/pkg/errors"
)

// GCS implements ports.Bucket over a Google Cloud Storage bucket, ported
// from the original gateway's GCPBucket. This is the one dependency in
// this module not literally importable from an example repo's go.mod
// (see DESIGN.md): the original's only non-local bucket backend is GCS,
// and cloud.google.com/go/storage is the real library for it.
type GCS struct {
	client *storage.Client
	bucket *storage.BucketHandle
	name   string
}

// NewGCS opens bucketName using application-default credentials.
func NewGCS(ctx context.Context, bucketName string) (*GCS, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating GCS client: %w", err)
	}
	return &GCS{client: client, bucket: client.Bucket(bucketName), name: bucketName}, nil
}

func (b *GCS) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	r, err := b.bucket.Object(key).NewReader(ctx)
	if err == storage.ErrObjectNotExist {
		return nil, pkgerrors.NewNotFound(key, fmt.Sprintf("key %q not found in bucket %s", key, b.name))
	}
	if err != nil {
		return nil, pkgerrors.NewStorageError(key, "failed to open object", err)
	}
	return r, nil
}

func (b *GCS) Put(ctx context.Context, key string, value io.Reader, public, allowOverwrite bool) error {
	obj := b.bucket.Object(key)
	if !allowOverwrite {
		if _, err := obj.Attrs(ctx); err == nil {
			return pkgerrors.NewStorageError(key, fmt.Sprintf("key %q already exists", key), nil)
		}
	}
	w := obj.NewWriter(ctx)
	if _, err := io.Copy(w, value); err != nil {
		_ = w.Close()
		return pkgerrors.NewStorageError(key, "failed to upload object", err)
	}
	if err := w.Close(); err != nil {
		return pkgerrors.NewStorageError(key, "failed to finalize object upload", err)
	}
	if public {
		if err := obj.ACL().Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
			return pkgerrors.NewStorageError(key, "failed to make object public", err)
		}
	}
	return nil
}

func (b *GCS) GetURL(_ context.Context, key string) (string, error) {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", b.name, key), nil
}

func (b *GCS) Delete(ctx context.Context, key string) error {
	err := b.bucket.Object(key).Delete(ctx)
	if err != nil && err != storage.ErrObjectNotExist {
		return pkgerrors.NewStorageError(key, "failed to delete object", err)
	}
	return nil
}
