package storage

import (
	"context"
	"errors"
	"io"
)

var ErrNotFound = errors.New("storage: object not found")

// ObjectStore is opaque key/value blob storage.
//
// Keys are content-addressed by the caller (derived from the recording
// reference); overwrite conflicts are not expected.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}
