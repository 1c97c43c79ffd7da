package storage

import (
	"context"
	"io"
)

// Blob is the narrow contract the grading core needs from a path-addressed
// document store.
type Blob interface {
	Put(ctx context.Context, key string, reader io.Reader, size int64) error
	Get(ctx context.Context, key string) (io.ReadCloser, int64, error)
	Exists(ctx context.Context, key string) (bool, error)
}
