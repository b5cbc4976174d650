package objectstore

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Download when the key holds no object.
var ErrNotFound = errors.New("object not found")

// Client stores raw object bytes by key.
type Client interface {
	Upload(ctx context.Context, key string, content io.Reader) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete is a no-op for missing keys.
	Delete(ctx context.Context, key string) error
}
