package sync

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/ciyex-org/ciyex-platform-sdk/internal/client/objectstore"
	"github.com/ciyex-org/ciyex-platform-sdk/internal/utils/ioutil"
)

// SyncConfig configures the per-key locking wrapper.
type SyncConfig struct {
	// Client is the underlying objectstore client to wrap with locking.
	Client objectstore.Client
}

// SyncClient serializes writers per key while letting readers of the same key
// proceed in parallel. A reader holds its lock until the returned body is closed,
// so an overwrite or delete never races a download in flight.
type SyncClient struct {
	client objectstore.Client
	locks  sync.Map // map[string]*sync.RWMutex
}

// NewSyncClient wraps cfg.Client with per-key locks.
func NewSyncClient(cfg SyncConfig) (*SyncClient, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("client is required")
	}

	return &SyncClient{
		client: cfg.Client,
	}, nil
}

// getLock returns the lock for key, creating it on first use.
func (c *SyncClient) getLock(key string) *sync.RWMutex {
	lock, _ := c.locks.LoadOrStore(key, &sync.RWMutex{})
	return lock.(*sync.RWMutex)
}

// Upload replaces the object at key under the key's write lock.
func (c *SyncClient) Upload(ctx context.Context, key string, content io.Reader) error {
	return c.Exclusive(key, func(store objectstore.Client) error {
		return store.Upload(ctx, key, content)
	})
}

// Download opens key under a read lock that is released when the body is closed.
func (c *SyncClient) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	lock := c.getLock(key)
	lock.RLock()

	file, err := c.client.Download(ctx, key)
	if err != nil {
		lock.RUnlock()
		return nil, fmt.Errorf("download %s: %w", key, err)
	}

	return ioutil.NewLockedReadCloser(file, lock), nil
}

// Delete removes key under the key's write lock.
func (c *SyncClient) Delete(ctx context.Context, key string) error {
	return c.Exclusive(key, func(store objectstore.Client) error {
		return store.Delete(ctx, key)
	})
}

// Exclusive runs fn while holding key's write lock. fn receives the unwrapped
// client and must not call back into c for the same key.
func (c *SyncClient) Exclusive(key string, fn func(store objectstore.Client) error) error {
	lock := c.getLock(key)
	lock.Lock()
	defer lock.Unlock()

	return fn(c.client)
}

// Close closes the wrapped client when it holds resources (e.g. a Storj project).
func (c *SyncClient) Close() error {
	if closer, ok := c.client.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
