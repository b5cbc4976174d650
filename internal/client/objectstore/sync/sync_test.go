package sync

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ciyex-org/ciyex-platform-sdk/internal/client/objectstore"
)

// memStore is an in-memory objectstore.Client with optional latency.
type memStore struct {
	mu          sync.Mutex
	objects     map[string][]byte
	uploadDelay time.Duration
	closed      bool
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (m *memStore) Upload(ctx context.Context, key string, content io.Reader) error {
	time.Sleep(m.uploadDelay)
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memStore) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, objectstore.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memStore) Close() error {
	m.closed = true
	return nil
}

func TestNewSyncClientRequiresClient(t *testing.T) {
	_, err := NewSyncClient(SyncConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client is required")
}

func TestSyncDownloadMissingKeepsNotFound(t *testing.T) {
	client, err := NewSyncClient(SyncConfig{Client: newMemStore()})
	require.NoError(t, err)

	_, err = client.Download(context.Background(), "missing")
	assert.True(t, errors.Is(err, objectstore.ErrNotFound))

	// The read lock must have been released.
	require.NoError(t, client.Upload(context.Background(), "missing", strings.NewReader("x")))
}

func TestSyncWriteWaitsForOpenReader(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.objects["k"] = []byte("old")
	client, err := NewSyncClient(SyncConfig{Client: store})
	require.NoError(t, err)

	reader, err := client.Download(ctx, "k")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		_ = client.Upload(ctx, "k", strings.NewReader("new"))
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("upload finished while a reader held the key")
	case <-time.After(20 * time.Millisecond):
	}

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
	require.NoError(t, reader.Close())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("upload did not proceed after reader closed")
	}
}

func TestSyncDifferentKeysRunInParallel(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.uploadDelay = 20 * time.Millisecond
	client, err := NewSyncClient(SyncConfig{Client: store})
	require.NoError(t, err)

	var wg sync.WaitGroup
	start := time.Now()
	for _, key := range []string{"a", "b", "c", "d"} {
		wg.Add(1)
		go func(k string) {
			defer wg.Done()
			assert.NoError(t, client.Upload(ctx, k, strings.NewReader(k)))
		}(key)
	}
	wg.Wait()

	assert.Less(t, time.Since(start), 70*time.Millisecond)
	assert.Len(t, store.objects, 4)
}

func TestSyncCloseForwards(t *testing.T) {
	store := newMemStore()
	client, err := NewSyncClient(SyncConfig{Client: store})
	require.NoError(t, err)

	require.NoError(t, client.Close())
	assert.True(t, store.closed)
}

func TestSyncExclusiveBlocksReaders(t *testing.T) {
	store := newMemStore()
	client, err := NewSyncClient(SyncConfig{Client: store})
	require.NoError(t, err)
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- client.Exclusive("k", func(inner objectstore.Client) error {
			close(entered)
			<-release
			return inner.Upload(ctx, "k", strings.NewReader("v2"))
		})
	}()
	<-entered

	read := make(chan string, 1)
	go func() {
		body, err := client.Download(ctx, "k")
		if err != nil {
			read <- err.Error()
			return
		}
		defer body.Close()
		data, _ := io.ReadAll(body)
		read <- string(data)
	}()

	select {
	case <-read:
		t.Fatal("reader ran while the key was held exclusively")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, "v2", <-read)
}
