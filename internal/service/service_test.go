package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ciyex-org/ciyex-platform-sdk/internal/client/objectstore"
	"github.com/ciyex-org/ciyex-platform-sdk/internal/client/objectstore/local"
	"github.com/ciyex-org/ciyex-platform-sdk/internal/db"
	"github.com/ciyex-org/ciyex-platform-sdk/internal/model"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	dir := t.TempDir()

	conn, err := db.Open(filepath.Join(dir, "gateway.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	store, err := local.NewClient(local.LocalConfig{Root: filepath.Join(dir, "objects")})
	require.NoError(t, err)

	svc, err := New(store, conn, Options{PublicURL: "http://gw.test/", MaxExpiry: time.Hour})
	require.NoError(t, err)
	return svc
}

func storeString(t *testing.T, svc *Service, key, body string) db.File {
	t.Helper()
	file, err := svc.Store(context.Background(), StoreParams{
		Key:              key,
		ContentType:      "text/plain",
		OrgID:            "org1",
		SourceService:    "telehealth",
		ReferenceID:      null.StringFrom("session123"),
		OriginalFilename: null.StringFrom("notes.txt"),
		Body:             strings.NewReader(body),
	})
	require.NoError(t, err)
	return file
}

func TestStoreRecordsMetadata(t *testing.T) {
	svc := newTestService(t)

	file := storeString(t, svc, "notes/org1/a.txt", "hello")
	assert.Equal(t, int64(5), file.Size)
	assert.Len(t, file.Hash, 64)
	assert.Equal(t, "org1", file.OrgID)
	assert.Equal(t, "session123", file.ReferenceID.String)
	assert.NotEmpty(t, file.ID)

	replaced := storeString(t, svc, "notes/org1/a.txt", "hello world")
	assert.Equal(t, file.ID, replaced.ID)
	assert.Equal(t, int64(11), replaced.Size)
	assert.NotEqual(t, file.Hash, replaced.Hash)
}

func TestStoreRejectsBadKeys(t *testing.T) {
	svc := newTestService(t)

	for _, key := range []string{"", "../etc/passwd", "/abs", "a//b"} {
		_, err := svc.Store(context.Background(), StoreParams{
			Key: key, ContentType: "text/plain", SourceService: "unknown", Body: strings.NewReader("x"),
		})
		assert.True(t, model.HasCode(err, model.ErrValidation.Code()), key)
	}
}

func TestLookups(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	storeString(t, svc, "a/b.txt", "12345678")

	ok, err := svc.Exists(ctx, "a/b.txt")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Exists(ctx, "a/missing.txt")
	require.NoError(t, err)
	assert.False(t, ok)

	size, err := svc.Size(ctx, "a/b.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(8), size)

	_, err = svc.Size(ctx, "a/missing.txt")
	assert.True(t, model.HasCode(err, model.ErrObjectNotFound.Code()))

	_, body, err := svc.Open(ctx, "a/b.txt")
	require.NoError(t, err)
	data, _ := io.ReadAll(body)
	body.Close()
	assert.Equal(t, "12345678", string(data))
}

func TestPresignAndLinks(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	storeString(t, svc, "a/b.txt", "shared")

	now := time.Now()
	svc.now = func() time.Time { return now }

	link, url, err := svc.Presign(ctx, "a/b.txt", 10*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "http://gw.test/api/files-proxy/shared/"+link.ID, url)
	assert.Equal(t, now.Add(time.Hour).Unix(), link.ExpiresAt.Unix())

	_, body, err := svc.OpenLink(ctx, link.ID)
	require.NoError(t, err)
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, body)
	body.Close()
	assert.Equal(t, "shared", buf.String())

	svc.now = func() time.Time { return now.Add(2 * time.Hour) }
	_, _, err = svc.OpenLink(ctx, link.ID)
	assert.True(t, model.HasCode(err, model.ErrLinkExpired.Code()))

	purged, err := svc.PurgeExpiredLinks(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	_, _, err = svc.Presign(ctx, "a/missing.txt", time.Minute)
	assert.True(t, model.HasCode(err, model.ErrObjectNotFound.Code()))
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	storeString(t, svc, "a/b.txt", "bye")

	require.NoError(t, svc.Delete(ctx, "a/b.txt"))

	ok, err := svc.Exists(ctx, "a/b.txt")
	require.NoError(t, err)
	assert.False(t, ok)

	err = svc.Delete(ctx, "a/b.txt")
	assert.True(t, model.HasCode(err, model.ErrObjectNotFound.Code()))
}

// refusingDelete stores normally but fails every delete.
type refusingDelete struct {
	objectstore.Client
}

func (refusingDelete) Delete(context.Context, string) error {
	return errors.New("bucket is read-only")
}

func TestDeleteCommitsMetadataBeforeBytes(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	conn, err := db.Open(filepath.Join(dir, "gateway.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	store, err := local.NewClient(local.LocalConfig{Root: filepath.Join(dir, "objects")})
	require.NoError(t, err)

	svc, err := New(refusingDelete{Client: store}, conn, Options{})
	require.NoError(t, err)

	storeString(t, svc, "a/b.txt", "bye")
	require.NoError(t, svc.Delete(ctx, "a/b.txt"))

	ok, err := svc.Exists(ctx, "a/b.txt")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = svc.Open(ctx, "a/b.txt")
	assert.True(t, model.HasCode(err, model.ErrObjectNotFound.Code()))
}

func TestStoreAndDeleteStayConsistent(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	const key = "race/obj.txt"

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Store(ctx, StoreParams{
				Key:           key,
				ContentType:   "text/plain",
				SourceService: "test",
				Body:          strings.NewReader(fmt.Sprintf("v%d", i)),
			})
			assert.NoError(t, err)
		}(i)
		go func() {
			defer wg.Done()
			err := svc.Delete(ctx, key)
			if err != nil {
				assert.True(t, model.HasCode(err, model.ErrObjectNotFound.Code()), err)
			}
		}()
	}
	wg.Wait()

	ok, err := svc.Exists(ctx, key)
	require.NoError(t, err)
	if !ok {
		return
	}

	file, body, err := svc.Open(ctx, key)
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, file.Size, int64(len(data)))
}
