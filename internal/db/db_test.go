package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := Open(filepath.Join(t.TempDir(), "meta.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestMigrateIsRepeatable(t *testing.T) {
	conn := openTestDB(t)
	require.NoError(t, Migrate(conn))
}

func TestUpsertKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	q := New(openTestDB(t))
	first := time.Unix(1_700_000_000, 0)

	f, err := q.UpsertFile(ctx, UpsertFileParams{
		ID:            "id-1",
		ObjectKey:     "org/a.txt",
		ContentType:   "text/plain",
		Size:          3,
		Hash:          "h1",
		SourceService: "unknown",
		Now:           first,
	})
	require.NoError(t, err)
	assert.Equal(t, "id-1", f.ID)
	assert.False(t, f.ReferenceID.Valid)

	f, err = q.UpsertFile(ctx, UpsertFileParams{
		ID:            "id-2",
		ObjectKey:     "org/a.txt",
		ContentType:   "application/pdf",
		Size:          10,
		Hash:          "h2",
		SourceService: "billing",
		ReferenceID:   null.StringFrom("inv-9"),
		Now:           first.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "id-1", f.ID)
	assert.Equal(t, int64(10), f.Size)
	assert.Equal(t, "inv-9", f.ReferenceID.String)
	assert.Equal(t, first.UTC(), f.CreatedAt)
	assert.Equal(t, first.Add(time.Hour).UTC(), f.UpdatedAt)

	got, err := q.GetFileByKey(ctx, "org/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", got.ContentType)

	n, err := q.DeleteFileByKey(ctx, "org/a.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = q.GetFileByKey(ctx, "org/a.txt")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestExpiredLinksArePurged(t *testing.T) {
	ctx := context.Background()
	q := New(openTestDB(t))
	now := time.Unix(1_700_000_000, 0)

	_, err := q.CreateLink(ctx, CreateLinkParams{ID: "old", ObjectKey: "k", ExpiresAt: now.Add(-time.Minute), Now: now})
	require.NoError(t, err)
	_, err = q.CreateLink(ctx, CreateLinkParams{ID: "new", ObjectKey: "k", ExpiresAt: now.Add(time.Minute), Now: now})
	require.NoError(t, err)

	n, err := q.DeleteExpiredLinks(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	l, err := q.GetLink(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Minute).UTC(), l.ExpiresAt)

	require.NoError(t, q.DeleteLinksByKey(ctx, "k"))
	_, err = q.GetLink(ctx, "new")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
