package db

import (
	"context"
	"time"

	"github.com/guregu/null/v6"
)

const fileColumns = `id, object_key, content_type, size, hash, org_id, source_service, reference_id, original_filename, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (File, error) {
	var (
		f                    File
		createdAt, updatedAt int64
	)
	err := row.Scan(
		&f.ID,
		&f.ObjectKey,
		&f.ContentType,
		&f.Size,
		&f.Hash,
		&f.OrgID,
		&f.SourceService,
		&f.ReferenceID,
		&f.OriginalFilename,
		&createdAt,
		&updatedAt,
	)
	f.CreatedAt = time.Unix(createdAt, 0).UTC()
	f.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return f, err
}

const upsertFile = `
INSERT INTO files (` + fileColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (object_key) DO UPDATE SET
    content_type      = excluded.content_type,
    size              = excluded.size,
    hash              = excluded.hash,
    org_id            = excluded.org_id,
    source_service    = excluded.source_service,
    reference_id      = excluded.reference_id,
    original_filename = excluded.original_filename,
    updated_at        = excluded.updated_at
RETURNING ` + fileColumns

type UpsertFileParams struct {
	ID               string
	ObjectKey        string
	ContentType      string
	Size             int64
	Hash             string
	OrgID            string
	SourceService    string
	ReferenceID      null.String
	OriginalFilename null.String
	Now              time.Time
}

// UpsertFile records an object's metadata, replacing any previous record for
// the same key while keeping its ID and creation time.
func (q *Queries) UpsertFile(ctx context.Context, arg UpsertFileParams) (File, error) {
	now := arg.Now.Unix()
	row := q.db.QueryRowContext(ctx, upsertFile,
		arg.ID,
		arg.ObjectKey,
		arg.ContentType,
		arg.Size,
		arg.Hash,
		arg.OrgID,
		arg.SourceService,
		arg.ReferenceID,
		arg.OriginalFilename,
		now,
		now,
	)
	return scanFile(row)
}

const getFileByKey = `SELECT ` + fileColumns + ` FROM files WHERE object_key = ?`

func (q *Queries) GetFileByKey(ctx context.Context, objectKey string) (File, error) {
	return scanFile(q.db.QueryRowContext(ctx, getFileByKey, objectKey))
}

const deleteFileByKey = `DELETE FROM files WHERE object_key = ?`

func (q *Queries) DeleteFileByKey(ctx context.Context, objectKey string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteFileByKey, objectKey)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
