package db

import (
	"context"
	"time"
)

const createLink = `INSERT INTO links (id, object_key, expires_at, created_at) VALUES (?, ?, ?, ?)`

type CreateLinkParams struct {
	ID        string
	ObjectKey string
	ExpiresAt time.Time
	Now       time.Time
}

func (q *Queries) CreateLink(ctx context.Context, arg CreateLinkParams) (Link, error) {
	if _, err := q.db.ExecContext(ctx, createLink, arg.ID, arg.ObjectKey, arg.ExpiresAt.Unix(), arg.Now.Unix()); err != nil {
		return Link{}, err
	}
	return Link{
		ID:        arg.ID,
		ObjectKey: arg.ObjectKey,
		ExpiresAt: time.Unix(arg.ExpiresAt.Unix(), 0).UTC(),
		CreatedAt: time.Unix(arg.Now.Unix(), 0).UTC(),
	}, nil
}

const getLink = `SELECT id, object_key, expires_at, created_at FROM links WHERE id = ?`

func (q *Queries) GetLink(ctx context.Context, id string) (Link, error) {
	var (
		l                    Link
		expiresAt, createdAt int64
	)
	err := q.db.QueryRowContext(ctx, getLink, id).Scan(&l.ID, &l.ObjectKey, &expiresAt, &createdAt)
	l.ExpiresAt = time.Unix(expiresAt, 0).UTC()
	l.CreatedAt = time.Unix(createdAt, 0).UTC()
	return l, err
}

const deleteLinksByKey = `DELETE FROM links WHERE object_key = ?`

func (q *Queries) DeleteLinksByKey(ctx context.Context, objectKey string) error {
	_, err := q.db.ExecContext(ctx, deleteLinksByKey, objectKey)
	return err
}

const deleteExpiredLinks = `DELETE FROM links WHERE expires_at <= ?`

func (q *Queries) DeleteExpiredLinks(ctx context.Context, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteExpiredLinks, now.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
