package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/ciyex-org/ciyex-platform-sdk/internal/client/objectstore"
	"github.com/ciyex-org/ciyex-platform-sdk/internal/db"
	"github.com/ciyex-org/ciyex-platform-sdk/internal/model"
	"github.com/ciyex-org/ciyex-platform-sdk/pkg/validator"
)

func (s *Service) Exists(ctx context.Context, key string) (bool, error) {
	if _, err := s.lookup(ctx, key); err != nil {
		if model.HasCode(err, model.ErrObjectNotFound.Code()) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Service) Size(ctx context.Context, key string) (int64, error) {
	file, err := s.lookup(ctx, key)
	if err != nil {
		return 0, err
	}
	return file.Size, nil
}

// Open returns the metadata and a body for key. The caller closes the body.
// The metadata is read while the body holds the key's read lock, so it
// describes the bytes being served.
func (s *Service) Open(ctx context.Context, key string) (db.File, io.ReadCloser, error) {
	body, err := s.objectStore.Download(ctx, key)
	if err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			return db.File{}, nil, model.ErrObjectNotFound.Fmt(key)
		}
		return db.File{}, nil, model.ErrStorage.Fmt(err.Error())
	}

	file, err := s.lookup(ctx, key)
	if err != nil {
		body.Close()
		return db.File{}, nil, err
	}
	return file, body, nil
}

type PresignParams struct {
	Key    string        `validate:"required,objectkey"`
	Expiry time.Duration `validate:"gte=1s"`
}

// Presign issues a link that serves key without credentials until it expires.
// Expiry is capped at the configured maximum.
func (s *Service) Presign(ctx context.Context, key string, expiry time.Duration) (db.Link, string, error) {
	if err := validator.Validate(PresignParams{Key: key, Expiry: expiry}); err != nil {
		return db.Link{}, "", err
	}
	if _, err := s.lookup(ctx, key); err != nil {
		return db.Link{}, "", err
	}
	if expiry > s.maxExpiry {
		expiry = s.maxExpiry
	}

	now := s.now()
	link, err := s.storage.CreateLink(ctx, db.CreateLinkParams{
		ID:        uuid.New().String(),
		ObjectKey: key,
		ExpiresAt: now.Add(expiry),
		Now:       now,
	})
	if err != nil {
		return db.Link{}, "", fmt.Errorf("create link: %w", err)
	}

	return link, fmt.Sprintf("%s/api/files-proxy/shared/%s", s.publicURL, link.ID), nil
}

// OpenLink resolves a presigned link id to its object.
func (s *Service) OpenLink(ctx context.Context, id string) (db.File, io.ReadCloser, error) {
	if _, err := uuid.Parse(id); err != nil {
		return db.File{}, nil, model.ErrObjectNotFound.Fmt(id)
	}

	link, err := s.storage.GetLink(ctx, id)
	if err != nil {
		return db.File{}, nil, model.ErrObjectNotFound.Fmt(id)
	}
	if !s.now().Before(link.ExpiresAt) {
		return db.File{}, nil, model.ErrLinkExpired
	}
	return s.Open(ctx, link.ObjectKey)
}

// PurgeExpiredLinks drops links past their expiry.
func (s *Service) PurgeExpiredLinks(ctx context.Context) (int64, error) {
	return s.storage.DeleteExpiredLinks(ctx, s.now())
}
