package service

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/guregu/null/v6"
	"github.com/zeebo/blake3"

	"github.com/ciyex-org/ciyex-platform-sdk/internal/client/objectstore"
	"github.com/ciyex-org/ciyex-platform-sdk/internal/db"
	"github.com/ciyex-org/ciyex-platform-sdk/internal/model"
	"github.com/ciyex-org/ciyex-platform-sdk/internal/utils/ioutil"
	"github.com/ciyex-org/ciyex-platform-sdk/pkg/validator"
)

type StoreParams struct {
	Key              string `validate:"required,max=1024,objectkey"`
	ContentType      string `validate:"required,max=255"`
	OrgID            string `validate:"max=128"`
	SourceService    string `validate:"required,max=128"`
	ReferenceID      null.String
	OriginalFilename null.String `validate:"omitempty,max=255"`
	Body             io.Reader
}

// Store writes the body to the object store, then records its metadata. Both
// steps run under the key's write lock so a concurrent Delete sees either the
// old object or the new one. Storing to an existing key replaces the object.
func (s *Service) Store(ctx context.Context, params StoreParams) (db.File, error) {
	if err := validator.Validate(params); err != nil {
		return db.File{}, err
	}

	var file db.File
	err := s.objectStore.Exclusive(params.Key, func(store objectstore.Client) error {
		hasher := blake3.New()
		counter := ioutil.NewCountingReader(io.TeeReader(params.Body, hasher))

		if err := store.Upload(ctx, params.Key, counter); err != nil {
			return model.ErrStorage.Fmt(err.Error())
		}

		var err error
		file, err = s.storage.UpsertFile(ctx, db.UpsertFileParams{
			ID:               uuid.New().String(),
			ObjectKey:        params.Key,
			ContentType:      params.ContentType,
			Size:             counter.Count(),
			Hash:             hex.EncodeToString(hasher.Sum(nil)),
			OrgID:            params.OrgID,
			SourceService:    params.SourceService,
			ReferenceID:      params.ReferenceID,
			OriginalFilename: params.OriginalFilename,
			Now:              s.now(),
		})
		if err != nil {
			return fmt.Errorf("record file: %w", err)
		}
		return nil
	})
	if err != nil {
		return db.File{}, err
	}

	slog.DebugContext(ctx, "stored object",
		"key", file.ObjectKey,
		"size", file.Size,
		"org_id", file.OrgID,
		"source_service", file.SourceService,
	)
	return file, nil
}
