package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ciyex-org/ciyex-platform-sdk/config"
	"github.com/ciyex-org/ciyex-platform-sdk/internal/client/objectstore"
	"github.com/ciyex-org/ciyex-platform-sdk/internal/client/objectstore/local"
	"github.com/ciyex-org/ciyex-platform-sdk/internal/client/objectstore/stoj"
	"github.com/ciyex-org/ciyex-platform-sdk/internal/client/objectstore/sync"
	"github.com/ciyex-org/ciyex-platform-sdk/internal/db"
	"github.com/ciyex-org/ciyex-platform-sdk/internal/model"
	"github.com/ciyex-org/ciyex-platform-sdk/pkg/sqlc"
)

// Service implements the files-proxy operations on top of an object store
// and a SQLite metadata database.
type Service struct {
	objectStore *sync.SyncClient
	storage     *sqlc.Storage
	publicURL   string
	maxExpiry   time.Duration
	now         func() time.Time
}

type Options struct {
	PublicURL string
	MaxExpiry time.Duration
}

func New(store objectstore.Client, sqliteDB *sql.DB, opts Options) (*Service, error) {
	synced, err := sync.NewSyncClient(sync.SyncConfig{Client: store})
	if err != nil {
		return nil, fmt.Errorf("create sync store: %w", err)
	}

	maxExpiry := opts.MaxExpiry
	if maxExpiry <= 0 {
		maxExpiry = 7 * 24 * time.Hour
	}

	return &Service{
		objectStore: synced,
		storage:     sqlc.NewStorage(sqliteDB),
		publicURL:   strings.TrimSuffix(opts.PublicURL, "/"),
		maxExpiry:   maxExpiry,
		now:         time.Now,
	}, nil
}

// NewService builds the object store selected by configuration.
func NewService(ctx context.Context, cfg *config.Config, sqliteDB *sql.DB) (*Service, error) {
	var store objectstore.Client

	switch cfg.Gateway.Storage.Type {
	case "storj":
		storjStore, err := stoj.NewClient(ctx, stoj.StorjConfig{
			AccessGrant: cfg.Gateway.Storage.Storj.AccessGrant,
			Bucket:      cfg.Gateway.Storage.Storj.Bucket,
		})
		if err != nil {
			return nil, fmt.Errorf("create storj store: %w", err)
		}
		store = storjStore
	default:
		localStore, err := local.NewClient(local.LocalConfig{
			Root: cfg.Gateway.Storage.Local.Root,
		})
		if err != nil {
			return nil, fmt.Errorf("create local store: %w", err)
		}
		store = localStore
	}

	slog.Info("object store ready", "type", cfg.Gateway.Storage.Type)

	return New(store, sqliteDB, Options{
		PublicURL: cfg.Gateway.PublicURL,
		MaxExpiry: cfg.Gateway.MaxExpiry,
	})
}

func (s *Service) Close() error {
	return s.objectStore.Close()
}

// lookup returns the metadata for key or model.ErrObjectNotFound.
func (s *Service) lookup(ctx context.Context, key string) (db.File, error) {
	file, err := s.storage.GetFileByKey(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return db.File{}, model.ErrObjectNotFound.Fmt(key)
		}
		return db.File{}, fmt.Errorf("get file: %w", err)
	}
	return file, nil
}
