package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ciyex-org/ciyex-platform-sdk/internal/client/objectstore"
	"github.com/ciyex-org/ciyex-platform-sdk/internal/model"
	"github.com/ciyex-org/ciyex-platform-sdk/pkg/sqlc"
)

// Delete removes key's metadata and links, then its bytes. Lookups go through
// the metadata, so bytes left behind by a failed store delete are unreachable
// and are replaced by the next Store to the same key.
func (s *Service) Delete(ctx context.Context, key string) error {
	return s.objectStore.Exclusive(key, func(store objectstore.Client) error {
		err := s.storage.InTx(ctx, func(tx *sqlc.TxStorage) error {
			n, err := tx.DeleteFileByKey(ctx, key)
			if err != nil {
				return fmt.Errorf("delete file: %w", err)
			}
			if n == 0 {
				return model.ErrObjectNotFound.Fmt(key)
			}
			if err := tx.DeleteLinksByKey(ctx, key); err != nil {
				return fmt.Errorf("delete links: %w", err)
			}
			return nil
		})
		if err != nil {
			return err
		}

		if err := store.Delete(ctx, key); err != nil {
			slog.WarnContext(ctx, "object bytes left behind", "key", key, "error", err)
		}
		slog.DebugContext(ctx, "deleted object", "key", key)
		return nil
	})
}
