package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/ciyex-org/ciyex-platform-sdk/config"
	"github.com/ciyex-org/ciyex-platform-sdk/internal/db"
	"github.com/ciyex-org/ciyex-platform-sdk/internal/service"
	"github.com/ciyex-org/ciyex-platform-sdk/internal/transport"
)

const linkPurgeInterval = 10 * time.Minute

func NewLogger(cfg config.Log, w io.Writer) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
	}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func SetupLogger(cfg *config.Config) {
	slog.SetDefault(NewLogger(cfg.Log, os.Stdout))
}

// Start runs the local files gateway until ctx is cancelled.
func Start(ctx context.Context, cfg *config.Config) error {
	SetupLogger(cfg)

	if err := os.MkdirAll(filepath.Dir(cfg.Gateway.DBPath), 0o755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}
	conn, err := db.Open(cfg.Gateway.DBPath)
	if err != nil {
		return err
	}
	defer conn.Close()

	svc, err := service.NewService(ctx, cfg, conn)
	if err != nil {
		return err
	}
	defer svc.Close()

	e, err := transport.NewEcho(svc, transport.Options{JWTSecret: cfg.Gateway.JWTSecret})
	if err != nil {
		return err
	}

	if cfg.Gateway.JWTSecret == "" {
		slog.Warn("gateway accepts unauthenticated requests; set gateway.jwtSecret to verify tokens")
	}

	go purgeLinks(ctx, svc)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("files gateway listening", "addr", cfg.Gateway.Listen, "public_url", cfg.Gateway.PublicURL)
		if err := e.Start(cfg.Gateway.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func purgeLinks(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(linkPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.PurgeExpiredLinks(ctx)
			if err != nil {
				slog.Warn("purge expired links", "error", err)
				continue
			}
			if n > 0 {
				slog.Debug("purged expired links", "count", n)
			}
		}
	}
}
