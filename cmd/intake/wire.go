package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/intake/internal/config"
	"github.com/aretw0/intake/pkg/adapters/file"
	"github.com/aretw0/intake/pkg/adapters/memory"
	"github.com/aretw0/intake/pkg/adapters/redis"
	"github.com/aretw0/intake/pkg/adapters/sheets"
	"github.com/aretw0/intake/pkg/dialog"
	"github.com/aretw0/intake/pkg/domain"
	"github.com/aretw0/intake/pkg/persistence/middleware"
	"github.com/aretw0/intake/pkg/ports"
	"github.com/aretw0/intake/pkg/session"
)

// lockPrefix namespaces the per-user locks shared by replicas.
const lockPrefix = "intake:"

// openSessions builds the session manager for the configured backend.
// The returned close function releases backend connections.
func openSessions(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*session.Manager, func() error, error) {
	encryption, err := sessionEncryption(cfg)
	if err != nil {
		return nil, nil, err
	}

	switch cfg.SessionStore {
	case config.StoreFile:
		logger.Info("Using file session store", "dir", cfg.SessionDir, "encrypted", encryption != nil)
		store := wrapStore(file.NewStore(cfg.SessionDir), encryption)
		return session.NewManager(store, session.WithLogger(logger)), func() error { return nil }, nil

	case config.StoreRedis:
		backend, err := redis.NewFromURL(cfg.RedisURL, redis.WithTTL(cfg.SessionTTL))
		if err != nil {
			return nil, nil, err
		}
		if err := backend.Ping(ctx); err != nil {
			_ = backend.Close()
			return nil, nil, fmt.Errorf("redis unreachable: %w", err)
		}
		logger.Info("Using redis session store", "ttl", cfg.SessionTTL, "encrypted", encryption != nil)

		manager := session.NewManager(wrapStore(backend, encryption),
			session.WithLocker(redis.NewLocker(backend.Client(), lockPrefix)),
			session.WithLogger(logger),
		)
		return manager, backend.Close, nil

	default:
		logger.Info("Using in-memory session store")
		return session.NewManager(memory.NewStore(), session.WithLogger(logger)), func() error { return nil }, nil
	}
}

// sessionEncryption returns nil when no key is configured.
func sessionEncryption(cfg *config.Config) (middleware.Middleware, error) {
	if cfg.EncryptionKey == "" {
		return nil, nil
	}
	active, err := middleware.ParseKey(cfg.EncryptionKey)
	if err != nil {
		return nil, err
	}
	var fallback [][]byte
	for _, encoded := range cfg.FallbackKeys {
		key, err := middleware.ParseKey(encoded)
		if err != nil {
			return nil, fmt.Errorf("fallback key: %w", err)
		}
		fallback = append(fallback, key)
	}
	return middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: active, FallbackKeys: fallback})
}

func wrapStore(store ports.SessionStore, encryption middleware.Middleware) ports.SessionStore {
	if encryption == nil {
		return store
	}
	return middleware.Wrap(store, encryption)
}

// openAppender connects to the configured spreadsheet.
func openAppender(ctx context.Context, cfg *config.Config, bundle domain.CredentialBundle, logger *slog.Logger) (*sheets.Appender, error) {
	return sheets.New(ctx, bundle,
		sheets.WithSpreadsheetName(cfg.SheetName),
		sheets.WithSpreadsheetID(cfg.SheetID),
		sheets.WithLogger(logger),
	)
}

// newMachine loads the chat texts and builds the dialog.
func newMachine(cfg *config.Config) (*dialog.Machine, error) {
	catalog, err := dialog.LoadCatalog(cfg.MessagesFile)
	if err != nil {
		return nil, err
	}
	return dialog.New(catalog), nil
}
