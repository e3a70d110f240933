package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/dukerupert/dailyboard/internal/config"
	"github.com/dukerupert/dailyboard/internal/credential"
	"github.com/dukerupert/dailyboard/internal/database"
	"github.com/dukerupert/dailyboard/internal/docstore"
	"github.com/dukerupert/dailyboard/internal/logging"
	"github.com/dukerupert/dailyboard/internal/lostark"
	"github.com/dukerupert/dailyboard/internal/tracker"
)

// app holds everything a command needs.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	db     *sql.DB
	docs   *docstore.Store
	tokens credential.Store
	client *lostark.Client
	svc    *tracker.Service
}

func openApp(ctx context.Context, cfg config.Config) (*app, error) {
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	docs := docstore.New(db)

	tokens, err := openTokenStore(cfg, docs)
	if err != nil {
		db.Close()
		return nil, err
	}

	client := lostark.NewClient(cfg.APIBaseURL, tokens, cfg.APITimeout)
	svc := tracker.NewService(docs, client, tokens, logger)
	if err := svc.Load(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("load state: %w", err)
	}

	return &app{cfg: cfg, logger: logger, db: db, docs: docs, tokens: tokens, client: client, svc: svc}, nil
}

func openTokenStore(cfg config.Config, docs *docstore.Store) (credential.Store, error) {
	switch cfg.TokenBackend {
	case config.BackendSealed:
		sealed, err := credential.NewSealed(docs, cfg.TokenPassphrase)
		if err != nil {
			return nil, err
		}
		return sealed, nil
	default:
		ring, err := credential.OpenKeyring(cfg.KeyringDir, cfg.TokenPassphrase)
		if err != nil {
			return nil, err
		}
		return ring, nil
	}
}

func (a *app) Close() error {
	return a.db.Close()
}
