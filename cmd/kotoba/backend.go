package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/conorfennell/kotoba/internal/catalog"
	"github.com/conorfennell/kotoba/internal/config"
	"github.com/conorfennell/kotoba/internal/domain"
	"github.com/conorfennell/kotoba/internal/review"
	"github.com/conorfennell/kotoba/internal/storage"
	"github.com/conorfennell/kotoba/internal/storage/postgres"
)

type cardStore interface {
	review.Store[*domain.FlashCard]
	catalog.FlashCardStore
}

type wordStore interface {
	review.Store[*domain.VocabularyItem]
	catalog.VocabularyStore
}

// backend is an open storage driver.
type backend struct {
	cards cardStore
	words wordStore
	close func() error

	// importTx is set when the driver can run an import in one transaction.
	importTx catalog.Transactor
}

func openBackend(ctx context.Context, cfg config.StorageConfig) (*backend, error) {
	switch cfg.Driver {
	case "sqlite":
		db, err := storage.Open(cfg.DSN)
		if err != nil {
			return nil, err
		}
		return &backend{cards: db.FlashCards(), words: db.Vocabulary(), close: db.Close}, nil
	case "postgres":
		db, err := postgres.Open(ctx, cfg.DSN, postgres.PoolConfig{
			MaxConns:        cfg.MaxConns,
			MaxConnLifetime: cfg.MaxConnLifetime,
		})
		if err != nil {
			return nil, err
		}
		importTx := func(ctx context.Context, fn func(context.Context, catalog.WordWriter) error) error {
			return db.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
				return fn(ctx, postgres.NewVocabulary(tx))
			})
		}
		return &backend{cards: db.FlashCards(), words: db.Vocabulary(), close: db.Close, importTx: importTx}, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

func (e *env) openCatalog(ctx context.Context) (*backend, *catalog.Service, error) {
	b, err := openBackend(ctx, e.cfg.Storage)
	if err != nil {
		return nil, nil, err
	}
	svc := catalog.New(b.cards, b.words, catalog.WithLogger(e.logger), catalog.WithTransactor(b.importTx))
	return b, svc, nil
}

func (e *env) sessionOptions() ([]review.Option, error) {
	policy, err := review.ParseWritePolicy(e.cfg.Review.WritePolicy)
	if err != nil {
		return nil, err
	}
	return []review.Option{review.WithWritePolicy(policy), review.WithLogger(e.logger)}, nil
}
