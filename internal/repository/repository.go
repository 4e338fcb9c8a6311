package repository

import (
	"context"
	"fmt"

	"translation-sync/internal/config"
	"translation-sync/internal/domain"
)

// DocumentRepository upserts translation documents keyed by (lang, project).
// Upsert must be safe for concurrent use.
type DocumentRepository interface {
	Upsert(ctx context.Context, doc *domain.TranslationDocument) error
	Close(ctx context.Context) error
}

// Opener defers connecting until documents are ready to be written.
type Opener interface {
	Open(ctx context.Context) (DocumentRepository, error)
}

type OpenerFunc func(ctx context.Context) (DocumentRepository, error)

func (f OpenerFunc) Open(ctx context.Context) (DocumentRepository, error) {
	return f(ctx)
}

// NewOpener picks the store backend named by cfg.StoreDriver.
func NewOpener(cfg *config.Config) (Opener, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		return OpenerFunc(func(ctx context.Context) (DocumentRepository, error) {
			db, err := config.NewPostgresDB(ctx, cfg)
			if err != nil {
				return nil, err
			}
			repo := NewPostgresDocumentRepository(db, cfg.Collection)
			if err := repo.EnsureSchema(ctx); err != nil {
				_ = db.Close()
				return nil, err
			}
			return repo, nil
		}), nil
	case config.StoreDriverMongo:
		return OpenerFunc(func(ctx context.Context) (DocumentRepository, error) {
			client, err := config.NewMongoClient(ctx, cfg)
			if err != nil {
				return nil, err
			}
			coll := client.Database(cfg.DatabaseName).Collection(cfg.Collection)
			return NewMongoDocumentRepository(coll, client.Disconnect), nil
		}), nil
	}
	return nil, fmt.Errorf("no document repository available for store driver '%v'", cfg.StoreDriver)
}
