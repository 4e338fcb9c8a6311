package persist

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"translation-sync/internal/config"
	"translation-sync/internal/domain"
	"translation-sync/internal/repository"
)

type Service interface {
	Write(ctx context.Context, docs []domain.TranslationDocument) error
}

type service struct {
	opener repository.Opener
	cfg    *config.Config
	logger *zap.Logger
}

func NewService(opener repository.Opener, cfg *config.Config, logger *zap.Logger) Service {
	return &service{
		opener: opener,
		cfg:    cfg,
		logger: logger,
	}
}

// Write opens one store connection and upserts every document concurrently. The
// connection is closed only after every upsert has returned.
func (s *service) Write(ctx context.Context, docs []domain.TranslationDocument) error {
	if len(docs) == 0 {
		s.logger.Info("no documents to write")
		return nil
	}

	repo, err := s.opener.Open(ctx)
	if err != nil {
		return domain.NewError(domain.KindPersistence, "connect store", err)
	}
	defer func() {
		if err := repo.Close(context.Background()); err != nil {
			s.logger.Warn("failed to close store", zap.Error(err))
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	if s.cfg.WriteConcurrency > 0 {
		g.SetLimit(s.cfg.WriteConcurrency)
	}

	for i := range docs {
		doc := &docs[i]
		g.Go(func() error {
			if err := repo.Upsert(gctx, doc); err != nil {
				return domain.NewError(domain.KindPersistence,
					fmt.Sprintf("upsert %s/%s", doc.Lang, doc.Project), err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	s.logger.Info("wrote translation documents", zap.Int("documents", len(docs)))
	return nil
}
