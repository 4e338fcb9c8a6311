package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"translation-sync/internal/domain"
	"translation-sync/internal/repository"
)

type DocumentRepository struct {
	mock.Mock
}

func (m *DocumentRepository) Upsert(ctx context.Context, doc *domain.TranslationDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *DocumentRepository) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type Opener struct {
	mock.Mock
}

func (m *Opener) Open(ctx context.Context) (repository.DocumentRepository, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(repository.DocumentRepository), args.Error(1)
}
