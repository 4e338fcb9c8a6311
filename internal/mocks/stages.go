package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"translation-sync/internal/domain"
)

type ExportService struct {
	mock.Mock
}

func (m *ExportService) Trigger(ctx context.Context) (domain.ExportStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.ExportStatus), args.Error(1)
}

func (m *ExportService) Fetch(ctx context.Context, runID uuid.UUID) error {
	args := m.Called(ctx, runID)
	return args.Error(0)
}

type MirrorService struct {
	mock.Mock
}

func (m *MirrorService) Mirror(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type FlattenService struct {
	mock.Mock
}

func (m *FlattenService) Flatten() ([]domain.TranslationDocument, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TranslationDocument), args.Error(1)
}

type PersistService struct {
	mock.Mock
}

func (m *PersistService) Write(ctx context.Context, docs []domain.TranslationDocument) error {
	args := m.Called(ctx, docs)
	return args.Error(0)
}

type LockService struct {
	mock.Mock
}

func (m *LockService) Acquire(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *LockService) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type EmailService struct {
	mock.Mock
}

func (m *EmailService) SendRunFailedEmail(ctx context.Context, report *domain.RunReport, runErr error) error {
	args := m.Called(ctx, report, runErr)
	return args.Error(0)
}
