package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"translation-sync/internal/config"
	"translation-sync/internal/domain"
	"translation-sync/internal/mocks"
)

type stageMocks struct {
	export  *mocks.ExportService
	mirror  *mocks.MirrorService
	flatten *mocks.FlattenService
	persist *mocks.PersistService
	lock    *mocks.LockService
	email   *mocks.EmailService
}

func newStageMocks() *stageMocks {
	return &stageMocks{
		export:  new(mocks.ExportService),
		mirror:  new(mocks.MirrorService),
		flatten: new(mocks.FlattenService),
		persist: new(mocks.PersistService),
		lock:    new(mocks.LockService),
		email:   new(mocks.EmailService),
	}
}

func (m *stageMocks) service(policy string) Service {
	cfg := &config.Config{ExportFailurePolicy: policy}
	return NewService(m.export, m.mirror, m.flatten, m.persist, m.lock, m.email, cfg, zap.NewNop())
}

func (m *stageMocks) assertExpectations(t *testing.T) {
	m.export.AssertExpectations(t)
	m.mirror.AssertExpectations(t)
	m.flatten.AssertExpectations(t)
	m.persist.AssertExpectations(t)
	m.lock.AssertExpectations(t)
	m.email.AssertExpectations(t)
}

func (m *stageMocks) unlocked() {
	m.lock.On("Acquire", mock.Anything).Return(true, nil).Once()
	m.lock.On("Release", mock.Anything).Return(nil).Once()
}

var testDocs = []domain.TranslationDocument{
	{Lang: "de", Project: "projecta", Translations: map[string]string{"x_y": "hi"}},
	{Lang: "en", Project: "projecta", Translations: map[string]string{"x_y": "hi"}},
}

func TestService_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("Full Run", func(t *testing.T) {
		m := newStageMocks()
		m.unlocked()
		m.export.On("Trigger", ctx).Return(domain.ExportStatus{State: domain.ExportBuilt}, nil).Once()
		m.export.On("Fetch", ctx, mock.Anything).Return(nil).Once()
		m.mirror.On("Mirror", ctx).Return(3, nil).Once()
		m.flatten.On("Flatten").Return(testDocs, nil).Once()
		m.persist.On("Write", ctx, testDocs).Return(nil).Once()

		report, err := m.service(config.ExportFailurePolicySkip).Run(ctx, Options{})

		require.NoError(t, err)
		assert.Equal(t, domain.RunStateDone, report.State)
		assert.Equal(t, 2, report.Documents)
		assert.Equal(t, 2, report.Languages)
		assert.NotNil(t, report.FinishedAt)
		m.assertExpectations(t)
	})

	t.Run("Skipped Export", func(t *testing.T) {
		m := newStageMocks()
		m.unlocked()
		m.export.On("Trigger", ctx).Return(domain.ExportStatus{State: domain.ExportSkipped}, nil).Once()

		report, err := m.service(config.ExportFailurePolicySkip).Run(ctx, Options{})

		require.NoError(t, err)
		assert.Equal(t, domain.RunStateSkipped, report.State)
		assert.Equal(t, domain.SkipReasonUpToDate, report.SkipReason)
		assert.Zero(t, report.Documents)
		m.export.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
		m.persist.AssertNotCalled(t, "Write", mock.Anything, mock.Anything)
		m.assertExpectations(t)
	})

	t.Run("Failed Export Treated As Skip", func(t *testing.T) {
		m := newStageMocks()
		m.unlocked()
		m.export.On("Trigger", ctx).Return(domain.ExportStatus{State: domain.ExportFailed, Message: "quota"}, nil).Once()

		report, err := m.service(config.ExportFailurePolicySkip).Run(ctx, Options{})

		require.NoError(t, err)
		assert.Equal(t, domain.RunStateSkipped, report.State)
		assert.Equal(t, domain.SkipReasonExportFailed, report.SkipReason)
		m.persist.AssertNotCalled(t, "Write", mock.Anything, mock.Anything)
		m.assertExpectations(t)
	})

	t.Run("Failed Export Is Fatal", func(t *testing.T) {
		m := newStageMocks()
		m.unlocked()
		m.export.On("Trigger", ctx).Return(domain.ExportStatus{State: domain.ExportFailed, Message: "quota"}, nil).Once()
		m.email.On("SendRunFailedEmail", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

		report, err := m.service(config.ExportFailurePolicyFail).Run(ctx, Options{})

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrExportFailed)
		assert.Equal(t, domain.KindExportFailed, domain.KindOf(err))
		assert.Equal(t, domain.RunStateFailed, report.State)
		assert.Equal(t, domain.RunStateTriggered, report.FailedIn)
		m.assertExpectations(t)
	})

	t.Run("Locked", func(t *testing.T) {
		m := newStageMocks()
		m.lock.On("Acquire", mock.Anything).Return(false, nil).Once()

		report, err := m.service(config.ExportFailurePolicySkip).Run(ctx, Options{})

		require.NoError(t, err)
		assert.Equal(t, domain.RunStateSkipped, report.State)
		assert.Equal(t, domain.SkipReasonLocked, report.SkipReason)
		m.export.AssertNotCalled(t, "Trigger", mock.Anything)
		m.lock.AssertNotCalled(t, "Release", mock.Anything)
		m.assertExpectations(t)
	})

	t.Run("Fetch Error", func(t *testing.T) {
		m := newStageMocks()
		m.unlocked()
		fetchErr := domain.NewError(domain.KindNetwork, "download archive", errors.New("reset by peer"))
		m.export.On("Trigger", ctx).Return(domain.ExportStatus{State: domain.ExportBuilt}, nil).Once()
		m.export.On("Fetch", ctx, mock.Anything).Return(fetchErr).Once()
		m.email.On("SendRunFailedEmail", mock.Anything, mock.MatchedBy(func(r *domain.RunReport) bool {
			return r.FailedIn == domain.RunStateFetching
		}), fetchErr).Return(errors.New("mail down")).Once()

		report, err := m.service(config.ExportFailurePolicySkip).Run(ctx, Options{})

		assert.Equal(t, fetchErr, err)
		assert.Equal(t, domain.RunStateFailed, report.State)
		assert.Equal(t, domain.RunStateFetching, report.FailedIn)
		m.mirror.AssertNotCalled(t, "Mirror", mock.Anything)
		m.assertExpectations(t)
	})

	t.Run("Write Error", func(t *testing.T) {
		m := newStageMocks()
		m.unlocked()
		m.export.On("Trigger", ctx).Return(domain.ExportStatus{State: domain.ExportBuilt}, nil).Once()
		m.export.On("Fetch", ctx, mock.Anything).Return(nil).Once()
		m.mirror.On("Mirror", ctx).Return(1, nil).Once()
		m.flatten.On("Flatten").Return(testDocs, nil).Once()
		m.persist.On("Write", ctx, testDocs).Return(domain.NewError(domain.KindPersistence, "connect store", errors.New("refused"))).Once()
		m.email.On("SendRunFailedEmail", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

		report, err := m.service(config.ExportFailurePolicySkip).Run(ctx, Options{})

		assert.Equal(t, domain.KindPersistence, domain.KindOf(err))
		assert.Equal(t, domain.RunStateWriting, report.FailedIn)
		m.assertExpectations(t)
	})

	t.Run("Dry Run", func(t *testing.T) {
		m := newStageMocks()
		m.unlocked()
		m.export.On("Trigger", ctx).Return(domain.ExportStatus{State: domain.ExportBuilt}, nil).Once()
		m.export.On("Fetch", ctx, mock.Anything).Return(nil).Once()
		m.mirror.On("Mirror", ctx).Return(1, nil).Once()
		m.flatten.On("Flatten").Return(testDocs, nil).Once()

		var printed []domain.TranslationDocument
		report, err := m.service(config.ExportFailurePolicySkip).Run(ctx, Options{
			DryRun: true,
			Output: func(docs []domain.TranslationDocument) error {
				printed = docs
				return nil
			},
		})

		require.NoError(t, err)
		assert.Equal(t, domain.RunStateDone, report.State)
		assert.Equal(t, testDocs, printed)
		m.persist.AssertNotCalled(t, "Write", mock.Anything, mock.Anything)
		m.assertExpectations(t)
	})
}
