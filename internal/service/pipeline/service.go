package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"translation-sync/internal/config"
	"translation-sync/internal/domain"
	"translation-sync/internal/service/email"
	"translation-sync/internal/service/export"
	"translation-sync/internal/service/flatten"
	"translation-sync/internal/service/mirror"
	"translation-sync/internal/service/persist"
	"translation-sync/internal/service/runlock"
)

type Options struct {
	// DryRun hands the flattened documents to Output instead of writing them.
	DryRun bool
	Output func(docs []domain.TranslationDocument) error
}

// Service runs one synchronization end to end:
// TRIGGERED -> (SKIPPED | FETCHING) -> MIRRORING -> FLATTENING -> WRITING -> DONE,
// with any stage able to end in FAILED.
type Service interface {
	Run(ctx context.Context, opts Options) (*domain.RunReport, error)
}

type service struct {
	export  export.Service
	mirror  mirror.Service
	flatten flatten.Service
	persist persist.Service
	lock    runlock.Service
	email   email.Service
	cfg     *config.Config
	logger  *zap.Logger
}

func NewService(
	exportSvc export.Service,
	mirrorSvc mirror.Service,
	flattenSvc flatten.Service,
	persistSvc persist.Service,
	lockSvc runlock.Service,
	emailSvc email.Service,
	cfg *config.Config,
	logger *zap.Logger,
) Service {
	return &service{
		export:  exportSvc,
		mirror:  mirrorSvc,
		flatten: flattenSvc,
		persist: persistSvc,
		lock:    lockSvc,
		email:   emailSvc,
		cfg:     cfg,
		logger:  logger,
	}
}

type run struct {
	report *domain.RunReport
	logger *zap.Logger
}

func (r *run) transition(state domain.RunState) {
	r.report.State = state
	r.logger.Info("run state changed", zap.String("state", string(state)))
}

func (s *service) Run(ctx context.Context, opts Options) (*domain.RunReport, error) {
	report := domain.NewRunReport()
	r := &run{
		report: report,
		logger: s.logger.With(zap.String("run_id", report.RunID.String())),
	}
	r.logger.Info("updating translations", zap.String("state", string(report.State)))

	acquired, err := s.lock.Acquire(ctx)
	if err != nil {
		return s.fail(ctx, r, fmt.Errorf("failed to acquire run lock: %w", err))
	}
	if !acquired {
		return s.skip(r, domain.SkipReasonLocked, "another run holds the lock"), nil
	}
	defer func() {
		if err := s.lock.Release(context.Background()); err != nil {
			r.logger.Warn("failed to release run lock", zap.Error(err))
		}
	}()

	status, err := s.export.Trigger(ctx)
	if err != nil {
		return s.fail(ctx, r, err)
	}
	switch status.State {
	case domain.ExportSkipped:
		return s.skip(r, domain.SkipReasonUpToDate, "already up to date"), nil
	case domain.ExportFailed:
		if s.cfg.ExportFailurePolicy == config.ExportFailurePolicyFail {
			return s.fail(ctx, r, domain.NewError(domain.KindExportFailed, "trigger export",
				fmt.Errorf("%w: %s", domain.ErrExportFailed, status.Message)))
		}
		r.logger.Warn("platform reported a failed export, treating as up to date",
			zap.String("message", status.Message))
		return s.skip(r, domain.SkipReasonExportFailed, "export failed"), nil
	}

	r.transition(domain.RunStateFetching)
	if err := s.export.Fetch(ctx, report.RunID); err != nil {
		return s.fail(ctx, r, err)
	}

	r.transition(domain.RunStateMirroring)
	if _, err := s.mirror.Mirror(ctx); err != nil {
		return s.fail(ctx, r, err)
	}

	r.transition(domain.RunStateFlattening)
	docs, err := s.flatten.Flatten()
	if err != nil {
		return s.fail(ctx, r, err)
	}
	report.Documents = len(docs)
	report.Languages = flatten.Languages(docs)

	r.transition(domain.RunStateWriting)
	if opts.DryRun {
		if opts.Output != nil {
			if err := opts.Output(docs); err != nil {
				return s.fail(ctx, r, err)
			}
		}
	} else if err := s.persist.Write(ctx, docs); err != nil {
		return s.fail(ctx, r, err)
	}

	report.Finish(domain.RunStateDone)
	r.logger.Info("done",
		zap.String("state", string(report.State)),
		zap.Int("languages", report.Languages),
		zap.Int("documents", report.Documents),
		zap.Bool("dry_run", opts.DryRun))
	return report, nil
}

func (s *service) skip(r *run, reason, msg string) *domain.RunReport {
	r.report.SkipReason = reason
	r.report.Finish(domain.RunStateSkipped)
	r.logger.Info(msg,
		zap.String("state", string(r.report.State)),
		zap.String("reason", reason))
	return r.report
}

func (s *service) fail(ctx context.Context, r *run, err error) (*domain.RunReport, error) {
	r.report.FailedIn = r.report.State
	r.report.Finish(domain.RunStateFailed)
	r.logger.Error("run failed",
		zap.String("state", string(r.report.State)),
		zap.String("failed_in", string(r.report.FailedIn)),
		zap.String("kind", string(domain.KindOf(err))),
		zap.Error(err))

	if notifyErr := s.email.SendRunFailedEmail(context.WithoutCancel(ctx), r.report, err); notifyErr != nil {
		r.logger.Warn("failed to send failure notification", zap.Error(notifyErr))
	}
	return r.report, err
}
