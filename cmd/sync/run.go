package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-git/go-billy/v5/osfs"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"translation-sync/internal/config"
	"translation-sync/internal/domain"
	"translation-sync/internal/repository"
	"translation-sync/internal/service"
	"translation-sync/internal/service/pipeline"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

type runOptions struct {
	dryRun  bool
	format  string
	workDir string
}

func runSync(ctx context.Context, opts *runOptions, out io.Writer) error {
	if opts.format != formatJSON && opts.format != formatYAML {
		return fmt.Errorf("unknown --format %q (must be %s or %s)", opts.format, formatJSON, formatYAML)
	}

	cfg := config.Load()
	if opts.workDir != "" {
		cfg.WorkDir = opts.workDir
	}
	if err := validate(cfg, opts.dryRun); err != nil {
		return domain.NewError(domain.KindInvalidConfig, "load config", err)
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	gh, err := config.NewGitHubClient(httpClient, cfg)
	if err != nil {
		return domain.NewError(domain.KindInvalidConfig, "github client", err)
	}

	redisClient, err := config.NewRedisClient(ctx, cfg)
	if err != nil {
		return domain.NewError(domain.KindNetwork, "connect redis", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	minioClient, err := config.NewMinIOClient(ctx, cfg, logger)
	if err != nil {
		logger.Warn("failed to connect to MinIO, archive backup disabled", zap.Error(err))
		minioClient = nil
	}

	opener, err := repository.NewOpener(cfg)
	if err != nil {
		return domain.NewError(domain.KindInvalidConfig, "store", err)
	}

	services := service.NewServices(service.Clients{
		HTTP:   httpClient,
		FS:     osfs.New(cfg.WorkDir),
		GitHub: gh,
		Redis:  redisClient,
		MinIO:  minioClient,
		Opener: opener,
	}, cfg, logger)

	_, err = services.Pipeline.Run(ctx, pipeline.Options{
		DryRun: opts.dryRun,
		Output: func(docs []domain.TranslationDocument) error {
			return printDocuments(out, opts.format, docs)
		},
	})
	return err
}

func validate(cfg *config.Config, dryRun bool) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if dryRun {
		return nil
	}
	return cfg.ValidateStore()
}

func printDocuments(out io.Writer, format string, docs []domain.TranslationDocument) error {
	if format == formatYAML {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(docs); err != nil {
			return err
		}
		return enc.Close()
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(docs)
}
