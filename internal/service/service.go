package service

import (
	"net/http"

	"github.com/go-git/go-billy/v5"
	"github.com/google/go-github/v66/github"
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"translation-sync/internal/config"
	"translation-sync/internal/repository"
	"translation-sync/internal/service/email"
	"translation-sync/internal/service/export"
	"translation-sync/internal/service/flatten"
	"translation-sync/internal/service/mirror"
	"translation-sync/internal/service/persist"
	"translation-sync/internal/service/pipeline"
	"translation-sync/internal/service/runlock"
)

type Services struct {
	Export   export.Service
	Mirror   mirror.Service
	Flatten  flatten.Service
	Persist  persist.Service
	Lock     runlock.Service
	Email    email.Service
	Pipeline pipeline.Service
}

// Clients holds everything built once per run and shared by the stages.
type Clients struct {
	HTTP   *http.Client
	FS     billy.Filesystem
	GitHub *github.Client
	Redis  *redis.Client
	MinIO  *minio.Client
	Opener repository.Opener
}

func NewServices(clients Clients, cfg *config.Config, logger *zap.Logger) *Services {
	exportService := export.NewService(clients.HTTP, clients.FS, clients.MinIO, cfg, logger.Named("export"))
	mirrorService := mirror.NewService(clients.GitHub, clients.HTTP, clients.FS, cfg, logger.Named("mirror"))
	flattenService := flatten.NewService(clients.FS, cfg, logger.Named("flatten"))
	persistService := persist.NewService(clients.Opener, cfg, logger.Named("persist"))
	lockService := runlock.NewService(clients.Redis, runlock.DefaultKey, cfg.LockTTL)
	emailService := email.NewService(cfg)

	pipelineService := pipeline.NewService(
		exportService,
		mirrorService,
		flattenService,
		persistService,
		lockService,
		emailService,
		cfg,
		logger,
	)

	return &Services{
		Export:   exportService,
		Mirror:   mirrorService,
		Flatten:  flattenService,
		Persist:  persistService,
		Lock:     lockService,
		Email:    emailService,
		Pipeline: pipelineService,
	}
}
