package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"sync"
	"sync/atomic"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/go-github/v66/github"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"translation-sync/internal/config"
	"translation-sync/internal/domain"
)

// Service copies the source-language strings from the source repository into the
// master tree so they are flattened like any translated language.
type Service interface {
	Mirror(ctx context.Context) (int, error)
}

type service struct {
	github     *github.Client
	httpClient *http.Client
	fs         billy.Filesystem
	cfg        *config.Config
	logger     *zap.Logger

	// fsMu serializes writes; billy's memfs is not safe for concurrent mutation.
	fsMu sync.Mutex
}

func NewService(gh *github.Client, httpClient *http.Client, fs billy.Filesystem, cfg *config.Config, logger *zap.Logger) Service {
	return &service{
		github:     gh,
		httpClient: httpClient,
		fs:         fs,
		cfg:        cfg,
		logger:     logger,
	}
}

// Mirror returns the number of files written. Fetches fan out per project and per
// file; the first failure cancels the rest and is returned.
func (s *service) Mirror(ctx context.Context) (int, error) {
	projects, err := s.listDir(ctx, s.cfg.SourcePath)
	if err != nil {
		return 0, err
	}

	var written atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	if s.cfg.MirrorConcurrency > 0 {
		g.SetLimit(s.cfg.MirrorConcurrency)
	}

	for _, project := range projects {
		g.Go(func() error {
			n, err := s.mirrorProject(gctx, project)
			written.Add(int64(n))
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return int(written.Load()), err
	}

	s.logger.Info("mirrored source language",
		zap.String("lang", s.cfg.SourceLanguage),
		zap.Int("projects", len(projects)),
		zap.Int64("files", written.Load()))
	return int(written.Load()), nil
}

func (s *service) mirrorProject(ctx context.Context, project string) (int, error) {
	files, err := s.listDir(ctx, project)
	if err != nil {
		return 0, err
	}

	dir := s.fs.Join(s.cfg.TreeRoot, s.cfg.SourceLanguage, path.Base(project))
	s.fsMu.Lock()
	err = s.fs.MkdirAll(dir, 0o755)
	s.fsMu.Unlock()
	if err != nil {
		return 0, domain.NewError(domain.KindFilesystem, "mirror "+project, err)
	}

	var written atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	if s.cfg.MirrorConcurrency > 0 {
		g.SetLimit(s.cfg.MirrorConcurrency)
	}

	for _, file := range files {
		g.Go(func() error {
			if err := s.mirrorFile(gctx, file, s.fs.Join(dir, path.Base(file))); err != nil {
				return err
			}
			written.Add(1)
			return nil
		})
	}

	err = g.Wait()
	return int(written.Load()), err
}

func (s *service) mirrorFile(ctx context.Context, file, target string) error {
	body, err := s.fetchRaw(ctx, file)
	if err != nil {
		return domain.NewError(domain.KindNetwork, "fetch "+file, err)
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, body); err != nil {
		return domain.NewError(domain.KindParse, "fetch "+file, err)
	}

	s.fsMu.Lock()
	err = util.WriteFile(s.fs, target, buf.Bytes(), 0o644)
	s.fsMu.Unlock()
	if err != nil {
		return domain.NewError(domain.KindFilesystem, "write "+target, err)
	}

	s.logger.Debug("mirrored file", zap.String("path", target))
	return nil
}

// listDir returns the repository paths of the entries directly under dir.
func (s *service) listDir(ctx context.Context, dir string) ([]string, error) {
	_, entries, _, err := s.github.Repositories.GetContents(ctx, s.cfg.SourceOwner, s.cfg.SourceRepo, dir,
		&github.RepositoryContentGetOptions{Ref: s.cfg.SourceRef})
	if err != nil {
		return nil, domain.NewError(domain.KindNetwork, "list "+dir, err)
	}
	if entries == nil {
		return nil, domain.NewError(domain.KindNetwork, "list "+dir, fmt.Errorf("%s is not a directory", dir))
	}

	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		paths = append(paths, entry.GetPath())
	}
	return paths, nil
}

func (s *service) fetchRaw(ctx context.Context, file string) ([]byte, error) {
	u, err := url.JoinPath(s.cfg.RawBaseURL, s.cfg.SourceOwner, s.cfg.SourceRepo, s.cfg.SourceRef, file)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s: unexpected status %s", u, resp.Status)
	}
	return io.ReadAll(resp.Body)
}
