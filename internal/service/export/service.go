package export

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"

	"translation-sync/internal/config"
	"translation-sync/internal/domain"
)

// Service drives the translation platform side of a run: rebuilding the export and
// bringing the archive onto the work filesystem.
type Service interface {
	Trigger(ctx context.Context) (domain.ExportStatus, error)
	Fetch(ctx context.Context, runID uuid.UUID) error
}

type service struct {
	httpClient  *http.Client
	fs          billy.Filesystem
	minioClient *minio.Client
	cfg         *config.Config
	logger      *zap.Logger
}

func NewService(httpClient *http.Client, fs billy.Filesystem, minioClient *minio.Client, cfg *config.Config, logger *zap.Logger) Service {
	return &service{
		httpClient:  httpClient,
		fs:          fs,
		minioClient: minioClient,
		cfg:         cfg,
		logger:      logger,
	}
}

type exportResponse struct {
	Success json.RawMessage `json:"success"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (s *service) Trigger(ctx context.Context) (domain.ExportStatus, error) {
	resp, err := s.get(ctx, "export")
	if err != nil {
		return domain.ExportStatus{}, domain.NewError(domain.KindNetwork, "trigger export", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.ExportStatus{}, domain.NewError(domain.KindNetwork, "trigger export", err)
	}

	status, err := ParseExportStatus(body)
	if err != nil {
		return domain.ExportStatus{}, domain.NewError(domain.KindParse, "trigger export", err)
	}
	return status, nil
}

// ParseExportStatus reads an export response whose "success" field is either a
// boolean or an object carrying a status.
func ParseExportStatus(body []byte) (domain.ExportStatus, error) {
	var res exportResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return domain.ExportStatus{}, fmt.Errorf("failed to decode export response: %w", err)
	}

	failed := domain.ExportStatus{State: domain.ExportFailed}
	if res.Error != nil {
		failed.Message = res.Error.Message
	}

	raw := bytes.TrimSpace(res.Success)
	switch {
	case len(raw) == 0, bytes.Equal(raw, []byte("null")), bytes.Equal(raw, []byte("false")):
		return failed, nil
	case bytes.Equal(raw, []byte("true")):
		return domain.ExportStatus{State: domain.ExportBuilt}, nil
	case raw[0] == '{':
		var success struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(raw, &success); err != nil {
			return domain.ExportStatus{}, fmt.Errorf("failed to decode export status: %w", err)
		}
		if success.Status == "skipped" {
			return domain.ExportStatus{State: domain.ExportSkipped}, nil
		}
		return domain.ExportStatus{State: domain.ExportBuilt, Message: success.Status}, nil
	}
	return failed, nil
}

func (s *service) Fetch(ctx context.Context, runID uuid.UUID) error {
	if err := s.download(ctx); err != nil {
		return domain.NewError(domain.KindNetwork, "download archive", err)
	}

	s.backup(ctx, runID)

	if err := s.extract(); err != nil {
		return domain.NewError(domain.KindExtraction, "extract archive", err)
	}
	return nil
}

func (s *service) download(ctx context.Context) error {
	resp, err := s.get(ctx, "download/all.zip")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	f, err := s.fs.Create(s.cfg.ArchiveName)
	if err != nil {
		return err
	}

	n, err := io.Copy(f, resp.Body)
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", s.cfg.ArchiveName, err)
	}
	// The archive must be complete on disk before anything reads it back.
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", s.cfg.ArchiveName, err)
	}

	s.logger.Info("downloaded translations archive",
		zap.String("path", s.cfg.ArchiveName),
		zap.Int64("bytes", n))
	return nil
}

// backup copies the archive to object storage when configured. Failures only warn.
func (s *service) backup(ctx context.Context, runID uuid.UUID) {
	if s.minioClient == nil {
		return
	}

	objectName := fmt.Sprintf("archives/%s.zip", runID)
	if err := s.upload(ctx, objectName); err != nil {
		s.logger.Warn("failed to back up translations archive",
			zap.String("bucket", s.cfg.MinIOBucket),
			zap.String("object", objectName),
			zap.Error(err))
		return
	}
	s.logger.Info("backed up translations archive",
		zap.String("bucket", s.cfg.MinIOBucket),
		zap.String("object", objectName))
}

func (s *service) upload(ctx context.Context, objectName string) error {
	info, err := s.fs.Stat(s.cfg.ArchiveName)
	if err != nil {
		return err
	}
	f, err := s.fs.Open(s.cfg.ArchiveName)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = s.minioClient.PutObject(ctx, s.cfg.MinIOBucket, objectName, f, info.Size(), minio.PutObjectOptions{
		ContentType: "application/zip",
	})
	return err
}

func (s *service) extract() error {
	info, err := s.fs.Stat(s.cfg.ArchiveName)
	if err != nil {
		return err
	}
	f, err := s.fs.Open(s.cfg.ArchiveName)
	if err != nil {
		return err
	}
	defer f.Close()

	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", s.cfg.ArchiveName, err)
	}

	// Leftovers from a previous run would otherwise be flattened again.
	if err := util.RemoveAll(s.fs, s.cfg.ExtractDir); err != nil {
		return err
	}

	files := 0
	for _, zf := range zr.File {
		target, err := s.entryPath(zf.Name)
		if err != nil {
			return err
		}

		if zf.FileInfo().IsDir() {
			if err := s.fs.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}

		if err := s.extractFile(zf, target); err != nil {
			return fmt.Errorf("failed to extract %s: %w", zf.Name, err)
		}
		files++
	}

	s.logger.Info("extracted translations archive",
		zap.String("path", s.cfg.ExtractDir),
		zap.Int("files", files))
	return nil
}

// entryPath maps an archive entry onto the extract directory, refusing entries
// that would land outside it.
func (s *service) entryPath(name string) (string, error) {
	name = strings.ReplaceAll(name, "\\", "/")
	clean := path.Clean(name)
	if path.IsAbs(name) || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("archive entry %q escapes the extract directory", name)
	}
	return s.fs.Join(s.cfg.ExtractDir, clean), nil
}

func (s *service) extractFile(zf *zip.File, target string) error {
	if err := s.fs.MkdirAll(path.Dir(target), 0o755); err != nil {
		return err
	}

	rc, err := zf.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := s.fs.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func (s *service) get(ctx context.Context, endpoint string) (*http.Response, error) {
	u, err := url.Parse(strings.TrimRight(s.cfg.CrowdinBaseURL, "/") + "/" + endpoint)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("key", s.cfg.CrowdinAPIToken)
	q.Set("json", "true")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		// The request URL carries the API key.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			uerr.URL = endpoint
		}
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: unexpected status %s", endpoint, resp.Status)
	}
	return resp, nil
}
