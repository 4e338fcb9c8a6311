package flatten

import (
	"encoding/json"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"go.uber.org/zap"

	"translation-sync/internal/config"
	"translation-sync/internal/domain"
)

// Service turns the master tree into one document per (language, project).
type Service interface {
	Flatten() ([]domain.TranslationDocument, error)
}

type service struct {
	fs     billy.Filesystem
	cfg    *config.Config
	logger *zap.Logger
}

func NewService(fs billy.Filesystem, cfg *config.Config, logger *zap.Logger) Service {
	return &service{
		fs:     fs,
		cfg:    cfg,
		logger: logger,
	}
}

type docKey struct {
	lang    string
	project string
}

// Flatten reads <root>/<lang>/<project>/*.json. Files merge in name order, so the
// last file defining a key wins. Folders that normalize to the same language merge
// the same way, in folder name order.
func (s *service) Flatten() ([]domain.TranslationDocument, error) {
	root := s.cfg.TreeRoot

	langDirs, err := readDirs(s.fs, root)
	if err != nil {
		return nil, domain.NewError(domain.KindFilesystem, "read "+root, err)
	}

	docs := make(map[docKey]*domain.TranslationDocument)
	for _, langDir := range langDirs {
		lang := domain.NormalizeLanguage(langDir)
		langPath := s.fs.Join(root, langDir)

		projectDirs, err := readDirs(s.fs, langPath)
		if err != nil {
			return nil, domain.NewError(domain.KindFilesystem, "read "+langPath, err)
		}

		for _, projectDir := range projectDirs {
			key := docKey{lang: lang, project: domain.ProjectID(projectDir)}
			doc, exists := docs[key]
			if exists {
				s.logger.Warn("merging duplicate language folder",
					zap.String("lang", lang),
					zap.String("project", key.project),
					zap.String("path", langPath))
			} else {
				doc = &domain.TranslationDocument{
					Lang:         key.lang,
					Project:      key.project,
					Translations: make(map[string]string),
				}
				docs[key] = doc
			}

			if err := s.mergeProject(doc, s.fs.Join(langPath, projectDir)); err != nil {
				return nil, err
			}
		}
	}

	out := make([]domain.TranslationDocument, 0, len(docs))
	for _, doc := range docs {
		out = append(out, *doc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Lang != out[j].Lang {
			return out[i].Lang < out[j].Lang
		}
		return out[i].Project < out[j].Project
	})

	s.logger.Info("flattened translations", zap.Int("documents", len(out)))
	return out, nil
}

func (s *service) mergeProject(doc *domain.TranslationDocument, dir string) error {
	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		return domain.NewError(domain.KindFilesystem, "read "+dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(path.Ext(entry.Name()), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		file := s.fs.Join(dir, name)
		data, err := util.ReadFile(s.fs, file)
		if err != nil {
			return domain.NewError(domain.KindFilesystem, "read "+file, err)
		}

		var sf domain.StringFile
		if err := json.Unmarshal(data, &sf); err != nil {
			return domain.NewError(domain.KindParse, "parse "+file, err)
		}
		Merge(doc.Translations, sf)
	}
	return nil
}

// Merge copies every message in file into dst under its sanitized key. Entries
// without a message are skipped. Keys are visited in order so that "a.b" and "a_b"
// in one file resolve the same way every run.
func Merge(dst map[string]string, file domain.StringFile) {
	keys := make([]string, 0, len(file))
	for key := range file {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		entry := file[key]
		if entry.Message == nil {
			continue
		}
		dst[domain.SanitizeKey(key)] = *entry.Message
	}
}

// readDirs lists the names of the directories directly under dir, sorted.
func readDirs(fs billy.Filesystem, dir string) ([]string, error) {
	entries, err := fs.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	return dirNames(entries), nil
}

func dirNames(entries []os.FileInfo) []string {
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names
}

// Languages counts the distinct languages in docs.
func Languages(docs []domain.TranslationDocument) int {
	seen := make(map[string]struct{})
	for _, doc := range docs {
		seen[doc.Lang] = struct{}{}
	}
	return len(seen)
}
