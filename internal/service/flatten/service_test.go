package flatten

import (
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"translation-sync/internal/config"
	"translation-sync/internal/domain"
)

func newTree(t *testing.T, files map[string]string) billy.Filesystem {
	t.Helper()
	fs := memfs.New()
	for name, content := range files {
		require.NoError(t, util.WriteFile(fs, "translations/master/"+name, []byte(content), 0o644))
	}
	return fs
}

func newTestService(fs billy.Filesystem) Service {
	return NewService(fs, &config.Config{TreeRoot: "translations/master"}, zap.NewNop())
}

func TestService_Flatten(t *testing.T) {
	fs := newTree(t, map[string]string{
		"de_DE/projectA/core.json": `{"x.y":{"message":"hi"}}`,
		"en/projectA/core.json":    `{"x.y":{"message":"hi"}}`,
	})

	docs, err := newTestService(fs).Flatten()

	require.NoError(t, err)
	assert.Equal(t, []domain.TranslationDocument{
		{Lang: "de", Project: "projecta", Translations: map[string]string{"x_y": "hi"}},
		{Lang: "en", Project: "projecta", Translations: map[string]string{"x_y": "hi"}},
	}, docs)
	assert.Equal(t, 2, Languages(docs))
}

func TestService_Flatten_MergesFiles(t *testing.T) {
	t.Run("Disjoint Keys", func(t *testing.T) {
		fs := newTree(t, map[string]string{
			"pt_BR/web/a.json": `{"a":{"message":"1"}}`,
			"pt_BR/web/b.json": `{"b":{"message":"2"}}`,
		})

		docs, err := newTestService(fs).Flatten()

		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "pt_BR", docs[0].Lang)
		assert.Equal(t, map[string]string{"a": "1", "b": "2"}, docs[0].Translations)
	})

	t.Run("Overlapping Key Last File Wins", func(t *testing.T) {
		fs := newTree(t, map[string]string{
			"fr_FR/web/a.json": `{"a":{"message":"first"}}`,
			"fr_FR/web/b.json": `{"a":{"message":"second"}}`,
		})

		docs, err := newTestService(fs).Flatten()

		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, map[string]string{"a": "second"}, docs[0].Translations)
	})

	t.Run("Duplicate Language Folders", func(t *testing.T) {
		fs := newTree(t, map[string]string{
			"de/web/a.json":    `{"a":{"message":"plain"},"b":{"message":"only"}}`,
			"de_DE/web/a.json": `{"a":{"message":"regional"}}`,
		})

		docs, err := newTestService(fs).Flatten()

		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, map[string]string{"a": "regional", "b": "only"}, docs[0].Translations)
	})
}

func TestService_Flatten_IgnoresNoise(t *testing.T) {
	fs := newTree(t, map[string]string{
		"de_DE/web/core.json":  `{"k":{"message":"v","description":"ignored"},"nomsg":{"description":"x"}}`,
		"de_DE/web/README.md":  `not json`,
		"de_DE/stray.txt":      `stray`,
		"de_DE/web/nested/x.y": `{}`,
	})
	require.NoError(t, util.WriteFile(fs, "translations/master/top.txt", []byte("x"), 0o644))

	docs, err := newTestService(fs).Flatten()

	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, map[string]string{"k": "v"}, docs[0].Translations)
}

func TestService_Flatten_Errors(t *testing.T) {
	t.Run("Malformed JSON", func(t *testing.T) {
		fs := newTree(t, map[string]string{
			"de_DE/web/core.json": `{"k":`,
		})

		_, err := newTestService(fs).Flatten()

		require.Error(t, err)
		assert.Equal(t, domain.KindParse, domain.KindOf(err))
		assert.Contains(t, err.Error(), "core.json")
	})

	t.Run("Missing Root", func(t *testing.T) {
		_, err := newTestService(memfs.New()).Flatten()

		assert.Equal(t, domain.KindFilesystem, domain.KindOf(err))
	})
}

func TestService_Flatten_KeysNeverContainDots(t *testing.T) {
	fs := newTree(t, map[string]string{
		"en/app/core.json": `{"app.title":{"message":"A"},"a.b.c":{"message":"B"},"plain":{"message":"C"}}`,
	})

	docs, err := newTestService(fs).Flatten()

	require.NoError(t, err)
	for _, doc := range docs {
		for key := range doc.Translations {
			assert.NotContains(t, key, ".")
		}
	}
	assert.Equal(t, "A", docs[0].Translations["app_title"])
}

func TestMerge_SameSanitizedKeyIsStable(t *testing.T) {
	msg := func(s string) *string { return &s }
	for i := 0; i < 20; i++ {
		dst := map[string]string{}
		Merge(dst, domain.StringFile{
			"a.b": {Message: msg("dotted")},
			"a_b": {Message: msg("underscored")},
		})
		assert.Equal(t, "underscored", dst["a_b"])
	}
}
