package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"translation-sync/internal/config"
	"translation-sync/internal/domain"
)

var docs = []domain.TranslationDocument{
	{Lang: "de", Project: "website", Translations: map[string]string{"title": "Startseite"}},
}

func TestPrintDocuments(t *testing.T) {
	t.Run("JSON", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, printDocuments(&buf, formatJSON, docs))
		assert.JSONEq(t, `[{"lang":"de","project":"website","translations":{"title":"Startseite"}}]`, buf.String())
	})

	t.Run("YAML", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, printDocuments(&buf, formatYAML, docs))
		assert.Equal(t, "- lang: de\n  project: website\n  translations:\n    title: Startseite\n", buf.String())
	})
}

func TestValidate_DryRunSkipsStore(t *testing.T) {
	cfg := &config.Config{
		CrowdinAPIToken:     "token",
		ExportFailurePolicy: config.ExportFailurePolicySkip,
		StoreDriver:         config.StoreDriverPostgres,
		SourceLanguage:      "en",
	}

	assert.NoError(t, validate(cfg, true))
	assert.ErrorContains(t, validate(cfg, false), "DATABASE_URL")
}

func TestRunSync_RejectsUnknownFormat(t *testing.T) {
	err := runSync(context.Background(), &runOptions{format: "xml"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "xml")
}

func TestVersionCmd(t *testing.T) {
	var buf bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "translation-sync version dev")
}
