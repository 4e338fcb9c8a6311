package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"translation-sync/internal/domain"
)

type PostgresDocumentRepository struct {
	db    *sqlx.DB
	table string
}

// NewPostgresDocumentRepository stores documents as rows of a jsonb table whose
// primary key is (lang, project).
func NewPostgresDocumentRepository(db *sqlx.DB, table string) *PostgresDocumentRepository {
	return &PostgresDocumentRepository{db: db, table: pq.QuoteIdentifier(table)}
}

func (r *PostgresDocumentRepository) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			lang varchar NOT NULL,
			project varchar NOT NULL,
			translations jsonb NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT NOW(),
			PRIMARY KEY (lang, project)
		)`, r.table)
	_, err := r.db.ExecContext(ctx, query)
	return err
}

func (r *PostgresDocumentRepository) Upsert(ctx context.Context, doc *domain.TranslationDocument) error {
	translations, err := json.Marshal(doc.Translations)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (lang, project, translations, updated_at)
		VALUES ($1, $2, $3::jsonb, NOW())
		ON CONFLICT (lang, project)
		DO UPDATE SET translations = EXCLUDED.translations, updated_at = NOW()`, r.table)

	_, err = r.db.ExecContext(ctx, query, doc.Lang, doc.Project, string(translations))
	return err
}

func (r *PostgresDocumentRepository) Close(ctx context.Context) error {
	return r.db.Close()
}
