package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"touchline/backend/internal/model"
	"touchline/backend/internal/snowflake"
)

// TranslationRepository persists one translation per (article, language).
type TranslationRepository interface {
	Get(ctx context.Context, articleID, language string) (*model.Translation, error)
	ListByArticle(ctx context.Context, articleID string) ([]model.Translation, error)
	Upsert(ctx context.Context, articleID, language string, fields model.TranslationFields) error
	DeleteByArticleID(ctx context.Context, articleID string) error
	DeleteAll(ctx context.Context) (int64, error)
}

// ErrOriginalLanguage is returned by Upsert when language is the article's own.
var ErrOriginalLanguage = errors.New("translation language is the article's original language")

type translationRepository struct {
	db dbtx
}

func NewTranslationRepository(db dbtx) TranslationRepository {
	return &translationRepository{db: db}
}

const translationColumns = `id, article_id, language, title, subtitle, summary, content, keywords, created_at, updated_at`

func (r *translationRepository) Get(ctx context.Context, articleID, language string) (*model.Translation, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT `+translationColumns+` FROM article_translations WHERE article_id = ? AND language = ?`,
		articleID, language,
	)

	t, err := scanTranslation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *translationRepository) ListByArticle(ctx context.Context, articleID string) ([]model.Translation, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT `+translationColumns+` FROM article_translations WHERE article_id = ? ORDER BY language`,
		articleID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Translation
	for rows.Next() {
		t, err := scanTranslation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// Upsert overwrites on conflict; created_at survives, updated_at moves forward.
// Rows are only written for languages other than the article's original one:
// ErrOriginalLanguage when language matches it, sql.ErrNoRows when the article
// does not exist.
func (r *translationRepository) Upsert(ctx context.Context, articleID, language string, fields model.TranslationFields) error {
	id := snowflake.NextID()
	now := formatTime(time.Now())

	result, err := r.db.ExecContext(
		ctx,
		`INSERT INTO article_translations (`+translationColumns+`)
		 SELECT ?, a.id, ?, ?, ?, ?, ?, ?, ?, ?
		 FROM articles a
		 WHERE a.id = ? AND a.original_language != ?
		 ON CONFLICT(article_id, language) DO UPDATE SET
		   title = excluded.title,
		   subtitle = excluded.subtitle,
		   summary = excluded.summary,
		   content = excluded.content,
		   keywords = excluded.keywords,
		   updated_at = excluded.updated_at`,
		id, language,
		fields.Title, fields.Subtitle, fields.Summary, fields.Content,
		encodeKeywords(fields.Keywords),
		now, now,
		articleID, language,
	)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var original string
	err = r.db.QueryRowContext(ctx, `SELECT original_language FROM articles WHERE id = ?`, articleID).Scan(&original)
	if err != nil {
		return err
	}
	return ErrOriginalLanguage
}

func (r *translationRepository) DeleteByArticleID(ctx context.Context, articleID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM article_translations WHERE article_id = ?`, articleID)
	return err
}

func (r *translationRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM article_translations`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanTranslation(row rowScanner) (model.Translation, error) {
	var t model.Translation
	var keywords, createdAt, updatedAt string

	err := row.Scan(
		&t.ID, &t.ArticleID, &t.Language, &t.Title, &t.Subtitle, &t.Summary, &t.Content,
		&keywords, &createdAt, &updatedAt,
	)
	if err != nil {
		return model.Translation{}, err
	}

	t.Keywords = decodeKeywords(keywords)
	t.CreatedAt, _ = parseTime(createdAt)
	t.UpdatedAt, _ = parseTime(updatedAt)
	return t, nil
}
