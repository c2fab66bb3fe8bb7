package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"touchline/backend/internal/model"
)

type ArticleListFilter struct {
	Category      *string
	PublishedOnly bool
	Limit         int
	Offset        int
}

// MissingCursor pages ListMissingTranslations in (created_at, id) order.
// The zero value starts at the oldest article.
type MissingCursor struct {
	CreatedAt time.Time
	ID        string
}

// CursorAfter returns the cursor that resumes after a.
func CursorAfter(a model.Article) MissingCursor {
	return MissingCursor{CreatedAt: a.CreatedAt, ID: a.ID}
}

func (c MissingCursor) IsZero() bool {
	return c.ID == ""
}

type ArticleRepository interface {
	GetByID(ctx context.Context, id string) (model.Article, error)
	List(ctx context.Context, filter ArticleListFilter) ([]model.Article, error)
	Create(ctx context.Context, article model.Article) error
	Update(ctx context.Context, article model.Article) error
	SetPublished(ctx context.Context, id string, publishedAt time.Time) error
	IncrementViews(ctx context.Context, id string) (int64, error)
	Delete(ctx context.Context, id string) error
	// ListMissingTranslations returns published articles that lack a translation
	// for at least one of languages other than their own, starting after cursor.
	ListMissingTranslations(ctx context.Context, languages []string, after MissingCursor, limit int) ([]model.Article, error)
}

type articleRepository struct {
	db dbtx
}

func NewArticleRepository(db dbtx) ArticleRepository {
	return &articleRepository{db: db}
}

const articleColumns = `id, title, subtitle, summary, content, category, keywords, thumbnail_url, author,
	original_language, published_at, published, view_count, created_at, updated_at`

func (r *articleRepository) GetByID(ctx context.Context, id string) (model.Article, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = ?`, id)
	return scanArticle(row)
}

func (r *articleRepository) List(ctx context.Context, filter ArticleListFilter) ([]model.Article, error) {
	var args []any
	query := `SELECT ` + articleColumns + ` FROM articles`

	var conditions []string
	if filter.Category != nil {
		conditions = append(conditions, "category = ?")
		args = append(args, *filter.Category)
	}
	if filter.PublishedOnly {
		conditions = append(conditions, "published = 1")
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY COALESCE(published_at, created_at) DESC, id DESC"

	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []model.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

func (r *articleRepository) Create(ctx context.Context, a model.Article) error {
	publishedInt := 0
	if a.Published {
		publishedInt = 1
	}

	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO articles (`+articleColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID,
		a.Title,
		a.Subtitle,
		a.Summary,
		a.Content,
		a.Category,
		encodeKeywords(a.Keywords),
		a.ThumbnailURL,
		a.Author,
		a.OriginalLanguage,
		timePtrValue(a.PublishedAt),
		publishedInt,
		a.ViewCount,
		formatTime(a.CreatedAt),
		formatTime(a.UpdatedAt),
	)
	return err
}

// Update rewrites the editable fields. original_language and view_count are
// never touched here.
func (r *articleRepository) Update(ctx context.Context, a model.Article) error {
	publishedInt := 0
	if a.Published {
		publishedInt = 1
	}

	result, err := r.db.ExecContext(
		ctx,
		`UPDATE articles SET
		   title = ?, subtitle = ?, summary = ?, content = ?, category = ?, keywords = ?,
		   thumbnail_url = ?, author = ?, published_at = ?, published = ?, updated_at = ?
		 WHERE id = ?`,
		a.Title,
		a.Subtitle,
		a.Summary,
		a.Content,
		a.Category,
		encodeKeywords(a.Keywords),
		a.ThumbnailURL,
		a.Author,
		timePtrValue(a.PublishedAt),
		publishedInt,
		formatTime(a.UpdatedAt),
		a.ID,
	)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (r *articleRepository) SetPublished(ctx context.Context, id string, publishedAt time.Time) error {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE articles SET published = 1, published_at = COALESCE(published_at, ?) WHERE id = ?`,
		formatTime(publishedAt),
		id,
	)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (r *articleRepository) IncrementViews(ctx context.Context, id string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(
		ctx,
		`UPDATE articles SET view_count = view_count + 1 WHERE id = ? RETURNING view_count`,
		id,
	).Scan(&count)
	return count, err
}

func (r *articleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM articles WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (r *articleRepository) ListMissingTranslations(ctx context.Context, languages []string, after MissingCursor, limit int) ([]model.Article, error) {
	if len(languages) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("(?),", len(languages)), ",")
	args := make([]any, 0, len(languages)+1)
	for _, lang := range languages {
		args = append(args, lang)
	}

	query := `WITH langs(code) AS (VALUES ` + placeholders + `)
		SELECT ` + articleColumns + ` FROM articles a
		WHERE a.published = 1 AND EXISTS (
		  SELECT 1 FROM langs l
		  WHERE l.code != a.original_language AND NOT EXISTS (
		    SELECT 1 FROM article_translations t WHERE t.article_id = a.id AND t.language = l.code
		  )
		)`
	if !after.IsZero() {
		createdAt := formatTime(after.CreatedAt)
		query += ` AND (a.created_at > ? OR (a.created_at = ? AND a.id > ?))`
		args = append(args, createdAt, createdAt, after.ID)
	}
	query += ` ORDER BY a.created_at ASC, a.id ASC`
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []model.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (model.Article, error) {
	var a model.Article
	var keywords string
	var publishedAt sql.NullString
	var createdAt, updatedAt string
	var publishedInt int

	err := row.Scan(
		&a.ID, &a.Title, &a.Subtitle, &a.Summary, &a.Content, &a.Category, &keywords,
		&a.ThumbnailURL, &a.Author, &a.OriginalLanguage, &publishedAt, &publishedInt,
		&a.ViewCount, &createdAt, &updatedAt,
	)
	if err != nil {
		return model.Article{}, err
	}

	a.Keywords = decodeKeywords(keywords)
	a.Published = publishedInt == 1
	if publishedAt.Valid {
		a.PublishedAt = parseTimePtr(publishedAt.String)
	}
	a.CreatedAt, _ = parseTime(createdAt)
	a.UpdatedAt, _ = parseTime(updatedAt)

	return a, nil
}

func timePtrValue(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
