// Package testutil provides sqlite-backed fixtures for repository and service tests.
package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"touchline/backend/internal/db"
	"touchline/backend/internal/model"
	"touchline/backend/internal/repository"
)

// NewTestDB opens a migrated database in a per-test temp dir.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "touchline-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

// SeedArticle inserts a with defaults filled in and returns the stored copy.
func SeedArticle(t *testing.T, database *sql.DB, a model.Article) model.Article {
	t.Helper()

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Title == "" {
		a.Title = "Untitled"
	}
	if a.Content == "" {
		a.Content = "<p>Body</p>"
	}
	if a.Category == "" {
		a.Category = "football"
	}
	if a.OriginalLanguage == "" {
		a.OriginalLanguage = "en"
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}

	repo := repository.NewArticleRepository(database)
	require.NoError(t, repo.Create(context.Background(), a))

	stored, err := repo.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	return stored
}

func StringPtr(s string) *string {
	return &s
}
