package model

import "time"

// TranslationFields is the field set that moves through the translation pipeline.
// Empty strings mean the field is absent.
type TranslationFields struct {
	Title    string   `json:"title"`
	Subtitle string   `json:"subtitle"`
	Summary  string   `json:"summary"`
	Content  string   `json:"content"`
	Keywords []string `json:"keywords"`
}

// Translation is a persisted translation of an article into one language.
type Translation struct {
	ID        int64
	ArticleID string
	Language  string
	TranslationFields
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StaleFor reports whether the source article changed after this translation was written.
func (t Translation) StaleFor(a Article) bool {
	return a.UpdatedAt.After(t.UpdatedAt)
}
