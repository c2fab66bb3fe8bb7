package model

import "time"

type Article struct {
	ID               string
	Title            string
	Subtitle         *string
	Summary          *string
	Content          string
	Category         string
	Keywords         []string
	ThumbnailURL     *string
	Author           *string
	OriginalLanguage string
	PublishedAt      *time.Time
	Published        bool
	ViewCount        int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Fields returns the translatable part of the article.
func (a Article) Fields() TranslationFields {
	f := TranslationFields{
		Title:    a.Title,
		Content:  a.Content,
		Keywords: append([]string(nil), a.Keywords...),
	}
	if a.Subtitle != nil {
		f.Subtitle = *a.Subtitle
	}
	if a.Summary != nil {
		f.Summary = *a.Summary
	}
	return f
}
