package service

import (
	"bytes"
	"context"
	"html"
	"html/template"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"touchline/backend/internal/model"
	"touchline/backend/internal/service/ai"
)

// descriptionRunes caps the body excerpt used when an article has no summary.
const descriptionRunes = 200

// ShareCacheControl is sent with crawler pages.
const ShareCacheControl = "public, max-age=3600"

var crawlerAgents = []string{
	"facebookexternalhit",
	"twitterbot",
	"linkedinbot",
	"slackbot",
	"whatsapp",
	"telegrambot",
	"discordbot",
	"googlebot",
	"bingbot",
	"pinterest",
	"redditbot",
	"applebot",
	"skypeuripreview",
	"embedly",
	"vkshare",
	"quora link preview",
}

// IsCrawler reports whether userAgent belongs to a link-preview or search bot.
func IsCrawler(userAgent string) bool {
	ua := strings.ToLower(userAgent)
	if ua == "" {
		return false
	}
	for _, bot := range crawlerAgents {
		if strings.Contains(ua, bot) {
			return true
		}
	}
	return false
}

type SiteInfo struct {
	Name string
	URL  string
}

// ShareService renders static meta-tag pages for crawlers. Pages always use
// the article's original-language fields.
type ShareService interface {
	RenderArticle(ctx context.Context, id string) ([]byte, error)
	RenderNotFound() []byte
}

type shareService struct {
	articles ArticleService
	site     SiteInfo
	policy   *bluemonday.Policy
}

func NewShareService(articles ArticleService, site SiteInfo) ShareService {
	site.URL = strings.TrimRight(site.URL, "/")
	return &shareService{
		articles: articles,
		site:     site,
		policy:   bluemonday.StrictPolicy(),
	}
}

type sharePage struct {
	Lang        string
	Title       string
	Description string
	Image       string
	URL         string
	SiteName    string
	Author      string
	PublishedAt string
	Section     string
	Keywords    []string
}

var shareTemplate = template.Must(template.New("share").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<title>{{.Title}} | {{.SiteName}}</title>
<meta name="description" content="{{.Description}}">
{{- if .Keywords}}
<meta name="keywords" content="{{range $i, $k := .Keywords}}{{if $i}}, {{end}}{{$k}}{{end}}">
{{- end}}
<meta property="og:type" content="article">
<meta property="og:site_name" content="{{.SiteName}}">
<meta property="og:title" content="{{.Title}}">
<meta property="og:description" content="{{.Description}}">
{{- if .URL}}
<meta property="og:url" content="{{.URL}}">
<link rel="canonical" href="{{.URL}}">
{{- end}}
{{- if .Image}}
<meta property="og:image" content="{{.Image}}">
{{- end}}
{{- if .PublishedAt}}
<meta property="article:published_time" content="{{.PublishedAt}}">
{{- end}}
{{- if .Author}}
<meta property="article:author" content="{{.Author}}">
{{- end}}
<meta property="article:section" content="{{.Section}}">
<meta name="twitter:card" content="{{if .Image}}summary_large_image{{else}}summary{{end}}">
<meta name="twitter:title" content="{{.Title}}">
<meta name="twitter:description" content="{{.Description}}">
{{- if .Image}}
<meta name="twitter:image" content="{{.Image}}">
{{- end}}
</head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Description}}</p>
</body>
</html>
`))

var notFoundPage = []byte(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Article not found</title><meta name="robots" content="noindex"></head>
<body><h1>Article not found</h1></body>
</html>
`)

func (s *shareService) RenderArticle(ctx context.Context, id string) ([]byte, error) {
	article, err := s.articles.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !article.Published {
		return nil, ErrNotFound
	}

	page := sharePage{
		Lang:        article.OriginalLanguage,
		Title:       s.clean(article.Title),
		Description: s.description(article),
		SiteName:    s.site.Name,
		Section:     article.Category,
	}
	if article.ThumbnailURL != nil {
		page.Image = *article.ThumbnailURL
	}
	if article.Author != nil {
		page.Author = s.clean(*article.Author)
	}
	if article.PublishedAt != nil {
		page.PublishedAt = article.PublishedAt.UTC().Format(time.RFC3339)
	}
	if s.site.URL != "" {
		page.URL = s.site.URL + "/article/" + article.ID
	}
	for _, k := range article.Keywords {
		page.Keywords = append(page.Keywords, s.clean(k))
	}

	var buf bytes.Buffer
	if err := shareTemplate.Execute(&buf, page); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *shareService) RenderNotFound() []byte {
	return notFoundPage
}

func (s *shareService) description(a model.Article) string {
	if a.Summary != nil {
		if summary := s.clean(*a.Summary); summary != "" {
			return summary
		}
	}
	return s.clean(ai.Excerpt(a.Content, descriptionRunes))
}

// clean strips markup and returns plain text; the template escapes it again.
func (s *shareService) clean(text string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(text)))
}
