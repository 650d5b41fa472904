package render

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/riocapital/blog-api/internal/cache"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Renderer turns stored markdown into sanitised HTML and derives plain text
// from user input.
type Renderer struct {
	md     goldmark.Markdown
	ugc    *bluemonday.Policy
	strict *bluemonday.Policy
	cache  *cache.TTL[string]
}

// New creates a Renderer. A nil cache disables HTML caching.
func New(htmlCache *cache.TTL[string]) *Renderer {
	ugc := bluemonday.UGCPolicy()
	ugc.AllowImages()
	ugc.AddTargetBlankToFullyQualifiedLinks(true)
	ugc.RequireNoReferrerOnLinks(true)

	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
		),
		ugc:    ugc,
		strict: bluemonday.StrictPolicy(),
		cache:  htmlCache,
	}
}

// Markdown renders source to sanitised HTML
func (r *Renderer) Markdown(source string) string {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return r.ugc.Sanitize(source)
	}
	return string(r.ugc.SanitizeBytes(buf.Bytes()))
}

// ArticleHTML renders an article body, caching the result per article
// revision.
func (r *Renderer) ArticleHTML(articleID int64, updatedAt time.Time, source string) string {
	if r.cache == nil {
		return r.Markdown(source)
	}
	key := fmt.Sprintf("article:%d:%d", articleID, updatedAt.UnixNano())
	if out, ok := r.cache.Get(key); ok {
		return out
	}
	out := r.Markdown(source)
	r.cache.Set(key, out)
	return out
}

// PlainText strips every tag and unescapes entities
func (r *Renderer) PlainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(r.strict.Sanitize(s)))
}

// Excerpt returns the first max characters of the tag-stripped content
func (r *Renderer) Excerpt(content string, max int) string {
	text := strings.Join(strings.Fields(r.PlainText(content)), " ")
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	return string([]rune(text)[:max])
}
