package render

import (
	"strings"
	"testing"
	"time"

	"github.com/riocapital/blog-api/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownSanitises(t *testing.T) {
	r := New(nil)

	out := r.Markdown("# Title\n\nSome **bold** text <script>alert(1)</script>")
	assert.Contains(t, out, "<h1")
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.NotContains(t, out, "<script>")
}

func TestMarkdownLinksOpenInNewTab(t *testing.T) {
	r := New(nil)

	out := r.Markdown("[site](https://example.com)")
	assert.Contains(t, out, `target="_blank"`)
	assert.Contains(t, out, "noreferrer")
}

func TestArticleHTMLCaches(t *testing.T) {
	c, err := cache.New[string](10, time.Minute)
	require.NoError(t, err)
	r := New(c)

	updated := time.Unix(1700000000, 0)
	first := r.ArticleHTML(1, updated, "hello")
	assert.Equal(t, 1, c.Len())

	// same revision is served from the cache even if the source differs
	second := r.ArticleHTML(1, updated, "changed")
	assert.Equal(t, first, second)

	third := r.ArticleHTML(1, updated.Add(time.Second), "changed")
	assert.Contains(t, third, "changed")
}

func TestPlainText(t *testing.T) {
	r := New(nil)
	assert.Equal(t, "hi there & you", r.PlainText("<b>hi</b> there &amp; you<script>x</script>"))
}

func TestExcerpt(t *testing.T) {
	r := New(nil)

	assert.Equal(t, "short text", r.Excerpt("<p>short   text</p>", 200))

	long := strings.Repeat("a", 250)
	assert.Len(t, r.Excerpt(long, 200), 200)
}
