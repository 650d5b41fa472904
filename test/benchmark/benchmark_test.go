package benchmark

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/riocapital/blog-api/internal/auth"
	"github.com/riocapital/blog-api/internal/cache"
	"github.com/riocapital/blog-api/internal/config"
	"github.com/riocapital/blog-api/internal/mocks"
	"github.com/riocapital/blog-api/internal/models"
	"github.com/riocapital/blog-api/internal/render"
	"github.com/riocapital/blog-api/internal/service"
	"github.com/riocapital/blog-api/internal/slug"
	"github.com/riocapital/blog-api/internal/validation"
	"github.com/rs/zerolog"
)

const articleBody = `# Weekly outlook

Yields moved **higher** this week as the market priced in
another hike. See [the minutes](https://example.com/minutes).

| Tenor | Yield |
|-------|-------|
| 2Y    | 4.10  |
| 10Y   | 3.85  |

- duration risk
- credit spreads
`

func newServices(b *testing.B) (*mocks.Store, *service.Services) {
	b.Helper()
	store := mocks.NewStore()
	cfg := &config.Config{Payments: config.PaymentsConfig{DefaultCurrency: "EUR"}}
	return store, service.NewServices(store.Repositories(), cfg, service.Dependencies{}, zerolog.Nop())
}

// BenchmarkSlugMake benchmarks slug generation for accented titles
func BenchmarkSlugMake(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = slug.Make("Équités & Bonds: perspectivas para o próximo trimestre")
	}
}

// BenchmarkMarkdownRender compares uncached and cached article rendering
func BenchmarkMarkdownRender(b *testing.B) {
	b.Run("uncached", func(b *testing.B) {
		r := render.New(nil)
		b.ReportAllocs()
		b.SetBytes(int64(len(articleBody)))
		for i := 0; i < b.N; i++ {
			_ = r.Markdown(articleBody)
		}
	})

	b.Run("cached", func(b *testing.B) {
		c, err := cache.New[string](128, 0)
		if err != nil {
			b.Fatal(err)
		}
		r := render.New(c)
		revision := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			_ = r.ArticleHTML(1, revision, articleBody)
		}
	})
}

// BenchmarkDonationExport benchmarks streaming the CSV export
func BenchmarkDonationExport(b *testing.B) {
	store, services := newServices(b)
	for i := 0; i < 1000; i++ {
		store.AddDonation(models.Donation{
			DonorName:     fmt.Sprintf("Donor %04d", i),
			DonorEmail:    fmt.Sprintf("donor%04d@example.com", i),
			AmountCents:   int64(500 + i),
			Currency:      "EUR",
			Anonymous:     i%5 == 0,
			PaymentMethod: models.PaymentMethodCard,
			TransactionID: fmt.Sprintf("TXN_%d", i),
			Status:        models.DonationCompleted,
		})
	}
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if err := services.Donation.Export(ctx, io.Discard, "csv"); err != nil {
			b.Fatal(err)
		}
	}

	b.ReportMetric(float64(1000*b.N)/b.Elapsed().Seconds(), "rows/sec")
}

// BenchmarkNewsletterImport benchmarks the subscriber CSV import
func BenchmarkNewsletterImport(b *testing.B) {
	var buf bytes.Buffer
	buf.WriteString("email,name\n")
	for i := 0; i < 1000; i++ {
		fmt.Fprintf(&buf, "reader%04d@example.com,Reader %d\n", i, i)
	}
	data := buf.Bytes()
	_, services := newServices(b)
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))

	for i := 0; i < b.N; i++ {
		if _, err := services.Newsletter.Import(ctx, bytes.NewReader(data)); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkCommentValidation benchmarks comment content checks
func BenchmarkCommentValidation(b *testing.B) {
	validator := validation.NewValidator()
	content := strings.Repeat("sensible remark ", 200)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		validator.ValidateCommentContent(content)
	}
}

// BenchmarkToggleLikeParallel benchmarks concurrent like toggles on one article
func BenchmarkToggleLikeParallel(b *testing.B) {
	store, services := newServices(b)
	author := store.AddUser(models.User{Username: "writer", Email: "writer@example.com", Role: string(auth.RoleCollaborator), Active: true})
	category := store.AddCategory(models.Category{Name: "Markets", Slug: "markets", Active: true})
	article := store.AddArticle(models.Article{Title: "Rates", Slug: "rates", AuthorID: author.ID, CategoryID: category.ID, Published: true})

	var (
		mu     sync.Mutex
		nextID int64 = 1000
	)
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	b.RunParallel(func(pb *testing.PB) {
		mu.Lock()
		nextID++
		p := &auth.Principal{UserID: nextID, Role: auth.RoleReader}
		mu.Unlock()
		for pb.Next() {
			if _, err := services.Engagement.ToggleLike(ctx, p, article.ID); err != nil {
				b.Error(err)
				return
			}
		}
	})
}
