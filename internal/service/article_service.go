package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/riocapital/blog-api/internal/auth"
	"github.com/riocapital/blog-api/internal/metrics"
	"github.com/riocapital/blog-api/internal/models"
	"github.com/riocapital/blog-api/internal/render"
	"github.com/riocapital/blog-api/internal/repository"
	"github.com/riocapital/blog-api/internal/slug"
	"github.com/riocapital/blog-api/internal/validation"
	"github.com/rs/zerolog"
)

// inlineCommentLimit bounds the comments embedded in a single article view
const inlineCommentLimit = 100

// articleService is the concrete implementation of ArticleService
type articleService struct {
	articles   repository.ArticleRepository
	categories repository.CategoryRepository
	comments   repository.CommentRepository
	renderer   *render.Renderer
	validator  *validation.Validator
	now        func() time.Time
	log        zerolog.Logger
}

// newArticleService creates a new ArticleService
func newArticleService(repos *repository.Repositories, renderer *render.Renderer, log zerolog.Logger) *articleService {
	return &articleService{
		articles:   repos.Article,
		categories: repos.Category,
		comments:   repos.Comment,
		renderer:   renderer,
		validator:  validation.NewValidator(),
		now:        time.Now,
		log:        log.With().Str("service", "articles").Logger(),
	}
}

// List returns a page of published articles
func (s *articleService) List(ctx context.Context, filter *models.ArticleFilter) ([]*models.Article, models.Pagination, error) {
	articles, total, err := s.articles.List(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return articles, models.NewPagination(filter.Page, total), nil
}

// FilterOptions lists the values the article list can be filtered by
func (s *articleService) FilterOptions(ctx context.Context) (*models.FilterOptions, error) {
	return s.articles.FilterOptions(ctx)
}

// ListMine returns the caller's own articles including drafts
func (s *articleService) ListMine(ctx context.Context, p *auth.Principal, page models.Page) ([]*models.Article, models.Pagination, error) {
	if err := principalRequired(p); err != nil {
		return nil, models.Pagination{}, err
	}
	articles, total, err := s.articles.ListByAuthor(ctx, p.UserID, page)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return articles, models.NewPagination(page, total), nil
}

func (s *articleService) lookup(ctx context.Context, ref string) (*models.Article, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return s.articles.GetByID(ctx, id)
	}
	return s.articles.GetBySlug(ctx, ref)
}

// visible reports whether p may read a, drafts being limited to their author and admins
func visible(p *auth.Principal, a *models.Article) bool {
	return a.Published || p.OwnsOrAdmin(a.AuthorID)
}

// Get returns one article by id or slug, counts the view and embeds its comments
func (s *articleService) Get(ctx context.Context, p *auth.Principal, ref string) (*models.ArticleDetail, error) {
	article, err := s.lookup(ctx, strings.TrimSpace(ref))
	if err != nil {
		return nil, err
	}
	if article == nil || !visible(p, article) {
		return nil, models.NewNotFoundError("article", ref)
	}

	views, err := s.articles.IncrementViews(ctx, article.ID)
	if err != nil {
		return nil, err
	}
	article.ViewsCount = views
	metrics.ArticleViews.Inc()

	article.ContentHTML = s.renderer.ArticleHTML(article.ID, article.UpdatedAt, article.Content)

	comments, _, err := s.comments.ListForArticle(ctx, article.ID, !p.IsAdmin(), models.Page{Number: 1, PerPage: inlineCommentLimit})
	if err != nil {
		return nil, err
	}
	return &models.ArticleDetail{Article: article, Comments: comments}, nil
}

func (s *articleService) requireCategory(ctx context.Context, id int64) error {
	exists, err := s.categories.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return models.NewNotFoundError("category", id)
	}
	return nil
}

func (s *articleService) excerpt(content string) string {
	return s.renderer.Excerpt(s.renderer.Markdown(content), models.MaxExcerptLength)
}

// Create publishes or drafts a new article owned by the caller
func (s *articleService) Create(ctx context.Context, p *auth.Principal, in *models.ArticleInput) (*models.Article, error) {
	if err := principalRequired(p); err != nil {
		return nil, err
	}
	if !p.Can(auth.PermissionWriteArticles) {
		return nil, models.NewPermissionError("collaborator or admin role required")
	}
	if errs := s.validator.ValidateArticle(in); len(errs) > 0 {
		return nil, validation.ToAppError(errs)
	}
	if err := s.requireCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	article := &models.Article{
		Title:              strings.TrimSpace(in.Title),
		Content:            in.Content,
		Excerpt:            strings.TrimSpace(in.Excerpt),
		ImageURL:           strings.TrimSpace(in.ImageURL),
		AuthorID:           p.UserID,
		CategoryID:         in.CategoryID,
		Published:          in.Published,
		Featured:           in.Featured,
		ShowAuthorContacts: in.ShowAuthorContacts,
	}
	if article.Excerpt == "" {
		article.Excerpt = s.excerpt(article.Content)
	}

	base := slug.Make(article.Title)
	if base == "" {
		base = "article"
	}
	article.Slug = base
	taken, err := s.articles.SlugExists(ctx, base)
	if err != nil {
		return nil, err
	}
	if taken {
		article.Slug = slug.WithTimestamp(base, s.now())
	}

	err = s.articles.Create(ctx, article)
	if errors.Is(err, repository.ErrDuplicate) {
		// lost a race for the same slug
		article.Slug = slug.WithTimestamp(base, s.now().Add(time.Second))
		err = s.articles.Create(ctx, article)
	}
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, models.NewConflictError("an article with this slug already exists")
		}
		return nil, err
	}

	s.log.Info().
		Int64("article_id", article.ID).
		Int64("author_id", article.AuthorID).
		Str("slug", article.Slug).
		Bool("published", article.Published).
		Msg("Article created")

	return s.articles.GetByID(ctx, article.ID)
}

func (s *articleService) owned(ctx context.Context, p *auth.Principal, id int64) (*models.Article, error) {
	if err := principalRequired(p); err != nil {
		return nil, err
	}
	article, err := s.articles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if article == nil {
		return nil, models.NewNotFoundError("article", id)
	}
	if !p.OwnsOrAdmin(article.AuthorID) {
		return nil, models.NewPermissionError("only the author or an admin can modify this article")
	}
	return article, nil
}

// Update applies a partial update to an article the caller owns
func (s *articleService) Update(ctx context.Context, p *auth.Principal, id int64, in *models.ArticleUpdate) (*models.Article, error) {
	if errs := s.validator.ValidateArticleUpdate(in); len(errs) > 0 {
		return nil, validation.ToAppError(errs)
	}
	article, err := s.owned(ctx, p, id)
	if err != nil {
		return nil, err
	}

	if in.CategoryID != nil && *in.CategoryID != article.CategoryID {
		if err := s.requireCategory(ctx, *in.CategoryID); err != nil {
			return nil, err
		}
		article.CategoryID = *in.CategoryID
	}
	if in.Title != nil {
		article.Title = strings.TrimSpace(*in.Title)
	}
	if in.Content != nil {
		article.Content = *in.Content
	}
	if in.Excerpt != nil {
		article.Excerpt = strings.TrimSpace(*in.Excerpt)
		if article.Excerpt == "" {
			article.Excerpt = s.excerpt(article.Content)
		}
	}
	if in.ImageURL != nil {
		article.ImageURL = strings.TrimSpace(*in.ImageURL)
	}
	if in.Published != nil {
		article.Published = *in.Published
	}
	if in.Featured != nil {
		article.Featured = *in.Featured
	}
	if in.ShowAuthorContacts != nil {
		article.ShowAuthorContacts = *in.ShowAuthorContacts
	}

	if err := s.articles.Update(ctx, article); err != nil {
		return nil, err
	}
	s.log.Info().Int64("article_id", id).Int64("user_id", p.UserID).Msg("Article updated")
	return s.articles.GetByID(ctx, id)
}

// Delete removes an article the caller owns together with its engagement
func (s *articleService) Delete(ctx context.Context, p *auth.Principal, id int64) error {
	if _, err := s.owned(ctx, p, id); err != nil {
		return err
	}
	deleted, err := s.articles.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return models.NewNotFoundError("article", id)
	}
	s.log.Info().Int64("article_id", id).Int64("user_id", p.UserID).Msg("Article deleted")
	return nil
}

// Stats returns engagement figures for an article the caller owns
func (s *articleService) Stats(ctx context.Context, p *auth.Principal, id int64) (*models.ArticleStats, error) {
	if _, err := s.owned(ctx, p, id); err != nil {
		return nil, err
	}
	stats, err := s.articles.Stats(ctx, id)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		return nil, models.NewNotFoundError("article", id)
	}
	return stats, nil
}
