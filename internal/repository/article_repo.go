package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/riocapital/blog-api/internal/database"
	"github.com/riocapital/blog-api/internal/models"
)

const articleSelect = `
	SELECT a.id, a.title, a.slug, a.content, COALESCE(a.excerpt, ''), COALESCE(a.image_url, ''),
		a.author_id, u.username, COALESCE(u.first_name, ''), COALESCE(u.last_name, ''),
		u.email, COALESCE(u.linkedin_url, ''),
		a.category_id, c.name, c.color,
		a.published, a.featured, a.show_author_contacts,
		a.likes_count, a.views_count, a.created_at, a.updated_at
	FROM articles a
	JOIN users u ON u.id = a.author_id
	JOIN categories c ON c.id = a.category_id`

// articleRepo is the concrete implementation of ArticleRepository
type articleRepo struct {
	db *database.DB
}

// NewArticleRepo creates a new article repository
func NewArticleRepo(db *database.DB) ArticleRepository {
	return &articleRepo{db: db}
}

func scanArticle(row rowScanner) (*models.Article, error) {
	var a models.Article
	author := models.User{}
	err := row.Scan(
		&a.ID, &a.Title, &a.Slug, &a.Content, &a.Excerpt, &a.ImageURL,
		&a.AuthorID, &author.Username, &author.FirstName, &author.LastName,
		&a.AuthorEmail, &a.AuthorLinkedIn,
		&a.CategoryID, &a.CategoryName, &a.CategoryColor,
		&a.Published, &a.Featured, &a.ShowAuthorContacts,
		&a.LikesCount, &a.ViewsCount, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.AuthorName = author.FullName()
	if !a.ShowAuthorContacts {
		a.AuthorEmail = ""
		a.AuthorLinkedIn = ""
	}
	return &a, nil
}

// Create inserts a new article
func (r *articleRepo) Create(ctx context.Context, article *models.Article) error {
	query := `
		INSERT INTO articles (title, slug, content, excerpt, image_url, author_id, category_id,
			published, featured, show_author_contacts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, likes_count, views_count, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		article.Title, article.Slug, article.Content, nullString(article.Excerpt), nullString(article.ImageURL),
		article.AuthorID, article.CategoryID,
		article.Published, article.Featured, article.ShowAuthorContacts,
	).Scan(&article.ID, &article.LikesCount, &article.ViewsCount, &article.CreatedAt, &article.UpdatedAt)
	return translateErr(err)
}

// Update writes the editable fields of an article
func (r *articleRepo) Update(ctx context.Context, article *models.Article) error {
	query := `
		UPDATE articles SET title = $2, content = $3, excerpt = $4, image_url = $5, category_id = $6,
			published = $7, featured = $8, show_author_contacts = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		article.ID, article.Title, article.Content, nullString(article.Excerpt), nullString(article.ImageURL),
		article.CategoryID, article.Published, article.Featured, article.ShowAuthorContacts,
	).Scan(&article.UpdatedAt)
	return translateErr(err)
}

// Delete removes an article; dependent rows go with it through ON DELETE CASCADE
func (r *articleRepo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM articles WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// GetByID retrieves an article by ID
func (r *articleRepo) GetByID(ctx context.Context, id int64) (*models.Article, error) {
	a, err := scanArticle(r.db.QueryRowContext(ctx, articleSelect+" WHERE a.id = $1", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

// GetBySlug retrieves an article by slug
func (r *articleRepo) GetBySlug(ctx context.Context, slug string) (*models.Article, error) {
	a, err := scanArticle(r.db.QueryRowContext(ctx, articleSelect+" WHERE a.slug = $1", slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

// SlugExists checks if an article with the given slug exists
func (r *articleRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM articles WHERE slug = $1)", slug).Scan(&exists)
	return exists, err
}

// articleWhere builds the WHERE clause of the public listing
func articleWhere(f *models.ArticleFilter) (string, []interface{}) {
	conds := []string{"a.published = TRUE"}
	var args []interface{}
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.CategorySlug != "" {
		add("c.slug = $%d", f.CategorySlug)
	}
	if f.AuthorID > 0 {
		add("a.author_id = $%d", f.AuthorID)
	}
	if f.Year > 0 {
		add("EXTRACT(YEAR FROM a.created_at) = $%d", f.Year)
		if f.Month >= 1 && f.Month <= 12 {
			add("EXTRACT(MONTH FROM a.created_at) = $%d", f.Month)
		}
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		args = append(args, "%"+q+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(a.title ILIKE $%d OR a.content ILIKE $%d OR a.excerpt ILIKE $%d)", n, n, n))
	}
	if f.ExcludeID > 0 {
		add("a.id <> $%d", f.ExcludeID)
	}
	if f.Featured != nil {
		add("a.featured = $%d", *f.Featured)
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *articleRepo) queryArticles(ctx context.Context, query string, args ...interface{}) ([]*models.Article, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	articles := []*models.Article{}
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// List returns a page of published articles matching filter, newest first
func (r *articleRepo) List(ctx context.Context, filter *models.ArticleFilter) ([]*models.Article, int, error) {
	where, args := articleWhere(filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM articles a JOIN categories c ON c.id = a.category_id` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	query := articleSelect + where +
		fmt.Sprintf(" ORDER BY a.created_at DESC, a.id DESC LIMIT $%d OFFSET $%d", n+1, n+2)
	args = append(args, filter.Page.PerPage, filter.Page.Offset())

	articles, err := r.queryArticles(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return articles, total, nil
}

// ListByAuthor returns an author's articles including drafts
func (r *articleRepo) ListByAuthor(ctx context.Context, authorID int64, page models.Page) ([]*models.Article, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles WHERE author_id = $1", authorID).Scan(&total); err != nil {
		return nil, 0, err
	}

	articles, err := r.queryArticles(ctx,
		articleSelect+" WHERE a.author_id = $1 ORDER BY a.created_at DESC, a.id DESC LIMIT $2 OFFSET $3",
		authorID, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	return articles, total, nil
}

// IncrementViews bumps views_count by one and returns the new value
func (r *articleRepo) IncrementViews(ctx context.Context, id int64) (int, error) {
	var views int
	err := r.db.QueryRowContext(ctx,
		"UPDATE articles SET views_count = views_count + 1 WHERE id = $1 RETURNING views_count", id,
	).Scan(&views)
	return views, err
}

// Stats aggregates engagement counters for one article
func (r *articleRepo) Stats(ctx context.Context, id int64) (*models.ArticleStats, error) {
	query := `
		SELECT a.likes_count, a.views_count,
			(SELECT COUNT(*) FROM comments WHERE article_id = a.id),
			(SELECT COUNT(*) FROM shares WHERE article_id = a.id)
		FROM articles a WHERE a.id = $1
	`
	stats := &models.ArticleStats{ArticleID: id, SharesByPlatform: []models.PlatformCount{}}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&stats.Likes, &stats.Views, &stats.Comments, &stats.Shares)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT platform, COUNT(*) FROM shares WHERE article_id = $1 GROUP BY platform ORDER BY COUNT(*) DESC, platform", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var pc models.PlatformCount
		if err := rows.Scan(&pc.Platform, &pc.Count); err != nil {
			return nil, err
		}
		stats.SharesByPlatform = append(stats.SharesByPlatform, pc)
	}
	return stats, rows.Err()
}

// FilterOptions lists the categories, authors and months that have published articles
func (r *articleRepo) FilterOptions(ctx context.Context) (*models.FilterOptions, error) {
	opts := &models.FilterOptions{
		Categories: []models.FilterOption{},
		Authors:    []models.FilterOption{},
		Dates:      map[int][]int{},
	}

	catRows, err := r.db.QueryContext(ctx, `
		SELECT c.slug, c.name FROM categories c
		WHERE c.is_active AND EXISTS (SELECT 1 FROM articles a WHERE a.category_id = c.id AND a.published)
		ORDER BY c.name`)
	if err != nil {
		return nil, err
	}
	defer catRows.Close()
	for catRows.Next() {
		var slug, name string
		if err := catRows.Scan(&slug, &name); err != nil {
			return nil, err
		}
		opts.Categories = append(opts.Categories, models.FilterOption{Value: slug, Label: name})
	}
	if err := catRows.Err(); err != nil {
		return nil, err
	}

	authorRows, err := r.db.QueryContext(ctx, `
		SELECT u.id, u.username, COALESCE(u.first_name, ''), COALESCE(u.last_name, '') FROM users u
		WHERE EXISTS (SELECT 1 FROM articles a WHERE a.author_id = u.id AND a.published)
		ORDER BY u.username`)
	if err != nil {
		return nil, err
	}
	defer authorRows.Close()
	for authorRows.Next() {
		var u models.User
		if err := authorRows.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName); err != nil {
			return nil, err
		}
		opts.Authors = append(opts.Authors, models.FilterOption{Value: u.ID, Label: u.FullName()})
	}
	if err := authorRows.Err(); err != nil {
		return nil, err
	}

	dateRows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT EXTRACT(YEAR FROM created_at)::int, EXTRACT(MONTH FROM created_at)::int
		FROM articles WHERE published
		ORDER BY 1 DESC, 2 DESC`)
	if err != nil {
		return nil, err
	}
	defer dateRows.Close()
	for dateRows.Next() {
		var year, month int
		if err := dateRows.Scan(&year, &month); err != nil {
			return nil, err
		}
		opts.Dates[year] = append(opts.Dates[year], month)
	}
	return opts, dateRows.Err()
}
