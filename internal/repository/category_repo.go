package repository

import (
	"context"
	"database/sql"

	"github.com/riocapital/blog-api/internal/database"
	"github.com/riocapital/blog-api/internal/models"
)

const categoryColumns = `c.id, c.name, c.slug, COALESCE(c.description, ''), c.color,
	COALESCE(c.image_url, ''), c.created_by, c.is_active, c.created_at`

// categoryRepo is the concrete implementation of CategoryRepository
type categoryRepo struct {
	db *database.DB
}

// NewCategoryRepo creates a new category repository
func NewCategoryRepo(db *database.DB) CategoryRepository {
	return &categoryRepo{db: db}
}

func scanCategory(row rowScanner, extra ...interface{}) (*models.Category, error) {
	var c models.Category
	var createdBy sql.NullInt64
	dest := []interface{}{
		&c.ID, &c.Name, &c.Slug, &c.Description, &c.Color,
		&c.ImageURL, &createdBy, &c.Active, &c.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	c.CreatedBy = int64Ptr(createdBy)
	return &c, nil
}

// Create inserts a new category
func (r *categoryRepo) Create(ctx context.Context, category *models.Category) error {
	query := `
		INSERT INTO categories (name, slug, description, color, image_url, created_by, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		category.Name, category.Slug, nullString(category.Description), category.Color,
		nullString(category.ImageURL), nullInt64(category.CreatedBy), category.Active,
	).Scan(&category.ID, &category.CreatedAt)
	return translateErr(err)
}

// Update writes the editable fields of a category
func (r *categoryRepo) Update(ctx context.Context, category *models.Category) error {
	query := `
		UPDATE categories SET name = $2, slug = $3, description = $4, color = $5, image_url = $6, is_active = $7
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query,
		category.ID, category.Name, category.Slug, nullString(category.Description), category.Color,
		nullString(category.ImageURL), category.Active,
	)
	return translateErr(err)
}

// Delete removes a category
func (r *categoryRepo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM categories WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// GetByID retrieves a category by ID
func (r *categoryRepo) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx, "SELECT "+categoryColumns+" FROM categories c WHERE c.id = $1", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// GetBySlug retrieves a category by slug
func (r *categoryRepo) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx, "SELECT "+categoryColumns+" FROM categories c WHERE c.slug = $1", slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// Exists checks if a category with the given ID exists
func (r *categoryRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1)", id).Scan(&exists)
	return exists, err
}

// ArticleCount returns how many articles reference the category
func (r *categoryRepo) ArticleCount(ctx context.Context, id int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles WHERE category_id = $1", id).Scan(&count)
	return count, err
}

// ListActive returns active categories by name with their published article counts
func (r *categoryRepo) ListActive(ctx context.Context) ([]*models.Category, error) {
	query := "SELECT " + categoryColumns + `,
			(SELECT COUNT(*) FROM articles a WHERE a.category_id = c.id AND a.published)
		FROM categories c
		WHERE c.is_active
		ORDER BY c.name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []*models.Category{}
	for rows.Next() {
		var count int
		c, err := scanCategory(rows, &count)
		if err != nil {
			return nil, err
		}
		c.ArticleCount = count
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
