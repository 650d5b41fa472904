package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/riocapital/blog-api/internal/auth"
	"github.com/riocapital/blog-api/internal/cache"
	"github.com/riocapital/blog-api/internal/models"
	"github.com/riocapital/blog-api/internal/repository"
	"github.com/riocapital/blog-api/internal/slug"
	"github.com/riocapital/blog-api/internal/validation"
	"github.com/rs/zerolog"
)

const activeCategoriesKey = "categories:active"

// categoryService is the concrete implementation of CategoryService
type categoryService struct {
	categories repository.CategoryRepository
	cache      *cache.TTL[[]*models.Category]
	validator  *validation.Validator
	log        zerolog.Logger
}

// newCategoryService creates a new CategoryService. listCache may be nil.
func newCategoryService(categories repository.CategoryRepository, listCache *cache.TTL[[]*models.Category], log zerolog.Logger) *categoryService {
	return &categoryService{
		categories: categories,
		cache:      listCache,
		validator:  validation.NewValidator(),
		log:        log.With().Str("service", "categories").Logger(),
	}
}

func (s *categoryService) invalidate() {
	if s.cache != nil {
		s.cache.Delete(activeCategoriesKey)
	}
}

// List returns active categories with their article counts
func (s *categoryService) List(ctx context.Context) ([]*models.Category, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(activeCategoriesKey); ok {
			return cached, nil
		}
	}
	categories, err := s.categories.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(activeCategoriesKey, categories)
	}
	return categories, nil
}

// Get returns a category by id or slug
func (s *categoryService) Get(ctx context.Context, ref string) (*models.Category, error) {
	ref = strings.TrimSpace(ref)
	var (
		category *models.Category
		err      error
	)
	if id, convErr := strconv.ParseInt(ref, 10, 64); convErr == nil {
		category, err = s.categories.GetByID(ctx, id)
	} else {
		category, err = s.categories.GetBySlug(ctx, ref)
	}
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, models.NewNotFoundError("category", ref)
	}
	return category, nil
}

func categorySlug(name string) string {
	if s := slug.Make(name); s != "" {
		return s
	}
	return "category"
}

func translateCategoryErr(err error, name string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return models.NewConflictError(fmt.Sprintf("category %q already exists", name))
	}
	return err
}

// Create adds a category owned by the caller
func (s *categoryService) Create(ctx context.Context, p *auth.Principal, in *models.CategoryInput) (*models.Category, error) {
	if err := principalRequired(p); err != nil {
		return nil, err
	}
	if errs := s.validator.ValidateCategory(in); len(errs) > 0 {
		return nil, validation.ToAppError(errs)
	}

	uid := p.UserID
	category := &models.Category{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Color:       in.Color,
		ImageURL:    strings.TrimSpace(in.ImageURL),
		CreatedBy:   &uid,
		Active:      true,
	}
	category.Slug = categorySlug(category.Name)
	if category.Color == "" {
		category.Color = models.DefaultCategoryColor
	}
	if in.Active != nil {
		category.Active = *in.Active
	}

	if err := s.categories.Create(ctx, category); err != nil {
		return nil, translateCategoryErr(err, category.Name)
	}
	s.invalidate()

	s.log.Info().Int64("category_id", category.ID).Str("slug", category.Slug).Msg("Category created")
	return category, nil
}

// Update replaces a category's editable fields
func (s *categoryService) Update(ctx context.Context, id int64, in *models.CategoryInput) (*models.Category, error) {
	if errs := s.validator.ValidateCategory(in); len(errs) > 0 {
		return nil, validation.ToAppError(errs)
	}
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, models.NewNotFoundError("category", id)
	}

	category.Name = strings.TrimSpace(in.Name)
	category.Slug = categorySlug(category.Name)
	category.Description = strings.TrimSpace(in.Description)
	category.ImageURL = strings.TrimSpace(in.ImageURL)
	if in.Color != "" {
		category.Color = in.Color
	}
	if in.Active != nil {
		category.Active = *in.Active
	}

	if err := s.categories.Update(ctx, category); err != nil {
		return nil, translateCategoryErr(err, category.Name)
	}
	s.invalidate()

	s.log.Info().Int64("category_id", id).Msg("Category updated")
	return category, nil
}

// Delete removes a category that no article references
func (s *categoryService) Delete(ctx context.Context, id int64) error {
	count, err := s.categories.ArticleCount(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return models.NewValidationError(fmt.Sprintf("category has %d articles and cannot be deleted", count))
	}
	deleted, err := s.categories.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return models.NewNotFoundError("category", id)
	}
	s.invalidate()

	s.log.Info().Int64("category_id", id).Msg("Category deleted")
	return nil
}
