package models

import (
	"time"
)

// DefaultCategoryColor is used when a category is created without a color
const DefaultCategoryColor = "#007BFF"

// Category groups articles
type Category struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Slug         string    `json:"slug" db:"slug"`
	Description  string    `json:"description" db:"description"`
	Color        string    `json:"color" db:"color"`
	ImageURL     string    `json:"image_url,omitempty" db:"image_url"`
	CreatedBy    *int64    `json:"created_by,omitempty" db:"created_by"`
	Active       bool      `json:"is_active" db:"is_active"`
	ArticleCount int       `json:"article_count" db:"-"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// CategoryInput is the payload for creating or updating a category
type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	ImageURL    string `json:"image_url"`
	Active      *bool  `json:"is_active"`
}
