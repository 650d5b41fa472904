package models

import (
	"time"
)

// Article represents a blog article
type Article struct {
	ID                 int64     `json:"id" db:"id"`
	Title              string    `json:"title" db:"title"`
	Slug               string    `json:"slug" db:"slug"`
	Content            string    `json:"content" db:"content"`
	ContentHTML        string    `json:"content_html,omitempty" db:"-"`
	Excerpt            string    `json:"excerpt" db:"excerpt"`
	ImageURL           string    `json:"image_url,omitempty" db:"image_url"`
	AuthorID           int64     `json:"author_id" db:"author_id"`
	AuthorName         string    `json:"author_name,omitempty" db:"-"`
	AuthorEmail        string    `json:"author_email,omitempty" db:"-"`
	AuthorLinkedIn     string    `json:"author_linkedin_url,omitempty" db:"-"`
	CategoryID         int64     `json:"category_id" db:"category_id"`
	CategoryName       string    `json:"category_name,omitempty" db:"-"`
	CategoryColor      string    `json:"category_color,omitempty" db:"-"`
	Published          bool      `json:"published" db:"published"`
	Featured           bool      `json:"featured" db:"featured"`
	ShowAuthorContacts bool      `json:"show_author_contacts" db:"show_author_contacts"`
	LikesCount         int       `json:"likes_count" db:"likes_count"`
	ViewsCount         int       `json:"views_count" db:"views_count"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// ArticleDetail is the single-article view with its comments inline
type ArticleDetail struct {
	*Article
	Comments []*Comment `json:"comments"`
}

// ArticleFilter holds the GET /articles query filters
type ArticleFilter struct {
	CategorySlug string
	AuthorID     int64
	Year         int
	Month        int
	Search       string
	ExcludeID    int64
	Featured     *bool
	Page         Page
}

// ArticleInput is the payload for creating an article
type ArticleInput struct {
	Title              string `json:"title"`
	Content            string `json:"content"`
	Excerpt            string `json:"excerpt"`
	ImageURL           string `json:"image_url"`
	CategoryID         int64  `json:"category_id"`
	Published          bool   `json:"published"`
	Featured           bool   `json:"featured"`
	ShowAuthorContacts bool   `json:"show_author_contacts"`
}

// ArticleUpdate is the payload for a partial article update
type ArticleUpdate struct {
	Title              *string `json:"title"`
	Content            *string `json:"content"`
	Excerpt            *string `json:"excerpt"`
	ImageURL           *string `json:"image_url"`
	CategoryID         *int64  `json:"category_id"`
	Published          *bool   `json:"published"`
	Featured           *bool   `json:"featured"`
	ShowAuthorContacts *bool   `json:"show_author_contacts"`
}

// ArticleStats aggregates engagement for one article
type ArticleStats struct {
	ArticleID        int64           `json:"article_id"`
	Likes            int             `json:"likes"`
	Views            int             `json:"views"`
	Comments         int             `json:"comments"`
	Shares           int             `json:"shares"`
	SharesByPlatform []PlatformCount `json:"shares_by_platform"`
}

// FilterOptions lists the values the article list can be filtered by
type FilterOptions struct {
	Categories []FilterOption `json:"categories"`
	Authors    []FilterOption `json:"authors"`
	Dates      map[int][]int  `json:"dates"`
}

// FilterOption is a value/label pair
type FilterOption struct {
	Value interface{} `json:"value"`
	Label string      `json:"label"`
}

// MaxExcerptLength bounds generated excerpts
const MaxExcerptLength = 200
