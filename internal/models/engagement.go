package models

import (
	"time"
)

// InsertOutcome is the result of attempting to insert a unique engagement row.
// The (article_id, user_id) uniqueness constraint decides which one applies.
type InsertOutcome int

const (
	Inserted InsertOutcome = iota
	AlreadyExists
)

func (o InsertOutcome) String() string {
	if o == Inserted {
		return "inserted"
	}
	return "already_exists"
}

// LikeResult is returned by the like toggle
type LikeResult struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likes_count"`
}

// FavoriteResult is returned by the favorite toggle
type FavoriteResult struct {
	Favorited bool `json:"favorited"`
}

// Engagement is the caller's view of one article
type Engagement struct {
	Liked      bool `json:"liked"`
	Favorited  bool `json:"favorited"`
	LikesCount int  `json:"likes_count"`
}

// Share records a share event; shares are append-only
type Share struct {
	ID        int64     `json:"id" db:"id"`
	ArticleID int64     `json:"article_id" db:"article_id"`
	UserID    *int64    `json:"user_id,omitempty" db:"user_id"`
	Platform  string    `json:"platform" db:"platform"`
	IPAddress string    `json:"-" db:"ip_address"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// PlatformCount is a per-platform share total
type PlatformCount struct {
	Platform string `json:"platform"`
	Count    int    `json:"count"`
}

// FavoriteArticle is an entry of the caller's favourites list
type FavoriteArticle struct {
	*Article
	FavoritedAt time.Time `json:"favorited_at"`
}

// SharePlatforms lists the accepted share platform labels
var SharePlatforms = map[string]bool{
	"facebook": true,
	"twitter":  true,
	"linkedin": true,
	"whatsapp": true,
	"telegram": true,
	"email":    true,
	"copy":     true,
}
