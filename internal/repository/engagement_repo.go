package repository

import (
	"context"
	"database/sql"

	"github.com/riocapital/blog-api/internal/database"
	"github.com/riocapital/blog-api/internal/models"
)

// engagementRepo is the concrete implementation of EngagementRepository
type engagementRepo struct {
	db *database.DB
}

// NewEngagementRepo creates a new engagement repository
func NewEngagementRepo(db *database.DB) EngagementRepository {
	return &engagementRepo{db: db}
}

// insertOutcome runs an ON CONFLICT DO NOTHING insert and reports whether a row was written
func insertOutcome(ctx context.Context, tx *sql.Tx, table string, articleID, userID int64) (models.InsertOutcome, error) {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO "+table+" (article_id, user_id) VALUES ($1, $2) ON CONFLICT (article_id, user_id) DO NOTHING",
		articleID, userID)
	if err != nil {
		return models.AlreadyExists, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.AlreadyExists, err
	}
	if n == 0 {
		return models.AlreadyExists, nil
	}
	return models.Inserted, nil
}

// InsertLike records a like. On Inserted the article's likes_count is
// incremented in the same transaction and the new value returned.
func (r *engagementRepo) InsertLike(ctx context.Context, articleID, userID int64) (models.InsertOutcome, int, error) {
	var (
		outcome models.InsertOutcome
		likes   int
	)
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		outcome, err = insertOutcome(ctx, tx, "article_likes", articleID, userID)
		if err != nil {
			return err
		}
		if outcome == models.AlreadyExists {
			return tx.QueryRowContext(ctx, "SELECT likes_count FROM articles WHERE id = $1", articleID).Scan(&likes)
		}
		return tx.QueryRowContext(ctx,
			"UPDATE articles SET likes_count = likes_count + 1 WHERE id = $1 RETURNING likes_count", articleID,
		).Scan(&likes)
	})
	return outcome, likes, err
}

// DeleteLike removes a like. When a row was removed likes_count is
// decremented in the same transaction.
func (r *engagementRepo) DeleteLike(ctx context.Context, articleID, userID int64) (bool, int, error) {
	var (
		removed bool
		likes   int
	)
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"DELETE FROM article_likes WHERE article_id = $1 AND user_id = $2", articleID, userID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		removed = n > 0
		if !removed {
			return tx.QueryRowContext(ctx, "SELECT likes_count FROM articles WHERE id = $1", articleID).Scan(&likes)
		}
		return tx.QueryRowContext(ctx,
			"UPDATE articles SET likes_count = likes_count - 1 WHERE id = $1 RETURNING likes_count", articleID,
		).Scan(&likes)
	})
	return removed, likes, err
}

// InsertFavorite records a favorite
func (r *engagementRepo) InsertFavorite(ctx context.Context, articleID, userID int64) (models.InsertOutcome, error) {
	var outcome models.InsertOutcome
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		outcome, err = insertOutcome(ctx, tx, "article_favorites", articleID, userID)
		return err
	})
	return outcome, err
}

// DeleteFavorite removes a favorite
func (r *engagementRepo) DeleteFavorite(ctx context.Context, articleID, userID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM article_favorites WHERE article_id = $1 AND user_id = $2", articleID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Engagement returns the caller's like/favorite state for an article
func (r *engagementRepo) Engagement(ctx context.Context, articleID, userID int64) (*models.Engagement, error) {
	query := `
		SELECT
			EXISTS(SELECT 1 FROM article_likes WHERE article_id = a.id AND user_id = $2),
			EXISTS(SELECT 1 FROM article_favorites WHERE article_id = a.id AND user_id = $2),
			a.likes_count
		FROM articles a WHERE a.id = $1
	`
	var e models.Engagement
	err := r.db.QueryRowContext(ctx, query, articleID, userID).Scan(&e.Liked, &e.Favorited, &e.LikesCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListFavorites returns a user's favourites among published articles, newest first
func (r *engagementRepo) ListFavorites(ctx context.Context, userID int64, limit int) ([]*models.FavoriteArticle, error) {
	query := `
		SELECT a.id, a.title, a.slug, a.content, COALESCE(a.excerpt, ''), COALESCE(a.image_url, ''),
			a.author_id, u.username, COALESCE(u.first_name, ''), COALESCE(u.last_name, ''),
			u.email, COALESCE(u.linkedin_url, ''),
			a.category_id, c.name, c.color,
			a.published, a.featured, a.show_author_contacts,
			a.likes_count, a.views_count, a.created_at, a.updated_at,
			f.created_at
		FROM article_favorites f
		JOIN articles a ON a.id = f.article_id
		JOIN users u ON u.id = a.author_id
		JOIN categories c ON c.id = a.category_id
		WHERE f.user_id = $1 AND a.published
		ORDER BY f.created_at DESC, f.id DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	favorites := []*models.FavoriteArticle{}
	for rows.Next() {
		var fav models.FavoriteArticle
		a, err := scanArticle(favoriteRow{rows, &fav.FavoritedAt})
		if err != nil {
			return nil, err
		}
		fav.Article = a
		favorites = append(favorites, &fav)
	}
	return favorites, rows.Err()
}

// favoriteRow appends the favorite timestamp to an article scan
type favoriteRow struct {
	rows *sql.Rows
	at   interface{}
}

func (f favoriteRow) Scan(dest ...interface{}) error {
	return f.rows.Scan(append(dest, f.at)...)
}

// CreateShare appends a share event
func (r *engagementRepo) CreateShare(ctx context.Context, share *models.Share) error {
	query := `
		INSERT INTO shares (user_id, article_id, platform, ip_address)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		nullInt64(share.UserID), share.ArticleID, share.Platform, nullString(share.IPAddress),
	).Scan(&share.ID, &share.CreatedAt)
}
