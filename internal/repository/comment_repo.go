package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/riocapital/blog-api/internal/database"
	"github.com/riocapital/blog-api/internal/models"
)

const commentSelect = `
	SELECT c.id, c.article_id, a.title, c.user_id, u.username, c.parent_id, c.content,
		c.status, COALESCE(c.moderation_reason, ''), c.reported, c.created_at, c.updated_at
	FROM comments c
	JOIN users u ON u.id = c.user_id
	JOIN articles a ON a.id = c.article_id`

// commentRepo is the concrete implementation of CommentRepository
type commentRepo struct {
	db *database.DB
}

// NewCommentRepo creates a new comment repository
func NewCommentRepo(db *database.DB) CommentRepository {
	return &commentRepo{db: db}
}

func scanComment(row rowScanner) (*models.Comment, error) {
	var c models.Comment
	var parentID sql.NullInt64
	err := row.Scan(
		&c.ID, &c.ArticleID, &c.ArticleTitle, &c.UserID, &c.UserName, &parentID, &c.Content,
		&c.Status, &c.ModerationReason, &c.Reported, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.ParentID = int64Ptr(parentID)
	return &c, nil
}

func (r *commentRepo) list(ctx context.Context, where string, page models.Page, args ...interface{}) ([]*models.Comment, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM comments c"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	query := commentSelect + where +
		fmt.Sprintf(" ORDER BY c.created_at DESC, c.id DESC LIMIT $%d OFFSET $%d", n+1, n+2)
	rows, err := r.db.QueryContext(ctx, query, append(args, page.PerPage, page.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	comments := []*models.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, 0, err
		}
		comments = append(comments, c)
	}
	return comments, total, rows.Err()
}

// Create inserts a new comment
func (r *commentRepo) Create(ctx context.Context, comment *models.Comment) error {
	query := `
		INSERT INTO comments (content, article_id, user_id, parent_id, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, reported, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		comment.Content, comment.ArticleID, comment.UserID, nullInt64(comment.ParentID), comment.Status,
	).Scan(&comment.ID, &comment.Reported, &comment.CreatedAt, &comment.UpdatedAt)
}

// GetByID retrieves a comment by ID
func (r *commentRepo) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	c, err := scanComment(r.db.QueryRowContext(ctx, commentSelect+" WHERE c.id = $1", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// UpdateContent replaces the body and sends the comment back to moderation
func (r *commentRepo) UpdateContent(ctx context.Context, id int64, content string) (*models.Comment, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE comments SET content = $2, status = $3, moderation_reason = NULL, updated_at = NOW()
		WHERE id = $1`, id, content, models.CommentPending)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes a comment and its replies
func (r *commentRepo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM comments WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// MarkReported flags a comment for admin attention
func (r *commentRepo) MarkReported(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, "UPDATE comments SET reported = TRUE WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListForArticle returns the top-level comments of an article, newest first
func (r *commentRepo) ListForArticle(ctx context.Context, articleID int64, approvedOnly bool, page models.Page) ([]*models.Comment, int, error) {
	if approvedOnly {
		return r.list(ctx, " WHERE c.article_id = $1 AND c.parent_id IS NULL AND c.status = $2", page,
			articleID, models.CommentApproved)
	}
	return r.list(ctx, " WHERE c.article_id = $1 AND c.parent_id IS NULL", page, articleID)
}

// ListForModeration returns comments in the given status, or all when status is empty
func (r *commentRepo) ListForModeration(ctx context.Context, status models.CommentStatus, page models.Page) ([]*models.Comment, int, error) {
	if status == "" {
		return r.list(ctx, "", page)
	}
	return r.list(ctx, " WHERE c.status = $1", page, status)
}

// SetStatus moves one comment to status. An empty reason keeps the stored one.
func (r *commentRepo) SetStatus(ctx context.Context, id int64, status models.CommentStatus, reason string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE comments SET status = $2, moderation_reason = COALESCE(NULLIF($3, ''), moderation_reason),
			updated_at = NOW()
		WHERE id = $1`, id, status, reason)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// BulkSetStatus moves every existing comment in ids to status and returns
// the number of rows changed. Unknown ids are ignored.
func (r *commentRepo) BulkSetStatus(ctx context.Context, ids []int64, status models.CommentStatus, reason string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE comments SET status = $2, moderation_reason = COALESCE(NULLIF($3, ''), moderation_reason),
			updated_at = NOW()
		WHERE id = ANY($1)`, pq.Array(ids), status, reason)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// BulkDelete removes every existing comment in ids
func (r *commentRepo) BulkDelete(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM comments WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
