package service

import (
	"context"
	"strings"

	"github.com/riocapital/blog-api/internal/auth"
	"github.com/riocapital/blog-api/internal/metrics"
	"github.com/riocapital/blog-api/internal/models"
	"github.com/riocapital/blog-api/internal/render"
	"github.com/riocapital/blog-api/internal/repository"
	"github.com/riocapital/blog-api/internal/validation"
	"github.com/rs/zerolog"
)

// statusDeleted is reported for delete actions; deletion is not a stored status
const statusDeleted = "deleted"

// commentService is the concrete implementation of CommentService
type commentService struct {
	comments  repository.CommentRepository
	articles  repository.ArticleRepository
	renderer  *render.Renderer
	validator *validation.Validator
	log       zerolog.Logger
}

// newCommentService creates a new CommentService
func newCommentService(comments repository.CommentRepository, articles repository.ArticleRepository, renderer *render.Renderer, log zerolog.Logger) *commentService {
	return &commentService{
		comments:  comments,
		articles:  articles,
		renderer:  renderer,
		validator: validation.NewValidator(),
		log:       log.With().Str("service", "comments").Logger(),
	}
}

func (s *commentService) visibleArticle(ctx context.Context, p *auth.Principal, id int64) (*models.Article, error) {
	article, err := s.articles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if article == nil || !visible(p, article) {
		return nil, models.NewNotFoundError("article", id)
	}
	return article, nil
}

// List returns an article's top-level comments. Non-admins only see approved ones.
func (s *commentService) List(ctx context.Context, p *auth.Principal, articleID int64, page models.Page) ([]*models.Comment, models.Pagination, error) {
	if _, err := s.visibleArticle(ctx, p, articleID); err != nil {
		return nil, models.Pagination{}, err
	}
	comments, total, err := s.comments.ListForArticle(ctx, articleID, !p.IsAdmin(), page)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return comments, models.NewPagination(page, total), nil
}

// sanitize strips markup from a comment body and validates what remains
func (s *commentService) sanitize(content string) (string, error) {
	clean := s.renderer.PlainText(content)
	if errs := s.validator.ValidateCommentContent(clean); len(errs) > 0 {
		return "", validation.ToAppError(errs)
	}
	return clean, nil
}

// Create adds a comment in pending state whatever the author's role
func (s *commentService) Create(ctx context.Context, p *auth.Principal, in *models.CommentInput) (*models.Comment, error) {
	if err := principalRequired(p); err != nil {
		return nil, err
	}
	if in.ArticleID <= 0 {
		return nil, models.NewValidationError("article_id is required")
	}
	content, err := s.sanitize(in.Content)
	if err != nil {
		return nil, err
	}
	if _, err := s.visibleArticle(ctx, p, in.ArticleID); err != nil {
		return nil, err
	}

	if in.ParentID != nil {
		parent, err := s.comments.GetByID(ctx, *in.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil || parent.ArticleID != in.ArticleID {
			return nil, models.NewValidationError("invalid parent comment")
		}
	}

	comment := &models.Comment{
		ArticleID: in.ArticleID,
		UserID:    p.UserID,
		ParentID:  in.ParentID,
		Content:   content,
		Status:    models.CommentPending,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("comment_id", comment.ID).
		Int64("article_id", comment.ArticleID).
		Int64("user_id", comment.UserID).
		Msg("Comment created")

	return comment, nil
}

func (s *commentService) owned(ctx context.Context, p *auth.Principal, id int64) (*models.Comment, error) {
	if err := principalRequired(p); err != nil {
		return nil, err
	}
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, models.NewNotFoundError("comment", id)
	}
	if !p.OwnsOrAdmin(comment.UserID) {
		return nil, models.NewPermissionError("only the author or an admin can modify this comment")
	}
	return comment, nil
}

// Update replaces a comment's content and sends it back to moderation
func (s *commentService) Update(ctx context.Context, p *auth.Principal, id int64, content string) (*models.Comment, error) {
	if _, err := s.owned(ctx, p, id); err != nil {
		return nil, err
	}
	clean, err := s.sanitize(content)
	if err != nil {
		return nil, err
	}
	comment, err := s.comments.UpdateContent(ctx, id, clean)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, models.NewNotFoundError("comment", id)
	}
	s.log.Info().Int64("comment_id", id).Int64("user_id", p.UserID).Msg("Comment edited, back to pending")
	return comment, nil
}

// Delete removes a comment owned by the caller
func (s *commentService) Delete(ctx context.Context, p *auth.Principal, id int64) error {
	if _, err := s.owned(ctx, p, id); err != nil {
		return err
	}
	deleted, err := s.comments.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return models.NewNotFoundError("comment", id)
	}
	s.log.Info().Int64("comment_id", id).Int64("user_id", p.UserID).Msg("Comment deleted")
	return nil
}

// Report flags a comment for moderators
func (s *commentService) Report(ctx context.Context, p *auth.Principal, id int64) error {
	if err := principalRequired(p); err != nil {
		return err
	}
	ok, err := s.comments.MarkReported(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewNotFoundError("comment", id)
	}
	s.log.Info().Int64("comment_id", id).Int64("user_id", p.UserID).Msg("Comment reported")
	return nil
}

// ModerationQueue lists comments for moderators. "all" or empty lists every status.
func (s *commentService) ModerationQueue(ctx context.Context, status string, page models.Page) ([]*models.Comment, models.Pagination, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	filter := models.CommentStatus(status)
	if status == "all" || status == "" {
		filter = ""
	} else if !filter.Valid() {
		return nil, models.Pagination{}, models.NewValidationError("invalid status, must be one of: all, pending, approved, rejected")
	}

	comments, total, err := s.comments.ListForModeration(ctx, filter, page)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return comments, models.NewPagination(page, total), nil
}

// Moderate applies one action to one comment. Delete returns a nil comment.
func (s *commentService) Moderate(ctx context.Context, id int64, action models.ModerationAction, reason string) (*models.Comment, error) {
	if errs := s.validator.ValidateModeration(action); len(errs) > 0 {
		return nil, validation.ToAppError(errs)
	}
	reason = strings.TrimSpace(reason)

	target, ok := action.TargetStatus()
	if !ok {
		deleted, err := s.comments.Delete(ctx, id)
		if err != nil {
			return nil, err
		}
		if !deleted {
			return nil, models.NewNotFoundError("comment", id)
		}
		metrics.CommentModerations.WithLabelValues(string(action)).Inc()
		s.log.Info().Int64("comment_id", id).Msg("Comment deleted by moderator")
		return nil, nil
	}

	found, err := s.comments.SetStatus(ctx, id, target, reason)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.NewNotFoundError("comment", id)
	}
	metrics.CommentModerations.WithLabelValues(string(action)).Inc()
	s.log.Info().Int64("comment_id", id).Str("status", string(target)).Msg("Comment moderated")

	return s.comments.GetByID(ctx, id)
}

// BulkModerate applies one action to many comments. Unknown ids are skipped
// silently; the result reports both the ids passed and the rows changed.
func (s *commentService) BulkModerate(ctx context.Context, req *models.ModerationRequest) (*models.BulkModerationResult, error) {
	if len(req.CommentIDs) == 0 {
		return nil, models.NewValidationError("comment_ids is required")
	}
	if errs := s.validator.ValidateModeration(req.Action); len(errs) > 0 {
		return nil, validation.ToAppError(errs)
	}

	var (
		affected int
		err      error
		status   string
	)
	target, ok := req.Action.TargetStatus()
	if ok {
		status = string(target)
		affected, err = s.comments.BulkSetStatus(ctx, req.CommentIDs, target, strings.TrimSpace(req.Reason))
	} else {
		status = statusDeleted
		affected, err = s.comments.BulkDelete(ctx, req.CommentIDs)
	}
	if err != nil {
		return nil, err
	}
	metrics.CommentModerations.WithLabelValues(string(req.Action)).Add(float64(affected))

	s.log.Info().
		Str("action", string(req.Action)).
		Int("requested", len(req.CommentIDs)).
		Int("affected", affected).
		Msg("Bulk moderation applied")

	return &models.BulkModerationResult{
		Requested: len(req.CommentIDs),
		Affected:  affected,
		Status:    status,
	}, nil
}
