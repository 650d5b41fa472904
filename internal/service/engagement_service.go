package service

import (
	"context"
	"strings"

	"github.com/riocapital/blog-api/internal/auth"
	"github.com/riocapital/blog-api/internal/metrics"
	"github.com/riocapital/blog-api/internal/models"
	"github.com/riocapital/blog-api/internal/repository"
	"github.com/rs/zerolog"
)

const (
	defaultFavoritesLimit = 50
	maxFavoritesLimit     = 100
)

// engagementService is the concrete implementation of EngagementService
type engagementService struct {
	articles   repository.ArticleRepository
	engagement repository.EngagementRepository
	log        zerolog.Logger
}

// newEngagementService creates a new EngagementService
func newEngagementService(articles repository.ArticleRepository, engagement repository.EngagementRepository, log zerolog.Logger) *engagementService {
	return &engagementService{
		articles:   articles,
		engagement: engagement,
		log:        log.With().Str("service", "engagement").Logger(),
	}
}

// publishedArticle loads an article that can receive engagement
func (s *engagementService) publishedArticle(ctx context.Context, id int64) (*models.Article, error) {
	article, err := s.articles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if article == nil || !article.Published {
		return nil, models.NewNotFoundError("article", id)
	}
	return article, nil
}

// ToggleLike likes the article, or unlikes it when the caller already liked it.
// The unique (article, user) key decides which: an insert that finds an
// existing row is followed by the compensating delete.
func (s *engagementService) ToggleLike(ctx context.Context, p *auth.Principal, articleID int64) (*models.LikeResult, error) {
	if err := principalRequired(p); err != nil {
		return nil, err
	}
	if _, err := s.publishedArticle(ctx, articleID); err != nil {
		return nil, err
	}

	outcome, likes, err := s.engagement.InsertLike(ctx, articleID, p.UserID)
	if err != nil {
		return nil, err
	}
	if outcome == models.Inserted {
		metrics.Toggle("like", true)
		s.log.Debug().Int64("article_id", articleID).Int64("user_id", p.UserID).Int("likes", likes).Msg("Article liked")
		return &models.LikeResult{Liked: true, LikesCount: likes}, nil
	}

	removed, likes, err := s.engagement.DeleteLike(ctx, articleID, p.UserID)
	if err != nil {
		s.log.Error().Err(err).Int64("article_id", articleID).Int64("user_id", p.UserID).Msg("Compensating unlike failed")
		return nil, err
	}
	if removed {
		metrics.Toggle("like", false)
	}
	s.log.Debug().Int64("article_id", articleID).Int64("user_id", p.UserID).Int("likes", likes).Msg("Article unliked")
	return &models.LikeResult{Liked: false, LikesCount: likes}, nil
}

// ToggleFavorite favourites the article or removes the favourite. Same
// insert-then-compensate shape as ToggleLike without a counter.
func (s *engagementService) ToggleFavorite(ctx context.Context, p *auth.Principal, articleID int64) (*models.FavoriteResult, error) {
	if err := principalRequired(p); err != nil {
		return nil, err
	}
	if _, err := s.publishedArticle(ctx, articleID); err != nil {
		return nil, err
	}

	outcome, err := s.engagement.InsertFavorite(ctx, articleID, p.UserID)
	if err != nil {
		return nil, err
	}
	if outcome == models.Inserted {
		metrics.Toggle("favorite", true)
		return &models.FavoriteResult{Favorited: true}, nil
	}

	removed, err := s.engagement.DeleteFavorite(ctx, articleID, p.UserID)
	if err != nil {
		s.log.Error().Err(err).Int64("article_id", articleID).Int64("user_id", p.UserID).Msg("Compensating unfavorite failed")
		return nil, err
	}
	if removed {
		metrics.Toggle("favorite", false)
	}
	return &models.FavoriteResult{Favorited: false}, nil
}

// Favorites lists the caller's favourites, newest first
func (s *engagementService) Favorites(ctx context.Context, p *auth.Principal, limit int) ([]*models.FavoriteArticle, error) {
	if err := principalRequired(p); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultFavoritesLimit
	}
	if limit > maxFavoritesLimit {
		limit = maxFavoritesLimit
	}
	return s.engagement.ListFavorites(ctx, p.UserID, limit)
}

// Engagement returns the caller's like and favourite state for an article
func (s *engagementService) Engagement(ctx context.Context, p *auth.Principal, articleID int64) (*models.Engagement, error) {
	if err := principalRequired(p); err != nil {
		return nil, err
	}
	if _, err := s.publishedArticle(ctx, articleID); err != nil {
		return nil, err
	}
	e, err := s.engagement.Engagement(ctx, articleID, p.UserID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, models.NewNotFoundError("article", articleID)
	}
	return e, nil
}

// Share records a share event. Anonymous shares are allowed.
func (s *engagementService) Share(ctx context.Context, p *auth.Principal, articleID int64, platform, ip string) (*models.Share, error) {
	platform = strings.ToLower(strings.TrimSpace(platform))
	if platform == "" {
		return nil, models.NewValidationError("platform is required")
	}
	if !models.SharePlatforms[platform] {
		return nil, models.NewValidationError("unsupported share platform: " + platform)
	}
	if _, err := s.publishedArticle(ctx, articleID); err != nil {
		return nil, err
	}

	share := &models.Share{ArticleID: articleID, Platform: platform, IPAddress: ip}
	if p != nil {
		uid := p.UserID
		share.UserID = &uid
	}
	if err := s.engagement.CreateShare(ctx, share); err != nil {
		return nil, err
	}
	s.log.Debug().Int64("article_id", articleID).Str("platform", platform).Msg("Article shared")
	return share, nil
}
