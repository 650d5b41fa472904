package service

import (
	"context"
	"io"

	"github.com/riocapital/blog-api/internal/auth"
	"github.com/riocapital/blog-api/internal/cache"
	"github.com/riocapital/blog-api/internal/config"
	"github.com/riocapital/blog-api/internal/models"
	"github.com/riocapital/blog-api/internal/payments"
	"github.com/riocapital/blog-api/internal/render"
	"github.com/riocapital/blog-api/internal/repository"
	"github.com/rs/zerolog"
)

// IdentityProvider is an external OAuth identity source
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*models.ExternalIdentity, error)
}

// AuthService defines the interface for account and session operations
type AuthService interface {
	Register(ctx context.Context, in *models.RegisterInput) (*models.User, error)
	Login(ctx context.Context, in *models.LoginInput) (*models.User, error)
	ActiveUser(ctx context.Context, id int64) (*models.User, error)
	ChangePassword(ctx context.Context, p *auth.Principal, current, next string) error
	GoogleEnabled() bool
	GoogleAuthURL(state string) string
	LoginWithGoogle(ctx context.Context, code string) (*models.User, error)
	CompleteProfile(ctx context.Context, p *auth.Principal, username, firstName, lastName string) (*models.User, error)
	UpdateProfile(ctx context.Context, p *auth.Principal, update *models.ProfileUpdate) (*models.User, error)
	ListUsers(ctx context.Context, page models.Page) ([]*models.User, models.Pagination, error)
	SetRole(ctx context.Context, p *auth.Principal, id int64, role string) (*models.User, error)
	SetActive(ctx context.Context, p *auth.Principal, id int64, active bool) (*models.User, error)
}

// ArticleService defines the interface for article operations
type ArticleService interface {
	List(ctx context.Context, filter *models.ArticleFilter) ([]*models.Article, models.Pagination, error)
	FilterOptions(ctx context.Context) (*models.FilterOptions, error)
	ListMine(ctx context.Context, p *auth.Principal, page models.Page) ([]*models.Article, models.Pagination, error)
	Get(ctx context.Context, p *auth.Principal, ref string) (*models.ArticleDetail, error)
	Create(ctx context.Context, p *auth.Principal, in *models.ArticleInput) (*models.Article, error)
	Update(ctx context.Context, p *auth.Principal, id int64, in *models.ArticleUpdate) (*models.Article, error)
	Delete(ctx context.Context, p *auth.Principal, id int64) error
	Stats(ctx context.Context, p *auth.Principal, id int64) (*models.ArticleStats, error)
}

// EngagementService defines the interface for likes, favorites and shares
type EngagementService interface {
	ToggleLike(ctx context.Context, p *auth.Principal, articleID int64) (*models.LikeResult, error)
	ToggleFavorite(ctx context.Context, p *auth.Principal, articleID int64) (*models.FavoriteResult, error)
	Favorites(ctx context.Context, p *auth.Principal, limit int) ([]*models.FavoriteArticle, error)
	Engagement(ctx context.Context, p *auth.Principal, articleID int64) (*models.Engagement, error)
	Share(ctx context.Context, p *auth.Principal, articleID int64, platform, ip string) (*models.Share, error)
}

// CommentService defines the interface for comment and moderation operations
type CommentService interface {
	List(ctx context.Context, p *auth.Principal, articleID int64, page models.Page) ([]*models.Comment, models.Pagination, error)
	Create(ctx context.Context, p *auth.Principal, in *models.CommentInput) (*models.Comment, error)
	Update(ctx context.Context, p *auth.Principal, id int64, content string) (*models.Comment, error)
	Delete(ctx context.Context, p *auth.Principal, id int64) error
	Report(ctx context.Context, p *auth.Principal, id int64) error
	ModerationQueue(ctx context.Context, status string, page models.Page) ([]*models.Comment, models.Pagination, error)
	Moderate(ctx context.Context, id int64, action models.ModerationAction, reason string) (*models.Comment, error)
	BulkModerate(ctx context.Context, req *models.ModerationRequest) (*models.BulkModerationResult, error)
}

// DonationService defines the interface for donation operations
type DonationService interface {
	Create(ctx context.Context, in *models.DonationInput) (*models.Donation, error)
	Checkout(ctx context.Context, in *models.DonationInput) (*models.CheckoutResult, error)
	ConfirmCheckout(ctx context.Context, sessionID string) (*models.Donation, error)
	ReconcilePending(ctx context.Context, limit int) (int, error)
	List(ctx context.Context, status string, page models.Page) ([]*models.Donation, models.Pagination, error)
	Stats(ctx context.Context) (*models.DonationStats, error)
	Recent(ctx context.Context, limit int) ([]*models.RecentDonation, error)
	Export(ctx context.Context, w io.Writer, format string) error
	Refund(ctx context.Context, id int64) (*models.Donation, error)
}

// Reconciler completes paid checkout donations in the background
type Reconciler interface {
	StartProcessor(ctx context.Context)
	StopProcessor()
}

// NewsletterService defines the interface for newsletter operations
type NewsletterService interface {
	Subscribe(ctx context.Context, in *models.SubscribeInput) (*models.Subscriber, models.SubscribeOutcome, error)
	Unsubscribe(ctx context.Context, email string) error
	List(ctx context.Context, active bool, page models.Page) ([]*models.Subscriber, models.Pagination, error)
	Import(ctx context.Context, r io.Reader) (*models.ImportResult, error)
}

// CategoryService defines the interface for category operations
type CategoryService interface {
	List(ctx context.Context) ([]*models.Category, error)
	Get(ctx context.Context, ref string) (*models.Category, error)
	Create(ctx context.Context, p *auth.Principal, in *models.CategoryInput) (*models.Category, error)
	Update(ctx context.Context, id int64, in *models.CategoryInput) (*models.Category, error)
	Delete(ctx context.Context, id int64) error
}

// UploadService defines the interface for image uploads
type UploadService interface {
	SaveImage(ctx context.Context, r io.Reader) (*models.UploadResult, error)
	MaxUploadSize() int64
}

// Services holds all service interfaces
type Services struct {
	Auth       AuthService
	Article    ArticleService
	Engagement EngagementService
	Comment    CommentService
	Donation   DonationService
	Reconciler Reconciler
	Newsletter NewsletterService
	Category   CategoryService
	Upload     UploadService
}

// Dependencies are the collaborators services need besides repositories.
// Payments and Identity may be nil when the integration is not configured.
type Dependencies struct {
	Renderer      *render.Renderer
	CategoryCache *cache.TTL[[]*models.Category]
	Payments      payments.Provider
	Identity      IdentityProvider
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, cfg *config.Config, deps Dependencies, log zerolog.Logger) *Services {
	if deps.Renderer == nil {
		deps.Renderer = render.New(nil)
	}

	donationSvc := newDonationService(repos.Donation, deps.Payments, cfg.Payments, log)

	return &Services{
		Auth:       newAuthService(repos.User, deps.Identity, log),
		Article:    newArticleService(repos, deps.Renderer, log),
		Engagement: newEngagementService(repos.Article, repos.Engagement, log),
		Comment:    newCommentService(repos.Comment, repos.Article, deps.Renderer, log),
		Donation:   donationSvc,
		Reconciler: newReconciler(donationSvc, cfg.Payments.ReconcileInterval, log),
		Newsletter: newNewsletterService(repos.Newsletter, log),
		Category:   newCategoryService(repos.Category, deps.CategoryCache, log),
		Upload:     newUploadService(cfg.Upload, log),
	}
}

// principalRequired turns a missing principal into an authentication error
func principalRequired(p *auth.Principal) error {
	if p == nil {
		return models.NewAuthenticationError("authentication required")
	}
	return nil
}
