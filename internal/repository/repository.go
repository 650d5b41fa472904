package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/riocapital/blog-api/internal/database"
	"github.com/riocapital/blog-api/internal/models"
)

// ErrDuplicate is returned when an insert or update hits a unique constraint
var ErrDuplicate = errors.New("duplicate key")

const uniqueViolation = "23505"

// translateErr maps driver errors onto repository sentinels
func translateErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Constraint)
	}
	return err
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByLogin(ctx context.Context, login string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	UpdateProfile(ctx context.Context, id int64, update *models.ProfileUpdate) (*models.User, error)
	CompleteProfile(ctx context.Context, id int64, username, firstName, lastName string) (*models.User, error)
	LinkGoogle(ctx context.Context, id int64, googleID string) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	SetRole(ctx context.Context, id int64, role string) (*models.User, error)
	SetActive(ctx context.Context, id int64, active bool) (*models.User, error)
	List(ctx context.Context, page models.Page) ([]*models.User, int, error)
}

// ArticleRepository defines the interface for article data operations
type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) error
	Update(ctx context.Context, article *models.Article) error
	Delete(ctx context.Context, id int64) (bool, error)
	GetByID(ctx context.Context, id int64) (*models.Article, error)
	GetBySlug(ctx context.Context, slug string) (*models.Article, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, filter *models.ArticleFilter) ([]*models.Article, int, error)
	ListByAuthor(ctx context.Context, authorID int64, page models.Page) ([]*models.Article, int, error)
	IncrementViews(ctx context.Context, id int64) (int, error)
	Stats(ctx context.Context, id int64) (*models.ArticleStats, error)
	FilterOptions(ctx context.Context) (*models.FilterOptions, error)
}

// CategoryRepository defines the interface for category data operations
type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id int64) (bool, error)
	GetByID(ctx context.Context, id int64) (*models.Category, error)
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
	Exists(ctx context.Context, id int64) (bool, error)
	ArticleCount(ctx context.Context, id int64) (int, error)
	ListActive(ctx context.Context) ([]*models.Category, error)
}

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id int64) (*models.Comment, error)
	UpdateContent(ctx context.Context, id int64, content string) (*models.Comment, error)
	Delete(ctx context.Context, id int64) (bool, error)
	MarkReported(ctx context.Context, id int64) (bool, error)
	ListForArticle(ctx context.Context, articleID int64, approvedOnly bool, page models.Page) ([]*models.Comment, int, error)
	ListForModeration(ctx context.Context, status models.CommentStatus, page models.Page) ([]*models.Comment, int, error)
	SetStatus(ctx context.Context, id int64, status models.CommentStatus, reason string) (bool, error)
	BulkSetStatus(ctx context.Context, ids []int64, status models.CommentStatus, reason string) (int, error)
	BulkDelete(ctx context.Context, ids []int64) (int, error)
}

// EngagementRepository defines the interface for likes, favorites and shares
type EngagementRepository interface {
	InsertLike(ctx context.Context, articleID, userID int64) (models.InsertOutcome, int, error)
	DeleteLike(ctx context.Context, articleID, userID int64) (bool, int, error)
	InsertFavorite(ctx context.Context, articleID, userID int64) (models.InsertOutcome, error)
	DeleteFavorite(ctx context.Context, articleID, userID int64) (bool, error)
	Engagement(ctx context.Context, articleID, userID int64) (*models.Engagement, error)
	ListFavorites(ctx context.Context, userID int64, limit int) ([]*models.FavoriteArticle, error)
	CreateShare(ctx context.Context, share *models.Share) error
}

// DonationRepository defines the interface for donation data operations
type DonationRepository interface {
	Create(ctx context.Context, donation *models.Donation) error
	GetByID(ctx context.Context, id int64) (*models.Donation, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*models.Donation, error)
	SetTransactionID(ctx context.Context, id int64, transactionID string) error
	Complete(ctx context.Context, id int64, transactionID string) (*models.Donation, error)
	Refund(ctx context.Context, id int64) (*models.Donation, error)
	List(ctx context.Context, status models.DonationStatus, page models.Page) ([]*models.Donation, int, error)
	Recent(ctx context.Context, since time.Time, limit int) ([]*models.Donation, error)
	ListPending(ctx context.Context, method string, limit int) ([]*models.Donation, error)
	Stats(ctx context.Context, monthStart time.Time) (*models.DonationStats, error)
	StreamAll(ctx context.Context, callback func(*models.Donation) error) error
}

// NewsletterRepository defines the interface for subscriber data operations
type NewsletterRepository interface {
	Create(ctx context.Context, sub *models.Subscriber) error
	GetByEmail(ctx context.Context, email string) (*models.Subscriber, error)
	Reactivate(ctx context.Context, id int64, preferences []byte) (*models.Subscriber, error)
	Deactivate(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, active bool, page models.Page) ([]*models.Subscriber, int, error)
	BulkUpsert(ctx context.Context, emails []string) (int, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	User       UserRepository
	Article    ArticleRepository
	Category   CategoryRepository
	Comment    CommentRepository
	Engagement EngagementRepository
	Donation   DonationRepository
	Newsletter NewsletterRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		User:       NewUserRepo(db),
		Article:    NewArticleRepo(db),
		Category:   NewCategoryRepo(db),
		Comment:    NewCommentRepo(db),
		Engagement: NewEngagementRepo(db),
		Donation:   NewDonationRepo(db),
		Newsletter: NewNewsletterRepo(db),
	}
}
