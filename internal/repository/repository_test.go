package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/riocapital/blog-api/internal/database"
	"github.com/riocapital/blog-api/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*database.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return database.Wrap(sqlDB, zerolog.Nop()), mock
}

func TestEngagementRepo_InsertLike_Inserted(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewEngagementRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO article_likes (article_id, user_id)`)).
		WithArgs(int64(5), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE articles SET likes_count = likes_count + 1`)).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"likes_count"}).AddRow(4))
	mock.ExpectCommit()

	outcome, likes, err := repo.InsertLike(context.Background(), 5, 9)
	assert.NoError(t, err)
	assert.Equal(t, models.Inserted, outcome)
	assert.Equal(t, 4, likes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEngagementRepo_InsertLike_AlreadyExists(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewEngagementRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO article_likes`)).
		WithArgs(int64(5), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT likes_count FROM articles WHERE id = $1`)).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"likes_count"}).AddRow(4))
	mock.ExpectCommit()

	outcome, likes, err := repo.InsertLike(context.Background(), 5, 9)
	assert.NoError(t, err)
	assert.Equal(t, models.AlreadyExists, outcome)
	assert.Equal(t, 4, likes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEngagementRepo_InsertLike_RollsBackOnError(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewEngagementRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO article_likes`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE articles SET likes_count`)).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, _, err := repo.InsertLike(context.Background(), 5, 9)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEngagementRepo_DeleteLike(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewEngagementRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM article_likes WHERE article_id = $1 AND user_id = $2`)).
		WithArgs(int64(5), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE articles SET likes_count = likes_count - 1`)).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"likes_count"}).AddRow(3))
	mock.ExpectCommit()

	removed, likes, err := repo.DeleteLike(context.Background(), 5, 9)
	assert.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, 3, likes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEngagementRepo_DeleteLike_NothingToRemove(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewEngagementRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM article_likes`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT likes_count FROM articles`)).
		WillReturnRows(sqlmock.NewRows([]string{"likes_count"}).AddRow(3))
	mock.ExpectCommit()

	removed, likes, err := repo.DeleteLike(context.Background(), 5, 9)
	assert.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, 3, likes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEngagementRepo_InsertFavorite(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewEngagementRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO article_favorites (article_id, user_id)`)).
		WithArgs(int64(2), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	outcome, err := repo.InsertFavorite(context.Background(), 2, 3)
	assert.NoError(t, err)
	assert.Equal(t, models.AlreadyExists, outcome)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Create_Duplicate(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

	err := repo.Create(context.Background(), &models.User{Username: "ana", Email: "ana@x.com", Role: "reader"})
	assert.True(t, errors.Is(err, ErrDuplicate))
	assert.Contains(t, err.Error(), "users_email_key")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByID_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = $1`)).
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)

	u, err := repo.GetByID(context.Background(), 404)
	assert.NoError(t, err)
	assert.Nil(t, u)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByLogin(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepo(db)
	now := time.Now()

	cols := []string{"id", "username", "email", "password_hash", "role", "first_name", "last_name", "bio",
		"avatar_url", "linkedin_url", "google_id", "profile_completed", "is_active", "created_at", "updated_at"}

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE LOWER(email) = LOWER($1)`)).
		WithArgs("Ana@X.com").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(1, "ana", "ana@x.com", "hash", "reader",
			"Ana", "Silva", "", "", "", "", true, true, now, now))

	u, err := repo.GetByLogin(context.Background(), "Ana@X.com")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "Ana Silva", u.FullName())

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE username = $1`)).
		WithArgs("ana").
		WillReturnRows(sqlmock.NewRows(cols))

	u, err = repo.GetByLogin(context.Background(), "ana")
	assert.NoError(t, err)
	assert.Nil(t, u)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArticleWhere(t *testing.T) {
	featured := true
	where, args := articleWhere(&models.ArticleFilter{
		CategorySlug: "markets",
		AuthorID:     3,
		Year:         2024,
		Month:        5,
		Search:       " rates ",
		ExcludeID:    10,
		Featured:     &featured,
	})

	assert.Contains(t, where, "a.published = TRUE")
	assert.Contains(t, where, "c.slug = $1")
	assert.Contains(t, where, "a.author_id = $2")
	assert.Contains(t, where, "EXTRACT(YEAR FROM a.created_at) = $3")
	assert.Contains(t, where, "EXTRACT(MONTH FROM a.created_at) = $4")
	assert.Contains(t, where, "a.title ILIKE $5 OR a.content ILIKE $5")
	assert.Contains(t, where, "a.id <> $6")
	assert.Contains(t, where, "a.featured = $7")
	assert.Equal(t, []interface{}{"markets", int64(3), 2024, 5, "%rates%", int64(10), true}, args)
}

func TestArticleWhere_MonthRequiresYear(t *testing.T) {
	where, args := articleWhere(&models.ArticleFilter{Month: 5})
	assert.NotContains(t, where, "MONTH")
	assert.Empty(t, args)
}

func TestArticleRepo_IncrementViews(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewArticleRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE articles SET views_count = views_count + 1 WHERE id = $1 RETURNING views_count`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"views_count"}).AddRow(11))

	views, err := repo.IncrementViews(context.Background(), 7)
	assert.NoError(t, err)
	assert.Equal(t, 11, views)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepo_BulkSetStatus(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCommentRepo(db)

	mock.ExpectExec(regexp.QuoteMeta(`WHERE id = ANY($1)`)).
		WithArgs(sqlmock.AnyArg(), models.CommentApproved, "ok").
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.BulkSetStatus(context.Background(), []int64{1, 2, 999}, models.CommentApproved, "ok")
	assert.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepo_BulkDelete_Empty(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCommentRepo(db)

	n, err := repo.BulkDelete(context.Background(), nil)
	assert.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepo_UpdateContent_Missing(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCommentRepo(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE comments SET content = $2, status = $3`)).
		WithArgs(int64(8), "edited", models.CommentPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	c, err := repo.UpdateContent(context.Background(), 8, "edited")
	assert.NoError(t, err)
	assert.Nil(t, c)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDonationRepo_Refund_NotCompleted(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewDonationRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = $1 AND status = $3`)).
		WithArgs(int64(4), models.DonationRefunded, models.DonationCompleted).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	d, err := repo.Refund(context.Background(), 4)
	assert.NoError(t, err)
	assert.Nil(t, d)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDonationRepo_Stats(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewDonationRepo(db)
	monthStart := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`FILTER (WHERE status = 'completed')`)).
		WithArgs(monthStart).
		WillReturnRows(sqlmock.NewRows([]string{"total", "count", "month", "month_count", "max", "pending", "refunded"}).
			AddRow(int64(10000), 4, int64(2500), 1, int64(5000), 2, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`GROUP BY donor_name`)).
		WillReturnRows(sqlmock.NewRows([]string{"donor_name", "sum"}).AddRow("Maria", int64(6000)))

	stats, err := repo.Stats(context.Background(), monthStart)
	require.NoError(t, err)
	assert.Equal(t, 100.0, stats.TotalAmount)
	assert.Equal(t, 25.0, stats.AverageAmount)
	assert.Equal(t, 25.0, stats.MonthAmount)
	assert.Equal(t, 50.0, stats.MaxAmount)
	require.NotNil(t, stats.TopDonor)
	assert.Equal(t, "Maria", stats.TopDonor.Name)
	assert.Equal(t, 60.0, stats.TopDonor.Amount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewsletterRepo_BulkUpsert(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewNewsletterRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TEMP TABLE newsletter_import`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	prep := mock.ExpectPrepare(regexp.QuoteMeta(`COPY "newsletter_import" ("email") FROM STDIN`))
	prep.ExpectExec().WithArgs("a@x.com").WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs("b@x.com").WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO newsletter_subscribers (email)`)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	n, err := repo.BulkUpsert(context.Background(), []string{"a@x.com", "b@x.com"})
	assert.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
