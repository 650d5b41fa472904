package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/riocapital/blog-api/internal/database"
	"github.com/riocapital/blog-api/internal/models"
)

const subscriberColumns = `id, email, preferences, is_active, subscribed_at`

// newsletterRepo is the concrete implementation of NewsletterRepository
type newsletterRepo struct {
	db *database.DB
}

// NewNewsletterRepo creates a new newsletter repository
func NewNewsletterRepo(db *database.DB) NewsletterRepository {
	return &newsletterRepo{db: db}
}

func scanSubscriber(row rowScanner) (*models.Subscriber, error) {
	var s models.Subscriber
	var prefs []byte
	if err := row.Scan(&s.ID, &s.Email, &prefs, &s.Active, &s.SubscribedAt); err != nil {
		return nil, err
	}
	s.Preferences = prefs
	return &s, nil
}

func preferencesJSON(prefs []byte) string {
	if len(prefs) == 0 {
		return "{}"
	}
	return string(prefs)
}

// Create inserts a new subscriber
func (r *newsletterRepo) Create(ctx context.Context, sub *models.Subscriber) error {
	query := `
		INSERT INTO newsletter_subscribers (email, preferences, is_active)
		VALUES ($1, $2::jsonb, TRUE)
		RETURNING id, preferences, is_active, subscribed_at
	`
	var prefs []byte
	err := r.db.QueryRowContext(ctx, query, sub.Email, preferencesJSON(sub.Preferences)).
		Scan(&sub.ID, &prefs, &sub.Active, &sub.SubscribedAt)
	sub.Preferences = prefs
	return translateErr(err)
}

// GetByEmail retrieves a subscriber by email
func (r *newsletterRepo) GetByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	s, err := scanSubscriber(r.db.QueryRowContext(ctx,
		"SELECT "+subscriberColumns+" FROM newsletter_subscribers WHERE email = $1", email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// Reactivate turns an inactive subscription back on. Nil preferences keep the stored ones.
func (r *newsletterRepo) Reactivate(ctx context.Context, id int64, preferences []byte) (*models.Subscriber, error) {
	var prefs interface{}
	if len(preferences) > 0 {
		prefs = string(preferences)
	}
	query := `
		UPDATE newsletter_subscribers
		SET is_active = TRUE, preferences = COALESCE($2::jsonb, preferences), subscribed_at = NOW()
		WHERE id = $1
		RETURNING ` + subscriberColumns
	s, err := scanSubscriber(r.db.QueryRowContext(ctx, query, id, prefs))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// Deactivate turns a subscription off. It returns false when the email is unknown.
func (r *newsletterRepo) Deactivate(ctx context.Context, email string) (bool, error) {
	res, err := r.db.ExecContext(ctx, "UPDATE newsletter_subscribers SET is_active = FALSE WHERE email = $1", email)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// List returns a page of subscribers with the given activity flag
func (r *newsletterRepo) List(ctx context.Context, active bool, page models.Page) ([]*models.Subscriber, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM newsletter_subscribers WHERE is_active = $1", active).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+subscriberColumns+" FROM newsletter_subscribers WHERE is_active = $1 ORDER BY subscribed_at DESC, id DESC LIMIT $2 OFFSET $3",
		active, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	subs := []*models.Subscriber{}
	for rows.Next() {
		s, err := scanSubscriber(rows)
		if err != nil {
			return nil, 0, err
		}
		subs = append(subs, s)
	}
	return subs, total, rows.Err()
}

// BulkUpsert loads emails through COPY into a staging table and merges them
// in one statement. New emails are inserted and inactive ones reactivated;
// it returns the number of rows written.
func (r *newsletterRepo) BulkUpsert(ctx context.Context, emails []string) (int, error) {
	if len(emails) == 0 {
		return 0, nil
	}

	var affected int64
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"CREATE TEMP TABLE newsletter_import (email TEXT NOT NULL) ON COMMIT DROP"); err != nil {
			return fmt.Errorf("create staging table: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, pq.CopyIn("newsletter_import", "email"))
		if err != nil {
			return err
		}
		for _, email := range emails {
			if _, err := stmt.ExecContext(ctx, email); err != nil {
				stmt.Close()
				return err
			}
		}
		if _, err := stmt.ExecContext(ctx); err != nil {
			stmt.Close()
			return err
		}
		if err := stmt.Close(); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO newsletter_subscribers (email)
			SELECT DISTINCT email FROM newsletter_import
			ON CONFLICT (email) DO UPDATE SET is_active = TRUE, subscribed_at = NOW()
			WHERE newsletter_subscribers.is_active = FALSE`)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	return int(affected), err
}
